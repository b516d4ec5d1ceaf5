package httpkit

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"unicode"

	perr "newslens/internal/platform/errors"
	pnet "newslens/internal/platform/net"
)

// TokenFunc resolves a bearer token to an operator name
type TokenFunc func(token string) (operator string, err error)

// Port is a middleware.AuthPort reading the bearer token and resolving it through a TokenFunc
type Port struct {
	resolve TokenFunc
}

func NewPortFunc(fn TokenFunc) *Port { return &Port{resolve: fn} }

// Parse never leaks why a token was refused; every failure is the same Unauthorized
func (p *Port) Parse(r *http.Request) (string, error) {
	raw, ok := bearer(r.Header.Get("Authorization"))
	if !ok {
		return "", perr.Unauthorizedf("missing bearer token")
	}
	if p.resolve == nil {
		return "", perr.Unauthorizedf("invalid bearer token")
	}
	op, err := p.resolve(raw)
	if err != nil {
		return "", perr.Unauthorizedf("invalid bearer token")
	}
	return op, nil
}

// bearer takes "Bearer <token>" with any scheme case and any whitespace around the token
func bearer(h string) (string, bool) {
	h = strings.TrimSpace(h)
	const scheme = "bearer"
	if len(h) <= len(scheme) || !strings.EqualFold(h[:len(scheme)], scheme) || !unicode.IsSpace(rune(h[len(scheme)])) {
		return "", false
	}
	tok := strings.TrimSpace(h[len(scheme):])
	return tok, tok != ""
}

// StaticTokens matches against a fixed operator to token table.
// Every entry is compared in constant time so timing does not reveal which operator matched.
func StaticTokens(operators map[string]string) TokenFunc {
	type entry struct{ op, token []byte }
	entries := make([]entry, 0, len(operators))
	for op, tok := range operators {
		if strings.TrimSpace(op) != "" && strings.TrimSpace(tok) != "" {
			entries = append(entries, entry{[]byte(op), []byte(tok)})
		}
	}
	return func(token string) (string, error) {
		var found []byte
		for _, e := range entries {
			if subtle.ConstantTimeCompare(e.token, []byte(token)) == 1 {
				found = e.op
			}
		}
		if found == nil {
			return "", perr.Unauthorizedf("unknown token")
		}
		return string(found), nil
	}
}

// OperatorOr is the authenticated operator, or fallback on routes without auth
func OperatorOr(r *http.Request, fallback string) string {
	if op := pnet.Operator(r.Context()); op != "" {
		return op
	}
	return fallback
}
