package linker

import (
	"sort"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// TokenSet is an order irrelevant set of normalized tokens
// the zero value (nil) is a valid empty set
type TokenSet map[string]struct{}

// foldPool holds transformer chains; a chain is stateful so each caller takes its own
var foldPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKC,
			cases.Fold(),
			runes.Remove(runes.In(unicode.Mn)),
			runes.Remove(runes.In(unicode.Cf)),
			width.Fold,
		)
	},
}

// Normalize folds a raw token into its comparable form
// returns "" for tokens that are blank after folding
func Normalize(s string) string {
	s = strings.TrimSpace(strings.ToValidUTF8(s, ""))
	if s == "" {
		return ""
	}
	tr := foldPool.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	foldPool.Put(tr)
	if err != nil {
		out = strings.ToLower(s)
	}
	return strings.Join(strings.Fields(out), " ")
}

// NewTokenSet builds a set from raw tokens, dropping blanks
func NewTokenSet(tokens ...string) TokenSet {
	ts := make(TokenSet, len(tokens))
	for _, t := range tokens {
		if n := Normalize(t); n != "" {
			ts[n] = struct{}{}
		}
	}
	return ts
}

// ParseCSV splits a comma separated token list as stored on thread and batch rows
func ParseCSV(csv string) TokenSet {
	if strings.TrimSpace(csv) == "" {
		return TokenSet{}
	}
	return NewTokenSet(strings.Split(csv, ",")...)
}

// Len returns the number of tokens
func (ts TokenSet) Len() int { return len(ts) }

// Has reports membership of an already normalized token
func (ts TokenSet) Has(tok string) bool {
	_, ok := ts[tok]
	return ok
}

// Sorted returns the tokens in ascending byte order
func (ts TokenSet) Sorted() []string {
	out := make([]string, 0, len(ts))
	for t := range ts {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// CSV joins the sorted tokens with commas
func (ts TokenSet) CSV() string { return strings.Join(ts.Sorted(), ",") }

// Union returns a new set holding tokens of both sets
func (ts TokenSet) Union(other TokenSet) TokenSet {
	out := make(TokenSet, len(ts)+len(other))
	for t := range ts {
		out[t] = struct{}{}
	}
	for t := range other {
		out[t] = struct{}{}
	}
	return out
}
