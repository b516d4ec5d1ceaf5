package middleware

import (
	"net/http"

	"newslens/internal/platform/logger"
	pnet "newslens/internal/platform/net"
)

// AuthPort resolves the operator behind a request
type AuthPort interface {
	// Parse returns the operator name or an error
	Parse(r *http.Request) (operator string, err error)
}

// Auth passes requests through when p is nil, otherwise it rejects requests the port cannot resolve
// the operator lands on both the request context and the context logger
func Auth(p AuthPort, write func(w http.ResponseWriter, status int, body any)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p == nil {
				next.ServeHTTP(w, r)
				return
			}
			op, err := p.Parse(r)
			if err != nil {
				status, body := pnet.Error(err, pnet.RequestID(r.Context()))
				write(w, status, body)
				return
			}
			reqID := pnet.RequestID(r.Context())
			ctx := pnet.WithRequest(r.Context(), reqID, op)
			ctx = logger.WithRequest(ctx, reqID, op)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
