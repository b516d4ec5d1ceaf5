package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	pnet "newslens/internal/platform/net"
	"newslens/internal/platform/net/middleware"
)

const (
	// DefaultRequestTimeout applies when CommonStack gets zero
	DefaultRequestTimeout = 30 * time.Second
	slowRequest           = 2 * time.Second
)

// CommonStack is the api middleware chain.
// Manual triggers wait for their run, so the api passes a longer timeout than the default.
func CommonStack(timeout time.Duration) []func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.AccessLog(slowRequest),
		middleware.RecoverJSON,
		middleware.NoCache(),
		middleware.CORS(middleware.CORSOptions{}),
		middleware.Compress(flate.BestSpeed),
		middleware.Heartbeat("/health"),
		middleware.StripSlashes(),
		middleware.Timeout(timeout),
	}
}

// Auth is middleware.Auth writing rejections in the envelope
func Auth(p middleware.AuthPort) func(http.Handler) http.Handler {
	return middleware.Auth(p, pnet.WriteJSON)
}
