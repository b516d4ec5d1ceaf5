package httpkit

import (
	"newslens/internal/platform/net/middleware"
)

// Protected groups routes under bearer auth
// a nil port leaves the group open, which is how a deployment without tokens runs
func Protected(r Router, p middleware.AuthPort, fn func(Router)) {
	r.Group(func(gr Router) {
		gr.Use(Auth(p))
		fn(gr)
	})
}
