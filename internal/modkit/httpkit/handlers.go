// Package httpkit is the surface modules register routes through
// so they do not import internal/platform/net/http directly
package httpkit

import (
	"net/http"

	phttp "newslens/internal/platform/net/http"
)

type (
	Router   = phttp.Router
	Envelope = phttp.Envelope
	Handler  = phttp.Handler
)

// Get registers a body-less handler; the result is wrapped in the envelope
func Get(r Router, path string, h func(*http.Request) (any, error)) {
	r.Get(path, phttp.Call(h))
}

// Post is Get for POST
func Post(r Router, path string, h func(*http.Request) (any, error)) {
	r.Post(path, phttp.Call(h))
}

// PostJSON decodes and validates a T body before calling h
func PostJSON[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	r.Post(path, phttp.JSONHandler(h))
}

func Param(r *http.Request, name string) string { return phttp.Param(r, name) }
