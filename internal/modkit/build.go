package modkit

import (
	"net/http"
	"strings"

	"newslens/internal/modkit/httpkit"
)

// Mount is where a module's routes land under the api root
type Mount struct {
	Prefix string
	Mw     []func(http.Handler) http.Handler
}

// Option adjusts a module's Mount at construction
type Option func(*Mount)

// WithPrefix replaces the module's default prefix
func WithPrefix(p string) Option { return func(m *Mount) { m.Prefix = p } }

// WithMiddlewares appends per module middleware, outermost first
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(m *Mount) { m.Mw = append(m.Mw, mw...) }
}

// Build applies opts over the default prefix and normalizes it to a single leading slash.
// An empty prefix is a wiring bug and panics.
func Build(prefix string, opts ...Option) Mount {
	m := Mount{Prefix: prefix}
	for _, o := range opts {
		o(&m)
	}
	m.Prefix = "/" + strings.Trim(strings.TrimSpace(m.Prefix), "/")
	if m.Prefix == "/" {
		panic("modkit: module prefix is required")
	}
	return m
}

// Routes registers fn under the mount's prefix and middleware
func (m Mount) Routes(r httpkit.Router, fn func(httpkit.Router)) {
	httpkit.MountUnder(r, m.Prefix, m.Mw, fn)
}
