package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// chiRouter adapts a chi.Router; groups and routes share the root mux
type chiRouter struct {
	r    chi.Router
	root *chi.Mux
}

// AdaptChi wraps a chi mux as a Router
func AdaptChi(m *chi.Mux) Router { return chiRouter{r: m, root: m} }

func (c chiRouter) Get(p string, h Handler)  { c.r.MethodFunc(http.MethodGet, p, h) }
func (c chiRouter) Post(p string, h Handler) { c.r.MethodFunc(http.MethodPost, p, h) }

func (c chiRouter) Handle(p string, h http.Handler)           { c.r.Handle(p, h) }
func (c chiRouter) Use(mw ...func(http.Handler) http.Handler) { c.r.Use(mw...) }

func (c chiRouter) Group(fn func(Router)) {
	c.r.Group(func(sub chi.Router) { fn(chiRouter{r: sub, root: c.root}) })
}

func (c chiRouter) Route(pattern string, fn func(Router)) {
	c.r.Route(pattern, func(sub chi.Router) { fn(chiRouter{r: sub, root: c.root}) })
}

// Mux is the root handler, the same for every group and route
func (c chiRouter) Mux() http.Handler { return c.root }

// Param returns a path parameter such as {id}, empty when absent
func Param(r *http.Request, name string) string { return chi.URLParam(r, name) }
