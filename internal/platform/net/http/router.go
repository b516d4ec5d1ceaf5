package http

import "net/http"

// Handler is the function shape routes are registered with
type Handler = func(http.ResponseWriter, *http.Request)

// Router is the routing surface modules mount against, implemented over chi
type Router interface {
	Get(path string, h Handler)
	Post(path string, h Handler)
	Handle(path string, h http.Handler)
	Use(mw ...func(http.Handler) http.Handler)
	// Group shares the path but scopes middleware added inside fn
	Group(fn func(Router))
	Route(pattern string, fn func(Router))
	Mux() http.Handler
}
