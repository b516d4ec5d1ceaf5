// Package http adapts chi to the platform Router and writes every response in one envelope
package http

import (
	stdhttp "net/http"

	pnet "newslens/internal/platform/net"
)

// Envelope is the body of every response
type Envelope = pnet.Wire

// Response is what return style handlers produce; Body may be an error
type Response struct {
	Status int
	Body   any
	Header stdhttp.Header
}

// OK is a 200 with data
func OK(data any) Response { return Response{Status: stdhttp.StatusOK, Body: data} }

// Error lets the error's code pick the status
func Error(err error) Response { return Response{Body: err} }

// Handle adapts a Response returning function to a handler
func Handle(h func(r *stdhttp.Request) Response) Handler {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) { h(r).write(w, r) }
}

func (resp Response) write(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	for k, vv := range resp.Header {
		for _, v := range vv {
			w.Header().Add(k, v)
		}
	}
	if resp.Status == stdhttp.StatusNoContent {
		w.WriteHeader(stdhttp.StatusNoContent)
		return
	}
	err, _ := resp.Body.(error)
	data := resp.Body
	if err != nil {
		data = nil
	}
	status, env := pnet.Reply(resp.Status, data, err, pnet.RequestID(r.Context()))
	pnet.WriteJSON(w, status, env)
}
