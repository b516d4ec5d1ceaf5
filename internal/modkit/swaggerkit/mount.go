// Package swaggerkit serves the swagger ui and the prepared OpenAPI document
package swaggerkit

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag/v2"

	"newslens/internal/platform/logger"
	pnet "newslens/internal/platform/net"
	phttp "newslens/internal/platform/net/http"
)

// instanceName is the swag registry key of the api document
const instanceName = "api"

// Options for the docs routes
type Options struct {
	Enabled bool
	// Base is the server url written into the document, /api/v1 by default
	Base string
	// Title replaces the generated title when set
	Title string
}

// Mount serves the ui under /api/docs/ and the document at /api/docs/doc.json
func Mount(r phttp.Router, o Options) {
	if !o.Enabled {
		return
	}
	if o.Base == "" {
		o.Base = "/api/v1"
	}
	r.Get("/api/docs", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/api/docs/", http.StatusPermanentRedirect)
	})
	r.Get("/api/docs/doc.json", func(w http.ResponseWriter, req *http.Request) {
		raw, err := swag.ReadDoc(instanceName)
		var doc []byte
		if err == nil {
			doc, err = Prepare(raw, o.Base, o.Title)
		}
		if err != nil {
			logger.C(req.Context()).Error().Err(err).Msg("swagger spec unreadable")
			status, body := pnet.Error(err, pnet.RequestID(req.Context()))
			pnet.WriteJSON(w, status, body)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(doc)
	})
	r.Handle("/api/docs/*", httpSwagger.Handler(
		httpSwagger.InstanceName(instanceName),
		httpSwagger.URL("/api/docs/doc.json"),
	))
}
