// Package http exposes a dry run of the thread linker
package http

import (
	"context"
	stdhttp "net/http"

	"newslens/internal/modkit/httpkit"
	"newslens/internal/services/threadlinker/service"
)

// PreviewPort scores tokens without assigning anything
type PreviewPort interface {
	Preview(ctx context.Context, entities, keywords []string) (service.Preview, error)
}

// PreviewRequest is the token set of a hypothetical batch
type PreviewRequest struct {
	Entities []string `json:"entities" validate:"max=50,dive,max=100"`
	Keywords []string `json:"keywords" validate:"max=50,dive,max=100"`
}

// Register mounts the preview route
func Register(r httpkit.Router, p PreviewPort) {
	h := &handlers{port: p}
	httpkit.PostJSON(r, "/preview", h.preview)
}

type handlers struct {
	port PreviewPort
}

// swagger:route POST /linker/preview Linker linkerPreview
// @Summary Score a token set against current candidate threads without writing
// @Tags Linker
// @Accept json
// @Produce json
// @Param body body PreviewRequest true "Batch tokens"
// @Success 200 {object} service.Preview "decision and per candidate scores"
// @Failure 400 {object} httpkit.Envelope "malformed or oversized body"
// @Failure 422 {object} httpkit.Envelope "no tokens"
// @Router /linker/preview [post]
func (h *handlers) preview(r *stdhttp.Request, in PreviewRequest) (any, error) {
	return h.port.Preview(r.Context(), in.Entities, in.Keywords)
}
