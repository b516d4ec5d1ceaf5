// Package http provides the operator control surface for the orchestrator
package http

import (
	stdhttp "net/http"
	"strconv"
	"strings"

	"newslens/internal/modkit/httpkit"
	perr "newslens/internal/platform/errors"
	"newslens/internal/platform/logger"
	"newslens/internal/platform/net/middleware"
	"newslens/internal/services/orchestrator/domain"
)

// Register mounts the workflow routes on the given router
// history may be nil when run history is disabled; a nil auth leaves the mutating routes open
func Register(r httpkit.Router, c domain.ControlPort, history domain.HistoryPort, auth middleware.AuthPort) {
	h := &handlers{ctl: c, history: history}

	httpkit.Get(r, "/", h.list)
	httpkit.Get(r, "/{id}", h.get)
	if history != nil {
		httpkit.Get(r, "/{id}/runs", h.runs)
	}
	httpkit.Protected(r, auth, func(pr httpkit.Router) {
		httpkit.Post(pr, "/{id}/pause", h.pause)
		httpkit.Post(pr, "/{id}/resume", h.resume)
		httpkit.Post(pr, "/{id}/trigger", h.trigger)
	})
}

// audit records who changed a workflow
func audit(r *stdhttp.Request, action, id string) {
	logger.C(r.Context()).Info().
		Str("operator", httpkit.OperatorOr(r, "anonymous")).
		Str("workflow", id).
		Msgf("workflow %s requested", action)
}

type handlers struct {
	ctl     domain.ControlPort
	history domain.HistoryPort
}

func workflowID(r *stdhttp.Request) (string, error) {
	id := strings.TrimSpace(httpkit.Param(r, "id"))
	if id == "" {
		return "", perr.WithField(perr.InvalidArgf("workflow id is required"), "id")
	}
	return id, nil
}

// swagger:route GET /workflows Workflows workflowsList
// @Summary List managed workflows
// @Tags Workflows
// @Produce json
// @Success 200 {array} domain.Snapshot "ok"
// @Router /workflows [get]
func (h *handlers) list(r *stdhttp.Request) (any, error) {
	return h.ctl.List(r.Context()), nil
}

// swagger:route GET /workflows/{id} Workflows workflowsGet
// @Summary Get one workflow
// @Tags Workflows
// @Produce json
// @Param id path string true "Workflow id"
// @Success 200 {object} domain.Snapshot "ok"
// @Failure 404 {object} httpkit.Envelope "not found"
// @Router /workflows/{id} [get]
func (h *handlers) get(r *stdhttp.Request) (any, error) {
	id, err := workflowID(r)
	if err != nil {
		return nil, err
	}
	return h.ctl.Get(r.Context(), id)
}

// swagger:route POST /workflows/{id}/pause Workflows workflowsPause
// @Summary Pause a workflow, an in flight run finishes normally
// @Tags Workflows
// @Produce json
// @Param id path string true "Workflow id"
// @Success 200 {object} domain.Snapshot "ok"
// @Failure 404 {object} httpkit.Envelope "not found"
// @Security BearerAuth
// @Router /workflows/{id}/pause [post]
func (h *handlers) pause(r *stdhttp.Request) (any, error) {
	id, err := workflowID(r)
	if err != nil {
		return nil, err
	}
	audit(r, "pause", id)
	return h.ctl.Pause(r.Context(), id)
}

// swagger:route POST /workflows/{id}/resume Workflows workflowsResume
// @Summary Resume a paused workflow
// @Tags Workflows
// @Produce json
// @Param id path string true "Workflow id"
// @Success 200 {object} domain.Snapshot "ok"
// @Failure 404 {object} httpkit.Envelope "not found"
// @Security BearerAuth
// @Router /workflows/{id}/resume [post]
func (h *handlers) resume(r *stdhttp.Request) (any, error) {
	id, err := workflowID(r)
	if err != nil {
		return nil, err
	}
	audit(r, "resume", id)
	return h.ctl.Resume(r.Context(), id)
}

// swagger:route POST /workflows/{id}/trigger Workflows workflowsTrigger
// @Summary Run a workflow once now and wait for it
// @Tags Workflows
// @Produce json
// @Param id path string true "Workflow id"
// @Success 200 {object} domain.TriggerOutcome "ok"
// @Failure 404 {object} httpkit.Envelope "not found"
// @Security BearerAuth
// @Router /workflows/{id}/trigger [post]
func (h *handlers) trigger(r *stdhttp.Request) (any, error) {
	id, err := workflowID(r)
	if err != nil {
		return nil, err
	}
	audit(r, "trigger", id)
	return h.ctl.Trigger(r.Context(), id)
}

// swagger:route GET /workflows/{id}/runs Workflows workflowsRuns
// @Summary Recent runs of a workflow, newest first
// @Tags Workflows
// @Produce json
// @Param id path string true "Workflow id"
// @Param limit query int false "Max rows (default 50)"
// @Success 200 {array} domain.RunRecord "ok"
// @Failure 404 {object} httpkit.Envelope "not found"
// @Router /workflows/{id}/runs [get]
func (h *handlers) runs(r *stdhttp.Request) (any, error) {
	id, err := workflowID(r)
	if err != nil {
		return nil, err
	}
	if _, err := h.ctl.Get(r.Context(), id); err != nil {
		return nil, err
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			return nil, perr.WithField(perr.InvalidArgf("limit must be an integer"), "limit")
		}
	}
	return h.history.Recent(r.Context(), id, limit)
}
