// Package http serves liveness, readiness and build info
package http

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"newslens/internal/core/version"
	"newslens/internal/modkit/httpkit"
	phttp "newslens/internal/platform/net/http"
)

// Pinger is any backend that can prove it is reachable
type Pinger interface {
	Ping(context.Context) error
}

type PingFunc func(context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Check names one backend; a nil Pinger is a disabled backend
type Check struct {
	Name string
	Ping Pinger
}

type Deps struct {
	ServiceName string
	StartedAt   time.Time
	Checks      []Check
	// Timeout bounds all pings together, 2s by default
	Timeout time.Duration
}

// Register mounts /health, /ready and /version
func Register(r httpkit.Router, d Deps) {
	if d.Timeout <= 0 {
		d.Timeout = 2 * time.Second
	}
	h := &handlers{deps: d, now: time.Now}
	httpkit.Get(r, "/health", h.health)
	httpkit.Get(r, "/ready", h.ready)
	httpkit.Get(r, "/version", h.version)
}

type handlers struct {
	deps Deps
	now  func() time.Time
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	OK            bool      `json:"ok"             example:"true"`
	Service       string    `json:"service"        example:"newslens-automation"`
	Started       time.Time `json:"started"        example:"2025-09-03T13:00:00Z"`
	UptimeSeconds int64     `json:"uptime_seconds" example:"300"`
}

// ReadyCheck is the outcome for one backend: ok, fail or skipped
type ReadyCheck struct {
	Name   string `json:"name"            example:"pg"`
	Status string `json:"status"          example:"ok"`
	Error  string `json:"error,omitempty" example:"dial tcp 127.0.0.1:5432: connect: connection refused"`
}

// ReadyResponse is ok unless some enabled backend failed
type ReadyResponse struct {
	Status string       `json:"status" example:"ok"`
	Checks []ReadyCheck `json:"checks"`
}

// swagger:route GET /meta/health Meta metaHealth
// @Summary Liveness and uptime
// @Tags Meta
// @Produce json
// @Success 200 {object} HealthResponse "ok"
// @Router /meta/health [get]
func (h *handlers) health(_ *http.Request) (any, error) {
	return HealthResponse{
		OK:            true,
		Service:       h.deps.ServiceName,
		Started:       h.deps.StartedAt.UTC(),
		UptimeSeconds: int64(h.now().Sub(h.deps.StartedAt) / time.Second),
	}, nil
}

// swagger:route GET /meta/ready Meta metaReady
// @Summary Readiness with one ping per enabled backend
// @Tags Meta
// @Produce json
// @Success 200 {object} ReadyResponse "every enabled backend answered"
// @Failure 503 {object} ReadyResponse "some backend failed"
// @Router /meta/ready [get]
func (h *handlers) ready(r *http.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), h.deps.Timeout)
	defer cancel()

	checks := make([]ReadyCheck, len(h.deps.Checks))
	var g errgroup.Group
	for i, c := range h.deps.Checks {
		checks[i] = ReadyCheck{Name: c.Name, Status: "skipped"}
		if c.Ping == nil {
			continue
		}
		g.Go(func() error {
			if err := c.Ping.Ping(ctx); err != nil {
				checks[i].Status, checks[i].Error = "fail", err.Error()
				return nil
			}
			checks[i].Status = "ok"
			return nil
		})
	}
	_ = g.Wait()

	out := ReadyResponse{Status: "ok", Checks: checks}
	for _, c := range checks {
		if c.Status == "fail" {
			out.Status = "fail"
			return phttp.Response{Status: http.StatusServiceUnavailable, Body: out}, nil
		}
	}
	return out, nil
}

// swagger:route GET /meta/version Meta metaVersion
// @Summary Build and version info
// @Tags Meta
// @Produce json
// @Success 200 {object} version.BuildInfo "ok"
// @Router /meta/version [get]
func (h *handlers) version(_ *http.Request) (any, error) {
	return version.Info(), nil
}
