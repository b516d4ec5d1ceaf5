// Package module mounts the meta endpoints
package module

import (
	"context"
	"strings"
	"time"

	"newslens/internal/core/version"
	"newslens/internal/modkit"
	"newslens/internal/modkit/httpkit"

	metahttp "newslens/internal/services/api/meta/http"
)

type Module struct {
	mount modkit.Mount
	deps  metahttp.Deps
}

// New reports as service, version.Service when blank, with a readiness check per backend
func New(deps modkit.Deps, service string, opts ...modkit.Option) *Module {
	if strings.TrimSpace(service) == "" {
		service = version.Service
	}
	d := metahttp.Deps{
		ServiceName: service,
		StartedAt:   time.Now(),
		Checks: []metahttp.Check{
			{Name: "pg", Ping: pinger(deps.PG)},
			{Name: "ch", Ping: pinger(deps.CH)},
			{Name: "redis"},
		},
	}
	if deps.Redis != nil {
		d.Checks[2].Ping = metahttp.PingFunc(func(ctx context.Context) error { return deps.Redis.Ping(ctx).Err() })
	}
	return &Module{mount: modkit.Build("/meta", opts...), deps: d}
}

// pinger is nil for a disabled backend or one that cannot ping
func pinger(v any) metahttp.Pinger {
	p, _ := v.(metahttp.Pinger)
	return p
}

func (m *Module) Name() string { return "meta" }
func (m *Module) Ports() any   { return nil }

func (m *Module) MountRoutes(r httpkit.Router) {
	m.mount.Routes(r, func(sub httpkit.Router) { metahttp.Register(sub, m.deps) })
}
