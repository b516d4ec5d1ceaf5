// Package module builds the fact store and url dedup backends from deps and options
package module

import (
	"context"

	"newslens/internal/modkit"
	"newslens/internal/modkit/httpkit"
	perr "newslens/internal/platform/errors"
	"newslens/internal/services/facts/domain"
	factshttp "newslens/internal/services/facts/http"
	"newslens/internal/services/facts/repo"
)

// Ports are the fact store ports shared with the workflow modules
// Dedup comes first: the memory store satisfies both ports and PortsOf takes the first match
type Ports struct {
	Dedup domain.Dedup
	Repo  domain.Repository
}

// Module owns the chosen backends and the read only thread routes
type Module struct {
	deps  modkit.Deps
	opts  Options
	mount modkit.Mount
	ports Ports
	pg    bool
}

// New picks backends; a postgres choice without a PG seam is a configuration error
func New(deps modkit.Deps, opts Options, mopts ...modkit.Option) (*Module, error) {
	m := &Module{deps: deps, opts: opts, mount: modkit.Build("/threads", mopts...)}

	var mem *repo.Memory
	memory := func() *repo.Memory {
		if mem == nil {
			mem = repo.NewMemory()
		}
		return mem
	}

	switch opts.Backend {
	case BackendMemory:
		m.ports.Repo = memory()
	case BackendPostgres, "":
		if deps.PG == nil {
			return nil, perr.WithField(perr.InvalidArgf("facts backend postgres needs SERVICE_PGSQL_ENABLED"), "FACTS_BACKEND")
		}
		m.ports.Repo = repo.NewPG(deps.PG)
		m.pg = true
	default:
		return nil, perr.WithField(perr.InvalidArgf("unknown facts backend %q", opts.Backend), "FACTS_BACKEND")
	}

	switch opts.Dedup {
	case BackendMemory:
		m.ports.Dedup = memory()
	case BackendRedis:
		if deps.Redis == nil {
			return nil, perr.WithField(perr.InvalidArgf("dedup backend redis needs SERVICE_REDIS_ENABLED"), "FACTS_DEDUP")
		}
		m.ports.Dedup = repo.NewRedisDedup(deps.Redis, opts.RedisPrefix, opts.DedupTTL)
	case BackendPostgres, "":
		if deps.PG == nil {
			return nil, perr.WithField(perr.InvalidArgf("dedup backend postgres needs SERVICE_PGSQL_ENABLED"), "FACTS_DEDUP")
		}
		m.ports.Dedup = repo.NewPGDedup(deps.PG)
		m.pg = true
	default:
		return nil, perr.WithField(perr.InvalidArgf("unknown dedup backend %q", opts.Dedup), "FACTS_DEDUP")
	}

	deps.Log.Info().Str("backend", opts.Backend).Str("dedup", opts.Dedup).Msg("fact store ready")
	return m, nil
}

// Start applies the postgres schema when a postgres backend is in use
func (m *Module) Start(ctx context.Context) error {
	if !m.pg || !m.opts.Migrate {
		return nil
	}
	return repo.Migrate(ctx, m.deps.PG)
}

// Name implements modkit.Module
func (m *Module) Name() string { return "facts" }

// Ports implements modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	m.mount.Routes(r, func(rr httpkit.Router) {
		factshttp.Register(rr, m.ports.Repo)
	})
}
