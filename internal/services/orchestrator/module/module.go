// Package module wires the orchestrator into the automation process and exposes its ports
package module

import (
	"context"

	"newslens/internal/modkit"
	"newslens/internal/modkit/httpkit"
	"newslens/internal/platform/net/middleware"
	"newslens/internal/services/orchestrator/domain"
	orchhttp "newslens/internal/services/orchestrator/http"
	orchrepo "newslens/internal/services/orchestrator/repo"
	"newslens/internal/services/orchestrator/service"
)

// Ports are the orchestrator ports exposed via the module registry
type Ports struct {
	Control domain.ControlPort
	Runner  domain.RunnerPort
	History domain.HistoryPort
}

// Module owns the registry, the tick loop and the control routes
type Module struct {
	deps    modkit.Deps
	opts    Options
	mount   modkit.Mount
	svc     *service.Svc
	history *orchrepo.RunHistory
	auth    middleware.AuthPort
	ports   Ports
}

// New registers workflows in the given order and builds the orchestrator
// a registry error here is a configuration failure and should stop startup
func New(deps modkit.Deps, opts Options, workflows []domain.Workflow, mopts ...modkit.Option) (*Module, error) {
	regs := make([]service.Registration, 0, len(workflows))
	for _, wf := range workflows {
		reg := service.Registration{Workflow: wf}
		if wf != nil {
			reg.Interval = opts.IntervalFor(wf.ID())
			reg.StartPaused = opts.IsDisabled(wf.ID())
		}
		regs = append(regs, reg)
	}
	registry, err := service.NewRegistry(deps.Log, regs...)
	if err != nil {
		return nil, err
	}

	m := &Module{deps: deps, opts: opts, mount: modkit.Build("/workflows", mopts...)}
	cfg := service.Config{PollEvery: opts.PollEvery}
	if opts.History && deps.CH != nil {
		m.history = orchrepo.NewCH(deps.CH)
		cfg.Sink = m.history
	}
	m.svc = service.New(deps, registry, cfg)

	if len(opts.Tokens) > 0 {
		m.auth = httpkit.NewPortFunc(httpkit.StaticTokens(opts.Tokens))
	} else {
		deps.Log.Warn().Msg("no CORE_ORCHESTRATOR_TOKENS set, workflow control routes are open")
	}

	m.ports = Ports{Control: m.svc, Runner: m.svc}
	if m.history != nil {
		m.ports.History = m.history
	}
	return m, nil
}

// Start prepares run history and launches the tick loop
func (m *Module) Start(ctx context.Context) error {
	if m.history != nil {
		if err := m.history.Migrate(ctx); err != nil {
			// history is best effort, scheduling still starts
			m.deps.Log.Warn().Err(err).Msg("run history unavailable")
		}
	}
	return m.svc.Start(ctx)
}

// Shutdown stops the loop, bounded by the configured grace period
func (m *Module) Shutdown(ctx context.Context) error {
	if m.opts.ShutdownGrace > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.opts.ShutdownGrace)
		defer cancel()
	}
	return m.svc.Shutdown(ctx)
}

// Name returns the module name
func (m *Module) Name() string { return "orchestrator" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// MountRoutes mounts the workflow control routes under the module prefix
func (m *Module) MountRoutes(r httpkit.Router) {
	m.mount.Routes(r, func(rr httpkit.Router) {
		orchhttp.Register(rr, m.svc, m.ports.History, m.auth)
	})
}
