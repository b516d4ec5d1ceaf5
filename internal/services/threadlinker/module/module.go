// Package module wires the ThreadLinker workflow as a modkit.Module
package module

import (
	"newslens/internal/modkit"
	"newslens/internal/modkit/httpkit"
	orchdom "newslens/internal/services/orchestrator/domain"
	"newslens/internal/services/threadlinker/domain"
	linkerhttp "newslens/internal/services/threadlinker/http"
	"newslens/internal/services/threadlinker/service"
)

// Ports exported by the linker module
type Ports struct {
	Workflow orchdom.Workflow
	Preview  linkerhttp.PreviewPort
}

// Module implements modkit.Module for ThreadLinker
type Module struct {
	mount modkit.Mount
	ports Ports
}

// New fails on invalid linker options so a bad threshold stops startup
func New(deps modkit.Deps, opts Options, store domain.ThreadStore, mopts ...modkit.Option) (*Module, error) {
	svc, err := service.New(deps.Log, store, service.Config{
		Linker:     opts.Linker,
		BatchLimit: opts.BatchLimit,
		Candidates: opts.Candidates,
	})
	if err != nil {
		return nil, err
	}
	deps.Log.Info().
		Float64("threshold", opts.Linker.Threshold).
		Float64("weight_entities", opts.Linker.WeightEntities).
		Float64("weight_keywords", opts.Linker.WeightKeywords).
		Msg("thread linker ready")
	return &Module{mount: modkit.Build("/linker", mopts...), ports: Ports{Workflow: svc, Preview: svc}}, nil
}

// Name returns the module name
func (m *Module) Name() string { return "threadlinker" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// MountRoutes mounts the dry run under /linker; threads themselves are read through the facts routes
func (m *Module) MountRoutes(r httpkit.Router) {
	m.mount.Routes(r, func(sub httpkit.Router) {
		linkerhttp.Register(sub, m.ports.Preview)
	})
}
