// Package module wires the FactHarvest workflow as a modkit.Module
package module

import (
	"newslens/internal/adapters/news"
	"newslens/internal/modkit"
	"newslens/internal/modkit/httpkit"
	"newslens/internal/services/factharvest/domain"
	"newslens/internal/services/factharvest/service"
	orchdom "newslens/internal/services/orchestrator/domain"
)

// Ports exported by the harvest module
type Ports struct {
	Workflow orchdom.Workflow
}

// Module implements modkit.Module for FactHarvest
type Module struct {
	ports Ports
}

// New builds the workflow over the configured providers
func New(deps modkit.Deps, opts Options, providers []news.Provider, dedup news.Dedup, ex domain.Extractor, store domain.BatchStore) *Module {
	svc := service.New(deps.Log, providers, dedup, ex, store, service.Config{Concurrency: opts.Concurrency})
	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name())
	}
	deps.Log.Info().Strs("providers", names).Int("concurrency", opts.Concurrency).Msg("fact harvest ready")
	return &Module{ports: Ports{Workflow: svc}}
}

// Name returns the module name
func (m *Module) Name() string { return "factharvest" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// MountRoutes is a no-op: the harvest is driven through the orchestrator routes
func (m *Module) MountRoutes(_ httpkit.Router) {}
