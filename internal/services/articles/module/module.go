// Package module wires the ArticleCreation workflow as a modkit.Module
package module

import (
	"newslens/internal/modkit"
	"newslens/internal/modkit/httpkit"
	"newslens/internal/services/articles/domain"
	"newslens/internal/services/articles/service"
	orchdom "newslens/internal/services/orchestrator/domain"
)

// Ports exported by the article module
type Ports struct {
	Workflow orchdom.Workflow
}

// Module implements modkit.Module for ArticleCreation
type Module struct {
	ports Ports
}

// New builds the workflow over the fact store and the article writer
func New(deps modkit.Deps, opts Options, store domain.ArticleStore, w domain.Writer) *Module {
	svc := service.New(deps.Log, store, w, service.Config{Trigger: opts.Trigger})
	deps.Log.Info().
		Int("min_facts", opts.Trigger.MinFacts).
		Int("since_days", opts.Trigger.SinceDays).
		Int("max_threads", opts.Trigger.MaxRows).
		Msg("article creation ready")
	return &Module{ports: Ports{Workflow: svc}}
}

// Name returns the module name
func (m *Module) Name() string { return "articles" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// MountRoutes is a no-op: the workflow is driven through the orchestrator routes
func (m *Module) MountRoutes(_ httpkit.Router) {}
