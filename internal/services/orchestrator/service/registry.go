package service

import (
	"strings"
	"time"

	"github.com/rs/zerolog"

	perr "newslens/internal/platform/errors"
	"newslens/internal/services/orchestrator/domain"
)

// Registration binds a workflow to its schedule
type Registration struct {
	Workflow domain.Workflow
	Interval time.Duration
	// StartPaused registers the workflow but leaves it Paused after Start
	StartPaused bool
}

// Registry is the fixed set of managed workflows, immutable after construction
type Registry struct {
	order []*managed
	byID  map[string]*managed
}

// NewRegistry validates registrations and builds the registry in the given order
func NewRegistry(log zerolog.Logger, regs ...Registration) (*Registry, error) {
	r := &Registry{byID: make(map[string]*managed, len(regs))}
	for i, reg := range regs {
		if reg.Workflow == nil {
			return nil, perr.InvalidArgf("registration %d has no workflow", i)
		}
		id := reg.Workflow.ID()
		if strings.TrimSpace(id) == "" {
			return nil, perr.InvalidArgf("registration %d has an empty workflow id", i)
		}
		if reg.Interval <= 0 {
			return nil, perr.WithField(perr.InvalidArgf("workflow %s interval must be positive got %s", id, reg.Interval), "interval")
		}
		if _, dup := r.byID[id]; dup {
			return nil, perr.DuplicateKeyf("workflow %s registered twice", id)
		}
		m := newManaged(reg, log)
		r.order = append(r.order, m)
		r.byID[id] = m
	}
	return r, nil
}

// IDs returns workflow ids in registration order
func (r *Registry) IDs() []string {
	out := make([]string, 0, len(r.order))
	for _, m := range r.order {
		out = append(out, m.id)
	}
	return out
}

// Len returns the number of registered workflows
func (r *Registry) Len() int { return len(r.order) }

func (r *Registry) lookup(id string) (*managed, error) {
	m, ok := r.byID[id]
	if !ok {
		return nil, perr.WithField(perr.NotFoundf("workflow %q not found", id), "id")
	}
	return m, nil
}
