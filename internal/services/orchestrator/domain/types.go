// Package domain defines the workflow contract and the orchestrator value types
package domain

import (
	"context"
	"time"
)

// Well known workflow ids
const (
	FactHarvestID     = "FactHarvest"
	ThreadLinkerID    = "ThreadLinker"
	ArticleCreationID = "ArticleCreation"
)

// Workflow is a unit of work the orchestrator can run on a schedule
// RunOnce must be safe to re-run and should report failures through RunResult
// a returned error or a panic is treated as a crash of that run only
type Workflow interface {
	ID() string
	RunOnce(ctx context.Context) (RunResult, error)
}

// WorkflowFunc adapts a function to Workflow
type WorkflowFunc struct {
	Name string
	Fn   func(ctx context.Context) (RunResult, error)
}

// ID returns the workflow id
func (w WorkflowFunc) ID() string { return w.Name }

// RunOnce calls Fn
func (w WorkflowFunc) RunOnce(ctx context.Context) (RunResult, error) { return w.Fn(ctx) }

// RunResult is produced by one RunOnce call
type RunResult struct {
	ItemsProcessed int
	HadErrors      bool
	// ErrorMessage is only meaningful when HadErrors is set
	ErrorMessage string
}

// Succeeded reports a clean run
func Succeeded(items int) RunResult { return RunResult{ItemsProcessed: items} }

// Failed reports a run that completed with errors
func Failed(items int, msg string) RunResult {
	if msg == "" {
		msg = "run reported errors"
	}
	return RunResult{ItemsProcessed: items, HadErrors: true, ErrorMessage: msg}
}

// State is the lifecycle state of a managed workflow
type State string

// Lifecycle states
const (
	StateStopped State = "stopped"
	StateRunning State = "running"
	StatePaused  State = "paused"
	StateError   State = "error"
)

// Scheduled reports whether the tick loop should consider a workflow in this state
// Error stays on the schedule so the next successful run can recover it
func (s State) Scheduled() bool { return s == StateRunning || s == StateError }

// Snapshot is the read only view of a managed workflow
type Snapshot struct {
	ID                 string     `json:"id"`
	State              State      `json:"state"`
	LastRunAt          *time.Time `json:"last_run_at"`
	LastSuccessAt      *time.Time `json:"last_success_at"`
	LastItemsProcessed int        `json:"last_items_processed"`
	LastError          *string    `json:"last_error"`
	IntervalSeconds    int64      `json:"interval_seconds"`
	// Running is true while a run holds the workflow gate
	Running bool `json:"running"`
}

// TriggerOutcome is returned by a manual trigger
type TriggerOutcome struct {
	ID string `json:"id"`
	// Skipped is true when a run was already in flight and nothing ran
	Skipped  bool     `json:"skipped"`
	Workflow Snapshot `json:"workflow"`
}

// Outcome classifies a finished run
type Outcome string

// Run outcomes
const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeReported  Outcome = "reported_errors"
	OutcomeCrashed   Outcome = "crashed"
)

// RunRecord describes one executed run for history sinks
type RunRecord struct {
	WorkflowID     string    `json:"workflow_id"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	ItemsProcessed int       `json:"items_processed"`
	HadErrors      bool      `json:"had_errors"`
	Error          string    `json:"error,omitempty"`
	Outcome        Outcome   `json:"outcome"`
	Manual         bool      `json:"manual"`
}

// Duration returns the wall time of the run
func (r RunRecord) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }
