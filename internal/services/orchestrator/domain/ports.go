package domain

import "context"

// ControlPort is the operator surface over the registry
type ControlPort interface {
	Pause(ctx context.Context, id string) (Snapshot, error)
	Resume(ctx context.Context, id string) (Snapshot, error)
	// Trigger runs the workflow once out of band and waits for it
	Trigger(ctx context.Context, id string) (TriggerOutcome, error)
	List(ctx context.Context) []Snapshot
	Get(ctx context.Context, id string) (Snapshot, error)
}

// RunnerPort owns the tick loop lifetime
type RunnerPort interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// RunSink records finished runs, best effort
type RunSink interface {
	Record(ctx context.Context, r RunRecord) error
}

// HistoryPort reads recorded runs
type HistoryPort interface {
	Recent(ctx context.Context, workflowID string, limit int) ([]RunRecord, error)
}
