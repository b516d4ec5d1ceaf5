// Package repo persists workflow run history to clickhouse
package repo

import (
	"context"

	perr "newslens/internal/platform/errors"
	"newslens/internal/platform/store"
	"newslens/internal/services/orchestrator/domain"
)

// Table is the run history table
const Table = "workflow_runs"

const ddl = `
CREATE TABLE IF NOT EXISTS workflow_runs
(
  workflow_id     LowCardinality(String),
  started_at      DateTime64(3, 'UTC'),
  finished_at     DateTime64(3, 'UTC'),
  duration_ms     UInt64,
  items_processed Int64,
  had_errors      Bool,
  error           String,
  outcome         LowCardinality(String),
  manual          Bool
)
ENGINE = MergeTree
PARTITION BY toYYYYMM(started_at)
ORDER BY (workflow_id, started_at)
TTL toDateTime(started_at) + INTERVAL 90 DAY`

// RunHistory writes one row per run and reads recent runs back
type RunHistory struct {
	ch store.Clickhouse
}

var _ domain.RunSink = (*RunHistory)(nil)

// NewCH returns a run history backed by clickhouse
func NewCH(ch store.Clickhouse) *RunHistory {
	if ch == nil {
		panic("orchestrator.RunHistory requires a clickhouse seam")
	}
	return &RunHistory{ch: ch}
}

// Migrate creates the history table when missing
func (r *RunHistory) Migrate(ctx context.Context) error {
	if err := r.ch.Exec(ctx, ddl); err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "create workflow_runs")
	}
	return nil
}

// Record implements domain.RunSink
func (r *RunHistory) Record(ctx context.Context, rec domain.RunRecord) error {
	ms := rec.Duration().Milliseconds()
	if ms < 0 {
		ms = 0
	}
	row := []any{
		rec.WorkflowID,
		rec.StartedAt.UTC(),
		rec.FinishedAt.UTC(),
		uint64(ms),
		int64(rec.ItemsProcessed),
		rec.HadErrors,
		rec.Error,
		string(rec.Outcome),
		rec.Manual,
	}
	if err := r.ch.Insert(ctx, Table, [][]any{row}); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "insert run of %s", rec.WorkflowID)
	}
	return nil
}

// Recent returns the latest runs of one workflow, newest first
func (r *RunHistory) Recent(ctx context.Context, workflowID string, limit int) ([]domain.RunRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := r.ch.Query(ctx, `
		SELECT workflow_id, started_at, finished_at, items_processed, had_errors, error, outcome, manual
		FROM workflow_runs
		WHERE workflow_id = ?
		ORDER BY started_at DESC
		LIMIT ?`, workflowID, limit)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeDB, "query runs of %s", workflowID)
	}
	defer rows.Close()

	var out []domain.RunRecord
	for rows.Next() {
		var (
			rec     domain.RunRecord
			items   int64
			outcome string
		)
		if err := rows.Scan(&rec.WorkflowID, &rec.StartedAt, &rec.FinishedAt, &items, &rec.HadErrors, &rec.Error, &outcome, &rec.Manual); err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeDB, "scan run")
		}
		rec.ItemsProcessed = int(items)
		rec.Outcome = domain.Outcome(outcome)
		out = append(out, rec)
	}
	return out, rows.Err()
}
