package repo

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	perr "newslens/internal/platform/errors"
	"newslens/internal/platform/store"
	"newslens/internal/platform/testkit"
	"newslens/internal/services/orchestrator/domain"
)

type fakeCH struct {
	table     string
	rows      [][]any
	execSQL   string
	insertErr error
}

func (f *fakeCH) Insert(_ context.Context, table string, data any) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.table = table
	f.rows = append(f.rows, data.([][]any)...)
	return nil
}

func (f *fakeCH) Exec(_ context.Context, sql string, _ ...any) error {
	f.execSQL = sql
	return nil
}

func (f *fakeCH) Query(context.Context, string, ...any) (store.Rows, error) {
	return nil, errors.New("not used")
}

func (f *fakeCH) Close() error { return nil }

func TestNewCHPanicsOnNil(t *testing.T) {
	t.Parallel()
	testkit.MustPanic(t, func() { _ = NewCH(nil) })
}

func TestRecordWritesColumnOrder(t *testing.T) {
	t.Parallel()
	ch := &fakeCH{}
	h := NewCH(ch)

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	err := h.Record(context.Background(), domain.RunRecord{
		WorkflowID:     domain.FactHarvestID,
		StartedAt:      start,
		FinishedAt:     start.Add(1500 * time.Millisecond),
		ItemsProcessed: 12,
		HadErrors:      true,
		Error:          "1 feed failed",
		Outcome:        domain.OutcomeReported,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if ch.table != Table {
		t.Fatalf("table got=%q want=%q", ch.table, Table)
	}
	if len(ch.rows) != 1 || len(ch.rows[0]) != 9 {
		t.Fatalf("rows got=%v", ch.rows)
	}
	row := ch.rows[0]
	if row[0] != domain.FactHarvestID || row[3] != uint64(1500) || row[4] != int64(12) || row[5] != true || row[7] != "reported_errors" || row[8] != false {
		t.Fatalf("row got=%v", row)
	}
}

func TestRecordClampsNegativeDuration(t *testing.T) {
	t.Parallel()
	ch := &fakeCH{}
	now := time.Now()
	if err := NewCH(ch).Record(context.Background(), domain.RunRecord{WorkflowID: "x", StartedAt: now, FinishedAt: now.Add(-time.Second)}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if ch.rows[0][3] != uint64(0) {
		t.Fatalf("duration got=%v want=0", ch.rows[0][3])
	}
}

func TestRecordWrapsInsertError(t *testing.T) {
	t.Parallel()
	ch := &fakeCH{insertErr: errors.New("conn reset")}
	err := NewCH(ch).Record(context.Background(), domain.RunRecord{WorkflowID: "x"})
	if !perr.IsCode(err, perr.ErrorCodeDB) {
		t.Fatalf("code got=%v want=%v", perr.CodeOf(err), perr.ErrorCodeDB)
	}
}

func TestMigrateCreatesTable(t *testing.T) {
	t.Parallel()
	ch := &fakeCH{}
	if err := NewCH(ch).Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(ch.execSQL, "CREATE TABLE IF NOT EXISTS workflow_runs") {
		t.Fatalf("ddl got=%q", ch.execSQL)
	}
}
