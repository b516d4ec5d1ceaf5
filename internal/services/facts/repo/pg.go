// Package repo provides the fact store backends: postgres, in memory, and url dedup
package repo

import (
	"context"
	stdsql "database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"newslens/internal/modkit/repokit"
	perr "newslens/internal/platform/errors"
	"newslens/internal/services/facts/domain"
)

//go:embed schema.sql
var schemaSQL string

// Migrate applies the fact store schema
func Migrate(ctx context.Context, q repokit.Queryer) error {
	if _, err := q.Exec(ctx, schemaSQL); err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "facts schema migrate")
	}
	return nil
}

// PG is the postgres fact store
type PG struct {
	db  repokit.TxRunner
	b   repokit.Binder[*queries]
	now func() time.Time
}

var _ domain.Repository = (*PG)(nil)

// NewPG binds the fact store to a transaction runner
func NewPG(db repokit.TxRunner) *PG {
	if db == nil {
		panic("facts.NewPG requires a non-nil TxRunner")
	}
	return &PG{
		db:  db,
		b:   repokit.BindFunc[*queries](func(q repokit.Queryer) *queries { return &queries{q: q} }),
		now: time.Now,
	}
}

// WithClock replaces the clock used for time windows
func (p *PG) WithClock(now func() time.Time) *PG {
	p.now = now
	return p
}

func (p *PG) read() *queries { return repokit.MustBind(p.b, p.db) }

func (p *PG) tx(ctx context.Context, fn func(q *queries) error) error {
	return repokit.WithTx(ctx, p.db, func(q repokit.Queryer) error {
		return fn(repokit.MustBind(p.b, q))
	})
}

// InsertFactBatch implements domain.Repository
func (p *PG) InsertFactBatch(ctx context.Context, b domain.FactBatch) error {
	if err := domain.ValidateBatch(b); err != nil {
		return err
	}
	err := p.tx(ctx, func(q *queries) error { return q.insertBatch(ctx, b, p.now().UTC()) })
	if perr.IsDuplicateKey(err) {
		return perr.WithOp(perr.DuplicateKeyf("fact batch %s or one of its facts already exists", b.ID), "facts.InsertFactBatch")
	}
	return dbErr(err, "facts.InsertFactBatch")
}

// UnassignedBatchIDs implements domain.Repository
func (p *PG) UnassignedBatchIDs(ctx context.Context, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = domain.DefaultUnassignedLimit
	}
	ids, err := p.read().unassigned(ctx, limit)
	return ids, dbErr(err, "facts.UnassignedBatchIDs")
}

// BatchTokens implements domain.Repository
func (p *PG) BatchTokens(ctx context.Context, batchID uuid.UUID) (domain.BatchTokens, error) {
	bt, err := p.read().batchTokens(ctx, batchID)
	if errors.Is(err, stdsql.ErrNoRows) {
		return domain.BatchTokens{}, perr.NotFoundf("fact batch %s not found", batchID)
	}
	return bt, dbErr(err, "facts.BatchTokens")
}

// CandidateThreads implements domain.Repository
func (p *PG) CandidateThreads(ctx context.Context, cq domain.CandidateQuery) ([]domain.EventThread, error) {
	cq = cq.WithDefaults()
	since := p.now().UTC().AddDate(0, 0, -cq.SinceDays)
	out, err := p.read().candidates(ctx, since, cq.IncludeClosed, cq.Max)
	return out, dbErr(err, "facts.CandidateThreads")
}

// AssignBatch implements domain.Repository
func (p *PG) AssignBatch(ctx context.Context, a domain.Assignment) (domain.AssignResult, error) {
	if err := domain.ValidateAssignment(a); err != nil {
		return domain.AssignResult{}, err
	}
	var res domain.AssignResult
	err := p.tx(ctx, func(q *queries) error {
		var err error
		res, err = q.assign(ctx, a, p.now().UTC())
		return err
	})
	if errors.Is(err, stdsql.ErrNoRows) {
		return domain.AssignResult{}, perr.NotFoundf("fact batch %s not found", a.BatchID)
	}
	return res, dbErr(err, "facts.AssignBatch")
}

// TriggeredThreadIDs implements domain.Repository
func (p *PG) TriggeredThreadIDs(ctx context.Context, tq domain.TriggerQuery) ([]string, error) {
	tq = tq.WithDefaults()
	since := p.now().UTC().AddDate(0, 0, -tq.SinceDays)
	ids, err := p.read().triggered(ctx, tq, since)
	return ids, dbErr(err, "facts.TriggeredThreadIDs")
}

// FactsInThread implements domain.Repository
func (p *PG) FactsInThread(ctx context.Context, threadID string) ([]domain.FactRow, error) {
	if domain.Blank(threadID) {
		return nil, perr.WithField(perr.InvalidArgf("thread id is required"), "thread_id")
	}
	rows, err := p.read().factsInThread(ctx, threadID)
	return rows, dbErr(err, "facts.FactsInThread")
}

// InsertArticle implements domain.Repository
func (p *PG) InsertArticle(ctx context.Context, a domain.Article) (bool, error) {
	if err := domain.ValidateArticle(a); err != nil {
		return false, err
	}
	if domain.Blank(a.ID) {
		a.ID = domain.ArticleID(a.ThreadID, a.SourceURL)
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = p.now().UTC()
	}
	ok, err := p.read().insertArticle(ctx, a)
	if perr.IsForeignKeyViolation(err) {
		return false, perr.NotFoundf("thread %s not found", a.ThreadID)
	}
	return ok, dbErr(err, "facts.InsertArticle")
}

// MarkFactsUsed implements domain.Repository
func (p *PG) MarkFactsUsed(ctx context.Context, factIDs []string) (int64, error) {
	if len(factIDs) == 0 {
		return 0, nil
	}
	ct, err := p.db.Exec(ctx, `update facts set used = true where id = any($1) and not used`, factIDs)
	if err != nil {
		return 0, dbErr(err, "facts.MarkFactsUsed")
	}
	return ct.RowsAffected(), nil
}

// dbErr tags raw driver errors; our own coded errors pass through
func dbErr(err error, op string) error {
	if err == nil {
		return nil
	}
	if _, ok := perr.As(err); ok {
		return err
	}
	code, ok := perr.DBErrorCode(err)
	if !ok {
		code = perr.ErrorCodeDB
	}
	return perr.WithOp(perr.Wrap(err, code, "fact store"), op)
}

type queries struct{ q repokit.Queryer }

func (r *queries) insertBatch(ctx context.Context, b domain.FactBatch, now time.Time) error {
	const batchSQL = `
insert into fact_batches (id, source_url, title, published_at, entities, keywords, created_at)
values ($1, $2, $3, $4, $5, $6, $7)
`
	if _, err := r.q.Exec(ctx, batchSQL,
		b.ID, strings.TrimSpace(b.SourceURL), strings.TrimSpace(b.Title), b.PublishedAt,
		domain.MergeCSV(b.Entities, ""), domain.MergeCSV(b.Keywords, ""), now,
	); err != nil {
		return err
	}

	var sb strings.Builder
	sb.WriteString(`insert into facts (id, batch_id, ord, statement, created_at) values `)
	args := make([]any, 0, len(b.Facts)*5)
	for i, f := range b.Facts {
		if i > 0 {
			sb.WriteByte(',')
		}
		base := i*5 + 1
		fmt.Fprintf(&sb, "($%d,$%d,$%d,$%d,$%d)", base, base+1, base+2, base+3, base+4)
		args = append(args, f.ID, b.ID, i, strings.TrimSpace(f.Statement), now)
	}
	_, err := r.q.Exec(ctx, sb.String(), args...)
	return err
}

func (r *queries) unassigned(ctx context.Context, limit int) ([]uuid.UUID, error) {
	const sql = `
select id from fact_batches
where thread_id is null
order by created_at asc, id asc
limit $1
`
	rows, err := r.q.Query(ctx, sql, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *queries) batchTokens(ctx context.Context, id uuid.UUID) (domain.BatchTokens, error) {
	bt := domain.BatchTokens{BatchID: id}
	err := r.q.QueryRow(ctx, `select entities, keywords from fact_batches where id = $1`, id).
		Scan(&bt.Entities, &bt.Keywords)
	return bt, err
}

func (r *queries) candidates(ctx context.Context, since time.Time, includeClosed bool, limit int) ([]domain.EventThread, error) {
	const sql = `
select t.thread_id, t.entities, t.keywords, t.fact_count, t.last_fact_added_at, t.closed,
	exists (select 1 from articles a where a.thread_id = t.thread_id) as has_article
from threads t
where t.last_fact_added_at >= $1
and ($2 or not t.closed)
order by t.last_fact_added_at desc, t.thread_id asc
limit $3
`
	rows, err := r.q.Query(ctx, sql, since, includeClosed, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.EventThread
	for rows.Next() {
		var t domain.EventThread
		if err := rows.Scan(&t.ThreadID, &t.Entities, &t.Keywords, &t.FactCount,
			&t.LastFactAddedAt, &t.Closed, &t.HasArticle); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// assign upserts the thread centroid then links the batch
// the batch row is locked first so concurrent linkers cannot double count facts
func (r *queries) assign(ctx context.Context, a domain.Assignment, now time.Time) (domain.AssignResult, error) {
	var current *string
	if err := r.q.QueryRow(ctx, `select thread_id from fact_batches where id = $1 for update`, a.BatchID).
		Scan(&current); err != nil {
		return domain.AssignResult{}, err
	}
	if current != nil {
		return domain.AssignResult{}, nil
	}

	const upsert = `
insert into threads (thread_id, entities, keywords, fact_count, created_at, last_fact_added_at)
values ($1, newslens_merge_csv($2, ''), newslens_merge_csv($3, ''),
	(select count(*) from facts where batch_id = $4), $5, $5)
on conflict (thread_id) do update set
	entities = newslens_merge_csv(threads.entities, excluded.entities),
	keywords = newslens_merge_csv(threads.keywords, excluded.keywords),
	fact_count = threads.fact_count + excluded.fact_count,
	last_fact_added_at = greatest(threads.last_fact_added_at, excluded.last_fact_added_at)
returning (xmax = 0)
`
	var created bool
	if err := r.q.QueryRow(ctx, upsert, a.ThreadID, a.Entities, a.Keywords, a.BatchID, now).
		Scan(&created); err != nil {
		return domain.AssignResult{}, err
	}

	ct, err := r.q.Exec(ctx, `update fact_batches set thread_id = $1 where id = $2 and thread_id is null`,
		a.ThreadID, a.BatchID)
	if err != nil {
		return domain.AssignResult{}, err
	}
	return domain.AssignResult{Created: created, Assigned: ct.RowsAffected() == 1}, nil
}

func (r *queries) triggered(ctx context.Context, tq domain.TriggerQuery, since time.Time) ([]string, error) {
	const sql = `
select t.thread_id
from threads t
join fact_batches b on b.thread_id = t.thread_id
join facts f on f.batch_id = b.id and not f.used
where not t.closed
and t.last_fact_added_at >= $1
group by t.thread_id, t.last_fact_added_at
having count(f.id) >= $2 and count(distinct b.source_url) >= $3
order by count(f.id) desc, t.last_fact_added_at desc, t.thread_id asc
limit $4
`
	rows, err := r.q.Query(ctx, sql, since, tq.MinFacts, tq.MinSources, tq.MaxRows)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *queries) factsInThread(ctx context.Context, threadID string) ([]domain.FactRow, error) {
	const sql = `
select f.id, f.statement, f.used, b.source_url, b.thread_id, b.entities, b.keywords, f.created_at
from facts f
join fact_batches b on b.id = f.batch_id
where b.thread_id = $1 and not f.used
order by b.created_at asc, b.id asc, f.ord asc
`
	rows, err := r.q.Query(ctx, sql, threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.FactRow
	for rows.Next() {
		var fr domain.FactRow
		if err := rows.Scan(&fr.FactID, &fr.Statement, &fr.Used, &fr.SourceURL, &fr.ThreadID,
			&fr.Entities, &fr.Keywords, &fr.AddedAt); err != nil {
			return nil, err
		}
		out = append(out, fr)
	}
	return out, rows.Err()
}

func (r *queries) insertArticle(ctx context.Context, a domain.Article) (bool, error) {
	material := a.Material
	if material == nil {
		material = []string{}
	}
	raw, err := json.Marshal(material)
	if err != nil {
		return false, perr.Wrap(err, perr.ErrorCodeJSON, "article material")
	}
	const sql = `
insert into articles (id, thread_id, source_url, material, body, created_at)
values ($1, $2, $3, $4::jsonb, $5, $6)
on conflict (id) do nothing
`
	ct, err := r.q.Exec(ctx, sql, a.ID, a.ThreadID, strings.TrimSpace(a.SourceURL), string(raw), a.Body, a.CreatedAt)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}
