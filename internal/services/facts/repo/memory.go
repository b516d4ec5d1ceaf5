package repo

import (
	"context"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"

	perr "newslens/internal/platform/errors"
	"newslens/internal/services/facts/domain"
)

const (
	tblBatches   = "fact_batches"
	tblFacts     = "facts"
	tblThreads   = "threads"
	tblArticles  = "articles"
	tblProcessed = "processed_urls"
)

// stored records are treated as immutable; updates insert a modified copy

type batchRec struct {
	ID          string
	Seq         uint64
	SourceURL   string
	Title       string
	PublishedAt *time.Time
	Entities    string
	Keywords    string
	ThreadID    string
	CreatedAt   time.Time
}

type factRec struct {
	ID        string
	BatchID   string
	Ord       int
	Statement string
	Used      bool
	CreatedAt time.Time
}

type threadRec struct {
	ID              string
	Entities        string
	Keywords        string
	FactCount       int
	CreatedAt       time.Time
	LastFactAddedAt time.Time
	Closed          bool
}

type articleRec struct {
	ID        string
	ThreadID  string
	SourceURL string
	Material  []string
	Body      string
	CreatedAt time.Time
}

type processedRec struct {
	ID          string
	Provider    string
	URL         string
	ProcessedAt time.Time
}

func memSchema() *memdb.DBSchema {
	id := func() *memdb.IndexSchema {
		return &memdb.IndexSchema{Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}}
	}
	return &memdb.DBSchema{Tables: map[string]*memdb.TableSchema{
		tblBatches: {Name: tblBatches, Indexes: map[string]*memdb.IndexSchema{
			"id":     id(),
			"thread": {Name: "thread", AllowMissing: true, Indexer: &memdb.StringFieldIndex{Field: "ThreadID"}},
		}},
		tblFacts: {Name: tblFacts, Indexes: map[string]*memdb.IndexSchema{
			"id":    id(),
			"batch": {Name: "batch", Indexer: &memdb.StringFieldIndex{Field: "BatchID"}},
		}},
		tblThreads: {Name: tblThreads, Indexes: map[string]*memdb.IndexSchema{
			"id": id(),
		}},
		tblArticles: {Name: tblArticles, Indexes: map[string]*memdb.IndexSchema{
			"id":     id(),
			"thread": {Name: "thread", Indexer: &memdb.StringFieldIndex{Field: "ThreadID"}},
		}},
		tblProcessed: {Name: tblProcessed, Indexes: map[string]*memdb.IndexSchema{
			"id": id(),
		}},
	}}
}

// Memory is an in process fact store with the same semantics as PG
// it backs tests and the memory dev mode
type Memory struct {
	db  *memdb.MemDB
	seq atomic.Uint64
	now func() time.Time
}

var (
	_ domain.Repository = (*Memory)(nil)
	_ domain.Dedup      = (*Memory)(nil)
)

// NewMemory returns an empty in memory store
func NewMemory() *Memory {
	db, err := memdb.NewMemDB(memSchema())
	if err != nil {
		// the schema is static, a failure here is a programming error
		panic("facts: memdb schema: " + err.Error())
	}
	return &Memory{db: db, now: time.Now}
}

// WithClock replaces the clock used for timestamps and time windows
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) clock() time.Time { return m.now().UTC() }

// InsertFactBatch implements domain.Repository
func (m *Memory) InsertFactBatch(_ context.Context, b domain.FactBatch) error {
	if err := domain.ValidateBatch(b); err != nil {
		return err
	}
	now := m.clock()
	txn := m.db.Txn(true)
	defer txn.Abort()

	if existing, err := txn.First(tblBatches, "id", b.ID.String()); err != nil {
		return memErr(err, "facts.InsertFactBatch")
	} else if existing != nil {
		return perr.WithOp(perr.DuplicateKeyf("fact batch %s or one of its facts already exists", b.ID), "facts.InsertFactBatch")
	}
	rec := &batchRec{
		ID:          b.ID.String(),
		Seq:         m.seq.Add(1),
		SourceURL:   strings.TrimSpace(b.SourceURL),
		Title:       strings.TrimSpace(b.Title),
		PublishedAt: b.PublishedAt,
		Entities:    domain.MergeCSV(b.Entities, ""),
		Keywords:    domain.MergeCSV(b.Keywords, ""),
		CreatedAt:   now,
	}
	if err := txn.Insert(tblBatches, rec); err != nil {
		return memErr(err, "facts.InsertFactBatch")
	}
	for i, f := range b.Facts {
		if existing, err := txn.First(tblFacts, "id", f.ID); err != nil {
			return memErr(err, "facts.InsertFactBatch")
		} else if existing != nil {
			return perr.WithOp(perr.DuplicateKeyf("fact batch %s or one of its facts already exists", b.ID), "facts.InsertFactBatch")
		}
		fr := &factRec{ID: f.ID, BatchID: rec.ID, Ord: i, Statement: strings.TrimSpace(f.Statement), CreatedAt: now}
		if err := txn.Insert(tblFacts, fr); err != nil {
			return memErr(err, "facts.InsertFactBatch")
		}
	}
	txn.Commit()
	return nil
}

// UnassignedBatchIDs implements domain.Repository
func (m *Memory) UnassignedBatchIDs(_ context.Context, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = domain.DefaultUnassignedLimit
	}
	txn := m.db.Txn(false)
	it, err := txn.Get(tblBatches, "id")
	if err != nil {
		return nil, memErr(err, "facts.UnassignedBatchIDs")
	}
	var open []*batchRec
	for obj := it.Next(); obj != nil; obj = it.Next() {
		if b := obj.(*batchRec); b.ThreadID == "" {
			open = append(open, b)
		}
	}
	sort.Slice(open, func(i, j int) bool {
		if !open[i].CreatedAt.Equal(open[j].CreatedAt) {
			return open[i].CreatedAt.Before(open[j].CreatedAt)
		}
		return open[i].Seq < open[j].Seq
	})
	if len(open) > limit {
		open = open[:limit]
	}
	out := make([]uuid.UUID, 0, len(open))
	for _, b := range open {
		out = append(out, uuid.MustParse(b.ID))
	}
	return out, nil
}

// BatchTokens implements domain.Repository
func (m *Memory) BatchTokens(_ context.Context, batchID uuid.UUID) (domain.BatchTokens, error) {
	obj, err := m.db.Txn(false).First(tblBatches, "id", batchID.String())
	if err != nil {
		return domain.BatchTokens{}, memErr(err, "facts.BatchTokens")
	}
	if obj == nil {
		return domain.BatchTokens{}, perr.NotFoundf("fact batch %s not found", batchID)
	}
	b := obj.(*batchRec)
	return domain.BatchTokens{BatchID: batchID, Entities: b.Entities, Keywords: b.Keywords}, nil
}

// CandidateThreads implements domain.Repository
func (m *Memory) CandidateThreads(_ context.Context, cq domain.CandidateQuery) ([]domain.EventThread, error) {
	cq = cq.WithDefaults()
	since := m.clock().AddDate(0, 0, -cq.SinceDays)

	txn := m.db.Txn(false)
	it, err := txn.Get(tblThreads, "id")
	if err != nil {
		return nil, memErr(err, "facts.CandidateThreads")
	}
	var out []domain.EventThread
	for obj := it.Next(); obj != nil; obj = it.Next() {
		t := obj.(*threadRec)
		if t.LastFactAddedAt.Before(since) || (t.Closed && !cq.IncludeClosed) {
			continue
		}
		art, err := txn.First(tblArticles, "thread", t.ID)
		if err != nil {
			return nil, memErr(err, "facts.CandidateThreads")
		}
		out = append(out, domain.EventThread{
			ThreadID:        t.ID,
			Entities:        t.Entities,
			Keywords:        t.Keywords,
			FactCount:       t.FactCount,
			LastFactAddedAt: t.LastFactAddedAt,
			Closed:          t.Closed,
			HasArticle:      art != nil,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].LastFactAddedAt.Equal(out[j].LastFactAddedAt) {
			return out[i].LastFactAddedAt.After(out[j].LastFactAddedAt)
		}
		return out[i].ThreadID < out[j].ThreadID
	})
	if len(out) > cq.Max {
		out = out[:cq.Max]
	}
	return out, nil
}

// AssignBatch implements domain.Repository
func (m *Memory) AssignBatch(_ context.Context, a domain.Assignment) (domain.AssignResult, error) {
	if err := domain.ValidateAssignment(a); err != nil {
		return domain.AssignResult{}, err
	}
	now := m.clock()
	txn := m.db.Txn(true)
	defer txn.Abort()

	obj, err := txn.First(tblBatches, "id", a.BatchID.String())
	if err != nil {
		return domain.AssignResult{}, memErr(err, "facts.AssignBatch")
	}
	if obj == nil {
		return domain.AssignResult{}, perr.NotFoundf("fact batch %s not found", a.BatchID)
	}
	batch := obj.(*batchRec)
	if batch.ThreadID != "" {
		return domain.AssignResult{}, nil
	}

	facts, err := countFacts(txn, batch.ID)
	if err != nil {
		return domain.AssignResult{}, memErr(err, "facts.AssignBatch")
	}

	var res domain.AssignResult
	existing, err := txn.First(tblThreads, "id", a.ThreadID)
	if err != nil {
		return domain.AssignResult{}, memErr(err, "facts.AssignBatch")
	}
	var thread threadRec
	if existing == nil {
		res.Created = true
		thread = threadRec{
			ID:              a.ThreadID,
			Entities:        domain.MergeCSV(a.Entities, ""),
			Keywords:        domain.MergeCSV(a.Keywords, ""),
			FactCount:       facts,
			CreatedAt:       now,
			LastFactAddedAt: now,
		}
	} else {
		thread = *existing.(*threadRec)
		thread.Entities = domain.MergeCSV(thread.Entities, a.Entities)
		thread.Keywords = domain.MergeCSV(thread.Keywords, a.Keywords)
		thread.FactCount += facts
		if now.After(thread.LastFactAddedAt) {
			thread.LastFactAddedAt = now
		}
	}
	if err := txn.Insert(tblThreads, &thread); err != nil {
		return domain.AssignResult{}, memErr(err, "facts.AssignBatch")
	}

	linked := *batch
	linked.ThreadID = a.ThreadID
	if err := txn.Insert(tblBatches, &linked); err != nil {
		return domain.AssignResult{}, memErr(err, "facts.AssignBatch")
	}
	txn.Commit()
	res.Assigned = true
	return res, nil
}

func countFacts(txn *memdb.Txn, batchID string) (int, error) {
	it, err := txn.Get(tblFacts, "batch", batchID)
	if err != nil {
		return 0, err
	}
	n := 0
	for obj := it.Next(); obj != nil; obj = it.Next() {
		n++
	}
	return n, nil
}

// TriggeredThreadIDs implements domain.Repository
func (m *Memory) TriggeredThreadIDs(_ context.Context, tq domain.TriggerQuery) ([]string, error) {
	tq = tq.WithDefaults()
	since := m.clock().AddDate(0, 0, -tq.SinceDays)

	txn := m.db.Txn(false)
	it, err := txn.Get(tblThreads, "id")
	if err != nil {
		return nil, memErr(err, "facts.TriggeredThreadIDs")
	}
	type hit struct {
		id    string
		facts int
		last  time.Time
	}
	var hits []hit
	for obj := it.Next(); obj != nil; obj = it.Next() {
		t := obj.(*threadRec)
		if t.Closed || t.LastFactAddedAt.Before(since) {
			continue
		}
		rows, err := unusedFacts(txn, t.ID)
		if err != nil {
			return nil, memErr(err, "facts.TriggeredThreadIDs")
		}
		sources := map[string]struct{}{}
		for _, r := range rows {
			sources[r.SourceURL] = struct{}{}
		}
		if len(rows) >= tq.MinFacts && len(sources) >= tq.MinSources {
			hits = append(hits, hit{id: t.ID, facts: len(rows), last: t.LastFactAddedAt})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].facts != hits[j].facts {
			return hits[i].facts > hits[j].facts
		}
		if !hits[i].last.Equal(hits[j].last) {
			return hits[i].last.After(hits[j].last)
		}
		return hits[i].id < hits[j].id
	})
	if len(hits) > tq.MaxRows {
		hits = hits[:tq.MaxRows]
	}
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.id)
	}
	return out, nil
}

// FactsInThread implements domain.Repository
func (m *Memory) FactsInThread(_ context.Context, threadID string) ([]domain.FactRow, error) {
	if domain.Blank(threadID) {
		return nil, perr.WithField(perr.InvalidArgf("thread id is required"), "thread_id")
	}
	rows, err := unusedFacts(m.db.Txn(false), threadID)
	if err != nil {
		return nil, memErr(err, "facts.FactsInThread")
	}
	return rows, nil
}

// unusedFacts returns the unused facts of a thread in batch then fact order
func unusedFacts(txn *memdb.Txn, threadID string) ([]domain.FactRow, error) {
	it, err := txn.Get(tblBatches, "thread", threadID)
	if err != nil {
		return nil, err
	}
	var batches []*batchRec
	for obj := it.Next(); obj != nil; obj = it.Next() {
		batches = append(batches, obj.(*batchRec))
	}
	sort.Slice(batches, func(i, j int) bool {
		if !batches[i].CreatedAt.Equal(batches[j].CreatedAt) {
			return batches[i].CreatedAt.Before(batches[j].CreatedAt)
		}
		return batches[i].Seq < batches[j].Seq
	})

	var out []domain.FactRow
	for _, b := range batches {
		fit, err := txn.Get(tblFacts, "batch", b.ID)
		if err != nil {
			return nil, err
		}
		var facts []*factRec
		for obj := fit.Next(); obj != nil; obj = fit.Next() {
			if f := obj.(*factRec); !f.Used {
				facts = append(facts, f)
			}
		}
		sort.Slice(facts, func(i, j int) bool { return facts[i].Ord < facts[j].Ord })
		for _, f := range facts {
			out = append(out, domain.FactRow{
				FactID:    f.ID,
				Statement: f.Statement,
				SourceURL: b.SourceURL,
				ThreadID:  b.ThreadID,
				Entities:  b.Entities,
				Keywords:  b.Keywords,
				AddedAt:   f.CreatedAt,
			})
		}
	}
	return out, nil
}

// InsertArticle implements domain.Repository
func (m *Memory) InsertArticle(_ context.Context, a domain.Article) (bool, error) {
	if err := domain.ValidateArticle(a); err != nil {
		return false, err
	}
	if domain.Blank(a.ID) {
		a.ID = domain.ArticleID(a.ThreadID, a.SourceURL)
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = m.clock()
	}
	txn := m.db.Txn(true)
	defer txn.Abort()

	if t, err := txn.First(tblThreads, "id", a.ThreadID); err != nil {
		return false, memErr(err, "facts.InsertArticle")
	} else if t == nil {
		return false, perr.NotFoundf("thread %s not found", a.ThreadID)
	}
	if existing, err := txn.First(tblArticles, "id", a.ID); err != nil {
		return false, memErr(err, "facts.InsertArticle")
	} else if existing != nil {
		return false, nil
	}
	rec := &articleRec{
		ID:        a.ID,
		ThreadID:  a.ThreadID,
		SourceURL: strings.TrimSpace(a.SourceURL),
		Material:  append([]string(nil), a.Material...),
		Body:      a.Body,
		CreatedAt: a.CreatedAt,
	}
	if err := txn.Insert(tblArticles, rec); err != nil {
		return false, memErr(err, "facts.InsertArticle")
	}
	txn.Commit()
	return true, nil
}

// Article returns a stored article by id
func (m *Memory) Article(id string) (domain.Article, bool) {
	obj, err := m.db.Txn(false).First(tblArticles, "id", id)
	if err != nil || obj == nil {
		return domain.Article{}, false
	}
	r := obj.(*articleRec)
	return domain.Article{
		ID:        r.ID,
		ThreadID:  r.ThreadID,
		SourceURL: r.SourceURL,
		Body:      r.Body,
		Material:  append([]string(nil), r.Material...),
		CreatedAt: r.CreatedAt,
	}, true
}

// MarkFactsUsed implements domain.Repository
func (m *Memory) MarkFactsUsed(_ context.Context, factIDs []string) (int64, error) {
	if len(factIDs) == 0 {
		return 0, nil
	}
	txn := m.db.Txn(true)
	defer txn.Abort()

	var n int64
	for _, id := range factIDs {
		obj, err := txn.First(tblFacts, "id", id)
		if err != nil {
			return 0, memErr(err, "facts.MarkFactsUsed")
		}
		if obj == nil || obj.(*factRec).Used {
			continue
		}
		used := *obj.(*factRec)
		used.Used = true
		if err := txn.Insert(tblFacts, &used); err != nil {
			return 0, memErr(err, "facts.MarkFactsUsed")
		}
		n++
	}
	txn.Commit()
	return n, nil
}

// CloseThread marks a thread closed so it drops out of candidates and triggers
func (m *Memory) CloseThread(threadID string) bool {
	txn := m.db.Txn(true)
	defer txn.Abort()
	obj, err := txn.First(tblThreads, "id", threadID)
	if err != nil || obj == nil {
		return false
	}
	closed := *obj.(*threadRec)
	closed.Closed = true
	if err := txn.Insert(tblThreads, &closed); err != nil {
		return false
	}
	txn.Commit()
	return true
}

// TryMarkProcessed implements domain.Dedup
func (m *Memory) TryMarkProcessed(_ context.Context, provider, url string) (bool, error) {
	if domain.Blank(url) {
		return false, perr.WithField(perr.InvalidArgf("url is required"), "url")
	}
	key := domain.URLHash(url)
	txn := m.db.Txn(true)
	defer txn.Abort()

	if existing, err := txn.First(tblProcessed, "id", key); err != nil {
		return false, memErr(err, "facts.TryMarkProcessed")
	} else if existing != nil {
		return false, nil
	}
	rec := &processedRec{ID: key, Provider: provider, URL: url, ProcessedAt: m.clock()}
	if err := txn.Insert(tblProcessed, rec); err != nil {
		return false, memErr(err, "facts.TryMarkProcessed")
	}
	txn.Commit()
	return true, nil
}

func memErr(err error, op string) error {
	return perr.WithOp(perr.Wrap(err, perr.ErrorCodeDB, "memory fact store"), op)
}
