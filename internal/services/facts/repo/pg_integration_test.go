//go:build integration_pg
// +build integration_pg

package repo

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	perr "newslens/internal/platform/errors"
	"newslens/internal/platform/store"
	"newslens/internal/services/facts/domain"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	t.Cleanup(cancel)

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_DB":       "postgres",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections"),
			).WithDeadline(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	mp, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("mapped port: %v", err)
	}
	return fmt.Sprintf("postgres://postgres:postgres@%s:%s/postgres?sslmode=disable", host, mp.Port())
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	st, err := store.Open(ctx, store.Config{PG: store.PGConfig{Enabled: true, URL: startPostgres(t), MaxConns: 4}},
		store.WithLogger(zerolog.New(io.Discard)))
	if err != nil {
		t.Fatalf("store open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close(context.Background()) })

	// applying twice proves the schema is re-runnable
	for i := 0; i < 2; i++ {
		if err := Migrate(ctx, st.PG); err != nil {
			t.Fatalf("migrate %d: %v", i, err)
		}
	}
	return st
}

func TestPG_Integration_FactLifecycle(t *testing.T) {
	st := openStore(t)
	p := NewPG(st.PG)
	ctx := context.Background()

	mk := func(url string, n int) domain.FactBatch {
		b := domain.FactBatch{ID: uuid.New(), SourceURL: url, Title: "t", Entities: "Gaza", Keywords: "ceasefire,talks"}
		for i := 0; i < n; i++ {
			b.Facts = append(b.Facts, domain.Fact{ID: fmt.Sprintf("%s-%d", b.ID, i), Statement: fmt.Sprintf("statement %d", i)})
		}
		return b
	}
	a, b := mk("https://a", 4), mk("https://b", 3)
	for _, x := range []domain.FactBatch{a, b} {
		if err := p.InsertFactBatch(ctx, x); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	if err := p.InsertFactBatch(ctx, a); !perr.IsCode(err, perr.ErrorCodeDuplicateKey) {
		t.Fatalf("duplicate code got=%v", perr.CodeOf(err))
	}

	ids, err := p.UnassignedBatchIDs(ctx, 10)
	if err != nil || len(ids) != 2 || ids[0] != a.ID {
		t.Fatalf("unassigned got=%v err=%v", ids, err)
	}

	tok, err := p.BatchTokens(ctx, a.ID)
	if err != nil || tok.Entities != "gaza" || tok.Keywords != "ceasefire,talks" {
		t.Fatalf("tokens got=%+v err=%v", tok, err)
	}

	res, err := p.AssignBatch(ctx, domain.Assignment{BatchID: a.ID, ThreadID: "th1", Entities: "gaza", Keywords: "ceasefire"})
	if err != nil || !res.Created || !res.Assigned {
		t.Fatalf("assign a got=%+v err=%v", res, err)
	}
	res, err = p.AssignBatch(ctx, domain.Assignment{BatchID: b.ID, ThreadID: "th1", Entities: "israel", Keywords: "talks"})
	if err != nil || res.Created || !res.Assigned {
		t.Fatalf("assign b got=%+v err=%v", res, err)
	}
	res, err = p.AssignBatch(ctx, domain.Assignment{BatchID: b.ID, ThreadID: "th2"})
	if err != nil || res.Assigned {
		t.Fatalf("reassign got=%+v err=%v", res, err)
	}

	cands, err := p.CandidateThreads(ctx, domain.CandidateQuery{})
	if err != nil || len(cands) != 1 {
		t.Fatalf("candidates got=%+v err=%v", cands, err)
	}
	if c := cands[0]; c.Entities != "gaza,israel" || c.Keywords != "ceasefire,talks" || c.FactCount != 7 {
		t.Fatalf("merged thread got=%+v", c)
	}

	trig, err := p.TriggeredThreadIDs(ctx, domain.TriggerQuery{MinSources: 2})
	if err != nil || len(trig) != 1 || trig[0] != "th1" {
		t.Fatalf("triggered got=%v err=%v", trig, err)
	}

	rows, err := p.FactsInThread(ctx, "th1")
	if err != nil || len(rows) != 7 || rows[0].SourceURL != "https://a" || rows[0].Statement != "statement 0" {
		t.Fatalf("facts got=%+v err=%v", rows, err)
	}

	art := domain.Article{ThreadID: "th1", SourceURL: rows[0].SourceURL, Body: "written", Material: []string{"x"}}
	if ok, err := p.InsertArticle(ctx, art); err != nil || !ok {
		t.Fatalf("article ok=%v err=%v", ok, err)
	}
	if ok, err := p.InsertArticle(ctx, art); err != nil || ok {
		t.Fatalf("duplicate article ok=%v err=%v", ok, err)
	}
	if _, err := p.InsertArticle(ctx, domain.Article{ThreadID: "nope", SourceURL: "u", Body: "b"}); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("unknown thread code got=%v", perr.CodeOf(err))
	}

	factIDs := make([]string, 0, len(rows))
	for _, r := range rows {
		factIDs = append(factIDs, r.FactID)
	}
	if n, err := p.MarkFactsUsed(ctx, factIDs); err != nil || n != 7 {
		t.Fatalf("mark used n=%d err=%v", n, err)
	}
	if trig, _ := p.TriggeredThreadIDs(ctx, domain.TriggerQuery{}); len(trig) != 0 {
		t.Fatalf("triggered after use got=%v", trig)
	}
}

func TestPG_Integration_Dedup(t *testing.T) {
	st := openStore(t)
	d := NewPGDedup(st.PG)
	ctx := context.Background()

	first, err := d.TryMarkProcessed(ctx, "rss", "https://a/1")
	if err != nil || !first {
		t.Fatalf("first got=%v err=%v", first, err)
	}
	again, err := d.TryMarkProcessed(ctx, "rss", "https://a/1")
	if err != nil || again {
		t.Fatalf("again got=%v err=%v", again, err)
	}
}
