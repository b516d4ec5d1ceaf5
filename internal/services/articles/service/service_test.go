package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	perr "newslens/internal/platform/errors"
	"newslens/internal/platform/testkit"
	factsdom "newslens/internal/services/facts/domain"
	"newslens/internal/services/facts/repo"
)

type fakeWriter struct {
	out   string
	err   error
	calls []string
}

func (w *fakeWriter) Write(_ context.Context, material string) (string, error) {
	w.calls = append(w.calls, material)
	return w.out, w.err
}

// seedThread stores one batch of n facts linked to thread
func seedThread(t *testing.T, m *repo.Memory, thread, url string, n int) {
	t.Helper()
	ctx := context.Background()
	b := factsdom.FactBatch{ID: uuid.New(), SourceURL: url, Entities: "gaza", Keywords: "talks"}
	for i := 0; i < n; i++ {
		b.Facts = append(b.Facts, factsdom.Fact{ID: fmt.Sprintf("%s-%d", b.ID, i), Statement: fmt.Sprintf("Fact number %d was reported.", i)})
	}
	if err := m.InsertFactBatch(ctx, b); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := m.AssignBatch(ctx, factsdom.Assignment{BatchID: b.ID, ThreadID: thread, Entities: b.Entities, Keywords: b.Keywords}); err != nil {
		t.Fatalf("assign: %v", err)
	}
}

func TestRunOnceWritesTriggeredThreads(t *testing.T) {
	t.Parallel()
	mem := repo.NewMemory()
	seedThread(t, mem, "t-big", "https://n.example/big", 7)
	seedThread(t, mem, "t-small", "https://n.example/small", 3)
	w := &fakeWriter{out: "  A written article.  "}
	s := New(zerolog.Nop(), mem, w, Config{})

	res, err := s.RunOnce(context.Background())
	if err != nil || res.HadErrors || res.ItemsProcessed != 1 {
		t.Fatalf("got=%+v err=%v", res, err)
	}
	if len(w.calls) != 1 {
		t.Fatalf("writer calls got=%d want=1", len(w.calls))
	}
	testkit.MustContain(t, w.calls[0], "Fact Statements:\n- Fact number 0 was reported.\n")

	a, ok := mem.Article(factsdom.ArticleID("t-big", "https://n.example/big"))
	if !ok || a.Body != "A written article." || len(a.Material) != 7 {
		t.Fatalf("article got=%+v ok=%v", a, ok)
	}
	if rows, _ := mem.FactsInThread(context.Background(), "t-big"); len(rows) != 0 {
		t.Fatalf("facts not marked used: %d left", len(rows))
	}

	// used facts no longer trigger the thread
	res, err = s.RunOnce(context.Background())
	if err != nil || res.HadErrors || res.ItemsProcessed != 0 || len(w.calls) != 1 {
		t.Fatalf("second run got=%+v err=%v calls=%d", res, err, len(w.calls))
	}
}

func TestRunOnceBlankWriterOutputStoresNothing(t *testing.T) {
	t.Parallel()
	mem := repo.NewMemory()
	seedThread(t, mem, "t1", "https://n.example/1", 7)
	s := New(zerolog.Nop(), mem, &fakeWriter{out: "  \n"}, Config{})

	res, err := s.RunOnce(context.Background())
	if err != nil || res.HadErrors || res.ItemsProcessed != 0 {
		t.Fatalf("got=%+v err=%v", res, err)
	}
	if _, ok := mem.Article(factsdom.ArticleID("t1", "https://n.example/1")); ok {
		t.Fatalf("blank article stored")
	}
	if rows, _ := mem.FactsInThread(context.Background(), "t1"); len(rows) != 7 {
		t.Fatalf("facts consumed without an article: %d left", len(rows))
	}
}

func TestRunOnceDuplicateArticleIsNotInserted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := repo.NewMemory()
	seedThread(t, mem, "t1", "https://n.example/1", 7)
	if ok, err := mem.InsertArticle(ctx, factsdom.Article{ThreadID: "t1", SourceURL: "https://n.example/1", Body: "earlier"}); err != nil || !ok {
		t.Fatalf("seed article ok=%v err=%v", ok, err)
	}

	res, err := New(zerolog.Nop(), mem, &fakeWriter{out: "again"}, Config{}).RunOnce(ctx)
	if err != nil || res.HadErrors || res.ItemsProcessed != 0 {
		t.Fatalf("got=%+v err=%v", res, err)
	}
	if a, _ := mem.Article(factsdom.ArticleID("t1", "https://n.example/1")); a.Body != "earlier" {
		t.Fatalf("existing article overwritten: %q", a.Body)
	}
}

type brokenStore struct {
	*repo.Memory
	triggerErr error
}

func (b *brokenStore) TriggeredThreadIDs(ctx context.Context, q factsdom.TriggerQuery) ([]string, error) {
	if b.triggerErr != nil {
		return nil, b.triggerErr
	}
	return b.Memory.TriggeredThreadIDs(ctx, q)
}

func TestRunOnceFailures(t *testing.T) {
	t.Parallel()
	t.Run("trigger query fails", func(t *testing.T) {
		t.Parallel()
		store := &brokenStore{Memory: repo.NewMemory(), triggerErr: perr.Newf(perr.ErrorCodeDB, "db down")}
		res, err := New(zerolog.Nop(), store, &fakeWriter{out: "x"}, Config{}).RunOnce(context.Background())
		if err != nil || !res.HadErrors {
			t.Fatalf("got=%+v err=%v", res, err)
		}
		testkit.MustContain(t, res.ErrorMessage, "list triggered threads")
	})
	t.Run("writer fails", func(t *testing.T) {
		t.Parallel()
		mem := repo.NewMemory()
		seedThread(t, mem, "t1", "https://n.example/1", 7)
		seedThread(t, mem, "t2", "https://n.example/2", 8)
		res, err := New(zerolog.Nop(), mem, &fakeWriter{err: errors.New("model offline")}, Config{}).RunOnce(context.Background())
		if err != nil || !res.HadErrors || res.ItemsProcessed != 0 {
			t.Fatalf("got=%+v err=%v", res, err)
		}
		testkit.MustContain(t, res.ErrorMessage, "2 threads failed, last: model offline")
	})
}

func TestRunOnceCustomTrigger(t *testing.T) {
	t.Parallel()
	mem := repo.NewMemory()
	seedThread(t, mem, "t-small", "https://n.example/small", 3)
	res, err := New(zerolog.Nop(), mem, &fakeWriter{out: "short"}, Config{Trigger: factsdom.TriggerQuery{MinFacts: 3}}).RunOnce(context.Background())
	if err != nil || res.ItemsProcessed != 1 {
		t.Fatalf("got=%+v err=%v", res, err)
	}
}

func TestNewDraftFor(t *testing.T) {
	t.Parallel()
	if _, ok := NewDraftFor("t", []factsdom.FactRow{{FactID: "a", Statement: " "}}); ok {
		t.Fatalf("blank statements produced a draft")
	}
	d, ok := NewDraftFor("t", []factsdom.FactRow{{FactID: "a", Statement: "Something happened today."}})
	if !ok || d.ThreadID != "t" {
		t.Fatalf("draft got=%+v", d)
	}
	testkit.MustPanic(t, func() { New(zerolog.Nop(), nil, &fakeWriter{}, Config{}) })
	testkit.MustPanic(t, func() { New(zerolog.Nop(), repo.NewMemory(), nil, Config{}) })
}
