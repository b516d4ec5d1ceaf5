// Package service writes articles for threads that gathered enough fresh facts
package service

import (
	"context"
	"fmt"
	"strings"

	"newslens/internal/platform/logger"
	"newslens/internal/services/articles/domain"
	factsdom "newslens/internal/services/facts/domain"
	orchdom "newslens/internal/services/orchestrator/domain"
)

// Config selects which threads are due for an article
type Config struct {
	Trigger factsdom.TriggerQuery
}

// Svc is the ArticleCreation workflow
type Svc struct {
	store  domain.ArticleStore
	writer domain.Writer
	cfg    Config
	log    logger.Logger
}

var _ orchdom.Workflow = (*Svc)(nil)

// New builds the workflow; both collaborators are required
func New(log logger.Logger, store domain.ArticleStore, w domain.Writer, cfg Config) *Svc {
	if store == nil {
		panic("articles.Svc requires a non nil ArticleStore")
	}
	if w == nil {
		panic("articles.Svc requires a non nil Writer")
	}
	cfg.Trigger = cfg.Trigger.WithDefaults()
	return &Svc{
		store:  store,
		writer: w,
		cfg:    cfg,
		log:    log.With().Str("mod", "articles").Str("workflow", orchdom.ArticleCreationID).Logger(),
	}
}

// ID implements orchdom.Workflow
func (s *Svc) ID() string { return orchdom.ArticleCreationID }

// RunOnce writes at most one article per triggered thread
func (s *Svc) RunOnce(ctx context.Context) (orchdom.RunResult, error) {
	ids, err := s.store.TriggeredThreadIDs(ctx, s.cfg.Trigger)
	if err != nil {
		return orchdom.Failed(0, "list triggered threads: "+err.Error()), nil
	}
	if len(ids) == 0 {
		s.log.Info().Msg("no triggered threads")
		return orchdom.Succeeded(0), nil
	}
	s.log.Info().Int("threads", len(ids)).Msg("triggered threads received")

	var (
		inserted, failed int
		lastErr          error
	)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return orchdom.Failed(inserted, "article run interrupted: "+err.Error()), nil
		}
		if strings.TrimSpace(id) == "" {
			continue
		}
		ok, err := s.WriteThread(ctx, id)
		if ok {
			inserted++
		}
		if err != nil {
			failed++
			lastErr = err
			s.log.Error().Err(err).Str("thread", id).Msg("article failed")
		}
	}

	s.log.Info().Int("inserted", inserted).Int("failed", failed).Msg("article run finished")
	if failed > 0 {
		return orchdom.Failed(inserted, fmt.Sprintf("%d threads failed, last: %v", failed, lastErr)), nil
	}
	return orchdom.Succeeded(inserted), nil
}

// WriteThread drafts, writes and stores the article of one thread
// it reports false without error when there is nothing to write, the writer answered blank,
// or the article already exists; true with an error means the article was stored but its
// facts could not be marked used
func (s *Svc) WriteThread(ctx context.Context, threadID string) (bool, error) {
	l := s.log.With().Str("thread", threadID).Logger()
	rows, err := s.store.FactsInThread(ctx, threadID)
	if err != nil {
		return false, err
	}
	d, ok := NewDraftFor(threadID, rows)
	if !ok {
		l.Info().Msg("thread has no usable facts")
		return false, nil
	}

	body, err := s.writer.Write(ctx, d.Material())
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(body) == "" {
		l.Warn().Int("facts", len(d.Statements)).Msg("writer returned an empty article")
		return false, nil
	}

	inserted, err := s.store.InsertArticle(ctx, d.Article(body))
	if err != nil {
		return false, err
	}
	if !inserted {
		l.Info().Str("source_url", d.SourceURL).Msg("article already exists")
	}
	// facts that went into an article, new or existing, stop triggering the thread
	n, err := s.store.MarkFactsUsed(ctx, d.FactIDs)
	if err != nil {
		return inserted, err
	}
	l.Info().Bool("inserted", inserted).Int64("facts_used", n).Msg("article stored")
	return inserted, nil
}

// NewDraftFor builds the draft of a thread, falling back to the requested id
// when rows carry none
func NewDraftFor(threadID string, rows []factsdom.FactRow) (domain.Draft, bool) {
	d, ok := domain.NewDraft(rows)
	if !ok || len(d.Statements) == 0 {
		return domain.Draft{}, false
	}
	if strings.TrimSpace(d.ThreadID) == "" {
		d.ThreadID = threadID
	}
	return d, true
}
