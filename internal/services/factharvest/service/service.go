// Package service runs the fact harvest: fetch due providers, extract facts, store batches
package service

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"newslens/internal/adapters/llm"
	"newslens/internal/adapters/news"
	"newslens/internal/platform/logger"
	"newslens/internal/services/factharvest/domain"
	orchdom "newslens/internal/services/orchestrator/domain"
)

// DefaultConcurrency bounds how many providers are fetched at once
const DefaultConcurrency = 4

// Config tunes the harvest
type Config struct {
	Concurrency int
}

// Svc is the FactHarvest workflow
type Svc struct {
	providers []news.Provider
	dedup     news.Dedup
	extractor domain.Extractor
	store     domain.BatchStore
	cfg       Config
	now       func() time.Time
	log       logger.Logger
}

var _ orchdom.Workflow = (*Svc)(nil)

// New builds the workflow; dedup may be nil, the other collaborators are required
func New(log logger.Logger, providers []news.Provider, dedup news.Dedup, ex domain.Extractor, store domain.BatchStore, cfg Config) *Svc {
	if ex == nil {
		panic("factharvest.Svc requires a non nil Extractor")
	}
	if store == nil {
		panic("factharvest.Svc requires a non nil BatchStore")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	return &Svc{
		providers: providers,
		dedup:     dedup,
		extractor: ex,
		store:     store,
		cfg:       cfg,
		now:       time.Now,
		log:       log.With().Str("mod", "factharvest").Str("workflow", orchdom.FactHarvestID).Logger(),
	}
}

// ID implements orchdom.Workflow
func (s *Svc) ID() string { return orchdom.FactHarvestID }

// RunOnce fetches every due provider and stores one fact batch per usable article
func (s *Svc) RunOnce(ctx context.Context) (orchdom.RunResult, error) {
	now := s.now()
	var due []news.Provider
	for _, p := range s.providers {
		if p.IsDue(now) {
			due = append(due, p)
		}
	}
	if len(due) == 0 {
		s.log.Debug().Msg("no provider due")
		return orchdom.Succeeded(0), nil
	}

	var (
		mu    sync.Mutex
		total = domain.Tally{Providers: len(due)}
		g     errgroup.Group
	)
	g.SetLimit(s.cfg.Concurrency)
	for _, p := range due {
		g.Go(func() error {
			t := s.harvestProvider(ctx, p)
			mu.Lock()
			total.Add(t)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	s.log.Info().
		Int("providers", total.Providers).
		Int("providers_failed", total.ProvidersFailed).
		Int("items", total.Items).
		Int("stored", total.Stored).
		Int("skipped", total.Skipped).
		Msg("harvest finished")

	if err := ctx.Err(); err != nil {
		return orchdom.Failed(total.Stored, "harvest interrupted: "+err.Error()), nil
	}
	return total.Result(), nil
}

// harvestProvider fetches one provider and processes its items
// the schedule moves on even when the fetch fails so a broken feed is not hammered
func (s *Svc) harvestProvider(ctx context.Context, p news.Provider) domain.Tally {
	l := s.log.With().Str("provider", p.Name()).Logger()
	items, err := p.Fetch(ctx, s.dedup)
	p.MarkRun(s.now())
	if err != nil {
		l.Error().Err(err).Time("next_run", p.NextRun()).Msg("provider fetch failed")
		return domain.Tally{ProvidersFailed: 1}
	}
	l.Info().Int("items", len(items)).Time("next_run", p.NextRun()).Msg("provider fetched")

	t := domain.Tally{Items: len(items)}
	for _, it := range items {
		if ctx.Err() != nil {
			break
		}
		stored, storeErr := s.harvestItem(ctx, it)
		switch {
		case storeErr != nil:
			t.StoreFailed++
			t.LastStoreErr = storeErr.Error()
			l.Error().Err(storeErr).Str("url", it.URL).Msg("fact batch store failed")
		case stored:
			t.Stored++
		default:
			t.Skipped++
		}
	}
	return t
}

// harvestItem returns stored=false for an item skipped on extraction or validation
// and a non nil error only for repository failures
func (s *Svc) harvestItem(ctx context.Context, it news.NewsItem) (bool, error) {
	l := s.log.With().Str("url", it.URL).Logger()
	if err := it.Validate(); err != nil {
		l.Warn().Err(err).Msg("invalid news item skipped")
		return false, nil
	}
	hr, err := s.extractor.Harvest(ctx, ToInput(it))
	if err != nil {
		l.Warn().Err(err).Msg("fact extraction failed")
		return false, nil
	}
	if err := llm.ValidateHarvest(hr); err != nil {
		l.Warn().Err(err).Msg("harvest result rejected")
		return false, nil
	}
	b := llm.MapToBatch(hr, it.URL)
	if err := s.store.InsertFactBatch(ctx, b); err != nil {
		return false, err
	}
	l.Debug().Str("batch", b.ID.String()).Int("facts", len(b.Facts)).Msg("fact batch stored")
	return true, nil
}

// ToInput adapts a news item to the extractor input
func ToInput(it news.NewsItem) llm.Input {
	return llm.Input{Title: it.Title, URL: it.URL, Body: it.Body, Published: it.PublishedAt}
}
