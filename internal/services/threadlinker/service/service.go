// Package service assigns unlinked fact batches to event threads
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"newslens/internal/core/linker"
	perr "newslens/internal/platform/errors"
	"newslens/internal/platform/logger"
	factsdom "newslens/internal/services/facts/domain"
	orchdom "newslens/internal/services/orchestrator/domain"
	"newslens/internal/services/threadlinker/domain"
)

// Config tunes one linking run
type Config struct {
	Linker linker.Options
	// BatchLimit is the page size of the unassigned batch scan
	BatchLimit int
	Candidates factsdom.CandidateQuery
}

// Svc is the ThreadLinker workflow
type Svc struct {
	store domain.ThreadStore
	cfg   Config
	log   logger.Logger
}

var _ orchdom.Workflow = (*Svc)(nil)

// New validates the linker options; a bad option set is a configuration failure
func New(log logger.Logger, store domain.ThreadStore, cfg Config) (*Svc, error) {
	if store == nil {
		return nil, perr.InvalidArgf("threadlinker needs a thread store")
	}
	if err := cfg.Linker.Validate(); err != nil {
		return nil, err
	}
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = factsdom.DefaultUnassignedLimit
	}
	cfg.Candidates = cfg.Candidates.WithDefaults()
	return &Svc{
		store: store,
		cfg:   cfg,
		log:   log.With().Str("mod", "threadlinker").Str("workflow", orchdom.ThreadLinkerID).Logger(),
	}, nil
}

// ID implements orchdom.Workflow
func (s *Svc) ID() string { return orchdom.ThreadLinkerID }

// RunOnce drains unassigned batches page by page.
// Failed batches stay unassigned, so each page asks for that many more rows and
// the failures are stepped over; it stops on a short page or a page with nothing new.
func (s *Svc) RunOnce(ctx context.Context) (orchdom.RunResult, error) {
	var (
		assigned, created, failed int
		lastErr                   error
		skip                      = map[uuid.UUID]struct{}{}
	)
	for {
		want := s.cfg.BatchLimit + len(skip)
		ids, err := s.store.UnassignedBatchIDs(ctx, want)
		if err != nil {
			return orchdom.Failed(assigned, "list unassigned batches: "+err.Error()), nil
		}
		fresh := 0
		for _, id := range ids {
			if _, seen := skip[id]; seen {
				continue
			}
			fresh++
			if err := ctx.Err(); err != nil {
				return orchdom.Failed(assigned, "linking interrupted: "+err.Error()), nil
			}
			res, err := s.LinkBatch(ctx, id)
			if err != nil {
				failed++
				lastErr = err
				skip[id] = struct{}{}
				s.log.Error().Err(err).Str("batch", id.String()).Msg("link batch failed")
				continue
			}
			if res.Assigned {
				assigned++
			} else {
				skip[id] = struct{}{}
			}
			if res.Created {
				created++
			}
		}
		if len(ids) < want || fresh == 0 {
			break
		}
	}

	s.log.Info().Int("assigned", assigned).Int("threads_created", created).Int("failed", failed).Msg("linking finished")
	if failed > 0 {
		return orchdom.Failed(assigned, fmt.Sprintf("%d batches failed to link, last: %v", failed, lastErr)), nil
	}
	return orchdom.Succeeded(assigned), nil
}

// LinkBatch scores one batch against the current candidates and persists the decision
func (s *Svc) LinkBatch(ctx context.Context, id uuid.UUID) (factsdom.AssignResult, error) {
	tok, err := s.store.BatchTokens(ctx, id)
	if err != nil {
		return factsdom.AssignResult{}, err
	}
	ents, kws := linker.ParseCSV(tok.Entities), linker.ParseCSV(tok.Keywords)

	threads, err := s.store.CandidateThreads(ctx, s.cfg.Candidates)
	if err != nil {
		return factsdom.AssignResult{}, err
	}
	d, err := linker.Link(s.cfg.Linker, ents, kws, Candidates(threads))
	if err != nil {
		return factsdom.AssignResult{}, err
	}

	res, err := s.store.AssignBatch(ctx, factsdom.Assignment{
		BatchID:  id,
		ThreadID: d.ThreadID,
		Entities: ents.CSV(),
		Keywords: kws.CSV(),
	})
	if err != nil {
		return factsdom.AssignResult{}, err
	}
	s.log.Debug().
		Str("batch", id.String()).
		Str("thread", d.ThreadID).
		Bool("minted", d.Created).
		Bool("thread_created", res.Created).
		Float64("score", d.Score).
		Msg("batch linked")
	return res, nil
}

// Candidates converts stored threads into linker candidates keeping their order
func Candidates(threads []factsdom.EventThread) []linker.Candidate {
	out := make([]linker.Candidate, 0, len(threads))
	for _, t := range threads {
		out = append(out, linker.Candidate{
			ThreadID: t.ThreadID,
			Entities: linker.ParseCSV(t.Entities),
			Keywords: linker.ParseCSV(t.Keywords),
		})
	}
	return out
}

// Scored is one candidate with its combined score
type Scored struct {
	ThreadID string  `json:"thread_id"`
	Score    float64 `json:"score"`
}

// Preview is the decision LinkBatch would take for a set of tokens
type Preview struct {
	ThreadID   string   `json:"thread_id"`
	Created    bool     `json:"created"`
	Score      float64  `json:"score"`
	Threshold  float64  `json:"threshold"`
	Candidates []Scored `json:"candidates"`
}

// Preview scores tokens against the current candidate window and writes nothing
func (s *Svc) Preview(ctx context.Context, entities, keywords []string) (Preview, error) {
	ents, kws := linker.NewTokenSet(entities...), linker.NewTokenSet(keywords...)
	if ents.Len() == 0 && kws.Len() == 0 {
		return Preview{}, perr.WithField(perr.InvalidArgf("preview needs at least one entity or keyword"), "entities")
	}
	threads, err := s.store.CandidateThreads(ctx, s.cfg.Candidates)
	if err != nil {
		return Preview{}, err
	}
	cands := Candidates(threads)
	d, err := linker.Link(s.cfg.Linker, ents, kws, cands)
	if err != nil {
		return Preview{}, err
	}
	out := Preview{
		ThreadID:   d.ThreadID,
		Created:    d.Created,
		Score:      d.Score,
		Threshold:  s.cfg.Linker.Threshold,
		Candidates: make([]Scored, 0, len(cands)),
	}
	for _, c := range cands {
		out.Candidates = append(out.Candidates, Scored{ThreadID: c.ThreadID, Score: linker.Score(s.cfg.Linker, ents, kws, c)})
	}
	return out, nil
}
