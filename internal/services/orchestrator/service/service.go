// Package service implements the workflow orchestrator: a polling tick loop, a gated run
// executor and the operator controls
package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"newslens/internal/modkit"
	perr "newslens/internal/platform/errors"
	"newslens/internal/services/orchestrator/domain"
)

// DefaultPollEvery is the tick loop granularity
const DefaultPollEvery = 500 * time.Millisecond

// Config carries runtime knobs for the orchestrator
type Config struct {
	PollEvery time.Duration
	// Sink receives one record per executed run; nil disables history
	Sink domain.RunSink
}

// Svc implements domain.ControlPort and domain.RunnerPort
type Svc struct {
	reg  *Registry
	cfg  Config
	log  zerolog.Logger
	now  func() time.Time
	runs sync.WaitGroup

	mu       sync.Mutex
	lifetime context.Context
	cancel   context.CancelFunc
}

var (
	_ domain.ControlPort = (*Svc)(nil)
	_ domain.RunnerPort  = (*Svc)(nil)
)

// New constructs the orchestrator over a fixed registry
func New(deps modkit.Deps, reg *Registry, cfg Config) *Svc {
	if reg == nil {
		panic("orchestrator.Service requires a non nil Registry")
	}
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = DefaultPollEvery
	}
	return &Svc{
		reg: reg,
		cfg: cfg,
		log: deps.Log.With().Str("mod", "orchestrator").Logger(),
		now: time.Now,
	}
}

// Start moves every workflow to Running and launches the tick loop
// calling Start twice is a no-op
func (s *Svc) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}

	for _, m := range s.reg.order {
		if err := m.fire(triggerStart); err != nil {
			return perr.Wrapf(err, perr.ErrorCodeUnknown, "start workflow %s", m.id)
		}
		if m.paused {
			if err := m.fire(triggerPause); err != nil {
				return perr.Wrapf(err, perr.ErrorCodeUnknown, "pause workflow %s", m.id)
			}
		}
	}

	lifetime, cancel := context.WithCancel(ctx)
	s.lifetime, s.cancel = lifetime, cancel

	s.runs.Add(1)
	go s.loop(lifetime)

	s.log.Info().Int("workflows", s.reg.Len()).Dur("poll_every", s.cfg.PollEvery).Msg("orchestrator started")
	return nil
}

// Shutdown stops scheduling, waits for in flight runs to observe cancellation, then marks
// every workflow Stopped; ctx bounds the wait
func (s *Svc) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	defer func() {
		for _, m := range s.reg.order {
			_ = m.fire(triggerStop)
		}
		s.log.Info().Msg("orchestrator stopped")
	}()

	done := make(chan struct{})
	go func() {
		s.runs.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return perr.Wrapf(ctx.Err(), perr.ErrorCodeUnavailable, "orchestrator shutdown timed out waiting for runs")
	}

	// manual triggers are not tracked by runs; draining each gate waits for them too
	for _, m := range s.reg.order {
		if err := m.gate.Acquire(ctx, 1); err != nil {
			return perr.Wrapf(err, perr.ErrorCodeUnavailable, "orchestrator shutdown timed out waiting for %s", m.id)
		}
		m.gate.Release(1)
	}
	return nil
}

func (s *Svc) loop(ctx context.Context) {
	defer s.runs.Done()

	nextDue := make(map[string]time.Time, s.reg.Len())
	start := s.now()
	for _, m := range s.reg.order {
		nextDue[m.id] = start
	}

	t := time.NewTicker(s.cfg.PollEvery)
	defer t.Stop()

	s.tick(ctx, nextDue)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.tick(ctx, nextDue)
		}
	}
}

// tick dispatches every due workflow; next due is measured from this check, not from completion
func (s *Svc) tick(ctx context.Context, nextDue map[string]time.Time) {
	for _, m := range s.reg.order {
		if ctx.Err() != nil {
			return
		}
		if !m.currentState().Scheduled() {
			continue
		}
		now := s.now()
		if now.Before(nextDue[m.id]) {
			continue
		}
		s.runs.Add(1)
		go func(m *managed) {
			defer s.runs.Done()
			s.execute(ctx, m, false)
		}(m)
		nextDue[m.id] = now.Add(m.interval)
	}
}

// execute runs one workflow under its gate and records the outcome
// it returns false without touching the record when a run is already in flight
func (s *Svc) execute(ctx context.Context, m *managed, manual bool) bool {
	if !m.gate.TryAcquire(1) {
		s.log.Debug().Str("workflow", m.id).Bool("manual", manual).Msg("run skipped, previous run still in flight")
		return false
	}
	defer m.gate.Release(1)

	started := s.now().UTC()
	m.markStarted(started)

	res, runErr := safeRun(ctx, m.wf)
	outcome, msg := m.finish(res, runErr, started)
	finished := s.now().UTC()

	level, next := zerolog.InfoLevel, triggerRecover
	switch outcome {
	case domain.OutcomeReported:
		level, next = zerolog.WarnLevel, triggerFail
	case domain.OutcomeCrashed:
		level, next = zerolog.ErrorLevel, triggerFail
	}
	if err := m.fire(next); err != nil {
		s.log.Error().Err(err).Str("workflow", m.id).Str("trigger", string(next)).Msg("state transition failed")
	}
	s.log.WithLevel(level).
		Err(runErr).
		Str("workflow", m.id).
		Str("outcome", string(outcome)).
		Int("items", res.ItemsProcessed).
		Bool("manual", manual).
		Dur("took", finished.Sub(started)).
		Msg("workflow run finished")

	s.record(ctx, domain.RunRecord{
		WorkflowID:     m.id,
		StartedAt:      started,
		FinishedAt:     finished,
		ItemsProcessed: res.ItemsProcessed,
		HadErrors:      outcome != domain.OutcomeSucceeded,
		Error:          msg,
		Outcome:        outcome,
		Manual:         manual,
	})
	return true
}

// safeRun turns a panicking workflow into an error so one crash never reaches the loop
func safeRun(ctx context.Context, wf domain.Workflow) (res domain.RunResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = domain.RunResult{}
			err = perr.PanicErrf("workflow %s panicked: %v", wf.ID(), r)
		}
	}()
	return wf.RunOnce(ctx)
}

func (s *Svc) record(ctx context.Context, rec domain.RunRecord) {
	if s.cfg.Sink == nil {
		return
	}
	// history is written even when the run was cancelled by shutdown
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.cfg.Sink.Record(ctx, rec); err != nil {
		s.log.Warn().Err(err).Str("workflow", rec.WorkflowID).Msg("run history write failed")
	}
}

// Pause stops scheduling a workflow; an in flight run is not interrupted
func (s *Svc) Pause(_ context.Context, id string) (domain.Snapshot, error) {
	return s.transition(id, triggerPause)
}

// Resume puts a workflow back on the schedule
func (s *Svc) Resume(_ context.Context, id string) (domain.Snapshot, error) {
	return s.transition(id, triggerResume)
}

func (s *Svc) transition(id string, t trigger) (domain.Snapshot, error) {
	m, err := s.reg.lookup(id)
	if err != nil {
		return domain.Snapshot{}, err
	}
	if err := m.fire(t); err != nil {
		return domain.Snapshot{}, perr.Wrapf(err, perr.ErrorCodeConflict, "%s workflow %s", t, id)
	}
	return m.snapshot(), nil
}

// Trigger runs a workflow once regardless of its state and waits for the run
// the run is cancelled when either ctx or the orchestrator lifetime ends
func (s *Svc) Trigger(ctx context.Context, id string) (domain.TriggerOutcome, error) {
	m, err := s.reg.lookup(id)
	if err != nil {
		return domain.TriggerOutcome{}, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.mu.Lock()
	lifetime := s.lifetime
	s.mu.Unlock()
	if lifetime != nil {
		stop := context.AfterFunc(lifetime, cancel)
		defer stop()
	}

	ran := s.execute(runCtx, m, true)
	return domain.TriggerOutcome{ID: id, Skipped: !ran, Workflow: m.snapshot()}, nil
}

// List returns a snapshot of every workflow in registration order
func (s *Svc) List(_ context.Context) []domain.Snapshot {
	out := make([]domain.Snapshot, 0, s.reg.Len())
	for _, m := range s.reg.order {
		out = append(out, m.snapshot())
	}
	return out
}

// Get returns the snapshot of one workflow
func (s *Svc) Get(_ context.Context, id string) (domain.Snapshot, error) {
	m, err := s.reg.lookup(id)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return m.snapshot(), nil
}
