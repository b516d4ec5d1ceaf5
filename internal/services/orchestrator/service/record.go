package service

import (
	"context"
	"sync"
	"time"

	"github.com/qmuntal/stateless"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	ptime "newslens/internal/platform/time"
	"newslens/internal/services/orchestrator/domain"
)

type trigger string

const (
	triggerStart   trigger = "start"
	triggerPause   trigger = "pause"
	triggerResume  trigger = "resume"
	triggerFail    trigger = "fail"
	triggerRecover trigger = "recover"
	triggerStop    trigger = "stop"
)

// managed is the mutable record behind one registered workflow
// run outcome fields are written only while holding gate; state goes through fsm
type managed struct {
	wf       domain.Workflow
	id       string
	interval time.Duration
	paused   bool

	gate *semaphore.Weighted

	mu            sync.Mutex
	state         domain.State
	lastRunAt     time.Time
	lastSuccessAt time.Time
	lastItems     int
	lastErr       *string
	running       bool

	// fireMu serializes transitions; pause and resume can race a finishing run
	fireMu sync.Mutex
	fsm    *stateless.StateMachine
}

func newManaged(reg Registration, log zerolog.Logger) *managed {
	m := &managed{
		wf:       reg.Workflow,
		id:       reg.Workflow.ID(),
		interval: reg.Interval,
		paused:   reg.StartPaused,
		gate:     semaphore.NewWeighted(1),
		state:    domain.StateStopped,
	}
	m.fsm = newMachine(m, log.With().Str("workflow", m.id).Logger())
	return m
}

func newMachine(m *managed, log zerolog.Logger) *stateless.StateMachine {
	sm := stateless.NewStateMachineWithExternalStorage(
		func(context.Context) (stateless.State, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			return m.state, nil
		},
		func(_ context.Context, s stateless.State) error {
			m.mu.Lock()
			m.state = s.(domain.State)
			m.mu.Unlock()
			return nil
		},
		stateless.FiringImmediate,
	)

	sm.Configure(domain.StateStopped).
		Permit(triggerStart, domain.StateRunning).
		Permit(triggerResume, domain.StateRunning).
		Permit(triggerPause, domain.StatePaused).
		Ignore(triggerFail).
		Ignore(triggerRecover).
		Ignore(triggerStop)

	sm.Configure(domain.StateRunning).
		Permit(triggerPause, domain.StatePaused).
		Permit(triggerFail, domain.StateError).
		Permit(triggerStop, domain.StateStopped).
		Ignore(triggerStart).
		Ignore(triggerResume).
		Ignore(triggerRecover)

	// a run finishing after a pause keeps the workflow paused whatever its outcome
	sm.Configure(domain.StatePaused).
		Permit(triggerResume, domain.StateRunning).
		Permit(triggerStop, domain.StateStopped).
		Ignore(triggerStart).
		Ignore(triggerPause).
		Ignore(triggerFail).
		Ignore(triggerRecover)

	sm.Configure(domain.StateError).
		Permit(triggerRecover, domain.StateRunning).
		Permit(triggerResume, domain.StateRunning).
		Permit(triggerPause, domain.StatePaused).
		Permit(triggerStop, domain.StateStopped).
		Ignore(triggerStart).
		Ignore(triggerFail)

	sm.OnTransitioned(func(_ context.Context, tr stateless.Transition) {
		log.Info().
			Str("from", string(tr.Source.(domain.State))).
			Str("to", string(tr.Destination.(domain.State))).
			Str("trigger", string(tr.Trigger.(trigger))).
			Msg("workflow state changed")
	})
	return sm
}

// fire applies a transition; every trigger is configured or ignored in every state
func (m *managed) fire(t trigger) error {
	m.fireMu.Lock()
	defer m.fireMu.Unlock()
	return m.fsm.Fire(t)
}

func (m *managed) currentState() domain.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *managed) markStarted(at time.Time) {
	m.mu.Lock()
	m.lastRunAt = at
	m.running = true
	m.mu.Unlock()
}

// finish copies a run outcome into the record and classifies it
func (m *managed) finish(res domain.RunResult, runErr error, startedAt time.Time) (domain.Outcome, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false

	if runErr != nil {
		msg := runErr.Error()
		m.lastErr = &msg
		return domain.OutcomeCrashed, msg
	}

	m.lastItems = res.ItemsProcessed
	if res.HadErrors {
		msg := res.ErrorMessage
		m.lastErr = &msg
		return domain.OutcomeReported, msg
	}
	m.lastErr = nil
	m.lastSuccessAt = startedAt
	return domain.OutcomeSucceeded, ""
}

func (m *managed) snapshot() domain.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := domain.Snapshot{
		ID:                 m.id,
		State:              m.state,
		LastItemsProcessed: m.lastItems,
		IntervalSeconds:    int64(m.interval / time.Second),
		Running:            m.running,
	}
	s.LastRunAt = ptime.Ptr(m.lastRunAt)
	s.LastSuccessAt = ptime.Ptr(m.lastSuccessAt)
	if m.lastErr != nil {
		e := *m.lastErr
		s.LastError = &e
	}
	return s
}
