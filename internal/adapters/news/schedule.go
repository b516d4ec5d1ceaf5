package news

import (
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	perr "newslens/internal/platform/errors"
)

// DefaultInterval is the run interval of a provider without its own setting
const DefaultInterval = 5 * time.Hour

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Schedule tracks when a provider is next due
// interval schedules are due immediately, cron schedules at their next occurrence
type Schedule struct {
	mu       sync.Mutex
	interval time.Duration
	cron     cron.Schedule
	expr     string
	last     *time.Time
	next     time.Time
}

// NewIntervalSchedule runs now and then every d after each finished run
func NewIntervalSchedule(d time.Duration, now time.Time) *Schedule {
	if d <= 0 {
		d = DefaultInterval
	}
	return &Schedule{interval: d, next: now}
}

// NewCronSchedule parses a five field expression or a descriptor like @hourly
func NewCronSchedule(expr string, now time.Time) (*Schedule, error) {
	expr = strings.TrimSpace(expr)
	cs, err := cronParser.Parse(expr)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "invalid cron %q", expr)
	}
	return &Schedule{cron: cs, expr: expr, next: cs.Next(now)}, nil
}

// IsDue reports whether now has reached the next run
func (s *Schedule) IsDue(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !now.Before(s.next)
}

// NextRun returns the next due time
func (s *Schedule) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// LastRun returns the last finished run, nil before the first
func (s *Schedule) LastRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	t := *s.last
	return &t
}

// MarkRun records a finished run and computes the next one
func (s *Schedule) MarkRun(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = &at
	if s.cron != nil {
		s.next = s.cron.Next(at)
		return
	}
	s.next = at.Add(s.interval)
}

// String describes the schedule for logs
func (s *Schedule) String() string {
	if s.cron != nil {
		return "cron " + s.expr
	}
	return "every " + s.interval.String()
}
