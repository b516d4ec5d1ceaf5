package module

import (
	"strings"
	"time"

	"newslens/internal/platform/config"
	"newslens/internal/services/orchestrator/domain"
)

// DefaultIntervalMinutes applies to any workflow without its own interval setting
const DefaultIntervalMinutes = 100

// Options controls scheduling; values come from env with the CORE_ORCHESTRATOR_ prefix
type Options struct {
	PollEvery     time.Duration
	ShutdownGrace time.Duration

	// Intervals maps workflow id to its run interval
	Intervals map[string]time.Duration
	// Disabled workflows are registered but left paused at start
	Disabled []string

	// History writes run rows to clickhouse when a CH seam is available
	History bool

	// Tokens maps operator name to bearer token for pause, resume and trigger
	// empty leaves the control routes open
	Tokens map[string]string
}

// FromConfig reads options using CORE_ORCHESTRATOR_ prefix
func FromConfig(cfg config.Conf) Options {
	oc := cfg.Prefix("CORE_ORCHESTRATOR_")
	minutes := func(key string) time.Duration {
		return time.Duration(oc.MayInt(key, DefaultIntervalMinutes)) * time.Minute
	}
	return Options{
		PollEvery:     oc.MayDuration("POLL_EVERY", 500*time.Millisecond),
		ShutdownGrace: oc.MayDuration("SHUTDOWN_GRACE", 30*time.Second),
		Intervals: map[string]time.Duration{
			domain.FactHarvestID:     minutes("INTERVAL_FACTHARVEST"),
			domain.ArticleCreationID: minutes("INTERVAL_ARTICLECREATION"),
			domain.ThreadLinkerID:    minutes("INTERVAL_THREADLINKER"),
		},
		Disabled: oc.MayCSV("DISABLED", nil),
		History:  oc.MayBool("HISTORY", true),
		Tokens:   parseTokens(oc.MayCSV("TOKENS", nil)),
	}
}

// parseTokens reads name=token pairs, skipping malformed entries
func parseTokens(pairs []string) map[string]string {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name, tok, ok := strings.Cut(p, "=")
		name, tok = strings.TrimSpace(name), strings.TrimSpace(tok)
		if !ok || name == "" || tok == "" {
			continue
		}
		out[name] = tok
	}
	return out
}

// IntervalFor returns the configured interval of a workflow or the default
func (o Options) IntervalFor(id string) time.Duration {
	if d, ok := o.Intervals[id]; ok && d > 0 {
		return d
	}
	return DefaultIntervalMinutes * time.Minute
}

// IsDisabled reports whether id was listed in DISABLED (case insensitive)
func (o Options) IsDisabled(id string) bool {
	for _, d := range o.Disabled {
		if strings.EqualFold(d, id) {
			return true
		}
	}
	return false
}
