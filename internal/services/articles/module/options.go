package module

import (
	"newslens/internal/platform/config"
	factsdom "newslens/internal/services/facts/domain"
)

// Options for the article workflow
type Options struct {
	Trigger factsdom.TriggerQuery
}

// FromConfig fills options from environment
// CORE_ARTICLES_MIN_FACTS (7) unused facts a thread needs, within CORE_ARTICLES_SINCE_DAYS (3),
// from at least CORE_ARTICLES_MIN_SOURCES (1) urls; CORE_ARTICLES_MAX_THREADS (4) caps one run
func FromConfig(cfg config.Conf) Options {
	ac := cfg.Prefix("CORE_ARTICLES_")
	return Options{Trigger: factsdom.TriggerQuery{
		MinFacts:   ac.MayInt("MIN_FACTS", factsdom.DefaultTriggerMinFacts),
		SinceDays:  ac.MayInt("SINCE_DAYS", factsdom.DefaultTriggerSinceDays),
		MaxRows:    ac.MayInt("MAX_THREADS", factsdom.DefaultTriggerMaxRows),
		MinSources: ac.MayInt("MIN_SOURCES", factsdom.DefaultTriggerMinSources),
	}}
}
