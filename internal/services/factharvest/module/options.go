package module

import (
	"newslens/internal/platform/config"
	"newslens/internal/services/factharvest/service"
)

// Options for the harvest workflow
type Options struct {
	Concurrency int
}

// FromConfig fills options from environment
// CORE_HARVEST_CONCURRENCY (default 4) bounds how many providers are fetched at once
func FromConfig(cfg config.Conf) Options {
	hc := cfg.Prefix("CORE_HARVEST_")
	return Options{Concurrency: hc.MayInt("CONCURRENCY", service.DefaultConcurrency)}
}
