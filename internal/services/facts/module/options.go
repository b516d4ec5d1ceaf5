package module

import (
	"strings"
	"time"

	"newslens/internal/platform/config"
	"newslens/internal/services/facts/repo"
)

// Backend names
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
)

// Options selects the fact store and dedup backends; values come from env with the FACTS_ prefix
type Options struct {
	// Backend is postgres or memory
	Backend string
	// Dedup is postgres, redis or memory
	Dedup string
	// Migrate applies the postgres schema at start
	Migrate bool

	RedisPrefix string
	DedupTTL    time.Duration
}

// FromConfig reads options using FACTS_ prefix
func FromConfig(cfg config.Conf) Options {
	fc := cfg.Prefix("FACTS_")
	backend := strings.ToLower(fc.MayEnum("BACKEND", BackendPostgres, BackendPostgres, BackendMemory))
	return Options{
		Backend:     backend,
		Dedup:       strings.ToLower(fc.MayEnum("DEDUP", backend, BackendPostgres, BackendRedis, BackendMemory)),
		Migrate:     fc.MayBool("MIGRATE", true),
		RedisPrefix: fc.MayString("DEDUP_REDIS_PREFIX", repo.DefaultRedisPrefix),
		DedupTTL:    fc.MayDuration("DEDUP_TTL", repo.DefaultRedisTTL),
	}
}
