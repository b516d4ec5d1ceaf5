// Package modkit holds what every module is built from: shared deps and its route mount
package modkit

import (
	"github.com/redis/go-redis/v9"

	"newslens/internal/modkit/repokit"
	"newslens/internal/platform/config"
	"newslens/internal/platform/logger"
	"newslens/internal/platform/store"
)

// Deps are the shared backends; nil seams mean the backend is disabled
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	CH  store.Clickhouse
	// Redis is optional, nil when SERVICE_REDIS_ENABLED is off
	Redis *redis.Client
}

// FromStore copies the open backends of a store into deps
func FromStore(log logger.Logger, cfg config.Conf, st *store.Store) Deps {
	d := Deps{Log: log, Cfg: cfg}
	if st != nil {
		d.PG, d.CH, d.Redis = st.PG, st.CH, st.Redis
	}
	return d
}
