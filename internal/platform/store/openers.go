package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"

	chx "newslens/internal/platform/store/ch"
	"newslens/internal/platform/store/pg"
)

// openPG opens pg and wraps it with our sql adapter
func openPG(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	var tracer pg.QueryTracer
	if cfg.PG.LogSQL {
		tracer = pg.Tracer(s.Log)
	}

	p, err := pg.Open(ctx, pg.Config{
		URL:      cfg.PG.URL,
		MaxConns: cfg.PG.MaxConns,
		SlowMs:   cfg.PG.SlowQueryMs,
		AppName:  cfg.AppName,
	}, tracer, nil)
	if err != nil {
		return nil, err
	}

	// ping the pool directly so boot retries stay out of the sql trace
	attempts := uint64(6)
	if cfg.PG.ConnectRetries > 0 {
		attempts = uint64(cfg.PG.ConnectRetries)
	}
	pingTimeout := 3 * time.Second
	if cfg.PG.PingTimeout > 0 {
		pingTimeout = cfg.PG.PingTimeout
	}
	backoff := retry.WithMaxRetries(attempts-1,
		retry.WithCappedDuration(2*time.Second, retry.NewExponential(150*time.Millisecond)))

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		toCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if pingErr := p.Pool.Ping(toCtx); pingErr != nil {
			if ctx.Err() != nil {
				return pingErr
			}
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		p.Close() // close the pool we opened
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("postgres ping failed after %d attempts: %w", attempts, err)
	}

	s.Log.Info().Int32("max_conns", cfg.PG.MaxConns).Msg("postgres connected")
	return newPGAdapter(p), nil
}

func openCH(ctx context.Context, cfg Config, s *Store) (Clickhouse, error) {
	c, err := chx.Open(ctx, chx.Config{
		URL:        cfg.CH.URL,
		ClientName: cfg.CH.ClientName,
		ClientTag:  cfg.CH.ClientTag,
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info().Str("client", cfg.CH.ClientName).Msg("clickhouse connected")
	return newCHAdapter(c), nil
}

// openRedis dials redis and pings once; the client reconnects on its own afterwards
func openRedis(ctx context.Context, cfg Config) (*redis.Client, error) {
	rc := redis.NewClient(&redis.Options{
		Addr:     cfg.RDS.Addr,
		Password: cfg.RDS.Password,
		DB:       cfg.RDS.DB,
	})
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rc.Ping(pctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.RDS.Addr, err)
	}
	return rc, nil
}
