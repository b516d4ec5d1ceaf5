// Package store opens the optional backends (postgres, clickhouse, redis) behind small seams
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"newslens/internal/platform/logger"
)

// Store holds whichever backends were enabled; the zero value has none
type Store struct {
	Log logger.Logger

	PG    TxRunner
	CH    Clickhouse
	Redis *redis.Client
}

type Row interface {
	Scan(dest ...any) error
}

type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
	Columns() []string
}

type CommandTag interface {
	String() string
	RowsAffected() int64
}

// RowQuerier is the sql surface repos use, inside or outside a transaction
type RowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// TxRunner runs fn in one transaction, committing when fn returns nil
type TxRunner interface {
	RowQuerier
	Tx(ctx context.Context, fn func(q RowQuerier) error) error
}

// Clickhouse is the columnar seam the run history writes through
type Clickhouse interface {
	Insert(ctx context.Context, table string, data any) error
	Exec(ctx context.Context, sql string, args ...any) error
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	Close() error
}

type Pinger interface{ Ping(context.Context) error }

type Option func(*Store) error

func WithLogger(log logger.Logger) Option {
	return func(s *Store) error {
		s.Log = log
		return nil
	}
}

// Open dials every enabled backend in order pg, ch, redis.
// A failure closes what was already opened and returns no store.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}
	steps := []struct {
		name    string
		enabled bool
		open    func() error
	}{
		{"pg", cfg.PG.Enabled, func() (err error) { s.PG, err = openPG(ctx, cfg, s); return }},
		{"ch", cfg.CH.Enabled, func() (err error) { s.CH, err = openCH(ctx, cfg, s); return }},
		{"redis", cfg.RDS.Enabled, func() (err error) { s.Redis, err = openRedis(ctx, cfg); return }},
	}
	for _, st := range steps {
		if !st.enabled {
			continue
		}
		if err := st.open(); err != nil {
			s.Log.Error().Err(err).Str("backend", st.name).Msg("store open failed")
			_ = s.Close(context.WithoutCancel(ctx))
			return nil, err
		}
	}
	return s, nil
}

type backend struct {
	name  string
	ping  func(context.Context) error
	close func() error
}

// backends lists the opened backends; ping is nil when the seam cannot ping
func (s *Store) backends() []backend {
	var out []backend
	if s.PG != nil {
		b := backend{name: "pg"}
		if p, ok := s.PG.(Pinger); ok {
			b.ping = p.Ping
		}
		if c, ok := s.PG.(interface{ Close() error }); ok {
			b.close = c.Close
		}
		out = append(out, b)
	}
	if s.CH != nil {
		b := backend{name: "ch", close: s.CH.Close}
		if p, ok := s.CH.(Pinger); ok {
			b.ping = p.Ping
		}
		out = append(out, b)
	}
	if s.Redis != nil {
		rc := s.Redis
		out = append(out, backend{name: "redis", ping: func(ctx context.Context) error { return rc.Ping(ctx).Err() }, close: rc.Close})
	}
	return out
}

// Guard pings every opened backend and joins the failures
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return errors.New("nil store")
	}
	var errs []error
	for _, b := range s.backends() {
		if b.ping == nil {
			continue
		}
		if err := b.ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", b.name, err))
		}
	}
	return errors.Join(errs...)
}

// Close closes every opened backend in reverse open order
func (s *Store) Close(_ context.Context) error {
	var errs []error
	bs := s.backends()
	for i := len(bs) - 1; i >= 0; i-- {
		if bs[i].close == nil {
			continue
		}
		if err := bs[i].close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", bs[i].name, err))
		}
	}
	return errors.Join(errs...)
}
