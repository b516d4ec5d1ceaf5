package repo

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"newslens/internal/modkit/repokit"
	perr "newslens/internal/platform/errors"
	"newslens/internal/services/facts/domain"
)

// PGDedup records processed urls in processed_urls
type PGDedup struct {
	q repokit.Queryer
}

var _ domain.Dedup = (*PGDedup)(nil)

// NewPGDedup binds url dedup to postgres
func NewPGDedup(q repokit.Queryer) *PGDedup {
	return &PGDedup{q: repokit.RequireQueryer(q)}
}

// TryMarkProcessed implements domain.Dedup
func (d *PGDedup) TryMarkProcessed(ctx context.Context, provider, url string) (bool, error) {
	if domain.Blank(url) {
		return false, perr.WithField(perr.InvalidArgf("url is required"), "url")
	}
	const sql = `insert into processed_urls (url_hash, provider, url) values ($1, $2, $3)`
	_, err := d.q.Exec(ctx, sql, domain.URLHash(url), provider, url)
	switch {
	case err == nil:
		return true, nil
	case perr.IsDuplicateKey(err):
		return false, nil
	default:
		return false, dbErr(err, "facts.TryMarkProcessed")
	}
}

// Redis dedup defaults
const (
	DefaultRedisPrefix = "newslens:processed:"
	DefaultRedisTTL    = 30 * 24 * time.Hour
)

// RedisDedup keeps processed url hashes as expiring keys
type RedisDedup struct {
	rc     *redis.Client
	prefix string
	ttl    time.Duration
}

var _ domain.Dedup = (*RedisDedup)(nil)

// NewRedisDedup binds url dedup to redis
// an empty prefix or non positive ttl falls back to the defaults
func NewRedisDedup(rc *redis.Client, prefix string, ttl time.Duration) *RedisDedup {
	if rc == nil {
		panic("facts.NewRedisDedup requires a non-nil redis client")
	}
	if strings.TrimSpace(prefix) == "" {
		prefix = DefaultRedisPrefix
	}
	if ttl <= 0 {
		ttl = DefaultRedisTTL
	}
	return &RedisDedup{rc: rc, prefix: prefix, ttl: ttl}
}

// Key returns the redis key used for a url
func (d *RedisDedup) Key(url string) string { return d.prefix + domain.URLHash(url) }

// TryMarkProcessed implements domain.Dedup
func (d *RedisDedup) TryMarkProcessed(ctx context.Context, provider, url string) (bool, error) {
	if domain.Blank(url) {
		return false, perr.WithField(perr.InvalidArgf("url is required"), "url")
	}
	ok, err := d.rc.SetNX(ctx, d.Key(url), provider, d.ttl).Result()
	if err != nil {
		return false, perr.WithOp(perr.Wrap(err, perr.ErrorCodeUnavailable, "redis dedup"), "facts.TryMarkProcessed")
	}
	return ok, nil
}
