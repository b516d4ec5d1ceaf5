// Package repokit holds the seams repositories are written against
package repokit

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"

	perr "newslens/internal/platform/errors"
	"newslens/internal/platform/logger"
	"newslens/internal/platform/store"
)

type (
	// Queryer is the read and write surface sql repos use
	Queryer = store.RowQuerier
	// TxRunner runs a function inside a transaction
	TxRunner = store.TxRunner

	Rows       = store.Rows
	Row        = store.Row
	CommandTag = store.CommandTag
)

// TxAttempts bounds how often WithTx runs a transaction that lost to contention
const TxAttempts = 3

// WithTx runs fn inside a transaction on tx.
// Serialization failures and deadlocks rerun the whole transaction, so fn must not
// keep side effects outside q.
func WithTx(ctx context.Context, tx TxRunner, fn func(q Queryer) error) error {
	b := retry.WithMaxRetries(TxAttempts-1, retry.NewExponential(20*time.Millisecond))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := tx.Tx(ctx, fn)
		if err != nil && perr.IsRetryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// Binder binds a repo's queries to a Queryer, the pool or an open tx
type Binder[T any] interface {
	Bind(Queryer) T
}

// BindFunc adapts a function to Binder
type BindFunc[T any] func(Queryer) T

// Bind calls f
func (f BindFunc[T]) Bind(q Queryer) T { return f(q) }

// RequireQueryer panics on a nil q, a wiring bug rather than a runtime condition
func RequireQueryer(q Queryer) Queryer {
	if q == nil {
		panic("repokit: nil Queryer")
	}
	return q
}

// MustBind validates q then binds
func MustBind[T any](b Binder[T], q Queryer) T {
	return b.Bind(RequireQueryer(q))
}

type guarder interface {
	Guard(context.Context) error
}

// Guard pings every opened backend once within timeout and logs the result
// the error is returned so callers decide between failing startup and running degraded
func Guard(ctx context.Context, log logger.Logger, st guarder, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := st.Guard(ctx); err != nil {
		log.Warn().Err(err).Msg("backend guard failed")
		return err
	}
	log.Debug().Msg("backends answered")
	return nil
}
