package store

import (
	"context"
	"errors"

	"newslens/internal/platform/store/ch"
)

// chStore narrows *ch.CH to the Clickhouse seam
type chStore struct {
	*ch.CH
}

func newCHAdapter(c *ch.CH) Clickhouse { return chStore{CH: c} }

// Insert takes rows as [][]any in table column order
func (c chStore) Insert(ctx context.Context, table string, data any) error {
	rows, ok := data.([][]any)
	if !ok {
		return errors.New("store: clickhouse insert wants [][]any")
	}
	return c.CH.Insert(ctx, table, rows)
}

func (c chStore) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	r, err := c.CH.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return chRows{r}, nil
}

func (c chStore) Ping(ctx context.Context) error {
	if c.CH == nil {
		return errors.New("store: clickhouse not open")
	}
	return c.CH.Ping(ctx)
}

// chRows drops the close error, which the driver also reports through Err
type chRows struct{ ch.Rows }

func (r chRows) Close() { _ = r.Rows.Close() }
