package store

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeTx satisfies TxRunner; ping is optional so Guard's Pinger check is exercised
type fakeTx struct{}

func (fakeTx) Tx(context.Context, func(RowQuerier) error) error         { return nil }
func (fakeTx) Exec(context.Context, string, ...any) (CommandTag, error) { return nil, nil }
func (fakeTx) Query(context.Context, string, ...any) (Rows, error)      { return nil, nil }
func (fakeTx) QueryRow(context.Context, string, ...any) Row             { return nil }

type pingTx struct {
	fakeTx
	err error
}

func (p pingTx) Ping(context.Context) error { return p.err }

type fakeCH struct{ pingErr error }

func (fakeCH) Insert(context.Context, string, any) error           { return nil }
func (fakeCH) Exec(context.Context, string, ...any) error          { return nil }
func (fakeCH) Query(context.Context, string, ...any) (Rows, error) { return nil, nil }
func (fakeCH) Close() error                                        { return nil }
func (f fakeCH) Ping(context.Context) error                        { return f.pingErr }

func TestGuard(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		st    *Store
		wants []string
	}{
		{"nil store", nil, []string{"nil store"}},
		{"no backends", &Store{}, nil},
		{"pg without ping is skipped", &Store{PG: fakeTx{}}, nil},
		{"pg ok", &Store{PG: pingTx{}}, nil},
		{"pg down", &Store{PG: pingTx{err: errors.New("refused")}}, []string{"pg: refused"}},
		{"ch down", &Store{CH: fakeCH{pingErr: errors.New("timeout")}}, []string{"ch: timeout"}},
		{"both down are joined", &Store{
			PG: pingTx{err: errors.New("refused")},
			CH: fakeCH{pingErr: errors.New("timeout")},
		}, []string{"pg: refused", "ch: timeout"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.st.Guard(context.Background())
			if len(tc.wants) == 0 {
				if err != nil {
					t.Fatalf("got=%v want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("got nil want %v", tc.wants)
			}
			for _, w := range tc.wants {
				if !strings.Contains(err.Error(), w) {
					t.Fatalf("got=%q want to contain %q", err.Error(), w)
				}
			}
		})
	}
}
