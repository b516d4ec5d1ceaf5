package pg

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"newslens/internal/platform/testkit"
)

func TestOpenParseError(t *testing.T) {
	t.Parallel()
	if _, err := Open(context.Background(), Config{URL: "://bad"}, nil, nil); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestOpenAppliesConfig(t *testing.T) {
	testkit.Serial(t)

	var seen *pgxpool.Config
	testkit.Swap(t, &newPool, func(_ context.Context, c *pgxpool.Config) (*pgxpool.Pool, error) {
		seen = c
		return &pgxpool.Pool{}, nil
	})

	mutated := false
	cfg := Config{URL: "postgres://u:p@h:5432/newslens?sslmode=disable", MaxConns: 7, SlowMs: 250, AppName: "newslens-automation"}
	p, err := Open(context.Background(), cfg, nil, func(*pgxpool.Config) { mutated = true })
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !mutated || seen.MaxConns != 7 || seen.ConnConfig.RuntimeParams["application_name"] != "newslens-automation" {
		t.Fatalf("config not applied: mutated=%v max=%d params=%v", mutated, seen.MaxConns, seen.ConnConfig.RuntimeParams)
	}
	if p.SlowMs != 250 || p.Pool == nil {
		t.Fatalf("pg got=%+v", p)
	}
}

func TestOpenPoolError(t *testing.T) {
	testkit.Serial(t)
	testkit.Swap(t, &newPool, func(context.Context, *pgxpool.Config) (*pgxpool.Pool, error) {
		return nil, errors.New("boom")
	})
	if _, err := Open(context.Background(), Config{URL: "postgres://u:p@h:5432/db"}, nil, nil); err == nil {
		t.Fatalf("expected pool error")
	}
}

func TestCloseNilSafe(t *testing.T) {
	t.Parallel()
	var p *PG
	p.Close()
	(&PG{}).Close()
}
