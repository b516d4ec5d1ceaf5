package pg

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"newslens/internal/platform/logger"
)

// maxArgLen caps each logged argument; fact bodies and prompts are long
const maxArgLen = 120

// QueryEvent describes one executed statement
type QueryEvent struct {
	SQL       string
	Args      []any
	ElapsedUS int64
	Err       error
	Slow      bool
}

// QueryTracer receives an event per statement
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// Tracer logs every statement regardless of the process level, slow ones at warn
func Tracer(root logger.Logger) QueryTracer {
	return &zlTracer{log: root.Level(zerolog.DebugLevel).With().Str("component", "pg").Logger()}
}

type zlTracer struct{ log logger.Logger }

func (z *zlTracer) OnQuery(_ context.Context, ev QueryEvent) {
	evt := z.log.Info()
	if ev.Slow {
		evt = z.log.Warn()
	}
	evt.Float64("elapsed_ms", float64(ev.ElapsedUS)/1000.0).
		Bool("slow", ev.Slow).
		Str("sql", compact(ev.SQL)).
		Strs("args", clip(ev.Args)).
		Err(ev.Err).
		Msg("pg query")
}

// compact puts a multi line statement on one line
func compact(s string) string { return strings.Join(strings.Fields(s), " ") }

func clip(args []any) []string {
	out := make([]string, len(args))
	for i, a := range args {
		s := fmt.Sprint(a)
		if len(s) > maxArgLen {
			s = s[:maxArgLen] + "..."
		}
		out[i] = s
	}
	return out
}
