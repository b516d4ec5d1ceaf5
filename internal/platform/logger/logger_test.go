package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestLevel(t *testing.T) {
	t.Parallel()
	cases := map[string]zerolog.Level{
		"trace":     zerolog.TraceLevel,
		"INFO":      zerolog.InfoLevel,
		" warning ": zerolog.WarnLevel,
		"error":     zerolog.ErrorLevel,
		"":          zerolog.DebugLevel,
		"loud":      zerolog.DebugLevel,
	}
	for in, want := range cases {
		if got := level(in); got != want {
			t.Fatalf("level(%q) got=%v want=%v", in, got, want)
		}
	}
}

func decode(t *testing.T, line string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("decode %q: %v", line, err)
	}
	return m
}

func TestNewJSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	l := New(Options{Level: "info", Service: "newslens-test", Writer: &buf})
	l.Debug().Msg("dropped")
	l.Info().Str("workflow", "ThreadLinker").Msg("run finished")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("lines got=%d want=1: %q", len(lines), buf.String())
	}
	m := decode(t, lines[0])
	if m["service"] != "newslens-test" || m["workflow"] != "ThreadLinker" || m["message"] != "run finished" {
		t.Fatalf("fields got=%v", m)
	}
}

func TestNewConsole(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	l := New(Options{Console: true, Writer: &buf})
	l.Warn().Msg("feed slow")
	if out := buf.String(); !strings.Contains(out, "feed slow") || strings.HasPrefix(out, "{") {
		t.Fatalf("console output got=%q", out)
	}
}

// the only test touching the process root
func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "debug", Writer: &buf})

	ctx := WithRequest(context.Background(), "req-9", "")
	ctx = WithRequest(ctx, "", "alice")
	C(ctx).Info().Msg("pause requested")
	C(context.Background()).Info().Msg("plain")
	Named("orchestrator").Info().Msg("named")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines got=%d: %q", len(lines), buf.String())
	}
	first := decode(t, lines[0])
	if first["request_id"] != "req-9" || first["operator"] != "alice" {
		t.Fatalf("request fields got=%v", first)
	}
	if strings.Count(lines[0], "request_id") != 1 {
		t.Fatalf("request_id repeated: %s", lines[0])
	}
	if plain := decode(t, lines[1]); plain["request_id"] != nil {
		t.Fatalf("plain got=%v", plain)
	}
	if named := decode(t, lines[2]); named["component"] != "orchestrator" {
		t.Fatalf("named got=%v", named)
	}
}
