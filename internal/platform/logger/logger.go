// Package logger owns the process root zerolog logger and the request scoped child loggers
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"

	"newslens/internal/platform/config/raw"
)

// Logger is zerolog's logger; packages take it by value and derive children with With()
type Logger = zerolog.Logger

// Options shape the root logger
type Options struct {
	Level   string // zerolog level name, anything unknown is debug
	Console bool   // human readable output instead of json lines
	Service string
	Writer  io.Writer
	Caller  bool
	// SampleEvery keeps one event in N when above 1
	SampleEvery int
}

// FromEnv reads LOG_LEVEL, LOG_FORMAT (console or json), LOG_SERVICE, LOG_CALLER and LOG_SAMPLE_EVERY
// it uses the raw config view because the full config package logs through this one
func FromEnv() Options {
	rc := raw.New().Prefix("LOG_")
	return Options{
		Level:       rc.Get("LEVEL", "debug"),
		Console:     strings.EqualFold(rc.Get("FORMAT", "console"), "console"),
		Service:     rc.Get("SERVICE", "newslens"),
		Caller:      rc.GetBool("CALLER", false),
		SampleEvery: rc.GetInt("SAMPLE_EVERY", 0),
	}
}

// New builds a logger from opt without touching the process root
func New(opt Options) Logger {
	var w io.Writer = os.Stdout
	if opt.Writer != nil {
		w = opt.Writer
	}
	if opt.Console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	c := zerolog.New(w).Level(level(opt.Level)).With().Timestamp()
	if opt.Service != "" {
		c = c.Str("service", opt.Service)
	}
	if opt.Caller {
		c = c.Caller()
	}
	l := c.Logger()
	if opt.SampleEvery > 1 {
		l = l.Sample(&zerolog.BasicSampler{N: uint32(opt.SampleEvery)})
	}
	return l
}

func level(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.DebugLevel
	}
	return lvl
}

var (
	initOnce sync.Once
	root     *Logger
)

// Init installs the process root once; later calls are ignored
// the root also becomes zerolog's fallback for contexts without a logger
func Init(opt Options) {
	initOnce.Do(func() {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
		zerolog.TimeFieldFormat = time.RFC3339Nano
		l := New(opt)
		root = &l
		zerolog.DefaultContextLogger = root
	})
}

// Get returns the root, initialising it from the environment on first use
func Get() *Logger {
	Init(FromEnv())
	return root
}

// Named is a child of the root tagged with a component
func Named(component string) *Logger {
	l := Get().With().Str("component", component).Logger()
	return &l
}

type fieldsKey struct{}

type requestFields struct{ reqID, operator string }

// WithRequest returns ctx carrying a logger tagged with the request id and operator
// empty values keep what an outer middleware already set
func WithRequest(ctx context.Context, reqID, operator string) context.Context {
	f, _ := ctx.Value(fieldsKey{}).(requestFields)
	if reqID != "" {
		f.reqID = reqID
	}
	if operator != "" {
		f.operator = operator
	}
	c := Get().With()
	if f.reqID != "" {
		c = c.Str("request_id", f.reqID)
	}
	if f.operator != "" {
		c = c.Str("operator", f.operator)
	}
	l := c.Logger()
	return l.WithContext(context.WithValue(ctx, fieldsKey{}, f))
}

// C returns the request logger on ctx, or the root
func C(ctx context.Context) *Logger {
	Get()
	return zerolog.Ctx(ctx)
}
