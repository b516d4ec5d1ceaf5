package llm

import (
	"os"
	"strings"
	"time"

	"newslens/internal/platform/config"
	perr "newslens/internal/platform/errors"
)

// Client defaults
const (
	DefaultBaseURL   = "http://localhost:11434"
	DefaultTimeout   = 300 * time.Second
	DefaultUserAgent = "NewsLens/1.0"
	DefaultMaxRetry  = 3
	DefaultRetryBase = 500 * time.Millisecond
)

// Options configures a Client
type Options struct {
	BaseURL string
	Model   string
	// APIKey is sent as a bearer token when set
	APIKey      string
	Temperature float64
	Timeout     time.Duration
	UserAgent   string

	// OpenAICompatible selects /v1/chat/completions instead of the ollama /api/chat
	OpenAICompatible bool

	MaxRetries int
	RetryBase  time.Duration

	// RatePerSec caps outgoing requests, zero means unlimited
	RatePerSec float64
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.BaseURL) == "" {
		o.BaseURL = DefaultBaseURL
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBase <= 0 {
		o.RetryBase = DefaultRetryBase
	}
	return o
}

// Step is one harvest instruction
// article steps see the article, the others see the serialized running result
type Step struct {
	Path        string
	UseArticle  bool
	Instruction string
}

// Config is everything the harvest and writer clients need, read with the LLM_ prefix
type Config struct {
	Harvest Options
	Writer  Options

	// Steps lists instruction files; an "article:" prefix marks an article step
	Steps []Step
	// WriterInstruction is the path of the article writer system prompt
	WriterInstruction string
}

// FromConfig reads LLM_ settings
// LLM_WRITER_* values fall back to the harvest values when unset
func FromConfig(cfg config.Conf) Config {
	lc := cfg.Prefix("LLM_")
	h := Options{
		BaseURL:          lc.MayString("BASE_URL", DefaultBaseURL),
		Model:            lc.MayString("MODEL", ""),
		APIKey:           lc.MayString("API_KEY", ""),
		Temperature:      lc.MayFloat64("TEMPERATURE", 0),
		Timeout:          lc.MayDuration("TIMEOUT", DefaultTimeout),
		UserAgent:        lc.MayString("USER_AGENT", DefaultUserAgent),
		OpenAICompatible: lc.MayBool("OPENAI_COMPATIBLE", false),
		MaxRetries:       lc.MayInt("MAX_RETRIES", DefaultMaxRetry),
		RetryBase:        lc.MayDuration("RETRY_BASE", DefaultRetryBase),
		RatePerSec:       lc.MayFloat64("RATE_PER_SEC", 0),
	}
	wc := lc.Prefix("WRITER_")
	w := h
	w.BaseURL = wc.MayString("BASE_URL", h.BaseURL)
	w.Model = wc.MayString("MODEL", h.Model)
	w.APIKey = wc.MayString("API_KEY", h.APIKey)
	w.Temperature = wc.MayFloat64("TEMPERATURE", 0.2)
	w.OpenAICompatible = wc.MayBool("OPENAI_COMPATIBLE", h.OpenAICompatible)

	return Config{
		Harvest:           h,
		Writer:            w,
		Steps:             ParseSteps(lc.MayCSV("HARVEST_STEPS", nil)),
		WriterInstruction: wc.MayString("INSTRUCTION", ""),
	}
}

// ParseSteps turns "article:path" or "path" entries into steps without instructions
func ParseSteps(entries []string) []Step {
	var out []Step
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		st := Step{Path: e}
		if p, ok := strings.CutPrefix(e, "article:"); ok {
			st = Step{Path: strings.TrimSpace(p), UseArticle: true}
		} else if p, ok := strings.CutPrefix(e, "result:"); ok {
			st = Step{Path: strings.TrimSpace(p)}
		}
		out = append(out, st)
	}
	return out
}

// LoadSteps reads each step's instruction file
func LoadSteps(steps []Step) ([]Step, error) {
	out := make([]Step, 0, len(steps))
	for _, st := range steps {
		b, err := os.ReadFile(st.Path)
		if err != nil {
			return nil, perr.WithField(perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "read instruction %s", st.Path), "LLM_HARVEST_STEPS")
		}
		st.Instruction = string(b)
		out = append(out, st)
	}
	return out, nil
}

// LoadInstruction reads a single system prompt file
func LoadInstruction(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", perr.WithField(perr.InvalidArgf("instruction path is empty"), "LLM_WRITER_INSTRUCTION")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", perr.WithField(perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "read instruction %s", path), "LLM_WRITER_INSTRUCTION")
	}
	return string(b), nil
}
