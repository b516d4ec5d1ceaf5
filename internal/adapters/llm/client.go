package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"

	perr "newslens/internal/platform/errors"
	"newslens/internal/platform/logger"
)

// Completer sends one system + user exchange and returns the model text
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Client is a chat completion client for ollama or openai compatible servers
type Client struct {
	http    *http.Client
	opts    Options
	limiter *rate.Limiter
	log     logger.Logger
}

var _ Completer = (*Client)(nil)

// NewClient builds a Client; a model name is required
func NewClient(o Options) (*Client, error) {
	o = o.withDefaults()
	if blank(o.Model) {
		return nil, perr.WithField(perr.InvalidArgf("llm model is required"), "LLM_MODEL")
	}
	c := &Client{
		http: &http.Client{Timeout: o.Timeout},
		opts: o,
		log:  *logger.Named("llm"),
	}
	if o.RatePerSec > 0 {
		burst := int(o.RatePerSec)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(o.RatePerSec), burst)
	}
	return c, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	TopK        int           `json:"top_k"`
	TopP        float64       `json:"top_p"`
	Messages    []chatMessage `json:"messages"`
}

type openAIResponse struct {
	Choices []struct {
		Message *chatMessage `json:"message"`
		Text    string       `json:"text"`
	} `json:"choices"`
}

type ollamaRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  struct {
		Temperature float64 `json:"temperature"`
	} `json:"options"`
}

type ollamaResponse struct {
	Message  *chatMessage `json:"message"`
	Response string       `json:"response"`
}

// Complete implements Completer
// transport errors, 429 and 5xx are retried with exponential backoff
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	msgs := []chatMessage{{Role: "system", Content: system}, {Role: "user", Content: user}}

	var path string
	var body any
	if c.opts.OpenAICompatible {
		path = "/v1/chat/completions"
		body = openAIRequest{Model: c.opts.Model, Temperature: c.opts.Temperature, TopK: 50, TopP: 1.0, Messages: msgs}
	} else {
		r := ollamaRequest{Model: c.opts.Model, Messages: msgs}
		r.Options.Temperature = c.opts.Temperature
		path = "/api/chat"
		body = r
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeJSON, "encode llm request")
	}

	var raw []byte
	b := retry.WithMaxRetries(uint64(c.opts.MaxRetries), retry.WithCappedDuration(30*time.Second, retry.NewExponential(c.opts.RetryBase)))
	attempt := 0
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		out, err := c.post(ctx, path, payload)
		if err != nil {
			if perr.Retryable(err) {
				c.log.Warn().Err(err).Int("attempt", attempt).Str("path", path).Msg("llm call failed retrying")
				return retry.RetryableError(err)
			}
			return err
		}
		raw = out
		return nil
	})
	if err != nil {
		return "", perr.WithOp(err, "llm.Complete")
	}

	if c.opts.OpenAICompatible {
		var r openAIResponse
		if err := json.Unmarshal(raw, &r); err != nil {
			return "", perr.Wrap(err, perr.ErrorCodeJSON, "decode llm response")
		}
		if len(r.Choices) == 0 {
			return "", nil
		}
		if m := r.Choices[0].Message; m != nil && m.Content != "" {
			return m.Content, nil
		}
		return r.Choices[0].Text, nil
	}
	var r ollamaResponse
	if err := json.Unmarshal(raw, &r); err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeJSON, "decode llm response")
	}
	if r.Message != nil && r.Message.Content != "" {
		return r.Message.Content, nil
	}
	return r.Response, nil
}

func (c *Client) post(ctx context.Context, path string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "llm new request failed")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.opts.UserAgent)
	if key := strings.TrimSpace(c.opts.APIKey); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "llm do failed")
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("llm http response")

	if code, failed := perr.FromStatus(resp.StatusCode); failed {
		tail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, perr.Newf(code, "llm %s status %d body %s", path, resp.StatusCode, string(tail))
	}
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "llm read body failed")
	}
	return out, nil
}
