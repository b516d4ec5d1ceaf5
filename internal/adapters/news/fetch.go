package news

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"

	perr "newslens/internal/platform/errors"
)

// Fetcher defaults
const (
	DefaultUserAgent = "NewsLens/1.0"
	DefaultTimeout   = 30 * time.Second
	defaultMaxBody   = 16 << 20
)

// FetchOptions configures outgoing http for all providers
type FetchOptions struct {
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	RetryBase  time.Duration
	// RatePerSec caps requests across providers, zero means unlimited
	RatePerSec float64
}

// Fetcher is a small GET client with retries and a shared rate limit
type Fetcher struct {
	http    *http.Client
	opts    FetchOptions
	limiter *rate.Limiter
}

// NewFetcher builds a Fetcher with defaults for zero fields
func NewFetcher(o FetchOptions) *Fetcher {
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBase <= 0 {
		o.RetryBase = 250 * time.Millisecond
	}
	f := &Fetcher{http: &http.Client{Timeout: o.Timeout}, opts: o}
	if o.RatePerSec > 0 {
		burst := int(o.RatePerSec)
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(o.RatePerSec), burst)
	}
	return f
}

// Get returns the body of a 2xx response
// transport errors, 429 and 5xx are retried
func (f *Fetcher) Get(ctx context.Context, url string, header http.Header) ([]byte, error) {
	var body []byte
	b := retry.WithMaxRetries(uint64(f.opts.MaxRetries), retry.WithCappedDuration(10*time.Second, retry.NewExponential(f.opts.RetryBase)))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		out, err := f.get(ctx, url, header)
		if err != nil {
			if perr.Retryable(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		body = out
		return nil
	})
	if err != nil {
		return nil, perr.WithOp(err, "news.Get")
	}
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, url string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "news bad url %s", url)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := f.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "news get %s failed", url)
	}
	defer func() { _ = resp.Body.Close() }()

	if code, failed := perr.FromStatus(resp.StatusCode); failed {
		return nil, perr.Newf(code, "news get %s status %d", url, resp.StatusCode)
	}
	out, err := io.ReadAll(io.LimitReader(resp.Body, defaultMaxBody))
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "news read %s failed", url)
	}
	return out, nil
}

// sleep waits d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
