package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	perr "newslens/internal/platform/errors"
	orchdom "newslens/internal/services/orchestrator/domain"
)

// client talks to the workflow control surface under /api/v1/workflows
type client struct {
	base  string
	token string
	http  *http.Client
}

func newClient(addr string, timeout time.Duration) (*client, error) {
	addr = strings.TrimRight(strings.TrimSpace(addr), "/")
	u, err := url.Parse(addr)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, perr.WithField(perr.InvalidArgf("addr must be an http(s) url got %q", addr), "addr")
	}
	return &client{base: addr, http: &http.Client{Timeout: timeout}}, nil
}

// envelope mirrors the server response body
type envelope struct {
	StatusCode int             `json:"status_code"`
	Code       perr.ErrorCode  `json:"code"`
	Error      string          `json:"error"`
	Data       json.RawMessage `json:"data"`
}

func (c *client) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+"/api/v1/workflows"+path, nil)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "%s %s", method, path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "read response")
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return perr.Newf(perr.ErrorCodeUnavailable, "unexpected response %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}
	if resp.StatusCode >= 400 {
		return perr.Newf(env.Code, "%s (http %d)", str(env.Error, http.StatusText(resp.StatusCode)), resp.StatusCode)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "decode data")
	}
	return nil
}

func (c *client) List(ctx context.Context) ([]orchdom.Snapshot, error) {
	var out []orchdom.Snapshot
	err := c.do(ctx, http.MethodGet, "", &out)
	return out, err
}

func (c *client) Get(ctx context.Context, id string) (orchdom.Snapshot, error) {
	var out orchdom.Snapshot
	err := c.do(ctx, http.MethodGet, "/"+url.PathEscape(id), &out)
	return out, err
}

func (c *client) Pause(ctx context.Context, id string) (orchdom.Snapshot, error) {
	var out orchdom.Snapshot
	err := c.do(ctx, http.MethodPost, "/"+url.PathEscape(id)+"/pause", &out)
	return out, err
}

func (c *client) Resume(ctx context.Context, id string) (orchdom.Snapshot, error) {
	var out orchdom.Snapshot
	err := c.do(ctx, http.MethodPost, "/"+url.PathEscape(id)+"/resume", &out)
	return out, err
}

func (c *client) Trigger(ctx context.Context, id string) (orchdom.TriggerOutcome, error) {
	var out orchdom.TriggerOutcome
	err := c.do(ctx, http.MethodPost, "/"+url.PathEscape(id)+"/trigger", &out)
	return out, err
}

func (c *client) Runs(ctx context.Context, id string, limit int) ([]orchdom.RunRecord, error) {
	var out []orchdom.RunRecord
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/%s/runs?limit=%d", url.PathEscape(id), limit), &out)
	return out, err
}

func str(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
