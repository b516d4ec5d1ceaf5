package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	perr "newslens/internal/platform/errors"
)

func newTestClient(t *testing.T, srv *httptest.Server, mut func(*Options)) *Client {
	t.Helper()
	o := Options{BaseURL: srv.URL + "/", Model: "m1", RetryBase: time.Millisecond, MaxRetries: 2}
	if mut != nil {
		mut(&o)
	}
	c, err := NewClient(o)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestNewClientRequiresModel(t *testing.T) {
	t.Parallel()
	if _, err := NewClient(Options{}); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("code got=%v", perr.CodeOf(err))
	}
}

func TestCompleteOllama(t *testing.T) {
	t.Parallel()
	var got ollamaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" || r.Method != http.MethodPost {
			t.Errorf("request got=%s %s", r.Method, r.URL.Path)
		}
		if ua := r.Header.Get("User-Agent"); ua != DefaultUserAgent {
			t.Errorf("user agent got=%s", ua)
		}
		if a := r.Header.Get("Authorization"); a != "" {
			t.Errorf("unexpected auth header %s", a)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"hello"}}`))
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv, func(o *Options) { o.Temperature = 0.3 })
	out, err := c.Complete(context.Background(), "sys", "usr")
	if err != nil || out != "hello" {
		t.Fatalf("out=%q err=%v", out, err)
	}
	if got.Model != "m1" || got.Stream || got.Options.Temperature != 0.3 || len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "usr" {
		t.Fatalf("request body got=%+v", got)
	}
}

func TestCompleteOllamaResponseFallback(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"response":"legacy"}`))
	}))
	t.Cleanup(srv.Close)

	out, err := newTestClient(t, srv, nil).Complete(context.Background(), "s", "u")
	if err != nil || out != "legacy" {
		t.Fatalf("out=%q err=%v", out, err)
	}
}

func TestCompleteOpenAICompatible(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		body string
		want string
	}{
		{"message", `{"choices":[{"message":{"role":"assistant","content":"one"}}]}`, "one"},
		{"text", `{"choices":[{"text":"two"}]}`, "two"},
		{"none", `{"choices":[]}`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var got openAIRequest
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/chat/completions" {
					t.Errorf("path got=%s", r.URL.Path)
				}
				if a := r.Header.Get("Authorization"); a != "Bearer k" {
					t.Errorf("auth got=%s", a)
				}
				_ = json.NewDecoder(r.Body).Decode(&got)
				_, _ = w.Write([]byte(tc.body))
			}))
			t.Cleanup(srv.Close)

			c := newTestClient(t, srv, func(o *Options) { o.OpenAICompatible = true; o.APIKey = "k" })
			out, err := c.Complete(context.Background(), "s", "u")
			if err != nil || out != tc.want {
				t.Fatalf("out=%q err=%v want=%q", out, err, tc.want)
			}
			if got.TopK != 50 || got.TopP != 1.0 || got.Model != "m1" {
				t.Fatalf("request got=%+v", got)
			}
		})
	}
}

func TestCompleteRetries(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name     string
		statuses []int
		wantErr  perr.ErrorCode
		ok       bool
		calls    int32
	}{
		{"recovers after 503", []int{503, 200}, 0, true, 2},
		{"recovers after 429", []int{429, 429, 200}, 0, true, 3},
		{"gives up on 5xx", []int{500, 502, 503, 200}, perr.ErrorCodeUnavailable, false, 3},
		{"no retry on 400", []int{400, 200}, perr.ErrorCodeInvalidArgument, false, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var n atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				i := n.Add(1) - 1
				w.WriteHeader(tc.statuses[i])
				_, _ = w.Write([]byte(`{"message":{"content":"ok"}}`))
			}))
			t.Cleanup(srv.Close)

			out, err := newTestClient(t, srv, nil).Complete(context.Background(), "s", "u")
			if tc.ok {
				if err != nil || out != "ok" {
					t.Fatalf("out=%q err=%v", out, err)
				}
			} else if !perr.IsCode(err, tc.wantErr) {
				t.Fatalf("code got=%v want=%v (err=%v)", perr.CodeOf(err), tc.wantErr, err)
			}
			if n.Load() != tc.calls {
				t.Fatalf("calls got=%d want=%d", n.Load(), tc.calls)
			}
		})
	}
}

func TestCompleteHonoursContext(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := newTestClient(t, srv, func(o *Options) { o.RatePerSec = 1 })
	if _, err := c.Complete(ctx, "s", "u"); err == nil {
		t.Fatalf("expected error on cancelled context")
	}
}
