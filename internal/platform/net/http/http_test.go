package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"newslens/internal/platform/config"
	perr "newslens/internal/platform/errors"
	pnet "newslens/internal/platform/net"
	phttp "newslens/internal/platform/net/http"
)

func serve(t *testing.T, r phttp.Router, method, path, body string) (*httptest.ResponseRecorder, phttp.Envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	var env phttp.Envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %q: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

func TestRouterGroupsShareMux(t *testing.T) {
	t.Parallel()
	r := phttp.AdaptChi(chi.NewRouter())
	var hits []string
	r.Route("/v1", func(v1 phttp.Router) {
		v1.Group(func(g phttp.Router) {
			g.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					hits = append(hits, "mw")
					next.ServeHTTP(w, r)
				})
			})
			g.Get("/items/{id}", phttp.Call(func(r *http.Request) (any, error) {
				return phttp.Param(r, "id"), nil
			}))
		})
		v1.Post("/open", phttp.Call(func(*http.Request) (any, error) { return "open", nil }))
		if v1.Mux() != r.Mux() {
			t.Errorf("sub router mux differs from root")
		}
	})

	rec, env := serve(t, r, http.MethodGet, "/v1/items/42", "")
	if rec.Code != http.StatusOK || env.Data != "42" {
		t.Fatalf("get code=%d env=%+v", rec.Code, env)
	}
	if rec, _ := serve(t, r, http.MethodPost, "/v1/open", ""); rec.Code != http.StatusOK {
		t.Fatalf("post code=%d", rec.Code)
	}
	if len(hits) != 1 {
		t.Fatalf("group middleware ran %d times want=1", len(hits))
	}
	if rec, _ := serve(t, r, http.MethodPost, "/v1/items/42", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("wrong method code=%d", rec.Code)
	}
}

func TestHandleEnvelope(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		resp   phttp.Response
		status int
		code   perr.ErrorCode
		empty  bool
	}{
		{"ok", phttp.OK(map[string]int{"n": 1}), http.StatusOK, 0, false},
		{"created", phttp.Response{Status: http.StatusCreated, Body: "x"}, http.StatusCreated, 0, false},
		{"no content", phttp.Response{Status: http.StatusNoContent}, http.StatusNoContent, 0, true},
		{"not found", phttp.Error(perr.NotFoundf("thread %s", "t1")), http.StatusNotFound, perr.ErrorCodeNotFound, false},
		{"foreign error", phttp.Error(errors.New("boom")), http.StatusInternalServerError, perr.ErrorCodeUnknown, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r := phttp.AdaptChi(chi.NewRouter())
			r.Get("/", phttp.Handle(func(*http.Request) phttp.Response { return tc.resp }))
			rec, env := serve(t, r, http.MethodGet, "/", "")
			if rec.Code != tc.status {
				t.Fatalf("status got=%d want=%d", rec.Code, tc.status)
			}
			if tc.empty {
				if rec.Body.Len() != 0 {
					t.Fatalf("body on 204: %q", rec.Body.String())
				}
				return
			}
			if env.StatusCode != tc.status || env.Code != tc.code || env.Status != http.StatusText(tc.status) {
				t.Fatalf("env=%+v", env)
			}
			if tc.status >= 400 && (env.Error == "" || env.Data != nil) {
				t.Fatalf("error env=%+v", env)
			}
		})
	}
}

func TestHandleCopiesHeadersAndRequestID(t *testing.T) {
	t.Parallel()
	r := phttp.AdaptChi(chi.NewRouter())
	r.Get("/", phttp.Handle(func(*http.Request) phttp.Response {
		return phttp.Response{Status: http.StatusOK, Body: 1, Header: http.Header{"Location": {"/x"}}}
	}))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(pnet.WithRequest(req.Context(), "req-1", ""))
	r.Mux().ServeHTTP(rec, req)
	if rec.Header().Get("Location") != "/x" || !strings.Contains(rec.Body.String(), `"request_id":"req-1"`) {
		t.Fatalf("headers=%v body=%s", rec.Header(), rec.Body.String())
	}
}

func TestJSONHandler(t *testing.T) {
	t.Parallel()
	type in struct {
		Name string `json:"name" validate:"required"`
	}
	r := phttp.AdaptChi(chi.NewRouter())
	r.Post("/", phttp.JSONHandler(func(_ *http.Request, v in) (any, error) {
		if v.Name == "created" {
			return phttp.Response{Status: http.StatusCreated, Body: v}, nil
		}
		return "hi " + v.Name, nil
	}))

	cases := []struct {
		body   string
		status int
		code   perr.ErrorCode
	}{
		{`{"name":"ann"}`, http.StatusOK, 0},
		{`{"name":"created"}`, http.StatusCreated, 0},
		{`{}`, http.StatusBadRequest, perr.ErrorCodeValidation},
		{`{"nope":1}`, http.StatusBadRequest, perr.ErrorCodeJSON},
	}
	for _, tc := range cases {
		rec, env := serve(t, r, http.MethodPost, "/", tc.body)
		if rec.Code != tc.status || env.Code != tc.code {
			t.Fatalf("%s: status=%d code=%v want=%d/%v", tc.body, rec.Code, env.Code, tc.status, tc.code)
		}
	}
}

func TestMountProfiler(t *testing.T) {
	t.Parallel()
	r := phttp.AdaptChi(chi.NewRouter())
	phttp.MountProfiler(r, "/debug")
	for _, p := range []string{"/debug/pprof/", "/debug/pprof/cmdline"} {
		rec := httptest.NewRecorder()
		r.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s code=%d", p, rec.Code)
		}
	}
}

func TestServerServeAndShutdown(t *testing.T) {
	t.Parallel()
	srv := phttp.NewServer(config.New().Prefix("PHTTP_TEST_UNSET_"))
	if srv.Addr() != ":4000" {
		t.Fatalf("default addr got=%q", srv.Addr())
	}
	srv.Router().Get("/ping", func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "pong") })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- srv.Serve(context.Background(), ln) }()

	res, err := http.Get("http://" + ln.Addr().String() + "/ping")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, _ := io.ReadAll(res.Body)
	_ = res.Body.Close()
	if string(b) != "pong" {
		t.Fatalf("body got=%q", b)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("serve after shutdown: %v", err)
	}
}
