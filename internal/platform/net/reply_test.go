package net_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	perr "newslens/internal/platform/errors"
	pnet "newslens/internal/platform/net"
)

func TestReply(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name       string
		status     int
		data       any
		err        error
		wantStatus int
		wantCode   perr.ErrorCode
		wantData   bool
	}{
		{"ok default", 0, []string{"ThreadLinker"}, nil, http.StatusOK, 0, true},
		{"accepted", http.StatusAccepted, "queued", nil, http.StatusAccepted, 0, true},
		{"not found wins over data", http.StatusOK, "ignored", perr.NotFoundf("workflow Nope not found"), http.StatusNotFound, perr.ErrorCodeNotFound, false},
		{"unauthorized", 0, nil, perr.Unauthorizedf("missing bearer token"), http.StatusUnauthorized, perr.ErrorCodeUnauthorized, false},
		{"foreign error", 0, nil, errors.New("boom"), http.StatusInternalServerError, perr.ErrorCodeUnknown, false},
	}
	for _, tc := range cases {
		status, w := pnet.Reply(tc.status, tc.data, tc.err, "req-7")
		if status != tc.wantStatus || w.StatusCode != status || w.Status != http.StatusText(status) {
			t.Fatalf("%s status got=%d wire=%+v want=%d", tc.name, status, w, tc.wantStatus)
		}
		if w.Code != tc.wantCode || w.RequestID != "req-7" || (w.Data != nil) != tc.wantData {
			t.Fatalf("%s wire got=%+v", tc.name, w)
		}
		if tc.err != nil && w.Error == "" {
			t.Fatalf("%s error text missing", tc.name)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	status, body := pnet.Error(perr.InvalidArgf("limit must be positive"), "")
	pnet.WriteJSON(rec, status, body)

	if rec.Code != http.StatusUnprocessableEntity || rec.Header().Get("Content-Type") != "application/json; charset=utf-8" {
		t.Fatalf("status=%d type=%q", rec.Code, rec.Header().Get("Content-Type"))
	}
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["error"] != "limit must be positive" || got["code"] != float64(perr.ErrorCodeInvalidArgument) {
		t.Fatalf("body got=%v", got)
	}
	if _, ok := got["request_id"]; ok {
		t.Fatalf("empty request id should be omitted: %v", got)
	}
}
