package net_test

import (
	"context"
	"testing"

	pnet "newslens/internal/platform/net"
)

func TestWithRequest(t *testing.T) {
	t.Parallel()
	base := context.Background()
	cases := []struct {
		reqID, operator string
	}{
		{"req-123", "alice"},
		{"req-only", ""},
		{"", "bob"},
		{"", ""},
	}
	for _, tc := range cases {
		ctx := pnet.WithRequest(base, tc.reqID, tc.operator)
		if pnet.RequestID(ctx) != tc.reqID || pnet.Operator(ctx) != tc.operator {
			t.Fatalf("got=%q,%q want=%q,%q", pnet.RequestID(ctx), pnet.Operator(ctx), tc.reqID, tc.operator)
		}
	}
	if pnet.WithRequest(base, "", "") != base {
		t.Fatalf("empty values should leave the context untouched")
	}
}
