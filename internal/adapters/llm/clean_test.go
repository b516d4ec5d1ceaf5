package llm

import (
	"encoding/json"
	"testing"

	perr "newslens/internal/platform/errors"
)

func TestClean(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fence without lang", "```\n{\"a\":1}\n```\n", `{"a":1}`},
		{"chatter around", `Sure! here it is {"a":{"b":2}} hope it helps {"c":3}`, `{"a":{"b":2}}`},
		{"brace in string", `{"a":"}{"}`, `{"a":"}{"}`},
		{"escaped quote", `{"a":"x\"}"}`, `{"a":"x\"}"}`},
		{"block comment", "{/* note */\"a\":1}", `{"a":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Clean(tc.in)
			if err != nil {
				t.Fatalf("clean: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got=%s want=%s", got, tc.want)
			}
		})
	}
}

func TestCleanKeepsURLsDropsLineComments(t *testing.T) {
	t.Parallel()
	in := "{\n  \"url\": \"https://example.org/a\", // the source\n  \"n\": 2 // count\n}"
	got, err := Clean(in)
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(got), &m); err != nil {
		t.Fatalf("not json: %v (%s)", err, got)
	}
	if m["url"] != "https://example.org/a" || m["n"] != float64(2) {
		t.Fatalf("got=%v", m)
	}
}

func TestCleanErrors(t *testing.T) {
	t.Parallel()
	for _, in := range []string{"", "   ", "no json here", `{"a":{"b":1}`} {
		if _, err := Clean(in); !perr.IsCode(err, perr.ErrorCodeJSON) {
			t.Fatalf("in=%q code got=%v want=%v", in, perr.CodeOf(err), perr.ErrorCodeJSON)
		}
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()
	hr, err := Decode(`{"categories":{"entities":["Gaza"]},"facts":[{"id":"f1","statement":"x","sources":[{"alias":"a","paragraphs":[1,2]}]}],"extra":true}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(hr.Facts) != 1 || hr.Facts[0].Sources[0].Paragraphs[1] != 2 || hr.Categories.Entities[0] != "Gaza" {
		t.Fatalf("got=%+v", hr)
	}

	for _, bad := range []string{
		`{"facts":"nope"}`,
		`{"facts":[{"sources":[{"paragraphs":["one"]}]}]}`,
		`{"categories":{"keywords":[1]}}`,
		`{"a":`,
	} {
		if _, err := Decode(bad); !perr.IsCode(err, perr.ErrorCodeJSON) {
			t.Fatalf("doc=%s code got=%v want=%v", bad, perr.CodeOf(err), perr.ErrorCodeJSON)
		}
	}
}
