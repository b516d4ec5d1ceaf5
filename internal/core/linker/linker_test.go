package linker

import (
	"math"
	"testing"

	perr "newslens/internal/platform/errors"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestJaccard_Properties(t *testing.T) {
	t.Parallel()

	a := NewTokenSet("ceasefire", "talks", "hostage")
	b := NewTokenSet("ceasefire", "sanctions")

	if got := Jaccard(nil, nil); got != 0 {
		t.Fatalf("empty sets got=%v want=0", got)
	}
	if got := Jaccard(TokenSet{}, nil); got != 0 {
		t.Fatalf("empty vs nil got=%v want=0", got)
	}
	if got := Jaccard(a, a); got != 1 {
		t.Fatalf("identity got=%v want=1", got)
	}
	if ab, ba := Jaccard(a, b), Jaccard(b, a); ab != ba {
		t.Fatalf("not symmetric ab=%v ba=%v", ab, ba)
	}
	if got := Jaccard(a, b); !approx(got, 1.0/4.0) {
		t.Fatalf("overlap got=%v want=0.25", got)
	}
	if got := Jaccard(a, nil); got != 0 {
		t.Fatalf("one empty got=%v want=0", got)
	}
}

func TestLink_ScenarioA_AssignsExisting(t *testing.T) {
	t.Parallel()

	ents := NewTokenSet("gaza")
	kws := NewTokenSet("ceasefire", "talks")
	cands := []Candidate{{
		ThreadID: "thread-a",
		Entities: NewTokenSet("gaza"),
		Keywords: NewTokenSet("ceasefire", "hostage"),
	}}

	d, err := Link(DefaultOptions(), ents, kws, cands)
	if err != nil {
		t.Fatalf("unexpected err %v", err)
	}
	if d.Created || d.ThreadID != "thread-a" {
		t.Fatalf("got=%+v want assignment to thread-a", d)
	}
	want := 0.7*1.0 + 0.3*(1.0/3.0)
	if !approx(d.Score, want) {
		t.Fatalf("score got=%v want=%v", d.Score, want)
	}
}

func TestLink_ScenarioB_MintsDeterministicID(t *testing.T) {
	t.Parallel()

	ents := NewTokenSet("gaza")
	kws := NewTokenSet("talks", "ceasefire")
	cands := []Candidate{{
		ThreadID: "thread-kyiv",
		Entities: NewTokenSet("kyiv"),
		Keywords: NewTokenSet("sanctions"),
	}}

	d, err := Link(DefaultOptions(), ents, kws, cands)
	if err != nil {
		t.Fatalf("unexpected err %v", err)
	}
	// sha256("ceasefire,talks|gaza")[:16]
	const want = "9b66072e378026e3"
	if !d.Created || d.ThreadID != want {
		t.Fatalf("got=%+v want created id %s", d, want)
	}
	if d.Score != 0 {
		t.Fatalf("score got=%v want=0", d.Score)
	}
}

func TestLink_NoCandidatesAlwaysMints(t *testing.T) {
	t.Parallel()

	d, err := Link(DefaultOptions(), NewTokenSet("gaza"), NewTokenSet("talks"), nil)
	if err != nil {
		t.Fatalf("unexpected err %v", err)
	}
	if !d.Created || len(d.ThreadID) != 16 {
		t.Fatalf("got=%+v want minted 16 char id", d)
	}
}

func TestLink_TieKeepsFirstSeen(t *testing.T) {
	t.Parallel()

	ents := NewTokenSet("gaza")
	kws := NewTokenSet("ceasefire")
	same := func(id string) Candidate {
		return Candidate{ThreadID: id, Entities: NewTokenSet("gaza"), Keywords: NewTokenSet("ceasefire")}
	}

	d, err := Link(DefaultOptions(), ents, kws, []Candidate{same("first"), same("second"), same("third")})
	if err != nil {
		t.Fatalf("unexpected err %v", err)
	}
	if d.ThreadID != "first" {
		t.Fatalf("tie got=%s want=first", d.ThreadID)
	}
}

func TestLink_PicksStrictlyBest(t *testing.T) {
	t.Parallel()

	ents := NewTokenSet("gaza", "israel")
	kws := NewTokenSet("ceasefire")
	cands := []Candidate{
		{ThreadID: "weak", Entities: NewTokenSet("gaza", "egypt", "qatar"), Keywords: NewTokenSet("aid")},
		{ThreadID: "strong", Entities: NewTokenSet("gaza", "israel"), Keywords: NewTokenSet("ceasefire")},
		{ThreadID: "none", Entities: NewTokenSet("kyiv")},
	}

	d, err := Link(DefaultOptions(), ents, kws, cands)
	if err != nil {
		t.Fatalf("unexpected err %v", err)
	}
	if d.Created || d.ThreadID != "strong" {
		t.Fatalf("got=%+v want strong", d)
	}
}

func TestLink_ThresholdIsInclusive(t *testing.T) {
	t.Parallel()

	o := Options{Threshold: 0.5, WeightEntities: 0.5, WeightKeywords: 0.5}
	ents := NewTokenSet("gaza")
	kws := NewTokenSet("talks")
	// entities match fully and keywords not at all: 0.5*1 + 0.5*0 = 0.5
	cands := []Candidate{{ThreadID: "edge", Entities: NewTokenSet("gaza"), Keywords: NewTokenSet("aid")}}

	d, err := Link(o, ents, kws, cands)
	if err != nil {
		t.Fatalf("unexpected err %v", err)
	}
	if d.Created || d.ThreadID != "edge" {
		t.Fatalf("got=%+v want assignment at threshold", d)
	}
}

func TestLink_EmptyCandidateIDRejected(t *testing.T) {
	t.Parallel()

	cands := []Candidate{{ThreadID: "ok"}, {ThreadID: "  "}}
	_, err := Link(DefaultOptions(), NewTokenSet("gaza"), nil, cands)
	if err == nil {
		t.Fatalf("expected error for blank thread id")
	}
	if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("code got=%v want=%v", perr.CodeOf(err), perr.ErrorCodeInvalidArgument)
	}
}

func TestMintThreadID_OrderIndependent(t *testing.T) {
	t.Parallel()

	a := MintThreadID(NewTokenSet("talks", "ceasefire"), NewTokenSet("israel", "gaza"))
	b := MintThreadID(NewTokenSet("ceasefire", "talks"), NewTokenSet("gaza", "israel"))
	if a != b {
		t.Fatalf("ids differ a=%s b=%s", a, b)
	}
	c := MintThreadID(NewTokenSet("ceasefire"), NewTokenSet("gaza", "israel"))
	if a == c {
		t.Fatalf("different token sets minted the same id %s", a)
	}
	// keywords and entities are not interchangeable
	if MintThreadID(NewTokenSet("x"), nil) == MintThreadID(nil, NewTokenSet("x")) {
		t.Fatalf("keyword and entity sides collided")
	}
}

func TestMintThreadID_EmptySets(t *testing.T) {
	t.Parallel()

	// sha256("|")[:16]
	if got := MintThreadID(nil, nil); got != "cbe5cfdf7c2118a9" {
		t.Fatalf("got=%s want=cbe5cfdf7c2118a9", got)
	}
}

func TestNormalizeWeights(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		ent, kw   float64
		wEnt, wKw float64
	}{
		{"defaults", 0.7, 0.3, 1, 0},
		{"reversed", 0.2, 0.9, 0, 1},
		{"equal", 0.5, 0.5, 0, 0},
		{"zeros", 0, 0, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gotE, gotK := NormalizeWeights(tc.ent, tc.kw)
			if !approx(gotE, tc.wEnt) || !approx(gotK, tc.wKw) {
				t.Fatalf("got=(%v,%v) want=(%v,%v)", gotE, gotK, tc.wEnt, tc.wKw)
			}
		})
	}
}

func TestOptions_Validate(t *testing.T) {
	t.Parallel()

	if err := DefaultOptions().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	bad := []Options{
		{Threshold: -0.1, WeightEntities: 0.7, WeightKeywords: 0.3},
		{Threshold: 0.1, WeightEntities: 1.5, WeightKeywords: 0.3},
		{Threshold: 0.1, WeightEntities: 0.7, WeightKeywords: math.NaN()},
	}
	for i, o := range bad {
		if err := o.Validate(); err == nil {
			t.Fatalf("case %d expected error for %+v", i, o)
		}
	}
}
