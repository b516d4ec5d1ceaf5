// Package linker assigns fact batches to event threads using a weighted Jaccard match
// over entity and keyword token sets
//
// The linker is greedy: each batch goes to its single best candidate when the combined
// score reaches the threshold, otherwise a new thread id is minted from the batch tokens.
// It does no I/O and holds no state; uniqueness of minted ids is the caller's concern.
package linker

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	perr "newslens/internal/platform/errors"
)

// Candidate is an existing thread considered for assignment
type Candidate struct {
	ThreadID string
	Entities TokenSet
	Keywords TokenSet
}

// Decision is the outcome of linking one batch
type Decision struct {
	ThreadID string
	// Created is true when ThreadID was minted rather than matched
	Created bool
	// Score is the best candidate score seen, 0 without candidates
	Score float64
}

// Score combines entity and keyword similarity of a batch against one candidate
func Score(o Options, entities, keywords TokenSet, c Candidate) float64 {
	return o.WeightEntities*Jaccard(entities, c.Entities) + o.WeightKeywords*Jaccard(keywords, c.Keywords)
}

// Link picks the best candidate for the batch tokens or mints a new thread id
// candidates are scanned in input order and only a strictly higher score replaces the
// current best, so ties resolve to the first seen candidate
func Link(o Options, entities, keywords TokenSet, candidates []Candidate) (Decision, error) {
	var (
		best    float64
		bestID  string
		hasBest bool
	)
	for i, c := range candidates {
		if strings.TrimSpace(c.ThreadID) == "" {
			return Decision{}, perr.WithOp(perr.InvalidArgf("candidate %d has an empty thread id", i), "linker.Link")
		}
		s := Score(o, entities, keywords, c)
		if !hasBest || s > best {
			best, bestID, hasBest = s, c.ThreadID, true
		}
	}
	if hasBest && best >= o.Threshold {
		return Decision{ThreadID: bestID, Score: best}, nil
	}
	return Decision{ThreadID: MintThreadID(keywords, entities), Created: true, Score: best}, nil
}

// MintThreadID derives a stable 64 bit thread id from the batch tokens
// the seed is "sorted keywords|sorted entities" so equal sets always mint the same id
func MintThreadID(keywords, entities TokenSet) string {
	seed := keywords.CSV() + "|" + entities.CSV()
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])[:16]
}
