// Package domain defines the fact harvest ports and run tallies
package domain

import (
	"context"
	"fmt"
	"strings"

	"newslens/internal/adapters/llm"
	factsdom "newslens/internal/services/facts/domain"
	orchdom "newslens/internal/services/orchestrator/domain"
)

// Extractor turns one article into a harvest result
type Extractor interface {
	Harvest(ctx context.Context, in llm.Input) (llm.HarvestResult, error)
}

// BatchStore persists harvested fact batches
type BatchStore interface {
	InsertFactBatch(ctx context.Context, b factsdom.FactBatch) error
}

// Tally counts what one harvest run did
type Tally struct {
	Providers       int
	ProvidersFailed int
	Items           int
	Stored          int
	Skipped         int
	StoreFailed     int
	// LastStoreErr is the message of the most recent repository failure
	LastStoreErr string
}

// Add folds another tally into t
func (t *Tally) Add(o Tally) {
	t.Providers += o.Providers
	t.ProvidersFailed += o.ProvidersFailed
	t.Items += o.Items
	t.Stored += o.Stored
	t.Skipped += o.Skipped
	t.StoreFailed += o.StoreFailed
	if o.LastStoreErr != "" {
		t.LastStoreErr = o.LastStoreErr
	}
}

// Result maps the tally onto a run result
// a run fails when every due provider failed or the store rejected an item
func (t Tally) Result() orchdom.RunResult {
	var msgs []string
	if t.Providers > 0 && t.ProvidersFailed == t.Providers {
		msgs = append(msgs, fmt.Sprintf("all %d due providers failed", t.Providers))
	}
	if t.StoreFailed > 0 {
		msgs = append(msgs, fmt.Sprintf("storing %d items failed: %s", t.StoreFailed, t.LastStoreErr))
	}
	if len(msgs) > 0 {
		return orchdom.Failed(t.Stored, strings.Join(msgs, "; "))
	}
	return orchdom.Succeeded(t.Stored)
}
