package llm

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"newslens/internal/services/facts/domain"
)

// randSalt is swapped in tests
var randSalt = func() int { return rand.IntN(1_000_000) }

// MapToBatch converts a validated harvest into a fact batch with a fresh id
// source is used as the batch url when the harvest carries none
func MapToBatch(hr HarvestResult, source string) domain.FactBatch {
	b := domain.FactBatch{
		ID:        uuid.New(),
		SourceURL: strings.TrimSpace(hr.Article.URL),
		Title:     strings.TrimSpace(hr.Article.Title),
		Entities:  strings.Join(hr.Categories.Entities, ","),
		Keywords:  strings.Join(hr.Categories.Keywords, ","),
		Facts:     make([]domain.Fact, 0, len(hr.Facts)),
	}
	if b.SourceURL == "" {
		b.SourceURL = strings.TrimSpace(source)
	}
	if t, ok := parsePublished(hr.Article.Published); ok {
		b.PublishedAt = &t
	}
	for _, f := range hr.Facts {
		b.Facts = append(b.Facts, domain.Fact{ID: FactID(f, randSalt()), Statement: strings.TrimSpace(f.Statement)})
	}
	return b
}

// FactID is the uppercase hex of the first 16 bytes of sha256("fact|id|salt|statement")
func FactID(f FactItem, salt int) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "fact|%s|%d|%s", f.ID, salt, strings.TrimSpace(f.Statement)))
	return strings.ToUpper(hex.EncodeToString(sum[:16]))
}

func parsePublished(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
