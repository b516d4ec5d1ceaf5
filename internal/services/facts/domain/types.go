// Package domain holds the fact store value types and persistence ports
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Query defaults used when a field is left at zero
const (
	DefaultCandidateSinceDays = 14
	DefaultCandidateMax       = 100
	DefaultTriggerMinFacts    = 7
	DefaultTriggerSinceDays   = 3
	DefaultTriggerMaxRows     = 4
	DefaultTriggerMinSources  = 1
	DefaultUnassignedLimit    = 100
)

// Fact is one atomic statement extracted from an article
type Fact struct {
	ID        string
	Statement string
}

// FactBatch is the set of facts harvested from one article plus its centroid tokens
type FactBatch struct {
	ID          uuid.UUID
	SourceURL   string
	Title       string
	PublishedAt *time.Time
	// Entities and Keywords are comma separated token lists
	Entities string
	Keywords string
	Facts    []Fact
}

// BatchTokens is the centroid of one stored batch
type BatchTokens struct {
	BatchID  uuid.UUID
	Entities string
	Keywords string
}

// EventThread groups batches that describe the same evolving story
type EventThread struct {
	ThreadID        string
	Entities        string
	Keywords        string
	FactCount       int
	LastFactAddedAt time.Time
	Closed          bool
	HasArticle      bool
}

// CandidateQuery selects threads a batch may be linked to
type CandidateQuery struct {
	SinceDays     int
	IncludeClosed bool
	Max           int
}

// WithDefaults fills zero fields
func (q CandidateQuery) WithDefaults() CandidateQuery {
	if q.SinceDays <= 0 {
		q.SinceDays = DefaultCandidateSinceDays
	}
	if q.Max <= 0 {
		q.Max = DefaultCandidateMax
	}
	return q
}

// Assignment is a linker decision to persist
type Assignment struct {
	BatchID  uuid.UUID
	ThreadID string
	// Entities and Keywords are the batch tokens merged into the thread centroid
	Entities string
	Keywords string
}

// AssignResult reports what AssignBatch changed
type AssignResult struct {
	// Created is true when the thread row did not exist before
	Created bool
	// Assigned is false when the batch was already linked to a thread
	Assigned bool
}

// TriggerQuery selects threads with enough fresh unused facts to write an article
type TriggerQuery struct {
	MinFacts   int
	SinceDays  int
	MaxRows    int
	MinSources int
}

// WithDefaults fills zero fields
func (q TriggerQuery) WithDefaults() TriggerQuery {
	if q.MinFacts <= 0 {
		q.MinFacts = DefaultTriggerMinFacts
	}
	if q.SinceDays <= 0 {
		q.SinceDays = DefaultTriggerSinceDays
	}
	if q.MaxRows <= 0 {
		q.MaxRows = DefaultTriggerMaxRows
	}
	if q.MinSources <= 0 {
		q.MinSources = DefaultTriggerMinSources
	}
	return q
}

// FactRow is a fact joined with its batch and thread
type FactRow struct {
	FactID    string
	Statement string
	Used      bool
	SourceURL string
	ThreadID  string
	Entities  string
	Keywords  string
	AddedAt   time.Time
}

// Article is a written piece for one thread
type Article struct {
	ID        string
	ThreadID  string
	SourceURL string
	Body      string
	Material  []string
	CreatedAt time.Time
}

// ArticleID derives the stable article id for a thread and source url
func ArticleID(threadID, sourceURL string) string {
	sum := sha256.Sum256([]byte("thread:" + threadID + "|url:" + sourceURL))
	return hex.EncodeToString(sum[:])
}

// URLHash is the dedup key of a url
func URLHash(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// Blank reports whether s has no visible content
func Blank(s string) bool { return strings.TrimSpace(s) == "" }
