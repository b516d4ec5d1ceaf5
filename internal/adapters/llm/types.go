// Package llm talks to a chat completion backend to harvest facts from news
// articles and to write articles from harvested facts
package llm

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// HarvestResult is the running document the harvest steps build up
type HarvestResult struct {
	Article    ArticleMeta `json:"article"`
	Categories Categories  `json:"categories"`
	Facts      []FactItem  `json:"facts"`
	Unknowns   []string    `json:"unknowns"`
}

// ArticleMeta identifies the harvested article
type ArticleMeta struct {
	Alias     string `json:"alias"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Published string `json:"published"`
}

// Categories holds the linking tokens of an article
type Categories struct {
	Entities []string `json:"entities"`
	Keywords []string `json:"keywords"`
}

// FactItem is one statement with the paragraphs backing it
type FactItem struct {
	ID        string      `json:"id"`
	Statement string      `json:"statement"`
	Sources   []SourceRef `json:"sources"`
}

// SourceRef points at paragraphs of an aliased article
type SourceRef struct {
	Alias      string `json:"alias"`
	Paragraphs []int  `json:"paragraphs"`
}

// Input is the article a harvest runs over
type Input struct {
	Title     string
	URL       string
	Body      string
	Published *time.Time
}

// String renders the input as the user message of article steps
func (in Input) String() string {
	var b strings.Builder
	b.WriteString("Title: ")
	b.WriteString(in.Title)
	b.WriteString("\nURL: ")
	b.WriteString(in.URL)
	b.WriteString("\nPublished: ")
	if in.Published != nil {
		b.WriteString(in.Published.UTC().Format(time.RFC3339))
	}
	b.WriteString("\nBody:\n")
	b.WriteString(in.Body)
	return b.String()
}

// Meta builds the article meta backfilled into every harvest
func (in Input) Meta() ArticleMeta {
	m := ArticleMeta{Title: strings.TrimSpace(in.Title), URL: strings.TrimSpace(in.URL)}
	if m.URL != "" {
		m.Alias = Alias(m.URL)
	}
	if in.Published != nil {
		m.Published = in.Published.UTC().Format(time.RFC3339)
	}
	return m
}

// Alias is the first 16 lowercase hex chars of sha256(url)
func Alias(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])[:16]
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
