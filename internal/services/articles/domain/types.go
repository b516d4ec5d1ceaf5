// Package domain defines article drafts and the ports the article workflow needs
package domain

import (
	"context"
	"strings"

	factsdom "newslens/internal/services/facts/domain"
)

// ArticleStore is the slice of the fact repository used to write articles
type ArticleStore interface {
	TriggeredThreadIDs(ctx context.Context, q factsdom.TriggerQuery) ([]string, error)
	FactsInThread(ctx context.Context, threadID string) ([]factsdom.FactRow, error)
	InsertArticle(ctx context.Context, a factsdom.Article) (bool, error)
	MarkFactsUsed(ctx context.Context, factIDs []string) (int64, error)
}

// Writer turns fact material into article text
type Writer interface {
	Write(ctx context.Context, material string) (string, error)
}

// Draft is the material gathered for one thread before it is written
type Draft struct {
	ThreadID  string
	SourceURL string
	// Statements are the trimmed non blank fact statements in thread order
	Statements []string
	FactIDs    []string
}

// NewDraft builds a draft from thread rows; thread id and source url come from the first row
// ok is false when there are no rows
func NewDraft(rows []factsdom.FactRow) (Draft, bool) {
	if len(rows) == 0 {
		return Draft{}, false
	}
	d := Draft{ThreadID: rows[0].ThreadID, SourceURL: rows[0].SourceURL}
	for _, r := range rows {
		d.FactIDs = append(d.FactIDs, r.FactID)
		if s := strings.TrimSpace(r.Statement); s != "" {
			d.Statements = append(d.Statements, s)
		}
	}
	return d, true
}

// Material renders the writer input, one "- statement" line per fact
func (d Draft) Material() string {
	var b strings.Builder
	b.WriteString("Fact Statements:\n")
	for _, s := range d.Statements {
		b.WriteString("- ")
		b.WriteString(s)
		b.WriteByte('\n')
	}
	return b.String()
}

// Article turns the draft and a written body into a storable article
func (d Draft) Article(body string) factsdom.Article {
	return factsdom.Article{
		ID:        factsdom.ArticleID(d.ThreadID, d.SourceURL),
		ThreadID:  d.ThreadID,
		SourceURL: d.SourceURL,
		Body:      strings.TrimSpace(body),
		Material:  append([]string(nil), d.Statements...),
	}
}
