// Package news fetches articles from rss feeds and news apis for fact harvesting
package news

import (
	"context"
	"strings"
	"time"

	perr "newslens/internal/platform/errors"
	"newslens/internal/platform/net/http/bind"
)

// NewsItem is one scraped or fetched article
type NewsItem struct {
	Title       string     `json:"title" validate:"required"`
	URL         string     `json:"url" validate:"required,http_url"`
	Body        string     `json:"body" validate:"required"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Source      string     `json:"source" validate:"required"`
}

// Validate trims the text fields and checks the item
func (n *NewsItem) Validate() error {
	n.Title = strings.TrimSpace(n.Title)
	n.URL = strings.TrimSpace(n.URL)
	n.Body = strings.TrimSpace(n.Body)
	n.Source = strings.TrimSpace(n.Source)
	if err := bind.Get().Validator.Struct(n); err != nil {
		field, msg := bind.ValidationFieldAndMessage(err)
		return perr.WithField(perr.Newf(perr.ErrorCodeValidation, "news item: %s", msg), field)
	}
	return nil
}

// Dedup claims a url for processing; false means another run already took it
type Dedup interface {
	TryMarkProcessed(ctx context.Context, provider, url string) (bool, error)
}

// Provider is a scheduled source of news items
type Provider interface {
	Name() string
	IsDue(now time.Time) bool
	NextRun() time.Time
	// Fetch returns new items, consulting dedup before doing per item work
	// a nil dedup treats every url as new
	Fetch(ctx context.Context, dedup Dedup) ([]NewsItem, error)
	// MarkRun moves the schedule forward from a finished run
	MarkRun(at time.Time)
}

// claim asks dedup about a url; dedup failures skip the item
func claim(ctx context.Context, d Dedup, provider, url string) (bool, error) {
	if d == nil {
		return true, nil
	}
	return d.TryMarkProcessed(ctx, provider, url)
}
