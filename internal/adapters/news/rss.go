package news

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	perr "newslens/internal/platform/errors"
	"newslens/internal/platform/logger"
)

// RSS defaults
const (
	DefaultMaxItemsPerFeed = 30
	DefaultScrapeDelay     = 100 * time.Millisecond
)

// FeedItem is one entry of a parsed feed
type FeedItem struct {
	Title       string
	Link        string
	PublishedAt time.Time
	Summary     string
}

// RSSOptions configures an rss backed provider
type RSSOptions struct {
	Name     string
	Feeds    []string
	MaxItems int
	Delay    time.Duration
}

// RSSProvider reads feeds and scrapes each linked article
type RSSProvider struct {
	*Schedule
	opts    RSSOptions
	f       *Fetcher
	scraper *Scraper
	now     func() time.Time
	log     logger.Logger
}

var _ Provider = (*RSSProvider)(nil)

// NewRSSProvider builds a provider over at least one feed
func NewRSSProvider(o RSSOptions, f *Fetcher, s *Scraper, sched *Schedule) (*RSSProvider, error) {
	if strings.TrimSpace(o.Name) == "" {
		return nil, perr.InvalidArgf("rss provider needs a name")
	}
	var feeds []string
	for _, u := range o.Feeds {
		if u = strings.TrimSpace(u); u != "" {
			feeds = append(feeds, u)
		}
	}
	if len(feeds) == 0 {
		return nil, perr.WithField(perr.InvalidArgf("rss provider %s has no feeds", o.Name), "feeds")
	}
	if f == nil || s == nil || sched == nil {
		return nil, perr.InvalidArgf("rss provider %s needs a fetcher, scraper and schedule", o.Name)
	}
	o.Feeds = feeds
	if o.MaxItems <= 0 {
		o.MaxItems = DefaultMaxItemsPerFeed
	}
	if o.Delay < 0 {
		o.Delay = 0
	}
	return &RSSProvider{
		Schedule: sched,
		opts:     o,
		f:        f,
		scraper:  s,
		now:      time.Now,
		log:      logger.Named("news").With().Str("provider", o.Name).Logger(),
	}, nil
}

// Name returns the provider name
func (p *RSSProvider) Name() string { return p.opts.Name }

// Fetch implements Provider
// a feed that fails is skipped; the call fails only when every feed failed
func (p *RSSProvider) Fetch(ctx context.Context, dedup Dedup) ([]NewsItem, error) {
	items, err := p.Items(ctx)
	if err != nil {
		return nil, err
	}
	p.log.Info().Int("items", len(items)).Msg("feed items fetched")

	var out []NewsItem
	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		fresh, err := claim(ctx, dedup, p.opts.Name, it.Link)
		if err != nil {
			p.log.Warn().Err(err).Str("url", it.Link).Msg("dedup check failed skipping")
			continue
		}
		if !fresh {
			p.log.Debug().Str("url", it.Link).Msg("already processed")
			continue
		}

		title, body, err := p.scraper.Scrape(ctx, it.Link)
		if err != nil {
			p.log.Warn().Err(err).Str("url", it.Link).Msg("scrape failed")
			continue
		}
		if body == "" {
			p.log.Warn().Str("url", it.Link).Msg("empty article skipped")
			continue
		}
		if title == "" {
			title = it.Title
		}
		published := it.PublishedAt
		n := NewsItem{Title: title, URL: it.Link, Body: body, PublishedAt: &published, Source: p.opts.Name}
		if err := n.Validate(); err != nil {
			p.log.Warn().Err(err).Str("url", it.Link).Msg("invalid article skipped")
			continue
		}
		out = append(out, n)

		if err := sleep(ctx, p.opts.Delay); err != nil {
			return out, err
		}
	}
	return out, nil
}

// Items reads every feed and returns unique links newest first
func (p *RSSProvider) Items(ctx context.Context) ([]FeedItem, error) {
	var all []FeedItem
	failed := 0
	for _, feed := range p.opts.Feeds {
		raw, err := p.f.Get(ctx, feed, nil)
		if err == nil {
			var items []FeedItem
			items, err = ParseFeed(raw, p.now())
			all = append(all, newest(items, p.opts.MaxItems)...)
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			failed++
			p.log.Warn().Err(err).Str("feed", feed).Msg("feed failed")
		}
	}
	if failed == len(p.opts.Feeds) {
		return nil, perr.Newf(perr.ErrorCodeUnavailable, "all %d feeds of %s failed", failed, p.opts.Name)
	}
	return UniqueLinks(all), nil
}

// ParseFeed parses rss or atom bytes, tolerating gzip and junk before the first tag
// items without a date get now
func ParseFeed(raw []byte, now time.Time) ([]FeedItem, error) {
	return parseFeed(raw, now, defaultMaxBody)
}

// parseFeed refuses a gzip body that inflates past limit
func parseFeed(raw []byte, now time.Time, limit int64) ([]FeedItem, error) {
	if len(raw) >= 2 && raw[0] == 0x1f && raw[1] == 0x8b {
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "feed gzip")
		}
		raw, err = io.ReadAll(io.LimitReader(zr, limit+1))
		if err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "feed gzip")
		}
		if int64(len(raw)) > limit {
			return nil, perr.Newf(perr.ErrorCodeInvalidArgument, "feed inflates past %d bytes", limit)
		}
	}
	text := string(raw)
	if i := strings.IndexByte(text, '<'); i > 0 {
		text = text[i:]
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	feed, err := gofeed.NewParser().ParseString(text)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "feed parse")
	}
	out := make([]FeedItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		link := strings.TrimSpace(it.Link)
		if link == "" && len(it.Links) > 0 {
			link = strings.TrimSpace(it.Links[0])
		}
		if link == "" {
			link = strings.TrimSpace(it.GUID)
		}
		at := now
		switch {
		case it.PublishedParsed != nil:
			at = *it.PublishedParsed
		case it.UpdatedParsed != nil:
			at = *it.UpdatedParsed
		}
		title := strings.TrimSpace(it.Title)
		if title == "" {
			title = "(no title)"
		}
		out = append(out, FeedItem{Title: title, Link: link, PublishedAt: at.UTC(), Summary: it.Description})
	}
	return out, nil
}

// newest sorts by date descending and keeps the first max
func newest(items []FeedItem, max int) []FeedItem {
	sort.SliceStable(items, func(i, j int) bool { return items[i].PublishedAt.After(items[j].PublishedAt) })
	if max > 0 && len(items) > max {
		items = items[:max]
	}
	return items
}

// UniqueLinks drops blank links and keeps the newest entry per case insensitive link
func UniqueLinks(items []FeedItem) []FeedItem {
	best := make(map[string]FeedItem, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.Link) == "" {
			continue
		}
		k := strings.ToLower(it.Link)
		if cur, ok := best[k]; !ok || it.PublishedAt.After(cur.PublishedAt) {
			best[k] = it
		}
	}
	out := make([]FeedItem, 0, len(best))
	for _, it := range best {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PublishedAt.Equal(out[j].PublishedAt) {
			return out[i].PublishedAt.After(out[j].PublishedAt)
		}
		return out[i].Link < out[j].Link
	})
	return out
}
