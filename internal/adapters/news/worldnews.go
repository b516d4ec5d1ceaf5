package news

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	perr "newslens/internal/platform/errors"
	"newslens/internal/platform/logger"
)

// WorldNewsAPI defaults
const (
	DefaultWorldNewsBaseURL = "https://api.worldnewsapi.com"
	worldNewsTimeLayout     = "2006-01-02 15:04:05"
	worldNewsSource         = "WorldNewsAPI"
	maxTextQueryLen         = 100
)

// WorldNewsOptions configures the search-news provider
type WorldNewsOptions struct {
	Name        string
	BaseURL     string
	APIKey      string
	Categories  []string
	PerRequest  int
	PerCategory int

	Language      string
	SourceCountry string
	Sort          string
	SortDirection string
	Lookback      time.Duration
	NewsSources   []string
	// TextQueries maps a category to a title search text
	TextQueries      map[string]string
	TextMatchIndexes string
}

func (o WorldNewsOptions) withDefaults() WorldNewsOptions {
	if o.Name == "" {
		o.Name = "WorldNewsApiProvider"
	}
	if strings.TrimSpace(o.BaseURL) == "" {
		o.BaseURL = DefaultWorldNewsBaseURL
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.PerRequest <= 0 {
		o.PerRequest = 2
	}
	if o.PerCategory <= 0 {
		o.PerCategory = 2
	}
	if o.Language == "" {
		o.Language = "en"
	}
	if o.SourceCountry == "" {
		o.SourceCountry = "us"
	}
	if o.Sort == "" {
		o.Sort = "publish-time"
	}
	if strings.EqualFold(o.SortDirection, "asc") {
		o.SortDirection = "ASC"
	} else {
		o.SortDirection = "DESC"
	}
	if o.Lookback <= 0 {
		o.Lookback = 8 * time.Hour
	}
	if o.TextMatchIndexes == "" {
		o.TextMatchIndexes = "title"
	}
	return o
}

type worldNewsResponse struct {
	Offset    int                `json:"offset"`
	Number    int                `json:"number"`
	Available int                `json:"available"`
	News      []worldNewsArticle `json:"news"`
}

type worldNewsArticle struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Text        string `json:"text"`
	Summary     string `json:"summary"`
	URL         string `json:"url"`
	PublishDate string `json:"publish_date"`
	Language    string `json:"language"`
	Category    string `json:"category"`
}

// WorldNewsProvider pages the search-news endpoint per category
type WorldNewsProvider struct {
	*Schedule
	opts WorldNewsOptions
	f    *Fetcher
	now  func() time.Time
	log  logger.Logger
}

var _ Provider = (*WorldNewsProvider)(nil)

// NewWorldNewsProvider requires an api key and at least one category
func NewWorldNewsProvider(o WorldNewsOptions, f *Fetcher, sched *Schedule) (*WorldNewsProvider, error) {
	o = o.withDefaults()
	if strings.TrimSpace(o.APIKey) == "" {
		return nil, perr.WithField(perr.InvalidArgf("worldnews provider %s has no api key", o.Name), "api_key")
	}
	if len(o.Categories) == 0 {
		return nil, perr.WithField(perr.InvalidArgf("worldnews provider %s has no categories", o.Name), "categories")
	}
	for cat, q := range o.TextQueries {
		if len(q) > maxTextQueryLen {
			return nil, perr.WithField(perr.InvalidArgf("text query of %s exceeds %d chars", cat, maxTextQueryLen), "text_queries")
		}
	}
	if f == nil || sched == nil {
		return nil, perr.InvalidArgf("worldnews provider %s needs a fetcher and schedule", o.Name)
	}
	return &WorldNewsProvider{
		Schedule: sched,
		opts:     o,
		f:        f,
		now:      time.Now,
		log:      logger.Named("news").With().Str("provider", o.Name).Logger(),
	}, nil
}

// Name returns the provider name
func (p *WorldNewsProvider) Name() string { return p.opts.Name }

// Fetch implements Provider
// failed pages are skipped; the call fails only when no page succeeded
func (p *WorldNewsProvider) Fetch(ctx context.Context, dedup Dedup) ([]NewsItem, error) {
	var out []NewsItem
	pages, failed := 0, 0
	for _, cat := range p.opts.Categories {
		for offset := 0; offset < p.opts.PerCategory; offset += p.opts.PerRequest {
			if err := ctx.Err(); err != nil {
				return out, err
			}
			n := min(p.opts.PerRequest, p.opts.PerCategory-offset)
			pages++
			arts, err := p.page(ctx, cat, n, offset)
			if err != nil {
				failed++
				p.log.Warn().Err(err).Str("category", cat).Int("offset", offset).Msg("worldnews page failed")
				continue
			}
			for _, a := range arts {
				item := p.toItem(a)
				if err := item.Validate(); err != nil {
					p.log.Debug().Err(err).Str("url", a.URL).Msg("invalid article skipped")
					continue
				}
				fresh, err := claim(ctx, dedup, p.opts.Name, item.URL)
				if err != nil {
					p.log.Warn().Err(err).Str("url", item.URL).Msg("dedup check failed skipping")
					continue
				}
				if fresh {
					out = append(out, item)
				}
			}
		}
	}
	if pages > 0 && failed == pages {
		return nil, perr.Newf(perr.ErrorCodeUnavailable, "all %d worldnews requests failed", pages)
	}
	return out, nil
}

// SearchURL builds the search-news request for one page
func (p *WorldNewsProvider) SearchURL(category string, number, offset int) string {
	now := p.now().UTC()
	key := strings.TrimSpace(category)
	q := url.Values{}
	q.Set("language", p.opts.Language)
	q.Set("source-country", p.opts.SourceCountry)
	q.Set("earliest-publish-date", now.Add(-p.opts.Lookback).Format(worldNewsTimeLayout))
	q.Set("latest-publish-date", now.Format(worldNewsTimeLayout))
	q.Set("sort", p.opts.Sort)
	q.Set("sort-direction", p.opts.SortDirection)
	q.Set("categories", strings.ToLower(key))
	q.Set("number", strconv.Itoa(number))
	q.Set("offset", strconv.Itoa(offset))

	var sources []string
	for _, s := range p.opts.NewsSources {
		if s = strings.TrimSpace(s); s != "" {
			sources = append(sources, s)
		}
	}
	if len(sources) > 0 {
		q.Set("news-sources", strings.Join(sources, ","))
	}
	for cat, text := range p.opts.TextQueries {
		if strings.EqualFold(cat, key) && strings.TrimSpace(text) != "" {
			q.Set("text", strings.TrimSpace(text))
			q.Set("text-match-indexes", p.opts.TextMatchIndexes)
			break
		}
	}
	return p.opts.BaseURL + "/search-news?" + q.Encode()
}

func (p *WorldNewsProvider) page(ctx context.Context, category string, number, offset int) ([]worldNewsArticle, error) {
	h := http.Header{}
	h.Set("x-api-key", p.opts.APIKey)
	h.Set("Accept", "application/json")
	raw, err := p.f.Get(ctx, p.SearchURL(category, number, offset), h)
	if err != nil {
		return nil, err
	}
	var env worldNewsResponse
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeJSON, "decode worldnews response")
	}
	if env.Offset < 0 || env.Number < 0 || env.Available < 0 {
		p.log.Warn().Int("offset", env.Offset).Int("number", env.Number).Int("available", env.Available).Msg("worldnews envelope has negative counters")
	}
	return env.News, nil
}

func (p *WorldNewsProvider) toItem(a worldNewsArticle) NewsItem {
	body := a.Text
	if strings.TrimSpace(body) == "" {
		body = a.Summary
	}
	item := NewsItem{Title: a.Title, URL: a.URL, Body: body, Source: worldNewsSource}
	if t, err := time.ParseInLocation(worldNewsTimeLayout, strings.TrimSpace(a.PublishDate), time.UTC); err == nil {
		item.PublishedAt = &t
	}
	return item
}
