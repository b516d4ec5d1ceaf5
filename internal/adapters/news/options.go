package news

import (
	"strings"
	"time"

	"newslens/internal/platform/config"
	perr "newslens/internal/platform/errors"
)

// Provider kinds
const (
	KindRSS       = "rss"
	KindWorldNews = "worldnewsapi"
)

// ProviderOptions describes one configured provider
type ProviderOptions struct {
	Name     string
	Kind     string
	Interval time.Duration
	// Cron wins over Interval when set
	Cron string

	Feeds     []string
	Selectors []string
	MaxItems  int

	WorldNews WorldNewsOptions
}

// Options is the NEWS_ configuration
type Options struct {
	Fetch       FetchOptions
	ScrapeDelay time.Duration
	Providers   []ProviderOptions
}

// EnvKey turns a provider name into its env segment, e.g. "un-news" -> "UN_NEWS"
func EnvKey(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		}
		return '_'
	}, strings.TrimSpace(name))
}

// FromConfig reads NEWS_PROVIDERS and the NEWS_<NAME>_* settings of each listed provider
func FromConfig(cfg config.Conf) Options {
	nc := cfg.Prefix("NEWS_")
	o := Options{
		Fetch: FetchOptions{
			UserAgent:  nc.MayString("USER_AGENT", DefaultUserAgent),
			Timeout:    nc.MayDuration("TIMEOUT", DefaultTimeout),
			MaxRetries: nc.MayInt("MAX_RETRIES", 2),
			RetryBase:  nc.MayDuration("RETRY_BASE", 250*time.Millisecond),
			RatePerSec: nc.MayFloat64("RATE_PER_SEC", 0),
		},
		ScrapeDelay: nc.MayDuration("SCRAPE_DELAY", DefaultScrapeDelay),
	}
	for _, name := range nc.MayCSV("PROVIDERS", nil) {
		pc := nc.Prefix(EnvKey(name) + "_")
		po := ProviderOptions{
			Name:      name,
			Kind:      strings.ToLower(pc.MayEnum("KIND", KindRSS, KindRSS, KindWorldNews)),
			Interval:  pc.MayDuration("INTERVAL", DefaultInterval),
			Cron:      pc.MayString("CRON", ""),
			Feeds:     pc.MayCSV("FEEDS", nil),
			Selectors: pc.MayCSV("SELECTORS", nil),
			MaxItems:  pc.MayInt("MAX_ITEMS", DefaultMaxItemsPerFeed),
		}
		if po.Kind == KindWorldNews {
			po.WorldNews = WorldNewsOptions{
				Name:             name,
				BaseURL:          pc.MayString("BASE_URL", DefaultWorldNewsBaseURL),
				APIKey:           pc.MayString("API_KEY", ""),
				Categories:       pc.MayCSV("CATEGORIES", nil),
				PerRequest:       pc.MayInt("PER_REQUEST", 2),
				PerCategory:      pc.MayInt("PER_CATEGORY", 2),
				Language:         pc.MayString("LANGUAGE", "en"),
				SourceCountry:    pc.MayString("SOURCE_COUNTRY", "us"),
				Sort:             pc.MayString("SORT", "publish-time"),
				SortDirection:    pc.MayString("SORT_DIRECTION", "desc"),
				Lookback:         pc.MayDuration("LOOKBACK", 8*time.Hour),
				NewsSources:      pc.MayCSV("SOURCES", nil),
				TextQueries:      pairs(pc.MayCSV("TEXT_QUERIES", nil)),
				TextMatchIndexes: pc.MayString("TEXT_MATCH_INDEXES", "title"),
			}
		}
		o.Providers = append(o.Providers, po)
	}
	return o
}

// pairs parses key=value entries, ignoring malformed ones
func pairs(entries []string) map[string]string {
	out := map[string]string{}
	for _, e := range entries {
		k, v, ok := strings.Cut(e, "=")
		if k, v = strings.TrimSpace(k), strings.TrimSpace(v); ok && k != "" && v != "" {
			out[k] = v
		}
	}
	return out
}

// Build constructs every configured provider sharing one fetcher
func Build(o Options, now time.Time) ([]Provider, error) {
	f := NewFetcher(o.Fetch)
	out := make([]Provider, 0, len(o.Providers))
	seen := map[string]struct{}{}
	for _, po := range o.Providers {
		key := strings.ToLower(po.Name)
		if _, dup := seen[key]; dup {
			return nil, perr.WithField(perr.InvalidArgf("provider %s listed twice", po.Name), "NEWS_PROVIDERS")
		}
		seen[key] = struct{}{}

		sched := NewIntervalSchedule(po.Interval, now)
		if strings.TrimSpace(po.Cron) != "" {
			cs, err := NewCronSchedule(po.Cron, now)
			if err != nil {
				return nil, perr.WithField(err, "NEWS_"+EnvKey(po.Name)+"_CRON")
			}
			sched = cs
		}

		var (
			p   Provider
			err error
		)
		switch po.Kind {
		case KindWorldNews:
			wo := po.WorldNews
			if wo.Name == "" {
				wo.Name = po.Name
			}
			p, err = NewWorldNewsProvider(wo, f, sched)
		case KindRSS, "":
			p, err = NewRSSProvider(RSSOptions{Name: po.Name, Feeds: po.Feeds, MaxItems: po.MaxItems, Delay: o.ScrapeDelay}, f, NewScraper(f, po.Selectors), sched)
		default:
			err = perr.WithField(perr.InvalidArgf("unknown provider kind %q", po.Kind), "NEWS_"+EnvKey(po.Name)+"_KIND")
		}
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
