package news

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"newslens/internal/platform/config"
	perr "newslens/internal/platform/errors"
)

func fastFetcher() *Fetcher {
	return NewFetcher(FetchOptions{MaxRetries: 1, RetryBase: time.Millisecond, Timeout: 5 * time.Second})
}

func feedServer(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/feed.xml", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<rss version="2.0"><channel><title>f</title>
<item><title>Feed A</title><link>%[1]s/a</link><pubDate>Thu, 02 Oct 2025 10:00:00 GMT</pubDate></item>
<item><title>Feed B</title><link>%[1]s/b</link><pubDate>Wed, 01 Oct 2025 10:00:00 GMT</pubDate></item>
<item><title>Feed Empty</title><link>%[1]s/empty</link><pubDate>Tue, 30 Sep 2025 10:00:00 GMT</pubDate></item>
<item><title>Feed Gone</title><link>%[1]s/gone</link><pubDate>Mon, 29 Sep 2025 10:00:00 GMT</pubDate></item>
</channel></rss>`, srv.URL)
	})
	mux.HandleFunc("/a", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><main><h1>Scraped A</h1><article><p>Body of A.</p></article></main></body></html>`))
	})
	mux.HandleFunc("/b", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><article><p>Body of B.</p></article></body></html>`))
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body></body></html>`))
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRSSProviderFetch(t *testing.T) {
	t.Parallel()
	srv := feedServer(t)
	f := fastFetcher()
	p, err := NewRSSProvider(RSSOptions{Name: "un", Feeds: []string{srv.URL + "/feed.xml", srv.URL + "/missing.xml"}},
		f, NewScraper(f, nil), NewIntervalSchedule(time.Hour, time.Now()))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	d := &memDedup{seen: map[string]bool{srv.URL + "/b": true}}

	items, err := p.Fetch(context.Background(), d)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items got=%+v", items)
	}
	a := items[0]
	if a.Title != "Scraped A" || a.Body != "Body of A." || a.Source != "un" || a.URL != srv.URL+"/a" {
		t.Fatalf("item got=%+v", a)
	}
	if a.PublishedAt == nil || a.PublishedAt.Day() != 2 {
		t.Fatalf("published got=%v", a.PublishedAt)
	}
	// every listed link was claimed even when scraping then failed
	for _, u := range []string{"/a", "/empty", "/gone"} {
		if !d.seen[srv.URL+u] {
			t.Fatalf("%s not claimed", u)
		}
	}

	again, err := p.Fetch(context.Background(), d)
	if err != nil || len(again) != 0 {
		t.Fatalf("second fetch got=%v err=%v", again, err)
	}
}

func TestRSSProviderUsesFeedTitleAndNilDedup(t *testing.T) {
	t.Parallel()
	srv := feedServer(t)
	f := fastFetcher()
	p, _ := NewRSSProvider(RSSOptions{Name: "un", Feeds: []string{srv.URL + "/feed.xml"}, MaxItems: 2},
		f, NewScraper(f, nil), NewIntervalSchedule(time.Hour, time.Now()))

	items, err := p.Fetch(context.Background(), nil)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(items) != 2 || items[1].Title != "Feed B" {
		t.Fatalf("items got=%+v", items)
	}
}

func TestRSSProviderAllFeedsFail(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	f := fastFetcher()
	p, _ := NewRSSProvider(RSSOptions{Name: "x", Feeds: []string{srv.URL + "/1", srv.URL + "/2"}},
		f, NewScraper(f, nil), NewIntervalSchedule(time.Hour, time.Now()))
	if _, err := p.Fetch(context.Background(), nil); !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("code got=%v", perr.CodeOf(err))
	}
}

func TestFetcherRetries(t *testing.T) {
	t.Parallel()
	var n atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != DefaultUserAgent || r.Header.Get("X-Test") != "1" {
			t.Errorf("headers got=%v", r.Header)
		}
		if n.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	t.Cleanup(srv.Close)

	body, err := fastFetcher().Get(context.Background(), srv.URL, http.Header{"X-Test": []string{"1"}})
	if err != nil || string(body) != "ok" || n.Load() != 2 {
		t.Fatalf("body=%q err=%v calls=%d", body, err, n.Load())
	}

	nf := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(nf.Close)
	if _, err := fastFetcher().Get(context.Background(), nf.URL, nil); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("404 code got=%v", perr.CodeOf(err))
	}
}

func TestWorldNewsProvider(t *testing.T) {
	t.Parallel()
	var queries []url.Values
	var srvURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search-news" || r.Header.Get("x-api-key") != "k" {
			t.Errorf("request got=%s key=%s", r.URL.Path, r.Header.Get("x-api-key"))
		}
		q := r.URL.Query()
		queries = append(queries, q)
		if q.Get("categories") == "sports" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		off := q.Get("offset")
		fmt.Fprintf(w, `{"offset":%s,"number":2,"available":9,"news":[
			{"id":1,"title":"T%[1]s","text":"Full text","url":"%[2]s/n%[1]s","publish_date":"2025-10-02 09:15:00"},
			{"id":2,"title":"S%[1]s","text":"","summary":"Only summary","url":"%[2]s/s%[1]s","publish_date":"bad"},
			{"id":3,"title":"","text":"x","url":"%[2]s/untitled"}
		]}`, off, srvURL)
	}))
	srvURL = srv.URL
	t.Cleanup(srv.Close)

	p, err := NewWorldNewsProvider(WorldNewsOptions{
		BaseURL: srv.URL + "/", APIKey: "k", Categories: []string{"Politics", "sports"},
		PerRequest: 2, PerCategory: 3, NewsSources: []string{" a.com ", ""},
		TextQueries: map[string]string{"politics": "election"},
	}, fastFetcher(), NewIntervalSchedule(time.Hour, time.Now()))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	p.now = func() time.Time { return time.Date(2025, 10, 2, 12, 0, 0, 0, time.UTC) }
	d := &memDedup{seen: map[string]bool{srv.URL + "/n0": true}}

	items, err := p.Fetch(context.Background(), d)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	// politics pages at offset 0 (number 2) and 2 (number 1); both sports pages fail
	if len(queries) != 4 || queries[0].Get("number") != "2" || queries[1].Get("offset") != "2" || queries[1].Get("number") != "1" {
		t.Fatalf("queries got=%v", queries)
	}
	q := queries[0]
	if q.Get("categories") != "politics" || q.Get("text") != "election" || q.Get("text-match-indexes") != "title" ||
		q.Get("news-sources") != "a.com" || q.Get("sort-direction") != "DESC" ||
		q.Get("earliest-publish-date") != "2025-10-02 04:00:00" || q.Get("latest-publish-date") != "2025-10-02 12:00:00" {
		t.Fatalf("query got=%v", q)
	}

	var got []string
	for _, it := range items {
		got = append(got, it.Title+"|"+it.Body)
	}
	if strings.Join(got, ",") != "S0|Only summary,T2|Full text,S2|Only summary" {
		t.Fatalf("items got=%v", got)
	}
	if items[1].PublishedAt == nil || items[1].PublishedAt.Hour() != 9 || items[0].PublishedAt != nil || items[0].Source != worldNewsSource {
		t.Fatalf("item meta got=%+v", items[:2])
	}
}

func TestWorldNewsProviderRejects(t *testing.T) {
	t.Parallel()
	f, s := fastFetcher(), NewIntervalSchedule(time.Hour, time.Now())
	if _, err := NewWorldNewsProvider(WorldNewsOptions{APIKey: "k"}, f, s); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("no categories code got=%v", perr.CodeOf(err))
	}
	long := strings.Repeat("x", maxTextQueryLen+1)
	if _, err := NewWorldNewsProvider(WorldNewsOptions{APIKey: "k", Categories: []string{"a"}, TextQueries: map[string]string{"a": long}}, f, s); err == nil {
		t.Fatalf("long text query accepted")
	}
}

func TestFromConfig(t *testing.T) {
	t.Setenv("NEWS_PROVIDERS", "un-news, wn")
	t.Setenv("NEWS_SCRAPE_DELAY", "0s")
	t.Setenv("NEWS_UN_NEWS_FEEDS", "https://a/rss, https://b/rss")
	t.Setenv("NEWS_UN_NEWS_SELECTORS", "div.story")
	t.Setenv("NEWS_UN_NEWS_INTERVAL", "2h")
	t.Setenv("NEWS_WN_KIND", "WorldNewsAPI")
	t.Setenv("NEWS_WN_CRON", "0 */6 * * *")
	t.Setenv("NEWS_WN_API_KEY", "k")
	t.Setenv("NEWS_WN_CATEGORIES", "politics,business")
	t.Setenv("NEWS_WN_TEXT_QUERIES", "politics=election, junk, business=")

	o := FromConfig(config.New())
	if len(o.Providers) != 2 || o.ScrapeDelay != 0 || o.Fetch.MaxRetries != 2 {
		t.Fatalf("options got=%+v", o)
	}
	un, wn := o.Providers[0], o.Providers[1]
	if un.Kind != KindRSS || un.Interval != 2*time.Hour || len(un.Feeds) != 2 || un.Selectors[0] != "div.story" || un.MaxItems != DefaultMaxItemsPerFeed {
		t.Fatalf("rss options got=%+v", un)
	}
	if wn.Kind != KindWorldNews || wn.Cron != "0 */6 * * *" || wn.WorldNews.APIKey != "k" || len(wn.WorldNews.Categories) != 2 {
		t.Fatalf("worldnews options got=%+v", wn)
	}
	if len(wn.WorldNews.TextQueries) != 1 || wn.WorldNews.TextQueries["politics"] != "election" {
		t.Fatalf("text queries got=%v", wn.WorldNews.TextQueries)
	}

	ps, err := Build(o, time.Now())
	if err != nil || len(ps) != 2 {
		t.Fatalf("build got=%v err=%v", ps, err)
	}
}
