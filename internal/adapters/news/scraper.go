package news

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	perr "newslens/internal/platform/errors"
)

// fallbackRoots are tried after the configured body selectors
var fallbackRoots = []string{"article", "main", "body"}

// Scraper extracts the title and body text of an article page
type Scraper struct {
	f         *Fetcher
	selectors []string
}

// NewScraper builds a scraper; selectors are tried in order before article, main and body
func NewScraper(f *Fetcher, selectors []string) *Scraper {
	if f == nil {
		panic("news.NewScraper requires a non-nil fetcher")
	}
	var sel []string
	for _, s := range selectors {
		if s = strings.TrimSpace(s); s != "" {
			sel = append(sel, s)
		}
	}
	return &Scraper{f: f, selectors: sel}
}

// Scrape downloads url and extracts its article text
func (s *Scraper) Scrape(ctx context.Context, url string) (title, body string, err error) {
	raw, err := s.f.Get(ctx, url, nil)
	if err != nil {
		return "", "", err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return "", "", perr.Wrapf(err, perr.ErrorCodeUnknown, "parse html %s", url)
	}
	title, body = Extract(doc, s.selectors)
	return title, body, nil
}

// Extract pulls title and body text from a parsed page
func Extract(doc *goquery.Document, selectors []string) (title, body string) {
	for _, sel := range []string{"main h1", "h1", "title"} {
		if t := CleanText(doc.Find(sel).First().Text()); t != "" {
			title = t
			break
		}
	}

	var root *goquery.Selection
	for _, sel := range append(append([]string{}, selectors...), fallbackRoots...) {
		if m := doc.Find(sel).First(); m.Length() > 0 {
			root = m
			break
		}
	}
	if root == nil {
		return title, ""
	}

	var blocks []string
	root.Find("p, h2, h3").Each(func(_ int, b *goquery.Selection) {
		if t := CleanText(b.Text()); t != "" {
			blocks = append(blocks, t)
		}
	})
	if len(blocks) == 0 {
		return title, CleanText(root.Text())
	}
	return title, strings.Join(blocks, "\n\n")
}

// CleanText drops soft hyphens and zero width runes and collapses whitespace
func CleanText(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\u00AD', '\u200B', '\u200C', '\u200D', '\uFEFF':
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
