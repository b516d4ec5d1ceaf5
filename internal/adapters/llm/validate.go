package llm

import (
	"errors"
	"net/url"
	"strings"

	perr "newslens/internal/platform/errors"
)

// MinStatementLen is the shortest trimmed statement accepted as a fact
const MinStatementLen = 10

// ValidateHarvest checks a finished harvest before it is mapped to a batch
// every violation is reported in one InvalidArgument error
func ValidateHarvest(hr HarvestResult) error {
	var errs []error
	bad := func(field, format string, a ...any) {
		errs = append(errs, perr.WithField(perr.InvalidArgf(format, a...), field))
	}

	if blank(hr.Article.Title) {
		bad("article.title", "article title is empty")
	}
	if blank(hr.Article.URL) {
		bad("article.url", "article url is empty")
	} else if u, err := url.Parse(strings.TrimSpace(hr.Article.URL)); err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		bad("article.url", "article url %q is not an http(s) url", hr.Article.URL)
	}
	if blank(hr.Article.Published) {
		bad("article.published", "article published is empty")
	}

	if len(hr.Categories.Entities) == 0 && len(hr.Categories.Keywords) == 0 {
		bad("categories", "entities and keywords are both empty")
	}
	tokens(&errs, "categories.entities", hr.Categories.Entities)
	tokens(&errs, "categories.keywords", hr.Categories.Keywords)

	if len(hr.Facts) == 0 {
		bad("facts", "no facts")
	}
	for i, f := range hr.Facts {
		if blank(f.ID) {
			bad("facts", "fact %d has no id", i)
		}
		if n := len([]rune(strings.TrimSpace(f.Statement))); n < MinStatementLen {
			bad("facts", "fact %q statement too short (%d chars)", f.ID, n)
		}
	}

	tokens(&errs, "unknowns", hr.Unknowns)

	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return perr.Wrap(errors.Join(errs...), perr.ErrorCodeInvalidArgument, "invalid harvest")
	}
}

// tokens rejects blank entries and case insensitive repeats
func tokens(errs *[]error, field string, list []string) {
	seen := make(map[string]struct{}, len(list))
	for i, s := range list {
		t := strings.ToLower(strings.TrimSpace(s))
		if t == "" {
			*errs = append(*errs, perr.WithField(perr.InvalidArgf("%s[%d] is blank", field, i), field))
			continue
		}
		if _, dup := seen[t]; dup {
			*errs = append(*errs, perr.WithField(perr.InvalidArgf("%s repeats %q", field, t), field))
		}
		seen[t] = struct{}{}
	}
}
