package domain

import (
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"

	perr "newslens/internal/platform/errors"
)

// MergeCSV unions two comma separated token lists
// tokens are trimmed and lowercased, blanks dropped, output sorted
func MergeCSV(a, b string) string {
	seen := map[string]struct{}{}
	for _, part := range strings.Split(a+","+b, ",") {
		t := strings.ToLower(strings.TrimSpace(part))
		if t != "" {
			seen[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return strings.Join(out, ",")
}

// ValidateBatch checks a batch before it is stored
func ValidateBatch(b FactBatch) error {
	var errs []error
	if b.ID == uuid.Nil {
		errs = append(errs, perr.WithField(perr.InvalidArgf("batch id is required"), "id"))
	}
	if Blank(b.SourceURL) {
		errs = append(errs, perr.WithField(perr.InvalidArgf("batch source url is required"), "source_url"))
	}
	if len(b.Facts) == 0 {
		errs = append(errs, perr.WithField(perr.InvalidArgf("batch has no facts"), "facts"))
	}
	seen := make(map[string]struct{}, len(b.Facts))
	for i, f := range b.Facts {
		if Blank(f.ID) {
			errs = append(errs, perr.WithField(perr.InvalidArgf("fact %d has no id", i), "facts"))
			continue
		}
		if _, dup := seen[f.ID]; dup {
			errs = append(errs, perr.WithField(perr.InvalidArgf("fact id %s repeated", f.ID), "facts"))
		}
		seen[f.ID] = struct{}{}
		if Blank(f.Statement) {
			errs = append(errs, perr.WithField(perr.InvalidArgf("fact %s has no statement", f.ID), "facts"))
		}
	}
	return joinInvalid("fact batch", errs)
}

// ValidateAssignment checks a linker decision before it is persisted
func ValidateAssignment(a Assignment) error {
	if a.BatchID == uuid.Nil {
		return perr.WithField(perr.InvalidArgf("batch id is required"), "batch_id")
	}
	if Blank(a.ThreadID) {
		return perr.WithField(perr.InvalidArgf("thread id is required"), "thread_id")
	}
	return nil
}

// ValidateArticle checks an article before it is stored
func ValidateArticle(a Article) error {
	var errs []error
	if Blank(a.ThreadID) {
		errs = append(errs, perr.WithField(perr.InvalidArgf("article thread id is required"), "thread_id"))
	}
	if Blank(a.SourceURL) {
		errs = append(errs, perr.WithField(perr.InvalidArgf("article source url is required"), "source_url"))
	}
	if Blank(a.Body) {
		errs = append(errs, perr.WithField(perr.InvalidArgf("article body is empty"), "body"))
	}
	return joinInvalid("article", errs)
}

func joinInvalid(what string, errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return perr.Wrapf(errors.Join(errs...), perr.ErrorCodeInvalidArgument, "invalid %s", what)
}
