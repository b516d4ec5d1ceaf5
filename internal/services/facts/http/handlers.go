// Package http exposes a read only view of event threads
package http

import (
	stdhttp "net/http"
	"strconv"
	"strings"
	"time"

	"newslens/internal/modkit/httpkit"
	perr "newslens/internal/platform/errors"
	"newslens/internal/services/facts/domain"
)

// Register mounts the thread routes on the given router
func Register(r httpkit.Router, repo domain.Repository) {
	h := &handlers{repo: repo}
	httpkit.Get(r, "/", h.list)
	httpkit.Get(r, "/{id}/facts", h.facts)
}

type handlers struct {
	repo domain.Repository
}

// ThreadDTO is the wire form of an event thread
type ThreadDTO struct {
	ThreadID        string    `json:"thread_id"`
	Entities        []string  `json:"entities"`
	Keywords        []string  `json:"keywords"`
	FactCount       int       `json:"fact_count"`
	LastFactAddedAt time.Time `json:"last_fact_added_at"`
	Closed          bool      `json:"closed"`
	HasArticle      bool      `json:"has_article"`
}

// FactDTO is the wire form of an unused fact
type FactDTO struct {
	FactID    string    `json:"fact_id"`
	Statement string    `json:"statement"`
	SourceURL string    `json:"source_url"`
	AddedAt   time.Time `json:"added_at"`
}

func splitCSV(csv string) []string {
	out := []string{}
	for _, t := range strings.Split(csv, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func queryInt(r *stdhttp.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, perr.WithField(perr.InvalidArgf("%s must be a non negative integer", key), key)
	}
	return n, nil
}

// swagger:route GET /threads Threads threadsList
// @Summary Recently active event threads, newest first
// @Tags Threads
// @Produce json
// @Param since_days query int false "Activity window in days (default 14)"
// @Param include_closed query bool false "Include closed threads"
// @Param max query int false "Max rows (default 100)"
// @Success 200 {array} ThreadDTO "ok"
// @Router /threads [get]
func (h *handlers) list(r *stdhttp.Request) (any, error) {
	since, err := queryInt(r, "since_days")
	if err != nil {
		return nil, err
	}
	limit, err := queryInt(r, "max")
	if err != nil {
		return nil, err
	}
	includeClosed := false
	if raw := r.URL.Query().Get("include_closed"); raw != "" {
		if includeClosed, err = strconv.ParseBool(raw); err != nil {
			return nil, perr.WithField(perr.InvalidArgf("include_closed must be a boolean"), "include_closed")
		}
	}

	threads, err := h.repo.CandidateThreads(r.Context(), domain.CandidateQuery{
		SinceDays: since, IncludeClosed: includeClosed, Max: limit,
	})
	if err != nil {
		return nil, err
	}
	out := make([]ThreadDTO, 0, len(threads))
	for _, t := range threads {
		out = append(out, ThreadDTO{
			ThreadID:        t.ThreadID,
			Entities:        splitCSV(t.Entities),
			Keywords:        splitCSV(t.Keywords),
			FactCount:       t.FactCount,
			LastFactAddedAt: t.LastFactAddedAt,
			Closed:          t.Closed,
			HasArticle:      t.HasArticle,
		})
	}
	return out, nil
}

// swagger:route GET /threads/{id}/facts Threads threadsFacts
// @Summary Unused facts of a thread in harvest order
// @Tags Threads
// @Produce json
// @Param id path string true "Thread id"
// @Success 200 {array} FactDTO "ok"
// @Router /threads/{id}/facts [get]
func (h *handlers) facts(r *stdhttp.Request) (any, error) {
	rows, err := h.repo.FactsInThread(r.Context(), strings.TrimSpace(httpkit.Param(r, "id")))
	if err != nil {
		return nil, err
	}
	out := make([]FactDTO, 0, len(rows))
	for _, f := range rows {
		out = append(out, FactDTO{FactID: f.FactID, Statement: f.Statement, SourceURL: f.SourceURL, AddedAt: f.AddedAt})
	}
	return out, nil
}
