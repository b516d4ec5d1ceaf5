package module

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"newslens/internal/core/linker"
	"newslens/internal/modkit"
	"newslens/internal/modkit/module"
	perr "newslens/internal/platform/errors"
	phttp "newslens/internal/platform/net/http"
	"newslens/internal/platform/testkit"
	"newslens/internal/services/facts/repo"
)

func TestModuleMountsPreview(t *testing.T) {
	t.Parallel()
	m, err := New(modkit.Deps{Log: zerolog.Nop()}, Options{Linker: linker.DefaultOptions()}, repo.NewMemory())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if p := module.MustPortsOf[Ports](m); p.Workflow == nil || p.Preview == nil {
		t.Fatalf("ports got=%+v", p)
	}

	r := phttp.AdaptChi(chi.NewRouter())
	m.MountRoutes(r)
	rec := httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/linker/preview", strings.NewReader(`{"entities":["mars"],"keywords":["rover"]}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body.String())
	}
	testkit.MustContain(t, rec.Body.String(), `"created":true`)
}

func TestNewRejectsBadThreshold(t *testing.T) {
	t.Parallel()
	opts := Options{Linker: linker.Options{Threshold: 2, WeightEntities: 0.5, WeightKeywords: 0.5}}
	if _, err := New(modkit.Deps{Log: zerolog.Nop()}, opts, repo.NewMemory()); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("got=%v", err)
	}
}
