package httpkit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	phttp "newslens/internal/platform/net/http"
)

func TestProtected(t *testing.T) {
	t.Parallel()

	r := phttp.AdaptChi(chi.NewRouter())
	Get(r, "/open", func(*http.Request) (any, error) { return "open", nil })
	Protected(r, NewPortFunc(StaticTokens(map[string]string{"alice": "s3cret"})), func(gr Router) {
		Post(gr, "/locked", func(req *http.Request) (any, error) { return OperatorOr(req, "-"), nil })
	})

	cases := []struct {
		name   string
		method string
		path   string
		auth   string
		want   int
	}{
		{"open route needs no token", http.MethodGet, "/open", "", http.StatusOK},
		{"missing token", http.MethodPost, "/locked", "", http.StatusUnauthorized},
		{"wrong token", http.MethodPost, "/locked", "Bearer nope", http.StatusUnauthorized},
		{"good token", http.MethodPost, "/locked", "Bearer s3cret", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.auth != "" {
				req.Header.Set("Authorization", tc.auth)
			}
			rec := httptest.NewRecorder()
			r.Mux().ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status got=%d want=%d body=%s", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}
