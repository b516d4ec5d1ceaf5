package swaggerkit

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	perr "newslens/internal/platform/errors"
)

// errorSchema mirrors the runtime error envelope
var errorSchema = map[string]any{
	"type":        "object",
	"description": "Error envelope written by every endpoint",
	"properties": map[string]any{
		"status_code": map[string]any{"type": "integer"},
		"status":      map[string]any{"type": "string"},
		"code":        map[string]any{"type": "integer"},
		"error":       map[string]any{"type": "string"},
		"request_id":  map[string]any{"type": "string"},
	},
	"required": []any{"status_code", "status"},
}

// defaultResponse is added to an operation that does not document the status itself
type defaultResponse struct {
	status      int
	code        perr.ErrorCode
	message     string
	securedOnly bool
}

var defaults = []defaultResponse{
	{status: http.StatusUnauthorized, code: perr.ErrorCodeUnauthorized, message: "missing bearer token", securedOnly: true},
	{status: http.StatusInternalServerError, code: perr.ErrorCodePanic, message: "panic recovered"},
}

// Prepare turns the generated spec into what the ui is served:
// OpenAPI 3.0.3 with servers pointing at base, an ErrorResponse schema,
// and default error responses on every operation
func Prepare(raw, base, title string) ([]byte, error) {
	var spec map[string]any
	if err := json.Unmarshal([]byte(raw), &spec); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeJSON, "swagger spec")
	}

	// the ui cannot render 3.1 and swag emits 2.0
	delete(spec, "swagger")
	if v, _ := spec["openapi"].(string); v == "" || strings.HasPrefix(v, "3.1") {
		spec["openapi"] = "3.0.3"
	}
	if _, ok := spec["servers"]; !ok {
		spec["servers"] = []any{map[string]any{"url": base}}
	}
	if title != "" {
		if info, ok := spec["info"].(map[string]any); ok {
			info["title"] = title
		}
	}

	schemas := child(child(spec, "components"), "schemas")
	if _, ok := schemas["ErrorResponse"]; !ok {
		schemas["ErrorResponse"] = errorSchema
	}

	paths, _ := spec["paths"].(map[string]any)
	for _, item := range paths {
		ops, ok := item.(map[string]any)
		if !ok {
			continue
		}
		for _, v := range ops {
			op, ok := v.(map[string]any)
			if !ok {
				continue
			}
			_, secured := op["security"]
			responses := child(op, "responses")
			for _, d := range defaults {
				key := strconv.Itoa(d.status)
				if _, exists := responses[key]; exists || (d.securedOnly && !secured) {
					continue
				}
				responses[key] = d.render()
			}
		}
	}
	return json.Marshal(spec)
}

func (d defaultResponse) render() map[string]any {
	text := http.StatusText(d.status)
	return map[string]any{
		"description": text,
		"content": map[string]any{
			"application/json": map[string]any{
				"schema":  map[string]any{"$ref": "#/components/schemas/ErrorResponse"},
				"example": map[string]any{"status_code": d.status, "status": text, "code": int(d.code), "error": d.message},
			},
		},
	}
}

// child returns m[key] as an object, creating it when missing
func child(m map[string]any, key string) map[string]any {
	c, ok := m[key].(map[string]any)
	if !ok {
		c = map[string]any{}
		m[key] = c
	}
	return c
}
