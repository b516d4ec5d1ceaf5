package llm

import (
	"encoding/json"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	perr "newslens/internal/platform/errors"
)

// harvestSchema accepts partial documents since each step fills only part of the result
const harvestSchema = `{
  "type": "object",
  "properties": {
    "article": {
      "type": ["object", "null"],
      "properties": {
        "alias":     {"type": ["string", "null"]},
        "title":     {"type": ["string", "null"]},
        "url":       {"type": ["string", "null"]},
        "published": {"type": ["string", "null"]}
      }
    },
    "categories": {
      "type": ["object", "null"],
      "properties": {
        "entities": {"type": ["array", "null"], "items": {"type": ["string", "null"]}},
        "keywords": {"type": ["array", "null"], "items": {"type": ["string", "null"]}}
      }
    },
    "facts": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {
          "id":        {"type": ["string", "null"]},
          "statement": {"type": ["string", "null"]},
          "sources": {
            "type": ["array", "null"],
            "items": {
              "type": "object",
              "properties": {
                "alias":      {"type": ["string", "null"]},
                "paragraphs": {"type": ["array", "null"], "items": {"type": "integer"}}
              }
            }
          }
        }
      }
    },
    "unknowns": {"type": ["array", "null"], "items": {"type": ["string", "null"]}}
  }
}`

var harvestSchemaLoader = gojsonschema.NewStringLoader(harvestSchema)

// Decode validates a cleaned step output against the harvest schema and decodes it
func Decode(doc string) (HarvestResult, error) {
	res, err := gojsonschema.Validate(harvestSchemaLoader, gojsonschema.NewStringLoader(doc))
	if err != nil {
		return HarvestResult{}, perr.Wrap(err, perr.ErrorCodeJSON, "model output is not json")
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return HarvestResult{}, perr.Newf(perr.ErrorCodeJSON, "model output failed schema: %s", strings.Join(msgs, "; "))
	}
	var hr HarvestResult
	if err := json.Unmarshal([]byte(doc), &hr); err != nil {
		return HarvestResult{}, perr.Wrap(err, perr.ErrorCodeJSON, "decode model output")
	}
	return hr, nil
}
