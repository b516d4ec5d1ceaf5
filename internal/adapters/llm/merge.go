package llm

import (
	"encoding/json"
	"strings"
)

// Merge folds one step's output into the running result
func Merge(to *HarvestResult, from HarvestResult) {
	overwrite(&to.Article.Alias, from.Article.Alias)
	overwrite(&to.Article.Title, from.Article.Title)
	overwrite(&to.Article.URL, from.Article.URL)
	overwrite(&to.Article.Published, from.Article.Published)

	// lists are replaced one at a time so a step may update just one of them
	if ents := cleanTokens(from.Categories.Entities); len(ents) > 0 {
		to.Categories.Entities = ents
	}
	if kws := cleanTokens(from.Categories.Keywords); len(kws) > 0 {
		to.Categories.Keywords = kws
	}

	var facts []FactItem
	for _, f := range from.Facts {
		if !defaultFact(f) {
			facts = append(facts, cloneFact(f))
		}
	}
	if len(facts) > 0 {
		to.Facts = facts
	}

	var unknowns []string
	for _, u := range from.Unknowns {
		if !blank(u) {
			unknowns = append(unknowns, strings.TrimSpace(u))
		}
	}
	if len(unknowns) > 0 {
		to.Unknowns = unknowns
	}
}

func overwrite(dst *string, v string) {
	if !blank(v) {
		*dst = strings.TrimSpace(v)
	}
}

// cleanTokens trims and lowercases, dropping blanks and repeats
func cleanTokens(in []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		t := strings.ToLower(strings.TrimSpace(s))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func defaultSource(s SourceRef) bool {
	if !blank(s.Alias) {
		return false
	}
	for _, p := range s.Paragraphs {
		if p > 0 {
			return false
		}
	}
	return true
}

func defaultFact(f FactItem) bool {
	if !blank(f.ID) || !blank(f.Statement) {
		return false
	}
	for _, s := range f.Sources {
		if !defaultSource(s) {
			return false
		}
	}
	return true
}

func cloneFact(f FactItem) FactItem {
	out := FactItem{ID: strings.TrimSpace(f.ID), Statement: f.Statement}
	for _, s := range f.Sources {
		if defaultSource(s) {
			continue
		}
		out.Sources = append(out.Sources, SourceRef{Alias: strings.TrimSpace(s.Alias), Paragraphs: paragraphs(s.Paragraphs)})
	}
	return out
}

// paragraphs keeps positive distinct numbers in input order
func paragraphs(in []int) []int {
	var out []int
	seen := make(map[int]struct{}, len(in))
	for _, p := range in {
		if p <= 0 {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

type wireArticle struct {
	Alias     string `json:"alias,omitempty"`
	Title     string `json:"title,omitempty"`
	URL       string `json:"url,omitempty"`
	Published string `json:"published,omitempty"`
}

type wireCategories struct {
	Entities []string `json:"entities,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}

type wireSource struct {
	Alias      string `json:"alias,omitempty"`
	Paragraphs []int  `json:"paragraphs,omitempty"`
}

type wireFact struct {
	ID        string       `json:"id,omitempty"`
	Statement string       `json:"statement,omitempty"`
	Sources   []wireSource `json:"sources,omitempty"`
}

type wireResult struct {
	Article    *wireArticle    `json:"article,omitempty"`
	Categories *wireCategories `json:"categories,omitempty"`
	Facts      []wireFact      `json:"facts,omitempty"`
	Unknowns   []string        `json:"unknowns,omitempty"`
}

// Serialize renders the running result as compact json for the next step
// empty fields are left out so a step never reads them as a request to clear
func Serialize(hr HarvestResult) string {
	var w wireResult

	a := wireArticle{
		Alias:     strings.TrimSpace(hr.Article.Alias),
		Title:     strings.TrimSpace(hr.Article.Title),
		URL:       strings.TrimSpace(hr.Article.URL),
		Published: strings.TrimSpace(hr.Article.Published),
	}
	if a != (wireArticle{}) {
		w.Article = &a
	}

	c := wireCategories{Entities: cleanTokens(hr.Categories.Entities), Keywords: cleanTokens(hr.Categories.Keywords)}
	if len(c.Entities) > 0 || len(c.Keywords) > 0 {
		w.Categories = &c
	}

	for _, f := range hr.Facts {
		wf := wireFact{ID: strings.TrimSpace(f.ID), Statement: strings.TrimSpace(f.Statement)}
		for _, s := range f.Sources {
			ws := wireSource{Alias: strings.TrimSpace(s.Alias), Paragraphs: paragraphs(s.Paragraphs)}
			if ws.Alias != "" || len(ws.Paragraphs) > 0 {
				wf.Sources = append(wf.Sources, ws)
			}
		}
		if wf.ID != "" || wf.Statement != "" || len(wf.Sources) > 0 {
			w.Facts = append(w.Facts, wf)
		}
	}

	w.Unknowns = cleanTokens(hr.Unknowns)

	b, err := json.Marshal(w)
	if err != nil {
		return "{}"
	}
	return string(b)
}
