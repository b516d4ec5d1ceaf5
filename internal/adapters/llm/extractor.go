package llm

import (
	"context"
	"strings"

	perr "newslens/internal/platform/errors"
	"newslens/internal/platform/logger"
)

// FactExtractor runs the harvest steps over one article
type FactExtractor struct {
	c     Completer
	steps []Step
	log   logger.Logger
}

// NewFactExtractor binds loaded steps to a completer
func NewFactExtractor(c Completer, steps []Step) (*FactExtractor, error) {
	if c == nil {
		return nil, perr.InvalidArgf("fact extractor requires a completer")
	}
	if len(steps) == 0 {
		return nil, perr.WithField(perr.InvalidArgf("fact extractor requires at least one step"), "LLM_HARVEST_STEPS")
	}
	for i, st := range steps {
		if blank(st.Instruction) {
			return nil, perr.WithField(perr.InvalidArgf("step %d (%s) has an empty instruction", i, st.Path), "LLM_HARVEST_STEPS")
		}
	}
	return &FactExtractor{c: c, steps: steps, log: *logger.Named("llm.harvest")}, nil
}

// Harvest runs every step in order and returns the merged result
// article meta is backfilled from the input so steps never lose it
func (x *FactExtractor) Harvest(ctx context.Context, in Input) (HarvestResult, error) {
	hr := HarvestResult{Article: in.Meta()}
	article := in.String()

	for i, st := range x.steps {
		if err := ctx.Err(); err != nil {
			return HarvestResult{}, err
		}
		input := Serialize(hr)
		if st.UseArticle {
			input = article
		}
		out, err := x.c.Complete(ctx, st.Instruction, input)
		if err != nil {
			return HarvestResult{}, perr.WithOp(err, "llm.Harvest")
		}
		if strings.TrimSpace(out) == "" {
			return HarvestResult{}, perr.Newf(perr.ErrorCodeUnavailable, "llm returned empty output at step %d (article=%v)", i, st.UseArticle)
		}
		doc, err := Clean(out)
		if err != nil {
			return HarvestResult{}, perr.WithOp(err, "llm.Harvest")
		}
		step, err := Decode(doc)
		if err != nil {
			return HarvestResult{}, perr.WithOp(err, "llm.Harvest")
		}
		Merge(&hr, step)
		x.log.Debug().Int("step", i).Int("facts", len(hr.Facts)).Str("url", in.URL).Msg("harvest step merged")
	}

	// the article fields are ours, a step may only fill what the input left empty
	meta := in.Meta()
	overwrite(&hr.Article.Alias, meta.Alias)
	overwrite(&hr.Article.URL, meta.URL)
	if blank(hr.Article.Title) {
		hr.Article.Title = meta.Title
	}
	if blank(hr.Article.Published) {
		hr.Article.Published = meta.Published
	}
	return hr, nil
}
