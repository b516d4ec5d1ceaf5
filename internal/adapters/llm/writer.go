package llm

import (
	"context"
	"strings"

	perr "newslens/internal/platform/errors"
)

// ArticleWriter turns fact material into an article body
type ArticleWriter struct {
	c           Completer
	instruction string
}

// NewArticleWriter binds the writer system instruction to a completer
func NewArticleWriter(c Completer, instruction string) (*ArticleWriter, error) {
	if c == nil {
		return nil, perr.InvalidArgf("article writer requires a completer")
	}
	if blank(instruction) {
		return nil, perr.WithField(perr.InvalidArgf("article writer instruction is empty"), "LLM_WRITER_INSTRUCTION")
	}
	return &ArticleWriter{c: c, instruction: instruction}, nil
}

// Write returns the trimmed model text; an empty string means nothing was written
func (w *ArticleWriter) Write(ctx context.Context, material string) (string, error) {
	out, err := w.c.Complete(ctx, w.instruction, material)
	if err != nil {
		return "", perr.WithOp(err, "llm.Write")
	}
	return strings.TrimSpace(out), nil
}
