package llm

import (
	"regexp"
	"strings"

	perr "newslens/internal/platform/errors"
)

var blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)

// Clean turns raw model output into a single JSON object
// it strips a surrounding code fence, js style comments and any text around the first object
func Clean(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", perr.Newf(perr.ErrorCodeJSON, "empty model output")
	}
	s = stripFence(s)
	s = stripComments(s)
	obj, err := firstObject(s)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(obj), nil
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	nl := strings.IndexByte(s, '\n')
	if nl < 0 {
		return s
	}
	t := s[nl+1:]
	if end := strings.LastIndex(t, "```"); end >= 0 {
		t = t[:end]
	}
	return strings.TrimSpace(t)
}

// stripComments drops /* */ blocks and // line tails
// a // right after ':' is kept so urls survive
func stripComments(s string) string {
	s = blockComment.ReplaceAllString(s, "")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		from := 0
		for {
			j := strings.Index(line[from:], "//")
			if j < 0 {
				break
			}
			j += from
			if j > 0 && line[j-1] == ':' {
				from = j + 2
				continue
			}
			line = line[:j]
			break
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

// firstObject returns the first balanced {...} honouring strings and escapes
func firstObject(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", perr.Newf(perr.ErrorCodeJSON, "no json object in model output")
	}
	depth := 0
	inStr, esc := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inStr {
			switch {
			case esc:
				esc = false
			case c == '\\':
				esc = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", perr.Newf(perr.ErrorCodeJSON, "unbalanced json object in model output")
}
