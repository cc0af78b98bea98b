package service

import (
	"strings"

	"github.com/hugo-lorenzo-mato/docent/internal/core"
)

// Splitter divides a document into study sections.
// Paragraphs (blank-line separated) are grouped into at most Turns
// sections of roughly equal paragraph count.
type Splitter struct {
	Turns int
}

// NewSplitter creates a splitter producing at most turns sections.
func NewSplitter(turns int) *Splitter {
	if turns < 1 {
		turns = 1
	}
	return &Splitter{Turns: turns}
}

// Split breaks the document into sections with stable zero-based indices.
func (s *Splitter) Split(document string) ([]core.Section, error) {
	if strings.TrimSpace(document) == "" {
		return nil, core.ErrValidation(core.CodeEmptyDocument, "document is empty")
	}

	paragraphs := splitParagraphs(document)
	if len(paragraphs) == 0 {
		return nil, core.ErrValidation(core.CodeEmptyDocument, "document has no content")
	}

	chunk := len(paragraphs) / s.Turns
	if chunk < 1 {
		chunk = 1
	}

	sections := make([]core.Section, 0, s.Turns)
	for start := 0; start < len(paragraphs) && len(sections) < s.Turns; start += chunk {
		end := start + chunk
		if end > len(paragraphs) {
			end = len(paragraphs)
		}
		text := strings.TrimSpace(strings.Join(paragraphs[start:end], "\n\n"))
		if text == "" {
			continue
		}
		sections = append(sections, core.Section{
			Index: len(sections),
			Text:  text,
		})
	}

	return sections, nil
}

// splitParagraphs splits on blank lines, dropping empty fragments.
func splitParagraphs(document string) []string {
	normalized := strings.ReplaceAll(document, "\r\n", "\n")
	raw := strings.Split(normalized, "\n\n")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}
