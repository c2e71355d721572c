package bookgen

import (
	"strings"

	"github.com/yungbote/storybook-backend/internal/domain"
	"github.com/yungbote/storybook-backend/internal/domain/book"
)

// Plan splits generated text on blank lines into ordered page units. The
// first segment is the title and also the text of part 1.
func Plan(raw string) (string, []book.PageUnit, error) {
	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	segments := strings.Split(normalized, "\n\n")

	units := make([]book.PageUnit, 0, len(segments))
	for _, seg := range segments {
		text := strings.TrimSpace(seg)
		if text == "" {
			continue
		}
		units = append(units, book.PageUnit{
			PartID: len(units) + 1,
			Text:   text,
		})
	}
	if len(units) == 0 {
		return "", nil, domain.NewError(domain.CodeEmptyGeneration, "bookgen.Plan", "generated text has no pages", nil)
	}
	return units[0].Text, units, nil
}

// SceneDescription wraps the sanitized page text for the illustration prompt.
func SceneDescription(text string) string {
	return `This page describes: "` + sanitizeScene(text) + `"`
}

func sanitizeScene(text string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(text) {
		if keepSceneRune(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func keepSceneRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	switch r {
	case ' ', '.', ',', '?', '!', '\'', '"':
		return true
	}
	return false
}
