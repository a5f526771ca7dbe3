package devserver

import (
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
)

const maxDerivedTitleWidth = 40

func sanitizeTitle(input string) string {
	if input == "" {
		return ""
	}
	var builder strings.Builder
	builder.Grow(len(input))
	lastSpace := false
	for _, r := range input {
		if unicode.IsSpace(r) {
			if builder.Len() == 0 || lastSpace {
				continue
			}
			builder.WriteByte(' ')
			lastSpace = true
			continue
		}
		if unicode.IsControl(r) || !unicode.IsPrint(r) {
			continue
		}
		builder.WriteRune(r)
		lastSpace = false
	}
	return strings.TrimSpace(builder.String())
}

// deriveTitle names a new session after its first message.
func deriveTitle(text string) string {
	title := sanitizeTitle(text)
	if runewidth.StringWidth(title) <= maxDerivedTitleWidth {
		return title
	}
	return strings.TrimSpace(runewidth.Truncate(title, maxDerivedTitleWidth-1, "")) + "…"
}
