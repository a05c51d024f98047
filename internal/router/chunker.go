package router

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SplitChunks splits text into fragments no longer than maxLen bytes,
// preferring to break at the last whitespace run inside the window. A
// fragment with no whitespace is cut at the byte limit. Every fragment has
// trailing whitespace trimmed; fragments that trim to empty are dropped.
func SplitChunks(text string, maxLen int) []string {
	var chunks []string
	add := func(s string) {
		s = strings.TrimRightFunc(s, unicode.IsSpace)
		if s != "" {
			chunks = append(chunks, s)
		}
	}

	if maxLen <= 0 || len(text) <= maxLen {
		add(text)
		return chunks
	}

	for len(text) > 0 {
		if len(text) <= maxLen {
			add(text)
			break
		}

		window := text[:maxLen]
		end := maxLen
		if i := strings.LastIndexFunc(window, unicode.IsSpace); i > 0 {
			// Advance past the whole whitespace rune, which may be
			// multi-byte (for example U+00A0).
			_, size := utf8.DecodeRuneInString(window[i:])
			end = i + size
		}

		add(text[:end])
		text = text[end:]
	}
	return chunks
}
