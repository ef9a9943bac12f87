// Package chunker splits ingested text into fixed-size chunks.
package chunker

import "unicode/utf8"

// DefaultMaxChars is the default number of characters per chunk.
const DefaultMaxChars = 800

// Split cuts text into consecutive, non-overlapping chunks of at most maxChars characters
// (Unicode code points). Splitting is purely positional: no sentence or word boundaries.
// Concatenating the result reproduces text exactly. Empty text yields nil.
// A non-positive maxChars falls back to DefaultMaxChars.
func Split(text string, maxChars int) []string {
	if text == "" {
		return nil
	}

	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	total := utf8.RuneCountInString(text)
	chunks := make([]string, 0, Count(total, maxChars))

	start, n := 0, 0
	for i := range text {
		if n == maxChars {
			chunks = append(chunks, text[start:i])
			start, n = i, 0
		}
		n++
	}

	return append(chunks, text[start:])
}

// Count returns the number of chunks Split produces for a text of chars characters.
func Count(chars, maxChars int) int {
	if chars <= 0 {
		return 0
	}

	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	return (chars + maxChars - 1) / maxChars
}
