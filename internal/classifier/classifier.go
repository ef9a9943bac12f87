// Package classifier decides whether a user message is a greeting or a question.
package classifier

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind is the classification of a message.
type Kind string

const (
	// KindGreeting is a short social opener answered without retrieval.
	KindGreeting Kind = "greeting"
	// KindQuestion is anything else; it goes through the retrieval pipeline.
	KindQuestion Kind = "question"
)

// DefaultMaxWords is the longest message, in whitespace-separated words, still treated as a greeting.
const DefaultMaxWords = 5

// DefaultPhrases are the greeting openers recognised out of the box.
var DefaultPhrases = []string{
	"hi", "hello", "hey", "yo", "sup",
	"good morning", "good evening", "good afternoon", "good night",
}

// Classifier is a pure predicate over normalised message text. It is safe for concurrent use.
type Classifier struct {
	phrases  []string
	maxWords int
}

// New creates a Classifier. Empty phrases fall back to DefaultPhrases; maxWords <= 0 falls back to DefaultMaxWords.
func New(phrases []string, maxWords int) *Classifier {
	normalized := make([]string, 0, len(phrases))

	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			normalized = append(normalized, p)
		}
	}

	if len(normalized) == 0 {
		normalized = append(normalized, DefaultPhrases...)
	}

	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}

	return &Classifier{phrases: normalized, maxWords: maxWords}
}

// Classify returns KindGreeting when message starts with a greeting phrase and has at most maxWords words.
func (c *Classifier) Classify(message string) Kind {
	text := strings.ToLower(strings.TrimSpace(message))
	if text == "" {
		return KindQuestion
	}

	if len(strings.Fields(text)) > c.maxWords {
		return KindQuestion
	}

	for _, phrase := range c.phrases {
		if startsWithPhrase(text, phrase) {
			return KindGreeting
		}
	}

	return KindQuestion
}

// IsGreeting reports whether message classifies as KindGreeting.
func (c *Classifier) IsGreeting(message string) bool {
	return c.Classify(message) == KindGreeting
}

// startsWithPhrase reports whether text begins with phrase followed by a word boundary.
// A single-word phrase may repeat its final letter ("hiii", "heyyy").
func startsWithPhrase(text, phrase string) bool {
	if !strings.HasPrefix(text, phrase) {
		return false
	}

	rest := text[len(phrase):]

	if !strings.ContainsFunc(phrase, unicode.IsSpace) {
		last, _ := utf8.DecodeLastRuneInString(phrase)
		rest = strings.TrimLeft(rest, string(last))
	}

	if rest == "" {
		return true
	}

	next, _ := utf8.DecodeRuneInString(rest)

	return !isWordRune(next)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
