package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxChars int
		want     []string
	}{
		{name: "empty input yields no chunks", text: "", maxChars: 10, want: nil},
		{name: "shorter than max", text: "The sky is blue.", maxChars: 800, want: []string{"The sky is blue."}},
		{name: "exact multiple", text: "abcdef", maxChars: 3, want: []string{"abc", "def"}},
		{name: "remainder goes last", text: "abcdefg", maxChars: 3, want: []string{"abc", "def", "g"}},
		{name: "ignores word boundaries", text: "hello world", maxChars: 4, want: []string{"hell", "o wo", "rld"}},
		{name: "max of one", text: "abc", maxChars: 1, want: []string{"a", "b", "c"}},
		{name: "multibyte runes are not split", text: "héllo wörld", maxChars: 5, want: []string{"héllo", " wörl", "d"}},
		{name: "whitespace is kept verbatim", text: "  a \n", maxChars: 2, want: []string{"  ", "a ", "\n"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Split(tt.text, tt.maxChars))
		})
	}
}

func TestSplit_DefaultMax(t *testing.T) {
	text := strings.Repeat("x", DefaultMaxChars+1)

	for _, maxChars := range []int{0, -5} {
		chunks := Split(text, maxChars)
		require.Len(t, chunks, 2)
		assert.Len(t, chunks[0], DefaultMaxChars)
		assert.Equal(t, "x", chunks[1])
	}
}

func TestSplit_Properties(t *testing.T) {
	inputs := []string{
		"The sky is blue. Grass is green.",
		strings.Repeat("lorem ipsum dolor sit amet ", 97),
		strings.Repeat("日本語テキスト", 33),
		"a",
	}

	for _, text := range inputs {
		for _, maxChars := range []int{1, 2, 7, 64, 800, 5000} {
			chunks := Split(text, maxChars)

			assert.Equal(t, text, strings.Join(chunks, ""), "concatenation must reproduce input")
			assert.Len(t, chunks, Count(utf8.RuneCountInString(text), maxChars))

			for _, c := range chunks {
				n := utf8.RuneCountInString(c)
				assert.LessOrEqual(t, n, maxChars)
				assert.Positive(t, n)
			}
		}
	}
}

func TestCount(t *testing.T) {
	assert.Equal(t, 0, Count(0, 800))
	assert.Equal(t, 1, Count(32, 800))
	assert.Equal(t, 1, Count(800, 800))
	assert.Equal(t, 2, Count(801, 800))
	assert.Equal(t, 2, Count(801, 0))
}
