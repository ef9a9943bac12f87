package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"strings"
	"unicode"
)

// DefaultMockDimensions is the vector length produced by NewMock.
const DefaultMockDimensions = 256

// Mock is a keyless Gateway for local development and tests. Each lowercase word of the input is hashed
// with SHA-256 into one signed bucket and the result is L2-normalised, so texts sharing words score higher.
// Output is deterministic. Text without any word yields an all-zero vector.
type Mock struct {
	dimensions int
}

// NewMock creates a mock gateway producing DefaultMockDimensions-length vectors.
func NewMock() *Mock {
	return &Mock{dimensions: DefaultMockDimensions}
}

// NewMockWithDimensions creates a mock gateway with a custom vector length.
func NewMockWithDimensions(dimensions int) *Mock {
	if dimensions <= 0 {
		dimensions = DefaultMockDimensions
	}

	return &Mock{dimensions: dimensions}
}

// EmbedOne returns the deterministic embedding of text.
func (m *Mock) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return m.vector(text), nil
}

// EmbedMany embeds every text; it never drops an item.
func (m *Mock) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = m.vector(text)
	}

	return out, nil
}

func (m *Mock) vector(text string) []float32 {
	vec := make([]float32, m.dimensions)

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	for _, w := range words {
		sum := sha256.Sum256([]byte(w))
		bucket := binary.LittleEndian.Uint32(sum[:4]) % uint32(m.dimensions) //nolint:gosec // dimensions is positive

		if sum[4]&1 == 0 {
			vec[bucket]++
		} else {
			vec[bucket]--
		}
	}

	normalizeL2(vec)

	return vec
}

// normalizeL2 scales v in place to unit length. A zero vector is left unchanged.
func normalizeL2(v []float32) {
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}

	if sumSquares == 0 {
		return
	}

	inv := 1 / math.Sqrt(sumSquares)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
}

var _ Gateway = (*Mock)(nil)
