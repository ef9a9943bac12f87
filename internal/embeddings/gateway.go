// Package embeddings defines the embedding gateway consumed by the ingestion and query pipelines,
// plus provider-independent implementations and decorators.
package embeddings

import "context"

// Gateway turns text into embedding vectors.
type Gateway interface {
	// EmbedOne returns the embedding for a single text.
	EmbedOne(ctx context.Context, text string) ([]float32, error)

	// EmbedMany embeds texts in one provider call. The result has len(texts) entries and out[i] belongs
	// to texts[i]. An item the provider did not return, or returned without values, is an empty vector.
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
}

// Align maps provider results back onto the input order. get returns the vector for input i,
// or nil when the provider returned nothing for it. Missing items become empty vectors.
func Align(n int, get func(i int) []float32) [][]float32 {
	out := make([][]float32, n)
	for i := range out {
		if v := get(i); len(v) > 0 {
			out[i] = v
		} else {
			out[i] = []float32{}
		}
	}

	return out
}
