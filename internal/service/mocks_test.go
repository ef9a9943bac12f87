package service

import (
	"context"

	"github.com/askhub/hub/internal/models"
)

type mockGateway struct {
	embedOneFunc  func(ctx context.Context, text string) ([]float32, error)
	embedManyFunc func(ctx context.Context, texts []string) ([][]float32, error)
	oneCalls      int
	manyCalls     int
}

func (m *mockGateway) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	m.oneCalls++

	if m.embedOneFunc != nil {
		return m.embedOneFunc(ctx, text)
	}

	return []float32{1, 0}, nil
}

func (m *mockGateway) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	m.manyCalls++

	if m.embedManyFunc != nil {
		return m.embedManyFunc(ctx, texts)
	}

	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 0}
	}

	return out, nil
}

type mockGenerator struct {
	generateFunc func(ctx context.Context, prompt string) (string, error)
	prompts      []string
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)

	if m.generateFunc != nil {
		return m.generateFunc(ctx, prompt)
	}

	return "generated answer", nil
}

type mockChunkWriter struct {
	insertFunc func(ctx context.Context, records []models.ChunkRecord) error
	batches    [][]models.ChunkRecord
}

func (m *mockChunkWriter) InsertMany(ctx context.Context, records []models.ChunkRecord) error {
	m.batches = append(m.batches, records)

	if m.insertFunc != nil {
		return m.insertFunc(ctx, records)
	}

	return nil
}

type mockRanker struct {
	rankFunc func(ctx context.Context, query []float32, k int) ([]models.ScoredCandidate, error)
}

func (m *mockRanker) Rank(ctx context.Context, query []float32, k int) ([]models.ScoredCandidate, error) {
	if m.rankFunc != nil {
		return m.rankFunc(ctx, query, k)
	}

	return nil, nil
}

type mockChunkReader struct {
	listFunc  func(ctx context.Context, filters *models.ListChunksFilters) ([]models.ChunkRecord, error)
	countFunc func(ctx context.Context, filters *models.ListChunksFilters) (int64, error)
}

func (m *mockChunkReader) List(ctx context.Context, filters *models.ListChunksFilters) ([]models.ChunkRecord, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filters)
	}

	return nil, nil
}

func (m *mockChunkReader) Count(ctx context.Context, filters *models.ListChunksFilters) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, filters)
	}

	return 0, nil
}

type mockCacheMetrics struct {
	hits, misses, loadErrors int
}

func (m *mockCacheMetrics) RecordLookup(_ context.Context, _ string, hit bool) {
	if hit {
		m.hits++
	} else {
		m.misses++
	}
}

func (m *mockCacheMetrics) RecordLoadError(_ context.Context, _ string) { m.loadErrors++ }
