package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askhub/hub/internal/models"
)

func newRecord(t *testing.T, text, sourceType string, createdAt time.Time, embedding ...float32) models.ChunkRecord {
	t.Helper()

	id, err := uuid.NewV7()
	require.NoError(t, err)

	return models.ChunkRecord{
		ID:         id,
		Text:       text,
		Embedding:  embedding,
		SourceType: sourceType,
		SourceName: text + ".txt",
		CreatedAt:  createdAt,
	}
}

func recordTexts(records []models.ChunkRecord) []string {
	out := make([]string, len(records))
	for i := range records {
		out[i] = records[i].Text
	}

	return out
}

// testChunkStore runs the behaviour every ChunkStore backend must share against an empty store.
func testChunkStore(t *testing.T, store ChunkStore) {
	ctx := context.Background()
	first := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	second := first.Add(time.Minute)

	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NoError(t, store.InsertMany(ctx, nil))

	batchA := []models.ChunkRecord{
		newRecord(t, "a1", "doc", first, 0.1, 0.2, 0.3),
		newRecord(t, "a2", "doc", first),
		newRecord(t, "a3", "doc", first, 1),
	}
	batchB := []models.ChunkRecord{
		newRecord(t, "b1", "audio", second, -0.5, 0.5),
		newRecord(t, "b2", "doc", second, 0, 0, 0, 1),
	}

	require.NoError(t, store.InsertMany(ctx, batchA))
	require.NoError(t, store.InsertMany(ctx, batchB))

	t.Run("ListAll keeps insertion order", func(t *testing.T) {
		all, err := store.ListAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a1", "a2", "a3", "b1", "b2"}, recordTexts(all))
	})

	t.Run("records round trip", func(t *testing.T) {
		all, err := store.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 5)

		want := append(append([]models.ChunkRecord{}, batchA...), batchB...)
		for i := range want {
			assert.Equal(t, want[i].ID, all[i].ID)
			assert.Equal(t, want[i].SourceType, all[i].SourceType)
			assert.Equal(t, want[i].SourceName, all[i].SourceName)
			assert.True(t, want[i].CreatedAt.Equal(all[i].CreatedAt), "created_at %v != %v", want[i].CreatedAt, all[i].CreatedAt)
			assert.InDeltaSlice(t, want[i].Embedding, all[i].Embedding, 1e-6)
		}

		assert.Empty(t, all[1].Embedding, "empty embedding stays empty")
	})

	t.Run("List pages and filters", func(t *testing.T) {
		page, err := store.List(ctx, &models.ListChunksFilters{Limit: 2, Offset: 1})
		require.NoError(t, err)
		assert.Equal(t, []string{"a2", "a3"}, recordTexts(page))

		doc := "doc"
		docs, err := store.List(ctx, &models.ListChunksFilters{SourceType: &doc, Offset: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{"a3", "b2"}, recordTexts(docs))

		none := "image"
		empty, err := store.List(ctx, &models.ListChunksFilters{SourceType: &none})
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)
	})

	t.Run("Count ignores paging", func(t *testing.T) {
		total, err := store.Count(ctx, &models.ListChunksFilters{Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)

		audio := "audio"
		n, err := store.Count(ctx, &models.ListChunksFilters{SourceType: &audio})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = store.Count(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(5), n)
	})
}
