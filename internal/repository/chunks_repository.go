package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/askhub/hub/internal/models"
	"github.com/askhub/hub/pkg/database"
)

// chunksSchema creates the pgvector extension and the chunks table. The vector column has no fixed
// dimension so models of different sizes can share it. seq preserves insertion order.
var chunksSchema = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,
	`CREATE TABLE IF NOT EXISTS chunks (
		seq         BIGSERIAL PRIMARY KEY,
		id          UUID NOT NULL UNIQUE,
		text        TEXT NOT NULL,
		embedding   vector,
		source_type TEXT NOT NULL,
		source_name TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS chunks_source_type_seq_idx ON chunks (source_type, seq)`,
}

const chunkColumns = `id, text, embedding, source_type, source_name, created_at`

// EnsureChunksSchema creates the extension and table if missing. Call it before opening the pool, because
// pool connections register the vector type on connect.
func EnsureChunksSchema(ctx context.Context, databaseURL string) error {
	if err := database.Bootstrap(ctx, databaseURL, chunksSchema...); err != nil {
		return fmt.Errorf("ensure chunks schema: %w", err)
	}

	return nil
}

// ChunksRepository stores chunk records in PostgreSQL with pgvector.
type ChunksRepository struct {
	db *pgxpool.Pool
}

// NewChunksRepository creates a new chunks repository. The pool must have pgvector types registered.
func NewChunksRepository(db *pgxpool.Pool) *ChunksRepository {
	return &ChunksRepository{db: db}
}

// InsertMany inserts records in one transaction; either all rows are stored or none.
func (r *ChunksRepository) InsertMany(ctx context.Context, records []models.ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}

		for i := range records {
			rec := &records[i]
			batch.Queue(
				`INSERT INTO chunks (id, text, embedding, source_type, source_name, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				rec.ID, rec.Text, vectorParam(rec.Embedding), rec.SourceType, rec.SourceName, rec.CreatedAt,
			)
		}

		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("failed to insert chunks: %w", err)
	}

	return nil
}

// ListAll returns every chunk in insertion order.
func (r *ChunksRepository) ListAll(ctx context.Context) ([]models.ChunkRecord, error) {
	rows, err := r.db.Query(ctx, `SELECT `+chunkColumns+` FROM chunks ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}

	return collectChunks(rows)
}

// buildChunksFilterConditions builds WHERE clause conditions and arguments from filters
func buildChunksFilterConditions(filters *models.ListChunksFilters) (string, []any) {
	var (
		conditions []string
		args       []any
	)

	if filters != nil && filters.SourceType != nil {
		args = append(args, *filters.SourceType)
		conditions = append(conditions, fmt.Sprintf("source_type = $%d", len(args)))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	return whereClause, args
}

// List retrieves chunks matching filters in insertion order.
func (r *ChunksRepository) List(ctx context.Context, filters *models.ListChunksFilters) ([]models.ChunkRecord, error) {
	query := `SELECT ` + chunkColumns + ` FROM chunks`

	whereClause, args := buildChunksFilterConditions(filters)
	query += whereClause + " ORDER BY seq"

	if filters != nil && filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	if filters != nil && filters.Offset > 0 {
		args = append(args, filters.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}

	return collectChunks(rows)
}

// Count returns the total count of chunks matching the filters
func (r *ChunksRepository) Count(ctx context.Context, filters *models.ListChunksFilters) (int64, error) {
	whereClause, args := buildChunksFilterConditions(filters)

	var count int64

	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM chunks`+whereClause, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}

	return count, nil
}

func collectChunks(rows pgx.Rows) ([]models.ChunkRecord, error) {
	defer rows.Close()

	records := []models.ChunkRecord{}

	for rows.Next() {
		var (
			rec models.ChunkRecord
			vec *pgvector.Vector
		)

		if err := rows.Scan(&rec.ID, &rec.Text, &vec, &rec.SourceType, &rec.SourceName, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}

		if vec != nil {
			rec.Embedding = vec.Slice()
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chunks: %w", err)
	}

	return records, nil
}

// vectorParam maps an empty embedding to SQL NULL.
func vectorParam(embedding []float32) any {
	if len(embedding) == 0 {
		return nil
	}

	return pgvector.NewVector(embedding)
}

var _ ChunkStore = (*ChunksRepository)(nil)
