package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/askhub/hub/internal/models"
)

const sqliteChunksSchema = `
	CREATE TABLE IF NOT EXISTS chunks (
		seq         INTEGER PRIMARY KEY AUTOINCREMENT,
		id          TEXT NOT NULL UNIQUE,
		text        TEXT NOT NULL,
		embedding   BLOB,
		source_type TEXT NOT NULL,
		source_name TEXT NOT NULL,
		created_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS chunks_source_type_seq_idx ON chunks (source_type, seq);
`

// SQLiteChunksRepository stores chunk records in a single SQLite file. Embeddings are little-endian
// float32 blobs. Suitable for a single instance that must survive restarts.
type SQLiteChunksRepository struct {
	db *sql.DB
}

// OpenSQLiteChunksRepository opens (or creates) the database at path and ensures the schema.
// ":memory:" opens a private in-memory database.
func OpenSQLiteChunksRepository(ctx context.Context, path string) (*SQLiteChunksRepository, error) {
	dsn := path
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("creating sqlite directory: %w", err)
			}
		}

		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// One writer at a time; also keeps ":memory:" on a single shared connection.
	db.SetMaxOpenConns(1)

	repo := &SQLiteChunksRepository{db: db}
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()

		return nil, err
	}

	return repo, nil
}

// EnsureSchema creates the chunks table if missing.
func (r *SQLiteChunksRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, sqliteChunksSchema); err != nil {
		return fmt.Errorf("creating sqlite schema: %w", err)
	}

	return nil
}

// Close closes the database.
func (r *SQLiteChunksRepository) Close() error {
	return r.db.Close()
}

// InsertMany inserts records in one transaction; either all rows are stored or none.
func (r *SQLiteChunksRepository) InsertMany(ctx context.Context, records []models.ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }() // no-op after Commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, text, embedding, source_type, source_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		rec := &records[i]

		_, err := stmt.ExecContext(ctx,
			rec.ID.String(), rec.Text, encodeVector(rec.Embedding),
			rec.SourceType, rec.SourceName, rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("inserting chunk %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing chunks: %w", err)
	}

	return nil
}

// ListAll returns every chunk in insertion order.
func (r *SQLiteChunksRepository) ListAll(ctx context.Context) ([]models.ChunkRecord, error) {
	return r.List(ctx, nil)
}

// List retrieves chunks matching filters in insertion order.
func (r *SQLiteChunksRepository) List(ctx context.Context, filters *models.ListChunksFilters) ([]models.ChunkRecord, error) {
	query := `SELECT ` + chunkColumns + ` FROM chunks`

	where, args := sqliteFilterConditions(filters)
	query += where + " ORDER BY seq"

	if filters != nil && (filters.Limit > 0 || filters.Offset > 0) {
		limit := -1
		if filters.Limit > 0 {
			limit = filters.Limit
		}

		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, filters.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing chunks: %w", err)
	}
	defer rows.Close()

	records := []models.ChunkRecord{}

	for rows.Next() {
		rec, err := scanSQLiteChunk(rows)
		if err != nil {
			return nil, err
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return records, nil
}

// Count returns the number of chunks matching filters, ignoring paging.
func (r *SQLiteChunksRepository) Count(ctx context.Context, filters *models.ListChunksFilters) (int64, error) {
	where, args := sqliteFilterConditions(filters)

	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}

	return count, nil
}

func sqliteFilterConditions(filters *models.ListChunksFilters) (string, []any) {
	if filters == nil || filters.SourceType == nil {
		return "", nil
	}

	return " WHERE source_type = ?", []any{*filters.SourceType}
}

func scanSQLiteChunk(rows *sql.Rows) (models.ChunkRecord, error) {
	var (
		rec       models.ChunkRecord
		id        string
		blob      []byte
		createdAt string
	)

	if err := rows.Scan(&id, &rec.Text, &blob, &rec.SourceType, &rec.SourceName, &createdAt); err != nil {
		return rec, fmt.Errorf("scanning chunk: %w", err)
	}

	var err error

	if rec.ID, err = uuid.Parse(id); err != nil {
		return rec, fmt.Errorf("parsing chunk id %q: %w", id, err)
	}

	if rec.Embedding, err = decodeVector(blob); err != nil {
		return rec, fmt.Errorf("decoding chunk %s embedding: %w", id, err)
	}

	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return rec, fmt.Errorf("parsing chunk %s created_at: %w", id, err)
	}

	return rec, nil
}

var _ ChunkStore = (*SQLiteChunksRepository)(nil)
