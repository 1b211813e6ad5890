package vectordb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/0xcro3dile/flowsupport/internal/domain/ports"
	"github.com/0xcro3dile/flowsupport/internal/logger"
)

// DBFile is the database created inside the index directory.
const DBFile = "vectors.db"

// SQLiteIndex implements ports.VectorIndex over one named collection in a SQLite file.
// Several collections may share the file.
type SQLiteIndex struct {
	mu         sync.RWMutex
	db         *sql.DB
	collection string
}

// NewSQLiteIndex opens (or creates) dir/vectors.db and binds to collection.
func NewSQLiteIndex(dir, collection string) (*SQLiteIndex, error) {
	if dir == "" {
		dir = "./data/index"
	}
	if collection == "" {
		return nil, fmt.Errorf("collection name is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, DBFile))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	idx := &SQLiteIndex{db: db, collection: collection}
	if err := idx.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return idx, nil
}

func (s *SQLiteIndex) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS records (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		document TEXT NOT NULL,
		metadata TEXT NOT NULL,
		embedding BLOB NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (collection, id)
	);
	`)
	return err
}

// Upsert stores records in a single transaction; an existing id is overwritten.
func (s *SQLiteIndex) Upsert(ctx context.Context, records []ports.IndexRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO records (collection, id, document, metadata, embedding)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		meta, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("encoding metadata for %s: %w", r.ID, err)
		}
		emb, err := json.Marshal(r.Embedding)
		if err != nil {
			return fmt.Errorf("encoding embedding for %s: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, s.collection, r.ID, r.Text, string(meta), emb); err != nil {
			return fmt.Errorf("inserting %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

// Query scans the collection and returns the n records nearest to embedding.
func (s *SQLiteIndex) Query(ctx context.Context, embedding []float32, n int) ([]ports.IndexHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document, metadata, embedding FROM records WHERE collection = ?`, s.collection)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var hits []ports.IndexHit
	for rows.Next() {
		var (
			hit      ports.IndexHit
			metaJSON string
			embJSON  []byte
			stored   []float32
		)
		if err := rows.Scan(&hit.ID, &hit.Text, &metaJSON, &embJSON); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if err := json.Unmarshal(embJSON, &stored); err != nil {
			logger.Warn("skipping record %s: corrupt embedding: %v", hit.ID, err)
			continue
		}
		if err := json.Unmarshal([]byte(metaJSON), &hit.Metadata); err != nil {
			logger.Warn("skipping record %s: corrupt metadata: %v", hit.ID, err)
			continue
		}
		hit.Distance = cosineDistance(embedding, stored)
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}
	return nearest(hits, n), nil
}

// Reset removes every record of the collection.
func (s *SQLiteIndex) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE collection = ?`, s.collection)
	return err
}

// Count returns the number of records in the collection.
func (s *SQLiteIndex) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE collection = ?`, s.collection).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}
