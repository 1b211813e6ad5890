// Package chunkfile persists processed chunks as a JSON array on disk.
package chunkfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/0xcro3dile/flowsupport/internal/domain/entities"
)

// ErrNoChunks is returned by Load when no chunk file has been written yet.
var ErrNoChunks = errors.New("no processed chunks")

// Repository implements ports.ChunkRepository over a single JSON file.
type Repository struct {
	path string
}

// NewRepository creates a repository backed by path.
func NewRepository(path string) *Repository {
	return &Repository{path: path}
}

// Path returns the backing file.
func (r *Repository) Path() string {
	return r.path
}

// Save writes chunks as an indented UTF-8 JSON array, replacing the previous file.
// A nil slice is written as [].
func (r *Repository) Save(ctx context.Context, chunks []entities.Chunk) error {
	if chunks == nil {
		chunks = []entities.Chunk{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(chunks); err != nil {
		return fmt.Errorf("encoding chunks: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".chunks-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing chunks: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing chunks: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("replacing %s: %w", r.path, err)
	}
	return nil
}

// Load reads the chunk file and validates every entry.
func (r *Repository) Load(ctx context.Context) ([]entities.Chunk, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s does not exist", ErrNoChunks, r.path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", r.path, err)
	}

	var chunks []entities.Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", r.path, err)
	}
	if err := validateShape(data); err != nil {
		return nil, fmt.Errorf("%s: %w", r.path, err)
	}
	for i, c := range chunks {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("chunk %d in %s: %w", i, r.path, err)
		}
	}
	return chunks, nil
}
