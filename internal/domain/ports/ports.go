// Package ports defines interfaces for external dependencies.
// Usecases depend on these abstractions; adapters implement them.
package ports

import (
	"context"

	"github.com/0xcro3dile/flowsupport/internal/domain/entities"
)

// Page is the text of one physical PDF page.
type Page struct {
	PageNumber int
	Content    string
}

// PDFExtractor reads the text of a PDF page by page.
type PDFExtractor interface {
	// ExtractPages returns every page in physical order, 1-based.
	// Pages with no text may be returned with empty Content.
	ExtractPages(ctx context.Context, path string) ([]Page, error)
}

// EmbeddingService generates vector embeddings for text.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, index-aligned with texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// IndexRecord is one document in a vector collection.
type IndexRecord struct {
	ID        string
	Text      string
	Metadata  Metadata
	Embedding []float32
}

// Metadata is stored alongside each indexed chunk.
type Metadata struct {
	Source   string `json:"source"`
	Page     int    `json:"page"`
	ChunkID  int    `json:"chunk_id"`
	Category string `json:"category"`
}

// IndexHit is a record returned from a nearest-neighbor query.
type IndexHit struct {
	ID       string
	Text     string
	Metadata Metadata
	Distance float64
}

// VectorIndex persists embeddings in a named collection and answers nearest-neighbor queries.
type VectorIndex interface {
	// Upsert stores records; an existing id is overwritten.
	Upsert(ctx context.Context, records []IndexRecord) error

	// Query returns at most n hits ordered by increasing distance.
	Query(ctx context.Context, embedding []float32, n int) ([]IndexHit, error)

	// Reset drops and recreates the collection.
	Reset(ctx context.Context) error

	// Count returns the number of records in the collection.
	Count(ctx context.Context) (int, error)
}

// LLMService generates text from the hosted language model.
type LLMService interface {
	// Generate issues a single request with a system and a user instruction.
	Generate(ctx context.Context, systemInstruction, userInstruction string) (string, error)
}

// ChunkRepository persists the processed chunk set.
type ChunkRepository interface {
	// Save overwrites any previously saved chunks.
	Save(ctx context.Context, chunks []entities.Chunk) error

	// Load returns the saved chunks in their persisted order.
	Load(ctx context.Context) ([]entities.Chunk, error)
}

// FileWatcher monitors a directory for changes.
type FileWatcher interface {
	// Watch starts monitoring the directory and emits events.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)

func (op FileOperation) String() string {
	switch op {
	case FileCreated:
		return "created"
	case FileModified:
		return "modified"
	case FileDeleted:
		return "deleted"
	}
	return "unknown"
}
