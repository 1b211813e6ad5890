package vectordb

import (
	"context"
	"sync"

	"github.com/0xcro3dile/flowsupport/internal/domain/ports"
)

// MemoryIndex is a process-local ports.VectorIndex. Contents are lost on exit.
type MemoryIndex struct {
	mu      sync.RWMutex
	records map[string]ports.IndexRecord
}

// NewMemoryIndex creates an empty in-memory collection.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{records: make(map[string]ports.IndexRecord)}
}

// Upsert stores records; an existing id is overwritten.
func (m *MemoryIndex) Upsert(ctx context.Context, records []ports.IndexRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range records {
		r.Embedding = append([]float32(nil), r.Embedding...)
		m.records[r.ID] = r
	}
	return nil
}

// Query returns the n records nearest to embedding.
func (m *MemoryIndex) Query(ctx context.Context, embedding []float32, n int) ([]ports.IndexHit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hits := make([]ports.IndexHit, 0, len(m.records))
	for _, r := range m.records {
		hits = append(hits, ports.IndexHit{
			ID:       r.ID,
			Text:     r.Text,
			Metadata: r.Metadata,
			Distance: cosineDistance(embedding, r.Embedding),
		})
	}
	return nearest(hits, n), nil
}

// Reset drops every record.
func (m *MemoryIndex) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = make(map[string]ports.IndexRecord)
	return nil
}

// Count returns the number of records.
func (m *MemoryIndex) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}
