package usecases

import (
	"context"
	"fmt"
	"strconv"

	"github.com/0xcro3dile/flowsupport/internal/domain/entities"
	"github.com/0xcro3dile/flowsupport/internal/domain/ports"
	"github.com/0xcro3dile/flowsupport/internal/logger"
)

// DefaultBatchSize bounds the payload of a single upsert.
const DefaultBatchSize = 100

// SearchResult holds index-aligned hits, most similar first.
type SearchResult struct {
	Documents []string
	Metadatas []ports.Metadata
	Distances []float64
}

// Len returns the number of hits.
func (r SearchResult) Len() int {
	return len(r.Documents)
}

// VectorStore embeds chunks into a vector collection and searches it by query text.
type VectorStore struct {
	embedder  ports.EmbeddingService
	index     ports.VectorIndex
	batchSize int
}

// NewVectorStore creates a VectorStore with injected dependencies.
func NewVectorStore(embedder ports.EmbeddingService, index ports.VectorIndex, batchSize int) *VectorStore {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &VectorStore{embedder: embedder, index: index, batchSize: batchSize}
}

// LoadDocuments embeds and upserts chunks keyed by their chunk id.
func (s *VectorStore) LoadDocuments(ctx context.Context, chunks []entities.Chunk) error {
	for start := 0; start < len(chunks); start += s.batchSize {
		end := start + s.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}
		embeddings, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding batch %d-%d: %w", start, end, err)
		}
		if len(embeddings) != len(batch) {
			return fmt.Errorf("embedding batch %d-%d: got %d vectors for %d texts", start, end, len(embeddings), len(batch))
		}

		records := make([]ports.IndexRecord, len(batch))
		for i, c := range batch {
			records[i] = ports.IndexRecord{
				ID:   strconv.Itoa(c.ChunkID),
				Text: c.Text,
				Metadata: ports.Metadata{
					Source:   c.Source,
					Page:     c.Page,
					ChunkID:  c.ChunkID,
					Category: string(c.CategoryOrDefault()),
				},
				Embedding: embeddings[i],
			}
		}
		if err := s.index.Upsert(ctx, records); err != nil {
			return fmt.Errorf("upserting batch %d-%d: %w", start, end, err)
		}
		logger.Debug("indexed chunks %d-%d", start, end)
	}
	return nil
}

// Search returns the n nearest chunks to query.
func (s *VectorStore) Search(ctx context.Context, query string, n int) (SearchResult, error) {
	if n <= 0 {
		n = 5
	}
	emb, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return SearchResult{}, fmt.Errorf("embedding query: %w", err)
	}
	hits, err := s.index.Query(ctx, emb, n)
	if err != nil {
		return SearchResult{}, fmt.Errorf("querying index: %w", err)
	}

	res := SearchResult{
		Documents: make([]string, 0, len(hits)),
		Metadatas: make([]ports.Metadata, 0, len(hits)),
		Distances: make([]float64, 0, len(hits)),
	}
	for _, h := range hits {
		res.Documents = append(res.Documents, h.Text)
		res.Metadatas = append(res.Metadatas, h.Metadata)
		res.Distances = append(res.Distances, h.Distance)
	}
	return res, nil
}

// Clear drops every indexed chunk.
func (s *VectorStore) Clear(ctx context.Context) error {
	return s.index.Reset(ctx)
}

// Count returns the number of indexed chunks.
func (s *VectorStore) Count(ctx context.Context) (int, error) {
	return s.index.Count(ctx)
}
