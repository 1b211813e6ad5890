package usecases

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/0xcro3dile/flowsupport/internal/domain/entities"
	"github.com/0xcro3dile/flowsupport/internal/domain/ports"
)

// mockEmbedder implements ports.EmbeddingService for testing
type mockEmbedder struct {
	embedFn    func(text string) ([]float32, error)
	batchCalls []int
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.embedFn != nil {
		return m.embedFn(text)
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.batchCalls = append(m.batchCalls, len(texts))
	result := make([][]float32, len(texts))
	for i := range texts {
		emb, err := m.Embed(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		result[i] = emb
	}
	return result, nil
}

// mockIndex implements ports.VectorIndex with brute-force cosine distance
type mockIndex struct {
	mu       sync.Mutex
	records  map[string]ports.IndexRecord
	upserts  int
	queryErr error
}

func newMockIndex() *mockIndex {
	return &mockIndex{records: map[string]ports.IndexRecord{}}
}

func (m *mockIndex) Upsert(ctx context.Context, records []ports.IndexRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	for _, r := range records {
		m.records[r.ID] = r
	}
	return nil
}

func (m *mockIndex) Query(ctx context.Context, embedding []float32, n int) ([]ports.IndexHit, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var hits []ports.IndexHit
	for _, r := range m.records {
		hits = append(hits, ports.IndexHit{ID: r.ID, Text: r.Text, Metadata: r.Metadata, Distance: 1 - cosine(embedding, r.Embedding)})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance == hits[j].Distance {
			return hits[i].ID < hits[j].ID
		}
		return hits[i].Distance < hits[j].Distance
	})
	if len(hits) > n {
		hits = hits[:n]
	}
	return hits, nil
}

func (m *mockIndex) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = map[string]ports.IndexRecord{}
	return nil
}

func (m *mockIndex) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records), nil
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// mockRetriever returns canned search results
type mockRetriever struct {
	result  SearchResult
	err     error
	queries []string
}

func (m *mockRetriever) Search(ctx context.Context, query string, n int) (SearchResult, error) {
	m.queries = append(m.queries, query)
	if m.err != nil {
		return SearchResult{}, m.err
	}
	return m.result, nil
}

// withDistances builds a result with one hit per distance
func withDistances(distances ...float64) SearchResult {
	var r SearchResult
	for i, d := range distances {
		r.Documents = append(r.Documents, "Flow documentation excerpt number "+string(rune('A'+i)))
		r.Metadatas = append(r.Metadatas, ports.Metadata{Source: "guide.pdf", Page: i + 1, ChunkID: i, Category: "product"})
		r.Distances = append(r.Distances, d)
	}
	return r
}

// mockLLM implements ports.LLMService for testing
type mockLLM struct {
	response string
	err      error
	calls    int
	system   string
	user     string
}

func (m *mockLLM) Generate(ctx context.Context, systemInstruction, userInstruction string) (string, error) {
	m.calls++
	m.system, m.user = systemInstruction, userInstruction
	if m.err != nil {
		return "", m.err
	}
	if m.response != "" {
		return m.response, nil
	}
	return "mocked answer", nil
}

// mockExtractor serves pages from memory keyed by file name
type mockExtractor struct {
	pages map[string][]ports.Page
	fail  map[string]bool
}

func (m *mockExtractor) ExtractPages(ctx context.Context, path string) ([]ports.Page, error) {
	for name, pages := range m.pages {
		if len(path) >= len(name) && path[len(path)-len(name):] == name {
			if m.fail[name] {
				return nil, errors.New("corrupt xref table")
			}
			return pages, nil
		}
	}
	return nil, errors.New("no such file")
}

// mockRepo implements ports.ChunkRepository in memory
type mockRepo struct {
	saved [][]entities.Chunk
}

func (m *mockRepo) Save(ctx context.Context, chunks []entities.Chunk) error {
	m.saved = append(m.saved, append([]entities.Chunk(nil), chunks...))
	return nil
}

func (m *mockRepo) Load(ctx context.Context) ([]entities.Chunk, error) {
	if len(m.saved) == 0 {
		return nil, nil
	}
	return m.saved[len(m.saved)-1], nil
}
