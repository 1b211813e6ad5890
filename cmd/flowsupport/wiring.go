package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/0xcro3dile/flowsupport/internal/adapters/chunkfile"
	"github.com/0xcro3dile/flowsupport/internal/adapters/embedding"
	"github.com/0xcro3dile/flowsupport/internal/adapters/llm"
	"github.com/0xcro3dile/flowsupport/internal/adapters/parser"
	"github.com/0xcro3dile/flowsupport/internal/adapters/vectordb"
	"github.com/0xcro3dile/flowsupport/internal/domain/ports"
	"github.com/0xcro3dile/flowsupport/internal/domain/usecases"
	"github.com/0xcro3dile/flowsupport/internal/logger"
)

func (a *app) chunkRepo() *chunkfile.Repository {
	return chunkfile.NewRepository(a.cfg.Paths.ChunksFile)
}

func (a *app) processor() *usecases.DocumentProcessor {
	c := a.cfg.Chunking
	return usecases.NewDocumentProcessor(
		parser.NewPDFExtractor(),
		a.chunkRepo(),
		a.cfg.RulesOrDefault(),
		a.cfg.Paths.RawDir,
		c.ChunkSize, c.Overlap, c.MinChars,
	)
}

func (a *app) newEmbedder() ports.EmbeddingService {
	e := a.cfg.Embedder
	if e.Provider == "openai" {
		return embedding.NewOpenAIEmbedder(os.Getenv(e.APIKeyEnv), e.BaseURL, e.Model)
	}
	return embedding.NewOllamaEmbedder(e.BaseURL, e.Model)
}

func (a *app) newLLM() ports.LLMService {
	l := a.cfg.LLM
	if l.Provider == "ollama" {
		return llm.NewOllamaLLM(l.BaseURL, l.Model, l.Timeout())
	}
	return llm.NewOpenAILLM(l.APIKey(), l.BaseURL, l.Model, l.Timeout())
}

// index opens the configured vector collection. The returned func releases it.
func (a *app) index() (ports.VectorIndex, func(), error) {
	vs := a.cfg.VectorStore
	if vs.Backend == "memory" {
		return vectordb.NewMemoryIndex(), func() {}, nil
	}
	idx, err := vectordb.NewSQLiteIndex(a.cfg.Paths.IndexDir, vs.Collection)
	if err != nil {
		return nil, nil, err
	}
	return idx, func() { idx.Close() }, nil
}

// vectorStore opens the collection. A memory collection starts empty, so it is
// filled from the chunk file straight away.
func (a *app) vectorStore(ctx context.Context) (*usecases.VectorStore, func(), error) {
	idx, closeFn, err := a.index()
	if err != nil {
		return nil, nil, err
	}
	store := usecases.NewVectorStore(a.newEmbedder(), idx, a.cfg.VectorStore.BatchSize)
	if a.cfg.VectorStore.Backend == "memory" {
		if _, err := a.reload(ctx, store); err != nil {
			closeFn()
			return nil, nil, err
		}
	}
	return store, closeFn, nil
}

// reload replaces the collection contents with the chunk file.
func (a *app) reload(ctx context.Context, store *usecases.VectorStore) (int, error) {
	chunks, err := a.chunkRepo().Load(ctx)
	if errors.Is(err, chunkfile.ErrNoChunks) {
		return 0, fmt.Errorf("%w; run `flowsupport process` first", err)
	}
	if err != nil {
		return 0, err
	}
	if err := store.Clear(ctx); err != nil {
		return 0, fmt.Errorf("clearing collection: %w", err)
	}
	if err := store.LoadDocuments(ctx, chunks); err != nil {
		return 0, err
	}
	logger.Info("loaded %d chunks into %s", len(chunks), a.cfg.VectorStore.Collection)
	return len(chunks), nil
}

// agent wires the full answering pipeline. Missing credentials are fatal here.
func (a *app) agent(ctx context.Context) (*usecases.SupportAgent, *usecases.VectorStore, func(), error) {
	if err := a.cfg.RequireCredentials(); err != nil {
		return nil, nil, nil, err
	}
	store, closeFn, err := a.vectorStore(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	if n, err := store.Count(ctx); err == nil && n == 0 {
		logger.Warn("collection %s is empty; run `flowsupport load` first", a.cfg.VectorStore.Collection)
	}
	ag := usecases.NewSupportAgent(store, a.newLLM(), a.cfg.RulesOrDefault(), a.cfg.VectorStore.NResults)
	return ag, store, closeFn, nil
}
