// Package usecases contains application business rules.
// Usecases orchestrate entities and depend only on port interfaces.
package usecases

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/0xcro3dile/flowsupport/internal/domain/entities"
	"github.com/0xcro3dile/flowsupport/internal/domain/ports"
	"github.com/0xcro3dile/flowsupport/internal/domain/rules"
	"github.com/0xcro3dile/flowsupport/internal/logger"
)

// Chunking defaults, in words and characters.
const (
	DefaultChunkSize = 500
	DefaultOverlap   = 50
	DefaultMinChars  = 50
)

// ExtractedDocument is the per-page text of one PDF.
type ExtractedDocument struct {
	Source     string
	Pages      []ports.Page
	TotalPages int
}

// DocumentProcessor turns a directory of PDF manuals into categorized chunks.
type DocumentProcessor struct {
	extractor ports.PDFExtractor
	repo      ports.ChunkRepository
	rules     rules.Rules
	rawDir    string
	chunkSize int
	overlap   int
	minChars  int
}

// NewDocumentProcessor creates a DocumentProcessor with injected dependencies.
// Invalid sizes fall back to the defaults.
func NewDocumentProcessor(
	extractor ports.PDFExtractor,
	repo ports.ChunkRepository,
	r rules.Rules,
	rawDir string,
	chunkSize, overlap, minChars int,
) *DocumentProcessor {
	if chunkSize <= 0 || overlap < 0 || overlap >= chunkSize {
		chunkSize, overlap = DefaultChunkSize, DefaultOverlap
	}
	if minChars <= 0 {
		minChars = DefaultMinChars
	}
	return &DocumentProcessor{
		extractor: extractor,
		repo:      repo,
		rules:     r,
		rawDir:    rawDir,
		chunkSize: chunkSize,
		overlap:   overlap,
		minChars:  minChars,
	}
}

// ExtractPDFText reads a PDF and keeps only the pages that carry text.
func (p *DocumentProcessor) ExtractPDFText(ctx context.Context, path string) (*ExtractedDocument, error) {
	logger.Info("processing %s", filepath.Base(path))

	pages, err := p.extractor.ExtractPages(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", filepath.Base(path), err)
	}

	doc := &ExtractedDocument{Source: filepath.Base(path)}
	for _, pg := range pages {
		if strings.TrimSpace(pg.Content) == "" {
			continue
		}
		doc.Pages = append(doc.Pages, pg)
	}
	doc.TotalPages = len(doc.Pages)
	return doc, nil
}

// ChunkDocument splits every page into overlapping word windows.
// Chunk ids start at 0 for this document.
func (p *DocumentProcessor) ChunkDocument(doc *ExtractedDocument) []entities.Chunk {
	return p.chunkDocument(doc, 0)
}

func (p *DocumentProcessor) chunkDocument(doc *ExtractedDocument, firstID int) []entities.Chunk {
	var chunks []entities.Chunk
	step := p.chunkSize - p.overlap

	for _, page := range doc.Pages {
		words := strings.Fields(page.Content)
		for start := 0; start < len(words); start += step {
			end := start + p.chunkSize
			if end > len(words) {
				end = len(words)
			}
			text := strings.Join(words[start:end], " ")
			if utf8.RuneCountInString(text) < p.minChars {
				continue
			}
			chunks = append(chunks, entities.Chunk{
				Text:     text,
				Source:   doc.Source,
				Page:     page.PageNumber,
				ChunkID:  firstID + len(chunks),
				Category: entities.CategoryPtr(p.CategorizeChunk(text)),
			})
		}
	}
	return chunks
}

// CategorizeChunk assigns the first matching category, or general.
func (p *DocumentProcessor) CategorizeChunk(text string) entities.QueryCategory {
	return p.rules.Categorize(text)
}

// ProcessAllDocuments chunks every PDF in the raw directory and persists the result.
// A file that fails is logged and skipped.
func (p *DocumentProcessor) ProcessAllDocuments(ctx context.Context) ([]entities.Chunk, error) {
	files, err := p.discover()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		logger.Warn("no PDF files found in %s", p.rawDir)
	} else {
		logger.Info("found %d PDF files", len(files))
	}

	all := []entities.Chunk{}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := p.ExtractPDFText(ctx, f)
		if err != nil {
			logger.Error("processing %s: %v", filepath.Base(f), err)
			continue
		}
		chunks := p.chunkDocument(doc, len(all))
		all = append(all, chunks...)
		logger.Info("extracted %d chunks from %s", len(chunks), doc.Source)
	}

	if err := p.repo.Save(ctx, all); err != nil {
		return nil, fmt.Errorf("saving chunks: %w", err)
	}
	logger.Info("processed %d total chunks from %d documents", len(all), len(files))
	return all, nil
}

// discover lists PDFs in lexical order so reprocessing assigns the same ids.
func (p *DocumentProcessor) discover() ([]string, error) {
	entries, err := os.ReadDir(p.rawDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", p.rawDir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		files = append(files, filepath.Join(p.rawDir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// CategoryCount is one row of the chunk distribution.
type CategoryCount struct {
	Category entities.QueryCategory
	Count    int
}

// CategoryStats returns the chunk distribution per category, sorted by name.
func CategoryStats(chunks []entities.Chunk) []CategoryCount {
	counts := map[entities.QueryCategory]int{}
	for _, c := range chunks {
		counts[c.CategoryOrDefault()]++
	}
	out := make([]CategoryCount, 0, len(counts))
	for cat, n := range counts {
		out = append(out, CategoryCount{Category: cat, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}
