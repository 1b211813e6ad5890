package usecases

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/flowsupport/internal/domain/entities"
	"github.com/0xcro3dile/flowsupport/internal/domain/ports"
	"github.com/0xcro3dile/flowsupport/internal/domain/rules"
)

func words(prefix string, n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = fmt.Sprintf("%s%04d", prefix, i)
	}
	return strings.Join(w, " ")
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("%PDF-1.4"), 0o644))
	}
}

func newProcessor(ex ports.PDFExtractor, repo ports.ChunkRepository, dir string) *DocumentProcessor {
	return NewDocumentProcessor(ex, repo, rules.Default(), dir, 500, 50, 50)
}

func TestDocumentProcessor_ChunkDocument_SlidingWindow(t *testing.T) {
	p := newProcessor(nil, nil, "")
	doc := &ExtractedDocument{
		Source: "guide.pdf",
		Pages:  []ports.Page{{PageNumber: 2, Content: words("w", 1200)}},
	}

	chunks := p.ChunkDocument(doc)
	require.Len(t, chunks, 3)

	for i, c := range chunks {
		assert.Equal(t, i, c.ChunkID)
		assert.Equal(t, 2, c.Page)
		assert.Equal(t, "guide.pdf", c.Source)
		require.NoError(t, c.Validate())
	}
	assert.Len(t, strings.Fields(chunks[0].Text), 500)
	assert.True(t, strings.HasPrefix(chunks[1].Text, "w0450 "), "second window starts after chunk_size-overlap words")
	assert.True(t, strings.HasSuffix(chunks[0].Text, " w0499"))
	assert.Len(t, strings.Fields(chunks[2].Text), 300)
}

func TestDocumentProcessor_ChunkDocument_DropsShortChunksWithoutConsumingIDs(t *testing.T) {
	p := NewDocumentProcessor(nil, nil, rules.Default(), "", 10, 2, 50)
	doc := &ExtractedDocument{
		Source: "faq.pdf",
		Pages: []ports.Page{
			{PageNumber: 1, Content: "Too short to keep."},
			{PageNumber: 2, Content: words("abcde", 17)},
		},
	}

	chunks := p.ChunkDocument(doc)
	// windows start at 0, 8 and 16; the last holds a single 9-character word
	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].ChunkID)
	assert.Equal(t, 1, chunks[1].ChunkID)
	for _, c := range chunks {
		assert.GreaterOrEqual(t, len(c.Text), 50)
		assert.Equal(t, 2, c.Page)
	}
}

func TestDocumentProcessor_ChunkDocument_MinCharsCountsCharacters(t *testing.T) {
	p := newProcessor(nil, nil, "")
	short := strings.TrimSpace(strings.Repeat("ééé ", 10))
	require.Equal(t, 39, utf8.RuneCountInString(short))
	require.Greater(t, len(short), 50, "over the limit in bytes")

	doc := &ExtractedDocument{Source: "fr.pdf", Pages: []ports.Page{
		{PageNumber: 1, Content: short},
		{PageNumber: 2, Content: strings.Repeat("é", 50)},
	}}
	chunks := p.ChunkDocument(doc)
	require.Len(t, chunks, 1)
	assert.Equal(t, 2, chunks[0].Page)
	assert.Equal(t, 0, chunks[0].ChunkID)
}

func TestDocumentProcessor_ChunkDocument_AssignsCategory(t *testing.T) {
	p := newProcessor(nil, nil, "")
	doc := &ExtractedDocument{Source: "billing.pdf", Pages: []ports.Page{
		{PageNumber: 1, Content: "To cancel your Pro trial open Settings and choose Manage subscription from the menu."},
		{PageNumber: 2, Content: "Nothing in particular is described on this page of the handbook at all."},
	}}
	chunks := p.ChunkDocument(doc)
	require.Len(t, chunks, 2)
	assert.Equal(t, entities.CategoryBilling, *chunks[0].Category)
	assert.Equal(t, entities.CategoryGeneral, *chunks[1].Category)
}

func TestNewDocumentProcessor_InvalidSizesFallBack(t *testing.T) {
	p := NewDocumentProcessor(nil, nil, rules.Default(), "", 10, 10, 0)
	assert.Equal(t, DefaultChunkSize, p.chunkSize)
	assert.Equal(t, DefaultOverlap, p.overlap)
	assert.Equal(t, DefaultMinChars, p.minChars)
}

func TestDocumentProcessor_ExtractPDFText_DropsEmptyPages(t *testing.T) {
	ex := &mockExtractor{pages: map[string][]ports.Page{
		"guide.pdf": {
			{PageNumber: 1, Content: "Welcome to Flow"},
			{PageNumber: 2, Content: "  \n "},
			{PageNumber: 3, Content: "Hotkeys"},
		},
	}}
	p := newProcessor(ex, nil, "")

	doc, err := p.ExtractPDFText(context.Background(), "/docs/guide.pdf")
	require.NoError(t, err)
	assert.Equal(t, "guide.pdf", doc.Source)
	require.Len(t, doc.Pages, 2)
	assert.Equal(t, 1, doc.Pages[0].PageNumber)
	assert.Equal(t, 3, doc.Pages[1].PageNumber, "page numbers keep physical position")
	assert.Equal(t, 2, doc.TotalPages)
}

func TestDocumentProcessor_ProcessAllDocuments(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b-windows.pdf", "a-mac.pdf", "broken.pdf", "notes.txt")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive.pdf"), 0o755))

	ex := &mockExtractor{
		pages: map[string][]ports.Page{
			"a-mac.pdf":     {{PageNumber: 1, Content: words("mac", 600)}},
			"b-windows.pdf": {{PageNumber: 1, Content: words("win", 100)}, {PageNumber: 4, Content: words("win", 20)}},
			"broken.pdf":    nil,
		},
		fail: map[string]bool{"broken.pdf": true},
	}
	repo := &mockRepo{}
	p := newProcessor(ex, repo, dir)

	chunks, err := p.ProcessAllDocuments(context.Background())
	require.NoError(t, err, "a failing file must not abort the batch")

	require.Len(t, chunks, 4)
	for i, c := range chunks {
		assert.Equal(t, i, c.ChunkID, "ids are unique across the whole run")
	}
	assert.Equal(t, "a-mac.pdf", chunks[0].Source)
	assert.Equal(t, "a-mac.pdf", chunks[1].Source)
	assert.Equal(t, "b-windows.pdf", chunks[2].Source)
	assert.Equal(t, 4, chunks[3].Page)

	require.Len(t, repo.saved, 1)
	assert.Equal(t, chunks, repo.saved[0])

	again, err := p.ProcessAllDocuments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, chunks, again, "reprocessing is idempotent")
}

func TestDocumentProcessor_ProcessAllDocuments_EmptyDir(t *testing.T) {
	repo := &mockRepo{}
	p := newProcessor(&mockExtractor{}, repo, filepath.Join(t.TempDir(), "missing"))

	chunks, err := p.ProcessAllDocuments(context.Background())
	require.NoError(t, err)
	assert.Empty(t, chunks)
	require.Len(t, repo.saved, 1)
	assert.Empty(t, repo.saved[0])
}

func TestCategoryStats(t *testing.T) {
	chunks := []entities.Chunk{
		{Category: entities.CategoryPtr(entities.CategoryTechnical)},
		{Category: entities.CategoryPtr(entities.CategoryBilling)},
		{Category: entities.CategoryPtr(entities.CategoryTechnical)},
		{},
	}
	assert.Equal(t, []CategoryCount{
		{Category: entities.CategoryBilling, Count: 1},
		{Category: entities.CategoryGeneral, Count: 1},
		{Category: entities.CategoryTechnical, Count: 2},
	}, CategoryStats(chunks))
}
