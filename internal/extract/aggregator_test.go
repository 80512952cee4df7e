package extract

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formflow/internal/model"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestAggregateOrderAndEmptyDocuments(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "contract.txt", "Borrower Name: Maria Keller\n\nLoan Amount: 10,000.00\n")
	missing := filepath.Join(dir, "does-not-exist.txt")
	unsupported := writeFile(t, dir, "photo.jpg", "not text")

	var seen atomic.Int32
	agg := NewAggregator(NewPlainTextProvider())
	agg.OnDocument = func(_ model.SourceDocument) { seen.Add(1) }

	docs, corpus, err := agg.Aggregate(context.Background(), []string{good, missing, unsupported})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, int32(3), seen.Load())

	assert.Equal(t, "doc-01-contract.txt", docs[0].ID)
	assert.False(t, docs[0].Empty())
	assert.Equal(t, 1.0, docs[0].QualityScore)
	assert.Len(t, docs[0].Blocks, 2)

	// An unreadable document is recorded, not fatal.
	assert.Equal(t, "doc-02-does-not-exist.txt", docs[1].ID)
	assert.True(t, docs[1].Empty())
	assert.Equal(t, 0.0, docs[1].QualityScore)

	// No provider claims it; same degradation.
	assert.True(t, docs[2].Empty())

	assert.Len(t, corpus.Blocks(), 2, "only the readable document contributes text")
}

func TestAggregateCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agg := NewAggregator(NewPlainTextProvider())
	_, _, err := agg.Aggregate(ctx, []string{"a.txt", "b.txt"})
	assert.Error(t, err)
}

func TestPlainTextProvider(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.md", "first paragraph\nstill first\n\nsecond paragraph\n")

	p := NewPlainTextProvider()
	assert.True(t, p.Supports(path))
	assert.False(t, p.Supports(filepath.Join(dir, "scan.pdf")))

	blocks, method, quality, err := p.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, model.ExtractionNativeText, method)
	assert.Equal(t, 1.0, quality)
	require.Len(t, blocks, 2)
	assert.Equal(t, "first paragraph\nstill first", blocks[0].Text)
	assert.Equal(t, 1, blocks[1].Region)
}
