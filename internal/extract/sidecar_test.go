package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formflow/internal/model"
)

func TestOCRSidecarProvider(t *testing.T) {
	dir := t.TempDir()
	scan := writeFile(t, dir, "scan.pdf", "%PDF-1.4 pretend scan")
	writeFile(t, dir, "scan.pdf"+SidecarSuffix,
		"# confidence: 0.83\nBorrower Name: Maria Keller\n\fLoan Amount: 10,000.00\n")

	p := NewOCRSidecarProvider()
	assert.True(t, p.Supports(scan))

	blocks, method, quality, err := p.Extract(context.Background(), scan)
	require.NoError(t, err)
	assert.Equal(t, model.ExtractionOCR, method)
	assert.Equal(t, 0.83, quality)
	require.Len(t, blocks, 2)
	assert.Equal(t, 1, blocks[0].Page)
	assert.Equal(t, 2, blocks[1].Page)
	assert.Contains(t, blocks[0].Text, "Maria Keller")
	assert.Contains(t, blocks[1].Text, "10,000.00")
}

func TestOCRSidecarDefaultQuality(t *testing.T) {
	dir := t.TempDir()
	scan := writeFile(t, dir, "scan.pdf", "pretend scan")
	writeFile(t, dir, "scan.pdf"+SidecarSuffix, "just one page of text\n")

	p := NewOCRSidecarProvider()
	_, _, quality, err := p.Extract(context.Background(), scan)
	require.NoError(t, err)
	assert.Equal(t, defaultOCRQuality, quality)
}

func TestOCRSidecarAbsent(t *testing.T) {
	dir := t.TempDir()
	scan := writeFile(t, dir, "scan.pdf", "pretend scan")

	p := NewOCRSidecarProvider()
	assert.False(t, p.Supports(scan))
}

func TestParseConfidenceHeader(t *testing.T) {
	tests := []struct {
		name string
		line string
		want float64
		ok   bool
	}{
		{name: "plain", line: "# confidence: 0.83", want: 0.83, ok: true},
		{name: "case insensitive key", line: "# Confidence: 1", want: 1, ok: true},
		{name: "other header", line: "# engine: tesseract", ok: false},
		{name: "out of range", line: "# confidence: 1.5", ok: false},
		{name: "not a number", line: "# confidence: high", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseConfidenceHeader(tt.line)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
