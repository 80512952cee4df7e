package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"formflow/internal/model"
)

// PlainTextProvider handles already-textual documents.
type PlainTextProvider struct{}

// NewPlainTextProvider creates a plain text provider.
func NewPlainTextProvider() *PlainTextProvider {
	return &PlainTextProvider{}
}

// Supports reports whether the path is a plain text document.
func (p *PlainTextProvider) Supports(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".txt") || strings.HasSuffix(lower, ".text") || strings.HasSuffix(lower, ".md")
}

// Extract splits the file into paragraph blocks.
func (p *PlainTextProvider) Extract(_ context.Context, path string) ([]model.TextBlock, model.ExtractionMethod, float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.ExtractionNativeText, 0, fmt.Errorf("cannot read file: %w", err)
	}

	var blocks []model.TextBlock
	region := 0
	for _, para := range strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n\n") {
		if strings.TrimSpace(para) == "" {
			continue
		}
		blocks = append(blocks, model.TextBlock{
			Text:   para,
			Page:   1,
			Region: region,
		})
		region++
	}

	return blocks, model.ExtractionNativeText, 1.0, nil
}
