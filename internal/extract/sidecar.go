package extract

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"formflow/internal/model"
)

// SidecarSuffix names the OCR sidecar file an external OCR collaborator
// leaves next to a scanned document.
const SidecarSuffix = ".ocr.txt"

// defaultOCRQuality is assumed when a sidecar carries no confidence header.
const defaultOCRQuality = 0.5

// OCRSidecarProvider reads OCR output produced by an external OCR
// collaborator. The sidecar is plain text, pages separated by form feed,
// with optional "# confidence: 0.83" header lines.
type OCRSidecarProvider struct{}

// NewOCRSidecarProvider creates an OCR sidecar provider.
func NewOCRSidecarProvider() *OCRSidecarProvider {
	return &OCRSidecarProvider{}
}

// Supports reports whether an OCR sidecar exists for the path.
func (p *OCRSidecarProvider) Supports(path string) bool {
	_, err := os.Stat(path + SidecarSuffix)
	return err == nil
}

// Extract reads the sidecar, one block per OCR page.
func (p *OCRSidecarProvider) Extract(_ context.Context, path string) ([]model.TextBlock, model.ExtractionMethod, float64, error) {
	f, err := os.Open(path + SidecarSuffix)
	if err != nil {
		return nil, model.ExtractionOCR, 0, fmt.Errorf("cannot open OCR sidecar: %w", err)
	}
	defer func() { _ = f.Close() }()

	quality := defaultOCRQuality
	var body strings.Builder

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			if q, ok := parseConfidenceHeader(line); ok {
				quality = q
			}
			continue
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, model.ExtractionOCR, 0, fmt.Errorf("failed to read OCR sidecar: %w", err)
	}

	var blocks []model.TextBlock
	for i, pageText := range strings.Split(body.String(), "\f") {
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		blocks = append(blocks, model.TextBlock{
			Text: pageText,
			Page: i + 1,
		})
	}

	return blocks, model.ExtractionOCR, quality, nil
}

func parseConfidenceHeader(line string) (float64, bool) {
	rest := strings.TrimSpace(strings.TrimPrefix(line, "#"))
	key, value, found := strings.Cut(rest, ":")
	if !found || strings.TrimSpace(strings.ToLower(key)) != "confidence" {
		return 0, false
	}
	q, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || q < 0 || q > 1 {
		return 0, false
	}
	return q, true
}
