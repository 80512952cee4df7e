package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"formflow/internal/common"
	"formflow/internal/model"
)

// defaultMaxPDFSize caps how large a PDF the provider will open.
const defaultMaxPDFSize = 100 * 1024 * 1024

// PDFProvider extracts the native text layer of PDF documents.
type PDFProvider struct {
	maxFileSize int64
}

// NewPDFProvider creates a PDF text provider.
func NewPDFProvider() *PDFProvider {
	return &PDFProvider{maxFileSize: defaultMaxPDFSize}
}

// Supports reports whether the path looks like a PDF file.
func (p *PDFProvider) Supports(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".pdf")
}

// Extract validates the PDF structurally, then reads its text layer one
// page per block. A structurally broken or text-free PDF returns an
// error; the aggregator records it as empty rather than failing.
func (p *PDFProvider) Extract(_ context.Context, path string) ([]model.TextBlock, model.ExtractionMethod, float64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, model.ExtractionNativeText, 0, fmt.Errorf("cannot access file: %w", err)
	}
	if info.Size() > p.maxFileSize {
		return nil, model.ExtractionNativeText, 0,
			fmt.Errorf("file too large: %d bytes (max: %d bytes)", info.Size(), p.maxFileSize)
	}

	if err := api.ValidateFile(path, nil); err != nil {
		return nil, model.ExtractionNativeText, 0, fmt.Errorf("invalid PDF structure: %w", err)
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, model.ExtractionNativeText, 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer func() { _ = f.Close() }()

	var blocks []model.TextBlock
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			// Keep going; one unreadable page should not sink the document.
			continue
		}

		if strings.TrimSpace(content) == "" {
			continue
		}

		blocks = append(blocks, model.TextBlock{
			Text: content,
			Page: pageNum,
		})
	}

	if len(blocks) == 0 {
		return nil, model.ExtractionNativeText, 0, fmt.Errorf("%w: no text layer in %s", common.ErrExtractionEmpty, path)
	}

	return blocks, model.ExtractionNativeText, 1.0, nil
}
