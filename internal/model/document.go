// Package model defines the core domain models used throughout the application.
package model

import "strings"

// ExtractionMethod indicates how text was obtained from a source document.
type ExtractionMethod string

// Extraction method constants.
const (
	ExtractionNativeText ExtractionMethod = "native-text"
	ExtractionOCR        ExtractionMethod = "ocr"
)

// TextBlock is one contiguous run of extracted text, tagged with its
// position inside the source document.
type TextBlock struct {
	Text   string
	Page   int
	Region int
}

// SourceDocument represents the extracted text of a single input document.
// Immutable once created by the extraction aggregator.
type SourceDocument struct {
	ID           string
	OriginPath   string
	Blocks       []TextBlock
	Method       ExtractionMethod
	QualityScore float64
}

// Empty reports whether extraction yielded no usable text.
func (d *SourceDocument) Empty() bool {
	for _, b := range d.Blocks {
		if strings.TrimSpace(b.Text) != "" {
			return false
		}
	}
	return true
}

// Text joins all blocks into a single string, in block order.
func (d *SourceDocument) Text() string {
	parts := make([]string, 0, len(d.Blocks))
	for _, b := range d.Blocks {
		parts = append(parts, b.Text)
	}
	return strings.Join(parts, "\n")
}
