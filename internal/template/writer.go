package template

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Writer applies resolved values to a text-based template and writes the
// filled artifact.
type Writer struct{}

// NewWriter creates a template writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Fill replaces every {{key}} marker that has a value and writes the
// result to outputPath. Markers without a value are left in place for
// post-fill validation to catch. Unknown keys in values are ignored.
func (w *Writer) Fill(_ context.Context, templatePath, outputPath string, values map[string]string) error {
	data, err := os.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("cannot read template: %w", err)
	}

	filled := placeholderPattern.ReplaceAllStringFunc(string(data), func(marker string) string {
		key := placeholderPattern.FindStringSubmatch(marker)[1]
		if value, ok := values[key]; ok {
			return value
		}
		return marker
	})

	if err := os.MkdirAll(filepath.Dir(outputPath), 0750); err != nil {
		return fmt.Errorf("cannot create output directory: %w", err)
	}

	if err := os.WriteFile(outputPath, []byte(filled), 0600); err != nil {
		return fmt.Errorf("cannot write filled document: %w", err)
	}

	return nil
}

// LeftoverTokens re-parses a filled artifact for surviving placeholder
// keys; validation uses it for the round-trip check.
func (w *Writer) LeftoverTokens(path string) ([]string, error) {
	return LeftoverTokens(path)
}

// LeftoverTokens re-parses a filled artifact and returns any placeholder
// keys that survived the fill.
func LeftoverTokens(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read filled document: %w", err)
	}

	var keys []string
	seen := make(map[string]bool)
	for _, m := range placeholderPattern.FindAllStringSubmatch(string(data), -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			keys = append(keys, m[1])
		}
	}
	return keys, nil
}
