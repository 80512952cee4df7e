// Package template discovers the required-field schema of a form
// template and writes the filled artifact.
package template

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"formflow/internal/model"
)

// placeholderPattern matches {{key}} markers in the primary template.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.\-]+)\s*\}\}`)

// contextRadius is how much surrounding text is kept per placeholder.
const contextRadius = 80

// PlaceholderProvider parses placeholder markers out of text-based
// templates and annotation files.
type PlaceholderProvider struct{}

// NewPlaceholderProvider creates a schema provider for {{key}} templates.
func NewPlaceholderProvider() *PlaceholderProvider {
	return &PlaceholderProvider{}
}

// Placeholders returns every {{key}} marker in template order with its
// surrounding text. Duplicate keys collapse to their first occurrence.
func (p *PlaceholderProvider) Placeholders(_ context.Context, templatePath string) ([]model.Placeholder, error) {
	data, err := os.ReadFile(templatePath)
	if err != nil {
		return nil, fmt.Errorf("cannot read template: %w", err)
	}

	text := string(data)
	seen := make(map[string]bool)
	var out []model.Placeholder

	for _, loc := range placeholderPattern.FindAllStringSubmatchIndex(text, -1) {
		key := text[loc[2]:loc[3]]
		if seen[key] {
			continue
		}
		seen[key] = true

		lo := loc[0] - contextRadius
		if lo < 0 {
			lo = 0
		}
		hi := loc[1] + contextRadius
		if hi > len(text) {
			hi = len(text)
		}

		out = append(out, model.Placeholder{
			Key:      key,
			Before:   text[lo:loc[0]],
			After:    text[loc[1]:hi],
			Position: len(out),
		})
	}

	return out, nil
}

// Annotations parses the annotated rendering of a template. Each
// non-comment line reads "key | type | free text", where type may be
// "enum(a,b,c)" to constrain allowed values. Unknown types fall back to
// text so a sloppy annotation never blocks discovery.
func (p *PlaceholderProvider) Annotations(_ context.Context, annotationPath string) (map[string]model.FieldAnnotation, error) {
	f, err := os.Open(annotationPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read annotations: %w", err)
	}
	defer func() { _ = f.Close() }()

	out := make(map[string]model.FieldAnnotation)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "|", 3)
		key := strings.TrimSpace(parts[0])
		if key == "" {
			continue
		}

		ann := model.FieldAnnotation{Key: key, TypeHint: model.FieldText}
		if len(parts) > 1 {
			ann.TypeHint, ann.AllowedValues = parseTypeSpec(strings.TrimSpace(parts[1]))
		}
		if len(parts) > 2 {
			ann.Comment = strings.TrimSpace(parts[2])
		}
		out[key] = ann
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read annotations: %w", err)
	}

	return out, nil
}

func parseTypeSpec(spec string) (model.FieldType, []string) {
	lower := strings.ToLower(spec)

	if strings.HasPrefix(lower, "enum(") && strings.HasSuffix(lower, ")") {
		inner := spec[len("enum(") : len(spec)-1]
		var values []string
		for _, v := range strings.Split(inner, ",") {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
		return model.FieldEnum, values
	}

	switch lower {
	case "text", "date", "amount", "identifier", "address":
		return model.FieldType(lower), nil
	default:
		return model.FieldText, nil
	}
}
