package template

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"formflow/internal/common"
	"formflow/internal/model"
	"formflow/internal/service"
)

// Discoverer turns a template plus its annotated rendering into the
// canonical required-field schema. The primary template is authoritative
// for which keys exist; annotations refine, never add, fields.
type Discoverer struct {
	schema service.SchemaProvider
}

// NewDiscoverer creates a discoverer backed by the given schema provider.
func NewDiscoverer(schema service.SchemaProvider) *Discoverer {
	return &Discoverer{schema: schema}
}

// Discover enumerates required fields in template order. A field count
// disagreement between template and annotations is surfaced as a warning
// issue, not an error. Zero discovered fields is fatal. annotationPath
// may be empty when no annotated rendering exists.
func (d *Discoverer) Discover(ctx context.Context, templatePath, annotationPath string) ([]model.RequiredField, []model.ValidationIssue, error) {
	placeholders, err := d.schema.Placeholders(ctx, templatePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to enumerate placeholders: %w", err)
	}
	if len(placeholders) == 0 {
		return nil, nil, fmt.Errorf("%w: %s", common.ErrNoFields, templatePath)
	}

	annotations := map[string]model.FieldAnnotation{}
	if annotationPath != "" {
		annotations, err = d.schema.Annotations(ctx, annotationPath)
		if err != nil {
			// Annotations only enrich; a missing or broken file degrades
			// to key-derived hints.
			slog.Warn("Failed to read annotations, continuing with template-derived hints",
				"path", annotationPath,
				"error", err)
			annotations = map[string]model.FieldAnnotation{}
		}
	}

	var issues []model.ValidationIssue
	if len(annotations) > 0 && len(annotations) != len(placeholders) {
		issues = append(issues, model.ValidationIssue{
			Severity: model.SeverityWarning,
			Description: fmt.Sprintf("%v: template has %d fields, annotations describe %d",
				common.ErrSchemaMismatch, len(placeholders), len(annotations)),
		})
	}

	fields := make([]model.RequiredField, 0, len(placeholders))
	for _, ph := range placeholders {
		field := model.RequiredField{
			Key:      ph.Key,
			Label:    labelFromKey(ph.Key),
			TypeHint: typeFromKey(ph.Key),
			Position: ph.Position,
		}

		if ann, ok := annotations[ph.Key]; ok {
			if ann.Comment != "" {
				field.ContextHint = ann.Comment
			}
			if ann.TypeHint != "" {
				field.TypeHint = ann.TypeHint
			}
			field.AllowedValues = ann.AllowedValues
		}

		fields = append(fields, field)
	}

	slog.Info("Discovered template fields",
		"template", templatePath,
		"fields", len(fields),
		"annotated", len(annotations))

	return fields, issues, nil
}

// labelFromKey turns borrower_name into "Borrower Name".
func labelFromKey(key string) string {
	words := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || r == '.'
	})
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// typeFromKey infers a type hint from key naming conventions. The
// annotated rendering overrides this when present.
func typeFromKey(key string) model.FieldType {
	lower := strings.ToLower(key)
	switch {
	case strings.Contains(lower, "date") || strings.HasSuffix(lower, "_at"):
		return model.FieldDate
	case strings.Contains(lower, "amount") || strings.Contains(lower, "sum") ||
		strings.Contains(lower, "total") || strings.Contains(lower, "price"):
		return model.FieldAmount
	case strings.Contains(lower, "address"):
		return model.FieldAddress
	case strings.Contains(lower, "number") || strings.Contains(lower, "iban") ||
		strings.Contains(lower, "code") || strings.HasSuffix(lower, "_id"):
		return model.FieldIdentifier
	default:
		return model.FieldText
	}
}
