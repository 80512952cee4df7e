package engine

import (
	"context"

	"formflow/internal/model"
)

// Discoverer enumerates the template's required fields once per session.
type Discoverer interface {
	Discover(ctx context.Context, templatePath, annotationPath string) ([]model.RequiredField, []model.ValidationIssue, error)
}

// Resolver classifies fields against the corpus.
type Resolver interface {
	ResolveAll(ctx context.Context, fields []model.RequiredField) ([]model.FieldResolution, error)
}

// Clarifier collects user-provided values for unresolved fields.
type Clarifier interface {
	Clarify(ctx context.Context, resolutions []model.FieldResolution) ([]model.ResolvedValue, []model.ValidationIssue, error)
}

// Filler writes the filled artifact and re-parses it for leftover markers.
type Filler interface {
	Fill(ctx context.Context, templatePath, outputPath string, values map[string]string) error
	LeftoverTokens(path string) ([]string, error)
}
