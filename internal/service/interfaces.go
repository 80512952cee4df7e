// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"formflow/internal/model"
)

// TextProvider extracts text from one kind of source document. Failure to
// read a file yields an empty result, never an error that aborts the session.
type TextProvider interface {
	// Supports reports whether this provider handles the given path.
	Supports(path string) bool
	// Extract returns ordered text blocks, the extraction method, and a
	// quality signal in [0,1].
	Extract(ctx context.Context, path string) ([]model.TextBlock, model.ExtractionMethod, float64, error)
}

// SchemaProvider parses the form template and its annotated rendering.
type SchemaProvider interface {
	// Placeholders returns the template's placeholder tokens in template
	// order, each with its surrounding text.
	Placeholders(ctx context.Context, templatePath string) ([]model.Placeholder, error)
	// Annotations returns the token-to-comment mapping from an annotated
	// rendering of the same template.
	Annotations(ctx context.Context, annotationPath string) (map[string]model.FieldAnnotation, error)
}

// DocumentWriter produces the filled artifact from a template and the
// final token-to-value mapping.
type DocumentWriter interface {
	Fill(ctx context.Context, templatePath, outputPath string, values map[string]string) error
}

// Asker is the user interaction channel: one question, one answer,
// strictly sequential.
type Asker interface {
	Ask(ctx context.Context, question model.ClarificationQuestion) (string, error)
}

// SessionSummary is a compact view of an archived session.
type SessionSummary struct {
	SessionID    string
	State        model.SessionState
	AttemptCount int
	FieldCount   int
	OutputPath   string
	CreatedAt    time.Time
	FinishedAt   time.Time
}

// Storage defines the contract for the session archive.
type Storage interface {
	SaveSession(ctx context.Context, session *model.FillSession) error
	GetSession(ctx context.Context, sessionID string) (*model.FillSession, error)
	ListSessions(ctx context.Context) ([]SessionSummary, error)
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
