package extract

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"formflow/internal/model"
	"formflow/internal/service"
)

// defaultParallelism bounds concurrent document extractions.
const defaultParallelism = 4

// Aggregator fans extraction out across source documents and merges the
// results into a single corpus with provenance. It holds no field
// knowledge and builds no state beyond the in-memory index.
type Aggregator struct {
	providers []service.TextProvider

	// OnDocument, if set, is called once per finished document. Callers
	// use it to drive progress reporting; invocation order is not the
	// input order.
	OnDocument func(doc model.SourceDocument)

	mu sync.Mutex
}

// NewAggregator creates an aggregator that tries providers in order; the
// first provider that supports a path extracts it.
func NewAggregator(providers ...service.TextProvider) *Aggregator {
	return &Aggregator{providers: providers}
}

// Aggregate extracts every path in parallel and returns one
// SourceDocument per input, in input order, plus the merged corpus.
// A document that cannot be read or yields no text is recorded with
// QualityScore 0 and contributes no candidates; it never fails the run.
func (a *Aggregator) Aggregate(ctx context.Context, paths []string) ([]model.SourceDocument, *Corpus, error) {
	docs := make([]model.SourceDocument, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(defaultParallelism)

	for i, path := range paths {
		g.Go(func() error {
			doc := a.extractOne(gctx, i, path)
			docs[i] = doc

			a.mu.Lock()
			if a.OnDocument != nil {
				a.OnDocument(doc)
			}
			a.mu.Unlock()

			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return docs, NewCorpus(docs), nil
}

func (a *Aggregator) extractOne(ctx context.Context, index int, path string) model.SourceDocument {
	doc := model.SourceDocument{
		ID:         fmt.Sprintf("doc-%02d-%s", index+1, filepath.Base(path)),
		OriginPath: path,
		Method:     model.ExtractionNativeText,
	}

	provider := a.providerFor(path)
	if provider == nil {
		slog.Warn("No extraction provider for document, recording as empty", "path", path)
		return doc
	}

	blocks, method, quality, err := provider.Extract(ctx, path)
	if err != nil {
		slog.Warn("Extraction failed, recording document as empty",
			"path", path,
			"error", err)
		doc.Method = method
		return doc
	}

	doc.Blocks = blocks
	doc.Method = method
	doc.QualityScore = quality

	if doc.Empty() {
		slog.Info("Document yielded no text", "path", path, "method", method)
		doc.QualityScore = 0
	}

	return doc
}

func (a *Aggregator) providerFor(path string) service.TextProvider {
	for _, p := range a.providers {
		if p.Supports(path) {
			return p
		}
	}
	return nil
}
