package engine

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formflow/internal/clarify"
	"formflow/internal/common"
	"formflow/internal/extract"
	"formflow/internal/model"
	"formflow/internal/resolver"
	"formflow/internal/storage"
	"formflow/internal/template"
)

// scriptedAsker answers clarification questions from a fixed queue; an
// exhausted queue behaves like closed input.
type scriptedAsker struct {
	answers []string
	asked   []model.ClarificationQuestion
}

func (s *scriptedAsker) Ask(_ context.Context, q model.ClarificationQuestion) (string, error) {
	s.asked = append(s.asked, q)
	if len(s.answers) == 0 {
		return "", io.EOF
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	return answer, nil
}

func textDoc(id string, blocks ...string) model.SourceDocument {
	doc := model.SourceDocument{ID: id, Method: model.ExtractionNativeText, QualityScore: 1.0}
	for i, text := range blocks {
		doc.Blocks = append(doc.Blocks, model.TextBlock{Text: text, Page: 1, Region: i})
	}
	return doc
}

func writeTemplate(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "template.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func newTestEngine(t *testing.T, asker *scriptedAsker, cfg Config, docs ...model.SourceDocument) *Engine {
	t.Helper()
	if cfg.OutputDir == "" {
		cfg.OutputDir = t.TempDir()
	}
	corpus := extract.NewCorpus(docs)
	return New(
		template.NewDiscoverer(template.NewPlaceholderProvider()),
		resolver.New(corpus, resolver.DefaultConfig()),
		clarify.New(asker, 3),
		template.NewWriter(),
		nil,
		cfg,
	)
}

func TestRunHappyPathWithClarification(t *testing.T) {
	tmpl := writeTemplate(t,
		"Agreement between {{borrower_name}} and the lender.\n"+
			"Amount: {{loan_amount}}\n"+
			"Start: {{start_date}}\n")

	asker := &scriptedAsker{answers: []string{"01.09.2026"}}
	eng := newTestEngine(t, asker, Config{},
		textDoc("doc-01-contract.txt",
			"Borrower Name: Maria Keller",
			"Loan Amount: 10,000.00",
		),
	)

	session, err := eng.Run(context.Background(), "case-7", tmpl, "")
	require.NoError(t, err)

	assert.Equal(t, model.StateDone, session.State)
	assert.Equal(t, 0, session.AttemptCount)
	require.Len(t, session.ResolvedValues, 3)

	assert.Equal(t, model.ProvenanceMatched, session.ResolvedValues["borrower_name"].Provenance)
	assert.Equal(t, model.ProvenanceMatched, session.ResolvedValues["loan_amount"].Provenance)
	assert.Equal(t, model.ProvenanceUserProvided, session.ResolvedValues["start_date"].Provenance)

	// Only the field the documents could not answer reached the user.
	require.Len(t, asker.asked, 1)
	assert.Equal(t, "start_date", asker.asked[0].FieldKey)

	data, err := os.ReadFile(session.OutputPath)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "Maria Keller")
	assert.Contains(t, content, "10000.00")
	assert.Contains(t, content, "2026-09-01")
	assert.NotContains(t, content, "{{")
}

func TestRunFullyResolvedAsksNothing(t *testing.T) {
	tmpl := writeTemplate(t, "Borrower: {{borrower_name}}\n")

	asker := &scriptedAsker{}
	eng := newTestEngine(t, asker, Config{},
		textDoc("doc-01-contract.txt", "Borrower Name: Maria Keller"),
	)

	session, err := eng.Run(context.Background(), "case-8", tmpl, "")
	require.NoError(t, err)
	assert.Equal(t, model.StateDone, session.State)
	assert.Empty(t, asker.asked)
}

func TestRunRetryOnDateOrdering(t *testing.T) {
	tmpl := writeTemplate(t,
		"Borrower: {{borrower_name}}\nFrom {{start_date}} to {{end_date}}.\n")

	// The documents confidently assert an inverted date range; validation
	// must bounce exactly those two fields back to the user.
	asker := &scriptedAsker{answers: []string{"2026-01-01", "2026-12-31"}}
	eng := newTestEngine(t, asker, Config{},
		textDoc("doc-01-contract.txt",
			"Borrower Name: Maria Keller",
			"Start Date: 2026-12-01",
			"End Date: 2026-01-15",
		),
	)

	session, err := eng.Run(context.Background(), "case-9", tmpl, "")
	require.NoError(t, err)

	assert.Equal(t, model.StateDone, session.State)
	assert.Equal(t, 1, session.AttemptCount)

	require.Len(t, asker.asked, 2)
	assert.Equal(t, "start_date", asker.asked[0].FieldKey)
	assert.Equal(t, "end_date", asker.asked[1].FieldKey)
	assert.Contains(t, asker.asked[0].PromptText, "is after", "the user sees why the value came back")

	// The untouched field keeps its original provenance.
	assert.Equal(t, model.ProvenanceMatched, session.ResolvedValues["borrower_name"].Provenance)
	assert.Equal(t, model.ProvenanceUserProvided, session.ResolvedValues["start_date"].Provenance)
	assert.Equal(t, "2026-01-01", session.ResolvedValues["start_date"].Value)
	assert.Equal(t, "2026-12-31", session.ResolvedValues["end_date"].Value)

	data, err := os.ReadFile(session.OutputPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "From 2026-01-01 to 2026-12-31.")
}

func TestRunRetryBoundEndsInReporting(t *testing.T) {
	tmpl := writeTemplate(t, "From {{start_date}} to {{end_date}}.\n")

	// The user insists on an inverted range every time; the session must
	// give up after the attempt bound instead of looping.
	asker := &scriptedAsker{answers: []string{
		"2026-12-01", "2026-01-01",
		"2026-12-01", "2026-01-01",
	}}
	eng := newTestEngine(t, asker, Config{MaxAttempts: 1})

	session, err := eng.Run(context.Background(), "case-10", tmpl, "")
	require.NoError(t, err, "a reported failure is an outcome, not an abort")

	assert.Equal(t, model.StateReporting, session.State)
	assert.Equal(t, 1, session.AttemptCount)
	require.Len(t, asker.asked, 4)

	blocking := session.BlockingIssues()
	require.NotEmpty(t, blocking)
	assert.ElementsMatch(t, []string{"start_date", "end_date"}, blocking[0].FieldKeys)
}

func TestRunAbandonedWritesNothing(t *testing.T) {
	outDir := t.TempDir()
	tmpl := writeTemplate(t, "Notes: {{notes}}\n")

	asker := &scriptedAsker{} // closed input from the first question
	eng := newTestEngine(t, asker, Config{OutputDir: outDir})

	session, err := eng.Run(context.Background(), "case-11", tmpl, "")
	require.Error(t, err)
	assert.True(t, Abandoned(err))
	assert.False(t, session.State.Terminal())

	_, statErr := os.Stat(session.OutputPath)
	assert.True(t, os.IsNotExist(statErr), "no document may exist for an abandoned session")
}

func TestRunNoFieldsAborts(t *testing.T) {
	tmpl := writeTemplate(t, "a template with nothing to fill\n")

	eng := newTestEngine(t, &scriptedAsker{}, Config{})

	_, err := eng.Run(context.Background(), "case-12", tmpl, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNoFields))
}

func TestRunArchivesSession(t *testing.T) {
	tmpl := writeTemplate(t, "Borrower: {{borrower_name}}\n")

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	require.NoError(t, store.Migrate(context.Background()))

	corpus := extract.NewCorpus([]model.SourceDocument{
		textDoc("doc-01-contract.txt", "Borrower Name: Maria Keller"),
	})
	eng := New(
		template.NewDiscoverer(template.NewPlaceholderProvider()),
		resolver.New(corpus, resolver.DefaultConfig()),
		clarify.New(&scriptedAsker{}, 3),
		template.NewWriter(),
		store,
		Config{OutputDir: t.TempDir()},
	)

	session, err := eng.Run(context.Background(), "case-13", tmpl, "")
	require.NoError(t, err)
	assert.Equal(t, model.StateDone, session.State)

	archived, err := store.GetSession(context.Background(), "case-13")
	require.NoError(t, err)
	assert.Equal(t, model.StateDone, archived.State)
	require.Len(t, archived.ResolvedValues, 1)
	assert.Equal(t, "Maria Keller", archived.ResolvedValues["borrower_name"].Value)
}
