package template

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFillReplacesKnownMarkers(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeFile(t, dir, "agreement.txt",
		"{{borrower_name}} owes {{loan_amount}} starting {{ start_date }}.")
	out := filepath.Join(dir, "out", "case-1.txt")

	w := NewWriter()
	err := w.Fill(context.Background(), tmpl, out, map[string]string{
		"borrower_name": "Maria Keller",
		"loan_amount":   "10000.00",
		"start_date":    "2026-09-01",
		"unknown_key":   "ignored",
	})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "Maria Keller owes 10000.00 starting 2026-09-01.", string(data))

	leftover, err := w.LeftoverTokens(out)
	require.NoError(t, err)
	assert.Empty(t, leftover)
}

func TestFillLeavesUnvaluedMarkers(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeFile(t, dir, "agreement.txt", "{{borrower_name}} from {{start_date}} to {{end_date}}")
	out := filepath.Join(dir, "case-2.txt")

	w := NewWriter()
	err := w.Fill(context.Background(), tmpl, out, map[string]string{
		"borrower_name": "Maria Keller",
	})
	require.NoError(t, err)

	leftover, err := w.LeftoverTokens(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"start_date", "end_date"}, leftover)
}

func TestFillUnreadableTemplate(t *testing.T) {
	w := NewWriter()
	err := w.Fill(context.Background(), filepath.Join(t.TempDir(), "nope.txt"), "out.txt", nil)
	assert.Error(t, err)
}
