package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStateTerminal(t *testing.T) {
	assert.True(t, StateDone.Terminal())
	assert.True(t, StateReporting.Terminal())
	assert.False(t, StateDiscovering.Terminal())
	assert.False(t, StateClarifying.Terminal())
	assert.False(t, StateRetrying.Terminal())
}

func TestNewFillSession(t *testing.T) {
	s := NewFillSession("case-1")
	assert.Equal(t, "case-1", s.SessionID)
	assert.Equal(t, StateDiscovering, s.State)
	assert.Zero(t, s.AttemptCount)
	assert.NotNil(t, s.ResolvedValues)
	assert.False(t, s.CreatedAt.IsZero())
}

func TestSessionManifest(t *testing.T) {
	s := NewFillSession("case-2")
	s.ResolvedValues["borrower_name"] = ResolvedValue{
		FieldKey: "borrower_name", Value: "Maria Keller", Provenance: ProvenanceMatched,
	}
	s.ResolvedValues["start_date"] = ResolvedValue{
		FieldKey: "start_date", Value: "2026-09-01", Provenance: ProvenanceUserProvided,
	}

	manifest := s.Manifest()
	require.Len(t, manifest, 2)
	assert.Equal(t, ManifestEntry{Value: "Maria Keller", Provenance: ProvenanceMatched}, manifest["borrower_name"])
	assert.Equal(t, ManifestEntry{Value: "2026-09-01", Provenance: ProvenanceUserProvided}, manifest["start_date"])

	values := s.Values()
	assert.Equal(t, "Maria Keller", values["borrower_name"])
}

func TestSessionBlockingIssues(t *testing.T) {
	s := NewFillSession("case-3")
	s.Issues = []ValidationIssue{
		{Severity: SeverityWarning, Description: "count mismatch"},
		{Severity: SeverityBlocking, Description: "inverted dates", FieldKeys: []string{"start_date"}},
	}

	blocking := s.BlockingIssues()
	require.Len(t, blocking, 1)
	assert.Equal(t, "inverted dates", blocking[0].Description)
}

func TestValidationIssueHelpers(t *testing.T) {
	issue := ValidationIssue{
		FieldKeys:   []string{"start_date", "end_date"},
		Severity:    SeverityBlocking,
		RetryTarget: RetryClarifying,
	}

	assert.True(t, issue.Blocking())
	assert.True(t, issue.Refixable())
	assert.True(t, issue.Implicates("end_date"))
	assert.False(t, issue.Implicates("loan_amount"))
	assert.Equal(t, "start_date, end_date", issue.FieldList())

	sessionLevel := ValidationIssue{Severity: SeverityBlocking}
	assert.False(t, sessionLevel.Refixable())
	assert.Equal(t, "(session)", sessionLevel.FieldList())
}
