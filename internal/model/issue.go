package model

import "strings"

// Severity classifies how serious a validation issue is.
type Severity string

// Severity constants.
const (
	SeverityWarning  Severity = "warning"
	SeverityBlocking Severity = "blocking"
)

// RetryTarget names the phase a retry should re-enter to fix an issue.
type RetryTarget string

// Retry target constants. RetryNone marks issues no earlier phase can fix.
const (
	RetryNone       RetryTarget = ""
	RetryResolving  RetryTarget = "resolving"
	RetryClarifying RetryTarget = "clarifying"
)

// ValidationIssue describes one problem found during discovery or
// post-fill validation. FieldKeys is empty for session-level issues.
type ValidationIssue struct {
	FieldKeys   []string
	Severity    Severity
	Description string
	RetryTarget RetryTarget
}

// Blocking reports whether the issue prevents a successful session.
func (i ValidationIssue) Blocking() bool {
	return i.Severity == SeverityBlocking
}

// Refixable reports whether an earlier phase can plausibly fix the issue.
func (i ValidationIssue) Refixable() bool {
	return i.RetryTarget != RetryNone
}

// Implicates reports whether the issue names the given field.
func (i ValidationIssue) Implicates(key string) bool {
	for _, k := range i.FieldKeys {
		if k == key {
			return true
		}
	}
	return false
}

// FieldList renders the implicated fields for user-facing messages.
func (i ValidationIssue) FieldList() string {
	if len(i.FieldKeys) == 0 {
		return "(session)"
	}
	return strings.Join(i.FieldKeys, ", ")
}
