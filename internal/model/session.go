package model

import "time"

// SessionState is one state of the fill session's state machine.
type SessionState string

// Session states. Done and Reporting are terminal.
const (
	StateDiscovering SessionState = "DISCOVERING"
	StateResolving   SessionState = "RESOLVING"
	StateClarifying  SessionState = "CLARIFYING"
	StateFilling     SessionState = "FILLING"
	StateValidating  SessionState = "VALIDATING"
	StateRetrying    SessionState = "RETRYING"
	StateDone        SessionState = "DONE"
	StateReporting   SessionState = "REPORTING"
)

// Terminal reports whether the state ends the session.
func (s SessionState) Terminal() bool {
	return s == StateDone || s == StateReporting
}

// FillSession is the only shared mutable state of a fill run. It is
// owned exclusively by the orchestrator, which is the sole writer; all
// other components return values instead of mutating it.
type FillSession struct {
	SessionID      string
	State          SessionState
	AttemptCount   int
	Fields         []RequiredField
	ResolvedValues map[string]ResolvedValue
	Issues         []ValidationIssue
	OutputPath     string
	CreatedAt      time.Time
	FinishedAt     time.Time
}

// NewFillSession creates a session in its initial state.
func NewFillSession(sessionID string) *FillSession {
	return &FillSession{
		SessionID:      sessionID,
		State:          StateDiscovering,
		ResolvedValues: make(map[string]ResolvedValue),
		CreatedAt:      time.Now(),
	}
}

// Values returns the fieldKey to final-string mapping for the fill step.
func (s *FillSession) Values() map[string]string {
	out := make(map[string]string, len(s.ResolvedValues))
	for k, rv := range s.ResolvedValues {
		out[k] = rv.Value
	}
	return out
}

// BlockingIssues returns the blocking subset of the session's issues.
func (s *FillSession) BlockingIssues() []ValidationIssue {
	var out []ValidationIssue
	for _, iss := range s.Issues {
		if iss.Blocking() {
			out = append(out, iss)
		}
	}
	return out
}

// Manifest is the audit trail reported on success: every field with its
// final value and where it came from.
func (s *FillSession) Manifest() map[string]ManifestEntry {
	out := make(map[string]ManifestEntry, len(s.ResolvedValues))
	for k, rv := range s.ResolvedValues {
		out[k] = ManifestEntry{Value: rv.Value, Provenance: rv.Provenance}
	}
	return out
}

// ManifestEntry is one field's audit record.
type ManifestEntry struct {
	Value      string     `json:"value"`
	Provenance Provenance `json:"provenance"`
}
