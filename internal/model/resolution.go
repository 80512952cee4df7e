package model

// Provenance indicates where a resolved value came from.
type Provenance string

// Provenance constants.
const (
	ProvenanceMatched      Provenance = "matched"
	ProvenanceUserProvided Provenance = "user-provided"
)

// ResolvedValue is the single accepted value for a required field.
// Every filled field must be backed by exactly one ResolvedValue with
// traceable provenance.
type ResolvedValue struct {
	FieldKey               string
	Value                  string
	Provenance             Provenance
	Confidence             float64
	SupportingCandidateIDs []string
}

// FieldStatus is the classification the resolver assigns to a field.
type FieldStatus string

// Field status constants.
const (
	StatusResolved  FieldStatus = "resolved"
	StatusAmbiguous FieldStatus = "ambiguous"
	StatusMissing   FieldStatus = "missing"
)

// FieldResolution is the resolver's verdict for one required field.
// For ambiguous fields, Candidates holds every competing candidate within
// the tie margin of the top score, in stable order. For resolved fields,
// Value is set and Candidates holds the supporting evidence.
type FieldResolution struct {
	Field      RequiredField
	Status     FieldStatus
	Value      *ResolvedValue
	Candidates []Candidate
}
