package model

// Span locates a candidate value inside a source document's text.
type Span struct {
	Block int
	Start int
	End   int
}

// Candidate is a possible value for a field found in source text.
// Multiple candidates may exist per field; none are mutated after creation.
type Candidate struct {
	ID               string
	FieldKey         string
	Value            string
	NormalizedValue  string
	SourceDocumentID string
	Confidence       float64
	Span             Span
}
