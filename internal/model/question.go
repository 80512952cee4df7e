package model

// AnswerConstraints restricts what counts as a valid clarification answer.
type AnswerConstraints struct {
	TypeHint      FieldType
	AllowedValues []string
}

// ClarificationQuestion is a single question posed to the user about an
// unresolved field. Options carries the competing candidates for
// ambiguous fields, empty for missing fields.
type ClarificationQuestion struct {
	FieldKey    string
	PromptText  string
	Constraints AnswerConstraints
	Options     []Candidate
	Attempt     int
}
