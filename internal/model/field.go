package model

// FieldType is the type hint attached to a required field.
type FieldType string

// Field type constants.
const (
	FieldText       FieldType = "text"
	FieldDate       FieldType = "date"
	FieldAmount     FieldType = "amount"
	FieldIdentifier FieldType = "identifier"
	FieldEnum       FieldType = "enum"
	FieldAddress    FieldType = "address"
)

// RequiredField is one placeholder the template needs a value for.
// Created once by the discoverer; immutable afterward. Keys are unique
// within a session, and Position preserves template order.
type RequiredField struct {
	Key           string
	Label         string
	TypeHint      FieldType
	ContextHint   string
	AllowedValues []string
	Position      int
}

// Placeholder is a raw marker found in the primary template, with the
// text surrounding it for label-proximity matching.
type Placeholder struct {
	Key      string
	Before   string
	After    string
	Position int
}

// FieldAnnotation is the enrichment attached to a field key by the
// secondary annotated rendering of the template.
type FieldAnnotation struct {
	Key           string
	TypeHint      FieldType
	Comment       string
	AllowedValues []string
}
