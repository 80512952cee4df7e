package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "strips diacritics", input: "Crème Brûlée", want: "Creme Brulee"},
		{name: "keeps case", input: "Maria KELLER", want: "Maria KELLER"},
		{name: "collapses spaces", input: "a  \t b", want: "a b"},
		{name: "keeps line breaks", input: "line one\n\nline two", want: "line one\nline two"},
		{name: "mixed run becomes newline", input: "a \r\n  b", want: "a\nb"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Fold(tt.input))
		})
	}
}

func TestCanon(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "lowercases", input: "Borrower Name", want: "borrower name"},
		{name: "flattens newlines", input: "Hauptstrasse 5\n10115 Berlin", want: "hauptstrasse 5 10115 berlin"},
		{name: "strips diacritics", input: "  Crème   Brûlée ", want: "creme brulee"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Canon(tt.input))
		})
	}
}
