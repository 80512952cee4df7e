package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formflow/internal/model"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{name: "iso", input: "2026-09-01", want: "2026-09-01", ok: true},
		{name: "dotted day first", input: "01.09.2026", want: "2026-09-01", ok: true},
		{name: "dotted single digits", input: "1.9.2026", want: "2026-09-01", ok: true},
		{name: "slashes day first", input: "01/09/2026", want: "2026-09-01", ok: true},
		{name: "written month", input: "September 1, 2026", want: "2026-09-01", ok: true},
		{name: "day then month", input: "1 September 2026", want: "2026-09-01", ok: true},
		{name: "lowercase month", input: "1 september 2026", want: "2026-09-01", ok: true},
		{name: "uppercase month", input: "1 SEPTEMBER 2026", want: "2026-09-01", ok: true},
		{name: "surrounding spaces", input: "  2026-09-01  ", want: "2026-09-01", ok: true},
		{name: "not a date", input: "soon", ok: false},
		{name: "bare year", input: "2026", ok: false},
		{name: "empty", input: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got.Format("2006-01-02"))
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
		ok    bool
	}{
		{name: "plain", input: "1500", want: 1500, ok: true},
		{name: "single digit", input: "5", want: 5, ok: true},
		{name: "decimal dot", input: "10.50", want: 10.5, ok: true},
		{name: "comma thousands", input: "10,000", want: 10000, ok: true},
		{name: "dot as decimal even with three digits", input: "10.000", want: 10, ok: true},
		{name: "comma decimal", input: "10,5", want: 10.5, ok: true},
		{name: "us grouping", input: "1,234.56", want: 1234.56, ok: true},
		{name: "european grouping", input: "1.234,56", want: 1234.56, ok: true},
		{name: "apostrophe grouping", input: "10'000.50", want: 10000.5, ok: true},
		{name: "currency prefix", input: "EUR 1200", want: 1200, ok: true},
		{name: "negative", input: "-12.50", want: -12.5, ok: true},
		{name: "multiple commas", input: "1,234,567", want: 1234567, ok: true},
		{name: "multiple dots", input: "1.234.567", want: 1234567, ok: true},
		{name: "empty", input: "", ok: false},
		{name: "letters only", input: "twelve", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseAmount(tt.input)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 0.001)
			}
		})
	}
}

func TestParseAmountLocaleDisagreement(t *testing.T) {
	// The same digit string under different grouping conventions must not
	// collapse to one number; the disagreement is what surfaces ambiguity.
	us, ok := ParseAmount("10,000")
	require.True(t, ok)
	eu, ok := ParseAmount("10.000")
	require.True(t, ok)
	assert.NotEqual(t, us, eu)
}

func TestNormalizeValue(t *testing.T) {
	tests := []struct {
		name     string
		typeHint model.FieldType
		input    string
		want     string
		ok       bool
	}{
		{name: "date to iso", typeHint: model.FieldDate, input: "01.09.2026", want: "2026-09-01", ok: true},
		{name: "bad date", typeHint: model.FieldDate, input: "soon", ok: false},
		{name: "amount two decimals", typeHint: model.FieldAmount, input: "10,000", want: "10000.00", ok: true},
		{name: "bad amount", typeHint: model.FieldAmount, input: "n/a", ok: false},
		{name: "identifier upper no spaces", typeHint: model.FieldIdentifier, input: "de89 3704", want: "DE893704", ok: true},
		{name: "text folds and lowers", typeHint: model.FieldText, input: "  Crème  Brûlée ", want: "creme brulee", ok: true},
		{name: "empty is nothing", typeHint: model.FieldText, input: "   ", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeValue(tt.typeHint, tt.input)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
