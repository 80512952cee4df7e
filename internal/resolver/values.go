// Package resolver matches required fields against the aggregated
// corpus and classifies each as resolved, ambiguous, or missing.
package resolver

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"formflow/internal/extract"
	"formflow/internal/model"
)

// dateLayouts covers the formats seen across source locales. Order
// matters: unambiguous ISO first, then day-first numeric, then written
// month forms.
var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"2.1.2006",
	"02/01/2006",
	"02-01-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 January 2006",
	"2. January 2006",
}

// ParseDate parses a date string against the known layouts. Month names
// are matched case-insensitively.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, candidate := range []string{s, titleCaseWords(s)} {
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, candidate); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func titleCaseWords(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		if w != "" && w[0] >= 'a' && w[0] <= 'z' {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// ParseAmount parses a monetary amount with locale-conservative
// separator handling. A lone comma followed by exactly three digits is a
// thousands separator; a lone dot is always decimal, so "10,000" and
// "10.000" deliberately normalize to different numbers and disagreement
// surfaces as ambiguity instead of being papered over.
func ParseAmount(s string) (float64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == ',', r == '.', r == '-':
			return r
		default:
			return -1
		}
	}, strings.TrimSpace(s))

	if cleaned == "" || cleaned == "-" {
		return 0, false
	}

	commas := strings.Count(cleaned, ",")
	dots := strings.Count(cleaned, ".")

	switch {
	case commas > 0 && dots > 0:
		// The later separator is the decimal one.
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case commas == 1:
		if idx := strings.Index(cleaned, ","); len(cleaned)-idx-1 == 3 {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		} else {
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		}
	case commas > 1:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	case dots > 1:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// NormalizeValue maps a raw value to its canonical comparison form for
// the given field type. Returns false when the value does not conform.
func NormalizeValue(typeHint model.FieldType, raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	switch typeHint {
	case model.FieldDate:
		t, ok := ParseDate(raw)
		if !ok {
			return "", false
		}
		return t.Format("2006-01-02"), true
	case model.FieldAmount:
		v, ok := ParseAmount(raw)
		if !ok {
			return "", false
		}
		return fmt.Sprintf("%.2f", v), true
	case model.FieldIdentifier:
		return strings.ToUpper(strings.Join(strings.Fields(raw), "")), true
	case model.FieldEnum, model.FieldText, model.FieldAddress:
		return extract.Canon(raw), true
	default:
		return extract.Canon(raw), true
	}
}
