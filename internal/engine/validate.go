package engine

import (
	"fmt"
	"strings"

	"formflow/internal/model"
	"formflow/internal/resolver"
)

// startMarkers pair with "end" to infer date-ordering rules from key names.
var startMarkers = []string{"start", "begin", "from"}

// validate runs the post-fill checks: the round-trip leftover-token
// check, per-field type conformance, and cross-field consistency.
func (e *Engine) validate(session *model.FillSession) []model.ValidationIssue {
	var issues []model.ValidationIssue

	issues = append(issues, e.checkLeftoverTokens(session)...)
	issues = append(issues, checkTypeConformance(session)...)
	issues = append(issues, checkDateOrdering(session)...)

	return issues
}

// checkLeftoverTokens re-parses the artifact; any surviving marker means
// a field slipped through and must be re-resolved.
func (e *Engine) checkLeftoverTokens(session *model.FillSession) []model.ValidationIssue {
	leftover, err := e.filler.LeftoverTokens(session.OutputPath)
	if err != nil {
		// Not re-parseable at all: nothing an earlier phase can fix.
		return []model.ValidationIssue{{
			Severity:    model.SeverityBlocking,
			Description: fmt.Sprintf("filled document cannot be re-parsed: %v", err),
		}}
	}
	if len(leftover) == 0 {
		return nil
	}
	return []model.ValidationIssue{{
		FieldKeys:   leftover,
		Severity:    model.SeverityBlocking,
		Description: fmt.Sprintf("placeholder markers survived the fill: %s", strings.Join(leftover, ", ")),
		RetryTarget: model.RetryResolving,
	}}
}

// checkTypeConformance verifies every filled value against its field's
// type hint.
func checkTypeConformance(session *model.FillSession) []model.ValidationIssue {
	var issues []model.ValidationIssue

	for _, field := range session.Fields {
		rv, ok := session.ResolvedValues[field.Key]
		if !ok {
			continue
		}

		if desc := conformanceError(field, rv.Value); desc != "" {
			issues = append(issues, model.ValidationIssue{
				FieldKeys:   []string{field.Key},
				Severity:    model.SeverityBlocking,
				Description: desc,
				RetryTarget: model.RetryClarifying,
			})
		}
	}

	return issues
}

func conformanceError(field model.RequiredField, value string) string {
	switch field.TypeHint {
	case model.FieldDate:
		if _, ok := resolver.ParseDate(value); !ok {
			return fmt.Sprintf("%q is not a valid date for %s", value, field.Key)
		}
	case model.FieldAmount:
		v, ok := resolver.ParseAmount(value)
		if !ok {
			return fmt.Sprintf("%q is not a valid amount for %s", value, field.Key)
		}
		if v < 0 {
			return fmt.Sprintf("amount %q for %s is negative", value, field.Key)
		}
	case model.FieldEnum:
		for _, allowed := range field.AllowedValues {
			if strings.EqualFold(strings.TrimSpace(value), allowed) {
				return ""
			}
		}
		return fmt.Sprintf("%q is not an allowed value for %s (one of: %s)",
			value, field.Key, strings.Join(field.AllowedValues, ", "))
	case model.FieldIdentifier:
		if strings.TrimSpace(value) == "" {
			return fmt.Sprintf("identifier %s is empty", field.Key)
		}
	}
	return ""
}

// checkDateOrdering enforces start-before-end for date field pairs whose
// keys differ only by a start/end marker.
func checkDateOrdering(session *model.FillSession) []model.ValidationIssue {
	var issues []model.ValidationIssue

	byKey := make(map[string]model.RequiredField, len(session.Fields))
	for _, f := range session.Fields {
		byKey[f.Key] = f
	}

	for _, field := range session.Fields {
		if field.TypeHint != model.FieldDate {
			continue
		}
		endKey, ok := counterpartKey(field.Key, byKey)
		if !ok {
			continue
		}

		startVal, okS := session.ResolvedValues[field.Key]
		endVal, okE := session.ResolvedValues[endKey]
		if !okS || !okE {
			continue
		}

		start, okS := resolver.ParseDate(startVal.Value)
		end, okE := resolver.ParseDate(endVal.Value)
		if !okS || !okE {
			// Type conformance already flags unparseable dates.
			continue
		}

		if start.After(end) {
			issues = append(issues, model.ValidationIssue{
				FieldKeys: []string{field.Key, endKey},
				Severity:  model.SeverityBlocking,
				Description: fmt.Sprintf("%s (%s) is after %s (%s)",
					field.Key, startVal.Value, endKey, endVal.Value),
				RetryTarget: model.RetryClarifying,
			})
		}
	}

	return issues
}

// counterpartKey maps start_date to end_date and the like, only when the
// counterpart is a known date field.
func counterpartKey(key string, byKey map[string]model.RequiredField) (string, bool) {
	lower := strings.ToLower(key)
	for _, marker := range startMarkers {
		idx := strings.Index(lower, marker)
		if idx < 0 {
			continue
		}
		candidate := key[:idx] + "end" + key[idx+len(marker):]
		if f, ok := byKey[candidate]; ok && f.TypeHint == model.FieldDate {
			return candidate, true
		}
	}
	return "", false
}
