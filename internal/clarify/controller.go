// Package clarify turns unresolved fields into an interactive question
// sequence and validates the user's answers.
package clarify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"formflow/internal/common"
	"formflow/internal/extract"
	"formflow/internal/model"
	"formflow/internal/resolver"
	"formflow/internal/service"
)

// DefaultMaxAttempts bounds re-prompts per field.
const DefaultMaxAttempts = 3

// Controller asks the user about ambiguous and missing fields, one
// question at a time, in template field order. It is the only component
// that interacts with the user synchronously.
type Controller struct {
	asker       service.Asker
	maxAttempts int
}

// New creates a clarification controller.
func New(asker service.Asker, maxAttempts int) *Controller {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Controller{asker: asker, maxAttempts: maxAttempts}
}

// Clarify walks the unresolved resolutions in order and collects a
// user-provided ResolvedValue for each. An answer failing validation is
// re-prompted with an explanation up to the attempt bound; exhausting the
// bound escalates a session-level blocking issue and stops. A canceled
// context or closed input abandons the session without corrupting the
// values gathered so far.
func (c *Controller) Clarify(ctx context.Context, resolutions []model.FieldResolution) ([]model.ResolvedValue, []model.ValidationIssue, error) {
	var values []model.ResolvedValue

	for _, res := range resolutions {
		if res.Status == model.StatusResolved {
			continue
		}

		value, err := c.clarifyField(ctx, res)
		if err != nil {
			if errors.Is(err, common.ErrClarificationExhausted) {
				issue := model.ValidationIssue{
					FieldKeys: []string{res.Field.Key},
					Severity:  model.SeverityBlocking,
					Description: fmt.Sprintf("field %q could not be clarified after %d attempts",
						res.Field.Key, c.maxAttempts),
				}
				return values, []model.ValidationIssue{issue}, nil
			}
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return values, nil, fmt.Errorf("%w: %v", common.ErrSessionAbandoned, err)
			}
			return values, nil, err
		}

		values = append(values, value)
	}

	return values, nil, nil
}

func (c *Controller) clarifyField(ctx context.Context, res model.FieldResolution) (model.ResolvedValue, error) {
	question := model.ClarificationQuestion{
		FieldKey:   res.Field.Key,
		PromptText: c.promptText(res, ""),
		Constraints: model.AnswerConstraints{
			TypeHint:      res.Field.TypeHint,
			AllowedValues: res.Field.AllowedValues,
		},
		Options: res.Candidates,
	}

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		question.Attempt = attempt

		answer, err := c.asker.Ask(ctx, question)
		if err != nil {
			return model.ResolvedValue{}, err
		}

		value, explanation := c.acceptAnswer(res, answer)
		if explanation != "" {
			slog.Debug("Clarification answer rejected",
				"field", res.Field.Key,
				"attempt", attempt,
				"reason", explanation)
			question.PromptText = c.promptText(res, explanation)
			continue
		}

		return model.ResolvedValue{
			FieldKey:   res.Field.Key,
			Value:      value,
			Provenance: model.ProvenanceUserProvided,
			Confidence: 1.0,
		}, nil
	}

	return model.ResolvedValue{}, common.ErrClarificationExhausted
}

// promptText builds the question shown to the user, embedding the label,
// the context hint, and the rejection explanation on re-prompts.
func (c *Controller) promptText(res model.FieldResolution, explanation string) string {
	var b strings.Builder

	if explanation != "" {
		fmt.Fprintf(&b, "That answer was not accepted: %s\n", explanation)
	}

	switch res.Status {
	case model.StatusAmbiguous:
		fmt.Fprintf(&b, "The documents disagree about %s.", res.Field.Label)
	default:
		fmt.Fprintf(&b, "No value for %s was found in the documents.", res.Field.Label)
	}

	if res.Field.ContextHint != "" {
		fmt.Fprintf(&b, " (%s)", res.Field.ContextHint)
	}

	b.WriteString(constraintHint(res.Field))

	return b.String()
}

func constraintHint(field model.RequiredField) string {
	switch field.TypeHint {
	case model.FieldDate:
		return " Enter a date, e.g. 2026-08-31 or 31.08.2026."
	case model.FieldAmount:
		return " Enter an amount, e.g. 10000.50."
	case model.FieldEnum:
		return fmt.Sprintf(" One of: %s.", strings.Join(field.AllowedValues, ", "))
	default:
		return ""
	}
}

// acceptAnswer validates an answer against the field's constraints.
// Returns the value to record, or an explanation of the rejection. An
// ambiguous field accepts an option number as a selection; anything else
// is treated as an override and validated like a typed answer.
func (c *Controller) acceptAnswer(res model.FieldResolution, answer string) (value, explanation string) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", "an empty answer cannot fill a field"
	}

	if len(res.Candidates) > 0 {
		if n, err := strconv.Atoi(answer); err == nil {
			if n < 1 || n > len(res.Candidates) {
				return "", fmt.Sprintf("option %d does not exist, choose 1-%d", n, len(res.Candidates))
			}
			chosen := res.Candidates[n-1]
			return chosenValue(res.Field, chosen), ""
		}
	}

	switch res.Field.TypeHint {
	case model.FieldDate:
		t, ok := resolver.ParseDate(answer)
		if !ok {
			return "", fmt.Sprintf("%q is not a recognizable date", answer)
		}
		return t.Format("2006-01-02"), ""
	case model.FieldAmount:
		v, ok := resolver.ParseAmount(answer)
		if !ok {
			return "", fmt.Sprintf("%q is not a recognizable amount", answer)
		}
		return fmt.Sprintf("%.2f", v), ""
	case model.FieldEnum:
		for _, allowed := range res.Field.AllowedValues {
			if extract.Canon(answer) == extract.Canon(allowed) {
				return allowed, ""
			}
		}
		return "", fmt.Sprintf("%q is not one of: %s", answer, strings.Join(res.Field.AllowedValues, ", "))
	case model.FieldIdentifier:
		if strings.ContainsAny(answer, " \t") {
			return "", "identifiers cannot contain spaces"
		}
		return answer, ""
	default:
		return answer, ""
	}
}

// chosenValue maps a selected candidate to the value recorded for the
// field, canonical for typed fields.
func chosenValue(field model.RequiredField, c model.Candidate) string {
	switch field.TypeHint {
	case model.FieldDate, model.FieldAmount:
		return c.NormalizedValue
	default:
		return strings.TrimSpace(c.Value)
	}
}
