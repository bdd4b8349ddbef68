package retouch

import (
	"fmt"

	"github.com/dshills/retoucher/internal/redact"
)

// Field names of the structured record.
const (
	FieldRetouched     = "retouched"
	FieldNotes         = "notes"
	FieldOpenQuestions = "openQuestions"
	FieldRisks         = "risks"
	FieldRedactions    = "redactions"
)

var listFields = []string{FieldNotes, FieldOpenQuestions, FieldRisks}

// ShapeError is a schema violation in an extracted object.
type ShapeError struct {
	Field  string
	Reason string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Record is a validated object holding only schema keys. Lists are []string.
type Record map[string]any

// Validate checks obj against the output schema and returns a new Record.
// Unknown keys are dropped; obj is not modified.
func Validate(obj map[string]any) (Record, error) {
	rec := Record{}

	v, ok := obj[FieldRetouched]
	s, isString := v.(string)
	switch {
	case !ok:
		return nil, &ShapeError{Field: FieldRetouched, Reason: "is required"}
	case !isString:
		return nil, &ShapeError{Field: FieldRetouched, Reason: "must be a string"}
	case s == "":
		return nil, &ShapeError{Field: FieldRetouched, Reason: "must not be empty"}
	}
	rec[FieldRetouched] = s

	for _, field := range listFields {
		v, ok := obj[field]
		if !ok {
			continue
		}
		list, err := stringList(field, v)
		if err != nil {
			return nil, err
		}
		rec[field] = list
	}

	if v, ok := obj[FieldRedactions]; ok {
		list, err := stringList(FieldRedactions, v)
		if err != nil {
			return nil, err
		}
		for i, item := range list {
			if item != redact.Placeholder {
				return nil, &ShapeError{Field: FieldRedactions, Reason: fmt.Sprintf("element %d must be %q", i, redact.Placeholder)}
			}
		}
		rec[FieldRedactions] = list
	}

	return rec, nil
}

func stringList(field string, v any) ([]string, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, &ShapeError{Field: field, Reason: "must be an array of strings"}
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, &ShapeError{Field: field, Reason: fmt.Sprintf("element %d must be a string", i)}
		}
		out = append(out, s)
	}
	return out, nil
}

// redacted returns a copy of r with every string scanned, and the number of
// replacements per rule.
func (r Record) redacted() (Record, map[string]int) {
	v, hits := redact.DeepHits(map[string]any(r))
	return Record(v.(map[string]any)), hits
}

// Output assembles the final value. With redactions > 0 the redactions field
// becomes that many placeholders; otherwise any validated field is kept.
func (r Record) Output(redactions int) Output {
	out := Output{}
	out.Retouched, _ = r[FieldRetouched].(string)
	out.Notes = r.list(FieldNotes)
	out.OpenQuestions = r.list(FieldOpenQuestions)
	out.Risks = r.list(FieldRisks)
	out.Redactions = r.list(FieldRedactions)
	if redactions > 0 {
		out.Redactions = make([]string, redactions)
		for i := range out.Redactions {
			out.Redactions[i] = redact.Placeholder
		}
	}
	return out
}

func (r Record) list(field string) []string {
	v, ok := r[field].([]string)
	if !ok {
		return nil
	}
	return v
}
