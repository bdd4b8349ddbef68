package retouch

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Valid(t *testing.T) {
	obj := map[string]any{
		"retouched":     "Clean prompt",
		"notes":         []any{"n1"},
		"openQuestions": []any{},
		"risks":         []any{"r1", "r2"},
		"redactions":    []any{"[REDACTED]"},
		"extra":         "dropped",
	}
	rec, err := Validate(obj)
	require.NoError(t, err)

	want := Record{
		"retouched":     "Clean prompt",
		"notes":         []string{"n1"},
		"openQuestions": []string{},
		"risks":         []string{"r1", "r2"},
		"redactions":    []string{"[REDACTED]"},
	}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Errorf("Validate mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "dropped", obj["extra"], "input must not be modified")
}

func TestValidate_Minimal(t *testing.T) {
	rec, err := Validate(map[string]any{"retouched": "x"})
	require.NoError(t, err)
	assert.Equal(t, Record{"retouched": "x"}, rec)
}

func TestValidate_ShapeErrors(t *testing.T) {
	tests := []struct {
		name  string
		obj   map[string]any
		field string
	}{
		{"missing retouched", map[string]any{"notes": []any{"x"}}, "retouched"},
		{"null retouched", map[string]any{"retouched": nil}, "retouched"},
		{"empty retouched", map[string]any{"retouched": ""}, "retouched"},
		{"numeric retouched", map[string]any{"retouched": 3.0}, "retouched"},
		{"notes not array", map[string]any{"retouched": "x", "notes": "n"}, "notes"},
		{"null notes", map[string]any{"retouched": "x", "notes": nil}, "notes"},
		{"risks with number", map[string]any{"retouched": "x", "risks": []any{"ok", 1.0}}, "risks"},
		{"openQuestions object", map[string]any{"retouched": "x", "openQuestions": map[string]any{}}, "openQuestions"},
		{"redactions other literal", map[string]any{"retouched": "x", "redactions": []any{"[REDACTED]", "secret"}}, "redactions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.obj)
			var shape *ShapeError
			require.True(t, errors.As(err, &shape), "error = %v, want *ShapeError", err)
			assert.Equal(t, tt.field, shape.Field)
		})
	}
}

func TestRecord_Output(t *testing.T) {
	rec := Record{
		"retouched":  "x",
		"notes":      []string{},
		"redactions": []string{"[REDACTED]"},
	}

	out := rec.Output(0)
	assert.Equal(t, "x", out.Retouched)
	assert.NotNil(t, out.Notes, "present empty list must be kept")
	assert.Empty(t, out.Notes)
	assert.Nil(t, out.Risks)
	assert.Equal(t, []string{"[REDACTED]"}, out.Redactions)

	out = rec.Output(3)
	assert.Equal(t, []string{"[REDACTED]", "[REDACTED]", "[REDACTED]"}, out.Redactions)
}

func TestRecord_Redacted(t *testing.T) {
	rec := Record{
		"retouched": "mail bob@example.com",
		"notes":     []string{"sk-abcdefgh12", "fine"},
	}
	clean, hits := rec.redacted()
	assert.Equal(t, map[string]int{"email": 1, "api_key": 1}, hits)
	assert.Equal(t, "mail [REDACTED]", clean["retouched"])
	assert.Equal(t, []string{"[REDACTED]", "fine"}, clean["notes"])
	assert.Equal(t, "mail bob@example.com", rec["retouched"], "original record must not be modified")
}
