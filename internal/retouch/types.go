package retouch

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
)

// Mode selects the cleaning style.
type Mode string

const (
	ModeCode    Mode = "code"
	ModeGeneral Mode = "general"
)

// ParseMode accepts "code" or "general". Empty means general.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.TrimSpace(s)) {
	case "", ModeGeneral:
		return ModeGeneral, nil
	case ModeCode:
		return ModeCode, nil
	default:
		return "", fmt.Errorf("%w: mode must be %q or %q, got %q", ErrInvalidInput, ModeCode, ModeGeneral, s)
	}
}

// ErrInvalidInput reports a rejected Input.
var ErrInvalidInput = errors.New("invalid input")

// Input is one cleaning request.
type Input struct {
	Prompt      string
	Mode        Mode
	Temperature float64
	// RequestID correlates logs and the upstream call. Generated when empty.
	RequestID string
}

func (in Input) normalize() (Input, error) {
	if in.Prompt == "" {
		return in, fmt.Errorf("%w: prompt is required", ErrInvalidInput)
	}
	mode, err := ParseMode(string(in.Mode))
	if err != nil {
		return in, err
	}
	in.Mode = mode
	if math.IsNaN(in.Temperature) || in.Temperature < 0 || in.Temperature > 2 {
		return in, fmt.Errorf("%w: temperature %v outside [0,2]", ErrInvalidInput, in.Temperature)
	}
	if in.RequestID == "" {
		in.RequestID = uuid.NewString()
	}
	return in, nil
}

// Output is the cleaned record returned to callers. Nil lists are absent;
// empty lists are kept.
type Output struct {
	Retouched     string   `json:"retouched" yaml:"retouched"`
	Notes         []string `json:"notes,omitzero" yaml:"notes,omitempty"`
	OpenQuestions []string `json:"openQuestions,omitzero" yaml:"openQuestions,omitempty"`
	Risks         []string `json:"risks,omitzero" yaml:"risks,omitempty"`
	Redactions    []string `json:"redactions,omitzero" yaml:"redactions,omitempty"`
}

// yamlOutput mirrors Output with pointer lists: a nil pointer is omitted,
// a pointer to an empty list is written as [].
type yamlOutput struct {
	Retouched     string    `yaml:"retouched"`
	Notes         *[]string `yaml:"notes,omitempty"`
	OpenQuestions *[]string `yaml:"openQuestions,omitempty"`
	Risks         *[]string `yaml:"risks,omitempty"`
	Redactions    *[]string `yaml:"redactions,omitempty"`
}

// MarshalYAML keeps present-but-empty lists, matching the JSON encoding.
func (o Output) MarshalYAML() (any, error) {
	return yamlOutput{
		Retouched:     o.Retouched,
		Notes:         present(o.Notes),
		OpenQuestions: present(o.OpenQuestions),
		Risks:         present(o.Risks),
		Redactions:    present(o.Redactions),
	}, nil
}

func present(list []string) *[]string {
	if list == nil {
		return nil
	}
	return &list
}
