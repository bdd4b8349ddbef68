package retouch

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrExtractionFailed means no JSON object could be recovered from a
// completion.
var ErrExtractionFailed = errors.New("no JSON object found in completion")

// fenceLine matches a markdown fence delimiter standing alone on its line,
// with an optional language tag. A JSON string cannot hold a raw newline, so
// such a line is never inside a string value.
var fenceLine = regexp.MustCompile("(?m)^[ \t]*```[A-Za-z0-9_+-]*[ \t]*\r?$")

func stripFences(s string) string {
	return strings.TrimSpace(fenceLine.ReplaceAllString(s, ""))
}

// ExtractObject recovers the first JSON object from free-form model output.
// Markdown fences are removed, then the whole text is tried, then balanced
// top-level {...} spans are tried left to right.
func ExtractObject(text string) (map[string]any, error) {
	s := stripFences(text)

	if obj, ok := parseObject(s); ok {
		return obj, nil
	}
	if obj, ok := scanObjects(s); ok {
		return obj, nil
	}
	return nil, ErrExtractionFailed
}

func parseObject(s string) (map[string]any, bool) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	return obj, ok
}

// scanObjects walks s byte by byte tracking brace depth and string state.
// Braces inside strings do not count and escapes only apply inside strings.
// ASCII delimiters never occur inside multi-byte UTF-8 sequences, so byte
// iteration is safe.
func scanObjects(s string) (map[string]any, bool) {
	start := -1
	depth := 0
	inString := false
	escape := false

	for i := 0; i < len(s); i++ {
		b := s[i]

		if inString {
			switch {
			case escape:
				escape = false
			case b == '\\':
				escape = true
			case b == '"':
				inString = false
			}
			continue
		}

		switch b {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				if obj, ok := parseObject(s[start : i+1]); ok {
					return obj, true
				}
				start = -1
			}
		}
	}
	return nil, false
}
