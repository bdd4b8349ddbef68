package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/dshills/retoucher/internal/retouch"
)

func sampleOutput() *retouch.Output {
	return &retouch.Output{
		Retouched:     "Write a Go function that parses RFC 3339 timestamps.",
		Notes:         []string{"Clarified the input format."},
		OpenQuestions: []string{"Should invalid input panic or return an error?"},
		Risks:         []string{"Time zones may be ambiguous."},
		Redactions:    []string{"[REDACTED]", "[REDACTED]"},
	}
}

func TestGetWriter(t *testing.T) {
	for _, f := range Formats() {
		if _, err := GetWriter(f); err != nil {
			t.Errorf("GetWriter(%q) error: %v", f, err)
		}
	}
	if _, err := GetWriter("sarif"); err == nil {
		t.Error("GetWriter(sarif) should fail")
	}
}

func TestJSONWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &JSONWriter{}
	if err := w.Write(&buf, sampleOutput()); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if parsed["retouched"] != sampleOutput().Retouched {
		t.Errorf("retouched = %v", parsed["retouched"])
	}
	if _, ok := parsed["openQuestions"]; !ok {
		t.Error("openQuestions missing from JSON")
	}
	if !strings.HasSuffix(buf.String(), "}\n") {
		t.Error("JSON output should end with a newline")
	}
}

func TestJSONWriter_OmitsEmptyLists(t *testing.T) {
	var buf bytes.Buffer
	w := &JSONWriter{}
	if err := w.Write(&buf, &retouch.Output{Retouched: "x"}); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if strings.Contains(buf.String(), "notes") || strings.Contains(buf.String(), "redactions") {
		t.Errorf("empty lists should be omitted: %s", buf.String())
	}
}

func TestYAMLWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &YAMLWriter{}
	if err := w.Write(&buf, sampleOutput()); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	var parsed retouch.Output
	if err := yaml.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Output is not valid YAML: %v", err)
	}
	if parsed.Retouched != sampleOutput().Retouched {
		t.Errorf("retouched = %q", parsed.Retouched)
	}
	if len(parsed.Redactions) != 2 {
		t.Errorf("redactions = %v, want 2 entries", parsed.Redactions)
	}
}

func TestYAMLWriter_KeepsEmptyLists(t *testing.T) {
	var buf bytes.Buffer
	w := &YAMLWriter{}
	out := &retouch.Output{Retouched: "x", Notes: []string{}}
	if err := w.Write(&buf, out); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if !strings.Contains(buf.String(), "notes: []") {
		t.Errorf("empty notes should be kept:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "risks") {
		t.Errorf("nil risks should be omitted:\n%s", buf.String())
	}
}

func TestTextWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &TextWriter{}
	if err := w.Write(&buf, sampleOutput()); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Retouched prompt",
		"RFC 3339",
		"Notes (1)",
		"Open questions (1)",
		"Risks (1)",
		"Redactions: 2 secret(s) replaced with [REDACTED]",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestTextWriter_NoSections(t *testing.T) {
	var buf bytes.Buffer
	w := &TextWriter{}
	if err := w.Write(&buf, &retouch.Output{Retouched: "x"}); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "Notes") || strings.Contains(out, "Redactions") {
		t.Errorf("empty sections should be skipped:\n%s", out)
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, os.ErrClosed }

func TestTextWriter_WriteError(t *testing.T) {
	w := &TextWriter{}
	if err := w.Write(failWriter{}, sampleOutput()); err == nil {
		t.Error("expected write error")
	}
}

func TestMarkdownWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &MarkdownWriter{}
	if err := w.Write(&buf, sampleOutput()); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"## Retouched prompt",
		"```\nWrite a Go function",
		"### Notes",
		"- Time zones may be ambiguous.",
		"2 secret(s) were replaced with `[REDACTED]`",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown output missing %q:\n%s", want, out)
		}
	}
}

func TestFenceFor(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "```"},
		{"has `code`", "```"},
		{"has ```go\nx\n``` inside", "````"},
		{"`````", "``````"},
	}
	for _, tt := range tests {
		if got := fenceFor(tt.in); got != tt.want {
			t.Errorf("fenceFor(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		width int
		want  int
	}{
		{"short", "hello world", 70, 1},
		{"empty", "", 70, 1},
		{"wraps", strings.Repeat("word ", 30), 20, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := wrapText(tt.input, tt.width)
			if len(lines) != tt.want {
				t.Errorf("wrapText() = %d lines, want %d: %q", len(lines), tt.want, lines)
			}
			for _, l := range lines {
				if len(l) > tt.width {
					t.Errorf("line %q exceeds width %d", l, tt.width)
				}
			}
		})
	}
}

func TestWriteOutput_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := WriteOutput(sampleOutput(), "json", path); err != nil {
		t.Fatalf("WriteOutput error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "RFC 3339") {
		t.Errorf("file content = %s", data)
	}
}

func TestWriteOutput_BadFormat(t *testing.T) {
	if err := WriteOutput(sampleOutput(), "xml", ""); err == nil {
		t.Error("expected error for unsupported format")
	}
}
