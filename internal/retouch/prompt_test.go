package retouch

import (
	"strings"
	"testing"
)

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt("TEMPLATE", ModeCode, "fix my bug")
	want := "TEMPLATE\n\nMODE: code\nRAW_PROMPT:\nfix my bug"
	if got != want {
		t.Errorf("BuildPrompt = %q, want %q", got, want)
	}
}

func TestDefaultTemplate(t *testing.T) {
	tmpl := DefaultTemplate()
	if strings.TrimSpace(tmpl) == "" {
		t.Fatal("embedded template should not be empty")
	}
	for _, key := range []string{"retouched", "notes", "openQuestions", "risks", "redactions"} {
		if !strings.Contains(tmpl, key) {
			t.Errorf("template should mention %q", key)
		}
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeGeneral, false},
		{"general", ModeGeneral, false},
		{"code", ModeCode, false},
		{"poetry", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
