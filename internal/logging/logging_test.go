package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"error", zapcore.ErrorLevel},
		{"WARN", zapcore.WarnLevel},
		{"info", zapcore.InfoLevel},
		{" debug ", zapcore.DebugLevel},
		{"verbose", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewWithWriter_JSONRecord(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("info", &buf)
	logger.Debug("hidden")
	logger.Info("retouch.prompt", zap.String("request_id", "r1"), zap.Int("attempts", 2))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if rec["msg"] != "retouch.prompt" {
		t.Errorf("msg = %v", rec["msg"])
	}
	if rec["level"] != "info" {
		t.Errorf("level = %v", rec["level"])
	}
	if rec["request_id"] != "r1" {
		t.Errorf("request_id = %v", rec["request_id"])
	}
	if _, ok := rec["time"]; !ok {
		t.Error("record should carry a time field")
	}
}

func TestPreview(t *testing.T) {
	if got := Preview("key sk-abcdefgh"); got != "key [REDACTED]" {
		t.Errorf("Preview = %q", got)
	}
	long := strings.Repeat("word ", 100)
	got := Preview(long)
	if !strings.HasSuffix(got, "…") {
		t.Errorf("long preview should end with ellipsis: %q", got)
	}
	if n := len([]rune(got)); n != previewLimit+1 {
		t.Errorf("preview length = %d runes, want %d", n, previewLimit+1)
	}
	short := "héllo"
	if got := Preview(short); got != short {
		t.Errorf("Preview(%q) = %q", short, got)
	}
}
