package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/retoucher/internal/retouch"
)

// TextWriter outputs a human-readable result.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, out *retouch.Output) error {
	ew := &errWriter{w: w}

	ew.println("Retouched prompt")
	ew.println(strings.Repeat("─", 60))
	ew.println(out.Retouched)
	ew.println(strings.Repeat("─", 60))

	section(ew, "Notes", out.Notes)
	section(ew, "Open questions", out.OpenQuestions)
	section(ew, "Risks", out.Risks)
	if n := len(out.Redactions); n > 0 {
		ew.printf("\nRedactions: %d secret(s) replaced with %s\n", n, out.Redactions[0])
	}

	return ew.err
}

func section(ew *errWriter, title string, items []string) {
	if len(items) == 0 {
		return
	}
	ew.printf("\n%s (%d)\n", title, len(items))
	for _, item := range items {
		lines := wrapText(item, 70)
		ew.printf("  - %s\n", lines[0])
		for _, line := range lines[1:] {
			ew.printf("    %s\n", line)
		}
	}
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

// wrapText breaks text on word boundaries. It always returns at least one
// line.
func wrapText(text string, width int) []string {
	if len([]rune(text)) <= width {
		return []string{text}
	}
	var lines []string
	var current strings.Builder
	n := 0
	for _, word := range strings.Fields(text) {
		wl := len([]rune(word))
		if n > 0 && n+wl+1 > width {
			lines = append(lines, current.String())
			current.Reset()
			n = 0
		}
		if n > 0 {
			current.WriteString(" ")
			n++
		}
		current.WriteString(word)
		n += wl
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
