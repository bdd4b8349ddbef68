package output

import (
	"io"
	"strings"

	"github.com/dshills/retoucher/internal/retouch"
)

// MarkdownWriter outputs the result as a markdown document, with the
// retouched prompt in a fenced block ready to paste.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, out *retouch.Output) error {
	ew := &errWriter{w: w}

	ew.printf("## Retouched prompt\n\n")
	fence := fenceFor(out.Retouched)
	ew.printf("%s\n%s\n%s\n", fence, out.Retouched, fence)

	mdList(ew, "Notes", out.Notes)
	mdList(ew, "Open questions", out.OpenQuestions)
	mdList(ew, "Risks", out.Risks)
	if n := len(out.Redactions); n > 0 {
		ew.printf("\n> %d secret(s) were replaced with `%s`.\n", n, out.Redactions[0])
	}
	return ew.err
}

func mdList(ew *errWriter, title string, items []string) {
	if len(items) == 0 {
		return
	}
	ew.printf("\n### %s\n\n", title)
	for _, item := range items {
		ew.printf("- %s\n", strings.ReplaceAll(item, "\n", "\n  "))
	}
}

// fenceFor returns a backtick fence longer than any run inside s.
func fenceFor(s string) string {
	longest, run := 0, 0
	for _, r := range s {
		if r == '`' {
			run++
			longest = max(longest, run)
			continue
		}
		run = 0
	}
	return strings.Repeat("`", max(3, longest+1))
}
