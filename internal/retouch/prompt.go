package retouch

import "strings"

// BuildPrompt joins the instruction template and the user body into the
// single user message sent upstream.
func BuildPrompt(template string, mode Mode, prompt string) string {
	var b strings.Builder
	b.Grow(len(template) + len(prompt) + 32)
	b.WriteString(template)
	b.WriteString("\n\nMODE: ")
	b.WriteString(string(mode))
	b.WriteString("\nRAW_PROMPT:\n")
	b.WriteString(prompt)
	return b.String()
}
