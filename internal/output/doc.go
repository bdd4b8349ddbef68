// Package output formats retouch results for display or machine consumption.
//
// Four formats are supported:
//   - json    : the result record as indented JSON (default)
//   - text    : human-readable terminal output
//   - yaml    : the result record as YAML
//   - markdown: the retouched prompt in a fenced block plus bullet sections
//
// Use [GetWriter] to obtain a [Writer] for a given format string, then call
// [Writer.Write] with an [io.Writer] and a [*retouch.Output]. [WriteOutput]
// handles destination selection.
package output
