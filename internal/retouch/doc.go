// Package retouch turns an untrusted raw prompt into a cleaned, structured
// record using an OpenAI-compatible completion endpoint.
//
// A call builds one user message from the instruction template and the
// prompt, sends it through a [providers.Completer], redacts the reply,
// extracts the first JSON object from it, validates that object against the
// output schema and redacts it again. Content that cannot be extracted or
// validated is retried with its own budget and back-off, independent of the
// transport retries inside the completer.
//
// The instruction template is read once per [Template] and then shared.
package retouch
