// Package redact removes credential-shaped substrings from text before it
// leaves the process or reaches a log.
//
// Detection is an ordered table of regex rules: API keys with an sk- prefix,
// JWTs, AWS access key IDs, Slack tokens, email addresses, and long runs of
// the base64 alphabet. Each match becomes [REDACTED] and is counted.
//
// [Deep] applies the same scan to every string in a decoded JSON value.
package redact
