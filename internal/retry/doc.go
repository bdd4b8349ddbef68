// Package retry runs an operation with a bounded number of retries and
// jittered exponential backoff between attempts.
//
// Both the HTTP transport and the content-validation loop use it with their
// own budgets. Attempts never overlap.
package retry
