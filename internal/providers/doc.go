// Package providers implements the completion client for OpenAI-compatible
// chat endpoints (OpenAI, LM Studio, vLLM, llama.cpp server, Ollama's /v1).
//
// Each attempt runs under its own deadline. Server errors (5xx) and network
// failures are retried with jittered exponential back-off; timeouts, other
// statuses and undecodable bodies fail immediately. Failures are reported as
// [*Error] values whose messages carry only redacted, truncated bodies.
//
// The HTTP client is injected through [ClientConfig] so that tests can point
// calls at local httptest servers without making live API requests.
package providers
