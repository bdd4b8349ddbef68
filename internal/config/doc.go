// Package config loads the retoucher configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (LLM_API_BASE, LLM_MODEL, LLM_TIMEOUT_MS, etc.)
//  3. Config file (--config, or $XDG_CONFIG_HOME/retoucher/config.yaml)
//  4. A .env file in the working directory
//  5. Built-in defaults
//
// Unusable numeric, boolean and level values fall back to their defaults
// rather than failing. The base URL is the exception: [Load] rejects one
// that does not parse, and with enforce_local_api set, one that is not a
// loopback host.
//
// Use [Load] to obtain a merged [Config], [Save] to write a config file,
// and [SetField] to update a single key.
package config
