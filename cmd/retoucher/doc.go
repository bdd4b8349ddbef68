// Retoucher is a local-first prompt cleaner that never lets secrets through.
//
// It sends a raw prompt to an OpenAI-compatible chat endpoint together with
// a cleaning template, recovers a structured answer from the reply, and
// redacts secret-shaped values before and after the round trip. It runs as
// an MCP server on stdio or as a one-shot command.
//
// Usage:
//
//	retoucher serve                          # MCP stdio server
//	retoucher clean "my prompt"              # clean one prompt
//	echo "my prompt" | retoucher clean -     # read the prompt from stdin
//	retoucher clean --format text --mode code "fix this function"
//	retoucher config show                    # effective config, key masked
//	retoucher config init                    # write a default config file
//
// Configuration comes from flags, LLM_* environment variables, a YAML
// config file and a .env file, in that order of precedence.
package main
