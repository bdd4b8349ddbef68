// Package mcp serves tools over the Model Context Protocol stdio transport:
// newline-delimited JSON-RPC 2.0 on stdin and stdout.
//
// Tools implement [Tool] and are held in a [Registry]. The server answers
// initialize, ping, tools/list and tools/call, ignores notifications, and
// handles requests concurrently with serialised response writes. Logs never
// go to stdout.
package mcp
