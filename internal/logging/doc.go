// Package logging builds the zap logger shared by every component.
//
// Records are JSON lines on stderr so that stdout can carry the MCP stream.
// [Preview] produces redacted, bounded excerpts of user text for log fields.
package logging
