// Package cli wires together the Cobra command tree for the retoucher binary.
//
// It defines the root command and its subcommands (serve, clean, config,
// version), binds flags, reads configuration, builds the completion client
// and retouch engine, and maps failures onto deterministic exit codes.
package cli
