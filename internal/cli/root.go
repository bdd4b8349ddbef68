package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/retoucher/internal/config"
	"github.com/dshills/retoucher/internal/providers"
	"github.com/dshills/retoucher/internal/retouch"
)

const (
	version    = "0.1.0"
	serverName = "mcp-retoucher"
)

// Exit codes.
const (
	ExitSuccess        = 0
	ExitContentFailure = 1
	ExitUsageError     = 2
	ExitAuthError      = 3
	ExitRuntimeError   = 4
)

// Persistent flags
var (
	flagConfig   string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:           "retoucher",
	Short:         "Secret-redacting prompt cleaner",
	Long:          "Retoucher rewrites raw prompts through a local OpenAI-compatible model, redacting secrets before and after the round trip. It runs as an MCP stdio server or as a one-shot CLI.",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Run executes the root command and returns an exit code.
func Run() int {
	err := rootCmd.Execute()
	if err == nil {
		return ExitSuccess
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return exitCodeFor(err)
}

// usageError marks a bad invocation.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// usageArgs wraps a positional-args validator so its failures map to
// ExitUsageError.
func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}

func exitCodeFor(err error) int {
	var ue *usageError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &ue),
		config.IsConfigError(err),
		errors.Is(err, retouch.ErrInvalidInput),
		strings.HasPrefix(err.Error(), "unknown command"):
		return ExitUsageError
	case providers.IsAuthError(err):
		return ExitAuthError
	case errors.Is(err, retouch.ErrContentExtractionFailed):
		return ExitContentFailure
	default:
		return ExitRuntimeError
	}
}

// loadConfig merges config sources with the persistent flags on top.
func loadConfig(extra map[string]string) (config.Config, error) {
	overrides := map[string]string{config.KeyLogLevel: flagLogLevel}
	for k, v := range extra {
		overrides[k] = v
	}
	return config.Load(flagConfig, overrides)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print retoucher version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "retoucher version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: $XDG_CONFIG_HOME/retoucher/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (error, warn, info, debug)")
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
