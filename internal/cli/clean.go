package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/retoucher/internal/config"
	"github.com/dshills/retoucher/internal/output"
	"github.com/dshills/retoucher/internal/retouch"
)

// Clean flags
var (
	flagMode        string
	flagTemperature float64
	flagModel       string
	flagFormat      string
	flagOut         string
)

var cleanCmd = &cobra.Command{
	Use:   "clean [prompt]",
	Short: "Clean one prompt and print the result",
	Long:  "Clean sends one prompt through the cleaner. With no argument, or with \"-\", the prompt is read from stdin.",
	Args:  usageArgs(cobra.MaximumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		writer, err := output.GetWriter(flagFormat)
		if err != nil {
			return &usageError{err: err}
		}
		prompt, err := readPrompt(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}

		cfg, err := loadConfig(map[string]string{config.KeyModel: flagModel})
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg.LogLevel, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		out, err := newEngine(cfg, logger).Retouch(ctx, retouch.Input{
			Prompt:      prompt,
			Mode:        retouch.Mode(flagMode),
			Temperature: flagTemperature,
		})
		if err != nil {
			return err
		}

		if flagOut != "" {
			return output.WriteOutput(&out, flagFormat, flagOut)
		}
		return writer.Write(cmd.OutOrStdout(), &out)
	},
}

func readPrompt(stdin io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("reading prompt from stdin: %w", err)
	}
	prompt := strings.TrimRight(string(data), "\r\n")
	if strings.TrimSpace(prompt) == "" {
		return "", &usageError{err: fmt.Errorf("no prompt given")}
	}
	return prompt, nil
}

func init() {
	cleanCmd.Flags().StringVar(&flagMode, "mode", "general", "Cleaning mode (code, general)")
	cleanCmd.Flags().Float64Var(&flagTemperature, "temperature", 0, "Sampling temperature in [0,2]")
	cleanCmd.Flags().StringVar(&flagModel, "model", "", "Model name (overrides LLM_MODEL)")
	cleanCmd.Flags().StringVar(&flagFormat, "format", "json", "Output format ("+strings.Join(output.Formats(), ", ")+")")
	cleanCmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
}
