package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dshills/retoucher/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage retoucher configuration",
}

// configTarget is the file config init/set operate on.
func configTarget(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if flagConfig != "" {
		return flagConfig, nil
	}
	return config.ConfigPath()
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Create a default configuration file",
	Args:  usageArgs(cobra.MaximumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configTarget(args)
		if err != nil {
			return err
		}

		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Config file already exists at %s\n", path)
			return nil
		}

		if err := config.Save(path, config.Default()); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Config file created at %s\n", path)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  usageArgs(cobra.ExactArgs(2)),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configTarget(nil)
		if err != nil {
			return err
		}
		cfg, err := config.LoadFile(path)
		if err != nil {
			return err
		}
		if cfg == (config.Config{}) {
			cfg = config.Default()
		}

		if err := config.SetField(&cfg, args[0], args[1]); err != nil {
			return &usageError{err: err}
		}

		if err := config.Save(path, cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}

		shown := args[1]
		if args[0] == config.KeyAPIKey {
			shown = config.Config{APIKey: shown}.Masked().APIKey
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", args[0], shown)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(nil)
		if err != nil {
			return err
		}

		data, err := yaml.Marshal(cfg.Masked())
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configShowCmd)
}
