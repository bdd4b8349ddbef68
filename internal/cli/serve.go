package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/retoucher/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdio",
	Long:  "Serve speaks line-delimited JSON-RPC on stdin/stdout and exposes the cleaner and health-ping tools. Logs go to stderr.",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(nil)
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg.LogLevel, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigs)
		go func() {
			select {
			case sig := <-sigs:
				logger.Info("shutdown", zap.String("signal", sig.String()))
				cancel()
			case <-ctx.Done():
			}
		}()

		reg := mcp.NewRegistry(
			mcp.NewCleanerTool(newEngine(cfg, logger)),
			mcp.NewHealthTool(logger),
		)
		srv := mcp.NewServer(mcp.ServerInfo{Name: serverName, Version: version}, reg, logger)

		logger.Info("server.started",
			zap.String("api_base", cfg.APIBase),
			zap.String("model", cfg.Model),
		)
		err = srv.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		if mcp.IsShutdown(err) {
			return nil
		}
		return err
	},
}
