package cli

import (
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/dshills/retoucher/internal/config"
	"github.com/dshills/retoucher/internal/logging"
	"github.com/dshills/retoucher/internal/providers"
	"github.com/dshills/retoucher/internal/retouch"
)

// newLogger logs to stderr, or to w when a test has redirected it.
func newLogger(level string, w io.Writer) (*zap.Logger, error) {
	if w == os.Stderr {
		return logging.New(level)
	}
	return logging.NewWithWriter(level, w), nil
}

// newEngine builds the completion client and orchestrator from cfg.
func newEngine(cfg config.Config, logger *zap.Logger) *retouch.Engine {
	client := providers.NewOpenAI(providers.ClientConfig{
		BaseURL:    cfg.APIBase,
		APIKey:     cfg.APIKey,
		Timeout:    cfg.Timeout(),
		MaxRetries: cfg.MaxRetries,
		Backoff:    cfg.Backoff(),
	}, logger)

	return retouch.NewEngine(client, retouch.NewTemplate(cfg.PromptPath), retouch.Options{
		Model:             cfg.Model,
		MaxTokens:         cfg.MaxTokens,
		ContentMaxRetries: cfg.ContentMaxRetries,
		ContentBackoff:    cfg.ContentBackoff(),
		TotalTimeout:      cfg.TotalTimeout(),
	}, logger)
}
