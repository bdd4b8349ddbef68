package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/retoucher/internal/retouch"
)

// Tool names.
const (
	HealthToolName  = "health-ping"
	CleanerToolName = "cleaner"
)

// Retoucher cleans one prompt.
type Retoucher interface {
	Retouch(ctx context.Context, in retouch.Input) (retouch.Output, error)
}

// HealthTool is a liveness check.
type HealthTool struct {
	logger *zap.Logger
}

// NewHealthTool returns the health-ping tool.
func NewHealthTool(logger *zap.Logger) *HealthTool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthTool{logger: logger}
}

// HealthResult is the health-ping result.
type HealthResult struct {
	OK bool `json:"ok"`
}

func (h *HealthTool) Spec() ToolSpec {
	return ToolSpec{
		Name:        HealthToolName,
		Description: "Liveness check; returns { ok: true }",
		InputSchema: json.RawMessage(`{"type":"object","properties":{}}`),
	}
}

func (h *HealthTool) Call(ctx context.Context, _ json.RawMessage) (any, error) {
	start := time.Now()
	h.logger.Info("health.ping", zap.Int64("elapsed_ms", time.Since(start).Milliseconds()))
	return HealthResult{OK: true}, nil
}

// CleanerTool exposes a Retoucher as the cleaner tool.
type CleanerTool struct {
	retoucher Retoucher
}

// NewCleanerTool wraps r.
func NewCleanerTool(r Retoucher) *CleanerTool {
	return &CleanerTool{retoucher: r}
}

type cleanerArgs struct {
	Prompt      string   `json:"prompt"`
	Mode        string   `json:"mode,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	RequestID   string   `json:"requestId,omitempty"`
}

const cleanerSchema = `{
  "type": "object",
  "properties": {
    "prompt": {"type": "string", "minLength": 1, "description": "Raw user prompt"},
    "mode": {"type": "string", "enum": ["code", "general"], "description": "Cleaning mode; default 'general'. Use 'code' only for code-related prompts."},
    "temperature": {"type": "number", "minimum": 0, "maximum": 2, "description": "Sampling temperature (0-2); default 0"},
    "requestId": {"type": "string", "format": "uuid", "description": "Optional correlation id"}
  },
  "required": ["prompt"],
  "additionalProperties": false
}`

func (c *CleanerTool) Spec() ToolSpec {
	return ToolSpec{
		Name: CleanerToolName,
		Description: "Prompt cleaner. Use this on user-supplied text before you reason or respond to normalize tone, " +
			"redact secrets and PII, and enforce a structured output. Defaults: mode='general', temperature=0. " +
			"Does not change the user's intent or factual content. Returns JSON with retouched text plus optional " +
			"notes, openQuestions, risks, and redactions.",
		InputSchema: json.RawMessage(cleanerSchema),
	}
}

func (c *CleanerTool) Call(ctx context.Context, args json.RawMessage) (any, error) {
	in, err := decodeCleanerArgs(args)
	if err != nil {
		return nil, err
	}
	out, err := c.retoucher.Retouch(ctx, in)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func decodeCleanerArgs(raw json.RawMessage) (retouch.Input, error) {
	var args cleanerArgs
	if len(bytes.TrimSpace(raw)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&args); err != nil {
			return retouch.Input{}, fmt.Errorf("%w: %v", retouch.ErrInvalidInput, err)
		}
	}
	if args.Prompt == "" {
		return retouch.Input{}, fmt.Errorf("%w: prompt is required", retouch.ErrInvalidInput)
	}
	mode, err := retouch.ParseMode(args.Mode)
	if err != nil {
		return retouch.Input{}, err
	}
	if args.RequestID != "" {
		if _, err := uuid.Parse(args.RequestID); err != nil {
			return retouch.Input{}, fmt.Errorf("%w: requestId must be a UUID", retouch.ErrInvalidInput)
		}
	}
	in := retouch.Input{Prompt: args.Prompt, Mode: mode, RequestID: args.RequestID}
	if args.Temperature != nil {
		in.Temperature = *args.Temperature
	}
	return in, nil
}
