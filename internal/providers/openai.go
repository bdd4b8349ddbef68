package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/retoucher/internal/redact"
	"github.com/dshills/retoucher/internal/retry"
)

const (
	defaultTimeout    = 60 * time.Second
	maxStatusBodyLen  = 300
	maxNonJSONBodyLen = 200
)

// ClientConfig configures an [OpenAI] client.
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	Backoff    retry.Backoff
	HTTPClient *http.Client
}

// OpenAI talks to any OpenAI-compatible /chat/completions endpoint.
type OpenAI struct {
	apiKey     string
	baseURL    string
	client     *http.Client
	timeout    time.Duration
	maxRetries int
	backoff    retry.Backoff
	logger     *zap.Logger
}

// NewOpenAI creates a client. A nil logger discards logs.
func NewOpenAI(cfg ClientConfig, logger *zap.Logger) *OpenAI {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAI{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		client:     client,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.Backoff,
		logger:     logger,
	}
}

func (o *OpenAI) endpoint() string {
	return strings.TrimRight(o.baseURL, "/") + "/chat/completions"
}

func (o *OpenAI) log() *zap.Logger {
	if o.logger == nil {
		return zap.NewNop()
	}
	return o.logger
}

// Complete sends req, retrying 5xx responses and network failures up to the
// retry budget. Timeouts, other statuses and undecodable bodies fail at once.
func (o *OpenAI) Complete(ctx context.Context, req CompletionRequest, opts CallOptions) (CompletionResponse, error) {
	if err := req.Validate(); err != nil {
		return CompletionResponse{}, err
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("marshaling request: %w", err)
	}

	timeout := o.timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxRetries := o.maxRetries
	if opts.MaxRetries > 0 {
		maxRetries = opts.MaxRetries
	}
	if opts.DisableRetry {
		maxRetries = 0
	}
	id := opts.CorrelationID
	if id == "" {
		id = uuid.NewString()
	}

	start := time.Now()
	attempts := 0
	var resp CompletionResponse
	err = retry.Do(ctx, maxRetries, o.backoff, func() error {
		attempts++
		r, err := o.attempt(ctx, payload, timeout, id)
		if err != nil {
			var e *Error
			if errors.As(err, &e) && e.retryable() {
				return err
			}
			return retry.Permanent(err)
		}
		resp = r
		return nil
	}, func(attempt int, err error, delay time.Duration) {
		o.log().Warn("llm.retry",
			zap.String("request_id", id),
			zap.Int("attempt", attempt),
			zap.Int64("delay_ms", delay.Milliseconds()),
			zap.String("kind", KindOf(err).String()),
			zap.Int("status", StatusCode(err)),
		)
	})

	outcome := "ok"
	if err != nil {
		outcome = KindOf(err).String()
	}
	o.log().Info("llm.call",
		zap.String("request_id", id),
		zap.String("model", req.Model),
		zap.Int64("elapsed_ms", time.Since(start).Milliseconds()),
		zap.Int("input_len", len(payload)),
		zap.Int("attempts", attempts),
		zap.String("outcome", outcome),
	)
	if err != nil {
		return CompletionResponse{}, err
	}
	return resp, nil
}

func (o *OpenAI) attempt(parent context.Context, payload []byte, timeout time.Duration, id string) (CompletionResponse, error) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-Id", id)
	if o.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	httpResp, err := o.client.Do(httpReq)
	if err != nil {
		return CompletionResponse{}, transportError(parent, ctx, timeout, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return CompletionResponse{}, transportError(parent, ctx, timeout, err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return CompletionResponse{}, &Error{
			Kind:       KindHTTPStatus,
			StatusCode: httpResp.StatusCode,
			Message:    fmt.Sprintf("LLM HTTP %d: %s", httpResp.StatusCode, truncate(redact.Secrets(string(body)), maxStatusBodyLen)),
		}
	}

	var result CompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return CompletionResponse{}, &Error{
			Kind:    KindNonJSON,
			Message: "LLM returned non-JSON: " + truncate(redact.Secrets(string(body)), maxNonJSONBodyLen),
			Err:     err,
		}
	}
	return result, nil
}

// transportError attributes a failed round trip. Cancellation of the
// caller's context wins over the attempt deadline.
func transportError(parent, attemptCtx context.Context, timeout time.Duration, err error) error {
	if perr := parent.Err(); perr != nil {
		return perr
	}
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return &Error{
			Kind:    KindTimeout,
			Message: fmt.Sprintf("LLM timeout after %dms", timeout.Milliseconds()),
			Err:     context.DeadlineExceeded,
		}
	}
	return &Error{
		Kind:    KindNetwork,
		Message: "LLM request failed: " + redact.Secrets(err.Error()),
		Err:     err,
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
