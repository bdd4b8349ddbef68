package retouch

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/dshills/retoucher/internal/logging"
	"github.com/dshills/retoucher/internal/providers"
	"github.com/dshills/retoucher/internal/redact"
	"github.com/dshills/retoucher/internal/retry"
)

const defaultMaxTokens = 600

var (
	// ErrContentExtractionFailed is matched by every [*ContentError].
	ErrContentExtractionFailed = errors.New("cleaner returned non-JSON")
	// ErrDeadlineExceeded reports that the overall call deadline fired.
	ErrDeadlineExceeded = errors.New("retouch deadline exceeded")
)

// ContentError is returned once every attempt produced unusable content.
type ContentError struct {
	Attempts int
	Err      error
}

func (e *ContentError) Error() string {
	return fmt.Sprintf("cleaner returned non-JSON after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *ContentError) Unwrap() error { return e.Err }

func (e *ContentError) Is(target error) bool { return target == ErrContentExtractionFailed }

// Options configures an Engine.
type Options struct {
	Model             string
	MaxTokens         int
	ContentMaxRetries int
	ContentBackoff    retry.Backoff
	// TotalTimeout bounds a whole Retouch call when > 0.
	TotalTimeout time.Duration
}

// Engine turns raw prompts into validated, redacted records.
type Engine struct {
	completer providers.Completer
	template  *Template
	logger    *zap.Logger
	opts      Options
}

// NewEngine creates an Engine. A nil template uses the built-in one.
func NewEngine(c providers.Completer, t *Template, opts Options, logger *zap.Logger) *Engine {
	if t == nil {
		t = NewTemplate("")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.ContentMaxRetries < 0 {
		opts.ContentMaxRetries = 0
	}
	return &Engine{completer: c, template: t, logger: logger, opts: opts}
}

// Retouch sends in upstream and returns a validated record with every
// secret-shaped value replaced. Transport failures end the call at once;
// content that cannot be extracted or validated is retried up to
// ContentMaxRetries times.
func (e *Engine) Retouch(ctx context.Context, in Input) (Output, error) {
	start := time.Now()
	in, err := in.normalize()
	if err != nil {
		return Output{}, err
	}

	parent := ctx
	if e.opts.TotalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.TotalTimeout)
		defer cancel()
	}

	tmpl, err := e.template.Load(ctx)
	if err != nil {
		return Output{}, e.deadline(parent, ctx, err)
	}

	req := providers.CompletionRequest{
		Model:       e.opts.Model,
		Messages:    []providers.ChatMessage{{Role: providers.RoleUser, Content: BuildPrompt(tmpl, in.Mode, in.Prompt)}},
		Temperature: in.Temperature,
		MaxTokens:   e.opts.MaxTokens,
	}
	callOpts := providers.CallOptions{CorrelationID: in.RequestID}

	attempts := 0
	var (
		out  Output
		hits map[string]int
	)
	err = retry.Do(ctx, e.opts.ContentMaxRetries, e.opts.ContentBackoff, func() error {
		attempts++
		resp, err := e.completer.Complete(ctx, req, callOpts)
		if err != nil {
			return retry.Permanent(err)
		}
		o, h, err := process(resp.Content())
		if err != nil {
			return err
		}
		out, hits = o, h
		return nil
	}, func(attempt int, err error, delay time.Duration) {
		e.logger.Warn("retouch.retry",
			zap.String("request_id", in.RequestID),
			zap.Int("attempt", attempt),
			zap.Int64("delay_ms", delay.Milliseconds()),
			zap.String("reason", reason(err)),
		)
	})

	fields := []zap.Field{
		zap.String("request_id", in.RequestID),
		zap.Int64("elapsed_ms", time.Since(start).Milliseconds()),
		zap.Int("input_len", utf8.RuneCountInString(in.Prompt)),
		zap.String("preview", logging.Preview(in.Prompt)),
		zap.Int("attempts", attempts),
	}
	if err != nil {
		if isContentError(err) {
			err = &ContentError{Attempts: attempts, Err: err}
		} else {
			err = e.deadline(parent, ctx, err)
		}
		e.logger.Info("retouch.prompt", append(fields,
			zap.String("outcome", "error"),
			zap.String("reason", reason(err)),
		)...)
		return Output{}, err
	}

	if len(hits) > 0 {
		e.logger.Debug("retouch.redactions",
			zap.String("request_id", in.RequestID),
			zap.Any("rules", hits),
		)
	}
	e.logger.Info("retouch.prompt", append(fields,
		zap.String("outcome", "ok"),
		zap.Int("redactions", len(out.Redactions)),
	)...)
	return out, nil
}

// process runs one completion through redaction, extraction and validation.
// It also returns how many replacements each redaction rule made across the
// pre- and post-pass.
func process(content string) (Output, map[string]int, error) {
	pre := redact.Scan(content)
	obj, err := ExtractObject(pre.Text)
	if err != nil {
		return Output{}, nil, err
	}
	rec, err := Validate(obj)
	if err != nil {
		return Output{}, nil, err
	}
	clean, post := rec.redacted()
	hits := redact.Merge(redact.Merge(nil, pre.Hits), post)
	return clean.Output(pre.Count + total(post)), hits, nil
}

func total(hits map[string]int) int {
	n := 0
	for _, c := range hits {
		n += c
	}
	return n
}

// deadline attributes err to the overall deadline when that deadline, and
// not the caller's context, has fired.
func (e *Engine) deadline(parent, ctx context.Context, err error) error {
	if e.opts.TotalTimeout > 0 && parent.Err() == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %dms: %w", ErrDeadlineExceeded, e.opts.TotalTimeout.Milliseconds(), err)
	}
	return err
}

func isContentError(err error) bool {
	var shape *ShapeError
	return errors.Is(err, ErrExtractionFailed) || errors.As(err, &shape)
}

func reason(err error) string {
	var shape *ShapeError
	switch {
	case errors.Is(err, ErrExtractionFailed):
		return "non-json"
	case errors.As(err, &shape):
		return "shape-error"
	case errors.Is(err, ErrDeadlineExceeded):
		return "deadline"
	case providers.IsTimeout(err):
		return "timeout"
	default:
		return "transport"
	}
}
