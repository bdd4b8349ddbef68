package providers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// Chat roles accepted by OpenAI-compatible endpoints.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one message of a chat completion request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the body POSTed to {base}/chat/completions.
type CompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

// ErrInvalidRequest is returned by [CompletionRequest.Validate].
var ErrInvalidRequest = errors.New("invalid completion request")

// Validate checks the request before it is sent.
func (r CompletionRequest) Validate() error {
	if r.Model == "" {
		return fmt.Errorf("%w: model is required", ErrInvalidRequest)
	}
	if len(r.Messages) == 0 {
		return fmt.Errorf("%w: at least one message is required", ErrInvalidRequest)
	}
	for i, m := range r.Messages {
		switch m.Role {
		case RoleSystem, RoleUser, RoleAssistant:
		default:
			return fmt.Errorf("%w: message %d has unknown role %q", ErrInvalidRequest, i, m.Role)
		}
	}
	if math.IsNaN(r.Temperature) || r.Temperature < 0 || r.Temperature > 2 {
		return fmt.Errorf("%w: temperature %v outside [0,2]", ErrInvalidRequest, r.Temperature)
	}
	if r.MaxTokens <= 0 {
		return fmt.Errorf("%w: max_tokens must be positive", ErrInvalidRequest)
	}
	return nil
}

// ResponseMessage is the assistant message of a choice.
type ResponseMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Choice is one completion alternative.
type Choice struct {
	Index        int              `json:"index"`
	Message      *ResponseMessage `json:"message,omitempty"`
	FinishReason *string          `json:"finish_reason,omitempty"`
}

// CompletionResponse is the decoded endpoint reply.
type CompletionResponse struct {
	ID      string         `json:"id,omitempty"`
	Object  string         `json:"object,omitempty"`
	Created int64          `json:"created,omitempty"`
	Model   string         `json:"model,omitempty"`
	Choices []Choice       `json:"choices"`
	Usage   map[string]any `json:"usage,omitempty"`
}

// Content returns choices[0].message.content, or "" when absent.
func (r CompletionResponse) Content() string {
	if len(r.Choices) == 0 || r.Choices[0].Message == nil {
		return ""
	}
	return r.Choices[0].Message.Content
}

// CallOptions tune a single Complete call. Zero values use the client
// defaults.
type CallOptions struct {
	Timeout       time.Duration
	DisableRetry  bool
	MaxRetries    int
	CorrelationID string
}

// Completer sends a chat completion request.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest, opts CallOptions) (CompletionResponse, error)
}
