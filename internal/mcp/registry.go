package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownTool is returned by [Registry.Call] for unregistered names.
var ErrUnknownTool = errors.New("mcp: unknown tool")

// ToolSpec documents a tool's contract (name + input schema).
type ToolSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// Tool is an in-process MCP tool.
type Tool interface {
	Spec() ToolSpec
	Call(ctx context.Context, args json.RawMessage) (any, error)
}

// Registry holds tool registrations and dispatches calls.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty registry and registers any provided tools.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: map[string]Tool{}}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register adds or replaces a tool by name.
func (r *Registry) Register(t Tool) {
	if r == nil || t == nil {
		return
	}
	spec := t.Spec()
	if spec.Name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tools == nil {
		r.tools = map[string]Tool{}
	}
	r.tools[spec.Name] = t
}

// Call invokes a registered tool.
func (r *Registry) Call(ctx context.Context, name string, args json.RawMessage) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("mcp: registry is nil")
	}
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownTool, name)
	}
	return t.Call(ctx, args)
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Specs returns the current tool specs sorted by name.
func (r *Registry) Specs() []ToolSpec {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	out := make([]ToolSpec, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t.Spec())
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
