package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const maxLineSize = 10 << 20

// Server speaks line-delimited JSON-RPC 2.0 (MCP stdio transport).
type Server struct {
	info     ServerInfo
	registry *Registry
	logger   *zap.Logger
}

// NewServer creates a server exposing the tools in reg.
func NewServer(info ServerInfo, reg *Registry, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{info: info, registry: reg, logger: logger}
}

// lineWriter serialises responses from concurrent handlers.
type lineWriter struct {
	mu  sync.Mutex
	w   io.Writer
	err error
}

func (lw *lineWriter) write(resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		data, _ = json.Marshal(Response{
			JSONRPC: jsonRPCVersion,
			ID:      resp.ID,
			Error:   rpcErrorf(CodeInternalError, "encoding response: %v", err),
		})
	}
	data = append(data, '\n')

	lw.mu.Lock()
	defer lw.mu.Unlock()
	if lw.err != nil {
		return
	}
	_, lw.err = lw.w.Write(data)
}

// Serve reads requests from r and writes responses to w until r is
// exhausted or ctx is done. Requests are handled concurrently; Serve waits
// for in-flight requests before returning.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := &lineWriter{w: w}
	lines := make(chan []byte)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	var wg sync.WaitGroup
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				wg.Wait()
				if err := ctx.Err(); err != nil {
					return err
				}
				var err error
				select {
				case err = <-readErr:
				default:
				}
				if err != nil {
					return fmt.Errorf("reading requests: %w", err)
				}
				return nil
			}
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.handleLine(ctx, line, out)
			}()
		}
	}
}

func (s *Server) handleLine(ctx context.Context, line []byte, out *lineWriter) {
	line = bytes.TrimSpace(line)
	if line[0] == '[' {
		out.write(Response{JSONRPC: jsonRPCVersion, Error: rpcErrorf(CodeInvalidRequest, "batch requests are not supported")})
		return
	}

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		out.write(Response{JSONRPC: jsonRPCVersion, Error: rpcErrorf(CodeParseError, "parse error: %v", err)})
		return
	}
	if req.JSONRPC != jsonRPCVersion || req.Method == "" {
		if !req.IsNotification() {
			out.write(Response{JSONRPC: jsonRPCVersion, ID: req.ID, Error: rpcErrorf(CodeInvalidRequest, "invalid request")})
		}
		return
	}

	result, rpcErr := s.dispatch(ctx, req)
	if req.IsNotification() {
		return
	}
	resp := Response{JSONRPC: jsonRPCVersion, ID: req.ID}
	if rpcErr != nil {
		resp.Error = rpcErr
	} else {
		resp.Result = result
		if result == nil {
			resp.Result = map[string]any{}
		}
	}
	out.write(resp)
}

func (s *Server) dispatch(ctx context.Context, req Request) (result any, rpcErr *RPCError) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("rpc.panic", zap.String("method", req.Method), zap.Any("panic", p))
			result, rpcErr = nil, rpcErrorf(CodeInternalError, "internal error")
		}
	}()

	switch {
	case req.Method == "initialize":
		return initializeResult{
			ProtocolVersion: ProtocolVersion,
			Capabilities:    map[string]any{"tools": map[string]any{}},
			ServerInfo:      s.info,
		}, nil
	case req.Method == "ping":
		return map[string]any{}, nil
	case req.Method == "tools/list":
		return listToolsResult{Tools: s.registry.Specs()}, nil
	case req.Method == "tools/call":
		return s.callTool(ctx, req.Params)
	case strings.HasPrefix(req.Method, "notifications/"):
		return nil, nil
	default:
		return nil, rpcErrorf(CodeMethodNotFound, "method not found: %s", req.Method)
	}
}

func (s *Server) callTool(ctx context.Context, raw json.RawMessage) (any, *RPCError) {
	var params callToolParams
	if err := json.Unmarshal(raw, &params); err != nil || params.Name == "" {
		return nil, rpcErrorf(CodeInvalidParams, "tools/call requires a tool name")
	}
	if !s.registry.Has(params.Name) {
		return nil, rpcErrorf(CodeInvalidParams, "unknown tool: %s", params.Name)
	}

	start := time.Now()
	value, err := s.registry.Call(ctx, params.Name, params.Arguments)
	elapsed := zap.Int64("elapsed_ms", time.Since(start).Milliseconds())
	if err != nil {
		msg := err.Error()
		s.logger.Error("tool.error", zap.String("tool", params.Name), zap.String("msg", msg), elapsed)
		return CallToolResult{Content: []Content{{Type: "text", Text: msg}}, IsError: true}, nil
	}

	text, err := json.Marshal(value)
	if err != nil {
		return nil, rpcErrorf(CodeInternalError, "encoding tool result: %v", err)
	}
	s.logger.Info("tool.call", zap.String("tool", params.Name), elapsed)
	return CallToolResult{
		Content:           []Content{{Type: "text", Text: string(text)}},
		StructuredContent: value,
	}, nil
}

// IsShutdown reports whether err from Serve is a normal stop.
func IsShutdown(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}
