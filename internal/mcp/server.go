// Package mcp implements the Model Context Protocol server: JSON-RPC 2.0
// dispatch, the tool, prompt and resource registry, and the stdio and
// Streamable HTTP transports.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/emergent-company/omviews/internal/faults"
	"github.com/emergent-company/omviews/internal/metrics"
)

// Server implements the MCP protocol. Run and Serve speak the stdio
// transport; HTTPServer wraps HandleMessage for Streamable HTTP.
type Server struct {
	registry *Registry
	info     ServerInfo
	logger   *slog.Logger
	methods  map[string]method
}

type method func(ctx context.Context, params json.RawMessage) (any, *RPCError)

// NewServer creates an MCP server with the given registry and server info.
func NewServer(registry *Registry, info ServerInfo, logger *slog.Logger) *Server {
	s := &Server{
		registry: registry,
		info:     info,
		logger:   logger,
	}
	s.methods = map[string]method{
		"initialize":     s.handleInitialize,
		"ping":           func(context.Context, json.RawMessage) (any, *RPCError) { return struct{}{}, nil },
		"tools/list":     s.handleToolsList,
		"tools/call":     s.handleToolsCall,
		"prompts/list":   s.handlePromptsList,
		"prompts/get":    s.handlePromptsGet,
		"resources/list": s.handleResourcesList,
		"resources/read": s.handleResourcesRead,
	}
	return s
}

// Run reads JSON-RPC requests from stdin and writes responses to stdout.
// It blocks until stdin is closed or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads newline-delimited JSON-RPC requests from r and writes
// responses to w until r is exhausted or the context is cancelled.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// materialised views with Mermaid text can be large
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024)
	encoder := json.NewEncoder(w)

	s.logger.Info("omviews server started", "name", s.info.Name, "version", s.info.Version)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if resp := s.HandleMessage(ctx, line); resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.logger.Error("failed to write response", "error", err)
				return fmt.Errorf("writing response: %w", err)
			}
		}
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return fmt.Errorf("reading input: %w", err)
	}

	s.logger.Info("omviews server stopped (input closed)")
	return nil
}

// HandleMessage parses a JSON-RPC request and dispatches it. Notifications
// yield a nil response.
func (s *Server) HandleMessage(ctx context.Context, data []byte) *Response {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		s.logger.Error("failed to parse request", "error", err)
		return reply(nil, nil, &RPCError{Code: ErrCodeParse, Message: "Parse error", Data: err.Error()})
	}

	if req.IsNotification() {
		if req.Method == "notifications/initialized" {
			s.logger.Info("client initialized")
		} else {
			s.logger.Debug("received notification", "method", req.Method)
		}
		return nil
	}

	s.logger.Debug("handling request", "method", req.Method, "id", string(req.ID))

	m, ok := s.methods[req.Method]
	if !ok {
		return reply(req.ID, nil, &RPCError{
			Code:    ErrCodeMethodNotFound,
			Message: fmt.Sprintf("method not found: %s", req.Method),
		})
	}
	result, rpcErr := m(ctx, req.Params)
	return reply(req.ID, result, rpcErr)
}

func (s *Server) handleInitialize(_ context.Context, params json.RawMessage) (any, *RPCError) {
	var p InitializeParams
	if params != nil {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, invalidParams("initialize", err)
		}
	}
	version := negotiateVersion(p.ProtocolVersion)

	s.logger.Info("client connecting",
		"client", p.ClientInfo.Name,
		"client_version", p.ClientInfo.Version,
		"requested_protocol", p.ProtocolVersion,
		"protocol_version", version,
	)

	caps := ServerCapability{Tools: &ListCapability{}}
	if s.registry.HasPrompts() {
		caps.Prompts = &ListCapability{}
	}
	if s.registry.HasResources() {
		caps.Resources = &ListCapability{}
	}

	return &InitializeResult{
		ProtocolVersion: version,
		Capabilities:    caps,
		ServerInfo:      s.info,
		Instructions:    "Tools are named om_<kind>_<action>. Read omviews://type-model before creating relationships.",
	}, nil
}

func (s *Server) handleToolsList(context.Context, json.RawMessage) (any, *RPCError) {
	return &ToolsListResult{Tools: s.registry.List()}, nil
}

func (s *Server) handleToolsCall(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	var p ToolsCallParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, invalidParams("tools/call", err)
	}

	tool := s.registry.Get(p.Name)
	if tool == nil {
		return nil, &RPCError{
			Code:    ErrCodeMethodNotFound,
			Message: fmt.Sprintf("tool not found: %s", p.Name),
		}
	}

	s.logger.Info("calling tool", "tool", p.Name)

	result, err := tool.Execute(ctx, p.Arguments)
	if err != nil {
		metrics.ObserveToolCall(p.Name, true)
		// caller errors are tool results the client can act on, not failures
		if faults.IsCallerError(err) {
			s.logger.Info("tool rejected request", "tool", p.Name, "error", err)
			return ErrorResult(err.Error()), nil
		}
		s.logger.Error("tool execution failed", "tool", p.Name, "error", err)
		return ErrorResult(fmt.Sprintf("tool execution failed: %v", err)), nil
	}
	metrics.ObserveToolCall(p.Name, result != nil && result.IsError)
	return result, nil
}

func (s *Server) handlePromptsList(context.Context, json.RawMessage) (any, *RPCError) {
	return &PromptsListResult{Prompts: s.registry.ListPrompts()}, nil
}

func (s *Server) handlePromptsGet(_ context.Context, params json.RawMessage) (any, *RPCError) {
	var p PromptsGetParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, invalidParams("prompts/get", err)
	}
	prompt := s.registry.GetPrompt(p.Name)
	if prompt == nil {
		return nil, &RPCError{
			Code:    ErrCodeMethodNotFound,
			Message: fmt.Sprintf("prompt not found: %s", p.Name),
		}
	}

	s.logger.Debug("getting prompt", "prompt", p.Name)

	result, err := prompt.Get(p.Arguments)
	if err != nil {
		// Prompts only fail on bad arguments.
		return nil, &RPCError{Code: ErrCodeInvalidParams, Message: fmt.Sprintf("prompt error: %v", err)}
	}
	return result, nil
}

func (s *Server) handleResourcesList(context.Context, json.RawMessage) (any, *RPCError) {
	return &ResourcesListResult{Resources: s.registry.ListResources()}, nil
}

func (s *Server) handleResourcesRead(_ context.Context, params json.RawMessage) (any, *RPCError) {
	var p ResourcesReadParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, invalidParams("resources/read", err)
	}
	resource := s.registry.GetResource(p.URI)
	if resource == nil {
		return nil, &RPCError{
			Code:    ErrCodeMethodNotFound,
			Message: fmt.Sprintf("resource not found: %s", p.URI),
		}
	}

	s.logger.Debug("reading resource", "uri", p.URI)

	result, err := resource.Read()
	if err != nil {
		return nil, &RPCError{
			Code:    ErrCodeInternal,
			Message: fmt.Sprintf("resource read error: %v", err),
		}
	}
	return result, nil
}
