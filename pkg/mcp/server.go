// Package mcp exposes a tracker store as a Model Context Protocol server.
//
// The same dispatcher serves two transports: newline-delimited JSON-RPC
// over stdio (Run) and single-message HTTP POSTs with session headers
// (Handler).
package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/daviddao/tracker/pkg/store"
)

// ServerName is reported in initialize results.
const ServerName = "tracker"

// Server dispatches MCP requests to a store. It is safe for concurrent
// use; per-client state lives in sessions.
type Server struct {
	store   store.Tracker
	logger  *slog.Logger
	version string

	tools         []tool
	toolsByName   map[string]*tool
	resources     []resource
	prompts       []promptTemplate
	promptsByName map[string]*promptTemplate
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithVersion sets the version reported in serverInfo.
func WithVersion(version string) Option {
	return func(s *Server) { s.version = version }
}

// NewServer builds a server over st.
func NewServer(st store.Tracker, options ...Option) *Server {
	s := &Server{
		store:   st,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		version: "dev",
	}
	for _, option := range options {
		option(s)
	}

	s.tools = trackerTools()
	s.toolsByName = make(map[string]*tool, len(s.tools))
	for i := range s.tools {
		s.toolsByName[s.tools[i].name] = &s.tools[i]
	}

	s.resources = trackerResources()

	s.prompts = trackerPrompts()
	s.promptsByName = make(map[string]*promptTemplate, len(s.prompts))
	for i := range s.prompts {
		s.promptsByName[s.prompts[i].name] = &s.prompts[i]
	}
	return s
}

// session holds the state of one client connection.
type session struct {
	initialized atomic.Bool
}

// Run reads newline-delimited JSON-RPC messages from input and writes
// responses to output until input reaches EOF or ctx is done. One stdio
// stream is one session.
func (s *Server) Run(ctx context.Context, input io.Reader, output io.Writer) error {
	scanner := bufio.NewScanner(input)
	// Tool results can be large; allow lines up to 1 MiB.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	encoder := json.NewEncoder(output)
	sess := &session{}

	s.logger.Info("mcp server started", "transport", "stdio")
	defer s.logger.Info("mcp server stopped", "transport", "stdio")

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		req, resp := decodeRequest(line)
		if req != nil {
			resp = s.handle(ctx, sess, req)
		}
		if resp == nil {
			continue
		}
		if err := encoder.Encode(resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
	return scanner.Err()
}

// decodeRequest parses one message. On failure it returns the error
// response to send instead (nil for a malformed notification).
func decodeRequest(data []byte) (*request, *response) {
	var req request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, errorResponse(nil, &rpcError{Code: codeParseError, Message: "parse error: " + err.Error()})
	}
	if req.JSONRPC != "2.0" {
		if req.isNotification() {
			return nil, nil
		}
		return nil, errorResponse(req.ID, &rpcError{Code: codeInvalidRequest, Message: "unsupported JSON-RPC version"})
	}
	return &req, nil
}

// handle dispatches req and returns its response, or nil for a
// notification.
func (s *Server) handle(ctx context.Context, sess *session, req *request) *response {
	if req.isNotification() {
		s.logger.Debug("notification", "method", req.Method)
		return nil
	}

	result, rpcErr := s.dispatch(ctx, sess, req)
	if rpcErr != nil {
		return errorResponse(req.ID, rpcErr)
	}
	return resultResponse(req.ID, result)
}

func (s *Server) dispatch(ctx context.Context, sess *session, req *request) (any, *rpcError) {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(sess, req)
	case "ping":
		return struct{}{}, nil
	}

	var handler func(context.Context, *request) (any, *rpcError)
	switch req.Method {
	case "tools/list":
		handler = s.handleToolsList
	case "tools/call":
		handler = s.handleToolsCall
	case "resources/list":
		handler = s.handleResourcesList
	case "resources/read":
		handler = s.handleResourcesRead
	case "prompts/list":
		handler = s.handlePromptsList
	case "prompts/get":
		handler = s.handlePromptsGet
	default:
		return nil, &rpcError{Code: codeMethodNotFound, Message: "unknown method: " + req.Method}
	}
	if !sess.initialized.Load() {
		return nil, &rpcError{Code: codeInvalidRequest, Message: "server not initialized (call initialize first)"}
	}
	return handler(ctx, req)
}

func (s *Server) handleInitialize(sess *session, req *request) (any, *rpcError) {
	if len(req.Params) == 0 {
		return nil, &rpcError{Code: codeInvalidParams, Message: "params required for initialize"}
	}
	var params initializeParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: "invalid initialize params: " + err.Error()}
	}

	sess.initialized.Store(true)
	s.logger.Info("client initialized",
		"client", params.ClientInfo.Name,
		"client_version", params.ClientInfo.Version,
		"protocol", params.ProtocolVersion,
	)

	return initializeResult{
		ProtocolVersion: protocolVersion,
		Capabilities: serverCapabilities{
			Tools:     &listCapability{},
			Resources: &listCapability{},
			Prompts:   &listCapability{},
		},
		ServerInfo:   serverInfo{Name: ServerName, Version: s.version},
		Instructions: "Track projects, tasks and support tickets. Users are listed at " + usersURI + ".",
	}, nil
}

// unmarshalParams decodes req.Params into v, reporting invalid params.
func unmarshalParams(req *request, v any) *rpcError {
	if len(req.Params) == 0 {
		return &rpcError{Code: codeInvalidParams, Message: "params required for " + req.Method}
	}
	if err := json.Unmarshal(req.Params, v); err != nil {
		return &rpcError{Code: codeInvalidParams, Message: fmt.Sprintf("invalid %s params: %v", req.Method, err)}
	}
	return nil
}
