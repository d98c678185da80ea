package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"praxis/internal/logging"
)

// ToolHandler executes a tool call.
type ToolHandler func(ctx context.Context, args map[string]any) (string, error)

// ResourceHandler produces the contents for a resource URI.
type ResourceHandler func(ctx context.Context) (string, error)

// PromptHandler renders a prompt template.
type PromptHandler func(ctx context.Context, args map[string]string) (GetPromptResult, error)

// Server dispatches MCP requests to registered tools, resources, and
// prompts. Each request message produces exactly one response message;
// notifications produce none.
type Server struct {
	info Info

	mu        sync.RWMutex
	tools     map[string]serverTool
	resources map[string]serverResource
	prompts   map[string]serverPrompt
}

type serverTool struct {
	def     Tool
	handler ToolHandler
}

type serverResource struct {
	def     Resource
	handler ResourceHandler
}

type serverPrompt struct {
	def     Prompt
	handler PromptHandler
}

// NewServer creates a server that introduces itself with the given info.
func NewServer(name, version string) *Server {
	return &Server{
		info:      Info{Name: name, Version: version},
		tools:     make(map[string]serverTool),
		resources: make(map[string]serverResource),
		prompts:   make(map[string]serverPrompt),
	}
}

// RegisterTool exposes a tool. Registering the same name twice replaces
// the handler.
func (s *Server) RegisterTool(def Tool, handler ToolHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools[def.Name] = serverTool{def: def, handler: handler}
}

// RegisterResource exposes a readable resource.
func (s *Server) RegisterResource(def Resource, handler ResourceHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources[def.URI] = serverResource{def: def, handler: handler}
}

// RegisterPrompt exposes a prompt template.
func (s *Server) RegisterPrompt(def Prompt, handler PromptHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts[def.Name] = serverPrompt{def: def, handler: handler}
}

// Handle processes one message. The returned response is nil for
// notifications and for responses (which a server never answers).
func (s *Server) Handle(ctx context.Context, msg *Message) *Message {
	if msg.IsResponse() {
		return nil
	}
	if msg.IsNotification() {
		// notifications/initialized and friends need no action.
		logging.Get(logging.CategoryMCP).Debugw("notification", "method", msg.Method)
		return nil
	}

	result, rpcErr := s.dispatch(ctx, msg)
	resp := &Message{JSONRPC: "2.0", ID: msg.ID}
	if rpcErr != nil {
		resp.Error = rpcErr
		return resp
	}
	data, err := json.Marshal(result)
	if err != nil {
		resp.Error = &RPCError{Code: CodeInternalError, Message: err.Error()}
		return resp
	}
	resp.Result = data
	return resp
}

// HandleRaw decodes one JSON message, handles it, and encodes the
// response. A nil return means no response is due.
func (s *Server) HandleRaw(ctx context.Context, raw []byte) []byte {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		resp := Message{
			JSONRPC: "2.0",
			Error:   &RPCError{Code: CodeParseError, Message: "parse error: " + err.Error()},
		}
		data, _ := json.Marshal(resp)
		return data
	}
	resp := s.Handle(ctx, &msg)
	if resp == nil {
		return nil
	}
	data, err := json.Marshal(resp)
	if err != nil {
		fallback := Message{
			JSONRPC: "2.0", ID: msg.ID,
			Error: &RPCError{Code: CodeInternalError, Message: err.Error()},
		}
		data, _ = json.Marshal(fallback)
	}
	return data
}

func (s *Server) dispatch(ctx context.Context, msg *Message) (any, *RPCError) {
	log := logging.Get(logging.CategoryMCP)
	log.Debugw("request", "method", msg.Method)

	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "ping":
		return struct{}{}, nil
	case "tools/list":
		return s.handleListTools(), nil
	case "tools/call":
		return s.handleCallTool(ctx, msg)
	case "resources/list":
		return s.handleListResources(), nil
	case "resources/read":
		return s.handleReadResource(ctx, msg)
	case "prompts/list":
		return s.handleListPrompts(), nil
	case "prompts/get":
		return s.handleGetPrompt(ctx, msg)
	default:
		return nil, &RPCError{Code: CodeMethodNotFound, Message: "method not found: " + msg.Method}
	}
}

func (s *Server) handleInitialize(msg *Message) (any, *RPCError) {
	var params InitializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return nil, &RPCError{Code: CodeInvalidParams, Message: err.Error()}
		}
	}
	logging.Get(logging.CategoryMCP).Infow("client connected",
		"client", params.ClientInfo.Name, "version", params.ClientInfo.Version)

	caps := Capabilities{}
	s.mu.RLock()
	if len(s.tools) > 0 {
		caps.Tools = &struct{}{}
	}
	if len(s.resources) > 0 {
		caps.Resources = &struct{}{}
	}
	if len(s.prompts) > 0 {
		caps.Prompts = &struct{}{}
	}
	s.mu.RUnlock()

	return InitializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    caps,
		ServerInfo:      s.info,
	}, nil
}

func (s *Server) handleListTools() ListToolsResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := ListToolsResult{Tools: make([]Tool, 0, len(s.tools))}
	for _, t := range s.tools {
		result.Tools = append(result.Tools, t.def)
	}
	sort.Slice(result.Tools, func(i, j int) bool {
		return result.Tools[i].Name < result.Tools[j].Name
	})
	return result
}

func (s *Server) handleCallTool(ctx context.Context, msg *Message) (any, *RPCError) {
	var params CallToolParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil, &RPCError{Code: CodeInvalidParams, Message: err.Error()}
	}

	s.mu.RLock()
	tool, ok := s.tools[params.Name]
	s.mu.RUnlock()
	if !ok {
		return nil, &RPCError{Code: CodeInvalidParams, Message: "unknown tool: " + params.Name}
	}

	timer := logging.StartTimer(logging.CategoryMCP, "tool:"+params.Name)
	out, err := tool.handler(ctx, params.Arguments)
	timer.Stop()
	if err != nil {
		// Execution failures travel in-band so the model can react.
		return CallToolResult{
			Content: []Content{TextContent(err.Error())},
			IsError: true,
		}, nil
	}
	return CallToolResult{Content: []Content{TextContent(out)}}, nil
}

func (s *Server) handleListResources() ListResourcesResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := ListResourcesResult{Resources: make([]Resource, 0, len(s.resources))}
	for _, r := range s.resources {
		result.Resources = append(result.Resources, r.def)
	}
	sort.Slice(result.Resources, func(i, j int) bool {
		return result.Resources[i].URI < result.Resources[j].URI
	})
	return result
}

func (s *Server) handleReadResource(ctx context.Context, msg *Message) (any, *RPCError) {
	var params ReadResourceParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil, &RPCError{Code: CodeInvalidParams, Message: err.Error()}
	}

	s.mu.RLock()
	res, ok := s.resources[params.URI]
	s.mu.RUnlock()
	if !ok {
		return nil, &RPCError{Code: CodeInvalidParams, Message: "unknown resource: " + params.URI}
	}

	text, err := res.handler(ctx)
	if err != nil {
		return nil, &RPCError{Code: CodeInternalError, Message: fmt.Sprintf("read %s: %v", params.URI, err)}
	}
	mime := res.def.MimeType
	if mime == "" {
		mime = "text/plain"
	}
	return ReadResourceResult{
		Contents: []ResourceContents{{URI: params.URI, MimeType: mime, Text: text}},
	}, nil
}

func (s *Server) handleListPrompts() ListPromptsResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := ListPromptsResult{Prompts: make([]Prompt, 0, len(s.prompts))}
	for _, p := range s.prompts {
		result.Prompts = append(result.Prompts, p.def)
	}
	sort.Slice(result.Prompts, func(i, j int) bool {
		return result.Prompts[i].Name < result.Prompts[j].Name
	})
	return result
}

func (s *Server) handleGetPrompt(ctx context.Context, msg *Message) (any, *RPCError) {
	var params GetPromptParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil, &RPCError{Code: CodeInvalidParams, Message: err.Error()}
	}

	s.mu.RLock()
	prompt, ok := s.prompts[params.Name]
	s.mu.RUnlock()
	if !ok {
		return nil, &RPCError{Code: CodeInvalidParams, Message: "unknown prompt: " + params.Name}
	}
	for _, arg := range prompt.def.Arguments {
		if arg.Required {
			if _, present := params.Arguments[arg.Name]; !present {
				return nil, &RPCError{Code: CodeInvalidParams, Message: "missing prompt argument: " + arg.Name}
			}
		}
	}

	result, err := prompt.handler(ctx, params.Arguments)
	if err != nil {
		return nil, &RPCError{Code: CodeInternalError, Message: err.Error()}
	}
	return result, nil
}
