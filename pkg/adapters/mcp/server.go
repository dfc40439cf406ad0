package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/stategraph"
	"github.com/aretw0/stategraph/internal/presentation/graph"
	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/aretw0/stategraph/pkg/registry"
	"github.com/aretw0/stategraph/pkg/session"
)

// GraphURI is the resource holding the Mermaid rendering of the graph.
const GraphURI = "stategraph://graph"

// InvokeResponse is the structured result of invoke_graph.
type InvokeResponse struct {
	ThreadID string       `json:"thread_id,omitempty" jsonschema_description:"Thread the invocation ran on"`
	State    domain.State `json:"state" jsonschema_description:"Final state of the graph"`
}

// Server exposes a compiled graph, and optionally a tool registry, as an MCP server.
type Server struct {
	sessions  *session.Manager
	tools     *registry.Registry
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the server.
type Option func(*Server)

// WithRegistry publishes every registry tool as an MCP tool.
func WithRegistry(reg *registry.Registry) Option {
	return func(s *Server) { s.tools = reg }
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		sessions: sessions,
		logger:   slog.Default(),
		mcpServer: server.NewMCPServer("stategraph-mcp", strings.TrimSpace(stategraph.Version),
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerRegistryTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, e.g. to serve it over another transport.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, Baggage, Sentry-Trace")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	invokeTool := mcp.NewTool("invoke_graph",
		mcp.WithDescription("Run the graph from start to end and return the final state."),
		mcp.WithString("thread_id", mcp.Description("Thread to resume and checkpoint (optional without persistence)")),
		mcp.WithString("input", mcp.Description(`JSON object merged into the state, e.g. {"messages":"hello"}`)),
		mcp.WithOutputSchema[InvokeResponse](),
	)
	s.mcpServer.AddTool(invokeTool, mcp.NewStructuredToolHandler(s.handleInvoke))

	s.mcpServer.AddTool(mcp.NewTool("get_thread_state",
		mcp.WithDescription("Get the latest checkpoint of a thread."),
		mcp.WithString("thread_id", mcp.Required(), mcp.Description("Thread ID")),
	), s.handleGetThreadState)

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the graph topology for introspection."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, err := json.Marshal(s.sessions.Engine().Inspect())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("inspect failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) handleInvoke(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (InvokeResponse, error) {
	threadID, _ := args["thread_id"].(string)

	var raw []byte
	switch in := args["input"].(type) {
	case nil:
	case string:
		raw = []byte(in)
	default:
		// Clients that send an object instead of a JSON string.
		b, err := json.Marshal(in)
		if err != nil {
			return InvokeResponse{}, fmt.Errorf("invalid input: %w", err)
		}
		raw = b
	}

	input, err := domain.ParseInput(raw)
	if err != nil {
		return InvokeResponse{}, err
	}

	out, err := s.sessions.Invoke(ctx, threadID, input)
	if err != nil {
		s.logger.Error("MCP invoke failed", "thread_id", threadID, "err", err)
		return InvokeResponse{}, fmt.Errorf("invoke failed: %w", err)
	}
	return InvokeResponse{ThreadID: threadID, State: out}, nil
}

func (s *Server) handleGetThreadState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	threadID, err := request.RequireString("thread_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cp, err := s.sessions.GetState(ctx, threadID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get state failed: %v", err)), nil
	}
	jsonBytes, err := json.Marshal(cp)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// registerRegistryTools publishes each registry tool with its declared argument schema.
func (s *Server) registerRegistryTools() {
	if s.tools == nil {
		return
	}
	for _, t := range s.tools.Tools() {
		params := t.Parameters
		if params == nil {
			params = map[string]any{"type": "object"}
		}
		schema, err := json.Marshal(params)
		if err != nil {
			s.logger.Warn("MCP: skipping tool with invalid schema", "tool", t.Name, "err", err)
			continue
		}
		name := t.Name
		s.mcpServer.AddTool(mcp.NewToolWithRawSchema(name, t.Description, schema),
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				out, err := s.tools.Execute(ctx, name, request.GetArguments())
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				return mcp.NewToolResultText(domain.ToolResult{Result: out}.Content()), nil
			})
	}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Graph (Mermaid)",
		mcp.WithMIMEType("text/vnd.mermaid"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      GraphURI,
				MIMEType: "text/vnd.mermaid",
				Text:     graph.GenerateMermaid(s.sessions.Engine().Inspect(), nil),
			},
		}, nil
	})
}
