package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/branchtale"
	"github.com/aretw0/branchtale/internal/presentation/graph"
	"github.com/aretw0/branchtale/internal/validator"
	"github.com/aretw0/branchtale/pkg/adapters/file"
	"github.com/aretw0/branchtale/pkg/domain"
	"github.com/aretw0/branchtale/pkg/input"
	"github.com/aretw0/branchtale/pkg/ports"
	"github.com/aretw0/branchtale/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	storyURI = "branchtale://story"
	graphURI = "branchtale://graph"
)

// StepResponse mirrors the HTTP adapter's response so clients see one shape across adapters.
type StepResponse struct {
	Session  *domain.Session   `json:"session" jsonschema_description:"Snapshot of the session after the step"`
	Result   domain.StepResult `json:"result" jsonschema_description:"The prompt to show next, or the ending reached"`
	Terminal bool              `json:"terminal" jsonschema_description:"Indicates if the session has ended"`
}

// StartArgs are the (empty) arguments of start_session.
type StartArgs struct{}

// StepArgs are the arguments of step.
type StepArgs struct {
	SessionID string `json:"session_id"`
	Input     string `json:"input"`
}

// ValidateArgs are the arguments of validate_story.
type ValidateArgs struct {
	Source string `json:"source"`
	Format string `json:"format"`
}

// Server wraps the branchtale Engine and exposes it as an MCP Server.
type Server struct {
	engine    *branchtale.Engine
	sessions  *session.Manager
	store     ports.TranscriptStore
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger overrides slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithStore archives sessions finished through the step tool.
func WithStore(store ports.TranscriptStore) Option {
	return func(s *Server) {
		s.store = store
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine *branchtale.Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		logger:    slog.Default(),
		mcpServer: server.NewMCPServer("branchtale-mcp", branchtale.Version),
	}
	for _, opt := range opts {
		opt(s)
	}
	sessOpts := []session.Option{session.WithLogger(s.logger)}
	if s.store != nil {
		sessOpts = append(sessOpts, session.WithStore(s.store))
	}
	s.sessions = engine.Sessions(sessOpts...)
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying server, mainly for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
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
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: start_session
	startTool := mcp.NewTool("start_session",
		mcp.WithDescription("Start a new playthrough of the loaded story. Returns the opening prompt and the session id."),
		mcp.WithOutputSchema[StepResponse](),
	)
	s.mcpServer.AddTool(startTool, mcp.NewStructuredToolHandler(s.handleStart))

	// TOOL: step
	stepTool := mcp.NewTool("step",
		mcp.WithDescription("Submit the player's choice for a session. Unrecognised input ends the session with INVALID_INPUT."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID returned by start_session")),
		mcp.WithString("input", mcp.Required(), mcp.Description("The choice key, e.g. A")),
		mcp.WithOutputSchema[StepResponse](),
	)
	s.mcpServer.AddTool(stepTool, mcp.NewStructuredToolHandler(s.handleStep))

	// TOOL: validate_story
	validateTool := mcp.NewTool("validate_story",
		mcp.WithDescription("Validate a story definition. Without a source, the loaded story is checked."),
		mcp.WithString("source", mcp.Description("Story document (optional)")),
		mcp.WithString("format", mcp.Description("yaml or json (default yaml)"), mcp.Enum("yaml", "json")),
		mcp.WithOutputSchema[validator.Report](),
	)
	s.mcpServer.AddTool(validateTool, mcp.NewStructuredToolHandler(s.handleValidate))

	// TOOL: get_story
	s.mcpServer.AddTool(mcp.NewTool("get_story",
		mcp.WithDescription("Get the full story graph for introspection."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, err := json.Marshal(s.engine.Story())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode story failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args StartArgs) (StepResponse, error) {
	sess, res, err := s.sessions.Start(ctx)
	if err != nil {
		return StepResponse{}, fmt.Errorf("start failed: %w", err)
	}
	return StepResponse{Session: sess, Result: res, Terminal: res.IsTerminal()}, nil
}

func (s *Server) handleStep(ctx context.Context, request mcp.CallToolRequest, args StepArgs) (StepResponse, error) {
	if args.SessionID == "" {
		return StepResponse{}, errors.New("session_id is required")
	}

	// Rejected input is stepped as absent input.
	clean, err := input.Sanitize(args.Input)
	if err != nil {
		s.logger.Warn("MCP Step: Input rejected", "err", err, "size", len(args.Input))
	}

	sess, res, err := s.sessions.Step(ctx, args.SessionID, clean)
	if err != nil {
		return StepResponse{}, fmt.Errorf("step failed: %w", err)
	}
	return StepResponse{Session: sess, Result: res, Terminal: res.IsTerminal()}, nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args ValidateArgs) (validator.Report, error) {
	if args.Source == "" {
		return *validator.Validate(s.engine.Story()), nil
	}

	name := "story.yaml"
	if args.Format == "json" {
		name = "story.json"
	}
	story, err := file.Decode(name, []byte(args.Source))
	if err != nil {
		return validator.Report{}, err
	}
	return *validator.Validate(story), nil
}

func (s *Server) registerResources() {
	// EXPOSE: branchtale://story
	s.mcpServer.AddResource(mcp.NewResource(storyURI, "Current Story Definition",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.engine.Story())
		if err != nil {
			return nil, fmt.Errorf("failed to encode story: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      storyURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})

	// EXPOSE: branchtale://graph
	s.mcpServer.AddResource(mcp.NewResource(graphURI, "Story Graph (Mermaid)",
		mcp.WithMIMEType("text/vnd.mermaid"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      graphURI,
				MIMEType: "text/vnd.mermaid",
				Text:     graph.GenerateMermaid(s.engine.Story(), nil),
			},
		}, nil
	})
}
