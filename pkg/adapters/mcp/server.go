// Package mcp exposes recipe search and the guided interview as MCP tools so
// assistants can drive SmartMeal directly.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/smartmeal/internal/logging"
	"github.com/aretw0/smartmeal/pkg/domain"
	"github.com/aretw0/smartmeal/pkg/match"
	"github.com/aretw0/smartmeal/pkg/session"
)

// SearchArgs are the arguments of search_recipes.
type SearchArgs struct {
	Ingredients []string `json:"ingredients"`
	Threshold   float64  `json:"threshold,omitempty"`
}

// DishesArgs are the arguments of match_dishes.
type DishesArgs struct {
	Ingredients []string `json:"ingredients"`
}

// InterviewArgs are the arguments of the interview tools.
type InterviewArgs struct {
	SessionID string `json:"session_id"`
	NodeID    string `json:"node_id,omitempty"`
}

// InterviewResponse carries the session after a navigator operation.
// A failed operation still returns the snapshot, with Error describing the failure.
type InterviewResponse struct {
	Session domain.SessionSnapshot `json:"session" jsonschema_description:"The session after the operation"`
	Error   *ToolError             `json:"error,omitempty" jsonschema_description:"Set when the operation failed"`
}

type ToolError struct {
	Kind    domain.ErrorKind `json:"kind"`
	Message string           `json:"message"`
}

// DishesResponse wraps the dish list so the tool output is an object.
type DishesResponse struct {
	Dishes []domain.DishMatch `json:"dishes"`
}

// Server exposes SmartMeal as an MCP server.
type Server struct {
	searcher  *match.Searcher
	sessions  *session.Manager
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a new MCP Server instance. Interview tools are registered only with a session manager.
func NewServer(searcher *match.Searcher, sessions *session.Manager, version string, opts ...Option) *Server {
	s := &Server{
		searcher:  searcher,
		sessions:  sessions,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("smartmeal-mcp", version),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	return s
}

// MCPServer returns the underlying server, mainly for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	withCORS := cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	mux := http.NewServeMux()
	mux.Handle("/sse", withCORS(sseServer.SSEHandler()))
	mux.Handle("/message", withCORS(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
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
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("search_recipes",
		mcp.WithDescription("Classify every recipe as complete, near complete or incomplete for the given ingredients."),
		mcp.WithArray("ingredients", mcp.Required(), mcp.WithStringItems(), mcp.Description("Ingredient IDs the user has")),
		mcp.WithNumber("threshold", mcp.Description("Near-complete threshold in (0, 1]; defaults to the server setting")),
		mcp.WithOutputSchema[domain.MatchSet](),
	), mcp.NewStructuredToolHandler(s.handleSearch))

	s.mcpServer.AddTool(mcp.NewTool("match_dishes",
		mcp.WithDescription("Cross-check a list of ingredients against the dish catalog, best match first."),
		mcp.WithArray("ingredients", mcp.Required(), mcp.WithStringItems(), mcp.Description("Ingredient IDs or names")),
		mcp.WithOutputSchema[DishesResponse](),
	), mcp.NewStructuredToolHandler(s.handleMatchDishes))

	if s.sessions == nil {
		return
	}

	s.mcpServer.AddTool(mcp.NewTool("interview_start",
		mcp.WithDescription("Open the session if needed and start the guided meal interview at the root question."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier chosen by the caller")),
		mcp.WithOutputSchema[InterviewResponse](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("interview_navigate",
		mcp.WithDescription("Choose one of the current question's options."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("ID of the chosen option")),
		mcp.WithOutputSchema[InterviewResponse](),
	), mcp.NewStructuredToolHandler(s.handleNavigate))

	s.mcpServer.AddTool(mcp.NewTool("interview_reset",
		mcp.WithDescription("Return the interview to the root question."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithOutputSchema[InterviewResponse](),
	), mcp.NewStructuredToolHandler(s.handleReset))
}

func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest, args SearchArgs) (domain.MatchSet, error) {
	set, err := s.searcher.Search(ctx, args.Ingredients, args.Threshold)
	if err != nil {
		return domain.MatchSet{}, fmt.Errorf("search failed: %w", err)
	}
	return set, nil
}

func (s *Server) handleMatchDishes(ctx context.Context, request mcp.CallToolRequest, args DishesArgs) (DishesResponse, error) {
	dishes, err := s.searcher.MatchDishes(ctx, args.Ingredients)
	if err != nil {
		return DishesResponse{}, fmt.Errorf("match dishes failed: %w", err)
	}
	return DishesResponse{Dishes: dishes}, nil
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args InterviewArgs) (InterviewResponse, error) {
	if args.SessionID == "" {
		return InterviewResponse{}, errors.New("session_id is required")
	}
	if _, err := s.sessions.Open(ctx, args.SessionID); err != nil {
		return InterviewResponse{}, fmt.Errorf("open session: %w", err)
	}
	return s.interview(ctx, args.SessionID, func(ctx context.Context, c *session.Controller) error {
		_, err := c.Start(ctx)
		return err
	})
}

func (s *Server) handleNavigate(ctx context.Context, request mcp.CallToolRequest, args InterviewArgs) (InterviewResponse, error) {
	if args.SessionID == "" || args.NodeID == "" {
		return InterviewResponse{}, errors.New("session_id and node_id are required")
	}
	return s.interview(ctx, args.SessionID, func(ctx context.Context, c *session.Controller) error {
		_, err := c.Navigate(ctx, args.NodeID)
		return err
	})
}

func (s *Server) handleReset(ctx context.Context, request mcp.CallToolRequest, args InterviewArgs) (InterviewResponse, error) {
	if args.SessionID == "" {
		return InterviewResponse{}, errors.New("session_id is required")
	}
	return s.interview(ctx, args.SessionID, func(ctx context.Context, c *session.Controller) error {
		_, err := c.Reset(ctx)
		return err
	})
}

// interview runs a navigator operation. Navigator failures are part of the
// response; only a missing session is a tool error.
func (s *Server) interview(ctx context.Context, sessionID string, fn func(context.Context, *session.Controller) error) (InterviewResponse, error) {
	var ctrl *session.Controller
	err := s.sessions.Do(ctx, sessionID, func(ctx context.Context, c *session.Controller) error {
		ctrl = c
		return fn(ctx, c)
	})
	if ctrl == nil {
		return InterviewResponse{}, fmt.Errorf("session %s: %w", sessionID, err)
	}
	resp := InterviewResponse{Session: ctrl.Snapshot()}
	if err != nil {
		s.logger.Debug("MCP interview operation failed", "session_id", sessionID, "err", err)
		resp.Error = &ToolError{Kind: domain.KindOf(err), Message: err.Error()}
	}
	return resp, nil
}
