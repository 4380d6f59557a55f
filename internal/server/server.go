// Package server exposes the read-only chat history API over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/iksnae/cursor-chat-browser/internal"
	"github.com/iksnae/cursor-chat-browser/internal/config"
)

type Options struct {
	Config *config.Config
	Logger *log.Logger
	// Now stamps ObservedAt on records read by a request. Defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	cfg *config.Config
	log *log.Logger
	now func() time.Time

	mu  sync.Mutex
	ln  net.Listener
	srv *http.Server
}

func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, errors.New("missing Config")
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = internal.Logger()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Server{cfg: opts.Config, log: logger, now: now}, nil
}

// Handler returns the API routes wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/workspaces", s.handleWorkspaces)
	mux.HandleFunc("GET /api/workspaces/{id}", s.handleWorkspace)
	mux.HandleFunc("GET /api/workspaces/{id}/tabs", s.handleWorkspaceTabs)
	mux.HandleFunc("GET /api/composers", s.handleComposers)
	mux.HandleFunc("GET /api/composers/{id}", s.handleComposer)
	mux.HandleFunc("GET /api/conversations", s.handleConversations)
	mux.HandleFunc("GET /api/conversations/{id}", s.handleConversation)
	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("GET /api/logs", s.handleLogs)
	mux.HandleFunc("GET /api/active-chat", s.handleActiveChat)
	mux.HandleFunc("GET /api/recent-messages", s.handleRecentMessages)
	mux.HandleFunc("GET /api/code-blocks", s.handleCodeBlocks)
	mux.HandleFunc("GET /api/tool-results", s.handleToolResults)
	mux.HandleFunc("GET /api/file-context", s.handleFileContext)
	mux.HandleFunc("GET /api/records", s.handleRecord)
	mux.HandleFunc("GET /api/environment", s.handleEnvironment)
	mux.HandleFunc("POST /api/validate-path", s.handleValidatePath)
	mux.HandleFunc("GET /api/export", s.handleExport)
	return s.withRequestLog(mux)
}

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Listen, err)
	}
	s.ln = ln
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		_ = s.Close()
	}()
	srv := s.srv
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("server stopped", "error", err)
		}
	}()

	s.log.Info("listening", "addr", ln.Addr().String(), "workspace_path", s.cfg.WorkspacePath)
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

func (s *Server) Close() error {
	s.mu.Lock()
	srv := s.srv
	s.srv = nil
	s.ln = nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// Run serves until ctx is cancelled, then shuts down.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return s.Close()
}
