// Package api provides the local HTTP and WebSocket surface the
// front-desk UI pages talk to.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Server is the HTTP API server for the front-desk UI.
type Server struct {
	mux     *http.ServeMux
	server  *http.Server
	logger  *slog.Logger
	handler *RemindersHandler
	hub     *Hub
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig returns the default server configuration. The server
// binds to loopback only; the UI runs on the same machine.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         "127.0.0.1:7353",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig, handler *RemindersHandler, hub *Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	s := &Server{
		mux:     mux,
		logger:  logger,
		handler: handler,
		hub:     hub,
	}

	s.registerRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// registerRoutes sets up the API routes.
func (s *Server) registerRoutes() {
	// Health check
	s.mux.HandleFunc("GET /health", s.handleHealth)

	// Reminders API v1
	s.mux.HandleFunc("GET /api/v1/reminders", s.handler.ListReminders)
	s.mux.HandleFunc("POST /api/v1/reminders", s.handler.CreateReminder)
	s.mux.HandleFunc("DELETE /api/v1/reminders/{reminderID}", s.handler.DeleteReminder)

	// Settings
	s.mux.HandleFunc("GET /api/v1/settings", s.handler.GetSettings)
	s.mux.HandleFunc("PUT /api/v1/settings/dnd", s.handler.UpdateDnd)
	s.mux.HandleFunc("PUT /api/v1/settings/announcement", s.handler.UpdateAnnouncement)
	s.mux.HandleFunc("PUT /api/v1/settings/clock", s.handler.UpdateClockFormat)

	// Manual scheduling pass
	s.mux.HandleFunc("POST /api/v1/resync", s.handler.Resync)

	// Live updates for UI pages
	s.mux.HandleFunc("GET /ws", s.hub.HandleConnection)
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Start starts the API server. It blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("starting API server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.server.Shutdown(ctx)
}

// Handler returns the server's root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error":   http.StatusText(status),
		"message": message,
	})
}
