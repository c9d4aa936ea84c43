// Package web provides the HTTP surface of the tracker: one POST dispatch
// endpoint bridging {action, data} requests to the mutation gateway, plus
// health, metrics, and a markdown preview partial. Everything here is thin
// glue; the domain rules live in the board package.
package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yuin/goldmark"

	"kanbase/internal/board"
)

// Server is the tracker's HTTP server.
type Server struct {
	gateway *board.Gateway
	board   *board.Board
	logger  *slog.Logger
	server  *http.Server
}

// NewServer creates a server over a gateway and its board.
func NewServer(gw *board.Gateway, b *board.Board, logger *slog.Logger) *Server {
	return &Server{
		gateway: gw,
		board:   b,
		logger:  logger,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("POST /api", s.withLogging(s.handleDispatch))
	mux.HandleFunc("GET /api/tickets/{id}/preview", s.withLogging(s.handlePreview))
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

// Start begins serving on the given address and blocks.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	s.logger.Info("server listening", "addr", addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// dispatchRequest is the uniform action envelope.
type dispatchRequest struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

// dispatchResponse is the uniform result envelope. The envelope carries the
// outcome; the HTTP status stays 200 for domain errors.
type dispatchResponse struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// handleDispatch decodes the envelope, runs the action, and encodes the
// success or error envelope.
func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	var req dispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonResponse(w, http.StatusBadRequest, dispatchResponse{
			Status:  "error",
			Message: "invalid request body",
		})
		return
	}

	result, err := s.gateway.Execute(req.Action, req.Data)
	if err != nil {
		s.jsonResponse(w, http.StatusOK, dispatchResponse{
			Status:  "error",
			Message: err.Error(),
		})
		return
	}

	s.jsonResponse(w, http.StatusOK, dispatchResponse{
		Status: "success",
		Data:   result,
	})
}

// handlePreview renders a ticket's markdown description as HTML.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ticket, found, err := s.board.Ticket(id)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if !found {
		http.NotFound(w, r)
		return
	}

	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(ticket.Description), &buf); err != nil {
		s.logger.Error("failed to render description", "id", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// jsonResponse writes a JSON response.
func (s *Server) jsonResponse(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", "error", err)
	}
}
