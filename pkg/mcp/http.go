package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionHeader carries the session ID issued by initialize.
const SessionHeader = "Mcp-Session-Id"

// maxRequestBytes bounds a single POSTed message.
const maxRequestBytes = 1 << 20

// Handler serves the HTTP transport: one JSON-RPC message per POST, one
// JSON response per request, and 202 Accepted for notifications.
type Handler struct {
	server *Server

	mu       sync.Mutex
	sessions map[string]*session
}

// Handler returns an http.Handler bound to s. Sessions are held in memory.
func (s *Server) Handler() *Handler {
	return &Handler{server: s, sessions: make(map[string]*session)}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handlePost(w, r)
	case http.MethodDelete:
		h.handleDelete(w, r)
	default:
		w.Header().Set("Allow", "POST, DELETE")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
		return
	}

	req, resp := decodeRequest(body)
	if req == nil {
		if resp == nil {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		writeJSON(w, resp)
		return
	}

	if req.Method == "initialize" && !req.isNotification() {
		h.initialize(r.Context(), w, req)
		return
	}

	sess, status := h.lookup(r)
	if sess == nil {
		http.Error(w, http.StatusText(status), status)
		return
	}
	resp = h.server.handle(r.Context(), sess, req)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeJSON(w, resp)
}

// initialize runs the handshake on a new session and registers it only
// if the handshake succeeds.
func (h *Handler) initialize(ctx context.Context, w http.ResponseWriter, req *request) {
	sess := &session{}
	resp := h.server.handle(ctx, sess, req)
	if resp.Error == nil {
		id := uuid.NewString()
		h.mu.Lock()
		h.sessions[id] = sess
		h.mu.Unlock()
		w.Header().Set(SessionHeader, id)
		h.server.logger.Info("http session opened", "session", id)
	}
	writeJSON(w, resp)
}

// lookup resolves the request's session, or returns the HTTP status to
// reject it with.
func (h *Handler) lookup(r *http.Request) (*session, int) {
	id := r.Header.Get(SessionHeader)
	if id == "" {
		return nil, http.StatusBadRequest
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	sess, ok := h.sessions[id]
	if !ok {
		return nil, http.StatusNotFound
	}
	return sess, http.StatusOK
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if _, status := h.lookup(r); status != http.StatusOK {
		http.Error(w, http.StatusText(status), status)
		return
	}
	id := r.Header.Get(SessionHeader)
	h.mu.Lock()
	delete(h.sessions, id)
	h.mu.Unlock()
	h.server.logger.Info("http session closed", "session", id)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}

// ListenAndServe serves the HTTP transport on addr at path until ctx is
// done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, s.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("mcp server started", "transport", "http", "addr", addr, "path", path)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("mcp server stopped", "transport", "http")
	return nil
}
