package server

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/standardbeagle/commerce-mcp/internal/session"
)

// Endpoint paths.
const (
	SSEPath      = "/mcp"
	MessagesPath = "/mcp/messages"
)

const (
	corsMethods = "GET, POST, OPTIONS"
	corsHeaders = "content-type"
)

// Handler returns the HTTP handler for the SSE and message endpoints.
func (s *Server) Handler() http.Handler {
	return s.recoverer(http.HandlerFunc(s.route))
}

func (s *Server) route(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case r.Method == http.MethodOptions && (path == SSEPath || path == MessagesPath):
		s.handlePreflight(w)
	case r.Method == http.MethodGet && path == SSEPath:
		s.handleSSE(w, r)
	case r.Method == http.MethodPost && path == MessagesPath:
		s.handleMessage(w, r)
	default:
		http.Error(w, "Not Found", http.StatusNotFound)
	}
}

func (s *Server) handlePreflight(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", s.config.AllowOrigin)
	h.Set("Access-Control-Allow-Methods", corsMethods)
	h.Set("Access-Control-Allow-Headers", corsHeaders)
	w.WriteHeader(http.StatusNoContent)
}

// handleSSE opens a session and holds the event stream until the client
// disconnects or the session ends.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", s.config.AllowOrigin)

	sess, err := s.sessions.Open(r.Context(), w)
	if err != nil {
		s.logger.Error("failed to start SSE session", "error", err)
		if !headersSent(w) {
			code := http.StatusInternalServerError
			if errors.Is(err, session.ErrTooManySessions) {
				code = http.StatusServiceUnavailable
			}
			http.Error(w, "Failed to establish SSE connection", code)
		}
		return
	}
	defer s.sessions.Close(sess.ID())

	if err := sess.Wait(r.Context()); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("SSE transport error", "session_id", sess.ID(), "error", err)
	}
}

// handleMessage forwards one client message to its session.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", s.config.AllowOrigin)
	h.Set("Access-Control-Allow-Headers", corsHeaders)

	id := r.URL.Query().Get(session.QueryParam)
	if id == "" {
		http.Error(w, "Missing sessionId query parameter", http.StatusBadRequest)
		return
	}

	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("failed to process message", "session_id", id, "panic", p)
			if !headersSent(w) {
				http.Error(w, "Failed to process message", http.StatusInternalServerError)
			}
		}
	}()

	err := s.sessions.Dispatch(w, r, id)
	switch {
	case err == nil:
	case errors.Is(err, session.ErrUnknownSession):
		http.Error(w, "Unknown session", http.StatusNotFound)
	case errors.Is(err, session.ErrRateLimited):
		s.logger.Debug("message rate limited", "session_id", id)
		w.Header().Set("Retry-After", "1")
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
	default:
		s.logger.Error("failed to process message", "session_id", id, "error", err)
		if !headersSent(w) {
			http.Error(w, "Failed to process message", http.StatusInternalServerError)
		}
	}
}

// recoverer turns a panic into a 500 if nothing has been written yet.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w}
		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}
				s.logger.Error("panic recovered", "method", r.Method, "path", r.URL.Path, "panic", p)
				if !sw.sent.Load() {
					http.Error(sw, "Internal Server Error", http.StatusInternalServerError)
				}
			}
		}()
		next.ServeHTTP(sw, r)
	})
}

// statusWriter records whether the response headers have been sent. The SSE
// transport writes from other goroutines, so the flag is atomic.
type statusWriter struct {
	http.ResponseWriter
	sent atomic.Bool
}

func (w *statusWriter) WriteHeader(code int) {
	w.sent.Store(true)
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.sent.Store(true)
	return w.ResponseWriter.Write(b)
}

// Flush is required for the event stream to reach the client promptly.
func (w *statusWriter) Flush() {
	w.sent.Store(true)
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func headersSent(w http.ResponseWriter) bool {
	if sw, ok := w.(*statusWriter); ok {
		return sw.sent.Load()
	}
	return false
}
