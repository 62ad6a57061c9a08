// Package session tracks the live SSE sessions of the HTTP endpoint.
//
// Every session owns its own MCP server and SSE transport. A Manager maps
// session ids to sessions; the HTTP layer opens a session per event stream
// and forwards POSTed messages to it by id.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/time/rate"

	"github.com/standardbeagle/commerce-mcp/internal/logging"
)

var (
	// ErrUnknownSession is returned for ids that are not live.
	ErrUnknownSession = errors.New("unknown session")
	// ErrDuplicateSession is returned when a new session id is already live.
	ErrDuplicateSession = errors.New("duplicate session id")
	// ErrTooManySessions is returned when the session limit is reached.
	ErrTooManySessions = errors.New("too many sessions")
	// ErrTransport is returned when the SSE transport could not be connected.
	ErrTransport = errors.New("transport failure")
	// ErrRateLimited is returned when a session sends messages too quickly.
	ErrRateLimited = errors.New("rate limited")
)

// QueryParam is the query parameter carrying the session id on POSTs.
const QueryParam = "sessionId"

// ServerFactory builds a fresh MCP server for a new session.
type ServerFactory func() *mcp.Server

// Options configure a Manager.
type Options struct {
	// Endpoint is the path clients POST messages to.
	Endpoint string
	// MaxSessions caps live sessions. Values <= 0 mean unlimited.
	MaxSessions int
	// RateLimit is the per-session message rate per second. Values <= 0
	// disable limiting.
	RateLimit float64
	Burst     int
	// IDGenerator allocates session ids. Defaults to uuid.NewString.
	IDGenerator func() string
}

// Session is one live SSE connection.
type Session struct {
	id        string
	createdAt time.Time
	transport *mcp.SSEServerTransport
	limiter   *rate.Limiter

	// mu serializes dispatch against connect and close. Dispatch holds the
	// read lock while the transport accepts the message.
	mu     sync.RWMutex
	ss     *mcp.ServerSession
	closed bool
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// CreatedAt returns when the session was opened.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Endpoint returns the POST endpoint announced to the client.
func (s *Session) Endpoint() string { return s.transport.Endpoint }

// Wait blocks until the session's connection ends or ctx is done.
func (s *Session) Wait(ctx context.Context) error {
	s.mu.RLock()
	ss := s.ss
	s.mu.RUnlock()
	if ss == nil {
		return ErrUnknownSession
	}

	done := make(chan error, 1)
	go func() { done <- ss.Wait() }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func (s *Session) dispatch(w http.ResponseWriter, r *http.Request) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrUnknownSession
	}
	if s.limiter != nil && !s.limiter.Allow() {
		return ErrRateLimited
	}
	s.transport.ServeHTTP(w, r)
	return nil
}

// close marks the session closed and shuts down its server session. It
// waits for in-flight dispatches, so no message reaches the transport after
// it returns.
func (s *Session) close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	ss := s.ss
	s.mu.Unlock()

	if ss == nil {
		return nil
	}
	return ss.Close()
}

// Manager owns the live sessions. It is safe for concurrent use.
type Manager struct {
	factory ServerFactory
	opts    Options
	logger  logging.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a Manager building one server per session with factory.
func NewManager(factory ServerFactory, opts Options, logger logging.Logger) *Manager {
	if opts.IDGenerator == nil {
		opts.IDGenerator = uuid.NewString
	}
	if opts.Endpoint == "" {
		opts.Endpoint = "/mcp/messages"
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Manager{
		factory:  factory,
		opts:     opts,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Open starts a session streaming to w. The session is registered before the
// endpoint event is written so that the client's first POST finds it.
func (m *Manager) Open(ctx context.Context, w http.ResponseWriter) (*Session, error) {
	id := m.opts.IDGenerator()

	s := &Session{
		id:        id,
		createdAt: time.Now(),
		transport: &mcp.SSEServerTransport{
			Endpoint: m.opts.Endpoint + "?" + QueryParam + "=" + url.QueryEscape(id),
			Response: w,
		},
	}
	if m.opts.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(m.opts.RateLimit), m.opts.Burst)
	}

	// Held until connected; dispatches for this id wait on it.
	s.mu.Lock()

	m.mu.Lock()
	if m.opts.MaxSessions > 0 && len(m.sessions) >= m.opts.MaxSessions {
		m.mu.Unlock()
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: limit %d", ErrTooManySessions, m.opts.MaxSessions)
	}
	if _, ok := m.sessions[id]; ok {
		m.mu.Unlock()
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrDuplicateSession, id)
	}
	m.sessions[id] = s
	m.mu.Unlock()

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")

	ss, err := m.factory().Connect(ctx, s.transport, nil)
	if err != nil {
		s.closed = true
		s.mu.Unlock()
		m.remove(s)
		return nil, fmt.Errorf("%w: session %s: %v", ErrTransport, id, err)
	}
	s.ss = ss
	s.mu.Unlock()

	m.logger.Info("session opened", "session_id", id, "sessions", m.Len())
	return s, nil
}

// Dispatch forwards an inbound POST to the session's transport.
func (m *Manager) Dispatch(w http.ResponseWriter, r *http.Request, id string) error {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	if err := s.dispatch(w, r); err != nil {
		return fmt.Errorf("%w: %s", err, id)
	}
	return nil
}

// Close removes the session and shuts down its server. Unknown or already
// closed ids are ignored.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return
	}

	if err := s.close(); err != nil {
		m.logger.Debug("session close", "session_id", id, "error", err)
	}
	m.logger.Info("session closed", "session_id", id, "age", time.Since(s.createdAt).Round(time.Millisecond))
}

// CloseAll closes every live session.
func (m *Manager) CloseAll() {
	for _, id := range m.IDs() {
		m.Close(id)
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// IDs returns the live session ids in sorted order.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// remove deletes s if it is still the session registered under its id.
func (m *Manager) remove(s *Session) {
	m.mu.Lock()
	if cur, ok := m.sessions[s.id]; ok && cur == s {
		delete(m.sessions, s.id)
	}
	m.mu.Unlock()
}
