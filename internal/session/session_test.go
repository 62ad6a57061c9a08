package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// streamWriter is a ResponseWriter safe for the concurrent writes made by
// the SSE transport while the test inspects the stream.
type streamWriter struct {
	mu     sync.Mutex
	header http.Header
	buf    bytes.Buffer
	status int
	err    error
}

func newStreamWriter() *streamWriter {
	return &streamWriter{header: make(http.Header)}
}

func (w *streamWriter) Header() http.Header { return w.header }

func (w *streamWriter) WriteHeader(code int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.status == 0 {
		w.status = code
	}
}

func (w *streamWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return 0, w.err
	}
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.buf.Write(p)
}

func (w *streamWriter) Flush() {}

func (w *streamWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

func testFactory() *mcp.Server {
	return mcp.NewServer(&mcp.Implementation{Name: "session-test", Version: "0.0.1"}, nil)
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("s%d", n)
	}
}

func post(body string) (*httptest.ResponseRecorder, *http.Request) {
	return httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/mcp/messages", strings.NewReader(body))
}

const pingRequest = `{"jsonrpc":"2.0","id":1,"method":"ping"}`

func TestOpen_WritesEndpointEvent(t *testing.T) {
	m := NewManager(testFactory, Options{IDGenerator: sequentialIDs()}, nil)
	w := newStreamWriter()

	s, err := m.Open(context.Background(), w)
	require.NoError(t, err)
	defer m.Close(s.ID())

	assert.Equal(t, "s1", s.ID())
	assert.Equal(t, "/mcp/messages?sessionId=s1", s.Endpoint())
	assert.Contains(t, w.String(), "event: endpoint\ndata: /mcp/messages?sessionId=s1\n\n")
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, 1, m.Len())
	assert.WithinDuration(t, time.Now(), s.CreatedAt(), time.Minute)
}

func TestOpen_DefaultIDsAreUnique(t *testing.T) {
	m := NewManager(testFactory, Options{}, nil)
	defer m.CloseAll()

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		s, err := m.Open(context.Background(), newStreamWriter())
		require.NoError(t, err)
		assert.False(t, seen[s.ID()])
		seen[s.ID()] = true
		assert.Len(t, s.ID(), 36)
	}
	assert.Equal(t, 5, m.Len())
}

func TestOpen_DuplicateIDRejected(t *testing.T) {
	m := NewManager(testFactory, Options{IDGenerator: func() string { return "fixed" }}, nil)
	defer m.CloseAll()

	_, err := m.Open(context.Background(), newStreamWriter())
	require.NoError(t, err)

	_, err = m.Open(context.Background(), newStreamWriter())
	assert.ErrorIs(t, err, ErrDuplicateSession)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, []string{"fixed"}, m.IDs())
}

func TestOpen_SessionLimit(t *testing.T) {
	m := NewManager(testFactory, Options{MaxSessions: 2, IDGenerator: sequentialIDs()}, nil)
	defer m.CloseAll()

	for i := 0; i < 2; i++ {
		_, err := m.Open(context.Background(), newStreamWriter())
		require.NoError(t, err)
	}

	_, err := m.Open(context.Background(), newStreamWriter())
	assert.ErrorIs(t, err, ErrTooManySessions)

	m.Close("s1")
	_, err = m.Open(context.Background(), newStreamWriter())
	assert.NoError(t, err)
	assert.Equal(t, 2, m.Len())
}

func TestOpen_TransportFailureRemovesEntry(t *testing.T) {
	m := NewManager(testFactory, Options{}, nil)
	w := newStreamWriter()
	w.err = errors.New("broken pipe")

	_, err := m.Open(context.Background(), w)
	assert.ErrorIs(t, err, ErrTransport)
	assert.Zero(t, m.Len())
}

func TestDispatch_UnknownSession(t *testing.T) {
	m := NewManager(testFactory, Options{}, nil)

	rec, req := post(pingRequest)
	err := m.Dispatch(rec, req, "abc")
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestDispatch_ForwardsToTransport(t *testing.T) {
	m := NewManager(testFactory, Options{IDGenerator: sequentialIDs()}, nil)
	w := newStreamWriter()
	s, err := m.Open(context.Background(), w)
	require.NoError(t, err)
	defer m.Close(s.ID())

	rec, req := post(`{"jsonrpc":"2.0","id":7,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"t","version":"1"}}}`)
	require.NoError(t, m.Dispatch(rec, req, s.ID()))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool {
		out := w.String()
		return strings.Contains(out, "event: message") && strings.Contains(out, `"id":7`)
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, w.String(), "session-test")
}

func TestDispatch_MalformedBody(t *testing.T) {
	m := NewManager(testFactory, Options{}, nil)
	s, err := m.Open(context.Background(), newStreamWriter())
	require.NoError(t, err)
	defer m.Close(s.ID())

	rec, req := post(`{not json`)
	require.NoError(t, m.Dispatch(rec, req, s.ID()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDispatch_RateLimited(t *testing.T) {
	m := NewManager(testFactory, Options{RateLimit: 0.001, Burst: 2}, nil)
	s, err := m.Open(context.Background(), newStreamWriter())
	require.NoError(t, err)
	defer m.Close(s.ID())

	for i := 0; i < 2; i++ {
		rec, req := post(pingRequest)
		require.NoError(t, m.Dispatch(rec, req, s.ID()))
	}

	rec, req := post(pingRequest)
	err = m.Dispatch(rec, req, s.ID())
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestDispatch_NoLimitWhenDisabled(t *testing.T) {
	m := NewManager(testFactory, Options{RateLimit: 0}, nil)
	s, err := m.Open(context.Background(), newStreamWriter())
	require.NoError(t, err)
	defer m.Close(s.ID())

	for i := 0; i < 50; i++ {
		rec, req := post(pingRequest)
		require.NoError(t, m.Dispatch(rec, req, s.ID()))
	}
}

func TestClose_Idempotent(t *testing.T) {
	m := NewManager(testFactory, Options{IDGenerator: sequentialIDs()}, nil)
	s, err := m.Open(context.Background(), newStreamWriter())
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		m.Close(s.ID())
		m.Close(s.ID())
		m.Close("never-existed")
	})
	assert.Zero(t, m.Len())

	rec, req := post(pingRequest)
	assert.ErrorIs(t, m.Dispatch(rec, req, s.ID()), ErrUnknownSession)
	assert.NoError(t, s.close())
}

func TestClose_UnblocksWait(t *testing.T) {
	m := NewManager(testFactory, Options{}, nil)
	s, err := m.Open(context.Background(), newStreamWriter())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Wait(context.Background()) }()

	m.Close(s.ID())
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after Close")
	}
}

func TestWait_ContextCancelled(t *testing.T) {
	m := NewManager(testFactory, Options{}, nil)
	s, err := m.Open(context.Background(), newStreamWriter())
	require.NoError(t, err)
	defer m.Close(s.ID())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Wait(ctx), context.DeadlineExceeded)
}

func TestCloseAll(t *testing.T) {
	m := NewManager(testFactory, Options{IDGenerator: sequentialIDs()}, nil)
	for i := 0; i < 3; i++ {
		_, err := m.Open(context.Background(), newStreamWriter())
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"s1", "s2", "s3"}, m.IDs())

	m.CloseAll()
	assert.Zero(t, m.Len())
	assert.Empty(t, m.IDs())
}

func TestDispatchAndCloseConcurrently(t *testing.T) {
	m := NewManager(testFactory, Options{}, nil)
	s, err := m.Open(context.Background(), newStreamWriter())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				rec, req := post(pingRequest)
				err := m.Dispatch(rec, req, s.ID())
				if err != nil {
					assert.ErrorIs(t, err, ErrUnknownSession)
				}
			}
		}()
	}

	m.Close(s.ID())
	wg.Wait()

	rec, req := post(pingRequest)
	assert.ErrorIs(t, m.Dispatch(rec, req, s.ID()), ErrUnknownSession)
}
