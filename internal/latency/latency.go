// Package latency simulates backend delay for the mock tool handlers.
//
// A Source is called once per tool call. Its result is never used; failures
// are reported so callers can log them, and callers must not fail the tool
// call because of them.
package latency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/standardbeagle/commerce-mcp/internal/config"
	"github.com/standardbeagle/commerce-mcp/internal/logging"
)

// ErrFetch is returned when the upstream listing could not be fetched.
var ErrFetch = errors.New("latency fetch failed")

// Source introduces a simulated backend delay.
type Source interface {
	Simulate(ctx context.Context) error
}

// Photo is one entry of the picsum list API.
type Photo struct {
	ID          string `json:"id"`
	Author      string `json:"author"`
	DownloadURL string `json:"download_url"`
}

// HTTP fetches a random page of a public photo listing and discards it.
type HTTP struct {
	client *http.Client
	url    string
	pages  int
	limit  int
	intN   func(n int) int
}

// NewHTTP creates an HTTP source. A nil client gets one with cfg.Timeout.
func NewHTTP(cfg config.Latency, client *http.Client) *HTTP {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	pages := cfg.Pages
	if pages < 1 {
		pages = 1
	}
	return &HTTP{
		client: client,
		url:    cfg.URL,
		pages:  pages,
		limit:  cfg.Limit,
		intN:   rand.IntN,
	}
}

// Simulate implements Source.
func (h *HTTP) Simulate(ctx context.Context) error {
	_, err := h.Fetch(ctx)
	return err
}

// Fetch requests a random page in [1, pages] and returns the download URLs.
func (h *HTTP) Fetch(ctx context.Context) ([]string, error) {
	u, err := url.Parse(h.url)
	if err != nil {
		return nil, fmt.Errorf("%w: parse url: %v", ErrFetch, err)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(h.intN(h.pages)+1))
	q.Set("limit", strconv.Itoa(h.limit))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %s returned %d", ErrFetch, u.Host, resp.StatusCode)
	}

	var photos []Photo
	if err := json.NewDecoder(resp.Body).Decode(&photos); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrFetch, err)
	}

	urls := make([]string, 0, len(photos))
	for _, p := range photos {
		urls = append(urls, p.DownloadURL)
	}
	return urls, nil
}

// Fixed sleeps for a constant duration.
type Fixed struct {
	Delay time.Duration
}

// Simulate implements Source. It returns ctx.Err() if ctx ends first.
func (f Fixed) Simulate(ctx context.Context) error {
	if f.Delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(f.Delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// None returns immediately.
type None struct{}

// Simulate implements Source.
func (None) Simulate(context.Context) error { return nil }

// FromConfig builds the Source selected by cfg.Mode.
func FromConfig(cfg config.Latency, logger logging.Logger) (Source, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	switch cfg.Mode {
	case config.LatencyHTTP, "":
		logger.Debug("latency source", "mode", config.LatencyHTTP, "url", cfg.URL, "pages", cfg.Pages, "limit", cfg.Limit)
		return NewHTTP(cfg, nil), nil
	case config.LatencyFixed:
		logger.Debug("latency source", "mode", cfg.Mode, "delay", cfg.Delay)
		return Fixed{Delay: cfg.Delay}, nil
	case config.LatencyNone:
		logger.Debug("latency source", "mode", cfg.Mode)
		return None{}, nil
	default:
		return nil, fmt.Errorf("unknown latency mode %q", cfg.Mode)
	}
}
