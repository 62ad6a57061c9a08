package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// Latency simulation modes.
const (
	LatencyHTTP  = "http"  // fetch a public listing and discard it
	LatencyFixed = "fixed" // sleep for Latency.Delay
	LatencyNone  = "none"
)

// Config is the merged server configuration.
type Config struct {
	Host        string
	Port        int
	AssetsDir   string
	AppVersion  string
	AllowOrigin string
	Latency     Latency
	Sessions    Sessions
	Source      Source
}

// Latency configures the simulated backend delay used by mock tool handlers.
type Latency struct {
	Mode    string
	URL     string
	Pages   int
	Limit   int
	Delay   time.Duration
	Timeout time.Duration
}

// Sessions configures SSE session limits.
type Sessions struct {
	// Max is the maximum number of live sessions. Values <= 0 mean
	// unlimited; config files use -1 since 0 does not override a default.
	Max int
	// RateLimit is the per-session inbound message rate in messages per
	// second. Values <= 0 disable limiting.
	RateLimit float64
	Burst     int
}

// Source indicates where a config came from.
type Source int

const (
	SourceDefault Source = iota
	SourceUser
	SourceProject
	SourceFile // explicit --config path
	SourceFlags
)

func (s Source) String() string {
	switch s {
	case SourceDefault:
		return "default"
	case SourceUser:
		return "user"
	case SourceProject:
		return "project"
	case SourceFile:
		return "file"
	case SourceFlags:
		return "flags"
	default:
		return "unknown"
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Host:        "0.0.0.0",
		Port:        8080,
		AssetsDir:   "assets",
		AppVersion:  "1.3",
		AllowOrigin: "*",
		Latency: Latency{
			Mode:    LatencyHTTP,
			URL:     "https://picsum.photos/v2/list",
			Pages:   5,
			Limit:   10,
			Delay:   250 * time.Millisecond,
			Timeout: 10 * time.Second,
		},
		Sessions: Sessions{
			Max:       100,
			RateLimit: 20,
			Burst:     40,
		},
		Source: SourceDefault,
	}
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate reports every invalid setting in c.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.AssetsDir == "" {
		errs = append(errs, errors.New("assets-dir must be set"))
	}

	switch c.Latency.Mode {
	case LatencyHTTP:
		if c.Latency.URL == "" {
			errs = append(errs, errors.New("latency url must be set in http mode"))
		}
		if c.Latency.Pages < 1 {
			errs = append(errs, fmt.Errorf("latency pages must be >= 1, got %d", c.Latency.Pages))
		}
		if c.Latency.Limit < 1 {
			errs = append(errs, fmt.Errorf("latency limit must be >= 1, got %d", c.Latency.Limit))
		}
	case LatencyFixed:
		if c.Latency.Delay < 0 {
			errs = append(errs, fmt.Errorf("latency delay must not be negative, got %s", c.Latency.Delay))
		}
	case LatencyNone:
	default:
		errs = append(errs, fmt.Errorf("unknown latency mode %q (want http, fixed or none)", c.Latency.Mode))
	}

	if c.Sessions.RateLimit > 0 && c.Sessions.Burst < 1 {
		errs = append(errs, errors.New("sessions burst must be >= 1 when rate-limit is set"))
	}

	return errors.Join(errs...)
}
