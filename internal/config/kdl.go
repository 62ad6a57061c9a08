package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	kdl "github.com/sblinch/kdl-go"
)

const (
	ProjectConfigFile = ".commerce-mcp.kdl"
	UserConfigDir     = "commerce-mcp"
	UserConfigFile    = "config.kdl"
)

// KDLConfig is the raw KDL structure for unmarshaling.
type KDLConfig struct {
	Host        string      `kdl:"host"`
	Port        int         `kdl:"port"`
	AssetsDir   string      `kdl:"assets-dir"`
	AppVersion  string      `kdl:"app-version"`
	AllowOrigin string      `kdl:"allow-origin"`
	Latency     KDLLatency  `kdl:"latency"`
	Sessions    KDLSessions `kdl:"sessions"`
}

// KDLLatency is the latency block. Durations are Go duration strings.
type KDLLatency struct {
	Mode    string `kdl:"mode"`
	URL     string `kdl:"url"`
	Pages   int    `kdl:"pages"`
	Limit   int    `kdl:"limit"`
	Delay   string `kdl:"delay"`
	Timeout string `kdl:"timeout"`
}

// KDLSessions is the sessions block.
type KDLSessions struct {
	Max       int     `kdl:"max"`
	RateLimit float64 `kdl:"rate-limit"`
	Burst     int     `kdl:"burst"`
}

// UserConfigPath returns the path to the user config file.
func UserConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, UserConfigDir, UserConfigFile)
}

// ProjectConfigPath returns the path to the project config file.
func ProjectConfigPath(dir string) string {
	return filepath.Join(dir, ProjectConfigFile)
}

// ConfigPaths returns all config file paths consulted by Load.
func ConfigPaths(projectDir string) map[string]string {
	return map[string]string{
		"user":    UserConfigPath(),
		"project": ProjectConfigPath(projectDir),
	}
}

// LoadUserConfig loads the user config file. A missing file yields an
// empty overlay.
func LoadUserConfig() (*Config, error) {
	path := UserConfigPath()
	if path == "" {
		return &Config{Source: SourceUser}, nil
	}
	return loadConfigFile(path, SourceUser)
}

// LoadProjectConfig loads the project config file from dir.
func LoadProjectConfig(dir string) (*Config, error) {
	return loadConfigFile(ProjectConfigPath(dir), SourceProject)
}

// LoadFile loads an explicitly named config file. Unlike the user and
// project files, it must exist.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseKDLConfig(string(data), SourceFile)
}

func loadConfigFile(path string, source Source) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{Source: source}, nil
	}
	if err != nil {
		return nil, err
	}

	cfg, err := ParseKDLConfig(string(data), source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseKDLConfig parses KDL configuration data into an overlay: fields
// absent from the document stay zero and do not override in Merge.
func ParseKDLConfig(data string, source Source) (*Config, error) {
	var kdlCfg KDLConfig
	if err := kdl.Unmarshal([]byte(data), &kdlCfg); err != nil {
		return nil, err
	}

	delay, err := parseDuration("latency delay", kdlCfg.Latency.Delay)
	if err != nil {
		return nil, err
	}
	timeout, err := parseDuration("latency timeout", kdlCfg.Latency.Timeout)
	if err != nil {
		return nil, err
	}

	return &Config{
		Host:        kdlCfg.Host,
		Port:        kdlCfg.Port,
		AssetsDir:   kdlCfg.AssetsDir,
		AppVersion:  kdlCfg.AppVersion,
		AllowOrigin: kdlCfg.AllowOrigin,
		Latency: Latency{
			Mode:    kdlCfg.Latency.Mode,
			URL:     kdlCfg.Latency.URL,
			Pages:   kdlCfg.Latency.Pages,
			Limit:   kdlCfg.Latency.Limit,
			Delay:   delay,
			Timeout: timeout,
		},
		Sessions: Sessions{
			Max:       kdlCfg.Sessions.Max,
			RateLimit: kdlCfg.Sessions.RateLimit,
			Burst:     kdlCfg.Sessions.Burst,
		},
		Source: source,
	}, nil
}

func parseDuration(field, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, s, err)
	}
	return d, nil
}
