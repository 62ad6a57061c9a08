package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/standardbeagle/commerce-mcp/internal/config"
	"github.com/standardbeagle/commerce-mcp/internal/logging"
	"github.com/standardbeagle/commerce-mcp/internal/server"
)

type serveOptions struct {
	host       string
	port       int
	assetsDir  string
	configFile string
	latency    string
	stdio      bool
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Example: `  commerce-mcp serve                       # HTTP/SSE on 0.0.0.0:8080
  commerce-mcp serve --port 9000 --assets ./dist
  commerce-mcp serve --stdio               # single session on stdin/stdout`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			logger := logging.Default()
			srv, err := server.NewFromConfig(cfg, logger)
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}
			defer srv.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if opts.stdio {
				return srv.RunStdio(ctx)
			}

			printBanner(cmd.OutOrStdout(), cfg, srv.Registry().Len())
			return srv.RunHTTP(ctx)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.host, "host", "", "listen host (default 0.0.0.0)")
	f.IntVarP(&opts.port, "port", "p", 0, "listen port (default 8080)")
	f.StringVar(&opts.assetsDir, "assets", "", "widget markup directory (default ./assets)")
	f.StringVar(&opts.configFile, "config", "", "additional KDL config file")
	f.StringVar(&opts.latency, "latency", "", "latency simulation mode: http, fixed or none")
	f.BoolVar(&opts.stdio, "stdio", false, "serve a single session over stdin/stdout")
	return cmd
}

// loadConfig merges user and project config, then --config, then flags.
func loadConfig(cmd *cobra.Command, opts serveOptions) (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if opts.configFile != "" {
		fileCfg, err := config.LoadFile(opts.configFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = config.Merge(cfg, fileCfg)
	}

	flags := &config.Config{Source: config.SourceFlags}
	if cmd.Flags().Changed("host") {
		flags.Host = opts.host
	}
	if cmd.Flags().Changed("port") {
		flags.Port = opts.port
	}
	if cmd.Flags().Changed("assets") {
		flags.AssetsDir = opts.assetsDir
	}
	if cmd.Flags().Changed("latency") {
		flags.Latency.Mode = opts.latency
	}
	return config.Merge(cfg, flags), nil
}

func printBanner(w io.Writer, cfg *config.Config, widgets int) {
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)
	gray := color.New(color.FgHiBlack)

	cyan.Fprintf(w, "commerce-mcp %s\n", version)
	gray.Fprintf(w, "    config: %s\n\n", cfg.Source)

	green.Fprint(w, "    ▶ ")
	fmt.Fprintf(w, "SSE stream:   GET  http://%s%s\n", cfg.Addr(), server.SSEPath)
	green.Fprint(w, "    ▶ ")
	fmt.Fprintf(w, "Messages:     POST http://%s%s?sessionId=...\n", cfg.Addr(), server.MessagesPath)
	green.Fprint(w, "    ▶ ")
	fmt.Fprintf(w, "Widgets:      %d from %s\n", widgets, cfg.AssetsDir)
	green.Fprint(w, "    ▶ ")
	fmt.Fprintf(w, "Latency:      %s\n\n", cfg.Latency.Mode)
}
