// commerce-mcp serves mock commerce widgets over the Model Context Protocol.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Build-time variables set via ldflags
var (
	version = "0.1.0"
	commit  = "unknown"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "commerce-mcp",
		Short: "MCP server exposing mock commerce widgets",
		Long: `commerce-mcp serves three commerce widgets (product carousel, shopping cart,
checkout page) as MCP resources and tools backed by mock data.

Clients connect over SSE: GET /mcp opens the event stream and
POST /mcp/messages?sessionId=<id> delivers messages.

Configuration is read from:
  1. User config:    ~/.config/commerce-mcp/config.kdl
  2. Project config: .commerce-mcp.kdl (in current directory)
  3. --config FILE and command-line flags`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.AddCommand(
		newServeCmd(),
		newWidgetsCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "commerce-mcp version %s (%s)\n", version, commit)
		},
	}
}
