package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/standardbeagle/commerce-mcp/internal/catalog"
	"github.com/standardbeagle/commerce-mcp/internal/widget"
)

// widgetListing is the --json output of the widgets command.
type widgetListing struct {
	Resources         []*mcp.Resource         `json:"resources"`
	ResourceTemplates []*mcp.ResourceTemplate `json:"resourceTemplates"`
	Tools             []*mcp.Tool             `json:"tools"`
}

func newWidgetsCmd() *cobra.Command {
	var (
		assetsDir  string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "widgets",
		Short: "List the widgets, resources and tools the server would expose",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := widget.NewRegistry(widget.Defaults(), os.DirFS(assetsDir))
			if err != nil {
				return err
			}
			c := catalog.New(reg)
			out := cmd.OutOrStdout()

			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(widgetListing{
					Resources:         c.Resources(),
					ResourceTemplates: c.ResourceTemplates(),
					Tools:             c.Tools(),
				})
			}

			cyan := color.New(color.FgCyan)
			gray := color.New(color.FgHiBlack)
			for _, w := range reg.All() {
				cyan.Fprintf(out, "%s\n", w.ID)
				fmt.Fprintf(out, "  title:    %s\n", w.Title)
				fmt.Fprintf(out, "  resource: %s (%s)\n", w.TemplateURI, catalog.MIMEType)
				gray.Fprintf(out, "  markup:   %d bytes\n", len(w.HTML))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&assetsDir, "assets", "assets", "widget markup directory")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output descriptors as JSON")
	return cmd
}
