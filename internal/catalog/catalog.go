// Package catalog derives the MCP-visible resource, resource template and
// tool descriptors from the widget registry.
package catalog

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/commerce-mcp/internal/widget"
)

// MIMEType is the MIME type of widget markup.
const MIMEType = "text/html+skybridge"

// Meta returns the widget metadata attached to every descriptor and result
// that refers to w.
func Meta(w *widget.Widget) mcp.Meta {
	return mcp.Meta{
		"openai/outputTemplate":          w.TemplateURI,
		"openai/toolInvocation/invoking": w.Invoking,
		"openai/toolInvocation/invoked":  w.Invoked,
		"openai/widgetAccessible":        true,
		"openai/resultCanProduceWidget":  true,
	}
}

// Resource derives the resource descriptor for w.
func Resource(w *widget.Widget) *mcp.Resource {
	return &mcp.Resource{
		URI:         w.TemplateURI,
		Name:        w.Title,
		Description: w.Title + " widget markup",
		MIMEType:    MIMEType,
		Meta:        Meta(w),
	}
}

// ResourceTemplate derives the resource template descriptor for w.
func ResourceTemplate(w *widget.Widget) *mcp.ResourceTemplate {
	return &mcp.ResourceTemplate{
		URITemplate: w.TemplateURI,
		Name:        w.Title,
		Description: w.Title + " widget markup",
		MIMEType:    MIMEType,
		Meta:        Meta(w),
	}
}

// Tool derives the tool descriptor for w. Annotations mark the tool as
// read-only so hosts skip the approval prompt.
func Tool(w *widget.Widget) *mcp.Tool {
	destructive := false
	openWorld := false
	return &mcp.Tool{
		Name:        w.ID,
		Title:       w.Title,
		Description: w.Title,
		InputSchema: InputSchema,
		Meta:        Meta(w),
		Annotations: &mcp.ToolAnnotations{
			ReadOnlyHint:    true,
			DestructiveHint: &destructive,
			OpenWorldHint:   &openWorld,
		},
	}
}

// Catalog holds the descriptors for every registered widget, computed once.
type Catalog struct {
	resources []*mcp.Resource
	templates []*mcp.ResourceTemplate
	tools     []*mcp.Tool
}

// New derives descriptors for every widget in reg, in registration order.
func New(reg *widget.Registry) *Catalog {
	widgets := reg.All()
	c := &Catalog{
		resources: make([]*mcp.Resource, 0, len(widgets)),
		templates: make([]*mcp.ResourceTemplate, 0, len(widgets)),
		tools:     make([]*mcp.Tool, 0, len(widgets)),
	}
	for _, w := range widgets {
		c.resources = append(c.resources, Resource(w))
		c.templates = append(c.templates, ResourceTemplate(w))
		c.tools = append(c.tools, Tool(w))
	}
	return c
}

// Resources returns the resource descriptors.
func (c *Catalog) Resources() []*mcp.Resource { return c.resources }

// ResourceTemplates returns the resource template descriptors.
func (c *Catalog) ResourceTemplates() []*mcp.ResourceTemplate { return c.templates }

// Tools returns the tool descriptors.
func (c *Catalog) Tools() []*mcp.Tool { return c.tools }
