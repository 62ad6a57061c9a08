// Package router answers the MCP requests served by commerce-mcp: listing
// and reading widget resources, listing tools and calling them.
//
// Each request is independent; the router holds only immutable tables and
// is safe for concurrent use by every session.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/commerce-mcp/internal/catalog"
	"github.com/standardbeagle/commerce-mcp/internal/handlers"
	"github.com/standardbeagle/commerce-mcp/internal/logging"
	"github.com/standardbeagle/commerce-mcp/internal/widget"
)

var (
	// ErrUnknownResource is returned when no widget has the requested URI.
	ErrUnknownResource = errors.New("unknown resource")
	// ErrUnknownTool is returned when no widget has the requested tool name.
	ErrUnknownTool = errors.New("unknown tool")
)

// Router dispatches MCP requests to the catalog and the widget handlers.
type Router struct {
	registry *widget.Registry
	catalog  *catalog.Catalog
	handlers *handlers.Set
	logger   logging.Logger
}

// New creates a Router over reg and hs.
func New(reg *widget.Registry, hs *handlers.Set, logger logging.Logger) *Router {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Router{
		registry: reg,
		catalog:  catalog.New(reg),
		handlers: hs,
		logger:   logger,
	}
}

// Catalog returns the derived descriptors.
func (r *Router) Catalog() *catalog.Catalog { return r.catalog }

// ListResources returns every widget resource.
func (r *Router) ListResources() []*mcp.Resource { return r.catalog.Resources() }

// ListResourceTemplates returns every widget resource template.
func (r *Router) ListResourceTemplates() []*mcp.ResourceTemplate {
	return r.catalog.ResourceTemplates()
}

// ListTools returns every widget tool.
func (r *Router) ListTools() []*mcp.Tool { return r.catalog.Tools() }

// ReadResource returns the markup of the widget whose template URI is uri.
func (r *Router) ReadResource(_ context.Context, uri string) (*mcp.ReadResourceResult, error) {
	w, ok := r.registry.LookupByURI(uri)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownResource, uri)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      w.TemplateURI,
			MIMEType: catalog.MIMEType,
			Text:     w.HTML,
			Meta:     catalog.Meta(w),
		}},
	}, nil
}

// CallTool validates raw against the tool input schema and runs the widget
// handler. No handler runs for an unknown tool or invalid arguments.
func (r *Router) CallTool(ctx context.Context, name string, raw json.RawMessage) (*mcp.CallToolResult, error) {
	w, ok := r.registry.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	h, ok := r.handlers.Lookup(w.ID)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no handler", ErrUnknownTool, name)
	}

	args, err := catalog.ParseArgs(raw)
	if err != nil {
		return nil, err
	}

	payload, err := h.Handle(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	r.logger.Debug("tool called", "tool", name, "query", args.Query)

	return &mcp.CallToolResult{
		Content:           []mcp.Content{&mcp.TextContent{Text: w.ResponseText}},
		StructuredContent: payload,
		Meta:              catalog.Meta(w),
	}, nil
}

// Implementation is the name and version reported to clients.
var Implementation = mcp.Implementation{Name: "commerce-mcp", Version: "0.1.0"}

// NewServer builds a go-sdk server with every widget resource, template and
// tool registered against r. Each session gets its own server.
func (r *Router) NewServer(impl *mcp.Implementation) *mcp.Server {
	if impl == nil {
		i := Implementation
		impl = &i
	}
	s := mcp.NewServer(impl, &mcp.ServerOptions{
		Logger: logging.Slog(r.logger),
		Capabilities: &mcp.ServerCapabilities{
			Resources: &mcp.ResourceCapabilities{},
			Tools:     &mcp.ToolCapabilities{},
		},
	})

	read := func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		res, err := r.ReadResource(ctx, req.Params.URI)
		return res, toWireError(err, req.Params.URI)
	}
	for _, res := range r.catalog.Resources() {
		s.AddResource(res, read)
	}
	for _, tmpl := range r.catalog.ResourceTemplates() {
		s.AddResourceTemplate(tmpl, read)
	}

	call := func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := r.CallTool(ctx, req.Params.Name, req.Params.Arguments)
		if err != nil {
			r.logger.Debug("tool call failed", "tool", req.Params.Name, "error", err)
		}
		return res, toWireError(err, "")
	}
	for _, tool := range r.catalog.Tools() {
		s.AddTool(tool, call)
	}

	return s
}

// toWireError maps router errors to JSON-RPC errors.
func toWireError(err error, uri string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrUnknownResource):
		return mcp.ResourceNotFoundError(uri)
	case errors.Is(err, ErrUnknownTool), errors.Is(err, catalog.ErrValidation):
		return &jsonrpc.Error{Code: jsonrpc.CodeInvalidParams, Message: err.Error()}
	default:
		return &jsonrpc.Error{Code: jsonrpc.CodeInternalError, Message: err.Error()}
	}
}
