// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Tessera tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/tessera/internal/calc"
	"github.com/starford/tessera/internal/catalog"
	"github.com/starford/tessera/internal/reconcile"
	"github.com/starford/tessera/internal/template"
)

// Server wraps the MCP server with Tessera tools.
type Server struct {
	mcp       *server.MCPServer
	cat       *catalog.Catalog
	templates *template.Store
	engine    *reconcile.Engine
}

// New creates a new MCP server with all Tessera tools registered.
func New(cat *catalog.Catalog, templates *template.Store, engine *reconcile.Engine) *Server {
	s := &Server{cat: cat, templates: templates, engine: engine}

	s.mcp = server.NewMCPServer(
		"Tessera",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_templates",
		mcp.WithDescription("List all attribute templates with their ids, names and property counts."),
	), s.listTemplates)

	s.mcp.AddTool(mcp.NewTool("read_template",
		mcp.WithDescription("Read one template in full: every property with its value and ignore flag, "+
			"plus the tile dimensions. Property values follow the schema in the "+
			"tessera://property-catalog resource."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Template id (decimal string)")),
	), s.readTemplate)

	s.mcp.AddTool(mcp.NewTool("find_missing_properties",
		mcp.WithDescription("Scrape the live admin page and list the active template's properties "+
			"that the page does not carry yet. Requires a connected browser tab."),
	), s.findMissing)

	s.mcp.AddTool(mcp.NewTool("fill_page",
		mcp.WithDescription("Write the active template's values into the live admin page, row by row. "+
			"Empty values are skipped, existing values are overwritten in place."),
	), s.fillPage)

	s.mcp.AddTool(mcp.NewTool("calculate_property",
		mcp.WithDescription("Derive one numeric tile/box/pallet property from the active template's "+
			"other properties and dimensions. Returns the value or reports that no "+
			"input combination is satisfiable."),
		mcp.WithString("target", mcp.Required(), mcp.Description("Target property id (e.g. 4362 for tile area)")),
	), s.calculateProperty)

	// Resource: property catalog and value schema.
	s.mcp.AddResource(
		mcp.NewResource("tessera://property-catalog", "Property Catalog",
			mcp.WithResourceDescription("Every known attribute with its id, value type, and option set."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readCatalogResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listTemplates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type item struct {
		ID         int64  `json:"id"`
		Name       string `json:"name"`
		Properties int    `json:"properties"`
		Active     bool   `json:"active"`
	}
	activeID, hasActive := s.templates.Active()

	var items []item
	for _, t := range s.templates.List() {
		items = append(items, item{
			ID:         t.ID,
			Name:       t.Name,
			Properties: len(t.Properties),
			Active:     hasActive && t.ID == activeID,
		})
	}
	out, _ := json.MarshalIndent(items, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var id int64
	if _, err := fmt.Sscanf(idStr, "%d", &id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid template id: %s", idStr)), nil
	}
	t, err := s.templates.Get(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", idStr)), nil
	}
	out, _ := json.MarshalIndent(t, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) findMissing(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t, err := s.templates.ActiveTemplate()
	if err != nil {
		return mcp.NewToolResultError("no active template selected"), nil
	}
	missing, err := s.engine.FindMissingOnPage(ctx, t.Properties)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(missing) == 0 {
		return mcp.NewToolResultText("all properties are already on the page"), nil
	}

	var lines []string
	for _, p := range missing {
		name := fmt.Sprintf("property %d", p.ID)
		if def := s.cat.Get(p.ID); def != nil {
			name = def.Text
		}
		lines = append(lines, fmt.Sprintf("%d\t%s", p.ID, name))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) fillPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t, err := s.templates.ActiveTemplate()
	if err != nil {
		return mcp.NewToolResultError("no active template selected"), nil
	}
	filled, err := s.engine.FillForms(ctx, t.ActiveProperties(), "Filling")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("filled %d rows", filled)), nil
}

func (s *Server) calculateProperty(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	targetStr, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var target int
	if _, err := fmt.Sscanf(targetStr, "%d", &target); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid property id: %s", targetStr)), nil
	}
	t, err := s.templates.ActiveTemplate()
	if err != nil {
		return mcp.NewToolResultError("no active template selected"), nil
	}
	value, ok := calc.CalculateString(target, t.Properties, t.Length, t.Width)
	if !ok {
		return mcp.NewToolResultText("not derivable from the current inputs"), nil
	}
	return mcp.NewToolResultText(value), nil
}

func (s *Server) readCatalogResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "tessera://property-catalog",
			MIMEType: "text/markdown",
			Text:     s.catalogDocument(),
		},
	}, nil
}
