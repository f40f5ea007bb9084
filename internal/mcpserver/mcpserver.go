// Package mcpserver exposes dei's analyses as MCP tools over stdio.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/dei/internal/service/analysis"
)

// Server wraps the MCP server and registers the dei analysis tools.
type Server struct {
	server   *mcp.Server
	analysis *analysis.Service
}

// NewServer creates a new MCP server backed by svc. A nil svc runs with the
// default configuration.
func NewServer(version string, svc *analysis.Service) *Server {
	if version == "" {
		version = "dev"
	}
	if svc == nil {
		svc = analysis.New(analysis.WithVersion(version))
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "dei",
			Version: version,
		},
		nil,
	)

	s := &Server{server: server, analysis: svc}
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

const (
	toolGodClasses   = "analyze_god_classes"
	toolArchitecture = "analyze_architecture"
)

// CatalogEntry names one tool or prompt the server offers.
type CatalogEntry struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
}

// toolCatalog lists the tools in registration order.
func toolCatalog() []CatalogEntry {
	return []CatalogEntry{
		{Name: toolGodClasses, Summary: "God classes, god methods, god files and suggested extractions"},
		{Name: toolArchitecture, Summary: "Class coupling, dependency cycles and architecture quality"},
	}
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        toolGodClasses,
		Description: describeGodClasses(),
	}, s.handleAnalyzeGodClasses)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        toolArchitecture,
		Description: describeArchitecture(),
	}, s.handleAnalyzeArchitecture)
}
