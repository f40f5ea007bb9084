package mcpserver

import (
	"bytes"
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/dei/internal/output"
	"github.com/panbanda/dei/internal/service/analysis"
)

// AnalyzeInput is the base input for all analyze tools.
type AnalyzeInput struct {
	Path   string `json:"path,omitempty" jsonschema:"Directory or file to analyze. Defaults to the current directory."`
	Format string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, yaml, or markdown."`
}

// GodClassInput adds god class options.
type GodClassInput struct {
	AnalyzeInput
	Cluster      *bool `json:"cluster,omitempty" jsonschema:"Suggest extractions for god classes. Defaults to the configured value."`
	AllClasses   bool  `json:"all_classes,omitempty" jsonschema:"Include classes within thresholds, not just offenders."`
	Architecture bool  `json:"architecture,omitempty" jsonschema:"Add coupling, cycles and quality for the class graph."`
}

// ArchitectureInput adds architecture options.
type ArchitectureInput struct {
	AnalyzeInput
	Top int `json:"top,omitempty" jsonschema:"Number of most central classes to list. Default 10."`
}

func getPath(input AnalyzeInput) string {
	if input.Path == "" {
		return "."
	}
	return input.Path
}

func getFormat(input AnalyzeInput) output.Format {
	switch input.Format {
	case "json":
		return output.FormatJSON
	case "yaml", "yml":
		return output.FormatYAML
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatTOON
	}
}

func formatOutput(data any, format output.Format) (string, error) {
	var buf bytes.Buffer
	if err := output.NewWriterFormatter(format, &buf, false).Output(data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func toolResult(data any, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(data, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

func (s *Server) handleAnalyzeGodClasses(ctx context.Context, req *mcp.CallToolRequest, input GodClassInput) (*mcp.CallToolResult, any, error) {
	rep, err := s.analysis.AnalyzeGodClasses(ctx, getPath(input.AnalyzeInput), analysis.GodClassOptions{
		Cluster:      input.Cluster,
		Architecture: input.Architecture,
	})
	if err != nil {
		return toolError(err.Error())
	}

	if !input.AllClasses {
		rep.Results = rep.Issues()
	}
	return toolResult(output.GodClassView(rep, input.AllClasses), getFormat(input.AnalyzeInput))
}

func (s *Server) handleAnalyzeArchitecture(ctx context.Context, req *mcp.CallToolRequest, input ArchitectureInput) (*mcp.CallToolResult, any, error) {
	rep, err := s.analysis.AnalyzeArchitecture(ctx, getPath(input.AnalyzeInput), analysis.ArchitectureOptions{
		CentralNodes: input.Top,
	})
	if err != nil {
		return toolError(err.Error())
	}

	rep.Results = nil
	return toolResult(output.ArchitectureView(rep), getFormat(input.AnalyzeInput))
}
