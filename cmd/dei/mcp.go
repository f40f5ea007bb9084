package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/dei/internal/mcpserver"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes dei's analyses
as tools that LLMs can invoke.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "dei": {
        "command": "dei",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - analyze_god_classes   God classes, god methods, god files and extractions
  - analyze_architecture  Coupling, dependency cycles and quality`,
		Action: runMCPCmd,
		Subcommands: []*cli.Command{
			{
				Name:   "manifest",
				Usage:  "Print the MCP registry manifest (server.json)",
				Action: runMCPManifestCmd,
			},
		},
	}
}

func runMCPCmd(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	e.logger.Info("mcp server starting", "version", version)
	return mcpserver.NewServer(version, e.service()).Run(c.Context)
}

func runMCPManifestCmd(c *cli.Context) error {
	data, err := mcpserver.GenerateManifest(version)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, string(data))
	return err
}
