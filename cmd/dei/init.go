package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/dei/internal/output"
	"github.com/panbanda/dei/pkg/config"
	deierrors "github.com/panbanda/dei/pkg/errors"
)

func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write a default configuration file",
		Description: `Creates dei.toml in the current directory with the default thresholds,
exclusions and analysis settings. Use --output for a different location.

Examples:
  dei init                     # Creates dei.toml
  dei init -o .dei/dei.toml    # Creates config in .dei
  dei init --force             # Overwrite existing config file`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "dei.toml",
				Usage:   "Output file path",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite existing config file",
			},
		},
		Action: runInitCmd,
	}
}

func runInitCmd(c *cli.Context) error {
	outputPath := c.String("output")

	if _, err := os.Stat(outputPath); err == nil && !c.Bool("force") {
		return deierrors.Config("config file %q already exists (use --force to overwrite)", outputPath)
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return deierrors.IO(dir, err)
		}
	}

	content, err := defaultConfigTOML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, content, 0o644); err != nil {
		return deierrors.IO(outputPath, err)
	}

	f := output.NewWriterFormatter(output.FormatText, c.App.Writer, !c.Bool("no-color"))
	f.Success("Created %s", outputPath)
	f.Info("Edit this file to customize thresholds and exclusions.")
	return nil
}

func defaultConfigTOML() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# dei configuration\n")
	buf.WriteString("# Documentation: https://github.com/panbanda/dei\n\n")
	if err := config.DefaultConfig().WriteTOML(&buf); err != nil {
		return nil, fmt.Errorf("marshaling default config: %w", err)
	}
	return buf.Bytes(), nil
}
