package main

import (
	"github.com/urfave/cli/v2"

	"github.com/panbanda/dei/internal/output"
	"github.com/panbanda/dei/internal/service/analysis"
)

func archCmd() *cli.Command {
	return &cli.Command{
		Name:      "arch",
		Aliases:   []string{"architecture"},
		Usage:     "Report class coupling, dependency cycles and architecture quality",
		ArgsUsage: "[path]",
		Flags: append(outputFlags(),
			&cli.IntFlag{
				Name:  "top",
				Value: analysis.DefaultCentralNodes,
				Usage: "Number of most central classes to list (negative lists all)",
			},
			&cli.BoolFlag{
				Name:  "fail-on-cycles",
				Usage: "Exit with status 1 when any dependency cycle is found",
			},
		),
		Action: runArchCmd,
	}
}

func runArchCmd(c *cli.Context) error {
	root, err := pathArg(c)
	if err != nil {
		return err
	}
	e, err := setup(c)
	if err != nil {
		return err
	}

	formatter, err := e.formatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	dir, src, err := e.resolveRoot(c, root)
	if err != nil {
		return err
	}
	defer e.cleanup(src)

	top := c.Int("top")
	if top == 0 {
		top = analysis.DefaultCentralNodes
	}

	tracker := e.tracker(c, "Building dependency graph...")
	rep, err := e.service().AnalyzeArchitecture(c.Context, dir, analysis.ArchitectureOptions{
		CentralNodes: top,
		OnProgress:   onProgress(tracker),
	})
	finish(tracker, err)
	if err != nil {
		return err
	}

	rep.Metadata.Root = root
	arch := rep.Architecture
	e.logger.Info("arch finished",
		"classes", arch.Metrics.Nodes,
		"dependencies", arch.Metrics.Edges,
		"cycles", arch.Metrics.Cycles,
		"rating", arch.Rating,
	)

	if err := formatter.Output(output.ArchitectureView(rep)); err != nil {
		return err
	}

	if c.Bool("fail-on-cycles") && len(arch.Cycles) > 0 {
		return errIssues
	}
	return nil
}
