package main

import (
	"context"
	"errors"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/dei/internal/output"
	"github.com/panbanda/dei/internal/remote"
	"github.com/panbanda/dei/internal/report"
	"github.com/panbanda/dei/internal/service/analysis"
	"github.com/panbanda/dei/pkg/config"
	deierrors "github.com/panbanda/dei/pkg/errors"
	"github.com/panbanda/dei/pkg/extractor"
	"github.com/panbanda/dei/pkg/watch"
)

func checkCmd() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Find god classes, god methods and god files",
		ArgsUsage: "[path]",
		Description: `Measures every class under path against the configured thresholds.
Classes over a limit are reported with their violations, their oversized
methods and, unless --no-cluster is given, suggested extractions.

Examples:
  dei check src
  dei check --format json --output report.json .
  dei check --fail-on-issues --no-progress .
  dei check --max-methods 15 --max-complexity 40 src
  dei check --watch src
  dei check owner/repo@v1.2.0`,
		Flags: append(outputFlags(),
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "List every analyzed class, not just offenders",
			},
			&cli.BoolFlag{
				Name:  "fail-on-issues",
				Usage: "Exit with status 1 when any god class, method or file is found",
			},
			&cli.BoolFlag{
				Name:  "no-cluster",
				Usage: "Skip extraction suggestions",
			},
			&cli.BoolFlag{
				Name:  "arch",
				Usage: "Add coupling, cycles and architecture quality",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Re-run the check whenever a source file changes",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"j"},
				Usage:   "Parallel extraction workers (0 uses all CPUs; overrides analysis.workers)",
			},
			&cli.IntFlag{
				Name:    "max-class-lines",
				Aliases: []string{"max-lines"},
				Usage:   "Maximum lines per class (overrides thresholds.max_class_lines)",
			},
			&cli.IntFlag{
				Name:  "max-methods",
				Usage: "Maximum methods per class (overrides thresholds.max_methods)",
			},
			&cli.IntFlag{
				Name:  "max-complexity",
				Usage: "Maximum class complexity (overrides thresholds.max_class_complexity)",
			},
		),
		Action: runCheckCmd,
	}
}

func runCheckCmd(c *cli.Context) error {
	root, err := pathArg(c)
	if err != nil {
		return err
	}
	e, err := setup(c)
	if err != nil {
		return err
	}
	if c.IsSet("workers") {
		e.config.Analysis.Workers = c.Int("workers")
	}
	applyThresholdFlags(c, &e.config.Thresholds)

	if c.Bool("watch") {
		if src, _ := remote.Parse(root); src != nil {
			return deierrors.Config("--watch needs a local directory, got %s", src)
		}
	}

	dir, src, err := e.resolveRoot(c, root)
	if err != nil {
		return err
	}
	defer e.cleanup(src)

	rep, err := runCheck(c, e, dir, root)
	if err != nil {
		return err
	}
	if c.Bool("watch") {
		return watchCheck(c, e, dir)
	}
	if c.Bool("fail-on-issues") && rep.HasIssues() {
		return errIssues
	}
	return nil
}

// applyThresholdFlags copies the limits given on the command line over the
// configured ones. The result is validated with the rest of the config.
func applyThresholdFlags(c *cli.Context, th *config.Thresholds) {
	if c.IsSet("max-class-lines") {
		th.MaxClassLines = c.Int("max-class-lines")
	}
	if c.IsSet("max-methods") {
		th.MaxMethods = c.Int("max-methods")
	}
	if c.IsSet("max-complexity") {
		th.MaxClassComplexity = c.Int("max-complexity")
	}
}

// runCheck analyzes dir once and writes the result under the given name.
func runCheck(c *cli.Context, e *env, dir, name string) (*report.Report, error) {
	formatter, err := e.formatter(c)
	if err != nil {
		return nil, err
	}
	defer formatter.Close()

	opts := analysis.GodClassOptions{Architecture: c.Bool("arch")}
	if c.Bool("no-cluster") {
		cluster := false
		opts.Cluster = &cluster
	}

	tracker := e.tracker(c, "Analyzing classes...")
	opts.OnProgress = onProgress(tracker)
	rep, err := e.service().AnalyzeGodClasses(c.Context, dir, opts)
	finish(tracker, err)
	if err != nil {
		return nil, err
	}
	rep.Metadata.Root = name

	for _, s := range rep.Skipped {
		e.logger.Warn("skipped file", "path", s.Path, "error", s.Error)
	}
	e.logger.Info("check finished",
		"classes", rep.Summary.Classes,
		"god_classes", rep.Summary.GodClasses,
		"god_methods", rep.Summary.GodMethods,
		"god_files", rep.Summary.GodFiles,
	)

	if err := formatter.Output(output.GodClassView(rep, c.Bool("verbose"))); err != nil {
		return nil, err
	}
	if path := c.String("output"); path != "" {
		e.messages().Success("Report written to %s", path)
	}
	return rep, nil
}

// watchCheck re-runs the check after each batch of source changes until
// interrupted. Failed runs are reported and watching continues.
func watchCheck(c *cli.Context, e *env, root string) error {
	w, err := watch.New(root,
		watch.WithIgnoreDirs(e.config.Exclude.Dirs),
		watch.WithFilter(extractor.New().Supports),
		watch.WithLogger(e.logger),
	)
	if err != nil {
		return err
	}
	defer w.Close()

	msg := e.messages()
	msg.Info("Watching %s for changes. Press Ctrl+C to stop.", root)
	err = w.Run(c.Context, func(changed []string) {
		msg.Info("%d file(s) changed, re-running check", len(changed))
		if _, err := runCheck(c, e, root, root); err != nil {
			msg.Error("%v", err)
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
