// Command dei finds god classes, god methods and god files, suggests how to
// split them, and reports on the class dependency graph.
package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	deierrors "github.com/panbanda/dei/pkg/errors"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

// Exit codes.
const (
	exitIssues       = 1
	exitConfig       = 2
	exitPathNotFound = 3
	exitFailure      = 4
)

// errIssues is returned when a run finds issues and the caller asked to fail
// on them.
var errIssues = errors.New("issues found")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	err := newApp(stdout, stderr).RunContext(ctx, args)
	if err == nil {
		return 0
	}
	code := exitCode(err)
	if code != exitIssues {
		color.New(color.FgRed).Fprintf(stderr, "Error: %v\n", err)
	}
	return code
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errIssues):
		return exitIssues
	case errors.Is(err, deierrors.ErrConfig):
		return exitConfig
	case errors.Is(err, deierrors.ErrPathNotFound):
		return exitPathNotFound
	default:
		return exitFailure
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:    "dei",
		Usage:   "Detect god classes, god methods and god files",
		Version: version,
		Description: `dei measures every class in a codebase against size and complexity
limits, suggests extractions for the classes that exceed them, and reports
coupling and dependency cycles between classes.

Supports: Java, C#, Python, JavaScript, TypeScript, Rust, Go`,
		Writer:         stdout,
		ErrWriter:      stderr,
		ExitErrHandler: func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"DEI_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error (overrides log.level)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format: text or json (overrides log.format)",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
		},
		Commands: []*cli.Command{
			checkCmd(),
			archCmd(),
			initCmd(),
			mcpCmd(),
		},
	}
}
