package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/dei/internal/logging"
	"github.com/panbanda/dei/internal/output"
	"github.com/panbanda/dei/internal/progress"
	"github.com/panbanda/dei/internal/remote"
	"github.com/panbanda/dei/internal/service/analysis"
	"github.com/panbanda/dei/pkg/config"
	deierrors "github.com/panbanda/dei/pkg/errors"
)

// env is what every analysis command needs: the loaded config and a logger
// writing to stderr.
type env struct {
	config *config.Config
	logger *slog.Logger
	stderr io.Writer
}

func setup(c *cli.Context) (*env, error) {
	cfg, err := config.LoadOrDefault(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Log.Format = c.String("log-format")
	}
	if c.Bool("no-color") {
		cfg.Output.Color = false
	}

	stderr := c.App.ErrWriter
	logger := logging.New(stderr, cfg.Log.Level, cfg.Log.Format)
	logger.Debug("config loaded", "path", c.String("config"), "workers", cfg.Analysis.Workers)
	return &env{config: cfg, logger: logger, stderr: stderr}, nil
}

func (e *env) service() *analysis.Service {
	return analysis.New(
		analysis.WithConfig(e.config),
		analysis.WithLogger(e.logger),
		analysis.WithVersion(version),
	)
}

// tracker returns a spinner on stderr, or nil when progress is off or
// stderr is not a terminal.
func (e *env) tracker(c *cli.Context, label string) *progress.Tracker {
	if c.Bool("no-progress") || !isTerminal(e.stderr) {
		return nil
	}
	return progress.NewSpinnerTo(e.stderr, label)
}

// messages writes status lines to stderr so they never mix with a report.
func (e *env) messages() *output.Formatter {
	return output.NewWriterFormatter(output.FormatText, e.stderr, e.config.Output.Color)
}

func finish(t *progress.Tracker, err error) {
	if t == nil {
		return
	}
	if err != nil {
		t.FinishError(err)
		return
	}
	t.FinishSuccess()
}

func onProgress(t *progress.Tracker) func() {
	if t == nil {
		return nil
	}
	return t.Tick
}

// formatter writes to --output when set, otherwise to the app's writer.
func (e *env) formatter(c *cli.Context) (*output.Formatter, error) {
	name := e.config.Output.Format
	if c.IsSet("format") {
		name = c.String("format")
	}
	format, err := parseFormat(name)
	if err != nil {
		return nil, err
	}

	if path := c.String("output"); path != "" {
		f, err := output.NewFormatter(format, path, e.config.Output.Color)
		if err != nil {
			return nil, deierrors.IO(path, err)
		}
		return f, nil
	}
	return output.NewWriterFormatter(format, c.App.Writer, e.config.Output.Color), nil
}

// parseFormat is output.ParseFormat without the silent fallback to text.
func parseFormat(name string) (output.Format, error) {
	format := output.ParseFormat(name)
	if format == output.FormatText && name != "" && !strings.EqualFold(name, "text") {
		return "", deierrors.Config("unknown output format %q", name)
	}
	return format, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// resolveRoot clones path when it names a remote repository. Callers pass
// the returned source to cleanup when done.
func (e *env) resolveRoot(c *cli.Context, path string) (string, *remote.Source, error) {
	src, err := remote.Parse(path)
	if err != nil || src == nil {
		return path, nil, err
	}

	e.messages().Info("Cloning %s...", src)
	if err := src.Clone(c.Context, nil, true); err != nil {
		return "", nil, err
	}
	e.logger.Debug("cloned", "source", src.String(), "dir", src.CloneDir)
	return src.CloneDir, src, nil
}

func (e *env) cleanup(src *remote.Source) {
	if src == nil {
		return
	}
	if err := src.Cleanup(); err != nil {
		e.logger.Warn("removing clone", "error", err)
	}
}

// pathArg returns the single positional path, defaulting to ".". The path
// may also be a repository: owner/repo, a git URL, either with an @ref.
func pathArg(c *cli.Context) (string, error) {
	switch c.Args().Len() {
	case 0:
		return ".", nil
	case 1:
		return c.Args().First(), nil
	default:
		return "", deierrors.Config("expected one path, got %d (flags go before the path)", c.Args().Len())
	}
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   fmt.Sprintf("Output format: %v (overrides output.format)", output.Formats),
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write output to file",
		},
		&cli.BoolFlag{
			Name:  "no-progress",
			Usage: "Hide the progress spinner",
		},
	}
}
