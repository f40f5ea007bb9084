// Package analysis runs the dei pipeline: build the file tree, extract and
// evaluate every class in parallel, then assemble a report.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/panbanda/dei/internal/cache"
	"github.com/panbanda/dei/internal/report"
	"github.com/panbanda/dei/pkg/analyzer/cluster"
	"github.com/panbanda/dei/pkg/analyzer/coupling"
	"github.com/panbanda/dei/pkg/analyzer/engine"
	"github.com/panbanda/dei/pkg/config"
	deierrors "github.com/panbanda/dei/pkg/errors"
	"github.com/panbanda/dei/pkg/extractor"
	"github.com/panbanda/dei/pkg/tree"
)

// DefaultCentralNodes is how many of the most central classes an
// architecture report lists.
const DefaultCentralNodes = 10

// Service orchestrates code analysis operations.
type Service struct {
	config    *config.Config
	logger    *slog.Logger
	extractor extractor.Extractor
	version   string
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithExtractor replaces the built-in extractor (for testing).
func WithExtractor(ext extractor.Extractor) Option {
	return func(s *Service) {
		s.extractor = ext
	}
}

// WithVersion sets the version recorded in report metadata.
func WithVersion(v string) Option {
	return func(s *Service) {
		s.version = v
	}
}

// WithClock fixes result timestamps (for testing).
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates a new analysis service with the default config.
func New(opts ...Option) *Service {
	s := &Service{
		config: config.DefaultConfig(),
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the configuration the service runs with.
func (s *Service) Config() *config.Config { return s.config }

// GodClassOptions configures god class analysis.
type GodClassOptions struct {
	// Cluster overrides analysis.cluster when set.
	Cluster *bool

	// Architecture adds the dependency graph view to the report.
	Architecture bool

	OnProgress func()
}

// ArchitectureOptions configures architecture analysis.
type ArchitectureOptions struct {
	// CentralNodes caps the centrality ranking. Zero uses DefaultCentralNodes,
	// a negative value lists every node.
	CentralNodes int

	OnProgress func()
}

// AnalyzeGodClasses finds god classes, god methods and god files under root.
func (s *Service) AnalyzeGodClasses(ctx context.Context, root string, opts GodClassOptions) (*report.Report, error) {
	withClusters := s.config.Analysis.Cluster
	if opts.Cluster != nil {
		withClusters = *opts.Cluster
	}

	run, err := s.run(ctx, root, withClusters, opts.OnProgress)
	if err != nil {
		return nil, err
	}

	rep := run.report()
	if opts.Architecture {
		rep.Architecture = architecture(run.engine, DefaultCentralNodes)
	}
	return rep, nil
}

// AnalyzeArchitecture builds the class dependency graph under root and
// reports coupling, cycles and overall quality. Clustering is skipped.
func (s *Service) AnalyzeArchitecture(ctx context.Context, root string, opts ArchitectureOptions) (*report.Report, error) {
	run, err := s.run(ctx, root, false, opts.OnProgress)
	if err != nil {
		return nil, err
	}

	central := opts.CentralNodes
	if central == 0 {
		central = DefaultCentralNodes
	}

	rep := run.report()
	rep.Architecture = architecture(run.engine, central)
	return rep, nil
}

// pipeline is one finished engine run.
type pipeline struct {
	service *Service
	root    string
	store   *tree.Store
	engine  *engine.Engine
}

func (s *Service) run(ctx context.Context, root string, withClusters bool, onProgress func()) (*pipeline, error) {
	cfg := s.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	timeout, err := cfg.Timeout()
	if err != nil {
		return nil, deierrors.Config("analysis.timeout: %v", err)
	}

	store := tree.NewStore()
	builder := tree.NewBuilder(store,
		tree.WithIgnoreDirs(cfg.Exclude.Dirs),
		tree.WithExcludePatterns(cfg.Exclude.Patterns),
		tree.WithGitignore(cfg.Exclude.Gitignore),
		tree.WithBuilderLogger(s.logger),
	)
	rootID, err := builder.Build(root)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("tree built", "root", root, "nodes", store.Len(), "files", len(store.Files()))

	ext, err := s.buildExtractor()
	if err != nil {
		return nil, err
	}

	engineOpts := []engine.Option{
		engine.WithWorkers(cfg.Analysis.Workers),
		engine.WithLogger(s.logger),
		engine.WithClock(s.now),
	}
	if withClusters {
		engineOpts = append(engineOpts, engine.WithClusterer(cluster.FromConfig(cfg.Clustering)))
	}
	if onProgress != nil {
		engineOpts = append(engineOpts, engine.WithProgress(func(string) { onProgress() }))
	}
	if cfg.Analysis.SkipErrors {
		engineOpts = append(engineOpts, engine.WithErrorHandler(skipParseErrors))
	}
	eng := engine.New(store, ext, cfg.Thresholds, engineOpts...)

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	if err := eng.Analyze(ctx, rootID); err != nil {
		if errors.Is(err, context.DeadlineExceeded) && timeout > 0 {
			return nil, &deierrors.Error{
				Kind:    deierrors.KindAnalysis,
				Message: fmt.Sprintf("timed out after %s", timeout),
				Err:     err,
			}
		}
		return nil, fmt.Errorf("analyzing %s: %w", root, err)
	}
	s.logger.Debug("analysis finished",
		"root", root,
		"classes", eng.Results().Len(),
		"skipped", len(eng.Skipped()),
		"workers", eng.Workers(),
		"elapsed", time.Since(start),
	)

	return &pipeline{service: s, root: root, store: store, engine: eng}, nil
}

func (s *Service) buildExtractor() (extractor.Extractor, error) {
	if s.extractor != nil {
		return s.extractor, nil
	}

	multi := extractor.New()
	if !s.config.Cache.Enabled {
		return multi, nil
	}
	c, err := cache.FromConfig(s.config.Cache)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	return cache.NewExtractor(multi, c, s.logger), nil
}

// skipParseErrors skips files with syntax errors and stops on anything else.
func skipParseErrors(_ string, err error) bool {
	return deierrors.KindOf(err) == deierrors.KindParse
}

func (p *pipeline) report() *report.Report {
	results := p.engine.AllResults()
	godFiles := p.engine.GodFiles()

	var skipped []report.SkippedFile
	for _, fe := range p.engine.Skipped() {
		skipped = append(skipped, report.SkippedFile{Path: fe.Path, Error: fe.Err.Error()})
	}

	return &report.Report{
		Metadata: report.Metadata{
			Root:        p.root,
			GeneratedAt: p.service.now(),
			Version:     p.service.version,
			Files:       len(p.store.Files()),
			Classes:     len(results),
			Workers:     p.engine.Workers(),
		},
		Summary:  report.Summarize(results, godFiles, len(skipped)),
		Results:  results,
		GodFiles: godFiles,
		Skipped:  skipped,
	}
}

func architecture(eng *engine.Engine, central int) *report.Architecture {
	g := coupling.Build(eng.Classes())
	metrics := coupling.Quality(g)

	cycles := g.FindCycles()
	if cycles == nil {
		cycles = [][]string{}
	}

	return &report.Architecture{
		Metrics:  metrics,
		Rating:   metrics.Rating(),
		Coupling: coupling.Report(g),
		Cycles:   cycles,
		Central:  coupling.Central(g, central),
	}
}
