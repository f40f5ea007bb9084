// Package engine runs extraction and threshold evaluation over a tree,
// fanning out per directory and bounding concurrent extraction.
package engine

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/semaphore"

	"github.com/panbanda/dei/pkg/config"
	deierrors "github.com/panbanda/dei/pkg/errors"
	"github.com/panbanda/dei/pkg/extractor"
	"github.com/panbanda/dei/pkg/models"
	"github.com/panbanda/dei/pkg/tree"
)

// DefaultWorkerMultiplier is applied to NumCPU for the default worker count.
// Extraction mixes file I/O with CGO parsing, so twice the cores keeps
// them busy.
const DefaultWorkerMultiplier = 2

// Clusterer suggests responsibility clusters for a god class.
type Clusterer interface {
	Analyze(class models.ClassMetrics, th config.Thresholds) ([]models.ResponsibilityCluster, error)
}

// ProgressFunc is called after each analyzed file.
type ProgressFunc func(path string)

// ErrorFunc decides whether a file's extraction error is skipped. Returning
// false propagates the error and stops the run.
type ErrorFunc func(path string, err error) bool

// Engine analyzes the file nodes of a Store. An Engine may be reused; each
// Analyze call overwrites the results of the nodes it visits.
type Engine struct {
	store      *tree.Store
	extractor  extractor.Extractor
	thresholds config.Thresholds

	workers    int
	sem        *semaphore.Weighted
	clusterer  Clusterer
	logger     *slog.Logger
	onProgress ProgressFunc
	onError    ErrorFunc
	now        func() time.Time

	results *ResultMap
	skipped *SkipList
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers bounds concurrent extractions. Values below 1 select the default.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithClusterer enables cluster suggestions for god classes.
func WithClusterer(c Clusterer) Option {
	return func(e *Engine) {
		e.clusterer = c
	}
}

// WithLogger sets the logger for per-file debug output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithProgress registers a callback invoked once per analyzed file.
func WithProgress(fn ProgressFunc) Option {
	return func(e *Engine) {
		e.onProgress = fn
	}
}

// WithErrorHandler registers a callback that may skip failing files.
func WithErrorHandler(fn ErrorFunc) Option {
	return func(e *Engine) {
		e.onError = fn
	}
}

// WithClock overrides the timestamp source for results.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates an engine over store using ext for extraction.
func New(store *tree.Store, ext extractor.Extractor, th config.Thresholds, opts ...Option) *Engine {
	e := &Engine{
		store:      store,
		extractor:  ext,
		thresholds: th,
		workers:    max(runtime.NumCPU()*DefaultWorkerMultiplier, 1),
		logger:     slog.New(slog.DiscardHandler),
		now:        time.Now,
		results:    &ResultMap{},
		skipped:    &SkipList{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.sem = semaphore.NewWeighted(int64(e.workers))
	return e
}

// Workers returns the extraction concurrency bound.
func (e *Engine) Workers() int { return e.workers }

// Analyze processes the subtree rooted at id. Directories fan out to their
// children and join before returning; the first error cancels the
// remaining siblings and is returned.
func (e *Engine) Analyze(ctx context.Context, id tree.NodeID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	node, ok := e.store.Get(id)
	if !ok {
		return deierrors.Analysis("node %d not found", id)
	}

	if node.IsFile() {
		return e.analyzeFile(ctx, node)
	}
	return e.analyzeDir(ctx, node)
}

func (e *Engine) analyzeDir(ctx context.Context, node tree.Node) error {
	if len(node.Children) == 0 {
		return nil
	}

	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	for _, child := range node.Children {
		p.Go(func(ctx context.Context) error {
			return e.Analyze(ctx, child)
		})
	}
	return p.Wait()
}

func (e *Engine) analyzeFile(ctx context.Context, node tree.Node) error {
	if !e.extractor.Supports(node.Path) {
		return nil
	}

	// Directories never hold a slot, so nested fan-out cannot starve.
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	fm, err := e.extractor.Extract(ctx, node.Path)
	e.sem.Release(1)

	if err != nil {
		if ctx.Err() == nil && e.onError != nil && e.onError(node.Path, err) {
			e.logger.Debug("skipping file", "path", node.Path, "error", err)
			e.skipped.Add(node.Path, err)
			e.progress(node.Path)
			return nil
		}
		return err
	}

	results, err := e.evaluateFile(fm)
	if err != nil {
		return err
	}

	node.Metrics = fm
	node.Results = results
	node.GodFile = GodFile(fm, e.thresholds)
	if !e.store.Update(node.ID, node) {
		return deierrors.Analysis("node %d not found", node.ID)
	}
	e.results.Store(node.ID, results)

	e.logger.Debug("analyzed file",
		"path", node.Path,
		"classes", len(fm.Classes),
		"lines", fm.Lines,
	)
	e.progress(node.Path)
	return nil
}

func (e *Engine) evaluateFile(fm *models.FileMetrics) ([]models.AnalysisResult, error) {
	now := e.now()
	results := make([]models.AnalysisResult, 0, len(fm.Classes))
	for _, class := range fm.Classes {
		r := Evaluate(class, e.thresholds, now)
		if r.IsGodClass && e.clusterer != nil {
			clusters, err := e.clusterer.Analyze(class, e.thresholds)
			if err != nil {
				if deierrors.KindOf(err) != deierrors.KindClustering {
					err = deierrors.Clustering("%s: %v", class.Name, err)
				}
				return nil, err
			}
			r.Clusters = clusters
		}
		results = append(results, r)
	}
	return results, nil
}

func (e *Engine) progress(path string) {
	if e.onProgress != nil {
		e.onProgress(path)
	}
}

// Results returns the per-file result map.
func (e *Engine) Results() *ResultMap { return e.results }

// Skipped returns the files whose errors the error handler skipped, by path.
func (e *Engine) Skipped() []FileError { return e.skipped.Sorted() }

// AllResults flattens every stored result, ordered by node handle then
// class declaration order.
func (e *Engine) AllResults() []models.AnalysisResult {
	var out []models.AnalysisResult
	for _, id := range e.results.IDs() {
		rs, _ := e.results.Load(id)
		out = append(out, rs...)
	}
	return out
}

// GodFiles returns the god-file verdicts ordered by node handle.
func (e *Engine) GodFiles() []models.GodFileResult {
	var out []models.GodFileResult
	for _, id := range e.store.Files() {
		if n, ok := e.store.Get(id); ok && n.GodFile != nil {
			out = append(out, *n.GodFile)
		}
	}
	return out
}

// Classes returns every extracted class, ordered by node handle then
// declaration order.
func (e *Engine) Classes() []models.ClassMetrics {
	var out []models.ClassMetrics
	for _, id := range e.store.Files() {
		if n, ok := e.store.Get(id); ok && n.Metrics != nil {
			out = append(out, n.Metrics.Classes...)
		}
	}
	return out
}
