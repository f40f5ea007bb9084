package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/panbanda/dei/pkg/config"
	deierrors "github.com/panbanda/dei/pkg/errors"
	"github.com/panbanda/dei/pkg/models"
	"github.com/panbanda/dei/pkg/tree"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var fixedNow = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// fakeExtractor serves canned metrics for .java paths and tracks how many
// extractions run at once.
type fakeExtractor struct {
	files map[string]*models.FileMetrics
	errs  map[string]error
	delay time.Duration

	active atomic.Int32
	peak   atomic.Int32
	calls  atomic.Int32
}

func (f *fakeExtractor) Supports(path string) bool {
	return strings.HasSuffix(path, ".java")
}

func (f *fakeExtractor) Extract(ctx context.Context, path string) (*models.FileMetrics, error) {
	f.calls.Add(1)
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err := f.errs[path]; err != nil {
		return nil, err
	}
	if fm, ok := f.files[path]; ok {
		return fm, nil
	}
	name := strings.TrimSuffix(filepath.Base(path), ".java")
	return &models.FileMetrics{
		Path:  path,
		Lines: 12,
		Classes: []models.ClassMetrics{{
			Name:        name,
			FilePath:    path,
			Lines:       10,
			MethodCount: 1,
			Complexity:  1,
			Methods:     []models.MethodMetrics{{Name: "run", Lines: 3, Complexity: 1}},
		}},
	}, nil
}

// buildTree creates /src with dirs subdirectories of filesPerDir .java files.
func buildTree(t *testing.T, dirs, filesPerDir int) (*tree.Store, tree.NodeID, []string) {
	t.Helper()
	s := tree.NewStore()
	root := s.Allocate(tree.Node{Kind: tree.Directory, Path: "/src", Name: "src", Parent: tree.NoParent})

	var rootChildren []tree.NodeID
	var paths []string
	for d := range dirs {
		dirPath := fmt.Sprintf("/src/pkg%d", d)
		dir := s.Allocate(tree.Node{Kind: tree.Directory, Path: dirPath, Name: filepath.Base(dirPath), Depth: 1, Parent: root})

		var kids []tree.NodeID
		for f := range filesPerDir {
			p := fmt.Sprintf("%s/Class%d.java", dirPath, f)
			kids = append(kids, s.Allocate(tree.Node{Kind: tree.File, Path: p, Name: filepath.Base(p), Depth: 2, Parent: dir}))
			paths = append(paths, p)
		}
		setChildren(t, s, dir, kids)
		rootChildren = append(rootChildren, dir)
	}
	setChildren(t, s, root, rootChildren)
	return s, root, paths
}

func setChildren(t *testing.T, s *tree.Store, id tree.NodeID, kids []tree.NodeID) {
	t.Helper()
	n, ok := s.Get(id)
	require.True(t, ok)
	n.Children = kids
	require.True(t, s.Update(id, n))
}

func godFileMetrics(path string) *models.FileMetrics {
	return &models.FileMetrics{
		Path:  path,
		Lines: 600,
		Classes: []models.ClassMetrics{{
			Name:        "Monolith",
			FilePath:    path,
			Lines:       500,
			MethodCount: 30,
			Complexity:  80,
			Methods: []models.MethodMetrics{
				{Name: "small", Lines: 5, Complexity: 1, Parameters: 1},
				{Name: "huge", Lines: 120, Complexity: 25, Parameters: 8},
			},
		}},
	}
}

func TestAnalyzeProducesOneEntryPerFile(t *testing.T) {
	for workers := 1; workers <= 8; workers++ {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			s, root, paths := buildTree(t, 4, 5)
			fx := &fakeExtractor{}
			e := New(s, fx, config.DefaultThresholds(), WithWorkers(workers))

			require.NoError(t, e.Analyze(context.Background(), root))
			assert.Equal(t, len(paths), e.Results().Len())
			assert.Len(t, e.AllResults(), len(paths))
			assert.Len(t, e.Classes(), len(paths))
			assert.Equal(t, int32(len(paths)), fx.calls.Load())
		})
	}
}

func TestAnalyzeBoundsConcurrentExtraction(t *testing.T) {
	s, root, _ := buildTree(t, 3, 6)
	fx := &fakeExtractor{delay: 5 * time.Millisecond}
	e := New(s, fx, config.DefaultThresholds(), WithWorkers(2))

	require.NoError(t, e.Analyze(context.Background(), root))
	assert.LessOrEqual(t, fx.peak.Load(), int32(2))
	assert.Equal(t, 2, e.Workers())
}

func TestAnalyzeEmptyDirectory(t *testing.T) {
	s := tree.NewStore()
	root := s.Allocate(tree.Node{Kind: tree.Directory, Path: "/empty", Name: "empty", Parent: tree.NoParent})
	e := New(s, &fakeExtractor{}, config.DefaultThresholds())

	require.NoError(t, e.Analyze(context.Background(), root))
	assert.Equal(t, 0, e.Results().Len())
	assert.Empty(t, e.AllResults())
	assert.Empty(t, e.GodFiles())
}

func TestAnalyzeSingleFileRoot(t *testing.T) {
	s := tree.NewStore()
	root := s.Allocate(tree.Node{Kind: tree.File, Path: "/Only.java", Name: "Only.java", Parent: tree.NoParent})
	e := New(s, &fakeExtractor{}, config.DefaultThresholds())

	require.NoError(t, e.Analyze(context.Background(), root))
	require.Equal(t, 1, e.Results().Len())

	n, ok := s.Get(root)
	require.True(t, ok)
	require.NotNil(t, n.Metrics)
	assert.Len(t, n.Results, 1)
	assert.Nil(t, n.GodFile)
}

func TestAnalyzeSkipsUnsupportedFiles(t *testing.T) {
	s := tree.NewStore()
	root := s.Allocate(tree.Node{Kind: tree.Directory, Path: "/r", Name: "r", Parent: tree.NoParent})
	readme := s.Allocate(tree.Node{Kind: tree.File, Path: "/r/README.md", Name: "README.md", Depth: 1, Parent: root})
	src := s.Allocate(tree.Node{Kind: tree.File, Path: "/r/A.java", Name: "A.java", Depth: 1, Parent: root})
	setChildren(t, s, root, []tree.NodeID{readme, src})

	fx := &fakeExtractor{}
	e := New(s, fx, config.DefaultThresholds())
	require.NoError(t, e.Analyze(context.Background(), root))

	assert.Equal(t, 1, e.Results().Len())
	_, ok := e.Results().Load(readme)
	assert.False(t, ok)
	assert.Equal(t, int32(1), fx.calls.Load())
}

func TestAnalyzeGodClass(t *testing.T) {
	s, root, paths := buildTree(t, 1, 2)
	fx := &fakeExtractor{files: map[string]*models.FileMetrics{paths[0]: godFileMetrics(paths[0])}}
	e := New(s, fx, config.DefaultThresholds(), WithClock(fixedClock))

	require.NoError(t, e.Analyze(context.Background(), root))
	all := e.AllResults()
	require.Len(t, all, 2)

	god := all[0]
	assert.True(t, god.IsGodClass)
	assert.True(t, god.HasIssues())
	kinds := make([]models.ViolationKind, 0, len(god.Violations))
	for _, v := range god.Violations {
		kinds = append(kinds, v.Kind)
	}
	assert.Equal(t, []models.ViolationKind{
		models.ViolationLines,
		models.ViolationMethodCount,
		models.ViolationComplexity,
	}, kinds)

	require.Len(t, god.GodMethods, 1)
	assert.Equal(t, "huge", god.GodMethods[0].MethodName)
	assert.Equal(t, "Monolith", god.GodMethods[0].ClassName)
	assert.Len(t, god.GodMethods[0].Violations, 3)
	assert.Greater(t, god.GodMethods[0].ViolationScore, 1.0)
	assert.Equal(t, fixedNow, god.Timestamp)

	assert.False(t, all[1].HasIssues())

	files := e.GodFiles()
	require.Len(t, files, 1)
	assert.Equal(t, paths[0], files[0].Path)
	assert.Equal(t, []string{"Monolith"}, files[0].ClassNames)
}

func TestAnalyzeMaxThresholdsFlagNothing(t *testing.T) {
	s, root, paths := buildTree(t, 1, 1)
	fx := &fakeExtractor{files: map[string]*models.FileMetrics{paths[0]: godFileMetrics(paths[0])}}
	th := config.Thresholds{
		MaxClassLines:       math.MaxInt,
		MaxMethods:          math.MaxInt,
		MaxClassComplexity:  math.MaxInt,
		MaxMethodLines:      math.MaxInt,
		MaxMethodComplexity: math.MaxInt,
		MaxParameters:       math.MaxInt,
		MaxClassesPerFile:   math.MaxInt,
		MaxFileLines:        math.MaxInt,
		MinClusterSize:      3,
		ClusterThreshold:    0.7,
	}
	e := New(s, fx, th)

	require.NoError(t, e.Analyze(context.Background(), root))
	for _, r := range e.AllResults() {
		assert.False(t, r.HasIssues())
		assert.Empty(t, r.Violations)
	}
	assert.Empty(t, e.GodFiles())
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	run := func() []models.AnalysisResult {
		s, root, paths := buildTree(t, 3, 4)
		fx := &fakeExtractor{files: map[string]*models.FileMetrics{paths[5]: godFileMetrics(paths[5])}}
		e := New(s, fx, config.DefaultThresholds(), WithWorkers(4), WithClock(fixedClock))
		require.NoError(t, e.Analyze(context.Background(), root))
		return e.AllResults()
	}
	assert.Equal(t, run(), run())
}

func TestAnalyzePropagatesExtractorError(t *testing.T) {
	s, root, paths := buildTree(t, 2, 3)
	fx := &fakeExtractor{errs: map[string]error{paths[4]: deierrors.Parse(paths[4], "unexpected token")}}
	e := New(s, fx, config.DefaultThresholds())

	err := e.Analyze(context.Background(), root)
	require.Error(t, err)
	assert.Equal(t, deierrors.KindParse, deierrors.KindOf(err))
	assert.True(t, errors.Is(err, deierrors.ErrParse))
}

func TestAnalyzeErrorHandlerSkips(t *testing.T) {
	s, root, paths := buildTree(t, 2, 3)
	fx := &fakeExtractor{errs: map[string]error{paths[1]: deierrors.Parse(paths[1], "bad")}}
	var seen atomic.Int32
	e := New(s, fx, config.DefaultThresholds(),
		WithErrorHandler(func(_ string, err error) bool {
			return deierrors.KindOf(err) == deierrors.KindParse
		}),
		WithProgress(func(string) { seen.Add(1) }),
	)

	require.NoError(t, e.Analyze(context.Background(), root))
	assert.Equal(t, len(paths)-1, e.Results().Len())
	skipped := e.Skipped()
	require.Len(t, skipped, 1)
	assert.Equal(t, paths[1], skipped[0].Path)
	assert.ErrorIs(t, skipped[0], deierrors.ErrParse)
	assert.Equal(t, int32(len(paths)), seen.Load())
}

func TestAnalyzeMissingHandle(t *testing.T) {
	e := New(tree.NewStore(), &fakeExtractor{}, config.DefaultThresholds())
	err := e.Analyze(context.Background(), 42)
	require.Error(t, err)
	assert.Equal(t, deierrors.KindAnalysis, deierrors.KindOf(err))
}

func TestAnalyzeCancelled(t *testing.T) {
	s, root, _ := buildTree(t, 2, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := New(s, &fakeExtractor{}, config.DefaultThresholds())
	err := e.Analyze(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
}

type fakeClusterer struct {
	calls atomic.Int32
	err   error
}

func (c *fakeClusterer) Analyze(class models.ClassMetrics, _ config.Thresholds) ([]models.ResponsibilityCluster, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return []models.ResponsibilityCluster{{SuggestedName: class.Name + "Service", Methods: []string{"a", "b", "c"}}}, nil
}

func TestAnalyzeClustersOnlyGodClasses(t *testing.T) {
	s, root, paths := buildTree(t, 1, 3)
	fx := &fakeExtractor{files: map[string]*models.FileMetrics{paths[2]: godFileMetrics(paths[2])}}
	cl := &fakeClusterer{}
	e := New(s, fx, config.DefaultThresholds(), WithClusterer(cl))

	require.NoError(t, e.Analyze(context.Background(), root))
	assert.Equal(t, int32(1), cl.calls.Load())

	all := e.AllResults()
	require.Len(t, all, 3)
	assert.Empty(t, all[0].Clusters)
	assert.Empty(t, all[1].Clusters)
	require.Len(t, all[2].Clusters, 1)
	assert.Equal(t, "MonolithService", all[2].Clusters[0].SuggestedName)
	assert.Equal(t, 30, all[2].Class.MethodCount)
}

func TestAnalyzeClusteringFailure(t *testing.T) {
	s, root, paths := buildTree(t, 1, 1)
	fx := &fakeExtractor{files: map[string]*models.FileMetrics{paths[0]: godFileMetrics(paths[0])}}
	e := New(s, fx, config.DefaultThresholds(), WithClusterer(&fakeClusterer{err: errors.New("boom")}))

	err := e.Analyze(context.Background(), root)
	require.Error(t, err)
	assert.Equal(t, deierrors.KindClustering, deierrors.KindOf(err))
}

func TestAnalyzeUpdatesNodes(t *testing.T) {
	s, root, _ := buildTree(t, 1, 2)
	e := New(s, &fakeExtractor{}, config.DefaultThresholds())
	require.NoError(t, e.Analyze(context.Background(), root))

	for _, id := range s.Files() {
		n, ok := s.Get(id)
		require.True(t, ok)
		require.NotNil(t, n.Metrics)
		assert.Equal(t, n.Path, n.Metrics.Path)
		assert.Len(t, n.Results, 1)
		assert.Equal(t, id, n.ID)
	}
}
