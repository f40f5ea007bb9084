package engine

import (
	"fmt"
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/panbanda/dei/pkg/models"
	"github.com/panbanda/dei/pkg/tree"
)

// ResultMap holds the analysis results of each file node. It is safe for
// concurrent use without a global lock.
type ResultMap struct {
	m sync.Map // tree.NodeID -> []models.AnalysisResult
	n atomic.Int64
}

// Store records the results for id, replacing any previous entry.
func (r *ResultMap) Store(id tree.NodeID, results []models.AnalysisResult) {
	if _, loaded := r.m.Swap(id, results); !loaded {
		r.n.Add(1)
	}
}

// Load returns the results for id.
func (r *ResultMap) Load(id tree.NodeID) ([]models.AnalysisResult, bool) {
	v, ok := r.m.Load(id)
	if !ok {
		return nil, false
	}
	return v.([]models.AnalysisResult), true
}

// Len returns the number of file entries.
func (r *ResultMap) Len() int { return int(r.n.Load()) }

// Range calls fn for each entry in unspecified order until fn returns false.
func (r *ResultMap) Range(fn func(id tree.NodeID, results []models.AnalysisResult) bool) {
	r.m.Range(func(k, v any) bool {
		return fn(k.(tree.NodeID), v.([]models.AnalysisResult))
	})
}

// IDs returns every stored handle in ascending order.
func (r *ResultMap) IDs() []tree.NodeID {
	ids := make([]tree.NodeID, 0, r.Len())
	r.Range(func(id tree.NodeID, _ []models.AnalysisResult) bool {
		ids = append(ids, id)
		return true
	})
	slices.Sort(ids)
	return ids
}

// FileError is a file whose extraction failed.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e FileError) Unwrap() error { return e.Err }

// SkipList collects skipped files (thread-safe).
type SkipList struct {
	mu     sync.Mutex
	errors []FileError
}

// Add appends a skipped file.
func (s *SkipList) Add(path string, err error) {
	s.mu.Lock()
	s.errors = append(s.errors, FileError{Path: path, Err: err})
	s.mu.Unlock()
}

// Sorted returns a copy of the skipped files ordered by path.
func (s *SkipList) Sorted() []FileError {
	s.mu.Lock()
	out := slices.Clone(s.errors)
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
