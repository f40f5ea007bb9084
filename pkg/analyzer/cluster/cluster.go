// Package cluster groups the methods of a god class into suggested
// responsibilities using DBSCAN over hashed identifier features.
package cluster

import (
	"math"
	"sort"

	"github.com/panbanda/dei/pkg/config"
	"github.com/panbanda/dei/pkg/models"
)

const (
	DefaultMinPoints  = 3
	DefaultDimensions = 64
)

// Analyzer suggests responsibility clusters. It holds no mutable state and
// is safe for concurrent use.
type Analyzer struct {
	minPoints  int
	tolerance  float64
	dimensions int
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithMinPoints sets the DBSCAN core-point neighborhood size.
func WithMinPoints(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.minPoints = n
		}
	}
}

// WithTolerance sets the DBSCAN neighborhood radius. Zero derives it from
// the cluster threshold.
func WithTolerance(eps float64) Option {
	return func(a *Analyzer) {
		if eps > 0 {
			a.tolerance = eps
		}
	}
}

// WithDimensions sets the width of the hashed feature vectors.
func WithDimensions(d int) Option {
	return func(a *Analyzer) {
		if d > 0 {
			a.dimensions = d
		}
	}
}

// New creates an Analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		minPoints:  DefaultMinPoints,
		dimensions: DefaultDimensions,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FromConfig creates an Analyzer from the clustering section of a config.
func FromConfig(c config.ClusteringConfig) *Analyzer {
	return New(
		WithMinPoints(c.MinPoints),
		WithTolerance(c.Tolerance),
		WithDimensions(c.Dimensions),
	)
}

// Tolerance returns the neighborhood radius used for th: the explicit
// tolerance if set, otherwise the Euclidean distance between two unit
// vectors whose cosine similarity equals th.ClusterThreshold.
func (a *Analyzer) Tolerance(th config.Thresholds) float64 {
	if a.tolerance > 0 {
		return a.tolerance
	}
	return math.Sqrt(2 * (1 - th.ClusterThreshold))
}

// Analyze returns the clusters found among class's methods, ordered by
// their first member. Classes with fewer than th.MinClusterSize methods
// yield nil. class is not modified.
func (a *Analyzer) Analyze(class models.ClassMetrics, th config.Thresholds) ([]models.ResponsibilityCluster, error) {
	if len(class.Methods) < th.MinClusterSize {
		return nil, nil
	}

	x, err := Featurize(class.Methods, a.dimensions)
	if err != nil {
		return nil, err
	}
	labels, err := DBSCAN(x, a.Tolerance(th), a.minPoints)
	if err != nil {
		return nil, err
	}

	groups := make(map[int][]int)
	for i, label := range labels {
		if label != Noise {
			groups[label] = append(groups[label], i)
		}
	}

	var clusters []models.ResponsibilityCluster
	for _, indices := range groups {
		if len(indices) < th.MinClusterSize {
			continue
		}
		clusters = append(clusters, buildCluster(class, indices))
	}
	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].MethodIndices[0] < clusters[j].MethodIndices[0]
	})
	return clusters, nil
}

func buildCluster(class models.ClassMetrics, indices []int) models.ResponsibilityCluster {
	members := make([]models.MethodMetrics, len(indices))
	names := make([]string, len(indices))
	for i, idx := range indices {
		members[i] = class.Methods[idx]
		names[i] = class.Methods[idx].Name
	}

	score, shared := Cohesion(members)
	return models.ResponsibilityCluster{
		SuggestedName:      SuggestName(class.Name, members),
		Methods:            names,
		MethodIndices:      append([]int(nil), indices...),
		Cohesion:           score,
		SharedDependencies: shared,
		Justification:      Justify(names),
	}
}
