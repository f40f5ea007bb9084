package config

import (
	deierrors "github.com/panbanda/dei/pkg/errors"
)

// Thresholds is the policy deciding what counts as too big. All size
// comparisons are strict: a value equal to its maximum is acceptable.
type Thresholds struct {
	MaxClassLines      int `koanf:"max_class_lines" toml:"max_class_lines" json:"max_class_lines" yaml:"max_class_lines"`
	MaxMethods         int `koanf:"max_methods" toml:"max_methods" json:"max_methods" yaml:"max_methods"`
	MaxClassComplexity int `koanf:"max_class_complexity" toml:"max_class_complexity" json:"max_class_complexity" yaml:"max_class_complexity"`

	MaxMethodLines      int `koanf:"max_method_lines" toml:"max_method_lines" json:"max_method_lines" yaml:"max_method_lines"`
	MaxMethodComplexity int `koanf:"max_method_complexity" toml:"max_method_complexity" json:"max_method_complexity" yaml:"max_method_complexity"`
	MaxParameters       int `koanf:"max_parameters" toml:"max_parameters" json:"max_parameters" yaml:"max_parameters"`

	MaxClassesPerFile int `koanf:"max_classes_per_file" toml:"max_classes_per_file" json:"max_classes_per_file" yaml:"max_classes_per_file"`
	MaxFileLines      int `koanf:"max_file_lines" toml:"max_file_lines" json:"max_file_lines" yaml:"max_file_lines"`

	MinClusterSize   int     `koanf:"min_cluster_size" toml:"min_cluster_size" json:"min_cluster_size" yaml:"min_cluster_size"`
	ClusterThreshold float64 `koanf:"cluster_threshold" toml:"cluster_threshold" json:"cluster_threshold" yaml:"cluster_threshold"`
}

// DefaultThresholds returns the stock policy.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxClassLines:       300,
		MaxMethods:          20,
		MaxClassComplexity:  50,
		MaxMethodLines:      50,
		MaxMethodComplexity: 10,
		MaxParameters:       5,
		MaxClassesPerFile:   3,
		MaxFileLines:        500,
		MinClusterSize:      3,
		ClusterThreshold:    0.7,
	}
}

// Validate checks the policy invariants and returns a Config error naming
// the first rule that fails.
func (t Thresholds) Validate() error {
	limits := []struct {
		name  string
		value int
	}{
		{"max_class_lines", t.MaxClassLines},
		{"max_methods", t.MaxMethods},
		{"max_class_complexity", t.MaxClassComplexity},
		{"max_method_lines", t.MaxMethodLines},
		{"max_method_complexity", t.MaxMethodComplexity},
		{"max_parameters", t.MaxParameters},
		{"max_classes_per_file", t.MaxClassesPerFile},
		{"max_file_lines", t.MaxFileLines},
	}
	for _, l := range limits {
		if l.value < 0 {
			return deierrors.Config("%s must be >= 0", l.name)
		}
	}

	if t.MaxClassLines < t.MaxMethodLines {
		return deierrors.Config("max_class_lines must be >= max_method_lines")
	}
	if !(t.ClusterThreshold >= 0 && t.ClusterThreshold <= 1) {
		return deierrors.Config("cluster_threshold must be between 0.0 and 1.0")
	}
	if t.MinClusterSize < 2 {
		return deierrors.Config("min_cluster_size must be >= 2")
	}
	return nil
}
