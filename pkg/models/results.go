package models

import (
	"fmt"
	"time"
)

// ViolationKind names the limit that was exceeded.
type ViolationKind string

const (
	ViolationLines          ViolationKind = "lines"
	ViolationComplexity     ViolationKind = "complexity"
	ViolationMethodCount    ViolationKind = "method_count"
	ViolationParameterCount ViolationKind = "parameter_count"
	ViolationClassesPerFile ViolationKind = "classes_per_file"
)

// Violation records an observed value above its limit.
type Violation struct {
	Kind      ViolationKind `json:"kind"`
	Actual    int           `json:"actual"`
	Threshold int           `json:"threshold"`
}

// String renders the violation as "kind: actual > threshold".
func (v Violation) String() string {
	return fmt.Sprintf("%s: %d > %d", v.Kind, v.Actual, v.Threshold)
}

// GodMethodResult is an oversized method with all limits it exceeds.
type GodMethodResult struct {
	MethodName     string      `json:"method_name"`
	ClassName      string      `json:"class_name"`
	Lines          int         `json:"lines"`
	Complexity     int         `json:"complexity"`
	Parameters     int         `json:"parameters"`
	Violations     []Violation `json:"violations"`
	ViolationScore float64     `json:"violation_score"`
}

// GodFileResult is a file holding too many classes or lines.
type GodFileResult struct {
	Path       string      `json:"path"`
	ClassCount int         `json:"class_count"`
	Lines      int         `json:"lines"`
	ClassNames []string    `json:"class_names,omitempty"`
	Violations []Violation `json:"violations"`
}

// ResponsibilityCluster is a suggested extraction: a group of methods that
// belong together.
type ResponsibilityCluster struct {
	SuggestedName      string   `json:"suggested_name"`
	Methods            []string `json:"methods"`
	MethodIndices      []int    `json:"-"`
	Cohesion           float64  `json:"cohesion"`
	SharedDependencies []string `json:"shared_dependencies,omitempty"`
	Justification      string   `json:"justification"`
}

// AnalysisResult is the verdict for one class.
type AnalysisResult struct {
	Class      ClassMetrics            `json:"class"`
	IsGodClass bool                    `json:"is_god_class"`
	Violations []Violation             `json:"violations,omitempty"`
	Clusters   []ResponsibilityCluster `json:"clusters,omitempty"`
	GodMethods []GodMethodResult       `json:"god_methods,omitempty"`
	Summary    string                  `json:"summary"`
	Timestamp  time.Time               `json:"timestamp"`
}

// HealthyResult builds the verdict for a class that exceeds nothing.
func HealthyResult(class ClassMetrics, now time.Time) AnalysisResult {
	return AnalysisResult{
		Class:     class,
		Summary:   fmt.Sprintf("Class '%s' is within acceptable thresholds", class.Name),
		Timestamp: now,
	}
}

// HasIssues reports whether the class is a god class or has any god method.
func (r *AnalysisResult) HasIssues() bool {
	return r.IsGodClass || len(r.GodMethods) > 0
}

// Summarize fills Summary from the verdict fields.
func (r *AnalysisResult) Summarize() {
	switch {
	case r.IsGodClass:
		r.Summary = fmt.Sprintf("God class detected: %s (lines: %d, methods: %d, complexity: %d)",
			r.Class.Name, r.Class.Lines, r.Class.MethodCount, r.Class.Complexity)
	case len(r.GodMethods) > 0:
		r.Summary = fmt.Sprintf("Class '%s' has %d god method(s)", r.Class.Name, len(r.GodMethods))
	default:
		r.Summary = fmt.Sprintf("Class '%s' is within acceptable thresholds", r.Class.Name)
	}
}
