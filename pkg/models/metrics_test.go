package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/panbanda/dei/pkg/config"
)

func TestIsGodClass(t *testing.T) {
	th := config.DefaultThresholds()

	tests := []struct {
		name  string
		class ClassMetrics
		want  bool
	}{
		{"healthy", ClassMetrics{Lines: 100, MethodCount: 10, Complexity: 20}, false},
		{"exactly at limits", ClassMetrics{Lines: 300, MethodCount: 20, Complexity: 50}, false},
		{"lines over", ClassMetrics{Lines: 301, MethodCount: 1, Complexity: 1}, true},
		{"methods over", ClassMetrics{Lines: 10, MethodCount: 21, Complexity: 1}, true},
		{"complexity over", ClassMetrics{Lines: 10, MethodCount: 1, Complexity: 51}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.class.IsGodClass(th); got != tt.want {
				t.Errorf("IsGodClass() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassViolations(t *testing.T) {
	class := ClassMetrics{Name: "Huge", Lines: 500, MethodCount: 30, Complexity: 80}

	got := class.Violations(config.DefaultThresholds())

	assert.Equal(t, []Violation{
		{Kind: ViolationLines, Actual: 500, Threshold: 300},
		{Kind: ViolationMethodCount, Actual: 30, Threshold: 20},
		{Kind: ViolationComplexity, Actual: 80, Threshold: 50},
	}, got)
}

func TestMethodViolationsRecordsAll(t *testing.T) {
	m := MethodMetrics{Name: "doEverything", Lines: 120, Complexity: 25, Parameters: 9}

	got := m.Violations(config.DefaultThresholds())

	assert.Len(t, got, 3)
	assert.Equal(t, ViolationLines, got[0].Kind)
	assert.Equal(t, ViolationComplexity, got[1].Kind)
	assert.Equal(t, ViolationParameterCount, got[2].Kind)
	assert.True(t, m.IsGodMethod(config.DefaultThresholds()))
}

func TestViolationScore(t *testing.T) {
	th := config.DefaultThresholds()

	m := MethodMetrics{Lines: 100, Complexity: 20, Parameters: 10}
	assert.InDelta(t, 2.0, m.ViolationScore(th), 1e-9)

	small := MethodMetrics{Lines: 25, Complexity: 5, Parameters: 0}
	assert.InDelta(t, (0.5+0.5+0)/3, small.ViolationScore(th), 1e-9)

	over := MethodMetrics{Lines: 51, Complexity: 11, Parameters: 6}
	assert.Greater(t, over.ViolationScore(th), 1.0)
}

func TestViolationScoreZeroLimit(t *testing.T) {
	th := config.DefaultThresholds()
	th.MaxParameters = 0

	m := MethodMetrics{Lines: 50, Complexity: 10, Parameters: 2}
	score := m.ViolationScore(th)

	assert.False(t, math.IsInf(score, 0))
	assert.InDelta(t, (1.0+1.0+2.0)/3, score, 1e-9)
}

func TestMaxThresholdsFlagNothing(t *testing.T) {
	th := config.Thresholds{
		MaxClassLines: math.MaxInt, MaxMethods: math.MaxInt, MaxClassComplexity: math.MaxInt,
		MaxMethodLines: math.MaxInt, MaxMethodComplexity: math.MaxInt, MaxParameters: math.MaxInt,
		MaxClassesPerFile: math.MaxInt, MaxFileLines: math.MaxInt,
		MinClusterSize: 2, ClusterThreshold: 0.7,
	}
	m := MethodMetrics{Lines: 1 << 40, Complexity: 1 << 30, Parameters: 1 << 20}
	c := ClassMetrics{Lines: 1 << 40, MethodCount: 1 << 20, Complexity: 1 << 40, Methods: []MethodMetrics{m}}
	f := FileMetrics{Lines: 1 << 40, Classes: []ClassMetrics{c}}

	assert.False(t, m.IsGodMethod(th))
	assert.False(t, c.IsGodClass(th))
	assert.Empty(t, c.GodMethods(th))
	assert.False(t, f.IsGodFile(th))
}

func TestFileViolations(t *testing.T) {
	th := config.DefaultThresholds()
	f := FileMetrics{Path: "big.java", Lines: 501, Classes: make([]ClassMetrics, 4)}

	assert.True(t, f.IsGodFile(th))
	assert.Equal(t, []Violation{
		{Kind: ViolationClassesPerFile, Actual: 4, Threshold: 3},
		{Kind: ViolationLines, Actual: 501, Threshold: 500},
	}, f.Violations(th))

	atLimit := FileMetrics{Lines: 500, Classes: make([]ClassMetrics, 3)}
	assert.False(t, atLimit.IsGodFile(th))
}

func TestSummarize(t *testing.T) {
	now := time.Unix(0, 0)

	healthy := HealthyResult(ClassMetrics{Name: "Small"}, now)
	assert.Equal(t, "Class 'Small' is within acceptable thresholds", healthy.Summary)
	assert.False(t, healthy.HasIssues())

	god := AnalysisResult{Class: ClassMetrics{Name: "Big", Lines: 500, MethodCount: 30, Complexity: 80}, IsGodClass: true}
	god.Summarize()
	assert.Equal(t, "God class detected: Big (lines: 500, methods: 30, complexity: 80)", god.Summary)
	assert.True(t, god.HasIssues())

	methods := AnalysisResult{Class: ClassMetrics{Name: "Mid"}, GodMethods: []GodMethodResult{{MethodName: "a"}, {MethodName: "b"}}}
	methods.Summarize()
	assert.Equal(t, "Class 'Mid' has 2 god method(s)", methods.Summary)
	assert.True(t, methods.HasIssues())
}

func TestViolationString(t *testing.T) {
	v := Violation{Kind: ViolationParameterCount, Actual: 7, Threshold: 5}
	assert.Equal(t, "parameter_count: 7 > 5", v.String())
}
