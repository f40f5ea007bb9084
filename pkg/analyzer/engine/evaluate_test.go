package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/dei/pkg/config"
	"github.com/panbanda/dei/pkg/models"
)

func TestEvaluateHealthy(t *testing.T) {
	class := models.ClassMetrics{Name: "Small", Lines: 40, MethodCount: 3, Complexity: 5}
	r := Evaluate(class, config.DefaultThresholds(), fixedNow)

	assert.False(t, r.IsGodClass)
	assert.False(t, r.HasIssues())
	assert.Empty(t, r.Violations)
	assert.Empty(t, r.GodMethods)
	assert.Equal(t, "Class 'Small' is within acceptable thresholds", r.Summary)
}

func TestEvaluateStrictComparison(t *testing.T) {
	th := config.DefaultThresholds()
	class := models.ClassMetrics{
		Name:        "Edge",
		Lines:       th.MaxClassLines,
		MethodCount: th.MaxMethods,
		Complexity:  th.MaxClassComplexity,
		Methods: []models.MethodMetrics{{
			Name:       "atLimit",
			Lines:      th.MaxMethodLines,
			Complexity: th.MaxMethodComplexity,
			Parameters: th.MaxParameters,
		}},
	}
	r := Evaluate(class, th, fixedNow)
	assert.False(t, r.HasIssues())
}

func TestEvaluateGodMethodOnly(t *testing.T) {
	class := models.ClassMetrics{
		Name:        "Handler",
		Lines:       80,
		MethodCount: 2,
		Complexity:  14,
		Methods: []models.MethodMetrics{
			{Name: "ok", Lines: 10, Complexity: 2, Parameters: 1},
			{Name: "wide", Lines: 10, Complexity: 2, Parameters: 9},
		},
	}
	r := Evaluate(class, config.DefaultThresholds(), fixedNow)

	assert.False(t, r.IsGodClass)
	assert.True(t, r.HasIssues())
	assert.Empty(t, r.Violations)
	require.Len(t, r.GodMethods, 1)

	gm := r.GodMethods[0]
	assert.Equal(t, "wide", gm.MethodName)
	require.Len(t, gm.Violations, 1)
	assert.Equal(t, models.ViolationParameterCount, gm.Violations[0].Kind)
	assert.Equal(t, "Class 'Handler' has 1 god method(s)", r.Summary)
}

func TestGodFile(t *testing.T) {
	th := config.DefaultThresholds()

	assert.Nil(t, GodFile(nil, th))
	assert.Nil(t, GodFile(&models.FileMetrics{Path: "a.py", Lines: 100}, th))

	fm := &models.FileMetrics{
		Path:    "big.py",
		Lines:   900,
		Classes: []models.ClassMetrics{{Name: "A"}, {Name: "B"}, {Name: "C"}, {Name: "D"}},
	}
	gf := GodFile(fm, th)
	require.NotNil(t, gf)
	assert.Equal(t, 4, gf.ClassCount)
	assert.Equal(t, []string{"A", "B", "C", "D"}, gf.ClassNames)
	require.Len(t, gf.Violations, 2)
	assert.Equal(t, models.ViolationClassesPerFile, gf.Violations[0].Kind)
	assert.Equal(t, models.ViolationLines, gf.Violations[1].Kind)
}
