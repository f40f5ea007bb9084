package engine

import (
	"time"

	"github.com/panbanda/dei/pkg/config"
	"github.com/panbanda/dei/pkg/models"
)

// Evaluate checks one class against the thresholds. Clusters are left for
// the caller to fill.
func Evaluate(class models.ClassMetrics, th config.Thresholds, now time.Time) models.AnalysisResult {
	isGod := class.IsGodClass(th)
	godMethods := class.GodMethods(th)
	if !isGod && len(godMethods) == 0 {
		return models.HealthyResult(class, now)
	}

	r := models.AnalysisResult{
		Class:      class,
		IsGodClass: isGod,
		Violations: class.Violations(th),
		Timestamp:  now,
	}
	for _, m := range godMethods {
		r.GodMethods = append(r.GodMethods, models.GodMethodResult{
			MethodName:     m.Name,
			ClassName:      class.Name,
			Lines:          m.Lines,
			Complexity:     m.Complexity,
			Parameters:     m.Parameters,
			Violations:     m.Violations(th),
			ViolationScore: m.ViolationScore(th),
		})
	}
	r.Summarize()
	return r
}

// GodFile returns the god-file verdict for fm, or nil when it is within limits.
func GodFile(fm *models.FileMetrics, th config.Thresholds) *models.GodFileResult {
	if fm == nil || !fm.IsGodFile(th) {
		return nil
	}
	names := make([]string, len(fm.Classes))
	for i := range fm.Classes {
		names[i] = fm.Classes[i].Name
	}
	return &models.GodFileResult{
		Path:       fm.Path,
		ClassCount: len(fm.Classes),
		Lines:      fm.Lines,
		ClassNames: names,
		Violations: fm.Violations(th),
	}
}
