package report

import (
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/zeebo/blake3"

	"github.com/panbanda/dei/pkg/analyzer/coupling"
	"github.com/panbanda/dei/pkg/models"
)

// Metadata contains report generation metadata.
type Metadata struct {
	Root        string    `json:"root"`
	GeneratedAt time.Time `json:"generated_at"`
	Version     string    `json:"version"`
	Files       int       `json:"files"`
	Classes     int       `json:"classes"`
	Workers     int       `json:"workers"`
}

// Summary counts the findings of one run.
type Summary struct {
	Classes    int `json:"classes"`
	GodClasses int `json:"god_classes"`
	GodMethods int `json:"god_methods"`
	GodFiles   int `json:"god_files"`
	Clusters   int `json:"clusters"`
	Skipped    int `json:"skipped"`
}

// SkippedFile is a file left out of the run because it failed to parse.
type SkippedFile struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Architecture is the dependency graph view of the analyzed classes.
type Architecture struct {
	Metrics  coupling.ArchitectureMetrics `json:"metrics"`
	Rating   string                       `json:"rating"`
	Coupling []coupling.ClassCoupling     `json:"coupling"`
	Cycles   [][]string                   `json:"cycles"`
	Central  []coupling.Ranked            `json:"central,omitempty"`
}

// Report is everything one analysis run produced.
type Report struct {
	Metadata     Metadata                `json:"metadata"`
	Summary      Summary                 `json:"summary"`
	Results      []models.AnalysisResult `json:"results"`
	GodFiles     []models.GodFileResult  `json:"god_files,omitempty"`
	Skipped      []SkippedFile           `json:"skipped,omitempty"`
	Architecture *Architecture           `json:"architecture,omitempty"`
}

// Summarize counts god classes, god methods, clusters and god files.
func Summarize(results []models.AnalysisResult, godFiles []models.GodFileResult, skipped int) Summary {
	s := Summary{
		Classes:  len(results),
		GodFiles: len(godFiles),
		Skipped:  skipped,
	}
	for _, r := range results {
		if r.IsGodClass {
			s.GodClasses++
		}
		s.GodMethods += len(r.GodMethods)
		s.Clusters += len(r.Clusters)
	}
	return s
}

// HasIssues reports whether any class, method or file exceeded a limit.
func (r *Report) HasIssues() bool {
	return r.Summary.GodClasses > 0 || r.Summary.GodMethods > 0 || r.Summary.GodFiles > 0
}

// Issues returns the results that are god classes or contain god methods.
func (r *Report) Issues() []models.AnalysisResult {
	var out []models.AnalysisResult
	for _, res := range r.Results {
		if res.HasIssues() {
			out = append(out, res)
		}
	}
	return out
}

// Digest is a BLAKE3 hash of the report with generation times and
// centrality scores removed. Two runs over unchanged sources have equal
// digests.
func (r *Report) Digest() (string, error) {
	c := *r
	c.Metadata.GeneratedAt = time.Time{}
	c.Metadata.Workers = 0

	c.Results = make([]models.AnalysisResult, len(r.Results))
	for i, res := range r.Results {
		res.Timestamp = time.Time{}
		c.Results[i] = res
	}
	if r.Architecture != nil {
		arch := *r.Architecture
		arch.Central = nil
		c.Architecture = &arch
	}

	data, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
