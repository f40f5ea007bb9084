package output

import (
	"fmt"
	"strings"

	"github.com/panbanda/dei/internal/report"
	"github.com/panbanda/dei/pkg/models"
)

// ReportView is a Document built from an analysis report. Structured
// formats encode the report itself.
type ReportView struct {
	*Document
	report *report.Report
}

// HTMLReport returns the report the view was built from.
func (v *ReportView) HTMLReport() *report.Report { return v.report }

// GodClassView lays out god classes, god methods, suggested extractions and
// god files. With verbose set every analyzed class is listed too.
func GodClassView(rep *report.Report, verbose bool) *ReportView {
	doc := &Document{Title: "God Class Analysis", Data: rep}
	doc.Sections = append(doc.Sections, summarySection(rep))

	if !rep.HasIssues() {
		doc.Sections = append(doc.Sections, &Section{
			Title:   "Result",
			Content: "All classes are within the configured thresholds.",
		})
	}

	if rows := godClassRows(rep.Results); len(rows) > 0 {
		doc.Sections = append(doc.Sections, NewTable("God Classes",
			[]string{"Class", "File", "Lines", "Methods", "Complexity", "Violations"},
			rows, nil, nil))
	}
	if rows := godMethodRows(rep.Results); len(rows) > 0 {
		doc.Sections = append(doc.Sections, NewTable("God Methods",
			[]string{"Class", "Method", "Lines", "Complexity", "Params", "Score"},
			rows, nil, nil))
	}
	if s := extractionSection(rep.Results); s != nil {
		doc.Sections = append(doc.Sections, s)
	}
	if len(rep.GodFiles) > 0 {
		rows := make([][]string, 0, len(rep.GodFiles))
		for _, f := range rep.GodFiles {
			rows = append(rows, []string{
				f.Path,
				fmt.Sprint(f.ClassCount),
				fmt.Sprint(f.Lines),
				violationList(f.Violations),
			})
		}
		doc.Sections = append(doc.Sections, NewTable("God Files",
			[]string{"File", "Classes", "Lines", "Violations"},
			rows, nil, nil))
	}
	if len(rep.Skipped) > 0 {
		rows := make([][]string, 0, len(rep.Skipped))
		for _, s := range rep.Skipped {
			rows = append(rows, []string{s.Path, s.Error})
		}
		doc.Sections = append(doc.Sections, NewTable("Skipped Files",
			[]string{"File", "Error"}, rows, nil, nil))
	}
	if verbose && len(rep.Results) > 0 {
		rows := make([][]string, 0, len(rep.Results))
		for _, r := range rep.Results {
			status := "ok"
			if r.IsGodClass {
				status = "god class"
			} else if len(r.GodMethods) > 0 {
				status = fmt.Sprintf("%d god method(s)", len(r.GodMethods))
			}
			rows = append(rows, []string{
				r.Class.Name,
				r.Class.FilePath,
				fmt.Sprint(r.Class.Lines),
				fmt.Sprint(r.Class.MethodCount),
				fmt.Sprint(r.Class.Complexity),
				status,
			})
		}
		doc.Sections = append(doc.Sections, NewTable("All Classes",
			[]string{"Class", "File", "Lines", "Methods", "Complexity", "Status"},
			rows, nil, nil))
	}
	if rep.Architecture != nil {
		doc.Sections = append(doc.Sections, architectureSections(rep.Architecture)...)
	}

	return &ReportView{Document: doc, report: rep}
}

// ArchitectureView lays out graph quality, coupling per class, cycles and
// the most central classes.
func ArchitectureView(rep *report.Report) *ReportView {
	doc := &Document{Title: "Architecture Analysis", Data: rep}
	if rep.Architecture != nil {
		doc.Sections = architectureSections(rep.Architecture)
	}
	return &ReportView{Document: doc, report: rep}
}

func summarySection(rep *report.Report) *Section {
	s := rep.Summary
	lines := []string{
		fmt.Sprintf("Files:          %d", rep.Metadata.Files),
		fmt.Sprintf("Classes:        %d", s.Classes),
		fmt.Sprintf("God classes:    %d", s.GodClasses),
		fmt.Sprintf("God methods:    %d", s.GodMethods),
		fmt.Sprintf("God files:      %d", s.GodFiles),
		fmt.Sprintf("Extractions:    %d", s.Clusters),
	}
	if s.Skipped > 0 {
		lines = append(lines, fmt.Sprintf("Skipped files:  %d", s.Skipped))
	}
	return &Section{Title: "Summary", Content: strings.Join(lines, "\n")}
}

func godClassRows(results []models.AnalysisResult) [][]string {
	var rows [][]string
	for _, r := range results {
		if !r.IsGodClass {
			continue
		}
		rows = append(rows, []string{
			r.Class.Name,
			r.Class.FilePath,
			fmt.Sprint(r.Class.Lines),
			fmt.Sprint(r.Class.MethodCount),
			fmt.Sprint(r.Class.Complexity),
			violationList(r.Violations),
		})
	}
	return rows
}

func godMethodRows(results []models.AnalysisResult) [][]string {
	var rows [][]string
	for _, r := range results {
		for _, m := range r.GodMethods {
			rows = append(rows, []string{
				m.ClassName,
				m.MethodName,
				fmt.Sprint(m.Lines),
				fmt.Sprint(m.Complexity),
				fmt.Sprint(m.Parameters),
				fmt.Sprintf("%.2f", m.ViolationScore),
			})
		}
	}
	return rows
}

func extractionSection(results []models.AnalysisResult) *Section {
	var subs []Section
	for _, r := range results {
		for _, c := range r.Clusters {
			lines := []string{
				"Methods:   " + strings.Join(c.Methods, ", "),
				fmt.Sprintf("Cohesion:  %.0f%%", c.Cohesion*100),
			}
			if len(c.SharedDependencies) > 0 {
				lines = append(lines, "Shared:    "+strings.Join(c.SharedDependencies, ", "))
			}
			if c.Justification != "" {
				lines = append(lines, c.Justification)
			}
			subs = append(subs, Section{
				Title:   fmt.Sprintf("%s -> %s", r.Class.Name, c.SuggestedName),
				Content: strings.Join(lines, "\n"),
			})
		}
	}
	if len(subs) == 0 {
		return nil
	}
	return &Section{Title: "Suggested Extractions", Sections: subs}
}

func architectureSections(arch *report.Architecture) []Renderable {
	m := arch.Metrics
	sections := []Renderable{&Section{
		Title: "Architecture",
		Content: strings.Join([]string{
			fmt.Sprintf("Classes:         %d", m.Nodes),
			fmt.Sprintf("Dependencies:    %d", m.Edges),
			fmt.Sprintf("Density:         %.3f", m.Density),
			fmt.Sprintf("Cycles:          %d", m.Cycles),
			fmt.Sprintf("Cycle quality:   %.2f", m.CyclomaticQuality),
			fmt.Sprintf("Maintainability: %.2f (%s)", m.MaintainabilityIndex, arch.Rating),
		}, "\n"),
	}}

	if len(arch.Cycles) > 0 {
		lines := make([]string, len(arch.Cycles))
		for i, c := range arch.Cycles {
			lines[i] = fmt.Sprintf("%d. %s", i+1, strings.Join(c, " -> "))
		}
		sections = append(sections, &Section{Title: "Dependency Cycles", Content: strings.Join(lines, "\n")})
	}

	if len(arch.Coupling) > 0 {
		rows := make([][]string, 0, len(arch.Coupling))
		for _, c := range arch.Coupling {
			rows = append(rows, []string{
				c.Name,
				fmt.Sprint(c.Afferent),
				fmt.Sprint(c.Efferent),
				fmt.Sprintf("%.2f", c.Instability),
			})
		}
		sections = append(sections, NewTable("Coupling",
			[]string{"Class", "Afferent", "Efferent", "Instability"},
			rows, nil, nil))
	}

	if len(arch.Central) > 0 {
		rows := make([][]string, 0, len(arch.Central))
		for _, c := range arch.Central {
			rows = append(rows, []string{c.Name, fmt.Sprintf("%.4f", c.Score)})
		}
		sections = append(sections, NewTable("Most Central Classes",
			[]string{"Class", "PageRank"}, rows, nil, nil))
	}
	return sections
}

func violationList(vs []models.Violation) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, "; ")
}
