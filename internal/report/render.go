// Package report holds the result of an analysis run and renders it as a
// standalone HTML page.
package report

import (
	"embed"
	"html/template"
	"io"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/panbanda/dei/pkg/models"
)

//go:embed template.html
var templateFS embed.FS

// RenderData is what the template sees.
type RenderData struct {
	*Report
	Issues []models.AnalysisResult
	Status string
}

// Renderer handles HTML report generation.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer creates a new renderer with the embedded template.
func NewRenderer() (*Renderer, error) {
	funcMap := template.FuncMap{
		"severity": func(score float64) string {
			if score >= 2 {
				return "critical"
			}
			if score >= 1.5 {
				return "high"
			}
			if score >= 1 {
				return "medium"
			}
			return "low"
		},
		"title": func(s string) string {
			return cases.Title(language.English).String(strings.ReplaceAll(s, "_", " "))
		},
		"truncatePath": truncatePath,
		"percent": func(v float64) float64 {
			return v * 100
		},
		"join": strings.Join,
		"num": func(n int) string {
			return message.NewPrinter(language.English).Sprintf("%d", n)
		},
	}

	tmplContent, err := templateFS.ReadFile("template.html")
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New("report").Funcs(funcMap).Parse(string(tmplContent))
	if err != nil {
		return nil, err
	}

	return &Renderer{tmpl: tmpl}, nil
}

// Render writes the report as HTML.
func (r *Renderer) Render(rep *Report, w io.Writer) error {
	status := "good"
	if rep.HasIssues() {
		status = "danger"
	}
	return r.tmpl.Execute(w, RenderData{
		Report: rep,
		Issues: rep.Issues(),
		Status: status,
	})
}

// RenderToFile writes the report as HTML to outputPath.
func (r *Renderer) RenderToFile(rep *Report, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	return r.Render(rep, f)
}

// truncatePath keeps the file name and as much of the directory tail as fits.
func truncatePath(s string, n int) string {
	if len(s) <= n {
		return s
	}
	parts := strings.Split(s, "/")
	if len(parts) <= 2 {
		return "..." + s[len(s)-n+3:]
	}
	filename := parts[len(parts)-1]
	if len(filename) >= n-3 {
		return "..." + filename[len(filename)-n+3:]
	}
	remaining := max(n-len(filename)-5, 0)
	prefix := strings.Join(parts[:len(parts)-1], "/")
	if len(prefix) > remaining {
		prefix = prefix[len(prefix)-remaining:]
	}
	return ".../" + prefix + "/" + filename
}
