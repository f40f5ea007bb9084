// Package extractor turns source files into class and method metrics using
// tree-sitter grammars.
package extractor

import (
	"context"
	"fmt"
	"path/filepath"

	deierrors "github.com/panbanda/dei/pkg/errors"
	"github.com/panbanda/dei/pkg/models"
	"github.com/panbanda/dei/pkg/parser"
)

// Extractor produces FileMetrics for the files it supports.
type Extractor interface {
	Supports(path string) bool
	Extract(ctx context.Context, path string) (*models.FileMetrics, error)
}

// classExtractor pulls every class out of one parsed file.
type classExtractor func(r *parser.ParseResult) []models.ClassMetrics

// Multi dispatches on file extension to a per-language extractor. It is
// safe for concurrent use: every Extract call parses with its own parser.
type Multi struct {
	languages map[parser.Language]classExtractor
}

// New returns a Multi that handles every built-in language.
func New() *Multi {
	return &Multi{
		languages: map[parser.Language]classExtractor{
			parser.LangJava:       extractJava,
			parser.LangCSharp:     extractCSharp,
			parser.LangPython:     extractPython,
			parser.LangJavaScript: extractJavaScript,
			parser.LangTypeScript: extractJavaScript,
			parser.LangTSX:        extractJavaScript,
			parser.LangRust:       extractRust,
			parser.LangGo:         extractGo,
		},
	}
}

// Supports reports whether path has an extension Multi can analyze.
func (m *Multi) Supports(path string) bool {
	_, ok := m.languages[parser.DetectLanguage(path)]
	return ok
}

// Extract parses path and returns its metrics. Files with syntax errors
// yield a Parse error rather than partial metrics.
func (m *Multi) Extract(ctx context.Context, path string) (*models.FileMetrics, error) {
	fn, ok := m.languages[parser.DetectLanguage(path)]
	if !ok {
		return nil, deierrors.UnsupportedLanguage(filepath.Ext(path))
	}

	p := parser.New()
	defer p.Close()

	res, err := p.ParseFile(ctx, path)
	if err != nil {
		return nil, err
	}
	defer res.Tree.Close()

	return extractParsed(res, fn)
}

// ExtractSource analyzes in-memory source as if it were read from path.
func (m *Multi) ExtractSource(ctx context.Context, path string, src []byte) (*models.FileMetrics, error) {
	lang := parser.DetectLanguage(path)
	fn, ok := m.languages[lang]
	if !ok {
		return nil, deierrors.UnsupportedLanguage(filepath.Ext(path))
	}

	p := parser.New()
	defer p.Close()

	res, err := p.Parse(ctx, src, lang, path)
	if err != nil {
		return nil, err
	}
	defer res.Tree.Close()

	return extractParsed(res, fn)
}

func extractParsed(res *parser.ParseResult, fn classExtractor) (*models.FileMetrics, error) {
	if bad := parser.FirstSyntaxError(res.Root()); bad != nil {
		pos := bad.StartPoint()
		return nil, deierrors.Parse(res.Path, fmt.Sprintf("syntax error at line %d, column %d", pos.Row+1, pos.Column+1))
	}

	classes := fn(res)
	for i := range classes {
		classes[i].FilePath = res.Path
		finishClass(&classes[i])
	}

	return &models.FileMetrics{
		Path:    res.Path,
		Lines:   CountLines(string(res.Source)),
		Classes: classes,
	}, nil
}
