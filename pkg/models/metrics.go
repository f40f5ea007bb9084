package models

import "github.com/panbanda/dei/pkg/config"

// MethodMetrics describes one routine as extracted from source.
type MethodMetrics struct {
	Name           string   `json:"name"`
	Lines          int      `json:"lines"`
	Complexity     int      `json:"complexity"`
	Parameters     int      `json:"parameters"`
	CalledMethods  []string `json:"called_methods,omitempty"`
	AccessedFields []string `json:"accessed_fields,omitempty"`
	ReturnType     string   `json:"return_type,omitempty"`
	IsPublic       bool     `json:"is_public"`
	IsStatic       bool     `json:"is_static"`
	IsAsync        bool     `json:"is_async"`

	// Tokens are lowercased identifier fragments, used only for clustering.
	Tokens []string `json:"tokens,omitempty"`
}

// IsGodMethod reports whether any method limit is exceeded.
func (m *MethodMetrics) IsGodMethod(t config.Thresholds) bool {
	return m.Lines > t.MaxMethodLines ||
		m.Complexity > t.MaxMethodComplexity ||
		m.Parameters > t.MaxParameters
}

// Violations returns every method limit exceeded, in Lines, Complexity,
// ParameterCount order.
func (m *MethodMetrics) Violations(t config.Thresholds) []Violation {
	var v []Violation
	if m.Lines > t.MaxMethodLines {
		v = append(v, Violation{Kind: ViolationLines, Actual: m.Lines, Threshold: t.MaxMethodLines})
	}
	if m.Complexity > t.MaxMethodComplexity {
		v = append(v, Violation{Kind: ViolationComplexity, Actual: m.Complexity, Threshold: t.MaxMethodComplexity})
	}
	if m.Parameters > t.MaxParameters {
		v = append(v, Violation{Kind: ViolationParameterCount, Actual: m.Parameters, Threshold: t.MaxParameters})
	}
	return v
}

// ViolationScore is the mean of the lines, complexity and parameter ratios
// against their limits. Above 1.0 means the method is oversized on average.
func (m *MethodMetrics) ViolationScore(t config.Thresholds) float64 {
	return (ratio(m.Lines, t.MaxMethodLines) +
		ratio(m.Complexity, t.MaxMethodComplexity) +
		ratio(m.Parameters, t.MaxParameters)) / 3
}

// ratio treats a zero limit as one so the score stays finite.
func ratio(actual, limit int) float64 {
	if limit == 0 {
		return float64(actual)
	}
	return float64(actual) / float64(limit)
}

// ClassMetrics describes one type declaration and its methods.
type ClassMetrics struct {
	Name          string          `json:"name"`
	QualifiedName string          `json:"qualified_name"`
	FilePath      string          `json:"file_path"`
	Lines         int             `json:"lines"`
	MethodCount   int             `json:"method_count"`
	PropertyCount int             `json:"property_count"`
	FieldCount    int             `json:"field_count"`
	Complexity    int             `json:"complexity"`
	Methods       []MethodMetrics `json:"methods,omitempty"`
	Dependencies  []string        `json:"dependencies,omitempty"`
	Inherits      []string        `json:"inherits,omitempty"`
	Implements    []string        `json:"implements,omitempty"`
}

// IsGodClass reports whether lines, method count or complexity exceed the
// class limits.
func (c *ClassMetrics) IsGodClass(t config.Thresholds) bool {
	return c.Lines > t.MaxClassLines ||
		c.MethodCount > t.MaxMethods ||
		c.Complexity > t.MaxClassComplexity
}

// Violations returns every class limit exceeded.
func (c *ClassMetrics) Violations(t config.Thresholds) []Violation {
	var v []Violation
	if c.Lines > t.MaxClassLines {
		v = append(v, Violation{Kind: ViolationLines, Actual: c.Lines, Threshold: t.MaxClassLines})
	}
	if c.MethodCount > t.MaxMethods {
		v = append(v, Violation{Kind: ViolationMethodCount, Actual: c.MethodCount, Threshold: t.MaxMethods})
	}
	if c.Complexity > t.MaxClassComplexity {
		v = append(v, Violation{Kind: ViolationComplexity, Actual: c.Complexity, Threshold: t.MaxClassComplexity})
	}
	return v
}

// GodMethods returns the methods exceeding any method limit, in declaration order.
func (c *ClassMetrics) GodMethods(t config.Thresholds) []*MethodMetrics {
	var out []*MethodMetrics
	for i := range c.Methods {
		if c.Methods[i].IsGodMethod(t) {
			out = append(out, &c.Methods[i])
		}
	}
	return out
}

// FileMetrics is the extraction result for one source file.
type FileMetrics struct {
	Path    string         `json:"path"`
	Lines   int            `json:"lines"`
	Classes []ClassMetrics `json:"classes,omitempty"`
}

// IsGodFile reports whether the file holds too many classes or lines.
func (f *FileMetrics) IsGodFile(t config.Thresholds) bool {
	return len(f.Classes) > t.MaxClassesPerFile || f.Lines > t.MaxFileLines
}

// Violations returns every file limit exceeded.
func (f *FileMetrics) Violations(t config.Thresholds) []Violation {
	var v []Violation
	if len(f.Classes) > t.MaxClassesPerFile {
		v = append(v, Violation{Kind: ViolationClassesPerFile, Actual: len(f.Classes), Threshold: t.MaxClassesPerFile})
	}
	if f.Lines > t.MaxFileLines {
		v = append(v, Violation{Kind: ViolationLines, Actual: f.Lines, Threshold: t.MaxFileLines})
	}
	return v
}
