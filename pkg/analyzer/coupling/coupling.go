package coupling

import (
	"sort"
	"strings"
	"unicode"

	"github.com/panbanda/dei/pkg/models"
)

// ClassCoupling is the coupling of one graph node.
type ClassCoupling struct {
	Name string `json:"name"`
	Metrics
}

// ArchitectureMetrics summarizes the whole graph.
type ArchitectureMetrics struct {
	Nodes                int     `json:"nodes"`
	Edges                int     `json:"edges"`
	Density              float64 `json:"density"`
	Cycles               int     `json:"cycles"`
	CyclomaticQuality    float64 `json:"cyclomatic_quality"`
	MaintainabilityIndex float64 `json:"maintainability_index"`
}

// Rating buckets the maintainability index.
func (a ArchitectureMetrics) Rating() string {
	switch {
	case a.MaintainabilityIndex > 0.8:
		return "Excellent"
	case a.MaintainabilityIndex > 0.6:
		return "Good"
	case a.MaintainabilityIndex > 0.4:
		return "Fair"
	default:
		return "Poor"
	}
}

// Build adds every class as a node, then its edges: dependencies as Uses,
// inherits and implements lists, and calls whose name looks like another
// type (qualified, or starting with an upper-case letter). A class that
// depends on itself gets no edge, so self-references never count toward
// coupling, density or cycles.
func Build(classes []models.ClassMetrics) *Graph {
	g := NewGraph()
	for _, c := range classes {
		g.AddNode(c.Name)
	}

	for _, c := range classes {
		for _, dep := range c.Dependencies {
			g.AddEdge(c.Name, dep, Uses)
		}
		for _, base := range c.Inherits {
			g.AddEdge(c.Name, base, Inherits)
		}
		for _, iface := range c.Implements {
			g.AddEdge(c.Name, iface, Implements)
		}
		for _, m := range c.Methods {
			for _, called := range m.CalledMethods {
				if looksExternal(called) {
					g.AddEdge(c.Name, called, Calls)
				}
			}
		}
	}
	return g
}

func looksExternal(called string) bool {
	if strings.Contains(called, ".") {
		return true
	}
	for _, r := range called {
		return unicode.IsUpper(r)
	}
	return false
}

// Quality computes the architecture metrics of g.
func Quality(g *Graph) ArchitectureMetrics {
	cycles := len(g.FindCycles())
	quality := 1.0
	if cycles > 0 {
		quality = 1 / (1 + float64(cycles))
	}
	density := g.Density()
	return ArchitectureMetrics{
		Nodes:                g.NodeCount(),
		Edges:                g.EdgeCount(),
		Density:              density,
		Cycles:               cycles,
		CyclomaticQuality:    quality,
		MaintainabilityIndex: (1 - density) * quality,
	}
}

// Report returns the coupling of every node, sorted by name.
func Report(g *Graph) []ClassCoupling {
	names := g.Names()
	sort.Strings(names)
	out := make([]ClassCoupling, 0, len(names))
	for _, name := range names {
		m, _ := g.Coupling(name)
		out = append(out, ClassCoupling{Name: name, Metrics: m})
	}
	return out
}

// Ranked pairs a node with its centrality.
type Ranked struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Central returns the n most central nodes, highest first, ties by name.
func Central(g *Graph, n int) []Ranked {
	ranks := g.Centrality()
	out := make([]Ranked, 0, len(ranks))
	for name, score := range ranks {
		out = append(out, Ranked{Name: name, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Name < out[j].Name
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
