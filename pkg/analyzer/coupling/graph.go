// Package coupling builds a type dependency graph from extracted classes
// and derives coupling, cycle and architecture metrics from it.
package coupling

import (
	"slices"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/multi"
	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/topo"
)

// EdgeKind classifies a dependency.
type EdgeKind int

const (
	Calls EdgeKind = iota
	Inherits
	Uses
	Implements
)

func (k EdgeKind) String() string {
	switch k {
	case Calls:
		return "calls"
	case Inherits:
		return "inherits"
	case Uses:
		return "uses"
	case Implements:
		return "implements"
	default:
		return "unknown"
	}
}

// line is a typed edge in the multigraph.
type line struct {
	from, to graph.Node
	id       int64
	kind     EdgeKind
}

func (l line) From() graph.Node { return l.from }
func (l line) To() graph.Node   { return l.to }
func (l line) ID() int64        { return l.id }

func (l line) ReversedLine() graph.Line {
	return line{from: l.to, to: l.from, id: l.id, kind: l.kind}
}

// Metrics is the coupling of one node.
type Metrics struct {
	Afferent    int     `json:"afferent"`
	Efferent    int     `json:"efferent"`
	Instability float64 `json:"instability"`
}

// Graph is a directed multigraph of type names. Node IDs follow insertion
// order and a name keeps the ID of its first insertion. A Graph is not safe
// for concurrent mutation.
type Graph struct {
	g      *multi.DirectedGraph
	ids    map[string]int64
	names  []string
	lineID int64
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		g:   multi.NewDirectedGraph(),
		ids: make(map[string]int64),
	}
}

// AddNode returns the ID for name, adding it if absent.
func (g *Graph) AddNode(name string) int64 {
	if id, ok := g.ids[name]; ok {
		return id
	}
	id := int64(len(g.names))
	g.g.AddNode(multi.Node(id))
	g.ids[name] = id
	g.names = append(g.names, name)
	return id
}

// AddEdge adds a from -> to edge of the given kind, creating missing nodes.
// Self-edges are ignored.
func (g *Graph) AddEdge(from, to string, kind EdgeKind) {
	if from == to {
		return
	}
	f := g.AddNode(from)
	t := g.AddNode(to)
	g.g.SetLine(line{from: multi.Node(f), to: multi.Node(t), id: g.lineID, kind: kind})
	g.lineID++
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.names) }

// EdgeCount returns the number of edges, counting parallel edges.
func (g *Graph) EdgeCount() int { return int(g.lineID) }

// Names returns every node name in insertion order.
func (g *Graph) Names() []string { return slices.Clone(g.names) }

// Edges returns the kinds of every from -> to edge in insertion order.
func (g *Graph) Edges(from, to string) []EdgeKind {
	f, ok := g.ids[from]
	if !ok {
		return nil
	}
	t, ok := g.ids[to]
	if !ok {
		return nil
	}
	lines := graph.LinesOf(g.g.Lines(f, t))
	sort.Slice(lines, func(i, j int) bool { return lines[i].ID() < lines[j].ID() })
	kinds := make([]EdgeKind, len(lines))
	for i, l := range lines {
		kinds[i] = l.(line).kind
	}
	return kinds
}

// Coupling returns the afferent and efferent edge counts of name.
func (g *Graph) Coupling(name string) (Metrics, bool) {
	id, ok := g.ids[name]
	if !ok {
		return Metrics{}, false
	}

	var m Metrics
	for preds := g.g.To(id); preds.Next(); {
		m.Afferent += g.g.Lines(preds.Node().ID(), id).Len()
	}
	for succs := g.g.From(id); succs.Next(); {
		m.Efferent += g.g.Lines(id, succs.Node().ID()).Len()
	}
	if total := m.Afferent + m.Efferent; total > 0 {
		m.Instability = float64(m.Efferent) / float64(total)
	}
	return m, true
}

// FindCycles returns the strongly connected components with more than one
// member. Members are in insertion order and components are ordered by
// their first member.
func (g *Graph) FindCycles() [][]string {
	if len(g.names) == 0 {
		return nil
	}

	var comps [][]int64
	for _, scc := range topo.TarjanSCC(g.g) {
		if len(scc) < 2 {
			continue
		}
		ids := make([]int64, len(scc))
		for i, n := range scc {
			ids[i] = n.ID()
		}
		slices.Sort(ids)
		comps = append(comps, ids)
	}
	sort.Slice(comps, func(i, j int) bool { return comps[i][0] < comps[j][0] })

	cycles := make([][]string, len(comps))
	for i, ids := range comps {
		cycles[i] = make([]string, len(ids))
		for j, id := range ids {
			cycles[i][j] = g.names[id]
		}
	}
	return cycles
}

// Density is edges / (n(n-1)), or 0 with fewer than two nodes. Parallel
// edges count, so a dense multigraph can exceed 1.
func (g *Graph) Density() float64 {
	n := len(g.names)
	if n <= 1 {
		return 0
	}
	return float64(g.lineID) / float64(n*(n-1))
}

// Centrality ranks nodes by PageRank over their distinct dependencies.
func (g *Graph) Centrality() map[string]float64 {
	if len(g.names) == 0 {
		return nil
	}
	ranks := network.PageRank(g.g, 0.85, 1e-6)
	out := make(map[string]float64, len(ranks))
	for id, r := range ranks {
		out[g.names[id]] = r
	}
	return out
}
