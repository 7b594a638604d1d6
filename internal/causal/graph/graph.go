package graph

import (
	"errors"
	"fmt"
	"strings"

	"gocausal/domain/causal"
)

// Sentinel errors for graph construction and edge operations.
var (
	// ErrNodeOutOfRange is returned when an index does not name a node.
	ErrNodeOutOfRange = errors.New("graph: node index out of range")
	// ErrSelfLoop is returned when both endpoints of an edge are the same node.
	ErrSelfLoop = errors.New("graph: self loop")
	// ErrNoEdge is returned when an operation needs an edge that does not exist.
	ErrNoEdge = errors.New("graph: no edge between nodes")
	// ErrEdgeExists is returned by AddEdge when the pair is already adjacent.
	ErrEdgeExists = errors.New("graph: edge already exists")
)

// Graph is a mixed graph over a fixed node set with circle, arrow and tail marks.
// It is not safe for concurrent mutation; concurrent readers are fine.
type Graph struct {
	names     []string
	marks     [][]causal.Endpoint // marks[a][b] is the mark at b on edge a–b
	conflicts int
	pag       bool
}

// New returns a graph over names with no edges.
func New(names []string) *Graph {
	n := len(names)
	g := &Graph{
		names: append([]string(nil), names...),
		marks: make([][]causal.Endpoint, n),
	}
	for i := range g.marks {
		g.marks[i] = make([]causal.Endpoint, n)
	}
	return g
}

// NewComplete returns a graph over names with a circle–circle edge between every pair.
func NewComplete(names []string) *Graph {
	g := New(names)
	for a := range g.marks {
		for b := range g.marks[a] {
			if a != b {
				g.marks[a][b] = causal.EndpointCircle
			}
		}
	}
	return g
}

func (g *Graph) valid(a, b int) error {
	n := len(g.names)
	if a < 0 || a >= n || b < 0 || b >= n {
		return fmt.Errorf("%w: (%d, %d) with %d nodes", ErrNodeOutOfRange, a, b, n)
	}
	if a == b {
		return fmt.Errorf("%w: %d", ErrSelfLoop, a)
	}
	return nil
}

// NumNodes returns the node count.
func (g *Graph) NumNodes() int { return len(g.names) }

// Name returns the display name of node i.
func (g *Graph) Name(i int) string { return g.names[i] }

// Names returns a copy of all node names in index order.
func (g *Graph) Names() []string { return append([]string(nil), g.names...) }

// AddEdge inserts a circle–circle edge. Used to build graphs by hand; a discovery run
// only ever removes edges.
func (g *Graph) AddEdge(a, b int) error {
	if err := g.valid(a, b); err != nil {
		return err
	}
	if g.marks[a][b] != causal.EndpointNone {
		return fmt.Errorf("%w: %s - %s", ErrEdgeExists, g.names[a], g.names[b])
	}
	g.marks[a][b] = causal.EndpointCircle
	g.marks[b][a] = causal.EndpointCircle
	return nil
}

// RemoveEdge deletes the edge a–b.
func (g *Graph) RemoveEdge(a, b int) error {
	if err := g.valid(a, b); err != nil {
		return err
	}
	if g.marks[a][b] == causal.EndpointNone {
		return fmt.Errorf("%w: %s - %s", ErrNoEdge, g.names[a], g.names[b])
	}
	g.marks[a][b] = causal.EndpointNone
	g.marks[b][a] = causal.EndpointNone
	return nil
}

// IsAdjacent reports whether a and b share an edge. Out-of-range indices are never adjacent.
func (g *Graph) IsAdjacent(a, b int) bool {
	if g.valid(a, b) != nil {
		return false
	}
	return g.marks[a][b] != causal.EndpointNone
}

// Adjacent returns the neighbours of a in ascending order.
func (g *Graph) Adjacent(a int) []int {
	var out []int
	for b, m := range g.marks[a] {
		if m != causal.EndpointNone {
			out = append(out, b)
		}
	}
	return out
}

// Degree returns the number of neighbours of a.
func (g *Graph) Degree(a int) int {
	d := 0
	for _, m := range g.marks[a] {
		if m != causal.EndpointNone {
			d++
		}
	}
	return d
}

// MaxDegree returns the largest degree in the graph, 0 for an empty graph.
func (g *Graph) MaxDegree() int {
	max := 0
	for a := range g.marks {
		if d := g.Degree(a); d > max {
			max = d
		}
	}
	return max
}

// Mark returns the mark at b on the edge a–b, EndpointNone if there is no edge.
func (g *Graph) Mark(a, b int) causal.Endpoint {
	if g.valid(a, b) != nil {
		return causal.EndpointNone
	}
	return g.marks[a][b]
}

// Orient sets the mark at b on the edge a–b to e and reports whether anything changed.
//
// Marks only tighten: a circle may become an arrow or a tail, nothing else moves.
// Setting a mark to its current value is a no-op. Any other attempt, such as turning
// an arrow into a tail, leaves the graph untouched and is counted in Conflicts.
func (g *Graph) Orient(a, b int, e causal.Endpoint) bool {
	if !g.IsAdjacent(a, b) {
		return false
	}
	cur := g.marks[a][b]
	switch {
	case cur == e:
		return false
	case cur == causal.EndpointCircle && (e == causal.EndpointArrow || e == causal.EndpointTail):
		g.marks[a][b] = e
		return true
	default:
		g.conflicts++
		return false
	}
}

// Conflicts returns how many orientations were refused because they would loosen or
// flip an existing mark.
func (g *Graph) Conflicts() int { return g.conflicts }

// ResetMarks turns every mark back into a circle and clears the PAG flag. Used between
// possible-D-SEP pruning and the final orientation.
func (g *Graph) ResetMarks() {
	for a := range g.marks {
		for b, m := range g.marks[a] {
			if m != causal.EndpointNone {
				g.marks[a][b] = causal.EndpointCircle
			}
		}
	}
	g.pag = false
}

// Edge is one edge with both marks. A < B; MarkA is the mark at A.
type Edge struct {
	A, B         int
	MarkA, MarkB causal.Endpoint
}

// Edges lists every edge in ascending (A, B) order.
func (g *Graph) Edges() []Edge {
	var out []Edge
	for a := range g.marks {
		for b := a + 1; b < len(g.marks); b++ {
			if g.marks[a][b] != causal.EndpointNone {
				out = append(out, Edge{A: a, B: b, MarkA: g.marks[b][a], MarkB: g.marks[a][b]})
			}
		}
	}
	return out
}

// NumEdges returns the edge count.
func (g *Graph) NumEdges() int {
	n := 0
	for a := range g.marks {
		for b := a + 1; b < len(g.marks); b++ {
			if g.marks[a][b] != causal.EndpointNone {
				n++
			}
		}
	}
	return n
}

// Clone returns an independent deep copy.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		names:     append([]string(nil), g.names...),
		marks:     make([][]causal.Endpoint, len(g.marks)),
		conflicts: g.conflicts,
		pag:       g.pag,
	}
	for i, row := range g.marks {
		c.marks[i] = append([]causal.Endpoint(nil), row...)
	}
	return c
}

// SetPAG flags the graph as a finished PAG.
func (g *Graph) SetPAG() { g.pag = true }

// IsPAG reports whether the orientation fixpoint completed on this graph.
func (g *Graph) IsPAG() bool { return g.pag }

// String renders the edges one per line, e.g. "X1 o-> X2".
func (g *Graph) String() string {
	var b strings.Builder
	for _, e := range g.Edges() {
		fmt.Fprintf(&b, "%s %c-%c %s\n", g.names[e.A], leftSymbol(e.MarkA), rightSymbol(e.MarkB), g.names[e.B])
	}
	return b.String()
}

func leftSymbol(e causal.Endpoint) byte {
	switch e {
	case causal.EndpointArrow:
		return '<'
	case causal.EndpointCircle:
		return 'o'
	default:
		return '-'
	}
}

func rightSymbol(e causal.Endpoint) byte {
	switch e {
	case causal.EndpointArrow:
		return '>'
	case causal.EndpointCircle:
		return 'o'
	default:
		return '-'
	}
}
