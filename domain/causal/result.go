package causal

import (
	"fmt"
	"strings"

	"gocausal/domain/core"
)

// EdgeLabel classifies an edge by its pair of marks.
type EdgeLabel string

const (
	LabelDirected            EdgeLabel = "directed"             // -->
	LabelBidirected          EdgeLabel = "bidirected"           // <->
	LabelUndirected          EdgeLabel = "undirected"           // ---
	LabelPartiallyDirected   EdgeLabel = "partially_directed"   // o->
	LabelNondirected         EdgeLabel = "nondirected"          // o-o
	LabelPartiallyUndirected EdgeLabel = "partially_undirected" // o--
)

// LabelFor classifies marks. a is the mark at the first node, b at the second.
func LabelFor(a, b Endpoint) EdgeLabel {
	if a > b {
		a, b = b, a
	}
	switch {
	case a == EndpointCircle && b == EndpointCircle:
		return LabelNondirected
	case a == EndpointCircle && b == EndpointArrow:
		return LabelPartiallyDirected
	case a == EndpointCircle && b == EndpointTail:
		return LabelPartiallyUndirected
	case a == EndpointArrow && b == EndpointArrow:
		return LabelBidirected
	case a == EndpointArrow && b == EndpointTail:
		return LabelDirected
	default:
		return LabelUndirected
	}
}

// ProjectedEdge is one edge of a finished PAG with its classification.
//
// For directed and partially directed edges From is the tail (or circle) side and To
// the arrowhead; otherwise From has the lower variable index. MarkFrom is the mark at
// From, MarkTo the mark at To.
type ProjectedEdge struct {
	From             Variable  `json:"from"`
	To               Variable  `json:"to"`
	MarkFrom         Endpoint  `json:"mark_from"`
	MarkTo           Endpoint  `json:"mark_to"`
	Label            EdgeLabel `json:"label"`
	NoLatent         bool      `json:"no_latent"`
	DefinitelyDirect bool      `json:"definitely_direct"`
}

// Determined reports whether neither mark is a circle
func (e ProjectedEdge) Determined() bool {
	return e.MarkFrom != EndpointCircle && e.MarkTo != EndpointCircle
}

// Touches reports whether the edge has name as an endpoint
func (e ProjectedEdge) Touches(name string) bool {
	return e.From.Name == name || e.To.Name == name
}

// MarkAt returns the mark at the named endpoint, or EndpointNone
func (e ProjectedEdge) MarkAt(name string) Endpoint {
	switch name {
	case e.From.Name:
		return e.MarkFrom
	case e.To.Name:
		return e.MarkTo
	}
	return EndpointNone
}

// Symbol renders the marks as in "o->": the mark at From, a dash, the mark at To.
func (e ProjectedEdge) Symbol() string {
	left := map[Endpoint]string{EndpointArrow: "<", EndpointCircle: "o", EndpointTail: "-"}
	right := map[Endpoint]string{EndpointArrow: ">", EndpointCircle: "o", EndpointTail: "-"}
	return left[e.MarkFrom] + "-" + right[e.MarkTo]
}

// Flags returns "dd" or "pd", then "nl" or "pl".
func (e ProjectedEdge) Flags() string {
	direct, latent := "pd", "pl"
	if e.DefinitelyDirect {
		direct = "dd"
	}
	if e.NoLatent {
		latent = "nl"
	}
	return direct + " " + latent
}

// String renders the edge as "X1 o-> X2 pd pl".
func (e ProjectedEdge) String() string {
	return fmt.Sprintf("%s %s %s %s", e.From.Name, e.Symbol(), e.To.Name, e.Flags())
}

// Separation records why an edge was removed.
type Separation struct {
	X      string   `json:"x"`
	Y      string   `json:"y"`
	Given  []string `json:"given"`
	PValue float64  `json:"p_value"`
	Phase  string   `json:"phase"`
}

// Separation phases
const (
	PhaseAdjacency    = "adjacency"
	PhaseKnowledge    = "knowledge"
	PhasePossibleDSep = "possible_dsep"
)

// OracleStats summarizes the independence oracle's work in one run.
type OracleStats struct {
	Queries      int `json:"queries"`
	Evaluations  int `json:"evaluations"`
	CacheHits    int `json:"cache_hits"`
	Degenerate   int `json:"degenerate"`
	Observations int `json:"observations"`
}

// PAG is the projected output of a discovery run.
type PAG struct {
	Nodes       []Variable      `json:"nodes"`
	Edges       []ProjectedEdge `json:"edges"`
	Separations []Separation    `json:"separations"`
	Oracle      OracleStats     `json:"oracle"`
	Oriented    bool            `json:"oriented"`
}

// EdgesTouching returns the edges incident to name, in order.
// When intoOnly is set only edges with an arrowhead at name are kept.
func (p *PAG) EdgesTouching(name string, intoOnly bool) []ProjectedEdge {
	var out []ProjectedEdge
	for _, e := range p.Edges {
		if !e.Touches(name) {
			continue
		}
		if intoOnly && e.MarkAt(name) != EndpointArrow {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Text renders the edge list one numbered edge per line.
func (p *PAG) Text() string {
	var b strings.Builder
	for i, e := range p.Edges {
		fmt.Fprintf(&b, "%d. %s\n", i+1, e)
	}
	return b.String()
}

// Fingerprint hashes the node names and the text edge list. Identical runs produce
// identical fingerprints.
func (p *PAG) Fingerprint() core.Hash {
	names := make([]string, len(p.Nodes))
	for i, n := range p.Nodes {
		names[i] = n.Name
	}
	return core.NewHash([]byte(strings.Join(names, ";") + "\n" + p.Text()))
}
