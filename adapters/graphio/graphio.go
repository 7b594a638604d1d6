// Package graphio writes a discovered PAG in interchange formats: a numbered text edge
// list, GML, Graphviz DOT and JSON.
package graphio

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gocausal/domain/causal"
)

// OutputFormat specifies the serialization format.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatGML  OutputFormat = "gml"
	FormatDOT  OutputFormat = "dot"
	FormatJSON OutputFormat = "json"
)

// Formats lists every supported format
var Formats = []OutputFormat{FormatText, FormatGML, FormatDOT, FormatJSON}

// ParseFormat accepts a format name in any case. Empty means text.
func ParseFormat(s string) (OutputFormat, error) {
	f := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return FormatText, nil
	}
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported format: %s", s)
}

// ContentType is the HTTP media type of a format
func (f OutputFormat) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatDOT:
		return "text/vnd.graphviz"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Extension is the conventional file extension, dot included
func (f OutputFormat) Extension() string {
	if f == FormatText {
		return ".txt"
	}
	return "." + string(f)
}

// Write serializes nodes and edges in format. Edges may be a filtered subset of a PAG;
// nodes are written as given.
func Write(w io.Writer, format OutputFormat, nodes []causal.Variable, edges []causal.ProjectedEdge) error {
	switch format {
	case FormatText:
		pag := causal.PAG{Nodes: nodes, Edges: edges}
		_, err := io.WriteString(w, pag.Text())
		return err
	case FormatGML:
		_, err := io.WriteString(w, generateGML(nodes, edges))
		return err
	case FormatDOT:
		_, err := io.WriteString(w, generateDOT(nodes, edges))
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Nodes []causal.Variable      `json:"nodes"`
			Edges []causal.ProjectedEdge `json:"edges"`
		}{nodes, edges})
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// WritePAG serializes a whole PAG
func WritePAG(w io.Writer, format OutputFormat, pag *causal.PAG) error {
	return Write(w, format, pag.Nodes, pag.Edges)
}

// generateGML writes a directed GML graph. Every edge runs From -> To with its marks
// and flags as attributes, so circle and tail marks survive the round trip.
func generateGML(nodes []causal.Variable, edges []causal.ProjectedEdge) string {
	var sb strings.Builder

	sb.WriteString("graph [\n  directed 1\n")
	for _, n := range nodes {
		fmt.Fprintf(&sb, "  node [\n    id %d\n    label \"%s\"\n  ]\n", n.Index, escapeGML(n.Name))
	}
	for _, e := range edges {
		fmt.Fprintf(&sb, "  edge [\n    source %d\n    target %d\n", e.From.Index, e.To.Index)
		fmt.Fprintf(&sb, "    source_mark \"%s\"\n    target_mark \"%s\"\n", e.MarkFrom, e.MarkTo)
		fmt.Fprintf(&sb, "    type \"%s\"\n", e.Label)
		fmt.Fprintf(&sb, "    definitely_direct %d\n    no_latent %d\n  ]\n", boolInt(e.DefinitelyDirect), boolInt(e.NoLatent))
	}
	sb.WriteString("]\n")
	return sb.String()
}

// generateDOT creates a Graphviz digraph drawing both marks of every edge.
func generateDOT(nodes []causal.Variable, edges []causal.ProjectedEdge) string {
	var sb strings.Builder

	sb.WriteString("digraph PAG {\n")
	sb.WriteString("    rankdir=LR;\n")
	sb.WriteString("    node [shape=ellipse];\n")
	sb.WriteString("\n")

	for _, n := range nodes {
		fmt.Fprintf(&sb, "    %s [label=\"%s\"];\n", sanitizeDOTID(n.Name), escapeDOTLabel(n.Name))
	}
	sb.WriteString("\n")

	for _, e := range edges {
		style := "solid"
		if !e.DefinitelyDirect {
			style = "dashed"
		}
		fmt.Fprintf(&sb, "    %s -> %s [dir=both, arrowtail=%s, arrowhead=%s, style=%s];\n",
			sanitizeDOTID(e.From.Name), sanitizeDOTID(e.To.Name),
			dotArrow(e.MarkFrom), dotArrow(e.MarkTo), style)
	}

	sb.WriteString("}\n")
	return sb.String()
}

func dotArrow(m causal.Endpoint) string {
	switch m {
	case causal.EndpointArrow:
		return "normal"
	case causal.EndpointCircle:
		return "odot"
	default:
		return "none"
	}
}

func sanitizeDOTID(s string) string {
	return fmt.Sprintf("\"%s\"", strings.ReplaceAll(s, "\"", "\\\""))
}

func escapeDOTLabel(s string) string {
	replacer := strings.NewReplacer(
		"\"", "\\\"",
		"\n", "\\n",
	)
	return replacer.Replace(s)
}

func escapeGML(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"\"", "&quot;",
	)
	return replacer.Replace(s)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
