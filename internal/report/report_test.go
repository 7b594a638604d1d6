package report

import (
	"testing"

	"gocausal/domain/causal"
	"gocausal/domain/core"
	"gocausal/domain/run"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord(t *testing.T) *run.Record {
	t.Helper()
	x := causal.Variable{Index: 0, Name: "X"}
	z := causal.Variable{Index: 1, Name: "Z"}
	y := causal.Variable{Index: 2, Name: "Y"}
	pag := &causal.PAG{
		Nodes: []causal.Variable{x, z, y},
		Edges: []causal.ProjectedEdge{
			{From: x, To: z, MarkFrom: causal.EndpointCircle, MarkTo: causal.EndpointArrow, Label: causal.LabelPartiallyDirected},
			{From: y, To: z, MarkFrom: causal.EndpointCircle, MarkTo: causal.EndpointArrow, Label: causal.LabelPartiallyDirected},
		},
		Separations: []causal.Separation{{X: "X", Y: "Y", Given: []string{}, PValue: 0.62, Phase: causal.PhaseAdjacency}},
		Oracle:      causal.OracleStats{Queries: 7, Evaluations: 5, CacheHits: 2},
	}
	fp, err := run.NewRunFingerprint(core.NewHash([]byte("d")), causal.DefaultParams(), pag)
	require.NoError(t, err)
	return &run.Record{
		ID:           core.NewRunID(),
		Dataset:      "survey_2023.xlsx",
		Observations: 1000,
		Variables:    3,
		Params:       causal.DefaultParams(),
		PAG:          pag,
		Warnings:     []string{"column \"Z\" looks non-Gaussian"},
		Fingerprint:  fp,
	}
}

func TestMarkdown(t *testing.T) {
	record := sampleRecord(t)
	md := Markdown(record)

	assert.Contains(t, md, "# Discovery run "+record.ID.String())
	assert.Contains(t, md, "survey\\_2023.xlsx")
	assert.Contains(t, md, "| alpha | 0.05 |")
	assert.Contains(t, md, "| depth | unlimited |")
	assert.Contains(t, md, "## Data warnings")
	assert.Contains(t, md, "| 1 | `X o-> Z` | partially_directed | possible | possible |")
	assert.Contains(t, md, "| X, Y | {} | 0.62 | adjacency |")
	assert.Contains(t, md, "7 queries, 5 evaluated, 2 answered from cache, 0 degenerate.")
	assert.Contains(t, md, record.Fingerprint.Fingerprint.String())
}

func TestMarkdownWithoutEdges(t *testing.T) {
	record := sampleRecord(t)
	record.PAG.Edges = nil
	record.Warnings = nil

	md := Markdown(record)
	assert.Contains(t, md, "No edges survived")
	assert.NotContains(t, md, "Data warnings")
}

func TestHTML(t *testing.T) {
	out := string(HTML(sampleRecord(t)))

	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<h2 id=\"parameters\">Parameters</h2>")
	assert.Contains(t, out, "<code>X o-&gt; Z</code>")
}
