// Package report renders a discovery run as a markdown summary and as HTML.
package report

import (
	"fmt"
	"strings"

	"gocausal/domain/causal"
	"gocausal/domain/run"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Markdown summarizes a run: parameters, data warnings, the edge table and the
// separating sets that removed edges.
func Markdown(record *run.Record) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Discovery run %s\n\n", record.ID)
	fmt.Fprintf(&b, "Dataset **%s**: %d observations of %d variables, run %s.\n\n",
		escape(record.Dataset), record.Observations, record.Variables, record.CreatedAt)

	b.WriteString("## Parameters\n\n")
	b.WriteString("| Parameter | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| alpha | %g |\n", record.Params.Alpha)
	fmt.Fprintf(&b, "| depth | %s |\n", record.Params.Depth)
	fmt.Fprintf(&b, "| max path length | %s |\n", record.Params.MaxPathLength)
	fmt.Fprintf(&b, "| workers | %d |\n", record.Params.Workers)
	if k := record.Params.Knowledge; k != nil {
		fmt.Fprintf(&b, "| background knowledge | %d required, %d forbidden, %d tiers |\n",
			len(k.Required), len(k.Forbidden), len(k.Tiers))
	}
	b.WriteString("\n")

	if len(record.Warnings) > 0 {
		b.WriteString("## Data warnings\n\n")
		for _, w := range record.Warnings {
			fmt.Fprintf(&b, "- %s\n", escape(w))
		}
		b.WriteString("\n")
	}

	pag := record.PAG
	if pag == nil {
		return b.String()
	}

	fmt.Fprintf(&b, "## Edges (%d)\n\n", len(pag.Edges))
	if len(pag.Edges) == 0 {
		b.WriteString("No edges survived the adjacency search.\n\n")
	} else {
		b.WriteString("| # | Edge | Type | Direct | Latent |\n|---|---|---|---|---|\n")
		for i, e := range pag.Edges {
			fmt.Fprintf(&b, "| %d | `%s %s %s` | %s | %s | %s |\n",
				i+1, e.From.Name, e.Symbol(), e.To.Name, e.Label, directText(e), latentText(e))
		}
		b.WriteString("\n")
	}

	if len(pag.Separations) > 0 {
		fmt.Fprintf(&b, "## Separations (%d)\n\n", len(pag.Separations))
		b.WriteString("| Pair | Given | p | Phase |\n|---|---|---|---|\n")
		for _, s := range pag.Separations {
			fmt.Fprintf(&b, "| %s, %s | {%s} | %.4g | %s |\n",
				escape(s.X), escape(s.Y), escape(strings.Join(s.Given, ", ")), s.PValue, s.Phase)
		}
		b.WriteString("\n")
	}

	o := pag.Oracle
	b.WriteString("## Independence tests\n\n")
	fmt.Fprintf(&b, "%d queries, %d evaluated, %d answered from cache, %d degenerate.\n\n",
		o.Queries, o.Evaluations, o.CacheHits, o.Degenerate)
	fmt.Fprintf(&b, "Timings: skeleton %d ms, orientation %d ms, total %d ms.\n\n",
		record.Timings.SkeletonMS, record.Timings.OrientationMS, record.Timings.TotalMS)
	fmt.Fprintf(&b, "Fingerprint `%s`\n", record.Fingerprint.Fingerprint)
	return b.String()
}

// HTML renders the markdown summary
func HTML(record *run.Record) []byte {
	return Render(Markdown(record))
}

// Render converts markdown to HTML with tables enabled
func Render(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(md))

	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML})
	return markdown.Render(doc, renderer)
}

func directText(e causal.ProjectedEdge) string {
	if e.DefinitelyDirect {
		return "definite"
	}
	return "possible"
}

func latentText(e causal.ProjectedEdge) string {
	if e.NoLatent {
		return "none"
	}
	return "possible"
}

var markdownEscaper = strings.NewReplacer("|", "\\|", "*", "\\*", "_", "\\_", "`", "\\`")

func escape(s string) string {
	return markdownEscaper.Replace(s)
}
