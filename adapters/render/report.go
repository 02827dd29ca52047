package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"hyperit/domain/core"
	"hyperit/domain/result"
)

// Report describes one finished run for the markdown report.
type Report struct {
	RunID     core.ID
	Measure   string
	Estimator string
	XLabels   []string
	YLabels   []string
	Tensor    *result.Tensor
	Atoms     *result.AtomGrid
}

// Markdown writes the run report as markdown: a header, the run parameters,
// the epoch-mean estimate table and, when present, per-pair atom totals.
func (r Report) Markdown(w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s run %s\n\n", r.Measure, r.RunID)
	fmt.Fprintf(&b, "- Estimator: %s\n", r.Estimator)
	if r.Tensor != nil {
		fmt.Fprintf(&b, "- Units: %d, Epochs: %d, Statistics: %d\n",
			r.Tensor.Units(), r.Tensor.Epochs(), r.Tensor.Stats())
	}
	b.WriteString("\n## Epoch-mean estimates\n\n")

	if r.Tensor != nil {
		writeMatrixTable(&b, r.XLabels, r.YLabels, func(i, j int) float64 {
			return r.Tensor.EpochMean(i, j)
		})
	}

	if r.Atoms != nil {
		b.WriteString("\n## Decomposition totals\n\n")
		writeMatrixTable(&b, r.XLabels, r.YLabels, func(i, j int) float64 {
			if atoms := r.Atoms.At(i, j); atoms != nil {
				return atoms.Total()
			}
			return 0
		})
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// HTML renders the markdown report to a standalone HTML page.
func (r Report) HTML(w io.Writer) error {
	var md strings.Builder
	if err := r.Markdown(&md); err != nil {
		return err
	}

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	doc := p.Parse([]byte(md.String()))
	renderer := html.NewRenderer(html.RendererOptions{
		Title: fmt.Sprintf("%s run %s", r.Measure, r.RunID),
		Flags: html.CommonFlags | html.CompletePage,
	})

	_, err := w.Write(markdown.Render(doc, renderer))
	return err
}

func writeMatrixTable(b *strings.Builder, xLabels, yLabels []string, cell func(i, j int) float64) {
	b.WriteString("| |")
	for _, label := range yLabels {
		fmt.Fprintf(b, " %s |", label)
	}
	b.WriteString("\n|---|")
	for range yLabels {
		b.WriteString("---|")
	}
	b.WriteString("\n")
	for i, label := range xLabels {
		fmt.Fprintf(b, "| %s |", label)
		for j := range yLabels {
			fmt.Fprintf(b, " %.4f |", cell(i, j))
		}
		b.WriteString("\n")
	}
}
