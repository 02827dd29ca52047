// Package render turns finished result tensors into non-interactive artifacts:
// heatmap HTML pages and markdown run reports rendered to HTML. All choices
// are made programmatically through the Display value, never via prompts.
package render

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"hyperit/domain/core"
	"hyperit/domain/result"
)

// Display selects which slice of the epoch axis a heatmap shows.
type Display int

const (
	// DisplayEpochMean averages the point estimate across epochs.
	DisplayEpochMean Display = iota
	// DisplaySingleEpoch shows one epoch, selected by HeatmapSpec.Epoch.
	DisplaySingleEpoch
)

// HeatmapSpec describes one heatmap page.
type HeatmapSpec struct {
	Title   string
	XLabels []string
	YLabels []string
	Display Display
	Epoch   int
}

var viridis = []string{
	"#440154", "#482777", "#3e4989", "#31688e", "#26828e",
	"#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725",
}

// Heatmap renders a units-by-units heatmap of a tensor's point estimates as a
// self-contained HTML page.
func Heatmap(w io.Writer, tensor *result.Tensor, spec HeatmapSpec) error {
	units := tensor.Units()
	if len(spec.XLabels) != units || len(spec.YLabels) != units {
		return core.NewValidationError("labels",
			fmt.Sprintf("expected %d labels per axis, got %d and %d",
				units, len(spec.XLabels), len(spec.YLabels)))
	}
	if spec.Display == DisplaySingleEpoch && (spec.Epoch < 0 || spec.Epoch >= tensor.Epochs()) {
		return core.NewValidationError("epoch",
			fmt.Sprintf("%d out of range [0,%d)", spec.Epoch, tensor.Epochs()))
	}

	data := make([]opts.HeatMapData, 0, units*units)
	min, max := 0.0, 0.0
	for i := 0; i < units; i++ {
		for j := 0; j < units; j++ {
			v := tensor.EpochMean(i, j)
			if spec.Display == DisplaySingleEpoch {
				v = tensor.Estimate(i, j, spec.Epoch)
			}
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
			// ECharts heatmaps grow upward, matrix rows grow downward.
			data = append(data, opts.HeatMapData{Value: [3]interface{}{j, units - 1 - i, v}})
		}
	}
	if max == min {
		max = min + 1
	}

	yLabels := make([]string, units)
	for i, label := range spec.YLabels {
		yLabels[units-1-i] = label
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: spec.Title,
			Width:     "720px",
			Height:    "640px",
		}),
		charts.WithTitleOpts(opts.Title{Title: spec.Title, Subtitle: subtitle(tensor, spec)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: spec.XLabels}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: yLabels}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(min),
			Max:        float32(max),
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	hm.AddSeries("estimates", data)

	if err := hm.Render(w); err != nil {
		return fmt.Errorf("rendering heatmap: %w", err)
	}
	return nil
}

func subtitle(tensor *result.Tensor, spec HeatmapSpec) string {
	if spec.Display == DisplaySingleEpoch {
		return fmt.Sprintf("epoch %d of %d", spec.Epoch+1, tensor.Epochs())
	}
	return fmt.Sprintf("mean over %d epochs", tensor.Epochs())
}
