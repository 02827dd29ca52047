package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"hyperit/adapters/edf"
	"hyperit/adapters/estimators"
	"hyperit/adapters/excel"
	"hyperit/adapters/phiid"
	"hyperit/adapters/postgres"
	"hyperit/adapters/render"
	"hyperit/app"
	"hyperit/domain/core"
	"hyperit/domain/result"
	"hyperit/domain/roi"
	"hyperit/domain/signal"
	"hyperit/internal"
	"hyperit/internal/config"
	"hyperit/ports"
)

type options struct {
	input        string
	inputY       string
	measure      string
	estimator    string
	significance bool
	permutations int
	lag          int
	epochSamples int
	workers      int
	seed         int64
	roiX         string
	roiY         string
	heatmapPath  string
	reportPath   string
	archive      bool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "hyperit:", err)
		os.Exit(1)
	}
}

func run() error {
	var o options
	flag.StringVar(&o.input, "input", "", "recording file (.edf, .xlsx, .csv)")
	flag.StringVar(&o.inputY, "input-y", "", "second recording for inter-source analysis (defaults to -input)")
	flag.StringVar(&o.measure, "measure", "mi", "measure to compute: mi, te or atoms")
	flag.StringVar(&o.estimator, "estimator", "gaussian", "estimator token (see server /api/estimators)")
	flag.BoolVar(&o.significance, "significance", false, "run permutation significance testing")
	flag.IntVar(&o.permutations, "permutations", 0, "permutation count override (0 keeps the default)")
	flag.IntVar(&o.lag, "lag", 1, "time lag for the atoms decomposition")
	flag.IntVar(&o.epochSamples, "epoch-samples", 0, "split continuous recordings into epochs of this many samples")
	flag.IntVar(&o.workers, "workers", 0, "concurrent pair workers (0 uses COMPUTE_WORKERS)")
	flag.Int64Var(&o.seed, "seed", 0, "permutation seed (0 uses COMPUTE_SEED)")
	flag.StringVar(&o.roiX, "roi-x", "", "comma-separated channel labels on the source side; groups separated by ';'")
	flag.StringVar(&o.roiY, "roi-y", "", "comma-separated channel labels on the target side")
	flag.StringVar(&o.heatmapPath, "heatmap", "", "write an HTML heatmap to this path")
	flag.StringVar(&o.reportPath, "report", "", "write an HTML run report to this path")
	flag.BoolVar(&o.archive, "archive", false, "store the run in the archive (requires DATABASE_URL)")
	flag.Parse()

	if o.input == "" {
		flag.Usage()
		return fmt.Errorf("missing -input")
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if o.workers == 0 {
		o.workers = cfg.Compute.Workers
	}
	if o.seed == 0 {
		o.seed = cfg.Compute.Seed
	}
	o.heatmapPath = resolveOutput(cfg.Paths.OutputDir, o.heatmapPath)
	o.reportPath = resolveOutput(cfg.Paths.OutputDir, o.reportPath)

	logger := internal.DefaultLogger

	x, labelsX, err := loadRecording(o.input, o.epochSamples)
	if err != nil {
		return err
	}
	y, labelsY := x, labelsX
	if o.inputY != "" && o.inputY != o.input {
		y, labelsY, err = loadRecording(o.inputY, o.epochSamples)
		if err != nil {
			return err
		}
	}

	analysis, err := app.New(x, y, [][]string{labelsX, labelsY},
		app.WithWorkers(o.workers),
		app.WithSeed(o.seed),
		app.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	if err := applyROI(analysis, o.roiX, o.roiY); err != nil {
		return err
	}

	ctx := context.Background()
	runID := core.RunID(core.NewID())
	report := render.Report{
		RunID:     core.ID(runID),
		Measure:   o.measure,
		Estimator: o.estimator,
		XLabels:   unitLabels(analysis.ROI(), labelsX, true),
		YLabels:   unitLabels(analysis.ROI(), labelsY, false),
	}

	var tensor *result.Tensor
	switch strings.ToLower(o.measure) {
	case "mi":
		estCfg, err := buildConfig(estimators.MeasureMI, o)
		if err != nil {
			return err
		}
		report.Estimator = string(estCfg.Type)
		tensor, err = analysis.ComputeMI(ctx, estCfg)
		if err != nil {
			return err
		}
		report.Tensor = tensor
	case "te":
		estCfg, err := buildConfig(estimators.MeasureTE, o)
		if err != nil {
			return err
		}
		report.Estimator = string(estCfg.Type)
		xy, yx, err := analysis.ComputeTE(ctx, estCfg)
		if err != nil {
			return err
		}
		tensor = xy
		report.Tensor = xy
		logReverse(logger, yx)
	case "atoms":
		xy, _, err := analysis.ComputeAtoms(ctx, phiid.NewGaussianMMI(), o.lag)
		if err != nil {
			return err
		}
		report.Estimator = "gaussian-mmi"
		report.Atoms = xy
	default:
		return fmt.Errorf("unknown measure %q (want mi, te or atoms)", o.measure)
	}

	if err := writeArtifacts(report, tensor, o); err != nil {
		return err
	}
	if o.archive && tensor != nil {
		if err := archiveRun(ctx, cfg, runID, report, tensor); err != nil {
			return err
		}
	}

	logger.Info("run %s complete", runID)
	return summarize(os.Stdout, report, tensor)
}

// resolveOutput anchors relative artifact paths at OUTPUT_DIR.
func resolveOutput(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// loadRecording dispatches on the file extension: EDF recordings go through
// the header-aware loader, everything else through the workbook reader.
func loadRecording(path string, epochSamples int) (signal.Signal, []string, error) {
	if strings.EqualFold(filepath.Ext(path), ".edf") {
		if epochSamples > 0 {
			return edf.LoadEpoched(path, epochSamples)
		}
		return edf.Load(path)
	}
	s, labels, err := excel.NewDataReader(path).Read()
	if err != nil {
		return signal.Signal{}, nil, err
	}
	if epochSamples > 0 && !s.Epoched() {
		s, err = s.Split(epochSamples)
		if err != nil {
			return signal.Signal{}, nil, err
		}
	}
	return s, labels, nil
}

// applyROI parses the -roi-x / -roi-y label syntax: commas separate channels,
// semicolons separate groups. Both sides must use the same structure.
func applyROI(a *app.Analysis, roiX, roiY string) error {
	if roiX == "" && roiY == "" {
		return nil
	}
	if roiX == "" || roiY == "" {
		return fmt.Errorf("both -roi-x and -roi-y are required when restricting channels")
	}
	gx, grouped := parseGroups(roiX)
	gy, groupedY := parseGroups(roiY)
	if grouped || groupedY {
		return a.SetGroupedROINames(gx, gy)
	}
	return a.SetPointwiseROINames(gx[0], gy[0])
}

func parseGroups(s string) ([][]string, bool) {
	var groups [][]string
	parts := strings.Split(s, ";")
	for _, part := range parts {
		var labels []string
		for _, l := range strings.Split(part, ",") {
			if l = strings.TrimSpace(l); l != "" {
				labels = append(labels, l)
			}
		}
		if len(labels) > 0 {
			groups = append(groups, labels)
		}
	}
	return groups, len(parts) > 1
}

func buildConfig(measure estimators.Measure, o options) (estimators.Config, error) {
	t, err := estimators.ParseType(measure, o.estimator)
	if err != nil {
		return estimators.Config{}, err
	}
	var cfg estimators.Config
	if measure == estimators.MeasureTE {
		cfg = estimators.TEConfig(t)
	} else {
		cfg = estimators.MIConfig(t)
	}
	cfg.Significance = o.significance
	if o.permutations > 0 {
		cfg.Params.Permutations = o.permutations
	}
	return cfg, nil
}

func unitLabels(r roi.ROI, labels []string, sourceSide bool) []string {
	out := make([]string, r.Units())
	for i := range out {
		unit := r.UnitY(i)
		if sourceSide {
			unit = r.UnitX(i)
		}
		parts := make([]string, len(unit))
		for k, ch := range unit {
			parts[k] = labels[ch]
		}
		out[i] = strings.Join(parts, "+")
	}
	return out
}

func writeArtifacts(report render.Report, tensor *result.Tensor, o options) error {
	if o.heatmapPath != "" {
		if tensor == nil {
			return fmt.Errorf("heatmaps need a tensor measure (mi or te)")
		}
		f, err := os.Create(o.heatmapPath)
		if err != nil {
			return err
		}
		defer f.Close()
		spec := render.HeatmapSpec{
			Title:   fmt.Sprintf("%s (%s)", strings.ToUpper(report.Measure), report.Estimator),
			XLabels: report.XLabels,
			YLabels: report.YLabels,
			Display: render.DisplayEpochMean,
		}
		if err := render.Heatmap(f, tensor, spec); err != nil {
			return err
		}
	}
	if o.reportPath != "" {
		f, err := os.Create(o.reportPath)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := report.HTML(f); err != nil {
			return err
		}
	}
	return nil
}

func archiveRun(ctx context.Context, cfg *config.Config, id core.RunID, report render.Report, tensor *result.Tensor) error {
	if !cfg.Archive.Enabled {
		return fmt.Errorf("archiving requested but DATABASE_URL is not set")
	}
	repo, err := postgres.Connect(cfg.Archive.URL)
	if err != nil {
		return err
	}
	defer repo.Close()
	return repo.StoreRun(ctx, ports.ArchivedRun{
		ID:        id,
		Measure:   report.Measure,
		Estimator: report.Estimator,
		Units:     tensor.Units(),
		Epochs:    tensor.Epochs(),
		Stats:     tensor.Stats(),
		Tensor:    tensor.Raw(),
	})
}

func logReverse(logger *internal.Logger, yx *result.Tensor) {
	if yx.IsZeroFilled() {
		return
	}
	logger.Info("reverse-direction tensor computed (%d units, %d epochs)", yx.Units(), yx.Epochs())
}

// summarize prints the epoch-mean matrix, or atom totals, to the terminal.
func summarize(w io.Writer, report render.Report, tensor *result.Tensor) error {
	if tensor != nil {
		fmt.Fprintf(w, "%s epoch-mean estimates:\n", strings.ToUpper(report.Measure))
		for i, xl := range report.XLabels {
			fmt.Fprintf(w, "  %-12s", xl)
			for j := range report.YLabels {
				fmt.Fprintf(w, " %10.4f", tensor.EpochMean(i, j))
			}
			fmt.Fprintln(w)
		}
		return nil
	}
	if report.Atoms != nil {
		fmt.Fprintln(w, "decomposition totals:")
		for i, xl := range report.XLabels {
			fmt.Fprintf(w, "  %-12s", xl)
			for j := range report.YLabels {
				fmt.Fprintf(w, " %10.4f", report.Atoms.At(i, j).Total())
			}
			fmt.Fprintln(w)
		}
	}
	return nil
}
