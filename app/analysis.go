// Package app wires the domain containers, the estimator registry and the
// decomposers into the pairwise analysis services.
package app

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"hyperit/adapters/estimators"
	"hyperit/domain/core"
	"hyperit/domain/result"
	"hyperit/domain/roi"
	"hyperit/domain/signal"
	"hyperit/internal"
	"hyperit/ports"
)

// Analysis runs pairwise information measures between two validated signals
// over the active region of interest. The zero ROI covers every channel
// pointwise; setters replace it atomically and a failed replacement keeps the
// previous selection.
type Analysis struct {
	pair     signal.Pair
	roi      roi.ROI
	logger   *internal.Logger
	seed     int64
	workers  int
	progress ports.Progress
}

// Option configures an Analysis at construction.
type Option func(*Analysis)

// WithProgress installs a per-pair completion callback.
func WithProgress(p ports.Progress) Option {
	return func(a *Analysis) { a.progress = p }
}

// WithWorkers bounds how many unit pairs compute concurrently. Values below
// two keep the sequential default.
func WithWorkers(n int) Option {
	return func(a *Analysis) { a.workers = n }
}

// WithSeed fixes the permutation-test random seed. Pair results are
// deterministic for a given seed regardless of worker count.
func WithSeed(seed int64) Option {
	return func(a *Analysis) { a.seed = seed }
}

// WithLogger overrides the default logger.
func WithLogger(l *internal.Logger) Option {
	return func(a *Analysis) { a.logger = l }
}

// New validates the two signals as a pair and starts with the full pointwise
// ROI over every channel.
func New(x, y signal.Signal, channelNames [][]string, opts ...Option) (*Analysis, error) {
	pair, err := signal.NewPair(x, y, channelNames)
	if err != nil {
		return nil, err
	}
	a := &Analysis{
		pair:   pair,
		roi:    roi.Full(x.Channels()),
		logger: internal.DefaultLogger,
		seed:   1,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Pair exposes the validated signal pair.
func (a *Analysis) Pair() signal.Pair { return a.pair }

// ROI exposes the active region of interest.
func (a *Analysis) ROI() roi.ROI { return a.roi }

// SetPointwiseROI restricts the analysis to per-channel units by index.
func (a *Analysis) SetPointwiseROI(x, y []int) error {
	r, err := roi.Pointwise(x, y)
	if err != nil {
		return err
	}
	return a.install(r)
}

// SetPointwiseROINames restricts the analysis to per-channel units by label.
func (a *Analysis) SetPointwiseROINames(x, y []string) error {
	r, err := roi.PointwiseNames(x, y, a.pair.NamesX, a.pair.NamesY)
	if err != nil {
		return err
	}
	return a.install(r)
}

// SetGroupedROI restricts the analysis to multichannel units by index.
func (a *Analysis) SetGroupedROI(x, y [][]int) error {
	r, err := roi.Grouped(x, y)
	if err != nil {
		return err
	}
	return a.install(r)
}

// SetGroupedROINames restricts the analysis to multichannel units by label.
func (a *Analysis) SetGroupedROINames(x, y [][]string) error {
	r, err := roi.GroupedNames(x, y, a.pair.NamesX, a.pair.NamesY)
	if err != nil {
		return err
	}
	return a.install(r)
}

// ResetROI restores the full pointwise selection.
func (a *Analysis) ResetROI() {
	a.roi = roi.Full(a.pair.X.Channels())
}

func (a *Analysis) install(r roi.ROI) error {
	channels := a.pair.X.Channels()
	for u := 0; u < r.Units(); u++ {
		for _, side := range [][]int{r.UnitX(u), r.UnitY(u)} {
			for _, c := range side {
				if c < 0 || c >= channels {
					return core.NewValidationError("roi",
						fmt.Sprintf("channel index %d out of range [0,%d)", c, channels))
				}
			}
		}
	}
	a.roi = r
	return nil
}

// ComputeMI fills a (units, units, epochs, stats) tensor of mutual information
// estimates. Intra-source analysis skips the diagonal and mirrors the upper
// triangle, since MI is symmetric in its arguments.
func (a *Analysis) ComputeMI(ctx context.Context, cfg estimators.Config) (*result.Tensor, error) {
	desc, err := estimators.Lookup(estimators.MeasureMI, cfg.Type)
	if err != nil {
		return nil, err
	}
	a.warnClampedSignificance(cfg, desc)

	jobs := a.miJobs()
	tensor := result.NewTensor(a.roi.Units(), a.pair.X.Epochs(), statsDim(cfg, desc))

	if desc.IsStrategy() {
		err = a.runStrategy(ctx, desc, cfg, jobs, tensor, false)
	} else {
		err = a.runCalculators(ctx, desc, cfg, jobs, tensor, false, len(jobs))
	}
	if err != nil {
		return nil, err
	}

	if a.pair.Intra {
		for _, job := range jobs {
			tensor.CopyPair(job[1], job[0], job[0], job[1])
		}
	}
	return tensor, nil
}

// ComputeTE fills two tensors of transfer entropy estimates: source-to-target
// and target-to-source. For intra-source analysis the reverse direction is
// already present as the transposed cell of the first tensor, so the second
// stays zero-filled.
func (a *Analysis) ComputeTE(ctx context.Context, cfg estimators.Config) (xy, yx *result.Tensor, err error) {
	desc, err := estimators.Lookup(estimators.MeasureTE, cfg.Type)
	if err != nil {
		return nil, nil, err
	}
	a.warnClampedSignificance(cfg, desc)

	jobs := a.directedJobs()
	units, epochs, stats := a.roi.Units(), a.pair.X.Epochs(), statsDim(cfg, desc)
	xy = result.NewTensor(units, epochs, stats)
	yx = result.NewTensor(units, epochs, stats)

	total := len(jobs)
	if !a.pair.Intra {
		total *= 2
	}
	if err := a.runCalculators(ctx, desc, cfg, jobs, xy, false, total); err != nil {
		return nil, nil, err
	}
	if !a.pair.Intra {
		if err := a.runCalculators(ctx, desc, cfg, jobs, yx, true, total); err != nil {
			return nil, nil, err
		}
	}
	return xy, yx, nil
}

// ComputeAtoms decomposes the time-lagged mutual information of every unit
// pair into sixteen atoms in each direction. Epochs are concatenated along the
// sample axis before decomposition.
func (a *Analysis) ComputeAtoms(ctx context.Context, dec ports.Decomposer, lag int) (xy, yx *result.AtomGrid, err error) {
	jobs := a.directedJobs()
	units := a.roi.Units()
	xy = result.NewAtomGrid(units)
	yx = result.NewAtomGrid(units)

	var done int64
	total := len(jobs)

	g := a.group(ctx)
	for _, job := range jobs {
		i, j := job[0], job[1]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			srcBlock := flatBlock(a.pair.X, a.roi.UnitX(i))
			dstBlock := flatBlock(a.pair.Y, a.roi.UnitY(j))

			forward, err := dec.Decompose(srcBlock, dstBlock, lag)
			if err != nil {
				return fmt.Errorf("atoms for pair (%d,%d): %w", i, j, err)
			}
			reverse, err := dec.Decompose(dstBlock, srcBlock, lag)
			if err != nil {
				return fmt.Errorf("atoms for pair (%d,%d) reversed: %w", i, j, err)
			}

			xy.Set(i, j, averageAtoms(forward))
			yx.Set(i, j, averageAtoms(reverse))
			a.tick(&done, total)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return xy, yx, nil
}

// miJobs enumerates the unit pairs one symmetric pass visits: the upper
// triangle for intra-source data, the full grid otherwise.
func (a *Analysis) miJobs() [][2]int {
	units := a.roi.Units()
	jobs := make([][2]int, 0, units*units)
	for i := 0; i < units; i++ {
		for j := 0; j < units; j++ {
			if a.pair.Intra && j <= i {
				continue
			}
			jobs = append(jobs, [2]int{i, j})
		}
	}
	return jobs
}

// directedJobs enumerates unit pairs for asymmetric measures: every cell
// except the intra-source diagonal.
func (a *Analysis) directedJobs() [][2]int {
	units := a.roi.Units()
	jobs := make([][2]int, 0, units*units)
	for i := 0; i < units; i++ {
		for j := 0; j < units; j++ {
			if a.pair.Intra && i == j {
				continue
			}
			jobs = append(jobs, [2]int{i, j})
		}
	}
	return jobs
}

// runStrategy executes an in-process entropy decomposition per pair and epoch.
// Strategies are univariate, so grouped ROIs are rejected.
func (a *Analysis) runStrategy(ctx context.Context, desc estimators.Descriptor, cfg estimators.Config, jobs [][2]int, tensor *result.Tensor, swap bool) error {
	if !a.roi.IsPointwise() {
		return core.NewValidationError("roi",
			fmt.Sprintf("%s supports single-channel units only", desc.DisplayName))
	}

	var done int64
	g := a.group(ctx)
	for _, job := range jobs {
		i, j := job[0], job[1]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			srcCh, dstCh := a.roi.UnitX(i)[0], a.roi.UnitY(j)[0]
			for e := 0; e < a.pair.X.Epochs(); e++ {
				src, dst := a.pair.X.Channel(e, srcCh), a.pair.Y.Channel(e, dstCh)
				if swap {
					src, dst = dst, src
				}
				v, err := desc.Strategy(src, dst, cfg.Params)
				if err != nil {
					return fmt.Errorf("pair (%d,%d) epoch %d: %w", i, j, e, err)
				}
				tensor.Set(i, j, e, result.StatEstimate, v)
			}
			a.tick(&done, len(jobs))
			return nil
		})
	}
	return g.Wait()
}

// runCalculators executes the delegated pipeline per pair: one calculator per
// job, initialised to the ROI scale, fed samples-major blocks epoch by epoch.
// Estimates come back in nats and are scaled by ln 2.
func (a *Analysis) runCalculators(ctx context.Context, desc estimators.Descriptor, cfg estimators.Config, jobs [][2]int, tensor *result.Tensor, swap bool, total int) error {
	significant := cfg.EffectiveSignificance(desc)
	scale := a.roi.Scale()

	var done int64
	g := a.group(ctx)
	for idx, job := range jobs {
		i, j, seq := job[0], job[1], idx
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			calc := desc.New(cfg.Params)
			rng := rand.New(rand.NewSource(a.seed + int64(seq) + boolOffset(swap)*int64(len(jobs))))

			for e := 0; e < a.pair.X.Epochs(); e++ {
				src := unitBlock(a.pair.X, a.roi.UnitX(i), e)
				dst := unitBlock(a.pair.Y, a.roi.UnitY(j), e)
				if swap {
					src, dst = dst, src
				}

				if err := calc.Initialise(scale, scale); err != nil {
					return err
				}
				if err := calc.SetObservations(src, dst); err != nil {
					return err
				}
				est, err := calc.ComputeAverageLocal()
				if err != nil {
					return fmt.Errorf("pair (%d,%d) epoch %d: %w", i, j, e, err)
				}

				row := []float64{est * math.Ln2}
				if significant {
					sig, err := calc.ComputeSignificance(cfg.Params.Permutations, rng)
					if err != nil {
						return fmt.Errorf("pair (%d,%d) epoch %d significance: %w", i, j, e, err)
					}
					row = []float64{
						est * math.Ln2,
						sig.NullMean * math.Ln2,
						sig.NullStd * math.Ln2,
						sig.PValue,
					}
				}
				tensor.SetEpoch(i, j, e, row)
			}
			a.tick(&done, total)
			return nil
		})
	}
	return g.Wait()
}

func (a *Analysis) group(ctx context.Context) *errgroup.Group {
	g, _ := errgroup.WithContext(ctx)
	limit := a.workers
	if limit < 2 {
		limit = 1
	}
	g.SetLimit(limit)
	return g
}

func (a *Analysis) tick(done *int64, total int) {
	n := atomic.AddInt64(done, 1)
	if a.progress != nil {
		a.progress(int(n), total)
	}
}

func (a *Analysis) warnClampedSignificance(cfg estimators.Config, desc estimators.Descriptor) {
	if cfg.Significance && !desc.SupportsSignificance {
		a.logger.Warn("%s does not support permutation testing, returning estimates only",
			desc.DisplayName)
	}
}

func statsDim(cfg estimators.Config, desc estimators.Descriptor) int {
	if cfg.EffectiveSignificance(desc) {
		return result.StatsWithSignificance
	}
	return result.StatsEstimateOnly
}

// unitBlock transposes one unit's channels for one epoch into a samples-major
// block of width scale.
func unitBlock(s signal.Signal, unit []int, epoch int) [][]float64 {
	samples := s.Samples()
	block := make([][]float64, samples)
	for t := 0; t < samples; t++ {
		row := make([]float64, len(unit))
		for c, ch := range unit {
			row[c] = s.Channel(epoch, ch)[t]
		}
		block[t] = row
	}
	return block
}

// flatBlock concatenates every epoch of one unit along the sample axis.
func flatBlock(s signal.Signal, unit []int) [][]float64 {
	samples := s.Samples()
	block := make([][]float64, 0, s.Epochs()*samples)
	for e := 0; e < s.Epochs(); e++ {
		for t := 0; t < samples; t++ {
			row := make([]float64, len(unit))
			for c, ch := range unit {
				row[c] = s.Channel(e, ch)[t]
			}
			block = append(block, row)
		}
	}
	return block
}

func averageAtoms(locals map[string][]float64) result.Atoms {
	atoms := make(result.Atoms, len(locals))
	for name, local := range locals {
		sum := 0.0
		for _, v := range local {
			sum += v
		}
		atoms[name] = sum / float64(len(local))
	}
	return atoms
}

func boolOffset(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
