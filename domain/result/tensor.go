// Package result holds the output containers of a matrix pass: a 4-dimensional
// tensor of per-pair, per-epoch statistics and a grid of ΦID atom maps.
package result

import "fmt"

// Statistic indices along the tensor's last axis.
const (
	StatEstimate = 0
	StatNullMean = 1
	StatNullStd  = 2
	StatPValue   = 3
)

// StatsWithSignificance is the last-axis length when permutation testing ran;
// StatsEstimateOnly when it was unsupported or disabled.
const (
	StatsWithSignificance = 4
	StatsEstimateOnly     = 1
)

// Tensor is a (source-unit, target-unit, epoch, statistic) array, zero-filled
// at construction. Skipped pairs keep the zero fill.
type Tensor struct {
	units  int
	epochs int
	stats  int
	data   []float64
}

// NewTensor allocates a zero-filled tensor.
func NewTensor(units, epochs, stats int) *Tensor {
	return &Tensor{
		units:  units,
		epochs: epochs,
		stats:  stats,
		data:   make([]float64, units*units*epochs*stats),
	}
}

// Units reports the source/target unit count.
func (t *Tensor) Units() int { return t.units }

// Epochs reports the epoch count.
func (t *Tensor) Epochs() int { return t.epochs }

// Stats reports the statistic-axis length (1 or 4).
func (t *Tensor) Stats() int { return t.stats }

func (t *Tensor) offset(i, j, epoch, stat int) int {
	return ((i*t.units+j)*t.epochs+epoch)*t.stats + stat
}

// At reads one statistic.
func (t *Tensor) At(i, j, epoch, stat int) float64 {
	return t.data[t.offset(i, j, epoch, stat)]
}

// Set writes one statistic.
func (t *Tensor) Set(i, j, epoch, stat int, v float64) {
	t.data[t.offset(i, j, epoch, stat)] = v
}

// SetEpoch writes a full statistics row for one pair and epoch.
func (t *Tensor) SetEpoch(i, j, epoch int, stats []float64) {
	for s := 0; s < t.stats && s < len(stats); s++ {
		t.data[t.offset(i, j, epoch, s)] = stats[s]
	}
}

// CopyPair mirrors every epoch's statistics from (from_i, from_j) to (i, j).
func (t *Tensor) CopyPair(i, j, fromI, fromJ int) {
	for e := 0; e < t.epochs; e++ {
		for s := 0; s < t.stats; s++ {
			t.data[t.offset(i, j, e, s)] = t.data[t.offset(fromI, fromJ, e, s)]
		}
	}
}

// Estimate reads the point estimate for one pair and epoch.
func (t *Tensor) Estimate(i, j, epoch int) float64 {
	return t.At(i, j, epoch, StatEstimate)
}

// EpochMean averages the point estimate across epochs for one pair.
func (t *Tensor) EpochMean(i, j int) float64 {
	sum := 0.0
	for e := 0; e < t.epochs; e++ {
		sum += t.Estimate(i, j, e)
	}
	return sum / float64(t.epochs)
}

// IsZeroFilled reports whether no statistic was ever written.
func (t *Tensor) IsZeroFilled() bool {
	for _, v := range t.data {
		if v != 0 {
			return false
		}
	}
	return true
}

// Raw exposes the flat backing array (row-major over unit, unit, epoch, stat)
// for serialization.
func (t *Tensor) Raw() []float64 { return t.data }

// FromRaw rebuilds a tensor from its flat form.
func FromRaw(units, epochs, stats int, data []float64) (*Tensor, error) {
	if len(data) != units*units*epochs*stats {
		return nil, fmt.Errorf("raw tensor has %d values, expected %d",
			len(data), units*units*epochs*stats)
	}
	out := NewTensor(units, epochs, stats)
	copy(out.data, data)
	return out, nil
}
