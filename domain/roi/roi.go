// Package roi describes which channels participate in an analysis and at what
// scale of organisation: pointwise (each unit is one channel) or grouped (each
// unit is a fixed-size set of channels). The two forms are separate
// constructors rather than inferred from nesting depth, so a malformed
// selection fails loudly at the API boundary.
package roi

import (
	"fmt"

	"hyperit/domain/core"
	"hyperit/domain/signal"
)

// ROI pairs per-source unit index structures with their shared scale.
type ROI struct {
	scale  int
	unitsX [][]int
	unitsY [][]int
}

// Pointwise builds a scale-1 ROI: unit i compares channel x[i] against y[j].
// Both sides must select the same number of channels.
func Pointwise(x, y []int) (ROI, error) {
	if len(x) == 0 || len(y) == 0 {
		return ROI{}, core.NewROIStructureError("empty channel selection")
	}
	if len(x) != len(y) {
		return ROI{}, core.NewCardinalityError(
			fmt.Sprintf("source selects %d channels, target %d", len(x), len(y)))
	}
	return ROI{scale: 1, unitsX: wrap(x), unitsY: wrap(y)}, nil
}

// Grouped builds a scale-n ROI from per-source channel groups. The group count
// must match between sources and every group (across both sources) must hold
// the same number of channels.
func Grouped(x, y [][]int) (ROI, error) {
	if len(x) == 0 || len(y) == 0 {
		return ROI{}, core.NewROIStructureError("empty group selection")
	}
	if len(x) != len(y) {
		return ROI{}, core.NewCardinalityError(
			fmt.Sprintf("source has %d groups, target %d", len(x), len(y)))
	}
	scale := len(x[0])
	if scale == 0 {
		return ROI{}, core.NewROIStructureError("empty channel group")
	}
	for _, half := range [][][]int{x, y} {
		for gi, group := range half {
			if len(group) != scale {
				return ROI{}, core.NewCardinalityError(
					fmt.Sprintf("group %d has %d channels, expected %d", gi, len(group), scale))
			}
		}
	}
	if scale == 1 {
		// Degenerate grouping is just a pointwise selection.
		return Pointwise(flatten(x), flatten(y))
	}
	return ROI{scale: scale, unitsX: deepCopy(x), unitsY: deepCopy(y)}, nil
}

// PointwiseNames resolves channel labels against per-source ChannelSets before
// building a pointwise ROI.
func PointwiseNames(x, y []string, csX, csY signal.ChannelSet) (ROI, error) {
	xi, err := csX.Indices(x)
	if err != nil {
		return ROI{}, err
	}
	yi, err := csY.Indices(y)
	if err != nil {
		return ROI{}, err
	}
	return Pointwise(xi, yi)
}

// GroupedNames resolves grouped channel labels before building a grouped ROI.
func GroupedNames(x, y [][]string, csX, csY signal.ChannelSet) (ROI, error) {
	xi, err := resolveGroups(x, csX)
	if err != nil {
		return ROI{}, err
	}
	yi, err := resolveGroups(y, csY)
	if err != nil {
		return ROI{}, err
	}
	return Grouped(xi, yi)
}

// Full builds the default ROI: pointwise over all n channels of both sources.
func Full(n int) ROI {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	r, _ := Pointwise(idx, idx)
	return r
}

// Scale reports the channels-per-unit granularity (1 for pointwise).
func (r ROI) Scale() int { return r.scale }

// IsPointwise reports whether each unit is a single channel.
func (r ROI) IsPointwise() bool { return r.scale == 1 }

// Units reports how many source/target units the matrix loops range over.
func (r ROI) Units() int { return len(r.unitsX) }

// UnitX returns source unit i's channel indices.
func (r ROI) UnitX(i int) []int { return r.unitsX[i] }

// UnitY returns target unit j's channel indices.
func (r ROI) UnitY(j int) []int { return r.unitsY[j] }

// ChannelsX returns the flat source channel selection (pointwise only).
func (r ROI) ChannelsX() []int { return flatten(r.unitsX) }

// ChannelsY returns the flat target channel selection (pointwise only).
func (r ROI) ChannelsY() []int { return flatten(r.unitsY) }

// IsZero reports an unset ROI.
func (r ROI) IsZero() bool { return r.scale == 0 }

func wrap(idx []int) [][]int {
	out := make([][]int, len(idx))
	for i, v := range idx {
		out[i] = []int{v}
	}
	return out
}

func flatten(groups [][]int) []int {
	out := make([]int, 0, len(groups))
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func deepCopy(groups [][]int) [][]int {
	out := make([][]int, len(groups))
	for i, g := range groups {
		out[i] = make([]int, len(g))
		copy(out[i], g)
	}
	return out
}

func resolveGroups(groups [][]string, cs signal.ChannelSet) ([][]int, error) {
	out := make([][]int, len(groups))
	for i, g := range groups {
		gi, err := cs.Indices(g)
		if err != nil {
			return nil, err
		}
		out[i] = gi
	}
	return out, nil
}
