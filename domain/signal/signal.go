// Package signal holds the time-series containers shared by every analysis:
// a Signal is an (epochs, channels, samples) block of real-valued samples,
// a ChannelSet maps channel labels to indices.
package signal

import (
	"fmt"
	"math"

	"hyperit/domain/core"
)

// Signal is an immutable multichannel time series. Unepoched input is stored
// as a single epoch so downstream loops treat both orientations uniformly.
type Signal struct {
	data    [][][]float64 // epoch x channel x sample
	epoched bool
}

// FromMatrix builds an unepoched Signal from a (channels, samples) matrix.
func FromMatrix(m [][]float64) (Signal, error) {
	if len(m) == 0 {
		return Signal{}, core.NewValidationError("data", "no channels")
	}
	return fromEpochs([][][]float64{m}, false)
}

// FromEpochs builds an epoched Signal from an (epochs, channels, samples) block.
func FromEpochs(e [][][]float64) (Signal, error) {
	if len(e) == 0 {
		return Signal{}, core.NewValidationError("data", "no epochs")
	}
	return fromEpochs(e, true)
}

func fromEpochs(e [][][]float64, epoched bool) (Signal, error) {
	channels := len(e[0])
	if channels == 0 {
		return Signal{}, core.NewValidationError("data", "no channels")
	}
	samples := len(e[0][0])
	if samples == 0 {
		return Signal{}, core.NewValidationError("data", "no samples")
	}
	for ei, epoch := range e {
		if len(epoch) != channels {
			return Signal{}, core.NewValidationError("data",
				fmt.Sprintf("epoch %d has %d channels, expected %d", ei, len(epoch), channels))
		}
		for ci, ch := range epoch {
			if len(ch) != samples {
				return Signal{}, core.NewValidationError("data",
					fmt.Sprintf("epoch %d channel %d has %d samples, expected %d", ei, ci, len(ch), samples))
			}
			for _, v := range ch {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return Signal{}, core.NewValidationError("data",
						fmt.Sprintf("epoch %d channel %d contains non-finite values", ei, ci))
				}
			}
		}
	}
	return Signal{data: e, epoched: epoched}, nil
}

// Epochs reports the epoch count (1 for unepoched data).
func (s Signal) Epochs() int { return len(s.data) }

// Channels reports the channel count.
func (s Signal) Channels() int {
	if len(s.data) == 0 {
		return 0
	}
	return len(s.data[0])
}

// Samples reports the per-epoch sample count.
func (s Signal) Samples() int {
	if len(s.data) == 0 || len(s.data[0]) == 0 {
		return 0
	}
	return len(s.data[0][0])
}

// Epoched reports whether the signal carried an explicit epoch axis.
func (s Signal) Epoched() bool { return s.epoched }

// IsZero reports whether the signal holds no data.
func (s Signal) IsZero() bool { return len(s.data) == 0 }

// Channel returns one channel's samples for one epoch. The slice aliases the
// underlying storage and must not be mutated.
func (s Signal) Channel(epoch, channel int) []float64 {
	return s.data[epoch][channel]
}

// SameShape reports whether two signals share shape exactly.
func (s Signal) SameShape(o Signal) bool {
	return s.Epochs() == o.Epochs() &&
		s.Channels() == o.Channels() &&
		s.Samples() == o.Samples() &&
		s.epoched == o.epoched
}

// Equal reports element-wise equality; used to detect intra-source analysis.
func (s Signal) Equal(o Signal) bool {
	if !s.SameShape(o) {
		return false
	}
	for e := range s.data {
		for c := range s.data[e] {
			for t := range s.data[e][c] {
				if s.data[e][c][t] != o.data[e][c][t] {
					return false
				}
			}
		}
	}
	return true
}

// Split reslices an unepoched signal into fixed-length epochs, dropping any
// trailing remainder shorter than epochSamples.
func (s Signal) Split(epochSamples int) (Signal, error) {
	if s.epoched {
		return Signal{}, core.NewValidationError("data", "signal is already epoched")
	}
	if epochSamples < 1 || epochSamples > s.Samples() {
		return Signal{}, core.NewValidationError("epochSamples",
			fmt.Sprintf("%d out of range [1,%d]", epochSamples, s.Samples()))
	}
	epochs := s.Samples() / epochSamples
	out := make([][][]float64, epochs)
	for e := 0; e < epochs; e++ {
		out[e] = make([][]float64, s.Channels())
		for c := 0; c < s.Channels(); c++ {
			out[e][c] = s.data[0][c][e*epochSamples : (e+1)*epochSamples]
		}
	}
	return Signal{data: out, epoched: true}, nil
}

// Subset returns a new Signal retaining the given channels, in order.
func (s Signal) Subset(channels []int) (Signal, error) {
	out := make([][][]float64, s.Epochs())
	for e := range s.data {
		out[e] = make([][]float64, len(channels))
		for i, c := range channels {
			if c < 0 || c >= s.Channels() {
				return Signal{}, core.NewValidationError("channels",
					fmt.Sprintf("index %d out of range [0,%d)", c, s.Channels()))
			}
			out[e][i] = s.data[e][c]
		}
	}
	return Signal{data: out, epoched: s.epoched}, nil
}
