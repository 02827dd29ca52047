package signal

import (
	"fmt"

	"hyperit/domain/core"
)

// Pair is a validated source/target pairing of signals plus channel metadata.
// Intra-source pairs (identical data) carry the same ChannelSet on both sides
// so later code treats intra- and inter-source analyses uniformly.
type Pair struct {
	X, Y           Signal
	NamesX, NamesY ChannelSet
	Intra          bool
}

// NewPair validates two signals against their channel-name metadata.
// channelNames holds one label sequence per source; a single sequence is
// accepted for intra-source analysis and duplicated for both sides.
func NewPair(x, y Signal, channelNames [][]string) (Pair, error) {
	if x.IsZero() || y.IsZero() {
		return Pair{}, core.NewValidationError("data", "both signals are required")
	}
	if !x.SameShape(y) {
		return Pair{}, fmt.Errorf("%w: source (%d,%d,%d) vs target (%d,%d,%d)",
			core.ErrShapeMismatch,
			x.Epochs(), x.Channels(), x.Samples(),
			y.Epochs(), y.Channels(), y.Samples())
	}

	intra := x.Equal(y)

	switch len(channelNames) {
	case 1:
		if !intra {
			return Pair{}, fmt.Errorf("%w: inter-source analysis needs a label sequence per source", core.ErrChannelNames)
		}
		channelNames = [][]string{channelNames[0], channelNames[0]}
	case 2:
	default:
		return Pair{}, fmt.Errorf("%w: expected one or two label sequences, got %d", core.ErrChannelNames, len(channelNames))
	}

	for side, names := range channelNames {
		if len(names) != x.Channels() {
			return Pair{}, fmt.Errorf("%w: source %d has %d labels for %d channels",
				core.ErrChannelNames, side+1, len(names), x.Channels())
		}
	}

	namesX, err := NewChannelSet(channelNames[0])
	if err != nil {
		return Pair{}, err
	}
	namesY, err := NewChannelSet(channelNames[1])
	if err != nil {
		return Pair{}, err
	}

	return Pair{X: x, Y: y, NamesX: namesX, NamesY: namesY, Intra: intra}, nil
}
