package signal

import (
	"fmt"

	"hyperit/domain/core"
)

// ChannelSet is an ordered, immutable sequence of channel labels with
// exact-match lookup in both directions.
type ChannelSet struct {
	names []string
	index map[string]int
}

// NewChannelSet builds a ChannelSet from ordered labels. Duplicate labels are
// rejected since name lookup must be unambiguous.
func NewChannelSet(names []string) (ChannelSet, error) {
	index := make(map[string]int, len(names))
	for i, n := range names {
		if _, dup := index[n]; dup {
			return ChannelSet{}, core.NewValidationError("channel names",
				fmt.Sprintf("duplicate label %q", n))
		}
		index[n] = i
	}
	out := ChannelSet{names: make([]string, len(names)), index: index}
	copy(out.names, names)
	return out, nil
}

// Len reports the channel count.
func (c ChannelSet) Len() int { return len(c.names) }

// Name returns the label at index i.
func (c ChannelSet) Name(i int) (string, error) {
	if i < 0 || i >= len(c.names) {
		return "", core.NewValidationError("channel index",
			fmt.Sprintf("%d out of range [0,%d)", i, len(c.names)))
	}
	return c.names[i], nil
}

// Index returns the index of an exact label.
func (c ChannelSet) Index(name string) (int, error) {
	i, ok := c.index[name]
	if !ok {
		return 0, core.NewChannelNotFoundError(name)
	}
	return i, nil
}

// Indices resolves a sequence of labels to indices.
func (c ChannelSet) Indices(names []string) ([]int, error) {
	out := make([]int, len(names))
	for i, n := range names {
		idx, err := c.Index(n)
		if err != nil {
			return nil, err
		}
		out[i] = idx
	}
	return out, nil
}

// Names resolves a sequence of indices to labels.
func (c ChannelSet) Names(indices []int) ([]string, error) {
	out := make([]string, len(indices))
	for i, idx := range indices {
		n, err := c.Name(idx)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

// All returns a copy of every label in order.
func (c ChannelSet) All() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}
