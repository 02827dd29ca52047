// Package edf loads multichannel EDF/EDF+ recordings into signal containers.
// Sample decoding and calibration go through github.com/OpenPSG/edf; the
// channel inventory is read from the fixed-format header directly since the
// library does not expose it.
package edf

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	openpsg "github.com/OpenPSG/edf"

	"hyperit/domain/core"
	"hyperit/domain/signal"
)

// EDF header layout: 256 fixed bytes, then per-signal field blocks. Offsets
// per the EDF specification.
const (
	fixedHeaderBytes  = 256
	dataRecordsOffset = 236
	signalCountOffset = 252
	labelField        = 16
	perSignalBytes    = 16 + 80 + 8 + 8 + 8 + 8 + 8 + 80 + 8 + 32
	// samples-per-record fields start after label, transducer, dimension,
	// physical/digital ranges and prefiltering blocks.
	samplesFieldBase = 16 + 80 + 8 + 8 + 8 + 8 + 8 + 80
)

type inventory struct {
	records int
	labels  []string
	samples []int // per-record sample count per signal
}

// Load reads every signal of an EDF recording into an unepoched Signal plus
// the channel labels. Signals with differing sampling rates are rejected: a
// pairwise analysis needs one shared sample axis.
func Load(path string) (signal.Signal, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return signal.Signal{}, nil, fmt.Errorf("opening recording: %w", err)
	}
	defer f.Close()

	inv, err := readInventory(f)
	if err != nil {
		return signal.Signal{}, nil, err
	}

	perRecord := inv.samples[0]
	for i, s := range inv.samples {
		if s != perRecord {
			return signal.Signal{}, nil, core.NewValidationError("file",
				fmt.Sprintf("signal %q samples %d per record, signal %q has %d",
					inv.labels[i], s, inv.labels[0], perRecord))
		}
	}
	total := inv.records * perRecord
	if total == 0 {
		return signal.Signal{}, nil, core.NewValidationError("file", "recording holds no samples")
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return signal.Signal{}, nil, fmt.Errorf("rewinding recording: %w", err)
	}
	reader, err := openpsg.Open(f)
	if err != nil {
		return signal.Signal{}, nil, fmt.Errorf("opening recording: %w", err)
	}

	channels := make([][]float64, len(inv.labels))
	for i := range inv.labels {
		sr, err := reader.Signal(i)
		if err != nil {
			return signal.Signal{}, nil, fmt.Errorf("signal %q: %w", inv.labels[i], err)
		}
		buf := make([]float64, total)
		n, err := sr.Read(buf)
		if err != nil && err != io.EOF {
			return signal.Signal{}, nil, fmt.Errorf("signal %q: %w", inv.labels[i], err)
		}
		channels[i] = buf[:n]
	}

	s, err := signal.FromMatrix(channels)
	if err != nil {
		return signal.Signal{}, nil, err
	}
	return s, inv.labels, nil
}

// LoadEpoched loads a recording and splits it into fixed-length epochs.
func LoadEpoched(path string, epochSamples int) (signal.Signal, []string, error) {
	s, labels, err := Load(path)
	if err != nil {
		return signal.Signal{}, nil, err
	}
	epoched, err := s.Split(epochSamples)
	if err != nil {
		return signal.Signal{}, nil, err
	}
	return epoched, labels, nil
}

func readInventory(r io.Reader) (inventory, error) {
	fixed := make([]byte, fixedHeaderBytes)
	if _, err := io.ReadFull(r, fixed); err != nil {
		return inventory{}, fmt.Errorf("reading header: %w", err)
	}

	count, err := headerInt(fixed[signalCountOffset : signalCountOffset+4])
	if err != nil {
		return inventory{}, fmt.Errorf("parsing signal count: %w", err)
	}
	if count < 1 {
		return inventory{}, core.NewValidationError("file", "recording declares no signals")
	}
	records, err := headerInt(fixed[dataRecordsOffset : dataRecordsOffset+8])
	if err != nil {
		return inventory{}, fmt.Errorf("parsing record count: %w", err)
	}

	block := make([]byte, count*perSignalBytes)
	if _, err := io.ReadFull(r, block); err != nil {
		return inventory{}, fmt.Errorf("reading signal headers: %w", err)
	}

	inv := inventory{
		records: records,
		labels:  make([]string, count),
		samples: make([]int, count),
	}
	for i := 0; i < count; i++ {
		inv.labels[i] = strings.TrimSpace(string(block[i*labelField : (i+1)*labelField]))
		off := count*samplesFieldBase + i*8
		n, err := headerInt(block[off : off+8])
		if err != nil {
			return inventory{}, fmt.Errorf("parsing samples per record for signal %d: %w", i, err)
		}
		inv.samples[i] = n
	}
	return inv, nil
}

func headerInt(b []byte) (int, error) {
	return strconv.Atoi(strings.TrimSpace(string(b)))
}
