package estimators

import (
	"hyperit/domain/core"
	"hyperit/ports"
)

// Measure distinguishes the two estimator registries.
type Measure int

const (
	MeasureMI Measure = iota
	MeasureTE
)

func (m Measure) String() string {
	if m == MeasureTE {
		return "Transfer Entropy"
	}
	return "Mutual Information"
}

// Strategy is an in-process per-epoch entropy decomposition over univariate
// sequences, bypassing the calculator pipeline. Results are in bits.
type Strategy func(x, y []float64, p Params) (float64, error)

// Descriptor binds an estimator token to its construction and capabilities.
type Descriptor struct {
	Type                 Type
	DisplayName          string
	SupportsSignificance bool

	// Exactly one of Strategy and New is set.
	Strategy Strategy
	New      func(p Params) ports.Calculator
}

// IsStrategy reports whether the estimator runs on the strategy path.
func (d Descriptor) IsStrategy() bool { return d.Strategy != nil }

var miRegistry = map[Type]Descriptor{
	Histogram: {
		Type:        Histogram,
		DisplayName: "Histogram/Binning Estimator",
		Strategy: func(x, y []float64, _ Params) (float64, error) {
			return HistogramMI(x, y)
		},
	},
	Symbolic: {
		Type:        Symbolic,
		DisplayName: "Symbolic Estimator",
		Strategy: func(x, y []float64, p Params) (float64, error) {
			return SymbolicMI(x, y, p.SymbolLag, p.SymbolDim)
		},
	},
	KSG: {
		Type:                 KSG,
		DisplayName:          "KSG Estimator (version 1)",
		SupportsSignificance: true,
		New:                  func(p Params) ports.Calculator { return NewKSGMI(p, 1) },
	},
	KSG1: {
		Type:                 KSG1,
		DisplayName:          "KSG Estimator (version 1)",
		SupportsSignificance: true,
		New:                  func(p Params) ports.Calculator { return NewKSGMI(p, 1) },
	},
	KSG2: {
		Type:                 KSG2,
		DisplayName:          "KSG Estimator (version 2)",
		SupportsSignificance: true,
		New:                  func(p Params) ports.Calculator { return NewKSGMI(p, 2) },
	},
	Kernel: {
		Type:                 Kernel,
		DisplayName:          "Box Kernel Estimator",
		SupportsSignificance: true,
		New:                  func(p Params) ports.Calculator { return NewKernelMI(p) },
	},
	Gaussian: {
		Type:                 Gaussian,
		DisplayName:          "Gaussian Estimator",
		SupportsSignificance: true,
		New:                  func(p Params) ports.Calculator { return NewGaussianMI(p) },
	},
}

var teRegistry = map[Type]Descriptor{
	KSG: {
		Type:                 KSG,
		DisplayName:          "KSG Estimator",
		SupportsSignificance: true,
		New:                  func(p Params) ports.Calculator { return NewKSGTE(p) },
	},
	KSG1: {
		Type:                 KSG1,
		DisplayName:          "KSG Estimator",
		SupportsSignificance: true,
		New:                  func(p Params) ports.Calculator { return NewKSGTE(p) },
	},
	KSG2: {
		Type:                 KSG2,
		DisplayName:          "KSG Estimator",
		SupportsSignificance: true,
		New:                  func(p Params) ports.Calculator { return NewKSGTE(p) },
	},
	Kernel: {
		Type:                 Kernel,
		DisplayName:          "Box Kernel Estimator",
		SupportsSignificance: true,
		New:                  func(p Params) ports.Calculator { return NewKernelTE(p) },
	},
	Gaussian: {
		Type:                 Gaussian,
		DisplayName:          "Gaussian Estimator",
		SupportsSignificance: true,
		New:                  func(p Params) ports.Calculator { return NewGaussianTE(p) },
	},
	Symbolic: {
		Type:        Symbolic,
		DisplayName: "Symbolic Estimator",
		New:         func(p Params) ports.Calculator { return NewSymbolicTE(p) },
	},
}

// Lookup finds an estimator descriptor for a measure, failing with the list
// of valid tokens on an unknown type.
func Lookup(measure Measure, t Type) (Descriptor, error) {
	registry := miRegistry
	if measure == MeasureTE {
		registry = teRegistry
	}
	desc, ok := registry[t]
	if !ok {
		return Descriptor{}, core.NewUnsupportedEstimatorError(string(t), Tokens(measure))
	}
	return desc, nil
}

// Tokens lists the valid estimator tokens for a measure.
func Tokens(measure Measure) []string {
	if measure == MeasureTE {
		return []string{"ksg", "ksg1", "ksg2", "kernel", "gaussian", "symbolic"}
	}
	return []string{"histogram", "ksg", "ksg1", "ksg2", "kernel", "gaussian", "symbolic"}
}
