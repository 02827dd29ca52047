// Package estimators provides the estimator registry and the per-pair
// computation strategies: histogram and symbolic entropy decompositions
// computed in-process, and KSG, box-kernel and Gaussian calculators behind
// the ports.Calculator pipeline with optional permutation significance.
package estimators

import (
	"strings"
)

// Type tokens for the supported estimator families.
type Type string

const (
	Histogram Type = "histogram"
	Symbolic  Type = "symbolic"
	KSG       Type = "ksg"
	KSG1      Type = "ksg1"
	KSG2      Type = "ksg2"
	Kernel    Type = "kernel"
	Gaussian  Type = "gaussian"
)

// ParseType normalises and validates an estimator token against the given
// measure's registry.
func ParseType(measure Measure, token string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(token)))
	if _, err := Lookup(measure, t); err != nil {
		return "", err
	}
	return t, nil
}

// Params carries every estimator parameter with documented defaults. Fields
// irrelevant to the chosen estimator are ignored.
type Params struct {
	// Kraskov is the KSG nearest-neighbor count.
	Kraskov int
	// Normalise z-scores each observation column before estimation.
	Normalise bool
	// KernelWidth is the box kernel radius in (normalised) units.
	KernelWidth float64

	// Transfer entropy embedding: target history length/lag, source history
	// length/lag, and source-target delay.
	KHistory int
	KTau     int
	LHistory int
	LTau     int
	Delay    int
	// BiasCorrection subtracts the small-sample bias of the Gaussian TE.
	BiasCorrection bool

	// Symbolic embedding: ordinal pattern lag and dimension.
	SymbolLag int
	SymbolDim int

	// Significance testing.
	Permutations int
	PThreshold   float64
}

// DefaultMIParams returns the documented mutual information defaults.
func DefaultMIParams() Params {
	return Params{
		Kraskov:      4,
		Normalise:    true,
		KernelWidth:  0.25,
		SymbolLag:    1,
		SymbolDim:    3,
		Permutations: 100,
		PThreshold:   0.05,
	}
}

// DefaultTEParams returns the documented transfer entropy defaults.
func DefaultTEParams() Params {
	return Params{
		Kraskov:      4,
		Normalise:    true,
		KernelWidth:  0.5,
		KHistory:     1,
		KTau:         1,
		LHistory:     1,
		LTau:         1,
		Delay:        1,
		SymbolLag:    1,
		SymbolDim:    2,
		Permutations: 100,
		PThreshold:   0.05,
	}
}

// Config selects an estimator and whether permutation significance runs.
type Config struct {
	Type         Type
	Params       Params
	Significance bool
}

// MIConfig builds a mutual information config with defaults.
func MIConfig(t Type) Config {
	return Config{Type: t, Params: DefaultMIParams()}
}

// TEConfig builds a transfer entropy config with defaults.
func TEConfig(t Type) Config {
	return Config{Type: t, Params: DefaultTEParams()}
}

// EffectiveSignificance clamps the significance request to the estimator's
// capability: histogram and symbolic estimators never produce p-values.
func (c Config) EffectiveSignificance(desc Descriptor) bool {
	return c.Significance && desc.SupportsSignificance
}
