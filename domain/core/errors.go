package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Construction-time validation errors
	ErrValidation        = errors.New("signal validation failed")
	ErrShapeMismatch     = fmt.Errorf("%w: shape mismatch", ErrValidation)
	ErrBadDimensionality = fmt.Errorf("%w: bad dimensionality", ErrValidation)
	ErrChannelNames      = fmt.Errorf("%w: channel names", ErrValidation)

	// ROI assignment errors
	ErrROIStructure    = errors.New("unrecognised ROI structure")
	ErrROICardinality  = errors.New("ROI group cardinality mismatch")
	ErrChannelNotFound = errors.New("channel not found")

	// Estimator selection errors
	ErrUnsupportedEstimator = errors.New("unsupported estimator")

	// Numeric errors
	ErrDegenerateSequence = errors.New("degenerate sequence")
	ErrInsufficientData   = errors.New("insufficient data for analysis")
)

// Error constructors with context
func NewValidationError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrValidation, field, reason)
}

func NewROIStructureError(reason string) error {
	return fmt.Errorf("%w: %s", ErrROIStructure, reason)
}

func NewCardinalityError(reason string) error {
	return fmt.Errorf("%w: %s", ErrROICardinality, reason)
}

func NewChannelNotFoundError(name string) error {
	return fmt.Errorf("%w: %q", ErrChannelNotFound, name)
}

func NewUnsupportedEstimatorError(token string, valid []string) error {
	return fmt.Errorf("%w: %q (choose from %v)", ErrUnsupportedEstimator, token, valid)
}

// Error checking helpers
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsROIError(err error) bool {
	return errors.Is(err, ErrROIStructure) ||
		errors.Is(err, ErrROICardinality) ||
		errors.Is(err, ErrChannelNotFound)
}

func IsUnsupportedEstimator(err error) bool {
	return errors.Is(err, ErrUnsupportedEstimator)
}
