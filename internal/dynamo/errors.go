package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation and measure operations.
var (
	// ErrInvalidState indicates a state vector with invalid dimensions or values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrConfiguration indicates an unknown selector, a bad parameter or a
	// malformed solver configuration.
	ErrConfiguration = errors.New("dynamo: invalid configuration")

	// ErrDiverged indicates the trajectory left the finite domain.
	ErrDiverged = errors.New("dynamo: trajectory diverged")

	// ErrSingularCovariance indicates a covariance block that cannot be inverted.
	ErrSingularCovariance = errors.New("dynamo: singular covariance matrix")

	// ErrCovarianceDomain indicates a covariance block outside the domain of a measure.
	ErrCovarianceDomain = errors.New("dynamo: covariance outside measure domain")

	// ErrStepTooSmall indicates adaptive timestep became too small.
	ErrStepTooSmall = errors.New("dynamo: adaptive timestep below minimum")

	// ErrStepRejected is returned by adaptive integrators when the local error
	// estimate exceeds the tolerance. The suggested step is still returned.
	ErrStepRejected = errors.New("dynamo: step rejected by error control")

	// ErrDimensionMismatch indicates mismatched state and system dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")
)

// ConfigurationError reports an invalid selector, parameter or solver setting.
type ConfigurationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("dynamo: invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("dynamo: invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// Configf is shorthand for building a ConfigurationError.
func Configf(field string, value any, format string, args ...any) error {
	return &ConfigurationError{Field: field, Value: value, Reason: fmt.Sprintf(format, args...)}
}

// DivergedTrajectoryError carries the last finite sample of a run that
// produced NaN or Inf, or whose adaptive step collapsed. Cause is set in
// the latter case.
type DivergedTrajectoryError struct {
	Step  int
	Time  float64
	State State
	Cause error
}

func (e *DivergedTrajectoryError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("dynamo: trajectory diverged after sample %d (t=%.6g): %v", e.Step, e.Time, e.Cause)
	}
	return fmt.Sprintf("dynamo: trajectory diverged after sample %d (t=%.6g)", e.Step, e.Time)
}

func (e *DivergedTrajectoryError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrDiverged, e.Cause}
	}
	return []error{ErrDiverged}
}

// SingularCovarianceError reports a covariance block that is singular,
// not positive definite or not finite.
type SingularCovarianceError struct {
	Det    float64
	Reason string
}

func (e *SingularCovarianceError) Error() string {
	return fmt.Sprintf("dynamo: singular covariance (det=%.6g): %s", e.Det, e.Reason)
}

func (e *SingularCovarianceError) Unwrap() error { return ErrSingularCovariance }

// CovarianceDomainError reports an intermediate quantity of a measure that
// left its real domain, such as a negative discriminant.
type CovarianceDomainError struct {
	Quantity string
	Value    float64
}

func (e *CovarianceDomainError) Error() string {
	return fmt.Sprintf("dynamo: %s out of domain (%.6g)", e.Quantity, e.Value)
}

func (e *CovarianceDomainError) Unwrap() error { return ErrCovarianceDomain }
