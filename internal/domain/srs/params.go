package srs

import (
	"errors"
	"fmt"
)

// ErrInvalidParams is returned when scheduler parameters are out of range.
var ErrInvalidParams = errors.New("invalid scheduler parameters")

// Params defines the tunable parameters handed to the scheduling algorithm.
type Params struct {
	// RequestRetention is the target probability of recall at the due date.
	RequestRetention float64

	// MaximumInterval caps the scheduled interval, in days.
	MaximumInterval float64

	// EnableFuzz spreads due dates slightly so cards added together do not
	// stay clustered. Off by default to keep scheduling deterministic.
	EnableFuzz bool

	// EnableShortTerm keeps learning and relearning steps within the same day.
	EnableShortTerm bool
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance.
// Zero values keep the defaults.
type ParamsConfig struct {
	RequestRetention float64
	MaximumInterval  float64
	EnableFuzz       bool
	DisableShortTerm bool
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		RequestRetention: 0.9,
		MaximumInterval:  36500,
		EnableFuzz:       false,
		EnableShortTerm:  true,
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.RequestRetention > 0 {
		params.RequestRetention = config.RequestRetention
	}
	if config.MaximumInterval > 0 {
		params.MaximumInterval = config.MaximumInterval
	}
	params.EnableFuzz = config.EnableFuzz
	params.EnableShortTerm = !config.DisableShortTerm

	return params
}

// Validate reports whether the parameters can be used by the scheduler.
func (p *Params) Validate() error {
	if p.RequestRetention <= 0 || p.RequestRetention >= 1 {
		return fmt.Errorf("%w: request retention %v must be in (0, 1)", ErrInvalidParams, p.RequestRetention)
	}
	if p.MaximumInterval < 1 {
		return fmt.Errorf("%w: maximum interval %v must be at least 1 day", ErrInvalidParams, p.MaximumInterval)
	}
	return nil
}
