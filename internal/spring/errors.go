package spring

import (
	"errors"
	"fmt"
)

// Domain errors for spring configuration.
var (
	// ErrInvalidConfig indicates a physically meaningless spring configuration.
	ErrInvalidConfig = errors.New("spring: invalid config")

	// ErrUnknownStepper indicates a stepper name missing from the registry.
	ErrUnknownStepper = errors.New("spring: unknown stepper")

	// ErrNotSettled indicates Settle ran out of steps before reaching rest.
	ErrNotSettled = errors.New("spring: did not settle")
)

// ConfigError names the offending field of a rejected Config.
type ConfigError struct {
	Field string
	Value float64
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("spring: invalid config: %s=%g", e.Field, e.Value)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}
