package habit

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidHabitConfig is returned when completion cannot be computed
	// because a measured habit has a non-positive target.
	ErrInvalidHabitConfig = errors.New("habit: invalid habit config")

	// ErrInvalidHabit is returned when a habit definition fails validation.
	ErrInvalidHabit = errors.New("habit: invalid habit")
)

// ConfigError describes the habit whose configuration is unusable.
type ConfigError struct {
	HabitID string
	Unit    Unit
	Target  float64
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("habit %s: target %g is not usable for unit %s", e.HabitID, e.Target, e.Unit)
}

// Unwrap lets errors.Is match ErrInvalidHabitConfig.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidHabitConfig
}
