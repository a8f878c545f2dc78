package habit

import (
	"fmt"
	"strings"
	"time"
)

// Frequency is the cadence a habit's target applies to.
type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

// Unit is the measure a habit's logged values are expressed in.
type Unit string

const (
	UnitMinutes Unit = "minutes"
	UnitHours   Unit = "hours"
	UnitPages   Unit = "pages"
	UnitCount   Unit = "count"
	UnitTimes   Unit = "times"
	// UnitNone marks a boolean habit: any positive log value means done.
	UnitNone Unit = "none"
)

// Units lists every supported unit in display order.
var Units = []Unit{UnitMinutes, UnitHours, UnitPages, UnitCount, UnitTimes, UnitNone}

// IsValid reports whether f is a known frequency.
func (f Frequency) IsValid() bool {
	return f == FrequencyDaily || f == FrequencyWeekly
}

// IsValid reports whether u is a known unit.
func (u Unit) IsValid() bool {
	for _, known := range Units {
		if u == known {
			return true
		}
	}
	return false
}

// IsTimeBased reports whether the unit measures elapsed time.
func (u Unit) IsTimeBased() bool {
	return u == UnitMinutes || u == UnitHours
}

// SecondsPerUnit returns how many seconds one unit represents, or 0 when the
// unit is not time based.
func (u Unit) SecondsPerUnit() int64 {
	switch u {
	case UnitMinutes:
		return 60
	case UnitHours:
		return 3600
	default:
		return 0
	}
}

// ParseFrequency parses a case-insensitive frequency name.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	if !f.IsValid() {
		return "", fmt.Errorf("%w: unknown frequency %q (must be daily or weekly)", ErrInvalidHabit, s)
	}
	return f, nil
}

// ParseUnit parses a case-insensitive unit name. An empty string means none.
func ParseUnit(s string) (Unit, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return UnitNone, nil
	}
	u := Unit(s)
	if !u.IsValid() {
		return "", fmt.Errorf("%w: unknown unit %q", ErrInvalidHabit, s)
	}
	return u, nil
}

// Habit is a habit definition together with its per-day log.
type Habit struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	Frequency   Frequency `json:"frequency" yaml:"frequency"`
	Unit        Unit      `json:"unit" yaml:"unit"`
	TargetValue float64   `json:"target_value" yaml:"target_value"`
	Streak      int       `json:"streak" yaml:"streak"`
	Logs        Logs      `json:"logs" yaml:"logs"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
}

// IsBoolean reports whether the habit records plain done/not-done entries.
func (h *Habit) IsBoolean() bool {
	return h.Unit == UnitNone
}

// HasValidTarget reports whether completion can be derived from the target.
func (h *Habit) HasValidTarget() bool {
	return h.IsBoolean() || h.TargetValue > 0
}

// Clone returns a deep copy of h.
func (h Habit) Clone() Habit {
	h.Logs = h.Logs.Clone()
	return h
}

// Validate checks the definition fields that callers may edit.
func (h *Habit) Validate() error {
	if strings.TrimSpace(h.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidHabit)
	}
	if !h.Frequency.IsValid() {
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidHabit, h.Frequency)
	}
	if !h.Unit.IsValid() {
		return fmt.Errorf("%w: unknown unit %q", ErrInvalidHabit, h.Unit)
	}
	if !h.HasValidTarget() {
		return fmt.Errorf("%w: target value must be greater than 0 for unit %s", ErrInvalidHabit, h.Unit)
	}
	if h.Streak < 0 {
		return fmt.Errorf("%w: streak cannot be negative", ErrInvalidHabit)
	}
	return nil
}
