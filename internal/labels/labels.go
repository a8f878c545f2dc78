// Package labels maps units and frequencies to their display names.
package labels

import (
	"fmt"
	"strings"

	"github.com/goodtune/habitd/internal/habit"
)

var defaultUnits = map[habit.Unit]string{
	habit.UnitMinutes: "Minutes",
	habit.UnitHours:   "Hours",
	habit.UnitPages:   "Pages",
	habit.UnitCount:   "Count",
	habit.UnitTimes:   "Times",
	habit.UnitNone:    "Yes/No",
}

var defaultFrequencies = map[habit.Frequency]string{
	habit.FrequencyDaily:  "Daily",
	habit.FrequencyWeekly: "Weekly",
}

// Table holds a display label for every unit and frequency.
type Table struct {
	units       map[habit.Unit]string
	frequencies map[habit.Frequency]string
}

// Default returns the built-in table.
func Default() *Table {
	t, _ := New(nil, nil)
	return t
}

// New builds a table from the defaults with the given overrides applied.
// Override keys must name a known unit or frequency.
func New(units, frequencies map[string]string) (*Table, error) {
	t := &Table{
		units:       make(map[habit.Unit]string, len(defaultUnits)),
		frequencies: make(map[habit.Frequency]string, len(defaultFrequencies)),
	}
	for k, v := range defaultUnits {
		t.units[k] = v
	}
	for k, v := range defaultFrequencies {
		t.frequencies[k] = v
	}

	for key, label := range units {
		u := habit.Unit(strings.ToLower(key))
		if !u.IsValid() {
			return nil, fmt.Errorf("unknown unit label %q", key)
		}
		if label = strings.TrimSpace(label); label != "" {
			t.units[u] = label
		}
	}
	for key, label := range frequencies {
		f := habit.Frequency(strings.ToLower(key))
		if !f.IsValid() {
			return nil, fmt.Errorf("unknown frequency label %q", key)
		}
		if label = strings.TrimSpace(label); label != "" {
			t.frequencies[f] = label
		}
	}
	return t, nil
}

// Unit returns the label for u, or u itself when unknown.
func (t *Table) Unit(u habit.Unit) string {
	if label, ok := t.units[u]; ok {
		return label
	}
	return string(u)
}

// Frequency returns the label for f, or f itself when unknown.
func (t *Table) Frequency(f habit.Frequency) string {
	if label, ok := t.frequencies[f]; ok {
		return label
	}
	return string(f)
}

// Amount renders a logged value with its unit, e.g. "12.5 Pages".
// Boolean habits render as done / not done.
func (t *Table) Amount(u habit.Unit, value float64) string {
	if u == habit.UnitNone {
		if value > 0 {
			return "done"
		}
		return "not done"
	}
	return fmt.Sprintf("%g %s", value, t.Unit(u))
}
