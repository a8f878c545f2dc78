package habit

import (
	"errors"

	"github.com/goodtune/habitd/internal/clock"
	"github.com/goodtune/habitd/internal/metrics"
	"github.com/rs/zerolog"
)

// Source labels where a log write came from.
type Source string

const (
	SourceManual    Source = "manual"
	SourceToggle    Source = "toggle"
	SourceIncrement Source = "increment"
	SourceTimer     Source = "timer"
)

// Engine binds the pure progress and streak functions to a clock, so that
// "today" is decided in one place, and reports what it does.
//
// Engine holds no per-habit state; every method reads the habit it is given
// and returns the values the caller should persist.
type Engine struct {
	clock  clock.Clock
	logger zerolog.Logger
}

// NewEngine creates an engine reading the current day from c.
func NewEngine(c clock.Clock, logger zerolog.Logger) *Engine {
	if c == nil {
		c = clock.RealClock{}
	}
	return &Engine{
		clock:  c,
		logger: logger.With().Str("component", "habit-engine").Logger(),
	}
}

// Clock returns the engine's clock.
func (e *Engine) Clock() clock.Clock {
	return e.clock
}

// Today returns the date key of the current day.
func (e *Engine) Today() string {
	return clock.Today(e.clock)
}

// GetProgress returns the progress view of h for the current instant.
// An unusable target is reported as a warning rather than an error.
func (e *Engine) GetProgress(h *Habit) Progress {
	p := ComputeView(h, e.clock.Now())
	if p.Warning != nil {
		var cfgErr *ConfigError
		if errors.As(p.Warning, &cfgErr) {
			e.logger.Warn().
				Str("habit_id", h.ID).
				Str("unit", string(cfgErr.Unit)).
				Float64("target", cfgErr.Target).
				Msg("Habit target is not usable, reporting 0% completion")
		}
	}
	return p
}

// LogValue records value for dateKey and returns the resulting logs and streak.
func (e *Engine) LogValue(h *Habit, dateKey string, value float64) Mutation {
	return e.apply(h, dateKey, value, SourceManual)
}

// LogFrom is LogValue with an explicit source label.
func (e *Engine) LogFrom(h *Habit, dateKey string, value float64, source Source) Mutation {
	return e.apply(h, dateKey, value, source)
}

// ToggleComplete marks dateKey done or not done. For a measured habit with an
// unusable target it is a no-op and returns the habit's current state.
func (e *Engine) ToggleComplete(h *Habit, dateKey string, completed bool) Mutation {
	value, ok := ToggleValue(h, completed)
	if !ok {
		e.logger.Warn().
			Str("habit_id", h.ID).
			Bool("completed", completed).
			Msg("Ignoring toggle on habit with unusable target")
		return Mutation{Logs: h.Logs.Clone(), Streak: h.Streak}
	}
	return e.apply(h, dateKey, value, SourceToggle)
}

// Increment adds delta to today's value, never going below zero.
func (e *Engine) Increment(h *Habit, delta float64) Mutation {
	today := e.Today()
	return e.apply(h, today, h.Logs.Get(today)+delta, SourceIncrement)
}

func (e *Engine) apply(h *Habit, dateKey string, value float64, source Source) Mutation {
	today := e.Today()
	m := ApplyLogMutation(h, dateKey, value, today)

	metrics.LogMutationsTotal.WithLabelValues(string(h.Unit), string(source)).Inc()
	switch {
	case m.Delta > 0:
		metrics.StreakChangesTotal.WithLabelValues("up").Inc()
	case m.Delta < 0:
		metrics.StreakChangesTotal.WithLabelValues("down").Inc()
	}

	e.logger.Debug().
		Str("habit_id", h.ID).
		Str("date", dateKey).
		Str("source", string(source)).
		Float64("value", m.Logs.Get(dateKey)).
		Int("streak", m.Streak).
		Int("delta", m.Delta).
		Bool("today", dateKey == today).
		Msg("Applied log mutation")

	return m
}
