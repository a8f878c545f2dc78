package habit

import (
	"math"
	"time"

	"github.com/goodtune/habitd/internal/clock"
)

// ComputeCompletion returns the completion percentage of h for the day (daily
// habits) or Monday-started week (weekly habits) containing ref.
//
// Boolean habits are 100 when the reference day holds a positive entry.
// Measured habits with a non-positive target return 0 and a *ConfigError.
func ComputeCompletion(h *Habit, ref time.Time) (int, error) {
	key := clock.DateKey(ref)

	if h.IsBoolean() {
		if h.Logs.Has(key) {
			return 100, nil
		}
		return 0, nil
	}

	if h.TargetValue <= 0 {
		return 0, &ConfigError{HabitID: h.ID, Unit: h.Unit, Target: h.TargetValue}
	}

	var total float64
	if h.Frequency == FrequencyWeekly {
		start := clock.WeekStart(ref)
		total = h.Logs.SumRange(start, start.AddDate(0, 0, 6))
	} else {
		total = h.Logs.Get(key)
	}

	return percent(total, h.TargetValue), nil
}

// percent converts value/target into a whole percentage, rounded half up and
// clamped to [0,100].
func percent(value, target float64) int {
	p := roundHalfUp(value / target * 100)
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return int(p)
}

func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

// roundTo rounds x half up to the given number of decimal places.
func roundTo(x float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return roundHalfUp(x*scale) / scale
}
