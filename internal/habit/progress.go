package habit

import (
	"time"

	"github.com/goodtune/habitd/internal/clock"
)

// Progress is the derived view of a habit shown to the user.
type Progress struct {
	HabitID        string    `json:"habit_id" yaml:"habit_id"`
	Name           string    `json:"name" yaml:"name"`
	Frequency      Frequency `json:"frequency" yaml:"frequency"`
	Unit           Unit      `json:"unit" yaml:"unit"`
	TargetValue    float64   `json:"target_value" yaml:"target_value"`
	Streak         int       `json:"streak" yaml:"streak"`
	Completion     int       `json:"completion" yaml:"completion"`
	CompletedToday bool      `json:"completed_today" yaml:"completed_today"`
	TodayValue     float64   `json:"today_value" yaml:"today_value"`
	// Warning is set when completion could not be derived from the habit's
	// configuration; Completion is 0 in that case.
	Warning error `json:"-" yaml:"-"`
}

// ComputeView derives the progress of h at now. It reads at most seven log
// entries and is recomputed on every call.
func ComputeView(h *Habit, now time.Time) Progress {
	completion, err := ComputeCompletion(h, now)
	return Progress{
		HabitID:        h.ID,
		Name:           h.Name,
		Frequency:      h.Frequency,
		Unit:           h.Unit,
		TargetValue:    h.TargetValue,
		Streak:         h.Streak,
		Completion:     completion,
		CompletedToday: completion >= 100,
		TodayValue:     h.Logs.Get(clock.DateKey(now)),
		Warning:        err,
	}
}

// Summary aggregates progress across every habit for the dashboard.
type Summary struct {
	TotalHabits       int `json:"total_habits" yaml:"total_habits"`
	CompletedToday    int `json:"completed_today" yaml:"completed_today"`
	LongestStreak     int `json:"longest_streak" yaml:"longest_streak"`
	AverageCompletion int `json:"average_completion" yaml:"average_completion"`
	Misconfigured     int `json:"misconfigured" yaml:"misconfigured"`
}

// Summarize folds a set of progress views into a Summary.
func Summarize(views []Progress) Summary {
	s := Summary{TotalHabits: len(views)}
	if len(views) == 0 {
		return s
	}

	total := 0
	for _, v := range views {
		total += v.Completion
		if v.CompletedToday {
			s.CompletedToday++
		}
		if v.Streak > s.LongestStreak {
			s.LongestStreak = v.Streak
		}
		if v.Warning != nil {
			s.Misconfigured++
		}
	}
	s.AverageCompletion = int(roundHalfUp(float64(total) / float64(len(views))))
	return s
}
