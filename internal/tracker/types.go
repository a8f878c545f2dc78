package tracker

import (
	"errors"

	"github.com/goodtune/habitd/internal/habit"
)

// ErrInvalidDate is returned for a date key that is not YYYY-MM-DD.
var ErrInvalidDate = errors.New("tracker: invalid date")

// CreateInput holds the user-editable fields of a new habit.
type CreateInput struct {
	Name        string
	Description string
	Frequency   habit.Frequency
	Unit        habit.Unit
	TargetValue float64
}

// UpdateInput holds the fields to change; nil fields are left as they are.
// Logs and streak are not editable.
type UpdateInput struct {
	Name        *string
	Description *string
	Frequency   *habit.Frequency
	Unit        *habit.Unit
	TargetValue *float64
}

// Result is the outcome of a log mutation.
type Result struct {
	Habit    habit.Habit    `json:"habit"`
	Progress habit.Progress `json:"progress"`
	// Delta is the streak change caused by the write.
	Delta int `json:"streak_delta"`
}

// DeleteListener is notified after a habit is removed.
type DeleteListener interface {
	HabitDeleted(id string)
}

// DeleteListenerFunc adapts a function to DeleteListener.
type DeleteListenerFunc func(id string)

// HabitDeleted calls f(id).
func (f DeleteListenerFunc) HabitDeleted(id string) { f(id) }

// sampleHabits are inserted by Seed into an empty store.
var sampleHabits = []habit.Habit{
	{
		Name:        "Morning Exercise",
		Description: "30 minutes of cardio or strength training",
		Frequency:   habit.FrequencyDaily,
		Unit:        habit.UnitMinutes,
		TargetValue: 30,
		Streak:      12,
	},
	{
		Name:        "Read 30 Pages",
		Description: "Read from my current book",
		Frequency:   habit.FrequencyDaily,
		Unit:        habit.UnitPages,
		TargetValue: 20,
		Streak:      8,
	},
	{
		Name:        "Meditation",
		Description: "10 minutes of mindfulness meditation",
		Frequency:   habit.FrequencyDaily,
		Unit:        habit.UnitMinutes,
		TargetValue: 10,
		Streak:      5,
	},
	{
		Name:        "Learning Code",
		Description: "Learn new programming concepts",
		Frequency:   habit.FrequencyDaily,
		Unit:        habit.UnitHours,
		TargetValue: 2,
		Streak:      15,
	},
	{
		Name:        "Journaling",
		Description: "Write about my day and reflections",
		Frequency:   habit.FrequencyDaily,
		Unit:        habit.UnitPages,
		TargetValue: 1,
		Streak:      3,
	},
}
