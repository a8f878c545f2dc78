package timer

import (
	"context"
	"errors"
	"fmt"

	"github.com/goodtune/habitd/internal/habit"
)

// State is the lifecycle state of a timer session.
type State int

const (
	Stopped State = iota
	Running
	Paused
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	case Paused:
		return "paused"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrInvalidTimerState is returned when an operation is not allowed in the
// session's current state. The session is left unchanged.
var ErrInvalidTimerState = errors.New("timer: invalid timer state")

// StateError records the rejected operation and the state it was attempted in.
type StateError struct {
	Op    string
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("timer: cannot %s while %s", e.Op, e.State)
}

func (e *StateError) Unwrap() error {
	return ErrInvalidTimerState
}

// Flusher receives the value accumulated by a bound session.
type Flusher interface {
	Flush(ctx context.Context, habitID string, value float64) error
}

// Session is a point-in-time copy of a timer.
type Session struct {
	HabitID        string     `json:"habit_id,omitempty"`
	HabitName      string     `json:"habit_name,omitempty"`
	Unit           habit.Unit `json:"unit,omitempty"`
	TargetValue    float64    `json:"target_value,omitempty"`
	ElapsedSeconds int64      `json:"elapsed_seconds"`
	State          State      `json:"state"`
}

// Bound reports whether the session counts towards a habit.
func (s Session) Bound() bool {
	return s.HabitID != ""
}

// Mode returns "bound" or "free".
func (s Session) Mode() string {
	if s.Bound() {
		return "bound"
	}
	return "free"
}

// FormatElapsed renders seconds as MM:SS, or HH:MM:SS from one hour up.
func FormatElapsed(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
