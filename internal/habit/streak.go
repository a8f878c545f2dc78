package habit

// Mutation is the outcome of applying one log write to a habit.
type Mutation struct {
	Logs   Logs
	Streak int
	// Delta is the streak change caused by this write: -1, 0 or +1.
	Delta int
}

// ApplyLogMutation writes newValue under dateKey and recomputes the streak.
//
// The streak only moves when dateKey is todayKey: it goes up the first time
// the day becomes complete and down (never below zero) when a complete day
// is edited back under target. Writes to any other day leave it alone.
// Applying the same value twice changes nothing the second time.
//
// h is not modified; the caller stores the returned logs and streak.
func ApplyLogMutation(h *Habit, dateKey string, newValue float64, todayKey string) Mutation {
	newValue = normalizeValue(newValue)
	prior := h.Logs.Get(dateKey)

	wasCompleted := reachesTarget(h, prior)
	nowCompleted := reachesTarget(h, newValue)

	streak := h.Streak
	if streak < 0 {
		streak = 0
	}

	delta := 0
	if dateKey == todayKey {
		switch {
		case nowCompleted && !wasCompleted:
			delta = 1
		case !nowCompleted && wasCompleted && streak > 0:
			delta = -1
		}
	}

	return Mutation{
		Logs:   h.Logs.With(dateKey, newValue),
		Streak: streak + delta,
		Delta:  delta,
	}
}

// ToggleValue returns the value a toggle writes: 1/0 for boolean habits and
// target/0 for measured ones. ok is false when the habit's target is unusable,
// in which case toggling is a no-op.
func ToggleValue(h *Habit, completed bool) (value float64, ok bool) {
	if !h.HasValidTarget() {
		return 0, false
	}
	if !completed {
		return 0, true
	}
	if h.IsBoolean() {
		return 1, true
	}
	return h.TargetValue, true
}

// reachesTarget reports whether value completes the habit for one day.
// A measured habit without a usable target never counts as complete.
func reachesTarget(h *Habit, value float64) bool {
	if h.IsBoolean() {
		return value > 0
	}
	if h.TargetValue <= 0 {
		return false
	}
	return value/h.TargetValue >= 1
}
