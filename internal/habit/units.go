package habit

import "math"

// ValueFromSeconds converts elapsed seconds into a log value for a time-based
// unit: minutes keep two decimals, hours keep three. Other units yield 0.
func ValueFromSeconds(u Unit, seconds int64) float64 {
	switch u {
	case UnitMinutes:
		return roundTo(float64(seconds)/60, 2)
	case UnitHours:
		return roundTo(float64(seconds)/3600, 3)
	default:
		return 0
	}
}

// SecondsFromValue converts a logged time value back into whole seconds.
func SecondsFromValue(u Unit, value float64) int64 {
	per := u.SecondsPerUnit()
	if per == 0 || value <= 0 {
		return 0
	}
	return int64(math.Round(value * float64(per)))
}
