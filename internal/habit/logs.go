package habit

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goodtune/habitd/internal/clock"
)

// Logs maps a calendar-day key (YYYY-MM-DD) to the value logged that day.
//
// Writers never mutate a Logs value in place: With returns a copy, so a
// Habit handed to a caller keeps the log it was read with.
type Logs map[string]float64

// Get returns the value logged for key, or 0.
func (l Logs) Get(key string) float64 {
	return l[key]
}

// Has reports whether key holds a positive value.
func (l Logs) Has(key string) bool {
	return l[key] > 0
}

// With returns a copy of l with key set to value clamped at 0.
func (l Logs) With(key string, value float64) Logs {
	out := make(Logs, len(l)+1)
	for k, v := range l {
		out[k] = v
	}
	out[key] = normalizeValue(value)
	return out
}

// Sum adds the values of the given keys. Missing keys count as 0.
func (l Logs) Sum(keys ...string) float64 {
	total := 0.0
	for _, k := range keys {
		total += l[k]
	}
	return total
}

// SumRange adds the values of every day from 'from' through 'to' inclusive.
func (l Logs) SumRange(from, to time.Time) float64 {
	total := 0.0
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, to.Location())
	for !day.After(end) {
		total += l[clock.DateKey(day)]
		day = day.AddDate(0, 0, 1)
	}
	return total
}

// Keys returns the logged date keys in ascending order.
func (l Logs) Keys() []string {
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns an independent copy of l. A nil map clones to an empty one.
func (l Logs) Clone() Logs {
	out := make(Logs, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

// ParseValue coerces user input into a log value. Anything that is not a
// finite number becomes 0, and negatives are clamped to 0.
func ParseValue(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return normalizeValue(v)
}

func normalizeValue(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
