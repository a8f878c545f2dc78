package clock

import (
	"sync"
	"time"
)

// DateKeyLayout is the layout of calendar-day log keys.
const DateKeyLayout = "2006-01-02"

// Clock provides the current instant.
// This interface allows time to be mocked in tests.
type Clock interface {
	Now() time.Time
}

// RealClock provides actual system time.
type RealClock struct{}

// Now returns the current system time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// TestClock provides a manually driven time for testing.
type TestClock struct {
	mu          sync.Mutex
	CurrentTime time.Time
}

// NewTestClock returns a TestClock fixed at t.
func NewTestClock(t time.Time) *TestClock {
	return &TestClock{CurrentTime: t}
}

// Now returns the test time.
func (c *TestClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.CurrentTime
}

// Set moves the clock to t.
func (c *TestClock) Set(t time.Time) {
	c.mu.Lock()
	c.CurrentTime = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d.
func (c *TestClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.CurrentTime = c.CurrentTime.Add(d)
	c.mu.Unlock()
}

// DateKey returns the local calendar-day key for t.
func DateKey(t time.Time) string {
	return t.Format(DateKeyLayout)
}

// Today returns the date key of the clock's current day.
func Today(c Clock) string {
	return DateKey(c.Now())
}

// ParseDateKey parses a YYYY-MM-DD key in the local time zone.
func ParseDateKey(key string) (time.Time, error) {
	return time.ParseInLocation(DateKeyLayout, key, time.Local)
}

// WeekStart returns midnight of the Monday that starts the week containing t.
// Sunday belongs to the week that started six days earlier.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -offset)
}

// WeekKeys returns the seven date keys, Monday first, of the week containing t.
func WeekKeys(t time.Time) [7]string {
	var keys [7]string
	start := WeekStart(t)
	for i := range keys {
		keys[i] = DateKey(start.AddDate(0, 0, i))
	}
	return keys
}
