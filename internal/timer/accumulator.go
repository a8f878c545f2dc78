package timer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goodtune/habitd/internal/clock"
	"github.com/goodtune/habitd/internal/habit"
	"github.com/goodtune/habitd/internal/metrics"
	"github.com/rs/zerolog"
)

// DefaultTickInterval is the wall-clock time one elapsed second stands for.
const DefaultTickInterval = time.Second

// TickerFunc returns a tick channel firing every interval and a function that
// releases it.
type TickerFunc func(interval time.Duration) (<-chan time.Time, func())

// RealTicker is a TickerFunc backed by time.Ticker.
func RealTicker(interval time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(interval)
	return t.C, t.Stop
}

// Config holds accumulator configuration
type Config struct {
	TickInterval time.Duration
	Clock        clock.Clock
	NewTicker    TickerFunc
}

// Accumulator is a focus timer that turns running time into a habit value.
//
// It runs unbound (free mode) or bound to one habit. While Running a single
// goroutine adds one second per tick. Pausing or stopping a bound session
// whose habit is measured in minutes or hours writes the accumulated value
// through the Flusher.
type Accumulator struct {
	flusher   Flusher
	clock     clock.Clock
	interval  time.Duration
	newTicker TickerFunc
	logger    zerolog.Logger

	// opMu serialises state transitions, including the flush they trigger.
	opMu sync.Mutex
	run  *tickRun

	// mu guards session; the tick goroutine only takes mu.
	mu      sync.Mutex
	session Session
}

type tickRun struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a stopped, unbound accumulator.
func New(flusher Flusher, config Config, logger zerolog.Logger) *Accumulator {
	if config.TickInterval <= 0 {
		config.TickInterval = DefaultTickInterval
	}
	if config.Clock == nil {
		config.Clock = clock.RealClock{}
	}
	if config.NewTicker == nil {
		config.NewTicker = RealTicker
	}

	return &Accumulator{
		flusher:   flusher,
		clock:     config.Clock,
		interval:  config.TickInterval,
		newTicker: config.NewTicker,
		logger:    logger.With().Str("component", "timer").Logger(),
	}
}

// Snapshot returns a copy of the current session.
func (a *Accumulator) Snapshot() Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session
}

// Bind attaches the session to h and loads today's logged time as the
// starting elapsed value. Rejected while Running.
func (a *Accumulator) Bind(h *habit.Habit) error {
	a.opMu.Lock()
	defer a.opMu.Unlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session.State == Running {
		return &StateError{Op: "bind", State: Running}
	}

	today := clock.Today(a.clock)
	a.session.HabitID = h.ID
	a.session.HabitName = h.Name
	a.session.Unit = h.Unit
	a.session.TargetValue = h.TargetValue
	a.session.ElapsedSeconds = habit.SecondsFromValue(h.Unit, h.Logs.Get(today))

	a.logger.Debug().
		Str("habit_id", h.ID).
		Str("unit", string(h.Unit)).
		Int64("elapsed", a.session.ElapsedSeconds).
		Msg("Bound timer to habit")
	return nil
}

// Unbind returns the session to free mode with zero elapsed time.
// Rejected while Running.
func (a *Accumulator) Unbind() error {
	a.opMu.Lock()
	defer a.opMu.Unlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session.State == Running {
		return &StateError{Op: "unbind", State: Running}
	}
	a.session = Session{}
	return nil
}

// Start moves a stopped or paused session to Running.
func (a *Accumulator) Start() (Session, error) {
	return a.begin("start")
}

// Resume is Start under the name used after a pause.
func (a *Accumulator) Resume() (Session, error) {
	return a.begin("resume")
}

func (a *Accumulator) begin(op string) (Session, error) {
	a.opMu.Lock()
	defer a.opMu.Unlock()

	a.mu.Lock()
	if a.session.State == Running {
		a.mu.Unlock()
		return a.Snapshot(), &StateError{Op: op, State: Running}
	}
	a.session.State = Running
	snap := a.session
	a.mu.Unlock()

	a.startTicking(snap.Mode())

	a.logger.Debug().
		Str("op", op).
		Str("habit_id", snap.HabitID).
		Int64("elapsed", snap.ElapsedSeconds).
		Msg("Timer running")
	return snap, nil
}

// Pause stops counting and flushes a bound session. The session stays
// Paused even when the flush fails.
func (a *Accumulator) Pause(ctx context.Context) (Session, error) {
	a.opMu.Lock()
	defer a.opMu.Unlock()

	if state := a.Snapshot().State; state != Running {
		return a.Snapshot(), &StateError{Op: "pause", State: state}
	}
	a.stopTicking()

	a.mu.Lock()
	a.session.State = Paused
	snap := a.session
	a.mu.Unlock()

	return snap, a.flush(ctx, snap, "pause")
}

// Stop ends a running or paused session and flushes it when bound. A free
// session is reset to zero; a bound one keeps its elapsed time until Reset.
func (a *Accumulator) Stop(ctx context.Context) (Session, error) {
	a.opMu.Lock()
	defer a.opMu.Unlock()

	if state := a.Snapshot().State; state == Stopped {
		return a.Snapshot(), &StateError{Op: "stop", State: Stopped}
	}
	a.stopTicking()

	a.mu.Lock()
	a.session.State = Stopped
	snap := a.session
	if !a.session.Bound() {
		a.session.ElapsedSeconds = 0
	}
	after := a.session
	a.mu.Unlock()

	return after, a.flush(ctx, snap, "stop")
}

// Reset stops the session and clears elapsed time without flushing.
func (a *Accumulator) Reset() Session {
	a.opMu.Lock()
	defer a.opMu.Unlock()

	a.stopTicking()

	a.mu.Lock()
	defer a.mu.Unlock()
	a.session.State = Stopped
	a.session.ElapsedSeconds = 0
	return a.session
}

// Close stops the tick goroutine without flushing.
func (a *Accumulator) Close() {
	a.opMu.Lock()
	defer a.opMu.Unlock()

	a.stopTicking()

	a.mu.Lock()
	a.session.State = Stopped
	a.mu.Unlock()
}

// HabitDeleted resets and unbinds the session if it is bound to id.
func (a *Accumulator) HabitDeleted(id string) {
	a.opMu.Lock()
	defer a.opMu.Unlock()

	if a.Snapshot().HabitID != id {
		return
	}
	a.stopTicking()

	a.mu.Lock()
	a.session = Session{}
	a.mu.Unlock()

	a.logger.Info().Str("habit_id", id).Msg("Bound habit deleted, timer reset")
}

// Progress returns the fill fraction in [0,1]. A bound session is measured
// against the habit target; a free session cycles once per hour.
func (a *Accumulator) Progress() float64 {
	return progressOf(a.Snapshot())
}

func progressOf(s Session) float64 {
	if !s.Bound() {
		return float64(s.ElapsedSeconds%3600) / 3600
	}

	per := s.Unit.SecondsPerUnit()
	if per == 0 || s.TargetValue <= 0 {
		return 0
	}
	p := float64(s.ElapsedSeconds) / (s.TargetValue * float64(per))
	if p > 1 {
		return 1
	}
	return p
}

// startTicking must be called with opMu held.
func (a *Accumulator) startTicking(mode string) {
	ctx, cancel := context.WithCancel(context.Background())
	ticks, release := a.newTicker(a.interval)
	run := &tickRun{cancel: cancel, done: make(chan struct{})}
	a.run = run

	go func() {
		defer close(run.done)
		defer release()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticks:
				a.mu.Lock()
				a.session.ElapsedSeconds++
				a.mu.Unlock()
				metrics.TimerSecondsTotal.WithLabelValues(mode).Inc()
			}
		}
	}()
}

// stopTicking cancels the tick goroutine and waits for it to exit. It must be
// called with opMu held and without mu.
func (a *Accumulator) stopTicking() {
	if a.run == nil {
		return
	}
	a.run.cancel()
	<-a.run.done
	a.run = nil
}

func (a *Accumulator) flush(ctx context.Context, s Session, trigger string) error {
	if a.flusher == nil || !s.Bound() || !s.Unit.IsTimeBased() || s.ElapsedSeconds <= 0 {
		return nil
	}

	value := habit.ValueFromSeconds(s.Unit, s.ElapsedSeconds)
	if err := a.flusher.Flush(ctx, s.HabitID, value); err != nil {
		a.logger.Error().
			Err(err).
			Str("habit_id", s.HabitID).
			Float64("value", value).
			Msg("Failed to flush timer")
		return fmt.Errorf("flush timer to habit %s: %w", s.HabitID, err)
	}

	metrics.TimerFlushesTotal.WithLabelValues(string(s.Unit), trigger).Inc()
	a.logger.Info().
		Str("habit_id", s.HabitID).
		Str("trigger", trigger).
		Int64("elapsed", s.ElapsedSeconds).
		Float64("value", value).
		Msg("Flushed timer to habit")
	return nil
}
