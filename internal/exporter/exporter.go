// Package exporter publishes per-habit progress as Prometheus gauges.
package exporter

import (
	"context"
	"sync"
	"time"

	"github.com/goodtune/habitd/internal/habit"
	"github.com/goodtune/habitd/internal/metrics"
	"github.com/rs/zerolog"
)

// DefaultRefreshInterval is used when no interval is configured.
const DefaultRefreshInterval = 30 * time.Second

// ProgressSource lists the current progress of every habit.
type ProgressSource interface {
	ListProgress(ctx context.Context) ([]habit.Progress, error)
}

// Exporter periodically copies habit progress into the metrics registry
type Exporter struct {
	source   ProgressSource
	interval time.Duration
	logger   zerolog.Logger
	stopChan chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a new exporter
func New(source ProgressSource, interval time.Duration, logger zerolog.Logger) *Exporter {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Exporter{
		source:   source,
		interval: interval,
		logger:   logger.With().Str("component", "exporter").Logger(),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start refreshes once and then keeps refreshing until Stop
func (e *Exporter) Start() {
	go e.run()
	e.logger.Info().
		Dur("interval", e.interval).
		Msg("Habit exporter started")
}

// Stop stops the refresh loop and waits for it to exit
func (e *Exporter) Stop() {
	e.stopOnce.Do(func() {
		close(e.stopChan)
		<-e.done
		e.logger.Info().Msg("Habit exporter stopped")
	})
}

// run is the main refresh loop
func (e *Exporter) run() {
	defer close(e.done)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		e.refreshWithTimeout()

		select {
		case <-ticker.C:
		case <-e.stopChan:
			return
		}
	}
}

func (e *Exporter) refreshWithTimeout() {
	ctx, cancel := context.WithTimeout(context.Background(), e.interval)
	defer cancel()
	if err := e.Refresh(ctx); err != nil {
		e.logger.Error().Err(err).Msg("Failed to refresh habit metrics")
	}
}

// Refresh replaces the exported gauges with the current progress.
// Habits that no longer exist disappear from the output.
func (e *Exporter) Refresh(ctx context.Context) error {
	views, err := e.source.ListProgress(ctx)
	if err != nil {
		return err
	}

	metrics.HabitCompletion.Reset()
	metrics.HabitStreak.Reset()
	misconfigured := 0
	for _, v := range views {
		metrics.HabitCompletion.WithLabelValues(v.HabitID, v.Name, string(v.Frequency)).Set(float64(v.Completion))
		metrics.HabitStreak.WithLabelValues(v.HabitID, v.Name).Set(float64(v.Streak))
		if v.Warning != nil {
			misconfigured++
		}
	}
	metrics.HabitsTotal.Set(float64(len(views)))
	metrics.HabitsMisconfigured.Set(float64(misconfigured))

	e.logger.Debug().Int("habits", len(views)).Msg("Refreshed habit metrics")
	return nil
}
