package metrics

import (
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// Log mutation metrics
	LogMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habitd_log_mutations_total",
			Help: "Total log writes applied to habits",
		},
		[]string{"unit", "source"},
	)

	StreakChangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habitd_streak_changes_total",
			Help: "Streak increments and decrements caused by log writes",
		},
		[]string{"direction"},
	)

	// Timer metrics
	TimerFlushesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habitd_timer_flushes_total",
			Help: "Timer sessions flushed into a habit log",
		},
		[]string{"unit", "trigger"},
	)

	TimerSecondsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habitd_timer_seconds_total",
			Help: "Seconds counted by focus timers",
		},
		[]string{"mode"},
	)

	// Storage cache metrics
	CacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "habitd_storage_cache_hits_total",
			Help: "Habit cache hits",
		},
	)

	CacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "habitd_storage_cache_misses_total",
			Help: "Habit cache misses",
		},
	)

	// Exported habit state
	HabitCompletion = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "habitd_habit_completion_percent",
			Help: "Current completion percentage per habit",
		},
		[]string{"habit_id", "name", "frequency"},
	)

	HabitStreak = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "habitd_habit_streak",
			Help: "Current streak per habit",
		},
		[]string{"habit_id", "name"},
	)

	HabitsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "habitd_habits",
			Help: "Number of habits in the store",
		},
	)

	HabitsMisconfigured = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "habitd_habits_misconfigured",
			Help: "Habits whose target is unusable, reported at 0% completion",
		},
	)
)

// activityCollectors are updated by the commands that change habits. Those
// commands exit before anything could scrape them, so they push instead.
var activityCollectors = []prometheus.Collector{
	LogMutationsTotal,
	StreakChangesTotal,
	TimerFlushesTotal,
	TimerSecondsTotal,
	CacheHits,
	CacheMisses,
}

func init() {
	// Register all metrics
	prometheus.MustRegister(
		LogMutationsTotal,
		StreakChangesTotal,
		TimerFlushesTotal,
		TimerSecondsTotal,
		CacheHits,
		CacheMisses,
		HabitCompletion,
		HabitStreak,
		HabitsTotal,
		HabitsMisconfigured,
	)
}

// Server is the metrics HTTP server
type Server struct {
	server   *http.Server
	logger   zerolog.Logger
	listener net.Listener // Optional pre-created listener (for systemd socket activation)
}

// NewServer creates a new metrics server
func NewServer(addr string, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// SetListener sets a pre-created listener for systemd socket activation
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.server.Addr
}

// Start starts the metrics server
func (s *Server) Start() error {
	if s.listener == nil {
		ln, err := net.Listen("tcp", s.server.Addr)
		if err != nil {
			return err
		}
		s.listener = ln
	}

	s.logger.Info().Str("addr", s.listener.Addr().String()).Msg("Starting metrics server")
	go func() {
		if err := s.server.Serve(s.listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
	return nil
}

// Stop stops the metrics server
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping metrics server")
	return s.server.Close()
}
