package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/goodtune/habitd/internal/exporter"
	"github.com/goodtune/habitd/internal/metrics"
	"github.com/goodtune/habitd/internal/systemd"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve habit progress as Prometheus metrics",
	Long: `Serve /metrics and /health. Habit completion, streaks and totals are
refreshed from storage every metrics.refresh_interval. SIGHUP forces an
immediate refresh.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := loadApp(appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger

	logger.Info().
		Str("version", version).
		Str("config", configPath).
		Str("storage", a.cfg.Storage.Type).
		Msg("Starting habitd exporter")

	// Check for systemd socket activation
	sdListeners, err := systemd.GetListeners()
	if err != nil {
		return fmt.Errorf("failed to get systemd listeners: %w", err)
	}
	if sdListeners.Activated {
		logger.Info().Msg("Running with systemd socket activation")
	}

	exp := exporter.New(a.tracker, a.cfg.Metrics.RefreshDuration(), logger)
	exp.Start()
	defer exp.Stop()

	metricsServer := metrics.NewServer(a.cfg.Metrics.Addr(), logger)

	// Use systemd socket-activated listener if available
	if sdListeners.Metrics != nil {
		metricsServer.SetListener(sdListeners.Metrics)
	}

	if err := metricsServer.Start(); err != nil {
		return fmt.Errorf("failed to start Metrics Server: %w", err)
	}

	logger.Info().Msgf("Metrics: http://%s/metrics", metricsServer.Addr())

	// Notify systemd that we're ready to serve requests
	if err := systemd.NotifyReady(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd ready notification")
	} else {
		logger.Debug().Msg("Sent systemd ready notification")
	}

	// Wait for signals (shutdown or refresh)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	for sig := range sigChan {
		if sig != syscall.SIGHUP {
			logger.Info().Msg("Shutdown signal received, gracefully stopping...")
			break
		}

		logger.Info().Msg("SIGHUP received, refreshing habit metrics...")
		if err := exp.Refresh(cmd.Context()); err != nil {
			logger.Error().Err(err).Msg("Failed to refresh habit metrics")
			continue
		}
		if err := systemd.NotifyStatus("metrics refreshed"); err != nil {
			logger.Debug().Err(err).Msg("Failed to send systemd status")
		}
	}

	// Notify systemd that we're stopping
	if err := systemd.NotifyStopping(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd stopping notification")
	}

	if err := metricsServer.Stop(); err != nil {
		logger.Error().Err(err).Msg("Error stopping Metrics Server")
	}

	logger.Info().Msg("habitd exporter stopped")
	return nil
}
