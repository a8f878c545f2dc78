package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Storage.Type != "bolt" {
		t.Errorf("storage type = %q, want bolt", cfg.Storage.Type)
	}
	if cfg.Storage.Redis.KeyPrefix != "habitd" {
		t.Errorf("redis key prefix = %q, want habitd", cfg.Storage.Redis.KeyPrefix)
	}
	if cfg.Timer.TickDuration() != time.Second {
		t.Errorf("tick interval = %v, want 1s", cfg.Timer.TickDuration())
	}
	if cfg.Metrics.Addr() != "127.0.0.1:9464" {
		t.Errorf("metrics addr = %q", cfg.Metrics.Addr())
	}
}

func TestLoadFileOverrides(t *testing.T) {
	path := writeConfig(t, `
storage:
  type: sqlite
  sqlite_path: /tmp/habits.db
  cache_size: 0
logging:
  level: debug
  format: json
timer:
  tick_interval: 250ms
metrics:
  port: 9100
  refresh_interval: 5s
labels:
  units:
    pages: Pages read
  frequencies:
    weekly: Every week
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Storage.Type != "sqlite" || cfg.Storage.SQLitePath != "/tmp/habits.db" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Storage.CacheSize != 0 {
		t.Errorf("cache size = %d, want 0", cfg.Storage.CacheSize)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.Timer.TickDuration() != 250*time.Millisecond {
		t.Errorf("tick interval = %v", cfg.Timer.TickDuration())
	}
	if cfg.Metrics.RefreshDuration() != 5*time.Second {
		t.Errorf("refresh interval = %v", cfg.Metrics.RefreshDuration())
	}
	if cfg.Labels.Units["pages"] != "Pages read" {
		t.Errorf("unit labels = %v", cfg.Labels.Units)
	}
	if cfg.Labels.Frequencies["weekly"] != "Every week" {
		t.Errorf("frequency labels = %v", cfg.Labels.Frequencies)
	}
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("HABITD_STORAGE_TYPE", "memory")
	t.Setenv("HABITD_METRICS_PORT", "9200")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage.Type != "memory" {
		t.Errorf("storage type = %q, want memory", cfg.Storage.Type)
	}
	if cfg.Metrics.Port != 9200 {
		t.Errorf("metrics port = %d, want 9200", cfg.Metrics.Port)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown storage", "storage:\n  type: mongo\n", "unknown storage type"},
		{"bad log level", "logging:\n  level: loud\n", "invalid log level"},
		{"bad log format", "logging:\n  format: xml\n", "invalid log format"},
		{"bad tick", "timer:\n  tick_interval: soon\n", "tick_interval"},
		{"zero tick", "timer:\n  tick_interval: 0s\n", "tick_interval"},
		{"bad port", "metrics:\n  port: 70000\n", "invalid metrics port"},
		{"pushgateway without scheme", "metrics:\n  pushgateway_url: gateway:9091\n", "pushgateway_url"},
		{"pushgateway ftp", "metrics:\n  pushgateway_url: ftp://gateway:9091\n", "pushgateway_url"},
		{"bad redis timeout", "storage:\n  type: redis\n  redis:\n    dial_timeout: never\n", "dial_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadPushgatewayURL(t *testing.T) {
	cfg, err := Load(writeConfig(t, "metrics:\n  pushgateway_url: http://gateway:9091\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Metrics.PushgatewayURL != "http://gateway:9091" {
		t.Fatalf("pushgateway_url = %q", cfg.Metrics.PushgatewayURL)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "storage: [unterminated\n")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestDefaultsMatchEmptyLoad(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	defaults := Defaults()
	if defaults.Storage != cfg.Storage || defaults.Timer != cfg.Timer || defaults.Metrics != cfg.Metrics {
		t.Fatalf("Defaults() = %+v, Load() = %+v", defaults, cfg)
	}
}

func TestUnknownKeys(t *testing.T) {
	path := writeConfig(t, `
storage:
  type: memory
  cache_sise: 12
logging:
  level: info
labels:
  units:
    pages: Pages read
server:
  port: 80
`)

	got, err := UnknownKeys(path)
	if err != nil {
		t.Fatalf("UnknownKeys() error = %v", err)
	}
	want := []string{"server.port", "storage.cache_sise"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("UnknownKeys() = %v, want %v", got, want)
	}
}
