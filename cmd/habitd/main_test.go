package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/goodtune/habitd/internal/config"
	"github.com/goodtune/habitd/internal/habit"
	"github.com/goodtune/habitd/internal/storage/cache"
	"github.com/goodtune/habitd/internal/storage/memory"
	"github.com/rs/zerolog"
)

func TestOpenStorage(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.StorageConfig
		useCache bool
		cached   bool
		wantErr  bool
	}{
		{name: "memory", cfg: config.StorageConfig{Type: "memory"}},
		{name: "memory cached", cfg: config.StorageConfig{Type: "memory", CacheSize: 4}, useCache: true, cached: true},
		{name: "long running skips cache", cfg: config.StorageConfig{Type: "memory", CacheSize: 4}},
		{name: "bolt", cfg: config.StorageConfig{Type: "bolt", Path: filepath.Join(t.TempDir(), "h.bolt")}},
		{name: "sqlite", cfg: config.StorageConfig{Type: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "h.db")}},
		{name: "unknown", cfg: config.StorageConfig{Type: "mongo"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := openStorage(tt.cfg, tt.useCache)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("openStorage() error = %v", err)
			}
			defer store.Close()

			if _, ok := store.(*cache.Store); ok != tt.cached {
				t.Fatalf("cached = %v, want %v", ok, tt.cached)
			}
		})
	}
}

func TestDefaultStorageSharedAcrossCommands(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := config.Defaults()
	ctx := context.Background()

	// serve and timer keep their store open for the life of the process.
	daemon, err := openStorage(cfg.Storage, false)
	if err != nil {
		t.Fatalf("open long-running store: %v", err)
	}
	defer daemon.Close()

	created, err := daemon.Habits().Create(ctx, habit.Habit{
		Name: "Read", Frequency: habit.FrequencyDaily, Unit: habit.UnitPages, TargetValue: 20,
	})
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}

	command, err := openStorage(cfg.Storage, true)
	if err != nil {
		t.Fatalf("open command store on %s while another is open: %v", cfg.Storage.Path, err)
	}
	got, err := command.Habits().Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get habit from command store: %v", err)
	}
	got.Logs = habit.Logs{"2025-05-01": 12}
	if err := command.Habits().Update(ctx, *got); err != nil {
		t.Fatalf("update habit from command store: %v", err)
	}
	if err := command.Close(); err != nil {
		t.Fatalf("close command store: %v", err)
	}

	seen, err := daemon.Habits().Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get habit from long-running store: %v", err)
	}
	if seen.Logs.Get("2025-05-01") != 12 {
		t.Fatalf("long-running store logs = %v, want the command's write", seen.Logs)
	}
}

func TestClosePushesActivityWhenConfigured(t *testing.T) {
	var pushes atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/metrics/job/habitd/") {
			pushes.Add(1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := config.Defaults()
	cfg.Metrics.PushgatewayURL = srv.URL

	newTestApp := func(opts appOptions) *app {
		return &app{cfg: cfg, logger: zerolog.Nop(), store: memory.New(), opts: opts}
	}

	newTestApp(appOptions{cached: true, push: true}).Close()
	if got := pushes.Load(); got != 1 {
		t.Fatalf("pushes after command = %d, want 1", got)
	}

	// serve is scraped directly and never pushes.
	newTestApp(appOptions{}).Close()
	if got := pushes.Load(); got != 1 {
		t.Fatalf("pushes after serve = %d, want 1", got)
	}
}

func TestParseToggle(t *testing.T) {
	for _, in := range []string{"on", "ON", "done", "yes", "true"} {
		if got, err := parseToggle(in); err != nil || !got {
			t.Errorf("parseToggle(%q) = %v, %v", in, got, err)
		}
	}
	for _, in := range []string{"off", "undone", "no", "false"} {
		if got, err := parseToggle(in); err != nil || got {
			t.Errorf("parseToggle(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := parseToggle("maybe"); err == nil {
		t.Error("parseToggle(maybe) should fail")
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		pct  int
		want string
	}{
		{0, "[----------]"},
		{45, "[####------]"},
		{100, "[##########]"},
		{150, "[##########]"},
		{-3, "[----------]"},
	}
	for _, tt := range tests {
		if got := progressBar(tt.pct, 10); got != tt.want {
			t.Errorf("progressBar(%d) = %q, want %q", tt.pct, got, tt.want)
		}
	}
}

func TestFlattenConfigMarksOverrides(t *testing.T) {
	cfg := config.Defaults()
	cfg.Storage.Type = "sqlite"

	current, err := flattenConfig(cfg)
	if err != nil {
		t.Fatalf("flattenConfig() error = %v", err)
	}
	defaults, err := flattenConfig(config.Defaults())
	if err != nil {
		t.Fatalf("flattenConfig() error = %v", err)
	}

	if current["storage.type"] != "sqlite" || defaults["storage.type"] != "bolt" {
		t.Fatalf("storage.type = %v / %v", current["storage.type"], defaults["storage.type"])
	}
	if current["storage.redis.port"] != defaults["storage.redis.port"] {
		t.Fatalf("untouched key differs: %v / %v", current["storage.redis.port"], defaults["storage.redis.port"])
	}
}
