package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

type pushRecord struct {
	method string
	path   string
	body   string
}

func TestPushSendsActivityCounters(t *testing.T) {
	var (
		mu  sync.Mutex
		got []pushRecord
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		got = append(got, pushRecord{method: r.Method, path: r.URL.Path, body: string(data)})
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	CacheHits.Inc()
	LogMutationsTotal.WithLabelValues("minutes", "cli").Inc()

	if err := Push(context.Background(), srv.URL, "laptop"); err != nil {
		t.Fatalf("Push() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Fatalf("pushgateway received %d requests, want 1", len(got))
	}
	req := got[0]
	if req.method != http.MethodPut {
		t.Errorf("method = %s, want PUT", req.method)
	}
	if req.path != "/metrics/job/habitd/instance/laptop" {
		t.Errorf("path = %s", req.path)
	}
	for _, name := range []string{"habitd_storage_cache_hits_total", "habitd_log_mutations_total"} {
		if !strings.Contains(req.body, name) {
			t.Errorf("pushed body does not contain %s", name)
		}
	}
	if strings.Contains(req.body, "habitd_habit_streak") {
		t.Error("pushed body contains exporter gauges")
	}
}

func TestPushReportsGatewayErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if err := Push(context.Background(), srv.URL, "laptop"); err == nil {
		t.Fatal("expected error from failing pushgateway")
	}
}
