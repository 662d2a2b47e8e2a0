package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/feederwatch/core/metrics"
	"github.com/kilianp07/feederwatch/core/model"
)

func collectBodies(t *testing.T) (*httptest.Server, func() []string) {
	t.Helper()
	var mu sync.Mutex
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, strings.TrimSpace(string(data)))
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), bodies...)
	}
}

func TestInfluxSink_RecordCycle(t *testing.T) {
	srv, bodies := collectBodies(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	ev := coremetrics.CycleEvent{
		Cycle:     4,
		Faults:    3,
		Source:    model.SourceAdvisor,
		Dropped:   1,
		PerFeeder: map[string]int{"Zone-B / Feeder-3": 1, "Zone-A / Feeder-1": 2},
		Duration:  1500 * time.Microsecond,
		Time:      now,
	}
	if err := sink.RecordCycle(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("monitoring_cycle").
		AddTag("source", "advisor").
		AddTag("component", "scheduler").
		AddField("cycle", 4).
		AddField("faults", 3).
		AddField("dropped", 1).
		AddField("duration_ms", 1.5).
		AddField("snapshot_error", false).
		SetTime(now)
	f1 := write.NewPointWithMeasurement("feeder_faults").
		AddTag("feeder", "Zone-A / Feeder-1").
		AddField("cycle", 4).
		AddField("faults", 2).
		SetTime(now)
	got := bodies()
	if len(got) != 3 {
		t.Fatalf("expected 3 writes, got %d: %#v", len(got), got)
	}
	if got[0] != strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond)) {
		t.Errorf("unexpected cycle body: %s", got[0])
	}
	if got[1] != strings.TrimSpace(write.PointToLineProtocol(f1, time.Nanosecond)) {
		t.Errorf("unexpected feeder body: %s", got[1])
	}
}

func TestInfluxSink_RecordAdvisorCall(t *testing.T) {
	srv, bodies := collectBodies(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	if err := sink.RecordAdvisorCall(coremetrics.AdvisorEvent{Success: false, Latency: time.Second, Error: "timeout", Time: now}); err != nil {
		t.Fatalf("record: %v", err)
	}
	p := write.NewPointWithMeasurement("advisor_call").
		AddTag("component", "advisor").
		AddField("success", false).
		AddField("usable", false).
		AddField("latency_ms", 1000.0).
		AddField("error", "timeout").
		SetTime(now)
	got := bodies()
	if len(got) != 1 || got[0] != strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond)) {
		t.Errorf("bodies: %#v", got)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
