package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/kilianp07/feederwatch/core/metrics"
	"github.com/kilianp07/feederwatch/core/model"
)

func TestPromSinkRecordCycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	s, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	ev := coremetrics.CycleEvent{
		Cycle:       1,
		Faults:      3,
		Source:      model.SourceHeuristic,
		Dropped:     2,
		PerFeeder:   map[string]int{"Zone-A / Feeder-1": 2, "Zone-B / Feeder-3": 1},
		PerEngineer: map[string]int{"Eng. Riya": 3},
		Duration:    10 * time.Millisecond,
		SnapshotErr: true,
	}
	if err := s.RecordCycle(ev); err != nil {
		t.Fatalf("record: %v", err)
	}
	if v := testutil.ToFloat64(s.cycles); v != 1 {
		t.Fatalf("cycles %v", v)
	}
	if v := testutil.ToFloat64(s.faults.WithLabelValues("Zone-A / Feeder-1")); v != 2 {
		t.Fatalf("feeder faults %v", v)
	}
	if v := testutil.ToFloat64(s.assignments.WithLabelValues("Eng. Riya", "heuristic")); v != 3 {
		t.Fatalf("assignments %v", v)
	}
	if v := testutil.ToFloat64(s.dropped); v != 2 {
		t.Fatalf("dropped %v", v)
	}
	if v := testutil.ToFloat64(s.snapshotErrors); v != 1 {
		t.Fatalf("snapshot errors %v", v)
	}
	if v := testutil.ToFloat64(s.lastFaults); v != 3 {
		t.Fatalf("last faults %v", v)
	}
}

func TestPromSinkAdvisorFailures(t *testing.T) {
	reg := prometheus.NewRegistry()
	s, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	_ = s.RecordAdvisorCall(coremetrics.AdvisorEvent{Success: true, Usable: true, Latency: time.Second})
	_ = s.RecordAdvisorCall(coremetrics.AdvisorEvent{Success: false, Error: "timeout"})
	_ = s.RecordAdvisorCall(coremetrics.AdvisorEvent{Success: true, Usable: false})
	if v := testutil.ToFloat64(s.advisorFailures); v != 2 {
		t.Fatalf("advisor failures %v", v)
	}
	_ = s.RecordTicket(coremetrics.TicketEvent{Action: "raise"})
	if v := testutil.ToFloat64(s.tickets.WithLabelValues("raise")); v != 1 {
		t.Fatalf("tickets %v", v)
	}
}

func TestPromSinkReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	b, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	_ = a.RecordCycle(coremetrics.CycleEvent{})
	_ = b.RecordCycle(coremetrics.CycleEvent{})
	if v := testutil.ToFloat64(b.cycles); v != 2 {
		t.Fatalf("expected shared counter, got %v", v)
	}
}

func TestRegisterConflict(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGauge(prometheus.GaugeOpts{Name: "feederwatch_cycles_total", Help: "x"}))
	if _, err := NewPromSinkWithRegistry(reg); err == nil {
		t.Fatal("expected error for conflicting descriptor")
	}
}
