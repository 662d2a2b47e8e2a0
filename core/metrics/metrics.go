package metrics

import (
	"time"

	"github.com/kilianp07/feederwatch/core/model"
)

// CycleEvent describes one completed monitoring cycle.
type CycleEvent struct {
	Cycle       int
	Faults      int
	Source      model.AssignmentSource
	Dropped     int
	PerFeeder   map[string]int
	PerEngineer map[string]int
	Duration    time.Duration
	// SnapshotErr is set when the snapshot could not be persisted.
	SnapshotErr bool
	Time        time.Time
}

// CycleSink records cycle events.
type CycleSink interface {
	RecordCycle(ev CycleEvent) error
}

// AdvisorEvent captures one call to the recommendation advisor.
type AdvisorEvent struct {
	Success bool
	// Usable is false when the advisor answered without any assignment.
	Usable  bool
	Latency time.Duration
	Error   string
	Time    time.Time
}

// AdvisorRecorder records advisor calls.
type AdvisorRecorder interface {
	RecordAdvisorCall(ev AdvisorEvent) error
}

// TicketEvent records an operation on the issue tracker.
type TicketEvent struct {
	Action string
	Time   time.Time
}

// TicketRecorder records ticket operations.
type TicketRecorder interface {
	RecordTicket(ev TicketEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordCycle(CycleEvent) error         { return nil }
func (NopSink) RecordAdvisorCall(AdvisorEvent) error { return nil }
func (NopSink) RecordTicket(TicketEvent) error       { return nil }
