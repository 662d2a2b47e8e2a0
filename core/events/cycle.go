package events

import (
	"time"

	"github.com/kilianp07/feederwatch/core/model"
)

// CycleRecorded is published once per cycle. Err is non-nil when the
// snapshot could not be persisted; Key is empty in that case.
type CycleRecorded struct {
	Snapshot model.Snapshot
	Key      string
	Err      error
}

// AdvisorCalled is published after each advisor call.
type AdvisorCalled struct {
	Cycle   int
	Usable  bool
	Latency time.Duration
	Err     error
}
