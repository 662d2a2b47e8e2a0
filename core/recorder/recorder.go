package recorder

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kilianp07/feederwatch/core/logger"
	"github.com/kilianp07/feederwatch/core/metrics"
	"github.com/kilianp07/feederwatch/core/model"
	"github.com/kilianp07/feederwatch/core/monitoring"
	"github.com/kilianp07/feederwatch/core/snapshot"
)

// FaultLog receives a human readable copy of every cycle with faults.
type FaultLog interface {
	Append(snap model.Snapshot) error
}

// Config controls snapshot write retries.
type Config struct {
	// Retries is the number of extra attempts after a failed write.
	Retries int `json:"retries"`
	// BackoffMS is the delay before the first retry, doubled each time.
	BackoffMS int `json:"backoff_ms"`
}

// SetDefaults applies the default retry policy.
func (c *Config) SetDefaults() {
	if c.Retries == 0 {
		c.Retries = 3
	}
	if c.BackoffMS == 0 {
		c.BackoffMS = 100
	}
}

// Validate checks the retry settings.
func (c Config) Validate() error {
	if c.Retries < 0 || c.BackoffMS < 0 {
		return fmt.Errorf("retries and backoff_ms must not be negative")
	}
	return nil
}

// Recorder persists snapshots and feeds the secondary outputs.
type Recorder struct {
	store   snapshot.Store
	log     FaultLog
	sink    metrics.CycleSink
	monitor monitoring.Monitor
	logger  logger.Logger
	retries int
	backoff time.Duration
}

// New returns a Recorder. faultLog, sink and mon may be nil.
func New(cfg Config, store snapshot.Store, faultLog FaultLog, sink metrics.CycleSink, mon monitoring.Monitor, log logger.Logger) *Recorder {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if mon == nil {
		mon = monitoring.NopMonitor{}
	}
	return &Recorder{
		store:   store,
		log:     faultLog,
		sink:    sink,
		monitor: mon,
		logger:  log,
		retries: cfg.Retries,
		backoff: time.Duration(cfg.BackoffMS) * time.Millisecond,
	}
}

// Record writes snap to the store, retrying transient failures, then appends
// it to the fault log and reports the cycle to the metrics sink. A fault log
// or metrics failure never fails the call. elapsed is the cycle wall time.
func (r *Recorder) Record(ctx context.Context, snap model.Snapshot, elapsed time.Duration) (string, error) {
	key, err := r.save(ctx, snap)
	if err != nil {
		r.logger.Errorw("snapshot not persisted", err, logger.CycleFields(snap.CycleNumber, nil))
		r.monitor.CaptureException(err, map[string]string{
			"component": "recorder",
			"cycle":     strconv.Itoa(snap.CycleNumber),
		})
	} else {
		r.logger.Infow("cycle recorded", logger.CycleFields(snap.CycleNumber, logger.Fields{
			"key":     key,
			"faults":  snap.TotalFaults,
			"source":  string(snap.AssignmentSource),
			"elapsed": elapsed.String(),
		}))
	}

	if r.log != nil && snap.TotalFaults > 0 {
		if lerr := r.log.Append(snap); lerr != nil {
			r.logger.Warnf("fault log append for cycle %d: %v", snap.CycleNumber, lerr)
		}
	}

	ev := metrics.CycleEvent{
		Cycle:       snap.CycleNumber,
		Faults:      snap.TotalFaults,
		Source:      snap.AssignmentSource,
		Dropped:     snap.DroppedRecommendations,
		PerFeeder:   snap.Summary.Feeders,
		PerEngineer: snap.Summary.Engineers,
		Duration:    elapsed,
		SnapshotErr: err != nil,
		Time:        snap.Timestamp,
	}
	if merr := r.sink.RecordCycle(ev); merr != nil {
		r.logger.Warnf("metrics for cycle %d: %v", snap.CycleNumber, merr)
	}
	return key, err
}

func (r *Recorder) save(ctx context.Context, snap model.Snapshot) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= r.retries; attempt++ {
		key, err := r.store.Save(ctx, snap)
		if err == nil {
			return key, nil
		}
		// A key collision will not go away by retrying.
		if errors.Is(err, snapshot.ErrExists) {
			return "", err
		}
		lastErr = err
		r.logger.Warnf("snapshot write attempt %d failed: %v", attempt+1, err)
		if attempt == r.retries {
			break
		}
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("snapshot write cancelled: %w", ctx.Err())
		case <-time.After(r.backoff * time.Duration(1<<attempt)):
		}
	}
	return "", fmt.Errorf("snapshot write failed after %d attempts: %w", r.retries+1, lastErr)
}
