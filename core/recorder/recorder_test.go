package recorder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/feederwatch/core/assignment"
	"github.com/kilianp07/feederwatch/core/metrics"
	"github.com/kilianp07/feederwatch/core/model"
	"github.com/kilianp07/feederwatch/core/snapshot"
	"github.com/kilianp07/feederwatch/infra/logger"
)

type flakyStore struct {
	failures int
	err      error
	saved    []model.Snapshot
	calls    int
}

func (f *flakyStore) Save(_ context.Context, s model.Snapshot) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", f.err
	}
	f.saved = append(f.saved, s)
	return snapshot.Key(s.CycleNumber, s.Timestamp), nil
}

func (f *flakyStore) List(context.Context) (snapshot.Listing, error) {
	return snapshot.Listing{Snapshots: f.saved}, nil
}

func (f *flakyStore) Latest(context.Context) (*model.Snapshot, error) { return nil, nil }

func (f *flakyStore) Close() error { return nil }

type failingLog struct{ calls int }

func (l *failingLog) Append(model.Snapshot) error {
	l.calls++
	return errors.New("disk full")
}

type cycleSink struct{ events []metrics.CycleEvent }

func (c *cycleSink) RecordCycle(ev metrics.CycleEvent) error {
	c.events = append(c.events, ev)
	return nil
}

type captureMonitor struct{ errs []error }

func (c *captureMonitor) CaptureException(err error, _ map[string]string) {
	c.errs = append(c.errs, err)
}

func (c *captureMonitor) Recover() {}

func (c *captureMonitor) Flush(time.Duration) {}

func sampleResult() assignment.Result {
	d := 1.234
	return assignment.Result{
		Source: model.SourceHeuristic,
		Assignments: []model.Assignment{
			{Fault: model.Fault{CustomerID: 1, FeederName: "Zone-A / Feeder-1", ChangePercentage: 75.456, Location: model.Coordinate{Lat: 1, Lon: 2}}, Engineer: "Eng. Riya", DistanceKM: &d},
			{Fault: model.Fault{CustomerID: 2, FeederName: "Zone-A / Feeder-1", ChangePercentage: -50}, Engineer: "Eng. Neha"},
			{Fault: model.Fault{CustomerID: 3, FeederName: "Zone-C / Feeder-4", ChangePercentage: 20}, Engineer: "Eng. Riya"},
		},
	}
}

func TestBuildZeroFaults(t *testing.T) {
	snap := Build(1, time.Now(), assignment.Result{}, nil)
	require.NotNil(t, snap.Faults)
	require.NotNil(t, snap.Summary.Feeders)
	require.NotNil(t, snap.Summary.Engineers)
	assert.Zero(t, snap.TotalFaults)
	assert.Equal(t, model.SourceHeuristic, snap.AssignmentSource)
	assert.Nil(t, snap.AIAnalysis)
	assert.Equal(t, model.ChangeStats{}, snap.Summary.ChangeStats)
}

func TestBuildSummaryMatchesFaults(t *testing.T) {
	rec := &model.Analysis{PatternsDetected: []string{"x"}}
	res := sampleResult()
	res.Dropped = 2
	snap := Build(5, time.Unix(0, 0), res, rec)
	assert.Equal(t, 5, snap.CycleNumber)
	assert.Equal(t, 3, snap.TotalFaults)
	assert.Equal(t, 2, snap.DroppedRecommendations)
	assert.Same(t, rec, snap.AIAnalysis)
	assert.Equal(t, map[string]int{"Zone-A / Feeder-1": 2, "Zone-C / Feeder-4": 1}, snap.Summary.Feeders)
	assert.Equal(t, map[string]int{"Eng. Riya": 2, "Eng. Neha": 1}, snap.Summary.Engineers)
	assert.Equal(t, Tally(snap.Faults), snap.Summary)

	first := snap.Faults[0]
	assert.Equal(t, 75.46, first.ChangePercentage)
	assert.Equal(t, 1.0, first.Latitude)
	assert.Equal(t, 2.0, first.Longitude)
	require.NotNil(t, first.DistanceKM)
	assert.Nil(t, snap.Faults[1].DistanceKM)

	stats := snap.Summary.ChangeStats
	assert.InDelta(t, 15.15, stats.Mean, 0.01)
	assert.Equal(t, 75.46, stats.MaxAbs)
	assert.Greater(t, stats.StdDev, 0.0)
}

func TestTallySingleFaultHasZeroStdDev(t *testing.T) {
	sum := Tally([]model.SnapshotFault{{FeederName: "f", AssignedEngineer: "e", ChangePercentage: -40}})
	assert.Equal(t, 0.0, sum.ChangeStats.StdDev)
	assert.Equal(t, 40.0, sum.ChangeStats.MaxAbs)
}

func TestRecordRetriesThenSucceeds(t *testing.T) {
	store := &flakyStore{failures: 2, err: errors.New("transient")}
	sink := &cycleSink{}
	r := New(Config{Retries: 3, BackoffMS: 1}, store, nil, sink, nil, logger.NopLogger{})
	snap := Build(1, time.Now(), sampleResult(), nil)
	key, err := r.Record(context.Background(), snap, time.Millisecond)
	require.NoError(t, err)
	assert.NotEmpty(t, key)
	assert.Equal(t, 3, store.calls)
	require.Len(t, sink.events, 1)
	assert.False(t, sink.events[0].SnapshotErr)
	assert.Equal(t, 3, sink.events[0].Faults)
}

func TestRecordGivesUpAndReports(t *testing.T) {
	store := &flakyStore{failures: 10, err: errors.New("unavailable")}
	sink := &cycleSink{}
	mon := &captureMonitor{}
	r := New(Config{Retries: 1, BackoffMS: 1}, store, nil, sink, mon, logger.NopLogger{})
	_, err := r.Record(context.Background(), Build(2, time.Now(), sampleResult(), nil), 0)
	require.Error(t, err)
	assert.Equal(t, 2, store.calls)
	assert.Len(t, mon.errs, 1)
	require.Len(t, sink.events, 1)
	assert.True(t, sink.events[0].SnapshotErr)
}

func TestRecordDoesNotRetryExisting(t *testing.T) {
	store := &flakyStore{failures: 10, err: snapshot.ErrExists}
	r := New(Config{Retries: 3, BackoffMS: 1}, store, nil, nil, nil, logger.NopLogger{})
	_, err := r.Record(context.Background(), Build(2, time.Now(), sampleResult(), nil), 0)
	assert.ErrorIs(t, err, snapshot.ErrExists)
	assert.Equal(t, 1, store.calls)
}

func TestFaultLogFailureDoesNotFailRecord(t *testing.T) {
	store := &flakyStore{}
	fl := &failingLog{}
	r := New(Config{}, store, fl, nil, nil, logger.NopLogger{})
	_, err := r.Record(context.Background(), Build(1, time.Now(), sampleResult(), nil), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, fl.calls)
	assert.Len(t, store.saved, 1)
}

func TestFaultLogSkippedWithoutFaults(t *testing.T) {
	fl := &failingLog{}
	r := New(Config{}, &flakyStore{}, fl, nil, nil, logger.NopLogger{})
	_, err := r.Record(context.Background(), Build(1, time.Now(), assignment.Result{}, nil), 0)
	require.NoError(t, err)
	assert.Zero(t, fl.calls)
}

func TestRecordHonoursCancellation(t *testing.T) {
	store := &flakyStore{failures: 10, err: errors.New("down")}
	r := New(Config{Retries: 5, BackoffMS: 1000}, store, nil, nil, nil, logger.NopLogger{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Record(ctx, Build(1, time.Now(), sampleResult(), nil), 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, store.calls)
}
