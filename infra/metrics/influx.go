package metrics

import (
	"context"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/feederwatch/core/metrics"
	"github.com/kilianp07/feederwatch/infra/logger"
)

// InfluxSink writes cycle events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink when the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.CycleSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordCycle writes a cycle point followed by one point per affected feeder.
func (s *InfluxSink) RecordCycle(ev coremetrics.CycleEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("monitoring_cycle").
		AddTag("source", string(ev.Source)).
		AddTag("component", "scheduler").
		AddField("cycle", ev.Cycle).
		AddField("faults", ev.Faults).
		AddField("dropped", ev.Dropped).
		AddField("duration_ms", round3(ev.Duration.Seconds()*1000)).
		AddField("snapshot_error", ev.SnapshotErr).
		SetTime(ev.Time)
	if err := s.writeAPI.WritePoint(ctx, p); err != nil {
		return err
	}
	feeders := make([]string, 0, len(ev.PerFeeder))
	for f := range ev.PerFeeder {
		feeders = append(feeders, f)
	}
	sort.Strings(feeders)
	for _, f := range feeders {
		fp := write.NewPointWithMeasurement("feeder_faults").
			AddTag("feeder", f).
			AddField("cycle", ev.Cycle).
			AddField("faults", ev.PerFeeder[f]).
			SetTime(ev.Time)
		if err := s.writeAPI.WritePoint(ctx, fp); err != nil {
			return err
		}
	}
	return nil
}

// RecordAdvisorCall writes the outcome of an advisor call.
func (s *InfluxSink) RecordAdvisorCall(ev coremetrics.AdvisorEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("advisor_call").
		AddTag("component", "advisor").
		AddField("success", ev.Success).
		AddField("usable", ev.Usable).
		AddField("latency_ms", round3(ev.Latency.Seconds()*1000)).
		AddField("error", ev.Error).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
