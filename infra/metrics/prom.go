package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/feederwatch/core/metrics"
)

// PromSink records cycle events in Prometheus metrics.
type PromSink struct {
	cycles          prometheus.Counter
	faults          *prometheus.CounterVec
	assignments     *prometheus.CounterVec
	dropped         prometheus.Counter
	snapshotErrors  prometheus.Counter
	cycleDuration   prometheus.Histogram
	lastFaults      prometheus.Gauge
	advisorFailures prometheus.Counter
	advisorLatency  prometheus.Histogram
	tickets         *prometheus.CounterVec
}

// NewPromSink registers cycle metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered under the same name are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.cycles, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feederwatch_cycles_total",
		Help: "Number of completed monitoring cycles",
	})); err != nil {
		return nil, err
	}
	if s.faults, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feederwatch_faults_total",
		Help: "Detected faults by feeder",
	}, []string{"feeder"})); err != nil {
		return nil, err
	}
	if s.assignments, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feederwatch_assignments_total",
		Help: "Fault assignments by engineer and source",
	}, []string{"engineer", "source"})); err != nil {
		return nil, err
	}
	if s.dropped, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feederwatch_recommendations_dropped_total",
		Help: "Advisor assignments that could not be resolved",
	})); err != nil {
		return nil, err
	}
	if s.snapshotErrors, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feederwatch_snapshot_write_failures_total",
		Help: "Cycles whose snapshot could not be persisted",
	})); err != nil {
		return nil, err
	}
	if s.cycleDuration, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "feederwatch_cycle_duration_seconds",
		Help:    "Wall time spent in one cycle",
		Buckets: prometheus.DefBuckets,
	})); err != nil {
		return nil, err
	}
	if s.lastFaults, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "feederwatch_last_cycle_faults",
		Help: "Number of faults detected in the latest cycle",
	})); err != nil {
		return nil, err
	}
	if s.advisorFailures, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feederwatch_advisor_failures_total",
		Help: "Advisor calls that failed or returned no usable assignment",
	})); err != nil {
		return nil, err
	}
	if s.advisorLatency, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "feederwatch_advisor_latency_seconds",
		Help:    "Duration of advisor calls",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})); err != nil {
		return nil, err
	}
	if s.tickets, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feederwatch_tickets_total",
		Help: "Ticket operations by action",
	}, []string{"action"})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, err
	}
	return c, nil
}

// RecordCycle updates the cycle counters.
func (s *PromSink) RecordCycle(ev coremetrics.CycleEvent) error {
	s.cycles.Inc()
	s.lastFaults.Set(float64(ev.Faults))
	s.cycleDuration.Observe(ev.Duration.Seconds())
	for feeder, n := range ev.PerFeeder {
		s.faults.WithLabelValues(feeder).Add(float64(n))
	}
	for eng, n := range ev.PerEngineer {
		s.assignments.WithLabelValues(eng, string(ev.Source)).Add(float64(n))
	}
	if ev.Dropped > 0 {
		s.dropped.Add(float64(ev.Dropped))
	}
	if ev.SnapshotErr {
		s.snapshotErrors.Inc()
	}
	return nil
}

// RecordAdvisorCall observes the latency and counts failures.
func (s *PromSink) RecordAdvisorCall(ev coremetrics.AdvisorEvent) error {
	s.advisorLatency.Observe(ev.Latency.Seconds())
	if !ev.Success || !ev.Usable {
		s.advisorFailures.Inc()
	}
	return nil
}

// RecordTicket counts ticket operations.
func (s *PromSink) RecordTicket(ev coremetrics.TicketEvent) error {
	s.tickets.WithLabelValues(ev.Action).Inc()
	return nil
}
