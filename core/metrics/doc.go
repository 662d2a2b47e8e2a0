// Package metrics defines the sinks that observe monitoring cycles. The
// scheduler and recorder report a CycleEvent per cycle and optional sinks
// also record advisor calls. Sinks are built from configuration through a
// registry and combined with NewMultiSink when several are configured.
package metrics
