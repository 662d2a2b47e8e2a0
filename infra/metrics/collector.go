package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/feederwatch/core/events"
	coremetrics "github.com/kilianp07/feederwatch/core/metrics"
	"github.com/kilianp07/feederwatch/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records advisor and
// ticket events on sinks that support them. Cycle events are recorded by
// the recorder directly. It stops when the context is canceled.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.CycleSink) {
	if bus == nil || sink == nil {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				collect(sink, ev)
			}
		}
	}()
}

func collect(sink coremetrics.CycleSink, ev eventbus.Event) {
	switch e := ev.(type) {
	case events.AdvisorCalled:
		if r, ok := sink.(coremetrics.AdvisorRecorder); ok {
			errStr := ""
			if e.Err != nil {
				errStr = e.Err.Error()
			}
			_ = r.RecordAdvisorCall(coremetrics.AdvisorEvent{
				Success: e.Err == nil,
				Usable:  e.Usable,
				Latency: e.Latency,
				Error:   errStr,
				Time:    time.Now(),
			})
		}
	case events.TicketChanged:
		if r, ok := sink.(coremetrics.TicketRecorder); ok {
			_ = r.RecordTicket(coremetrics.TicketEvent{Action: e.Action, Time: time.Now()})
		}
	}
}
