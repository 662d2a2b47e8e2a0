package metrics

import "errors"

// MultiSink fans events out to several sinks. Optional recorders are only
// called on the sinks implementing them.
type MultiSink struct {
	Sinks []CycleSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...CycleSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordCycle forwards the event to all sinks and joins their errors.
func (m *MultiSink) RecordCycle(ev CycleEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordCycle(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordAdvisorCall forwards advisor events.
func (m *MultiSink) RecordAdvisorCall(ev AdvisorEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(AdvisorRecorder); ok {
			if err := rec.RecordAdvisorCall(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordTicket forwards ticket events.
func (m *MultiSink) RecordTicket(ev TicketEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(TicketRecorder); ok {
			if err := rec.RecordTicket(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
