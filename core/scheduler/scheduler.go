package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kilianp07/feederwatch/core/advisor"
	"github.com/kilianp07/feederwatch/core/assignment"
	"github.com/kilianp07/feederwatch/core/detector"
	"github.com/kilianp07/feederwatch/core/events"
	"github.com/kilianp07/feederwatch/core/logger"
	"github.com/kilianp07/feederwatch/core/model"
	"github.com/kilianp07/feederwatch/core/monitoring"
	"github.com/kilianp07/feederwatch/core/population"
	"github.com/kilianp07/feederwatch/core/recorder"
	"github.com/kilianp07/feederwatch/internal/eventbus"
)

// State of the loop.
type State int32

const (
	StateIdle State = iota
	StateRunning
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "idle"
}

// Deps groups the collaborators of a Scheduler. Advisor, Bus, Monitor and
// Clock are optional.
type Deps struct {
	Population *population.Population
	Detector   *detector.Detector
	Advisor    advisor.Advisor
	Recorder   *recorder.Recorder
	Bus        eventbus.EventBus
	Logger     logger.Logger
	Monitor    monitoring.Monitor
	Clock      func() time.Time
}

// Scheduler runs monitoring cycles one at a time.
type Scheduler struct {
	cfg     Config
	pop     *population.Population
	det     *detector.Detector
	adv     advisor.Advisor
	engine  *assignment.Engine
	rec     *recorder.Recorder
	bus     eventbus.EventBus
	log     logger.Logger
	monitor monitoring.Monitor
	clock   func() time.Time

	mu    sync.Mutex
	next  int
	state atomic.Int32
}

// New validates deps and returns an idle Scheduler whose first cycle is 1.
func New(cfg Config, deps Deps) (*Scheduler, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Population == nil || deps.Detector == nil || deps.Recorder == nil {
		return nil, errors.New("scheduler requires population, detector and recorder")
	}
	if deps.Logger == nil {
		return nil, errors.New("scheduler requires a logger")
	}
	if deps.Advisor == nil {
		deps.Advisor = advisor.NopAdvisor{}
	}
	if deps.Monitor == nil {
		deps.Monitor = monitoring.NopMonitor{}
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &Scheduler{
		cfg:     cfg,
		pop:     deps.Population,
		det:     deps.Detector,
		adv:     deps.Advisor,
		engine:  assignment.NewEngine(deps.Population, deps.Logger),
		rec:     deps.Recorder,
		bus:     deps.Bus,
		log:     deps.Logger,
		monitor: deps.Monitor,
		clock:   deps.Clock,
		next:    1,
	}, nil
}

// StartAt sets the number of the next cycle. Values below 1 are ignored.
func (s *Scheduler) StartAt(n int) {
	if n < 1 {
		return
	}
	s.mu.Lock()
	s.next = n
	s.mu.Unlock()
}

// NextCycle returns the number the next cycle will get.
func (s *Scheduler) NextCycle() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// State reports whether a cycle is in progress.
func (s *Scheduler) State() State { return State(s.state.Load()) }

// Run executes cycles until ctx is cancelled or MaxCycles is reached,
// pausing Interval between the end of one cycle and the start of the next.
// Cycle errors are logged and never stop the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Infof("monitoring loop started, interval %s", s.cfg.Interval())
	done := 0
	for {
		if ctx.Err() != nil {
			s.log.Infof("monitoring loop stopped after %d cycles", done)
			return nil
		}
		if _, err := s.RunCycle(ctx); err != nil {
			s.log.Errorw("cycle failed", err, nil)
		}
		done++
		if s.cfg.MaxCycles > 0 && done >= s.cfg.MaxCycles {
			s.log.Infof("monitoring loop finished %d cycles", done)
			return nil
		}
		select {
		case <-ctx.Done():
			s.log.Infof("monitoring loop stopped after %d cycles", done)
			return nil
		case <-time.After(s.cfg.Interval()):
		}
	}
}

// RunCycle executes one full cycle and returns its snapshot. The snapshot is
// returned even when persisting it failed. A panic in any component is
// recovered and reported to the monitor. The cycle is then recorded without
// faults, with Error set, and the *monitoring.PanicError is returned.
func (s *Scheduler) RunCycle(ctx context.Context) (snap model.Snapshot, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cycle := s.next
	s.next++
	s.state.Store(int32(StateRunning))
	defer s.state.Store(int32(StateIdle))

	defer func() {
		if r := recover(); r != nil {
			perr := monitoring.NewPanicError(r)
			s.monitor.CaptureException(perr, s.tags(cycle, "scheduler"))
			s.log.Errorf("cycle %d panicked: %v", cycle, r)
			err = fmt.Errorf("cycle %d: %w", cycle, perr)
			snap = recorder.Build(cycle, s.clock(), assignment.Result{}, nil)
			snap.Error = perr.Error()
			key, rerr := s.rec.Record(ctx, snap, 0)
			if rerr != nil {
				s.log.Errorf("cycle %d: failed to record aborted cycle: %v", cycle, rerr)
			}
			if s.bus != nil {
				s.bus.Publish(events.CycleRecorded{Snapshot: snap, Key: key, Err: rerr})
			}
		}
	}()

	start := s.clock()
	s.pop.ResetWorkloads()
	faults := s.det.Scan(s.pop)
	s.log.Infof("cycle %d: %d faults detected", cycle, len(faults))

	var rec *model.Analysis
	if len(faults) > 0 {
		rec = s.advise(ctx, cycle, faults)
	}
	res := s.engine.Assign(faults, rec)
	snap = recorder.Build(cycle, s.clock(), res, rec)

	key, err := s.rec.Record(ctx, snap, s.clock().Sub(start))
	if s.bus != nil {
		s.bus.Publish(events.CycleRecorded{Snapshot: snap, Key: key, Err: err})
	}
	return snap, err
}

// advise calls the advisor under the configured timeout. Any failure,
// including a panic inside the advisor, yields nil so the heuristic runs.
func (s *Scheduler) advise(ctx context.Context, cycle int, faults []model.Fault) (rec *model.Analysis) {
	actx, cancel := context.WithTimeout(ctx, s.cfg.AdvisorTimeout())
	defer cancel()

	start := s.clock()
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = monitoring.NewPanicError(r)
			s.monitor.CaptureException(err, s.tags(cycle, "advisor"))
			rec = nil
		}
		if err != nil {
			s.log.Warnf("cycle %d: advisor unavailable, using heuristic: %v", cycle, err)
		}
		if s.bus != nil {
			s.bus.Publish(events.AdvisorCalled{Cycle: cycle, Usable: rec.Usable(), Latency: s.clock().Sub(start), Err: err})
		}
	}()

	req := advisor.NewRequest(faults, s.pop.Engineers(), s.cfg.SampleSize)
	rec, err = s.adv.Recommend(actx, req)
	if err != nil {
		return nil
	}
	return rec
}

func (s *Scheduler) tags(cycle int, component string) map[string]string {
	return map[string]string{"component": component, "cycle": strconv.Itoa(cycle)}
}
