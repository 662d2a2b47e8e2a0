// Package app wires the configured components into a runnable service.
package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/kilianp07/feederwatch/api/dashboard"
	"github.com/kilianp07/feederwatch/app/plugins"
	"github.com/kilianp07/feederwatch/config"
	coreadvisor "github.com/kilianp07/feederwatch/core/advisor"
	coredash "github.com/kilianp07/feederwatch/core/dashboard"
	"github.com/kilianp07/feederwatch/core/detector"
	"github.com/kilianp07/feederwatch/core/factory"
	coremetrics "github.com/kilianp07/feederwatch/core/metrics"
	coremon "github.com/kilianp07/feederwatch/core/monitoring"
	"github.com/kilianp07/feederwatch/core/model"
	"github.com/kilianp07/feederwatch/core/population"
	"github.com/kilianp07/feederwatch/core/recorder"
	"github.com/kilianp07/feederwatch/core/scheduler"
	coresnap "github.com/kilianp07/feederwatch/core/snapshot"
	"github.com/kilianp07/feederwatch/core/tickets"
	"github.com/kilianp07/feederwatch/infra/faultlog"
	"github.com/kilianp07/feederwatch/infra/logger"
	"github.com/kilianp07/feederwatch/infra/metrics"
	"github.com/kilianp07/feederwatch/infra/monitoring"
	"github.com/kilianp07/feederwatch/infra/mqtt"
	_ "github.com/kilianp07/feederwatch/infra/snapshot"
	"github.com/kilianp07/feederwatch/internal/eventbus"
)

// Options adjust how New wires the service.
type Options struct {
	// DryRun keeps snapshots in memory and disables the fault log, MQTT and
	// the dashboard.
	DryRun bool
}

// Service owns the monitoring loop and its collaborators.
type Service struct {
	Population *population.Population
	Scheduler  *scheduler.Scheduler
	Store      coresnap.Store
	Tickets    *tickets.Store
	Dashboard  *coredash.Service

	cfg       *config.Config
	opts      Options
	log       logger.Logger
	bus       *eventbus.Bus
	sink      coremetrics.CycleSink
	faultLog  *faultlog.Writer
	monitor   coremon.Monitor
	notifier  *mqtt.Notifier
	publisher *mqtt.PahoClient

	startOnce sync.Once
}

// New builds a Service from cfg.
func New(cfg *config.Config, opts Options) (*Service, error) {
	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.Console); err != nil {
		return nil, err
	}
	log := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	s := &Service{cfg: cfg, opts: opts, log: log, bus: eventbus.New(), monitor: mon}
	if err := s.build(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Service) build() error {
	cfg := s.cfg
	pop, err := generatePopulation(cfg.Population)
	if err != nil {
		return fmt.Errorf("population: %w", err)
	}
	s.Population = pop
	s.log.Infof("generated %d customers across %d feeders for %d engineers",
		len(pop.Customers()), len(pop.Feeders()), len(pop.Engineers()))

	storeCfg := cfg.Snapshots
	if s.opts.DryRun {
		storeCfg = factory.ModuleConfig{Type: "memory"}
	}
	if s.Store, err = coresnap.NewStore(storeCfg); err != nil {
		return fmt.Errorf("snapshot store: %w", err)
	}

	var faultLog recorder.FaultLog
	if !s.opts.DryRun && !cfg.FaultLog.Disabled {
		if s.faultLog, err = faultlog.New(cfg.FaultLog); err != nil {
			return fmt.Errorf("fault log: %w", err)
		}
		faultLog = s.faultLog
	}

	if s.sink, err = coremetrics.NewSink(cfg.Metrics.Sinks); err != nil {
		return fmt.Errorf("metrics sink: %w", err)
	}

	rec := recorder.New(cfg.Recorder, s.Store, faultLog, s.sink, s.monitor, logger.New("recorder"))
	det := detector.New(cfg.Detector, readerFor(cfg), nil)
	sched, err := scheduler.New(cfg.Scheduler, scheduler.Deps{
		Population: pop,
		Detector:   det,
		Advisor:    selectAdvisor(cfg, s.log),
		Recorder:   rec,
		Bus:        s.bus,
		Logger:     logger.New("scheduler"),
		Monitor:    s.monitor,
	})
	if err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	s.Scheduler = sched
	if cfg.Scheduler.ResumeNumbering {
		if err := s.resume(); err != nil {
			return err
		}
	}

	if s.Tickets, err = tickets.Open(cfg.Tickets, s.bus, logger.New("tickets")); err != nil {
		return fmt.Errorf("tickets: %w", err)
	}
	names := make([]string, 0, len(pop.Engineers()))
	for _, e := range pop.Engineers() {
		names = append(names, e.Name)
	}
	s.Dashboard = coredash.NewService(s.Store, s.Tickets, len(pop.Customers()), names)

	if cfg.MQTT.Enabled && !s.opts.DryRun {
		if s.publisher, err = mqtt.NewPahoClient(cfg.MQTT); err != nil {
			return fmt.Errorf("mqtt client: %w", err)
		}
		s.notifier = mqtt.NewNotifier(s.publisher, cfg.MQTT.TopicPrefix, logger.New("notifier"))
	}
	return nil
}

func generatePopulation(cfg config.PopulationConfig) (*population.Population, error) {
	return population.Generate(cfg.GeneratorConfig, population.Engineers(cfg.Engineers), cfg.FeederRegistry(), newRand(cfg.Seed))
}

func readerFor(cfg *config.Config) detector.Reader {
	return detector.UniformReader{
		Rand: newRand(cfg.Detector.Seed),
		Min:  cfg.Population.OutputMin,
		Max:  cfg.Population.OutputMax,
	}
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// selectAdvisor returns the messages API client when it is enabled and a key
// is available, the heuristic-only advisor otherwise.
func selectAdvisor(cfg *config.Config, log logger.Logger) coreadvisor.Advisor {
	name := plugins.Heuristic
	if cfg.Advisor.Enabled {
		name = plugins.Anthropic
	}
	adv, err := plugins.NewAdvisor(name, cfg.Advisor, logger.New("advisor"))
	if err != nil {
		if errors.Is(err, coreadvisor.ErrNoAPIKey) {
			log.Warnf("advisor disabled: no API key, assignments use the proximity heuristic")
		} else {
			log.Errorf("advisor %s: %v", name, err)
		}
		return coreadvisor.NopAdvisor{}
	}
	log.Infof("advisor: %s", name)
	return adv
}

func (s *Service) resume() error {
	latest, err := s.Store.Latest(context.Background())
	if err != nil {
		return fmt.Errorf("resume numbering: %w", err)
	}
	if latest != nil {
		s.Scheduler.StartAt(latest.CycleNumber + 1)
		s.log.Infof("resuming at cycle %d", latest.CycleNumber+1)
	}
	return nil
}

// start subscribes the metrics collector and the MQTT notifier to the bus.
func (s *Service) start(ctx context.Context) {
	s.startOnce.Do(func() {
		metrics.StartEventCollector(ctx, s.bus, s.sink)
		if s.notifier != nil {
			s.notifier.Start(ctx, s.bus)
		}
	})
}

// Run starts the consumers, the metrics and dashboard servers, then the
// cycle loop. It returns when ctx is cancelled or the cycle limit is reached.
func (s *Service) Run(ctx context.Context) error {
	s.start(ctx)
	if port := s.cfg.Metrics.PrometheusPort; port != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, listenAddr(port), nil); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.cfg.Dashboard.Enabled && !s.opts.DryRun {
		router := dashboard.NewRouter(s.Dashboard, s.Tickets, s.cfg.Dashboard.Token, logger.New("dashboard"))
		go func() {
			if err := dashboard.Serve(ctx, s.cfg.Dashboard, router, logger.New("dashboard")); err != nil {
				s.log.Errorf("dashboard server: %v", err)
			}
		}()
	}
	return s.Scheduler.Run(ctx)
}

// RunCycles runs n cycles back to back and returns the recorded snapshots.
// Failed cycles are skipped and their errors joined.
func (s *Service) RunCycles(ctx context.Context, n int) ([]model.Snapshot, error) {
	s.start(ctx)
	var (
		snaps []model.Snapshot
		errs  []error
	)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		snap, err := s.Scheduler.RunCycle(ctx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		snaps = append(snaps, snap)
	}
	return snaps, errors.Join(errs...)
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	var errs []error
	s.bus.Close()
	if s.notifier != nil {
		s.notifier.Wait()
	}
	if s.publisher != nil {
		s.publisher.Disconnect()
	}
	if s.faultLog != nil {
		if err := s.faultLog.Close(); err != nil {
			errs = append(errs, fmt.Errorf("fault log: %w", err))
		}
	}
	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("snapshot store: %w", err))
		}
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	s.monitor.Flush(time.Duration(s.cfg.Sentry.FlushSeconds) * time.Second)
	return errors.Join(errs...)
}

func listenAddr(port string) string {
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}
