// Package config loads the feederwatch configuration from a YAML or JSON
// file with K_ prefixed environment overrides.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/feederwatch/core/detector"
	"github.com/kilianp07/feederwatch/core/factory"
	"github.com/kilianp07/feederwatch/core/metrics"
	"github.com/kilianp07/feederwatch/core/recorder"
	"github.com/kilianp07/feederwatch/core/scheduler"
	"github.com/kilianp07/feederwatch/core/tickets"
	"github.com/kilianp07/feederwatch/infra/advisor"
	"github.com/kilianp07/feederwatch/infra/faultlog"
	"github.com/kilianp07/feederwatch/infra/mqtt"
)

type Config struct {
	Population PopulationConfig     `json:"population"`
	Detector   detector.Config      `json:"detector"`
	Scheduler  scheduler.Config     `json:"scheduler"`
	Advisor    advisor.Config       `json:"advisor"`
	Snapshots  factory.ModuleConfig `json:"snapshots"`
	Recorder   recorder.Config      `json:"recorder"`
	FaultLog   faultlog.Config      `json:"fault_log"`
	Dashboard  DashboardConfig      `json:"dashboard"`
	Tickets    tickets.Config       `json:"tickets"`
	MQTT       mqtt.Config          `json:"mqtt"`
	Metrics    metrics.Config       `json:"metrics"`
	Logging    LoggingConfig        `json:"logging"`
	Sentry     SentryConfig         `json:"sentry"`
}

// Default returns a configuration with every section defaulted, as used when
// no file is given.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

// SetDefaults applies the defaults of every section.
func (c *Config) SetDefaults() {
	c.Population.SetDefaults()
	c.Detector.SetDefaults()
	c.Scheduler.SetDefaults()
	c.Advisor.SetDefaults()
	if c.Snapshots.Type == "" {
		c.Snapshots.Type = "file"
	}
	c.Recorder.SetDefaults()
	c.FaultLog.SetDefaults()
	c.Dashboard.SetDefaults()
	c.Tickets.SetDefaults()
	c.MQTT.SetDefaults()
	c.Logging.SetDefaults()
	c.Sentry.SetDefaults()
}

// Validate checks every section and joins the failures.
func (c *Config) Validate() error {
	var errs []error
	add := func(section string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", section, err))
		}
	}
	add("population", c.Population.Validate())
	add("detector", c.Detector.Validate())
	add("scheduler", c.Scheduler.Validate())
	add("advisor", c.Advisor.Validate())
	add("recorder", c.Recorder.Validate())
	add("fault_log", c.FaultLog.Validate())
	add("dashboard", c.Dashboard.Validate())
	add("tickets", c.Tickets.Validate())
	add("mqtt", c.MQTT.Validate())
	add("metrics", c.Metrics.Validate())
	add("logging", c.Logging.Validate())
	add("sentry", c.Sentry.Validate())
	return errors.Join(errs...)
}

// Load reads path, applies K_ environment overrides ("__" separates
// nesting levels), then defaults and validation. An empty path loads the
// defaults with environment overrides only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
