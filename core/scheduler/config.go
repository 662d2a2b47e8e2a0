package scheduler

import (
	"fmt"
	"time"
)

// Config defines the loop timing.
type Config struct {
	// IntervalSeconds is the pause between the end of a cycle and the
	// start of the next one.
	IntervalSeconds int `json:"interval_seconds"`
	// AdvisorTimeoutSeconds bounds each advisor call.
	AdvisorTimeoutSeconds int `json:"advisor_timeout_seconds"`
	// MaxCycles stops Run after that many cycles; 0 runs until cancelled.
	MaxCycles int `json:"max_cycles"`
	// ResumeNumbering continues after the highest stored cycle number
	// instead of restarting at 1.
	ResumeNumbering bool `json:"resume_numbering"`
	// SampleSize caps the faults sent to the advisor.
	SampleSize int `json:"sample_size"`
}

// SetDefaults applies the reference timings.
func (c *Config) SetDefaults() {
	if c.IntervalSeconds == 0 {
		c.IntervalSeconds = 10
	}
	if c.AdvisorTimeoutSeconds == 0 {
		c.AdvisorTimeoutSeconds = 30
	}
	if c.SampleSize == 0 {
		c.SampleSize = 20
	}
}

// Validate rejects negative settings.
func (c Config) Validate() error {
	if c.IntervalSeconds < 0 || c.AdvisorTimeoutSeconds < 0 || c.MaxCycles < 0 || c.SampleSize < 0 {
		return fmt.Errorf("scheduler settings must not be negative")
	}
	return nil
}

// Interval returns the pause between cycles.
func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// AdvisorTimeout returns the bound of one advisor call.
func (c Config) AdvisorTimeout() time.Duration {
	return time.Duration(c.AdvisorTimeoutSeconds) * time.Second
}
