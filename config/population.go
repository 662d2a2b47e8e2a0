package config

import (
	"fmt"

	"github.com/kilianp07/feederwatch/core/model"
	"github.com/kilianp07/feederwatch/core/population"
)

// PopulationConfig describes the simulated grid.
type PopulationConfig struct {
	population.GeneratorConfig `json:",squash"`

	// Seed fixes the generator; 0 seeds from the clock.
	Seed      int64                     `json:"seed"`
	Engineers []population.EngineerSpec `json:"engineers"`
	Feeders   []string                  `json:"feeders"`
}

// SetDefaults fills the generator ranges, roster and feeders.
func (c *PopulationConfig) SetDefaults() {
	c.GeneratorConfig.SetDefaults()
	if len(c.Engineers) == 0 {
		c.Engineers = append([]population.EngineerSpec(nil), population.DefaultEngineerSpecs...)
	}
	if len(c.Feeders) == 0 {
		for _, f := range model.DefaultFeeders {
			c.Feeders = append(c.Feeders, f.Name)
		}
	}
}

// Validate checks the generator ranges and the roster.
func (c PopulationConfig) Validate() error {
	if err := c.GeneratorConfig.Validate(); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(c.Engineers))
	for _, e := range c.Engineers {
		if e.Name == "" {
			return fmt.Errorf("engineer name is required")
		}
		if _, dup := seen[e.Name]; dup {
			return fmt.Errorf("duplicate engineer %q", e.Name)
		}
		seen[e.Name] = struct{}{}
		if !e.Specialty.Valid() {
			return fmt.Errorf("engineer %q has unknown specialty %q", e.Name, e.Specialty)
		}
	}
	return nil
}

// FeederRegistry returns the feeders with ids matching their position.
func (c PopulationConfig) FeederRegistry() []model.Feeder {
	res := make([]model.Feeder, len(c.Feeders))
	for i, name := range c.Feeders {
		res[i] = model.Feeder{ID: i, Name: name}
	}
	return res
}
