// Package population holds the customer and engineer registries of a run.
// Membership is fixed once a Population is built; only per-entity state
// (last output, fault history, workload) changes afterwards.
package population

import (
	"fmt"
	"math/rand"

	"github.com/kilianp07/feederwatch/core/model"
)

// Population owns the registries. It is not safe for concurrent mutation;
// the scheduler is its only writer.
type Population struct {
	customers []*model.Customer
	engineers []*model.Engineer
	feeders   []model.Feeder

	byCustomer map[int]*model.Customer
	byEngineer map[string]*model.Engineer
}

// New builds a population from explicit registries. Feeder IDs must match
// their index and every customer must reference a known feeder.
func New(customers []*model.Customer, engineers []*model.Engineer, feeders []model.Feeder) (*Population, error) {
	if len(feeders) == 0 {
		feeders = model.DefaultFeeders
	}
	for i, f := range feeders {
		if f.ID != i {
			return nil, fmt.Errorf("feeder %q has id %d, expected %d", f.Name, f.ID, i)
		}
	}
	p := &Population{
		customers:  customers,
		engineers:  engineers,
		feeders:    append([]model.Feeder(nil), feeders...),
		byCustomer: make(map[int]*model.Customer, len(customers)),
		byEngineer: make(map[string]*model.Engineer, len(engineers)),
	}
	for _, c := range customers {
		if c.FeederID < 0 || c.FeederID >= len(feeders) {
			return nil, fmt.Errorf("customer %d references unknown feeder %d", c.ID, c.FeederID)
		}
		if _, dup := p.byCustomer[c.ID]; dup {
			return nil, fmt.Errorf("duplicate customer id %d", c.ID)
		}
		p.byCustomer[c.ID] = c
	}
	for _, e := range engineers {
		if _, dup := p.byEngineer[e.Name]; dup {
			return nil, fmt.Errorf("duplicate engineer name %q", e.Name)
		}
		p.byEngineer[e.Name] = e
	}
	return p, nil
}

// Customers returns the customer registry in its fixed order.
func (p *Population) Customers() []*model.Customer { return p.customers }

// Engineers returns the engineer registry in its fixed order.
func (p *Population) Engineers() []*model.Engineer { return p.engineers }

// Feeders returns the feeder registry.
func (p *Population) Feeders() []model.Feeder { return p.feeders }

// Feeder returns the feeder with the given id.
func (p *Population) Feeder(id int) (model.Feeder, bool) {
	if id < 0 || id >= len(p.feeders) {
		return model.Feeder{}, false
	}
	return p.feeders[id], true
}

// Customer looks a customer up by id.
func (p *Population) Customer(id int) (*model.Customer, bool) {
	c, ok := p.byCustomer[id]
	return c, ok
}

// EngineerByName looks an engineer up by exact name.
func (p *Population) EngineerByName(name string) (*model.Engineer, bool) {
	e, ok := p.byEngineer[name]
	return e, ok
}

// ResetWorkloads zeroes the per-cycle state of every engineer.
func (p *Population) ResetWorkloads() {
	for _, e := range p.engineers {
		e.Reset()
	}
}

// EngineerSpec describes an engineer in configuration.
type EngineerSpec struct {
	Name      string          `json:"name"`
	Specialty model.Specialty `json:"specialty"`
	Lat       float64         `json:"lat"`
	Lon       float64         `json:"lon"`
}

// DefaultEngineerSpecs is the roster used when none is configured.
var DefaultEngineerSpecs = []EngineerSpec{
	{Name: "Eng. Ankit", Specialty: model.SpecialtyTransformer, Lat: 23.8103, Lon: 91.2514},
	{Name: "Eng. Riya", Specialty: model.SpecialtyLine, Lat: 23.8200, Lon: 91.2600},
	{Name: "Eng. Suman", Specialty: model.SpecialtyMeter, Lat: 23.7900, Lon: 91.2400},
	{Name: "Eng. Arjun", Specialty: model.SpecialtyGeneral, Lat: 23.8300, Lon: 91.2700},
	{Name: "Eng. Neha", Specialty: model.SpecialtyLine, Lat: 23.7800, Lon: 91.2300},
}

// Engineers builds engineer records from specs, ids follow the spec order.
func Engineers(specs []EngineerSpec) []*model.Engineer {
	res := make([]*model.Engineer, len(specs))
	for i, s := range specs {
		res[i] = &model.Engineer{
			ID:        i,
			Name:      s.Name,
			Specialty: s.Specialty,
			Location:  model.Coordinate{Lat: s.Lat, Lon: s.Lon},
		}
	}
	return res
}

// GeneratorConfig drives synthetic customer generation.
type GeneratorConfig struct {
	Customers int     `json:"customers"`
	OutputMin int     `json:"output_min"`
	OutputMax int     `json:"output_max"`
	BillMin   int     `json:"bill_min"`
	BillMax   int     `json:"bill_max"`
	CenterLat float64 `json:"center_lat"`
	CenterLon float64 `json:"center_lon"`
	Spread    float64 `json:"spread"`
}

// SetDefaults fills unset fields with the reference values around Agartala.
func (c *GeneratorConfig) SetDefaults() {
	if c.Customers == 0 {
		c.Customers = 1000
	}
	if c.OutputMin == 0 && c.OutputMax == 0 {
		c.OutputMin, c.OutputMax = 50, 500
	}
	if c.BillMin == 0 && c.BillMax == 0 {
		c.BillMin, c.BillMax = 500, 10000
	}
	if c.CenterLat == 0 && c.CenterLon == 0 {
		c.CenterLat, c.CenterLon = 23.8103, 91.2514
	}
	if c.Spread == 0 {
		c.Spread = 0.05
	}
}

// Validate checks the ranges.
func (c GeneratorConfig) Validate() error {
	if c.Customers < 0 {
		return fmt.Errorf("customers must not be negative")
	}
	if c.OutputMin > c.OutputMax {
		return fmt.Errorf("output_min %d greater than output_max %d", c.OutputMin, c.OutputMax)
	}
	if c.BillMin > c.BillMax {
		return fmt.Errorf("bill_min %d greater than bill_max %d", c.BillMin, c.BillMax)
	}
	if c.Spread < 0 {
		return fmt.Errorf("spread must not be negative")
	}
	return nil
}

// Generate creates a synthetic population with the given engineers. The
// random source is injected so runs can be reproduced.
func Generate(cfg GeneratorConfig, engineers []*model.Engineer, feeders []model.Feeder, rng *rand.Rand) (*Population, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(feeders) == 0 {
		feeders = model.DefaultFeeders
	}
	customers := make([]*model.Customer, cfg.Customers)
	for i := range customers {
		customers[i] = &model.Customer{
			ID:         i + 1,
			Name:       fmt.Sprintf("Customer_%d", i),
			LastOutput: between(rng, cfg.OutputMin, cfg.OutputMax),
			LastBill:   between(rng, cfg.BillMin, cfg.BillMax),
			FeederID:   rng.Intn(len(feeders)),
			Location: model.Coordinate{
				Lat: cfg.CenterLat + uniform(rng, -cfg.Spread, cfg.Spread),
				Lon: cfg.CenterLon + uniform(rng, -cfg.Spread, cfg.Spread),
			},
		}
	}
	return New(customers, engineers, feeders)
}

// between returns an integer in [lo, hi].
func between(rng *rand.Rand, lo, hi int) int {
	return lo + rng.Intn(hi-lo+1)
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
