// Package detector flags customers whose output changed by more than a
// fixed threshold since the previous cycle.
package detector

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/kilianp07/feederwatch/core/model"
	"github.com/kilianp07/feederwatch/core/population"
)

// Reader produces the next simulated output of a customer.
type Reader interface {
	Read(c *model.Customer) int
}

// UniformReader draws outputs uniformly in [Min, Max], independent of the
// previous reading.
type UniformReader struct {
	Rand *rand.Rand
	Min  int
	Max  int
}

func (u UniformReader) Read(*model.Customer) int {
	return u.Min + u.Rand.Intn(u.Max-u.Min+1)
}

// ReaderFunc adapts a function to the Reader interface.
type ReaderFunc func(c *model.Customer) int

func (f ReaderFunc) Read(c *model.Customer) int { return f(c) }

// Config holds detection parameters.
type Config struct {
	// Threshold is the absolute output change above which a fault fires.
	Threshold int `json:"threshold"`
	// HistoryLimit caps the per-customer fault history. 0 keeps everything.
	HistoryLimit int `json:"history_limit"`
	// Seed fixes the reading source; 0 seeds from the clock.
	Seed int64 `json:"seed"`
}

// SetDefaults applies the reference threshold and history cap.
func (c *Config) SetDefaults() {
	if c.Threshold == 0 {
		c.Threshold = 100
	}
	if c.HistoryLimit == 0 {
		c.HistoryLimit = 50
	}
}

// Validate rejects a non-positive threshold and a negative history cap.
func (c Config) Validate() error {
	if c.Threshold <= 0 {
		return fmt.Errorf("threshold must be positive, got %d", c.Threshold)
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("history_limit must not be negative")
	}
	return nil
}

// Detector scans a population once per cycle.
type Detector struct {
	Threshold    int
	HistoryLimit int
	Reader       Reader
	Clock        func() time.Time
}

// New returns a Detector; a nil clock defaults to time.Now.
func New(cfg Config, r Reader, clock func() time.Time) *Detector {
	if clock == nil {
		clock = time.Now
	}
	return &Detector{Threshold: cfg.Threshold, HistoryLimit: cfg.HistoryLimit, Reader: r, Clock: clock}
}

// Scan draws a new reading for every customer in registry order and returns
// the faults. LastOutput is updated for every customer, faulty or not, so the
// next cycle measures change against this reading.
func (d *Detector) Scan(pop *population.Population) []model.Fault {
	faults := make([]model.Fault, 0)
	now := d.Clock()
	for _, c := range pop.Customers() {
		next := d.Reader.Read(c)
		if Fires(c.LastOutput, next, d.Threshold) {
			feeder, _ := pop.Feeder(c.FeederID)
			f := model.Fault{
				CustomerID:       c.ID,
				CustomerName:     c.Name,
				OldOutput:        c.LastOutput,
				NewOutput:        next,
				ChangePercentage: ChangePercentage(c.LastOutput, next),
				FeederID:         c.FeederID,
				FeederName:       feeder.Name,
				Location:         c.Location,
				LastBill:         c.LastBill,
				DetectedAt:       now,
			}
			faults = append(faults, f)
			c.RecordFault(f, d.HistoryLimit)
		}
		c.LastOutput = next
	}
	return faults
}

// Fires reports whether the change from old to next exceeds threshold.
// The comparison is strict: a change equal to the threshold does not fire.
func Fires(old, next, threshold int) bool {
	diff := next - old
	if diff < 0 {
		diff = -diff
	}
	return diff > threshold
}

// ChangePercentage returns (next-old)/old*100, or 0 when old is zero.
func ChangePercentage(old, next int) float64 {
	if old == 0 {
		return 0
	}
	return float64(next-old) / float64(old) * 100
}
