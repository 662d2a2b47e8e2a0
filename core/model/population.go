package model

import (
	"fmt"
	"time"
)

// Specialty is the advisory skill tag of an engineer.
type Specialty string

const (
	SpecialtyTransformer Specialty = "transformer"
	SpecialtyLine        Specialty = "line"
	SpecialtyMeter       Specialty = "meter"
	SpecialtyGeneral     Specialty = "general"
)

// Valid reports whether s is one of the known specialties.
func (s Specialty) Valid() bool {
	switch s {
	case SpecialtyTransformer, SpecialtyLine, SpecialtyMeter, SpecialtyGeneral:
		return true
	default:
		return false
	}
}

// Coordinate is a latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lng"`
}

// Feeder is an immutable distribution zone. Customers reference it by ID,
// which is the index into the feeder registry.
type Feeder struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// DefaultFeeders is the fixed feeder registry used when none is configured.
var DefaultFeeders = []Feeder{
	{ID: 0, Name: "Zone-A / Feeder-1"},
	{ID: 1, Name: "Zone-A / Feeder-2"},
	{ID: 2, Name: "Zone-B / Feeder-3"},
	{ID: 3, Name: "Zone-C / Feeder-4"},
	{ID: 4, Name: "Zone-D / Feeder-5"},
}

// Customer is a metered supply point.
type Customer struct {
	ID         int
	Name       string
	LastOutput int
	LastBill   int
	FeederID   int
	Location   Coordinate

	// FaultHistory is append-only during a run, trimmed to the retention
	// limit passed to RecordFault.
	FaultHistory []Fault
}

// RecordFault appends f to the history and keeps at most limit entries.
// A limit <= 0 keeps everything.
func (c *Customer) RecordFault(f Fault, limit int) {
	c.FaultHistory = append(c.FaultHistory, f)
	if limit > 0 && len(c.FaultHistory) > limit {
		drop := len(c.FaultHistory) - limit
		c.FaultHistory = append(c.FaultHistory[:0:0], c.FaultHistory[drop:]...)
	}
}

// Engineer is a field engineer. Workload and Assigned are per-cycle state.
type Engineer struct {
	ID        int
	Name      string
	Specialty Specialty
	Location  Coordinate
	Workload  int
	// Assigned holds the customer IDs assigned during the current cycle.
	Assigned []int
}

// Reset clears the per-cycle state.
func (e *Engineer) Reset() {
	e.Workload = 0
	e.Assigned = nil
}

// Assign records a customer against the engineer and bumps the workload.
func (e *Engineer) Assign(customerID int) {
	e.Workload++
	e.Assigned = append(e.Assigned, customerID)
}

func (e Engineer) String() string {
	return fmt.Sprintf("%s (%s)", e.Name, e.Specialty)
}

// Fault is an anomaly detected for one customer in one cycle.
type Fault struct {
	CustomerID       int        `json:"customer_id"`
	CustomerName     string     `json:"customer_name"`
	OldOutput        int        `json:"old_output"`
	NewOutput        int        `json:"new_output"`
	ChangePercentage float64    `json:"change_percentage"`
	FeederID         int        `json:"feeder_id"`
	FeederName       string     `json:"feeder_name"`
	Location         Coordinate `json:"location"`
	LastBill         int        `json:"last_bill"`
	DetectedAt       time.Time  `json:"timestamp"`
}

// Assignment is a fault bound to an engineer.
type Assignment struct {
	Fault
	Engineer            string    `json:"assigned_engineer"`
	Specialty           Specialty `json:"engineer_specialty"`
	Reason              string    `json:"assignment_reason"`
	DistanceKM          *float64  `json:"distance_km,omitempty"`
	EstimatedTravelTime string    `json:"estimated_travel_time,omitempty"`
	AIAssigned          bool      `json:"ai_assigned"`
}
