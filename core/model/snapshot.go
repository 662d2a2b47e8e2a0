package model

import "time"

// AssignmentSource tells which path produced the assignments of a cycle.
type AssignmentSource string

const (
	SourceHeuristic AssignmentSource = "heuristic"
	SourceAdvisor   AssignmentSource = "advisor"
)

// SnapshotFault is the persisted form of one assignment.
type SnapshotFault struct {
	CustomerID          int       `json:"customer_id"`
	CustomerName        string    `json:"customer_name"`
	FeederID            int       `json:"feeder_id"`
	FeederName          string    `json:"feeder_name"`
	OldOutput           int       `json:"old_output"`
	NewOutput           int       `json:"new_output"`
	ChangePercentage    float64   `json:"change_percentage"`
	Latitude            float64   `json:"latitude"`
	Longitude           float64   `json:"longitude"`
	AssignedEngineer    string    `json:"assigned_engineer"`
	EngineerSpecialty   Specialty `json:"engineer_specialty"`
	AssignmentReason    string    `json:"assignment_reason"`
	AIAssigned          bool      `json:"ai_assigned"`
	DistanceKM          *float64  `json:"distance_km,omitempty"`
	EstimatedTravelTime string    `json:"estimated_travel_time,omitempty"`
}

// ChangeStats summarises the change percentages of a cycle.
type ChangeStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	MaxAbs float64 `json:"max_abs"`
}

// Summary aggregates the faults of a cycle.
type Summary struct {
	Feeders     map[string]int `json:"feeders"`
	Engineers   map[string]int `json:"engineers"`
	ChangeStats ChangeStats    `json:"change_stats"`
}

// Snapshot is the immutable record of one cycle.
type Snapshot struct {
	CycleNumber            int              `json:"cycle_number"`
	Timestamp              time.Time        `json:"timestamp"`
	TotalFaults            int              `json:"total_faults"`
	Faults                 []SnapshotFault  `json:"faults"`
	Summary                Summary          `json:"summary"`
	AIAnalysis             *Analysis        `json:"ai_analysis"`
	AssignmentSource       AssignmentSource `json:"assignment_source"`
	DroppedRecommendations int              `json:"dropped_recommendations"`
	// Error is set when the cycle aborted; the snapshot then carries no faults.
	Error string `json:"error,omitempty"`
}

// FaultsFor returns the entries assigned to the named engineer.
func (s Snapshot) FaultsFor(engineer string) []SnapshotFault {
	res := make([]SnapshotFault, 0)
	for _, f := range s.Faults {
		if f.AssignedEngineer == engineer {
			res = append(res, f)
		}
	}
	return res
}
