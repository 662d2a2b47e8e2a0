// Package recorder turns an assignment pass into a persisted cycle snapshot.
package recorder

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/feederwatch/core/assignment"
	"github.com/kilianp07/feederwatch/core/model"
)

// Build assembles the snapshot of a cycle. The summary always reflects the
// entries written in Faults.
func Build(cycle int, now time.Time, res assignment.Result, rec *model.Analysis) model.Snapshot {
	faults := make([]model.SnapshotFault, 0, len(res.Assignments))
	for _, a := range res.Assignments {
		faults = append(faults, entry(a))
	}
	source := res.Source
	if source == "" {
		source = model.SourceHeuristic
	}
	return model.Snapshot{
		CycleNumber:            cycle,
		Timestamp:              now,
		TotalFaults:            len(faults),
		Faults:                 faults,
		Summary:                Tally(faults),
		AIAnalysis:             rec,
		AssignmentSource:       source,
		DroppedRecommendations: res.Dropped,
	}
}

func entry(a model.Assignment) model.SnapshotFault {
	return model.SnapshotFault{
		CustomerID:          a.CustomerID,
		CustomerName:        a.CustomerName,
		FeederID:            a.FeederID,
		FeederName:          a.FeederName,
		OldOutput:           a.OldOutput,
		NewOutput:           a.NewOutput,
		ChangePercentage:    round2(a.ChangePercentage),
		Latitude:            a.Location.Lat,
		Longitude:           a.Location.Lon,
		AssignedEngineer:    a.Engineer,
		EngineerSpecialty:   a.Specialty,
		AssignmentReason:    a.Reason,
		AIAssigned:          a.AIAssigned,
		DistanceKM:          a.DistanceKM,
		EstimatedTravelTime: a.EstimatedTravelTime,
	}
}

// Tally recomputes the per-feeder and per-engineer counts and the change
// statistics of faults.
func Tally(faults []model.SnapshotFault) model.Summary {
	sum := model.Summary{
		Feeders:   make(map[string]int),
		Engineers: make(map[string]int),
	}
	if len(faults) == 0 {
		return sum
	}
	changes := make([]float64, len(faults))
	for i, f := range faults {
		sum.Feeders[f.FeederName]++
		sum.Engineers[f.AssignedEngineer]++
		changes[i] = f.ChangePercentage
	}
	mean, std := stat.PopMeanStdDev(changes, nil)
	var maxAbs float64
	for _, c := range changes {
		maxAbs = math.Max(maxAbs, math.Abs(c))
	}
	sum.ChangeStats = model.ChangeStats{Mean: round2(mean), StdDev: round2(std), MaxAbs: round2(maxAbs)}
	return sum
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
