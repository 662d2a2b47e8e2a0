// Package assignment binds detected faults to field engineers, either from
// an advisor recommendation or with a distance and workload heuristic.
package assignment

import (
	"math"

	"github.com/kilianp07/feederwatch/core/geo"
	"github.com/kilianp07/feederwatch/core/logger"
	"github.com/kilianp07/feederwatch/core/model"
	"github.com/kilianp07/feederwatch/core/population"
)

// WorkloadPenalty is the score added per fault already assigned this cycle.
const WorkloadPenalty = 2.0

const (
	HeuristicReason      = "Distance + workload optimization"
	DefaultAdvisorReason = "AI recommendation"
	UnknownTravelTime    = "N/A"
)

// Result is the outcome of one assignment pass.
type Result struct {
	Assignments []model.Assignment
	Source      model.AssignmentSource
	// Dropped counts advisor entries that named an unknown customer or
	// engineer, or a customer already assigned in the same pass.
	Dropped int
}

// Engine assigns faults to the engineers of a population. Workload changes
// are applied to the population's engineers as assignments are made.
type Engine struct {
	pop *population.Population
	log logger.Logger
}

// NewEngine returns an engine bound to pop.
func NewEngine(pop *population.Population, log logger.Logger) *Engine {
	return &Engine{pop: pop, log: log}
}

// Assign maps faults to engineers. A usable recommendation is honoured;
// otherwise every fault goes through the scoring heuristic.
func (e *Engine) Assign(faults []model.Fault, rec *model.Analysis) Result {
	if rec.Usable() {
		return e.fromAdvisor(faults, rec)
	}
	return e.heuristic(faults)
}

func (e *Engine) fromAdvisor(faults []model.Fault, rec *model.Analysis) Result {
	byCustomer := make(map[int]int, len(faults))
	for i, f := range faults {
		if _, ok := byCustomer[f.CustomerID]; !ok {
			byCustomer[f.CustomerID] = i
		}
	}
	res := Result{Assignments: make([]model.Assignment, 0, len(rec.EngineerAssignments)), Source: model.SourceAdvisor}
	done := make(map[int]struct{}, len(faults))
	for _, entry := range rec.EngineerAssignments {
		id := int(entry.CustomerID)
		idx, ok := byCustomer[id]
		if !ok {
			e.log.Warnf("advisor named customer %d which has no fault this cycle", id)
			res.Dropped++
			continue
		}
		if _, dup := done[id]; dup {
			e.log.Warnf("advisor assigned customer %d more than once", id)
			res.Dropped++
			continue
		}
		eng, ok := e.pop.EngineerByName(entry.AssignedEngineer)
		if !ok {
			e.log.Warnf("advisor named unknown engineer %q for customer %d", entry.AssignedEngineer, id)
			res.Dropped++
			continue
		}
		reason := entry.Reason
		if reason == "" {
			reason = DefaultAdvisorReason
		}
		travel := string(entry.EstimatedTravelTime)
		if travel == "" {
			travel = UnknownTravelTime
		}
		res.Assignments = append(res.Assignments, model.Assignment{
			Fault:               faults[idx],
			Engineer:            eng.Name,
			Specialty:           eng.Specialty,
			Reason:              reason,
			EstimatedTravelTime: travel,
			AIAssigned:          true,
		})
		eng.Assign(id)
		done[id] = struct{}{}
	}
	if missing := len(faults) - len(res.Assignments); missing > 0 {
		e.log.Infof("advisor left %d of %d faults unassigned", missing, len(faults))
	}
	return res
}

func (e *Engine) heuristic(faults []model.Fault) Result {
	res := Result{Assignments: make([]model.Assignment, 0, len(faults)), Source: model.SourceHeuristic}
	for _, f := range faults {
		best, score := e.Best(f)
		if best == nil {
			e.log.Errorf("no engineer available for customer %d", f.CustomerID)
			continue
		}
		dist := round2(score)
		res.Assignments = append(res.Assignments, model.Assignment{
			Fault:      f,
			Engineer:   best.Name,
			Specialty:  best.Specialty,
			Reason:     HeuristicReason,
			DistanceKM: &dist,
		})
		// Applied before the next fault is scored.
		best.Assign(f.CustomerID)
	}
	return res
}

// Best returns the engineer with the strictly smallest score for f and that
// score. Ties keep the first engineer in registry order.
func (e *Engine) Best(f model.Fault) (*model.Engineer, float64) {
	var best *model.Engineer
	min := math.Inf(1)
	for _, eng := range e.pop.Engineers() {
		s := Score(f, eng)
		if s < min {
			min = s
			best = eng
		}
	}
	return best, min
}

// Score is the heuristic cost of sending eng to f.
func Score(f model.Fault, eng *model.Engineer) float64 {
	return geo.Distance(f.Location, eng.Location) + WorkloadPenalty*float64(eng.Workload)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
