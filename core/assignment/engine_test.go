package assignment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/feederwatch/core/model"
	"github.com/kilianp07/feederwatch/core/population"
	"github.com/kilianp07/feederwatch/infra/logger"
)

func newEngine(t *testing.T, specs []population.EngineerSpec) (*Engine, *population.Population) {
	t.Helper()
	pop, err := population.New(nil, population.Engineers(specs), nil)
	require.NoError(t, err)
	return NewEngine(pop, logger.NopLogger{}), pop
}

func faultAt(id int, lat, lon float64) model.Fault {
	return model.Fault{CustomerID: id, Location: model.Coordinate{Lat: lat, Lon: lon}}
}

func TestHeuristicPicksMinimumScore(t *testing.T) {
	eng, pop := newEngine(t, population.DefaultEngineerSpecs)
	faults := []model.Fault{
		faultAt(1, 23.79, 91.24),
		faultAt(2, 23.79, 91.24),
		faultAt(3, 23.83, 91.27),
		faultAt(4, 23.81, 91.25),
	}
	res := eng.Assign(faults, nil)
	require.Len(t, res.Assignments, len(faults))
	assert.Equal(t, model.SourceHeuristic, res.Source)
	assert.Zero(t, res.Dropped)

	// Replay the pass with fresh workloads and check each pick against
	// every alternative under the workload seen at that point.
	pop.ResetWorkloads()
	for i, a := range res.Assignments {
		chosen, ok := pop.EngineerByName(a.Engineer)
		require.True(t, ok)
		want := Score(faults[i], chosen)
		for _, other := range pop.Engineers() {
			if Score(faults[i], other) < want {
				t.Fatalf("fault %d: %s scores lower than chosen %s", i, other.Name, chosen.Name)
			}
		}
		require.NotNil(t, a.DistanceKM)
		assert.InDelta(t, want, *a.DistanceKM, 0.005)
		assert.Equal(t, HeuristicReason, a.Reason)
		assert.False(t, a.AIAssigned)
		chosen.Assign(faults[i].CustomerID)
	}
}

func TestHeuristicWorkloadSpreads(t *testing.T) {
	specs := []population.EngineerSpec{
		{Name: "near", Specialty: model.SpecialtyLine, Lat: 23.8103, Lon: 91.2514},
		{Name: "far", Specialty: model.SpecialtyMeter, Lat: 23.8113, Lon: 91.2514},
	}
	eng, pop := newEngine(t, specs)
	faults := []model.Fault{faultAt(1, 23.8103, 91.2514), faultAt(2, 23.8103, 91.2514)}
	res := eng.Assign(faults, nil)
	require.Len(t, res.Assignments, 2)
	assert.Equal(t, "near", res.Assignments[0].Engineer)
	assert.Equal(t, "far", res.Assignments[1].Engineer)
	near, _ := pop.EngineerByName("near")
	far, _ := pop.EngineerByName("far")
	assert.Equal(t, 1, near.Workload)
	assert.Equal(t, []int{2}, far.Assigned)
}

func TestHeuristicTieKeepsRegistryOrder(t *testing.T) {
	specs := []population.EngineerSpec{
		{Name: "first", Lat: 10, Lon: 10},
		{Name: "second", Lat: 10, Lon: 10},
	}
	eng, _ := newEngine(t, specs)
	res := eng.Assign([]model.Fault{faultAt(1, 10, 10)}, nil)
	require.Len(t, res.Assignments, 1)
	assert.Equal(t, "first", res.Assignments[0].Engineer)
	assert.Equal(t, 0.0, *res.Assignments[0].DistanceKM)
}

func TestHeuristicNoEngineers(t *testing.T) {
	eng, _ := newEngine(t, nil)
	res := eng.Assign([]model.Fault{faultAt(1, 0, 0)}, nil)
	assert.Empty(t, res.Assignments)
	assert.NotNil(t, res.Assignments)
}

func TestEmptyFaults(t *testing.T) {
	eng, _ := newEngine(t, population.DefaultEngineerSpecs)
	res := eng.Assign(nil, nil)
	assert.NotNil(t, res.Assignments)
	assert.Empty(t, res.Assignments)
}

func TestAdvisorPathHonoured(t *testing.T) {
	eng, pop := newEngine(t, population.DefaultEngineerSpecs)
	faults := []model.Fault{faultAt(10, 23.8, 91.2), faultAt(11, 23.8, 91.2)}
	rec := &model.Analysis{EngineerAssignments: []model.RecommendedAssignment{
		{CustomerID: 11, AssignedEngineer: "Eng. Neha", Reason: "closest line expert", EstimatedTravelTime: "12 min"},
		{CustomerID: 10, AssignedEngineer: "Eng. Ankit"},
	}}
	res := eng.Assign(faults, rec)
	assert.Equal(t, model.SourceAdvisor, res.Source)
	require.Len(t, res.Assignments, 2)

	first := res.Assignments[0]
	assert.Equal(t, 11, first.CustomerID)
	assert.Equal(t, "Eng. Neha", first.Engineer)
	assert.Equal(t, model.SpecialtyLine, first.Specialty)
	assert.Equal(t, "closest line expert", first.Reason)
	assert.Equal(t, "12 min", first.EstimatedTravelTime)
	assert.True(t, first.AIAssigned)
	assert.Nil(t, first.DistanceKM)

	second := res.Assignments[1]
	assert.Equal(t, DefaultAdvisorReason, second.Reason)
	assert.Equal(t, UnknownTravelTime, second.EstimatedTravelTime)

	ankit, _ := pop.EngineerByName("Eng. Ankit")
	assert.Equal(t, []int{10}, ankit.Assigned)
}

func TestAdvisorDropsUnresolvedEntries(t *testing.T) {
	eng, pop := newEngine(t, population.DefaultEngineerSpecs)
	faults := []model.Fault{faultAt(1, 0, 0), faultAt(2, 0, 0)}
	rec := &model.Analysis{EngineerAssignments: []model.RecommendedAssignment{
		{CustomerID: 1, AssignedEngineer: "Eng. Nobody"},
		{CustomerID: 99, AssignedEngineer: "Eng. Riya"},
		{CustomerID: 2, AssignedEngineer: "Eng. Riya"},
		{CustomerID: 2, AssignedEngineer: "Eng. Suman"},
	}}
	res := eng.Assign(faults, rec)
	assert.Equal(t, model.SourceAdvisor, res.Source)
	assert.Equal(t, 3, res.Dropped)
	require.Len(t, res.Assignments, 1)
	assert.Equal(t, "Eng. Riya", res.Assignments[0].Engineer)
	suman, _ := pop.EngineerByName("Eng. Suman")
	assert.Zero(t, suman.Workload)
}

func TestUnusableRecommendationFallsBack(t *testing.T) {
	eng, _ := newEngine(t, population.DefaultEngineerSpecs)
	faults := []model.Fault{faultAt(1, 23.81, 91.25)}
	res := eng.Assign(faults, &model.Analysis{PatternsDetected: []string{"cluster"}})
	assert.Equal(t, model.SourceHeuristic, res.Source)
	require.Len(t, res.Assignments, 1)
	assert.False(t, res.Assignments[0].AIAssigned)
}
