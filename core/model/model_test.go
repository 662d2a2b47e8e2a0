package model

import (
	"encoding/json"
	"testing"
)

func TestSpecialtyValid(t *testing.T) {
	for _, s := range []Specialty{SpecialtyTransformer, SpecialtyLine, SpecialtyMeter, SpecialtyGeneral} {
		if !s.Valid() {
			t.Fatalf("%s should be valid", s)
		}
	}
	if Specialty("plumbing").Valid() {
		t.Fatalf("unexpected valid specialty")
	}
}

func TestRecordFaultRetention(t *testing.T) {
	c := Customer{ID: 1}
	for i := 0; i < 5; i++ {
		c.RecordFault(Fault{NewOutput: i}, 3)
	}
	if len(c.FaultHistory) != 3 {
		t.Fatalf("expected 3 entries got %d", len(c.FaultHistory))
	}
	if c.FaultHistory[0].NewOutput != 2 || c.FaultHistory[2].NewOutput != 4 {
		t.Fatalf("oldest entries not dropped: %+v", c.FaultHistory)
	}

	u := Customer{ID: 2}
	for i := 0; i < 5; i++ {
		u.RecordFault(Fault{}, 0)
	}
	if len(u.FaultHistory) != 5 {
		t.Fatalf("unbounded history trimmed")
	}
}

func TestEngineerAssignReset(t *testing.T) {
	e := Engineer{Name: "Eng. Riya", Specialty: SpecialtyLine}
	e.Assign(3)
	e.Assign(4)
	if e.Workload != 2 || len(e.Assigned) != 2 {
		t.Fatalf("assign not tracked: %+v", e)
	}
	e.Reset()
	if e.Workload != 0 || e.Assigned != nil {
		t.Fatalf("reset failed: %+v", e)
	}
	if e.String() != "Eng. Riya (line)" {
		t.Fatalf("string %q", e.String())
	}
}

func TestAnalysisLenientDecode(t *testing.T) {
	raw := `{"engineer_assignments":[
		{"customer_id":"12","assigned_engineer":"Eng. Neha","reason":"close","estimated_travel_time":15},
		{"customer_id":13,"assigned_engineer":"Eng. Riya","estimated_travel_time":"20 minutes"}
	],"optimized_routes":[{"engineer":"Eng. Neha","route_sequence":[12,"13"],"total_distance":3.5}]}`
	var a Analysis
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !a.Usable() {
		t.Fatalf("expected usable analysis")
	}
	if a.EngineerAssignments[0].CustomerID != 12 || a.EngineerAssignments[0].EstimatedTravelTime != "15" {
		t.Fatalf("unexpected first entry %+v", a.EngineerAssignments[0])
	}
	if a.EngineerAssignments[1].EstimatedTravelTime != "20 minutes" {
		t.Fatalf("unexpected travel time %q", a.EngineerAssignments[1].EstimatedTravelTime)
	}
	if len(a.OptimizedRoutes[0].RouteSequence) != 2 || a.OptimizedRoutes[0].TotalDistance != "3.5" {
		t.Fatalf("unexpected route %+v", a.OptimizedRoutes[0])
	}
	var nilAnalysis *Analysis
	if nilAnalysis.Usable() || (&Analysis{}).Usable() {
		t.Fatalf("empty analysis must not be usable")
	}
}

func TestAnalysisRejectsBadCustomerID(t *testing.T) {
	var a Analysis
	if err := json.Unmarshal([]byte(`{"engineer_assignments":[{"customer_id":"abc"}]}`), &a); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSnapshotFaultsFor(t *testing.T) {
	s := Snapshot{Faults: []SnapshotFault{
		{CustomerID: 1, AssignedEngineer: "a"},
		{CustomerID: 2, AssignedEngineer: "b"},
		{CustomerID: 3, AssignedEngineer: "a"},
	}}
	if got := s.FaultsFor("a"); len(got) != 2 || got[1].CustomerID != 3 {
		t.Fatalf("unexpected %+v", got)
	}
	if got := s.FaultsFor("z"); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice")
	}
}
