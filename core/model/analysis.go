package model

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Analysis is the structured payload returned by an external advisor. Only
// EngineerAssignments drives behaviour; the other fields are passed through
// into the snapshot for display.
type Analysis struct {
	FailureClassifications []FailureClassification `json:"failure_classifications,omitempty"`
	EngineerAssignments    []RecommendedAssignment `json:"engineer_assignments,omitempty"`
	OptimizedRoutes        []Route                 `json:"optimized_routes,omitempty"`
	PatternsDetected       []string                `json:"patterns_detected,omitempty"`
	Predictions            []string                `json:"predictions,omitempty"`
	Recommendations        []string                `json:"recommendations,omitempty"`
}

// Usable reports whether the analysis carries per-customer assignments.
func (a *Analysis) Usable() bool {
	return a != nil && len(a.EngineerAssignments) > 0
}

// FailureClassification is the advisor's guess of a fault cause.
type FailureClassification struct {
	CustomerID FlexInt `json:"customer_id"`
	FaultType  string  `json:"fault_type"`
	Severity   string  `json:"severity"`
	Reason     string  `json:"reason"`
}

// RecommendedAssignment names an engineer for a customer's fault.
type RecommendedAssignment struct {
	CustomerID          FlexInt    `json:"customer_id"`
	AssignedEngineer    string     `json:"assigned_engineer"`
	Reason              string     `json:"reason"`
	EstimatedTravelTime FlexString `json:"estimated_travel_time"`
}

// Route is a suggested visiting order for one engineer.
type Route struct {
	Engineer      string     `json:"engineer"`
	RouteSequence []FlexInt  `json:"route_sequence"`
	TotalDistance FlexString `json:"total_distance"`
	EstimatedTime FlexString `json:"estimated_time"`
}

// FlexString decodes from a JSON string or number. Advisors are not strict
// about quoting values such as travel times.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	*f = FlexString(b)
	return nil
}

// FlexInt decodes from a JSON number or a numeric string.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(s)
	}
	n, err := strconv.Atoi(string(b))
	if err != nil {
		return err
	}
	*f = FlexInt(n)
	return nil
}
