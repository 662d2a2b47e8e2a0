package advisor

import (
	"context"
	"errors"
	"sort"

	"github.com/kilianp07/feederwatch/core/model"
)

// ErrNoAPIKey is returned by remote advisors configured without credentials.
var ErrNoAPIKey = errors.New("advisor: api key not configured")

// DefaultSampleSize bounds the number of faults sent to an advisor.
const DefaultSampleSize = 20

// DefaultGoal is the instruction sent along with the fault data.
const DefaultGoal = "Classify each fault, assign the most suitable engineer based on specialty, " +
	"current workload, proximity and urgency, suggest route sequences, detect patterns and " +
	"predict cascading failures."

// EngineerInfo is the roster entry sent to an advisor.
type EngineerInfo struct {
	Name      string           `json:"name"`
	Specialty model.Specialty  `json:"specialty"`
	Workload  int              `json:"current_workload"`
	Location  model.Coordinate `json:"location"`
}

// Request carries the current cycle's data.
type Request struct {
	TotalFaults     int            `json:"total_faults"`
	FeedersAffected []string       `json:"feeders_affected"`
	FaultSamples    []model.Fault  `json:"fault_samples"`
	Engineers       []EngineerInfo `json:"available_engineers"`
	Goal            string         `json:"-"`
}

// Advisor returns a recommendation for the given request. A nil
// recommendation with a nil error means no advice is available.
type Advisor interface {
	Recommend(ctx context.Context, req Request) (*model.Analysis, error)
}

// NewRequest builds a request from the cycle's faults and roster. At most
// sample faults are included; sample <= 0 uses DefaultSampleSize.
func NewRequest(faults []model.Fault, engineers []*model.Engineer, sample int) Request {
	if sample <= 0 {
		sample = DefaultSampleSize
	}
	n := len(faults)
	if n > sample {
		n = sample
	}
	seen := make(map[string]struct{})
	feeders := make([]string, 0)
	for _, f := range faults {
		if _, ok := seen[f.FeederName]; ok {
			continue
		}
		seen[f.FeederName] = struct{}{}
		feeders = append(feeders, f.FeederName)
	}
	sort.Strings(feeders)
	roster := make([]EngineerInfo, len(engineers))
	for i, e := range engineers {
		roster[i] = EngineerInfo{Name: e.Name, Specialty: e.Specialty, Workload: e.Workload, Location: e.Location}
	}
	return Request{
		TotalFaults:     len(faults),
		FeedersAffected: feeders,
		FaultSamples:    append([]model.Fault(nil), faults[:n]...),
		Engineers:       roster,
		Goal:            DefaultGoal,
	}
}

// NopAdvisor never has advice.
type NopAdvisor struct{}

func (NopAdvisor) Recommend(context.Context, Request) (*model.Analysis, error) { return nil, nil }

// MockAdvisor returns a fixed analysis or error and records the last request.
type MockAdvisor struct {
	Analysis *model.Analysis
	Err      error
	Calls    int
	Last     Request
}

// Recommend implements Advisor.
func (m *MockAdvisor) Recommend(ctx context.Context, req Request) (*model.Analysis, error) {
	m.Calls++
	m.Last = req
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.Analysis, m.Err
}
