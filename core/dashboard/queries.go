// Package dashboard answers the read-only questions of the customer,
// engineer and admin views. Every query goes through the snapshot store, so
// it sees exactly what was persisted.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kilianp07/feederwatch/core/model"
	"github.com/kilianp07/feederwatch/core/snapshot"
	"github.com/kilianp07/feederwatch/core/tickets"
)

// Entry statuses of a customer history.
const (
	StatusResolved = "Resolved"
	StatusPending  = "Pending"
)

// RecentCycles is the number of cycles listed in the admin summary.
const RecentCycles = 10

// HistoryEntry is one fault of a customer in one cycle.
type HistoryEntry struct {
	Cycle            int       `json:"cycle"`
	Timestamp        time.Time `json:"timestamp"`
	OldOutput        int       `json:"old_output"`
	NewOutput        int       `json:"new_output"`
	ChangePercentage float64   `json:"change_percentage"`
	AssignedEngineer string    `json:"assigned_engineer"`
	Status           string    `json:"status"`
}

// CycleBrief summarises one cycle for the admin view.
type CycleBrief struct {
	Cycle       int                    `json:"cycle_number"`
	Timestamp   time.Time              `json:"timestamp"`
	TotalFaults int                    `json:"total_faults"`
	Source      model.AssignmentSource `json:"assignment_source"`
}

// AdminSummary is the admin overview.
type AdminSummary struct {
	TotalCycles     int               `json:"total_cycles"`
	TotalCustomers  int               `json:"total_customers"`
	TotalEngineers  int               `json:"total_engineers"`
	ActiveFaults    int               `json:"active_faults"`
	FaultsAllCycles int               `json:"faults_all_cycles"`
	OpenIssues      int               `json:"open_issues"`
	TotalIssues     int               `json:"total_issues"`
	CorruptCycles   int               `json:"corrupt_cycles"`
	LatestCycle     int               `json:"latest_cycle"`
	Feeders         map[string]int    `json:"feeders"`
	Engineers       map[string]int    `json:"engineers"`
	ChangeStats     model.ChangeStats `json:"change_stats"`
	AIAnalysis      *model.Analysis   `json:"ai_analysis"`
	Recent          []CycleBrief      `json:"recent_cycles"`
}

// Tickets is the part of the tickets store the admin summary reads.
type Tickets interface {
	Issues() []tickets.Issue
	OpenIssues() int
}

// Service runs dashboard queries.
type Service struct {
	store     snapshot.Store
	tickets   Tickets
	customers int
	roster    map[string]struct{}
}

// NewService returns a Service. t may be nil. customers is the registry size
// shown in the admin summary and engineers the roster names.
func NewService(store snapshot.Store, t Tickets, customers int, engineers []string) *Service {
	roster := make(map[string]struct{}, len(engineers))
	for _, name := range engineers {
		roster[name] = struct{}{}
	}
	return &Service{store: store, tickets: t, customers: customers, roster: roster}
}

// KnowsEngineer reports whether name is on the roster. An empty roster
// accepts any name.
func (s *Service) KnowsEngineer(name string) bool {
	if len(s.roster) == 0 {
		return name != ""
	}
	_, ok := s.roster[name]
	return ok
}

// LatestData returns the snapshot with the highest cycle number, or nil when
// nothing was recorded yet.
func (s *Service) LatestData(ctx context.Context) (*model.Snapshot, error) {
	snap, err := s.store.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	return snap, nil
}

// CustomerHistory lists every fault of the customer across all cycles in
// cycle order. Entries older than the last two cycles are reported Resolved.
func (s *Service) CustomerHistory(ctx context.Context, customerID int) ([]HistoryEntry, error) {
	listing, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	total := len(listing.Snapshots)
	res := make([]HistoryEntry, 0)
	for _, snap := range listing.Snapshots {
		for _, f := range snap.Faults {
			if f.CustomerID != customerID {
				continue
			}
			status := StatusPending
			if snap.CycleNumber < total-2 {
				status = StatusResolved
			}
			res = append(res, HistoryEntry{
				Cycle:            snap.CycleNumber,
				Timestamp:        snap.Timestamp,
				OldOutput:        f.OldOutput,
				NewOutput:        f.NewOutput,
				ChangePercentage: f.ChangePercentage,
				AssignedEngineer: f.AssignedEngineer,
				Status:           status,
			})
		}
	}
	return res, nil
}

// EngineerTasks returns the faults assigned to the engineer in the latest
// cycle only.
func (s *Service) EngineerTasks(ctx context.Context, engineer string) ([]model.SnapshotFault, error) {
	snap, err := s.LatestData(ctx)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return make([]model.SnapshotFault, 0), nil
	}
	return snap.FaultsFor(engineer), nil
}

// Summary builds the admin overview from the full history.
func (s *Service) Summary(ctx context.Context) (AdminSummary, error) {
	listing, err := s.store.List(ctx)
	if err != nil {
		return AdminSummary{}, fmt.Errorf("list snapshots: %w", err)
	}
	out := AdminSummary{
		TotalCycles:    len(listing.Snapshots),
		TotalCustomers: s.customers,
		TotalEngineers: len(s.roster),
		CorruptCycles:  len(listing.Skipped),
		Feeders:        make(map[string]int),
		Engineers:      make(map[string]int),
		Recent:         make([]CycleBrief, 0, RecentCycles),
	}
	for _, snap := range listing.Snapshots {
		out.FaultsAllCycles += snap.TotalFaults
	}
	if latest := listing.Newest(); latest != nil {
		out.LatestCycle = latest.CycleNumber
		out.ActiveFaults = latest.TotalFaults
		out.ChangeStats = latest.Summary.ChangeStats
		out.AIAnalysis = latest.AIAnalysis
		for k, v := range latest.Summary.Feeders {
			out.Feeders[k] = v
		}
		for k, v := range latest.Summary.Engineers {
			out.Engineers[k] = v
		}
	}
	start := len(listing.Snapshots) - RecentCycles
	if start < 0 {
		start = 0
	}
	for _, snap := range listing.Snapshots[start:] {
		out.Recent = append(out.Recent, CycleBrief{
			Cycle:       snap.CycleNumber,
			Timestamp:   snap.Timestamp,
			TotalFaults: snap.TotalFaults,
			Source:      snap.AssignmentSource,
		})
	}
	if s.tickets != nil {
		out.TotalIssues = len(s.tickets.Issues())
		out.OpenIssues = s.tickets.OpenIssues()
	}
	return out, nil
}

// FeederCount is one bar of the feeder chart.
type FeederCount struct {
	Feeder string
	Faults int
}

// FeederCounts returns the latest cycle's faults per feeder sorted by feeder
// name, and the cycle number. Cycle is 0 when nothing was recorded.
func (s *Service) FeederCounts(ctx context.Context) ([]FeederCount, int, error) {
	snap, err := s.LatestData(ctx)
	if err != nil {
		return nil, 0, err
	}
	res := make([]FeederCount, 0)
	if snap == nil {
		return res, 0, nil
	}
	for name, n := range snap.Summary.Feeders {
		res = append(res, FeederCount{Feeder: name, Faults: n})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Feeder < res[j].Feeder })
	return res, snap.CycleNumber, nil
}
