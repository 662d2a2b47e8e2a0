// Package tickets keeps the customer issues, engineer notifications and
// per-customer task status raised from the dashboard. State lives in memory
// behind a mutex and is written through to JSON files after every change.
package tickets

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when an issue id is unknown.
	ErrNotFound = errors.New("tickets: not found")
	// ErrInvalid wraps every input validation failure.
	ErrInvalid = errors.New("tickets: invalid input")
)

// CorruptError reports a state file that exists but cannot be decoded.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("tickets: corrupt file %s: %v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// IssueStatus is the lifecycle state of an issue.
type IssueStatus string

const (
	StatusOpen     IssueStatus = "open"
	StatusAssigned IssueStatus = "assigned"
	StatusResolved IssueStatus = "resolved"
)

// Priority of an issue.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Issue is a ticket raised by a customer.
type Issue struct {
	ID               string      `json:"id"`
	CustomerID       int         `json:"customer_id"`
	CustomerName     string      `json:"customer_name"`
	IssueType        string      `json:"issue_type"`
	Description      string      `json:"description"`
	Priority         Priority    `json:"priority"`
	Status           IssueStatus `json:"status"`
	AssignedEngineer string      `json:"assigned_engineer,omitempty"`
	ResolutionNotes  string      `json:"resolution_notes,omitempty"`
	CreatedAt        time.Time   `json:"timestamp"`
	ResolvedAt       *time.Time  `json:"resolved_at,omitempty"`
}

// NewIssue is the input of Raise.
type NewIssue struct {
	CustomerID   int      `json:"customer_id"`
	CustomerName string   `json:"customer_name"`
	IssueType    string   `json:"issue_type"`
	Description  string   `json:"description"`
	Priority     Priority `json:"priority"`
}

// Validate checks the required fields and the priority value.
func (n *NewIssue) Validate() error {
	if n.CustomerID <= 0 {
		return fmt.Errorf("%w: customer_id must be positive", ErrInvalid)
	}
	if n.IssueType == "" {
		return fmt.Errorf("%w: issue_type is required", ErrInvalid)
	}
	switch n.Priority {
	case "":
		n.Priority = PriorityMedium
	case PriorityLow, PriorityMedium, PriorityHigh:
	default:
		return fmt.Errorf("%w: unknown priority %q", ErrInvalid, n.Priority)
	}
	return nil
}

// Notification tells an engineer about an assigned issue.
type Notification struct {
	ID         string    `json:"id"`
	Engineer   string    `json:"engineer_name"`
	IssueID    string    `json:"issue_id"`
	CustomerID int       `json:"customer_id"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"timestamp"`
	Read       bool      `json:"read"`
}

// TaskStatus is the latest status an engineer reported for a customer.
type TaskStatus struct {
	Status    string    `json:"status"`
	Engineer  string    `json:"engineer"`
	Notes     string    `json:"notes,omitempty"`
	UpdatedAt time.Time `json:"timestamp"`
}
