package events

import "time"

// TicketChanged is emitted by the tickets store. Action is one of "raise",
// "assign", "resolve" or "task_status".
type TicketChanged struct {
	Action  string
	IssueID string
}

// NotificationCreated carries a notification addressed to an engineer.
type NotificationCreated struct {
	ID         string    `json:"id"`
	Engineer   string    `json:"engineer"`
	IssueID    string    `json:"issue_id"`
	CustomerID int       `json:"customer_id"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}
