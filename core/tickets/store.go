package tickets

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/feederwatch/core/events"
	"github.com/kilianp07/feederwatch/core/logger"
	"github.com/kilianp07/feederwatch/internal/eventbus"
)

const (
	IssuesFile        = "issues.json"
	NotificationsFile = "notifications.json"
	TaskStatusFile    = "task_status.json"
)

// Store owns the ticket state.
type Store struct {
	mu            sync.Mutex
	dir           string
	notifLimit    int
	resolvedLimit int
	bus           eventbus.EventBus
	log           logger.Logger
	clock         func() time.Time

	issues        []Issue
	notifications []Notification
	tasks         map[int]TaskStatus
}

// Open loads the state files from cfg.Dir. Missing files start empty; a file
// that exists but cannot be decoded fails with a *CorruptError. bus may be
// nil.
func Open(cfg Config, bus eventbus.EventBus, log logger.Logger) (*Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		return nil, errors.New("tickets: logger is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create tickets dir: %w", err)
	}
	s := &Store{
		dir:           cfg.Dir,
		notifLimit:    cfg.NotificationLimit,
		resolvedLimit: cfg.ResolvedLimit,
		bus:           bus,
		log:           log,
		clock:         time.Now,
		issues:        make([]Issue, 0),
		notifications: make([]Notification, 0),
		tasks:         make(map[int]TaskStatus),
	}
	if err := s.load(IssuesFile, &s.issues); err != nil {
		return nil, err
	}
	if err := s.load(NotificationsFile, &s.notifications); err != nil {
		return nil, err
	}
	if err := s.load(TaskStatusFile, &s.tasks); err != nil {
		return nil, err
	}
	if s.issues == nil {
		s.issues = make([]Issue, 0)
	}
	if s.notifications == nil {
		s.notifications = make([]Notification, 0)
	}
	if s.tasks == nil {
		s.tasks = make(map[int]TaskStatus)
	}
	log.Infof("tickets loaded: %d issues, %d notifications", len(s.issues), len(s.notifications))
	return s, nil
}

// SetClock replaces the time source.
func (s *Store) SetClock(clock func() time.Time) {
	s.mu.Lock()
	s.clock = clock
	s.mu.Unlock()
}

// Raise records a new open issue.
func (s *Store) Raise(in NewIssue) (Issue, error) {
	if err := in.Validate(); err != nil {
		return Issue{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	issue := Issue{
		ID:           uuid.NewString(),
		CustomerID:   in.CustomerID,
		CustomerName: in.CustomerName,
		IssueType:    in.IssueType,
		Description:  in.Description,
		Priority:     in.Priority,
		Status:       StatusOpen,
		CreatedAt:    s.clock(),
	}
	s.issues = append(s.issues, issue)
	if err := s.save(IssuesFile, s.issues); err != nil {
		s.issues = s.issues[:len(s.issues)-1]
		return Issue{}, err
	}
	s.publish(events.TicketChanged{Action: "raise", IssueID: issue.ID})
	return issue, nil
}

// Issues returns a copy of all issues in creation order.
func (s *Store) Issues() []Issue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Issue(nil), s.issues...)
}

// Issue returns the issue with the given id.
func (s *Store) Issue(id string) (Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(id)
	if i < 0 {
		return Issue{}, fmt.Errorf("issue %s: %w", id, ErrNotFound)
	}
	return s.issues[i], nil
}

// OpenIssues counts the issues that are not resolved.
func (s *Store) OpenIssues() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, is := range s.issues {
		if is.Status != StatusResolved {
			n++
		}
	}
	return n
}

// AssignedTo returns the unresolved issues assigned to engineer.
func (s *Store) AssignedTo(engineer string) []Issue {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]Issue, 0)
	for _, is := range s.issues {
		if is.AssignedEngineer == engineer && is.Status != StatusResolved {
			res = append(res, is)
		}
	}
	return res
}

// Assign gives the issue to engineer and creates the matching notification.
func (s *Store) Assign(id, engineer string) (Notification, error) {
	if engineer == "" {
		return Notification{}, fmt.Errorf("%w: engineer is required", ErrInvalid)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(id)
	if i < 0 {
		return Notification{}, fmt.Errorf("issue %s: %w", id, ErrNotFound)
	}
	prevIssue := s.issues[i]
	prevNotifs := s.notifications
	rollback := func() {
		s.issues[i] = prevIssue
		s.notifications = prevNotifs
	}
	issue := &s.issues[i]
	issue.AssignedEngineer = engineer
	issue.Status = StatusAssigned

	n := Notification{
		ID:         uuid.NewString(),
		Engineer:   engineer,
		IssueID:    issue.ID,
		CustomerID: issue.CustomerID,
		Message:    fmt.Sprintf("New task assigned: %s for Customer #%d", issue.IssueType, issue.CustomerID),
		CreatedAt:  s.clock(),
	}
	s.notifications = append(s.notifications, n)
	if s.notifLimit > 0 && len(s.notifications) > s.notifLimit {
		drop := len(s.notifications) - s.notifLimit
		s.notifications = append(s.notifications[:0:0], s.notifications[drop:]...)
	}
	if err := s.save(NotificationsFile, s.notifications); err != nil {
		rollback()
		return Notification{}, err
	}
	if err := s.save(IssuesFile, s.issues); err != nil {
		rollback()
		if rerr := s.save(NotificationsFile, s.notifications); rerr != nil {
			s.log.Errorf("tickets: restore %s failed: %v", NotificationsFile, rerr)
		}
		return Notification{}, err
	}
	s.publish(events.TicketChanged{Action: "assign", IssueID: issue.ID})
	s.publish(events.NotificationCreated{
		ID:         n.ID,
		Engineer:   n.Engineer,
		IssueID:    n.IssueID,
		CustomerID: n.CustomerID,
		Message:    n.Message,
		CreatedAt:  n.CreatedAt,
	})
	return n, nil
}

// Resolve closes the issue with the given notes. Resolving twice keeps the
// first resolution time.
func (s *Store) Resolve(id, notes string) (Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(id)
	if i < 0 {
		return Issue{}, fmt.Errorf("issue %s: %w", id, ErrNotFound)
	}
	issue := &s.issues[i]
	issue.Status = StatusResolved
	issue.ResolutionNotes = notes
	if issue.ResolvedAt == nil {
		now := s.clock()
		issue.ResolvedAt = &now
	}
	out := *issue
	s.trimResolved()
	if err := s.save(IssuesFile, s.issues); err != nil {
		return Issue{}, err
	}
	s.publish(events.TicketChanged{Action: "resolve", IssueID: out.ID})
	return out, nil
}

// UpdateTaskStatus stores the engineer's status for a customer and marks the
// engineer's notifications about that customer as read.
func (s *Store) UpdateTaskStatus(customerID int, engineer, status, notes string) (TaskStatus, error) {
	if status == "" || engineer == "" {
		return TaskStatus{}, fmt.Errorf("%w: engineer and status are required", ErrInvalid)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := TaskStatus{Status: status, Engineer: engineer, Notes: notes, UpdatedAt: s.clock()}
	s.tasks[customerID] = ts
	if err := s.save(TaskStatusFile, s.tasks); err != nil {
		return TaskStatus{}, err
	}
	changed := false
	for i := range s.notifications {
		n := &s.notifications[i]
		if n.Engineer == engineer && n.CustomerID == customerID && !n.Read {
			n.Read = true
			changed = true
		}
	}
	if changed {
		if err := s.save(NotificationsFile, s.notifications); err != nil {
			return TaskStatus{}, err
		}
	}
	s.publish(events.TicketChanged{Action: "task_status"})
	return ts, nil
}

// TaskStatus returns the last reported status for a customer.
func (s *Store) TaskStatus(customerID int) (TaskStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts, ok := s.tasks[customerID]
	return ts, ok
}

// Notifications returns the engineer's notifications, oldest first, and the
// number still unread.
func (s *Store) Notifications(engineer string) ([]Notification, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]Notification, 0)
	unread := 0
	for _, n := range s.notifications {
		if n.Engineer != engineer {
			continue
		}
		res = append(res, n)
		if !n.Read {
			unread++
		}
	}
	return res, unread
}

func (s *Store) find(id string) int {
	for i, is := range s.issues {
		if is.ID == id {
			return i
		}
	}
	return -1
}

// trimResolved drops the oldest resolved issues beyond the limit.
func (s *Store) trimResolved() {
	if s.resolvedLimit <= 0 {
		return
	}
	resolved := 0
	for _, is := range s.issues {
		if is.Status == StatusResolved {
			resolved++
		}
	}
	drop := resolved - s.resolvedLimit
	if drop <= 0 {
		return
	}
	kept := s.issues[:0:0]
	for _, is := range s.issues {
		if is.Status == StatusResolved && drop > 0 {
			drop--
			continue
		}
		kept = append(kept, is)
	}
	s.issues = kept
}

func (s *Store) publish(e eventbus.Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}

func (s *Store) load(name string, v any) error {
	path := filepath.Join(s.dir, name)
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return &CorruptError{Path: path, Err: err}
	}
	return nil
}

// save writes v to a temp file and renames it over the target so readers
// never see a partial document.
func (s *Store) save(name string, v any) error {
	path := filepath.Join(s.dir, name)
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("save %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("save %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		s.log.Errorf("tickets: persist %s failed: %v", name, err)
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}
