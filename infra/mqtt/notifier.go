package mqtt

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/feederwatch/core/events"
	"github.com/kilianp07/feederwatch/core/logger"
	"github.com/kilianp07/feederwatch/core/model"
	coremqtt "github.com/kilianp07/feederwatch/core/mqtt"
	"github.com/kilianp07/feederwatch/internal/eventbus"
)

// CycleMessage is published on the cycles topic.
type CycleMessage struct {
	MessageID   string                 `json:"message_id"`
	Cycle       int                    `json:"cycle_number"`
	Timestamp   time.Time              `json:"timestamp"`
	TotalFaults int                    `json:"total_faults"`
	Source      model.AssignmentSource `json:"assignment_source"`
	Dropped     int                    `json:"dropped_recommendations"`
	Feeders     map[string]int         `json:"feeders"`
	Engineers   map[string]int         `json:"engineers"`
	SnapshotKey string                 `json:"snapshot_key,omitempty"`
	Persisted   bool                   `json:"snapshot_persisted"`
}

// AssignmentMessage lists one engineer's tasks for a cycle.
type AssignmentMessage struct {
	MessageID string                `json:"message_id"`
	Cycle     int                   `json:"cycle_number"`
	Engineer  string                `json:"engineer"`
	Tasks     []model.SnapshotFault `json:"tasks"`
}

// NotificationMessage forwards a ticket notification.
type NotificationMessage struct {
	MessageID string                     `json:"message_id"`
	Notice    events.NotificationCreated `json:"notification"`
}

// Notifier turns bus events into MQTT messages.
type Notifier struct {
	pub    coremqtt.Publisher
	topics coremqtt.Topics
	log    logger.Logger
	newID  func() string
	wg     sync.WaitGroup
}

// NewNotifier returns a Notifier publishing under prefix.
func NewNotifier(pub coremqtt.Publisher, prefix string, log logger.Logger) *Notifier {
	return &Notifier{pub: pub, topics: coremqtt.Topics{Prefix: prefix}, log: log, newID: uuid.NewString}
}

// Start subscribes to bus and publishes until ctx is cancelled or the bus
// is closed. Publish failures are logged and never stop the consumer.
func (n *Notifier) Start(ctx context.Context, bus eventbus.EventBus) {
	sub := bus.Subscribe()
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				n.Handle(ev)
			}
		}
	}()
}

// Wait blocks until the consumer started by Start has returned.
func (n *Notifier) Wait() { n.wg.Wait() }

// Handle publishes the messages for a single event.
func (n *Notifier) Handle(ev eventbus.Event) {
	switch e := ev.(type) {
	case events.CycleRecorded:
		n.cycle(e)
	case events.NotificationCreated:
		n.send(n.topics.Notifications(e.Engineer), coremqtt.KindNotifications, NotificationMessage{MessageID: n.newID(), Notice: e})
	}
}

func (n *Notifier) cycle(e events.CycleRecorded) {
	snap := e.Snapshot
	n.send(n.topics.Cycles(), coremqtt.KindCycles, CycleMessage{
		MessageID:   n.newID(),
		Cycle:       snap.CycleNumber,
		Timestamp:   snap.Timestamp,
		TotalFaults: snap.TotalFaults,
		Source:      snap.AssignmentSource,
		Dropped:     snap.DroppedRecommendations,
		Feeders:     snap.Summary.Feeders,
		Engineers:   snap.Summary.Engineers,
		SnapshotKey: e.Key,
		Persisted:   e.Err == nil,
	})

	engineers := make([]string, 0, len(snap.Summary.Engineers))
	for name := range snap.Summary.Engineers {
		engineers = append(engineers, name)
	}
	sort.Strings(engineers)
	for _, name := range engineers {
		n.send(n.topics.Assignments(name), coremqtt.KindAssignments, AssignmentMessage{
			MessageID: n.newID(),
			Cycle:     snap.CycleNumber,
			Engineer:  name,
			Tasks:     snap.FaultsFor(name),
		})
	}
}

func (n *Notifier) send(topic, kind string, msg any) {
	payload, err := json.Marshal(msg)
	if err != nil {
		n.log.Errorf("encode %s message: %v", kind, err)
		return
	}
	if err := n.pub.Publish(topic, kind, payload); err != nil {
		n.log.Warnf("mqtt publish to %s failed: %v", topic, err)
	}
}
