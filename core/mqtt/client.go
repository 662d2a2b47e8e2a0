// Package mqtt defines the outbound notification contract and the topic
// layout used to reach engineers.
package mqtt

import (
	"fmt"
	"strings"
)

// Publisher delivers a payload on a topic. kind selects the QoS class
// ("cycles", "assignments" or "notifications").
type Publisher interface {
	Publish(topic, kind string, payload []byte) error
	Disconnect()
}

// Message kinds.
const (
	KindCycles        = "cycles"
	KindAssignments   = "assignments"
	KindNotifications = "notifications"
)

// DefaultPrefix is the topic root used when none is configured.
const DefaultPrefix = "feederwatch"

// Topics builds topic names under a prefix.
type Topics struct {
	Prefix string
}

// Cycles is the topic receiving one summary per cycle.
func (t Topics) Cycles() string {
	return t.prefix() + "/cycles"
}

// Assignments is the per-engineer task list topic.
func (t Topics) Assignments(engineer string) string {
	return fmt.Sprintf("%s/engineers/%s/assignments", t.prefix(), Slug(engineer))
}

// Notifications is the per-engineer ticket notification topic.
func (t Topics) Notifications(engineer string) string {
	return fmt.Sprintf("%s/engineers/%s/notifications", t.prefix(), Slug(engineer))
}

func (t Topics) prefix() string {
	if t.Prefix == "" {
		return DefaultPrefix
	}
	return strings.TrimRight(t.Prefix, "/")
}

// Slug lowercases name and turns every run of characters outside [a-z0-9]
// into a single '-'. "Eng. Riya" becomes "eng-riya".
func Slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
