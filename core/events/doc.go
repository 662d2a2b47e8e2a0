// Package events defines the monitoring events emitted on the event bus.
//
// Available event types:
//   - CycleRecorded: a cycle finished and its snapshot was handed to the store
//   - AdvisorCalled: outcome of a recommendation advisor call
//   - TicketChanged: an issue was raised, assigned or resolved
//   - NotificationCreated: an engineer received a new notification
package events
