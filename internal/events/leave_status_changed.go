package events

import "time"

const LeaveStatusChangedTopic = "elms.leave.status.v1"

// LeaveStatusChangedEvent is published through the outbox whenever a leave
// request changes status, so downstream consumers (notifiers, calendars)
// can react without the engine knowing about them.
type LeaveStatusChangedEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id"`
	EmployeeID string    `json:"employee_id"`
	ActorID    string    `json:"actor_id"`
	OldStatus  string    `json:"old_status"`
	NewStatus  string    `json:"new_status"`
	OccurredAt time.Time `json:"occurred_at"`
}
