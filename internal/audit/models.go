package audit

import "time"

// Event is an immutable, append-only record of one outbound mutation this
// engine issued toward the CRM or telephony platform.
//
// Invariants:
// - Events are never updated or deleted.
// - Recording is best-effort; the sync and call paths never block on it.
type Event struct {
	ID   string    `json:"id" db:"id"`
	Type EventType `json:"type" db:"type"`

	// Target identifiers (optional, depending on the event type).
	UserID        string `json:"user_id,omitempty" db:"user_id"`
	WorkerSID     string `json:"worker_sid,omitempty" db:"worker_sid"`
	TaskSID       string `json:"task_sid,omitempty" db:"task_sid"`
	PhoneNumberID string `json:"phone_number_id,omitempty" db:"phone_number_id"`
	DialedNumber  string `json:"dialed_number,omitempty" db:"dialed_number"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON for full details.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventWorkerCreated        EventType = "worker_created"
	EventWorkerDeleted        EventType = "worker_deleted"
	EventActivityUpdated      EventType = "worker_activity_updated"
	EventAttributesUpdated    EventType = "worker_attributes_updated"
	EventParticipantsReplaced EventType = "participants_replaced"
	EventTaskCompleted        EventType = "task_completed"
	EventCallEnqueued         EventType = "call_enqueued"
	EventCallBypassed         EventType = "call_bypassed"
	EventCallRedirected       EventType = "call_redirected"
)
