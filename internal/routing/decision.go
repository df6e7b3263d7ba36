package routing

import "callsync/internal/config"

// Decision is the outcome of routing one inbound call. It carries only what
// the provider adapter boundary (the TwiML builder) needs to execute it.
type Decision struct {
	Action Action

	// Queue is set for enqueue and bypass decisions.
	Queue config.Queue

	// DialNumber is the target for bypass and fallback decisions.
	DialNumber string

	// TaskPayload is the opaque JSON attached to an enqueued task.
	TaskPayload string

	// SafetyNetNumber is dialed if an enqueue ends without the call
	// being bridged (0-worker race).
	SafetyNetNumber string

	// Reason is for internal logs only.
	Reason string
}

type Action string

const (
	// ActionEnqueue creates a task and places the caller in the queue.
	ActionEnqueue Action = "enqueue"

	// ActionBypass dials the queue's CRM group number directly so the
	// CRM platform's own voicemail capture handles the call.
	ActionBypass Action = "bypass"

	// ActionFallback dials the global fallback number. This is the
	// misconfiguration path and is logged as an error.
	ActionFallback Action = "fallback"
)

// AssignmentInstruction is the JSON body returned to the distribution
// layer's assignment callback. A redirect (rather than a dequeue) keeps the
// original caller id on the call leg the accepting party sees.
type AssignmentInstruction struct {
	Instruction string `json:"instruction"`
	CallSID     string `json:"call_sid"`
	URL         string `json:"url"`
	Accept      bool   `json:"accept"`
}
