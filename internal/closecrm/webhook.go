package closecrm

import (
	"encoding/json"
	"errors"
	"io"
)

// WebhookEvent is the subset of the CRM webhook envelope this engine reacts
// to. The same envelope shape carries membership updates and call-activity
// updates; the subscribed route decides which fields matter.
type WebhookEvent struct {
	ID         string `json:"id"`
	Action     string `json:"action"`
	ObjectType string `json:"object_type"`
	ObjectID   string `json:"object_id"`
	UserID     string `json:"user_id"`

	Data struct {
		UserID string `json:"user_id"`
	} `json:"data"`
}

const (
	ActionActivated   = "activated"
	ActionDeactivated = "deactivated"
	ActionUpdated     = "updated"
	ActionCompleted   = "completed"
	ActionCreated     = "created"
)

var ErrEmptyEvent = errors.New("closecrm: webhook payload has no event")

// ParseWebhook decodes a webhook request body into its event.
func ParseWebhook(r io.Reader) (WebhookEvent, error) {
	var payload struct {
		Event *WebhookEvent `json:"event"`
	}
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return WebhookEvent{}, err
	}
	if payload.Event == nil {
		return WebhookEvent{}, ErrEmptyEvent
	}
	return *payload.Event, nil
}

// SubjectUserID returns the user the event is about, preferring the
// top-level field over the nested data payload.
func (e WebhookEvent) SubjectUserID() string {
	if e.UserID != "" {
		return e.UserID
	}
	return e.Data.UserID
}
