package reporting

import (
	"time"

	"callsync/internal/syncer"
)

// Common filtering inputs.

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Entry is one archived reconciliation pass, tagged with how it was
// triggered.

type Entry struct {
	ID        string        `json:"id"`
	Trigger   string        `json:"trigger"`
	Report    syncer.Report `json:"report"`
	CreatedAt time.Time     `json:"created_at"`
}

const (
	TriggerPoll    = "poll"
	TriggerWebhook = "webhook"
	TriggerManual  = "manual"
	TriggerStartup = "startup"
)

// SyncSummaryRequest requests aggregated sync health over a window.

type SyncSummaryRequest struct {
	Range   TimeRange `json:"range"`
	Trigger string    `json:"trigger,omitempty"`
}

type SyncSummary struct {
	Trigger string `json:"trigger,omitempty"`

	TotalPasses  int `json:"total_passes"`
	CleanPasses  int `json:"clean_passes"`
	FailedPasses int `json:"failed_passes"`

	WorkersCreated     int `json:"workers_created"`
	StatusUpdates      int `json:"status_updates"`
	AttributeUpdates   int `json:"attribute_updates"`
	ParticipantUpdates int `json:"participant_updates"`
	TotalWrites        int `json:"total_writes"`

	FetchErrors int `json:"fetch_errors"`
	WriteErrors int `json:"write_errors"`
}
