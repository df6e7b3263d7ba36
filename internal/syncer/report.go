package syncer

import "time"

// Report is the structured outcome of one full reconciliation pass.
// Partial failures land here instead of being swallowed into log lines, so
// callers and tests can see exactly what a pass did.
type Report struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	WorkersCreated     int `json:"workers_created"`
	StatusUpdates      int `json:"status_updates"`
	AttributeUpdates   int `json:"attribute_updates"`
	ParticipantUpdates int `json:"participant_updates"`

	// FetchErrors are partial remote-read failures; the pass still ran
	// over whatever data was available.
	FetchErrors []string `json:"fetch_errors,omitempty"`

	// Errors are per-operation write failures. One reconciler failing
	// never prevents the others from running.
	Errors []string `json:"errors,omitempty"`
}

// TotalWrites counts every outbound mutation the pass issued.
func (r Report) TotalWrites() int {
	return r.WorkersCreated + r.StatusUpdates + r.AttributeUpdates + r.ParticipantUpdates
}

// Clean reports whether the pass completed without any failure.
func (r Report) Clean() bool {
	return len(r.FetchErrors) == 0 && len(r.Errors) == 0
}

func appendErr(dst []string, err error) []string {
	if err == nil {
		return dst
	}
	return append(dst, err.Error())
}
