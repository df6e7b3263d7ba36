package directory

import (
	"callsync/internal/presence"
	"callsync/internal/taskrouter"
)

// Snapshot is one consistent read of both remote systems, rebuilt on every
// reconciliation pass. It is never cached across passes.
type Snapshot struct {
	// Availability maps user id to canonical status. A user missing from
	// the map is unknown; StatusFor applies the offline default.
	Availability map[string]presence.Status

	// AvailabilityOK marks that the availability fetch succeeded. The
	// offline default in StatusFor is only meaningful over a complete
	// read; reconcilers that derive writes from status must refuse to
	// run when this is unset, or an availability outage would read as
	// everyone-offline.
	AvailabilityOK bool

	// GroupMembers maps group id to member user ids.
	GroupMembers map[string][]string

	Workers []taskrouter.Worker

	// FetchErrors records partial remote failures. A non-empty list means
	// the snapshot is best-effort, not complete.
	FetchErrors []error
}

// StatusFor returns the canonical status for a user, defaulting to offline
// when the availability fetch had no entry.
func (s Snapshot) StatusFor(userID string) presence.Status {
	if st, ok := s.Availability[userID]; ok {
		return st
	}
	return presence.StatusOffline
}

// WorkerForUser finds the live worker proxying a CRM user, if any.
func (s Snapshot) WorkerForUser(userID string) (taskrouter.Worker, bool) {
	for _, w := range s.Workers {
		if taskrouter.CloseUserID(w.Attributes) == userID {
			return w, true
		}
	}
	return taskrouter.Worker{}, false
}

// MappedUserIDs returns the set of user ids that already have a worker.
func (s Snapshot) MappedUserIDs() map[string]struct{} {
	out := make(map[string]struct{}, len(s.Workers))
	for _, w := range s.Workers {
		if uid := taskrouter.CloseUserID(w.Attributes); uid != "" {
			out[uid] = struct{}{}
		}
	}
	return out
}
