package syncer

import (
	"context"
	"errors"
	"fmt"

	"callsync/internal/audit"
	"callsync/internal/directory"
	"callsync/internal/presence"
	"callsync/internal/taskrouter"
)

// SyncStatuses pushes the canonical status to every worker whose activity
// diverges from it. Diff-only: matching workers are never written, because
// the remote update call is the costly, rate-limited operation.
//
// The reconciler refuses to run when the availability fetch failed: with no
// entries, every user would default to offline and one CRM outage would
// mass-offline the whole workspace.
func (s *Syncer) SyncStatuses(ctx context.Context, snap directory.Snapshot) (int, []error) {
	if !snap.AvailabilityOK {
		return 0, []error{errors.New("status sync skipped: availability missing from snapshot")}
	}

	updates := 0
	var errs []error

	for _, w := range snap.Workers {
		userID := taskrouter.CloseUserID(w.Attributes)
		if userID == "" {
			continue
		}

		canonical := snap.StatusFor(userID)
		current := presence.ParseActivity(w.ActivityName)
		if canonical == current {
			continue
		}

		sid, err := s.activitySID(canonical)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.tr.UpdateWorkerActivity(ctx, w.SID, sid); err != nil {
			errs = append(errs, fmt.Errorf("status update for %s: %w", w.SID, err))
			continue
		}
		updates++

		s.audit.Record(ctx, audit.Event{
			Type:      audit.EventActivityUpdated,
			UserID:    userID,
			WorkerSID: w.SID,
			Message:   fmt.Sprintf("%s -> %s", w.ActivityName, canonical),
		})
		s.log.Debug("worker status updated", "worker_sid", w.SID, "user_id", userID, "status", canonical.String())
	}
	return updates, errs
}
