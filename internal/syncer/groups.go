package syncer

import (
	"context"
	"fmt"

	"callsync/internal/audit"
	"callsync/internal/directory"
	"callsync/internal/taskrouter"
)

// SyncGroupAttributes rewrites each worker's stored group set to match the
// CRM group membership. This is the only path by which a worker becomes
// eligible for a queue; whether it actually receives calls is decided at
// call time from activity state.
//
// The reconciler refuses to run over an incomplete group snapshot: a failed
// group fetch must not look like an emptied group, or every member would be
// stripped of eligibility.
func (s *Syncer) SyncGroupAttributes(ctx context.Context, snap directory.Snapshot) (int, []error) {
	for _, q := range s.queues {
		if _, ok := snap.GroupMembers[q.GroupID]; !ok {
			return 0, []error{fmt.Errorf("group attributes skipped: group %s missing from snapshot", q.GroupID)}
		}
	}

	userGroups := make(map[string][]string)
	for groupID, members := range snap.GroupMembers {
		for _, userID := range members {
			userGroups[userID] = append(userGroups[userID], groupID)
		}
	}

	updates := 0
	var errs []error
	for _, w := range snap.Workers {
		userID := taskrouter.CloseUserID(w.Attributes)
		if userID == "" {
			continue
		}

		computed := userGroups[userID]
		current := taskrouter.GroupIDs(w.Attributes)
		if taskrouter.SameGroupSet(computed, current) {
			continue
		}

		attrs := taskrouter.BuildAttributes(userID, computed)
		if err := s.tr.UpdateWorkerAttributes(ctx, w.SID, attrs); err != nil {
			errs = append(errs, fmt.Errorf("attributes update for %s: %w", w.SID, err))
			continue
		}
		updates++

		s.audit.Record(ctx, audit.Event{
			Type:      audit.EventAttributesUpdated,
			UserID:    userID,
			WorkerSID: w.SID,
			Metadata:  attrs,
		})
		s.log.Debug("worker groups updated", "worker_sid", w.SID, "user_id", userID, "groups", computed)
	}
	return updates, errs
}
