package directory

import (
	"context"
	"fmt"
	"log/slog"

	"callsync/internal/closecrm"
	"callsync/internal/presence"
	"callsync/internal/taskrouter"
)

// Fetcher produces snapshots from the two remote systems. Each read is
// tolerant of partial failure: a failed fetch logs, records the error on
// the snapshot, and leaves that section best-effort empty rather than
// aborting the pass.
type Fetcher struct {
	crm      closecrm.Client
	tr       taskrouter.Client
	orgID    string
	groupIDs []string
	log      *slog.Logger
}

func NewFetcher(crm closecrm.Client, tr taskrouter.Client, orgID string, groupIDs []string, log *slog.Logger) *Fetcher {
	if log == nil {
		log = slog.Default()
	}
	return &Fetcher{crm: crm, tr: tr, orgID: orgID, groupIDs: groupIDs, log: log}
}

// Fetch reads availability, group membership, and workers once each.
func (f *Fetcher) Fetch(ctx context.Context) Snapshot {
	snap := Snapshot{
		Availability: make(map[string]presence.Status),
		GroupMembers: make(map[string][]string, len(f.groupIDs)),
	}

	if avail, err := f.crm.UserAvailability(ctx, f.orgID); err != nil {
		f.log.Error("availability fetch failed", "org_id", f.orgID, "err", err)
		snap.FetchErrors = append(snap.FetchErrors, fmt.Errorf("availability: %w", err))
	} else {
		snap.AvailabilityOK = true
		for userID, a := range avail {
			snap.Availability[userID] = presence.Derive(a.NativeOnline, a.ActiveCalls)
		}
	}

	for _, groupID := range f.groupIDs {
		members, err := f.crm.GroupMembers(ctx, groupID)
		if err != nil {
			f.log.Error("group members fetch failed", "group_id", groupID, "err", err)
			snap.FetchErrors = append(snap.FetchErrors, fmt.Errorf("group %s: %w", groupID, err))
			continue
		}
		snap.GroupMembers[groupID] = members
	}

	if workers, err := f.tr.ListWorkers(ctx); err != nil {
		f.log.Error("worker fetch failed", "err", err)
		snap.FetchErrors = append(snap.FetchErrors, fmt.Errorf("workers: %w", err))
	} else {
		snap.Workers = workers
	}

	return snap
}

// Workers is a standalone read used by the call-routing path, which needs
// live worker state but not the CRM sections of a snapshot.
func (f *Fetcher) Workers(ctx context.Context) ([]taskrouter.Worker, error) {
	return f.tr.ListWorkers(ctx)
}
