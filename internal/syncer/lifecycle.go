package syncer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"callsync/internal/audit"
	"callsync/internal/presence"
	"callsync/internal/taskrouter"
)

// EnsureWorkers creates an offline telephony worker for every active CRM
// membership that has none. The check runs against live worker attributes,
// never a local cache, so re-running it is idempotent.
func (s *Syncer) EnsureWorkers(ctx context.Context) (int, error) {
	memberships, err := s.crm.Memberships(ctx, s.orgID)
	if err != nil {
		return 0, fmt.Errorf("syncer: list memberships: %w", err)
	}
	workers, err := s.tr.ListWorkers(ctx)
	if err != nil {
		return 0, fmt.Errorf("syncer: list workers: %w", err)
	}

	mapped := make(map[string]struct{}, len(workers))
	for _, w := range workers {
		if uid := taskrouter.CloseUserID(w.Attributes); uid != "" {
			mapped[uid] = struct{}{}
		}
	}

	created := 0
	var errs []error
	for _, m := range memberships {
		if m.UserID == "" {
			continue
		}
		if _, ok := mapped[m.UserID]; ok {
			continue
		}
		if err := s.createWorker(ctx, m.UserID, m.UserFullName); err != nil {
			errs = append(errs, err)
			continue
		}
		mapped[m.UserID] = struct{}{}
		created++
	}
	return created, errors.Join(errs...)
}

// ActivateUser creates a worker for a freshly activated membership,
// resolving the user's full name from the CRM first.
func (s *Syncer) ActivateUser(ctx context.Context, userID string) error {
	workers, err := s.tr.ListWorkers(ctx)
	if err != nil {
		return fmt.Errorf("syncer: list workers: %w", err)
	}
	for _, w := range workers {
		if taskrouter.CloseUserID(w.Attributes) == userID {
			// At most one live worker per user id.
			return nil
		}
	}

	u, err := s.crm.User(ctx, userID)
	if err != nil {
		return fmt.Errorf("syncer: resolve user %s: %w", userID, err)
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return fmt.Errorf("syncer: user %s has no name", userID)
	}
	return s.createWorker(ctx, userID, name)
}

// DeactivateUser tears down the worker proxying a deactivated membership.
// The worker is set offline before deletion so a racing reconciliation pass
// cannot route a call to it mid-teardown. A missing worker is a no-op.
func (s *Syncer) DeactivateUser(ctx context.Context, userID string) error {
	workers, err := s.tr.ListWorkers(ctx)
	if err != nil {
		return fmt.Errorf("syncer: list workers: %w", err)
	}

	var target taskrouter.Worker
	found := false
	for _, w := range workers {
		if taskrouter.CloseUserID(w.Attributes) == userID {
			target = w
			found = true
			break
		}
	}
	if !found {
		s.log.Info("no worker for deactivated user", "user_id", userID)
		return nil
	}

	if offlineSID, err := s.activitySID(presence.StatusOffline); err == nil {
		if err := s.tr.UpdateWorkerActivity(ctx, target.SID, offlineSID); err != nil {
			s.log.Warn("pre-delete offline update failed", "worker_sid", target.SID, "err", err)
		}
	}
	if err := s.tr.DeleteWorker(ctx, target.SID); err != nil {
		return fmt.Errorf("syncer: delete worker %s: %w", target.SID, err)
	}

	s.audit.Record(ctx, audit.Event{
		Type:      audit.EventWorkerDeleted,
		UserID:    userID,
		WorkerSID: target.SID,
		Message:   "membership deactivated",
	})
	s.log.Info("worker deleted", "user_id", userID, "worker_sid", target.SID)
	return nil
}

func (s *Syncer) createWorker(ctx context.Context, userID, fullName string) error {
	attrs := taskrouter.BuildAttributes(userID, nil)
	w, err := s.tr.CreateWorker(ctx, fullName, attrs)
	if err != nil {
		return fmt.Errorf("syncer: create worker for %s: %w", userID, err)
	}

	// New workers start offline regardless of the workspace default; the
	// next reconciliation pass raises the status if the user is reachable.
	if w.ActivityName != presence.StatusOffline.String() {
		if offlineSID, err := s.activitySID(presence.StatusOffline); err == nil {
			if err := s.tr.UpdateWorkerActivity(ctx, w.SID, offlineSID); err != nil {
				s.log.Warn("initial offline update failed", "worker_sid", w.SID, "err", err)
			}
		}
	}

	s.audit.Record(ctx, audit.Event{
		Type:      audit.EventWorkerCreated,
		UserID:    userID,
		WorkerSID: w.SID,
		Message:   "worker created for membership",
	})
	s.log.Info("worker created", "user_id", userID, "worker_sid", w.SID, "name", fullName)
	return nil
}
