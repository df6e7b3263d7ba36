package syncer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"callsync/internal/audit"
	"callsync/internal/directory"
	"callsync/internal/presence"
)

// SyncGroupNumberParticipants keeps each virtual group number ringing
// exactly the currently-idle, reachable members of its mapped group. Users
// mid-call are excluded even though they are not offline: someone already
// on a call must not receive a second ring on the group number.
//
// Like SyncStatuses, it refuses an incomplete availability read: an outage
// would make every member look offline and empty the participant list.
func (s *Syncer) SyncGroupNumberParticipants(ctx context.Context, snap directory.Snapshot) (int, []error) {
	if !snap.AvailabilityOK {
		return 0, []error{errors.New("participants skipped: availability missing from snapshot")}
	}

	updates := 0
	var errs []error

	for _, q := range s.queues {
		members, ok := snap.GroupMembers[q.GroupID]
		if !ok {
			errs = append(errs, fmt.Errorf("participants skipped for %s: group %s missing from snapshot", q.CloseNumber, q.GroupID))
			continue
		}

		expected := make([]string, 0, len(members))
		for _, userID := range members {
			if presence.EligibleForGroupNumber(snap.StatusFor(userID)) {
				expected = append(expected, userID)
			}
		}
		sort.Strings(expected)

		phone, err := s.crm.PhoneNumberByNumber(ctx, q.CloseNumber)
		if err != nil {
			errs = append(errs, fmt.Errorf("lookup group number %s: %w", q.CloseNumber, err))
			continue
		}

		current := append([]string(nil), phone.Participants...)
		sort.Strings(current)
		if equalSorted(expected, current) {
			continue
		}

		if err := s.crm.UpdatePhoneNumberParticipants(ctx, phone.ID, expected); err != nil {
			errs = append(errs, fmt.Errorf("replace participants on %s: %w", q.CloseNumber, err))
			continue
		}
		updates++

		s.audit.Record(ctx, audit.Event{
			Type:          audit.EventParticipantsReplaced,
			PhoneNumberID: phone.ID,
			DialedNumber:  q.CloseNumber,
			Message:       strings.Join(expected, ","),
		})
		s.log.Debug("group number participants replaced", "number", q.CloseNumber, "participants", expected)
	}
	return updates, errs
}

func equalSorted(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
