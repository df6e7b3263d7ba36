package syncer

import "context"

// FullSync runs all three reconcilers against one consistent snapshot.
// Fetching once per pass avoids tearing between independent reads; running
// the reconcilers independently keeps one failure domain from blocking the
// others.
func (s *Syncer) FullSync(ctx context.Context) Report {
	report := Report{StartedAt: s.now().UTC()}

	snap := s.fetcher.Fetch(ctx)
	for _, err := range snap.FetchErrors {
		report.FetchErrors = append(report.FetchErrors, err.Error())
	}

	statusUpdates, statusErrs := s.SyncStatuses(ctx, snap)
	report.StatusUpdates = statusUpdates
	for _, err := range statusErrs {
		report.Errors = appendErr(report.Errors, err)
	}

	attrUpdates, attrErrs := s.SyncGroupAttributes(ctx, snap)
	report.AttributeUpdates = attrUpdates
	for _, err := range attrErrs {
		report.Errors = appendErr(report.Errors, err)
	}

	partUpdates, partErrs := s.SyncGroupNumberParticipants(ctx, snap)
	report.ParticipantUpdates = partUpdates
	for _, err := range partErrs {
		report.Errors = appendErr(report.Errors, err)
	}

	report.FinishedAt = s.now().UTC()

	if report.TotalWrites() > 0 || !report.Clean() {
		s.log.Info("full sync finished",
			"status_updates", report.StatusUpdates,
			"attribute_updates", report.AttributeUpdates,
			"participant_updates", report.ParticipantUpdates,
			"fetch_errors", len(report.FetchErrors),
			"errors", len(report.Errors),
		)
	} else {
		s.log.Debug("full sync finished with nothing to do")
	}
	return report
}

// Startup runs the boot sequence: make sure every membership has a worker,
// then converge everything with an initial full pass.
func (s *Syncer) Startup(ctx context.Context) Report {
	created, err := s.EnsureWorkers(ctx)
	report := s.FullSync(ctx)
	report.WorkersCreated = created
	report.Errors = appendErr(report.Errors, err)
	return report
}
