package reporting

import (
	"context"
	"errors"
	"time"

	"callsync/internal/syncer"

	"github.com/google/uuid"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Repository abstracts storage of archived reconciliation passes.

type Repository interface {
	Append(ctx context.Context, e Entry) error
	List(ctx context.Context, from, to time.Time, trigger string, limit int) ([]Entry, error)
}

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// Record archives one pass. Errors are returned so the caller can log them,
// but a failed archive never fails the pass itself.
func (s *Service) Record(ctx context.Context, trigger string, rep syncer.Report) error {
	if s.repo == nil {
		return errors.New("reporting: repository not configured")
	}
	return s.repo.Append(ctx, Entry{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		Report:    rep,
		CreatedAt: s.clock().UTC(),
	})
}

// Recent returns the latest passes, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if s.repo == nil {
		return nil, errors.New("reporting: repository not configured")
	}
	if limit <= 0 {
		limit = 20
	}
	return s.repo.List(ctx, time.Time{}, time.Time{}, "", limit)
}

// Summary aggregates sync health over a window.
func (s *Service) Summary(ctx context.Context, req SyncSummaryRequest) (SyncSummary, error) {
	if req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From) {
		return SyncSummary{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return SyncSummary{}, errors.New("reporting: repository not configured")
	}

	entries, err := s.repo.List(ctx, req.Range.From, req.Range.To, req.Trigger, 0)
	if err != nil {
		return SyncSummary{}, err
	}

	out := SyncSummary{Trigger: req.Trigger}
	for _, e := range entries {
		out.TotalPasses++
		if e.Report.Clean() {
			out.CleanPasses++
		} else {
			out.FailedPasses++
		}
		out.WorkersCreated += e.Report.WorkersCreated
		out.StatusUpdates += e.Report.StatusUpdates
		out.AttributeUpdates += e.Report.AttributeUpdates
		out.ParticipantUpdates += e.Report.ParticipantUpdates
		out.TotalWrites += e.Report.TotalWrites()
		out.FetchErrors += len(e.Report.FetchErrors)
		out.WriteErrors += len(e.Report.Errors)
	}
	return out, nil
}
