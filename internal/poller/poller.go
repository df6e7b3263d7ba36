// Package poller drives the periodic reconciliation loop. Webhooks keep
// the system current in the happy path; the poll is the safety net that
// guarantees convergence after missed deliveries.
package poller

import (
	"context"
	"log/slog"
	"time"

	"callsync/internal/reporting"
	"callsync/internal/syncer"
)

// SyncRunner is the subset of the syncer the loop drives.
type SyncRunner interface {
	FullSync(ctx context.Context) syncer.Report
}

type Poller struct {
	runner   SyncRunner
	reports  *reporting.Service
	interval time.Duration
	log      *slog.Logger
}

func New(runner SyncRunner, reports *reporting.Service, interval time.Duration, log *slog.Logger) *Poller {
	if log == nil {
		log = slog.Default()
	}
	return &Poller{runner: runner, reports: reports, interval: interval, log: log}
}

// Run blocks until ctx is cancelled, running one pass per tick. Passes are
// strictly sequential: a slow pass delays the next tick instead of piling
// up concurrent runs against the same remote state.
func (p *Poller) Run(ctx context.Context) {
	p.log.Info("poller started", "interval", p.interval.String())

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info("poller stopped")
			return
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

func (p *Poller) runOnce(ctx context.Context) {
	rep := p.runner.FullSync(ctx)
	if p.reports != nil {
		if err := p.reports.Record(ctx, reporting.TriggerPoll, rep); err != nil {
			p.log.Warn("sync report archive failed", "err", err)
		}
	}
	if !rep.Clean() {
		p.log.Warn("poll pass finished with failures",
			"fetch_errors", len(rep.FetchErrors),
			"errors", len(rep.Errors),
		)
	}
}
