package syncer

import (
	"fmt"
	"log/slog"
	"time"

	"callsync/internal/audit"
	"callsync/internal/closecrm"
	"callsync/internal/config"
	"callsync/internal/directory"
	"callsync/internal/presence"
	"callsync/internal/taskrouter"
)

// Syncer reconciles the CRM and telephony directories. It holds no mutable
// state of its own: every pass rebuilds its view from a fresh snapshot, so
// staleness is the only concurrency hazard and convergence is idempotent.
type Syncer struct {
	crm        closecrm.Client
	tr         taskrouter.Client
	fetcher    *directory.Fetcher
	activities taskrouter.ActivityMap
	queues     []config.Queue
	orgID      string

	audit *audit.Service
	log   *slog.Logger
	now   func() time.Time
}

type Deps struct {
	CRM        closecrm.Client
	TaskRouter taskrouter.Client
	Fetcher    *directory.Fetcher
	Activities taskrouter.ActivityMap
	Queues     []config.Queue
	OrgID      string
	Audit      *audit.Service
	Log        *slog.Logger
}

func New(d Deps) *Syncer {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	return &Syncer{
		crm:        d.CRM,
		tr:         d.TaskRouter,
		fetcher:    d.Fetcher,
		activities: d.Activities,
		queues:     d.Queues,
		orgID:      d.OrgID,
		audit:      d.Audit,
		log:        log,
		now:        time.Now,
	}
}

// activitySID resolves the workspace activity SID for a canonical status.
func (s *Syncer) activitySID(st presence.Status) (string, error) {
	sid, ok := s.activities.SIDFor(st.String())
	if !ok {
		return "", fmt.Errorf("syncer: no activity named %q in workspace", st.String())
	}
	return sid, nil
}

func (s *Syncer) groupIDs() []string {
	ids := make([]string, 0, len(s.queues))
	for _, q := range s.queues {
		ids = append(ids, q.GroupID)
	}
	return ids
}
