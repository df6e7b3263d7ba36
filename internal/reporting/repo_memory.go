package reporting

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo keeps the most recent entries in a bounded ring. Sync history
// is operational data, not a system of record, so losing it on restart is
// acceptable.

type MemoryRepo struct {
	mu      sync.Mutex
	entries []Entry
	cap     int
}

const defaultCapacity = 200

func NewMemoryRepo(capacity int) *MemoryRepo {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &MemoryRepo{cap: capacity}
}

func (r *MemoryRepo) Append(ctx context.Context, e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	if len(r.entries) > r.cap {
		r.entries = r.entries[len(r.entries)-r.cap:]
	}
	return nil
}

// List returns entries in the window, newest first.
func (r *MemoryRepo) List(ctx context.Context, from, to time.Time, trigger string, limit int) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Entry, 0)
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if !from.IsZero() && e.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !e.CreatedAt.Before(to) {
			continue
		}
		if trigger != "" && e.Trigger != trigger {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
