package dedupe

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_UnmarkedEventNotSeen(t *testing.T) {
	s := NewMemoryStore(time.Minute)

	seen, err := s.Seen(context.Background(), "ev_1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if seen {
		t.Fatal("unmarked event must not be seen")
	}
}

func TestMemoryStore_SeenDoesNotMark(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	ctx := context.Background()

	if _, err := s.Seen(ctx, "ev_1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	seen, err := s.Seen(ctx, "ev_1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if seen {
		t.Fatal("a check alone must not mark the event; only Mark does")
	}
}

func TestMemoryStore_MarkedEventSeen(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	ctx := context.Background()

	if err := s.Mark(ctx, "ev_1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	seen, err := s.Seen(ctx, "ev_1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !seen {
		t.Fatal("marked event must be seen")
	}
}

func TestMemoryStore_ExpiredMarkForgotten(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	if err := s.Mark(ctx, "ev_1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	now = now.Add(2 * time.Minute)
	seen, err := s.Seen(ctx, "ev_1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if seen {
		t.Fatal("an expired mark must not count as seen")
	}
}

func TestMemoryStore_DistinctEventsIndependent(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	ctx := context.Background()

	if err := s.Mark(ctx, "ev_1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	seen, err := s.Seen(ctx, "ev_2")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if seen {
		t.Fatal("different event id must not be seen")
	}
}
