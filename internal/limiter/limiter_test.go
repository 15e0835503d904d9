package limiter

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"
)

// fakeStore keeps events in memory and can be told to fail.
type fakeStore struct {
	events map[string][]time.Time // kind+"/"+key -> timestamps
	err    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{events: make(map[string][]time.Time)}
}

func (f *fakeStore) add(kind, key string, at time.Time) {
	f.events[kind+"/"+key] = append(f.events[kind+"/"+key], at)
}

func (f *fakeStore) CountSince(_ context.Context, kind, key string, since time.Time) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	n := 0
	for _, at := range f.events[kind+"/"+key] {
		if !at.Before(since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) OldestSince(_ context.Context, kind, key string, since time.Time) (time.Time, error) {
	if f.err != nil {
		return time.Time{}, f.err
	}
	var oldest time.Time
	for _, at := range f.events[kind+"/"+key] {
		if at.Before(since) {
			continue
		}
		if oldest.IsZero() || at.Before(oldest) {
			oldest = at
		}
	}
	return oldest, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestIsLimited_Threshold(t *testing.T) {
	store := newFakeStore()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	lim := New(store, testLogger()).WithClock(func() time.Time { return base })

	for i := 0; i < 4; i++ {
		store.add("login_failure", "1.2.3.4", base.Add(-time.Duration(i)*time.Minute))
	}
	if lim.IsLimited(context.Background(), "login_failure", "1.2.3.4", 5, 15*time.Minute) {
		t.Fatal("4 events should not reach a limit of 5")
	}

	store.add("login_failure", "1.2.3.4", base)
	if !lim.IsLimited(context.Background(), "login_failure", "1.2.3.4", 5, 15*time.Minute) {
		t.Fatal("5 events should reach a limit of 5")
	}
}

func TestIsLimited_OldEventsAgeOut(t *testing.T) {
	store := newFakeStore()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// submissions at t=0, 4, 9 minutes; limit 3 per 10 minutes
	store.add("contact_submission", "ip", base)
	store.add("contact_submission", "ip", base.Add(4*time.Minute))
	store.add("contact_submission", "ip", base.Add(9*time.Minute))

	at := func(offset time.Duration) bool {
		lim := New(store, testLogger()).WithClock(func() time.Time { return base.Add(offset) })
		return lim.IsLimited(context.Background(), "contact_submission", "ip", 3, 10*time.Minute)
	}

	if !at(9*time.Minute + 30*time.Second) {
		t.Error("at t=9.5m all three events are in the window; should be limited")
	}
	if at(10*time.Minute + 6*time.Second) {
		t.Error("at t=10.1m the t=0 event has aged out; should not be limited")
	}
}

func TestTimeToReset(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	window := 15 * time.Minute

	tests := []struct {
		name    string
		offsets []time.Duration // event times relative to base
		now     time.Duration   // clock relative to base
		want    int
	}{
		{"no events", nil, 0, 0},
		{"single fresh event", []time.Duration{0}, 30 * time.Second, 15},
		{"oldest event drives reset", []time.Duration{0, 10 * time.Minute}, 5 * time.Minute, 11},
		{"almost expired", []time.Duration{0}, 14*time.Minute + 30*time.Second, 1},
		{"expired", []time.Duration{0}, 15*time.Minute + time.Second, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			for _, off := range tt.offsets {
				store.add("login_failure", "ip", base.Add(off))
			}
			lim := New(store, testLogger()).WithClock(func() time.Time { return base.Add(tt.now) })
			got := lim.TimeToReset(context.Background(), "login_failure", "ip", window)
			if got != tt.want {
				t.Errorf("TimeToReset = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTimeToReset_MonotonicNonIncreasing(t *testing.T) {
	store := newFakeStore()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.add("login_failure", "ip", base)
	store.add("login_failure", "ip", base.Add(3*time.Minute))

	prev := 1 << 30
	for off := time.Duration(0); off <= 20*time.Minute; off += 47 * time.Second {
		lim := New(store, testLogger()).WithClock(func() time.Time { return base.Add(off) })
		got := lim.TimeToReset(context.Background(), "login_failure", "ip", 15*time.Minute)
		if got > prev {
			t.Fatalf("reset time increased from %d to %d at offset %s", prev, got, off)
		}
		prev = got
	}
	if prev != 0 {
		t.Fatalf("reset time never reached 0, ended at %d", prev)
	}
}

func TestFailOpen(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("connection refused")
	lim := New(store, testLogger())

	if lim.IsLimited(context.Background(), "login_failure", "ip", 1, time.Minute) {
		t.Error("store failure must report not limited")
	}
	got, err := lim.CountSince(context.Background(), "login_failure", "ip", time.Minute)
	if got != 0 {
		t.Errorf("CountSince on store failure = %d, want 0", got)
	}
	if err == nil {
		t.Error("CountSince on store failure must surface the error")
	}
	if got := lim.TimeToReset(context.Background(), "login_failure", "ip", time.Minute); got != 0 {
		t.Errorf("TimeToReset on store failure = %d, want 0", got)
	}
}
