// Package limiter implements the sliding-window policy shared by the login
// lockout and the contact-form throttle. It owns no state of its own; every
// decision is recomputed from the event store, so "locked" and "limited" are
// derived views that can never drift from the underlying events.
package limiter

import (
	"context"
	"log/slog"
	"time"
)

// EventStore is the slice of the ledger the limiter needs.
type EventStore interface {
	CountSince(ctx context.Context, kind, key string, since time.Time) (int, error)
	OldestSince(ctx context.Context, kind, key string, since time.Time) (time.Time, error)
}

type Limiter struct {
	store EventStore
	log   *slog.Logger
	now   func() time.Time
}

func New(store EventStore, log *slog.Logger) *Limiter {
	return &Limiter{store: store, log: log, now: time.Now}
}

// WithClock overrides the wall clock. Tests simulate window arithmetic with
// fixed instants instead of sleeping.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// CountSince returns the number of events for key inside the trailing window.
// A store failure is reported as zero plus the error: callers that only gate
// on the count fail open, while callers that echo the count back to the user
// can tell a real zero from an unreadable one.
func (l *Limiter) CountSince(ctx context.Context, kind, key string, window time.Duration) (int, error) {
	n, err := l.store.CountSince(ctx, kind, key, l.now().Add(-window))
	if err != nil {
		l.log.Warn("limiter_count_failed", "kind", kind, "key", key, "error", err)
		return 0, err
	}
	return n, nil
}

// IsLimited reports whether key has reached max events inside the window.
// Fails open on a store fault.
func (l *Limiter) IsLimited(ctx context.Context, kind, key string, max int, window time.Duration) bool {
	n, _ := l.CountSince(ctx, kind, key, window)
	return n >= max
}

// TimeToReset returns whole minutes until the oldest in-window event ages
// out, rounded up, never negative. Zero when the window is empty. The oldest
// event drives the reset, so the limit slides forward one event at a time
// rather than resetting in a fixed block.
func (l *Limiter) TimeToReset(ctx context.Context, kind, key string, window time.Duration) int {
	now := l.now()
	oldest, err := l.store.OldestSince(ctx, kind, key, now.Add(-window))
	if err != nil {
		l.log.Warn("limiter_reset_lookup_failed", "kind", kind, "key", key, "error", err)
		return 0
	}
	if oldest.IsZero() {
		return 0
	}
	remaining := oldest.Add(window).Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(remaining/time.Minute) + 1
}
