// Package visitor appends one row per public page view and keeps retention
// bounded. Tracking must never break a page render: every failure is logged
// and dropped.
package visitor

import (
	"context"
	"log/slog"
	"time"
)

// Retention horizon for visit rows. Pruning happens opportunistically on
// every write rather than in a background sweep; correctness only needs the
// invariant to hold eventually.
const Retention = 90 * 24 * time.Hour

type VisitStore interface {
	InsertVisit(ctx context.Context, ip, page, referrer, userAgent string, at time.Time) error
	DeleteVisitsBefore(ctx context.Context, cutoff time.Time) error
}

type Recorder struct {
	store VisitStore
	log   *slog.Logger
	now   func() time.Time
}

func New(store VisitStore, log *slog.Logger) *Recorder {
	return &Recorder{store: store, log: log, now: time.Now}
}

func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	r.now = now
	return r
}

// Record logs one page view, then trims rows past the retention horizon.
func (r *Recorder) Record(ctx context.Context, ip, page, referrer, userAgent string) {
	now := r.now()
	if err := r.store.InsertVisit(ctx, ip, page, referrer, userAgent, now); err != nil {
		r.log.Warn("visit_track_failed", "ip", ip, "page", page, "error", err)
		return
	}
	if err := r.store.DeleteVisitsBefore(ctx, now.Add(-Retention)); err != nil {
		r.log.Warn("visit_prune_failed", "error", err)
	}
}
