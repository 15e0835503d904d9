// Package ledger is the durable event store behind the abuse guards: failed
// logins and accepted submissions land in throttle_events, page views in
// site_visitors, accepted messages in contact_messages. All window counting
// is done here in SQL so multiple server processes share one view.
package ledger

import (
	"context"
	"time"

	"portfolio-site/internal/db"
)

// Event kinds recorded in throttle_events.
const (
	KindLoginFailure      = "login_failure"
	KindContactSubmission = "contact_submission"
)

type Store struct {
	db *db.DB
}

func New(d *db.DB) *Store {
	return &Store{db: d}
}

func (s *Store) Append(ctx context.Context, kind, key string, at time.Time) error {
	_, err := s.db.Pool.Exec(ctx,
		`INSERT INTO throttle_events (kind, key, occurred_at) VALUES ($1, $2, $3)`,
		kind, key, at,
	)
	return err
}

func (s *Store) CountSince(ctx context.Context, kind, key string, since time.Time) (int, error) {
	var n int
	err := s.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM throttle_events WHERE kind = $1 AND key = $2 AND occurred_at >= $3`,
		kind, key, since,
	).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// OldestSince returns the timestamp of the oldest event inside the window,
// or the zero time when the window is empty.
func (s *Store) OldestSince(ctx context.Context, kind, key string, since time.Time) (time.Time, error) {
	var oldest *time.Time
	err := s.db.Pool.QueryRow(ctx,
		`SELECT MIN(occurred_at) FROM throttle_events WHERE kind = $1 AND key = $2 AND occurred_at >= $3`,
		kind, key, since,
	).Scan(&oldest)
	if err != nil {
		return time.Time{}, err
	}
	if oldest == nil {
		return time.Time{}, nil
	}
	return *oldest, nil
}

// DeleteKey removes every event of one kind for one key, window or not.
// Used to clear an IP's failed logins after a successful authentication.
func (s *Store) DeleteKey(ctx context.Context, kind, key string) error {
	_, err := s.db.Pool.Exec(ctx,
		`DELETE FROM throttle_events WHERE kind = $1 AND key = $2`,
		kind, key,
	)
	return err
}

func (s *Store) InsertMessage(ctx context.Context, name, email, subject, message, ip string, at time.Time) error {
	_, err := s.db.Pool.Exec(ctx,
		`INSERT INTO contact_messages (name, email, subject, message, ip_address, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		name, email, subject, message, ip, at,
	)
	return err
}

func (s *Store) MarkVisitorsContacted(ctx context.Context, ip string) error {
	_, err := s.db.Pool.Exec(ctx,
		`UPDATE site_visitors SET sent_contact = TRUE WHERE ip_address = $1`,
		ip,
	)
	return err
}

func (s *Store) InsertVisit(ctx context.Context, ip, page, referrer, userAgent string, at time.Time) error {
	_, err := s.db.Pool.Exec(ctx,
		`INSERT INTO site_visitors (ip_address, page, referrer, user_agent, visited_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		ip, page, referrer, userAgent, at,
	)
	return err
}

func (s *Store) DeleteVisitsBefore(ctx context.Context, cutoff time.Time) error {
	_, err := s.db.Pool.Exec(ctx,
		`DELETE FROM site_visitors WHERE visited_at < $1`,
		cutoff,
	)
	return err
}
