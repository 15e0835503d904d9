package db

import "context"

// Migrate applies the schema. Statements are idempotent so every process can
// run them at startup.
func (d *DB) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS contact_messages (
			id          BIGSERIAL PRIMARY KEY,
			name        TEXT NOT NULL,
			email       TEXT NOT NULL,
			subject     TEXT NOT NULL,
			message     TEXT NOT NULL,
			ip_address  TEXT,
			is_read     BOOLEAN NOT NULL DEFAULT FALSE,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_contact_messages_created
			ON contact_messages (created_at DESC)`,

		`CREATE TABLE IF NOT EXISTS site_visitors (
			id           BIGSERIAL PRIMARY KEY,
			ip_address   TEXT,
			page         TEXT NOT NULL DEFAULT '/',
			referrer     TEXT NOT NULL DEFAULT '',
			user_agent   TEXT NOT NULL DEFAULT '',
			sent_contact BOOLEAN NOT NULL DEFAULT FALSE,
			visited_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_site_visitors_visited
			ON site_visitors (visited_at)`,
		`CREATE INDEX IF NOT EXISTS idx_site_visitors_ip
			ON site_visitors (ip_address)`,

		// dedicated abuse ledger, deliberately separate from domain tables
		`CREATE TABLE IF NOT EXISTS throttle_events (
			id          BIGSERIAL PRIMARY KEY,
			kind        TEXT NOT NULL,
			key         TEXT NOT NULL,
			occurred_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_throttle_events_lookup
			ON throttle_events (kind, key, occurred_at)`,

		`CREATE TABLE IF NOT EXISTS site_updates (
			id            BIGSERIAL PRIMARY KEY,
			version       TEXT NOT NULL,
			summary       TEXT NOT NULL,
			changed_files TEXT NOT NULL DEFAULT '',
			author        TEXT NOT NULL DEFAULT '',
			machine_ip    TEXT,
			deployed_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		`CREATE TABLE IF NOT EXISTS site_settings (
			id            INT PRIMARY KEY CHECK (id = 1),
			site_title    TEXT NOT NULL DEFAULT 'Portfolio',
			hero_title    TEXT NOT NULL DEFAULT 'Hi, welcome',
			hero_subtitle TEXT NOT NULL DEFAULT 'Full-Stack Developer',
			about_text    TEXT NOT NULL DEFAULT '',
			github_url    TEXT NOT NULL DEFAULT '',
			linkedin_url  TEXT NOT NULL DEFAULT '',
			twitter_url   TEXT NOT NULL DEFAULT '',
			email         TEXT NOT NULL DEFAULT ''
		)`,
		`INSERT INTO site_settings (id) VALUES (1) ON CONFLICT (id) DO NOTHING`,
	}

	for _, stmt := range stmts {
		if _, err := d.Pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
