package store

import (
	"context"
	"fmt"
	"strings"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS admins (
		id {{pk}},
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		name VARCHAR(100) NOT NULL,
		role VARCHAR(20) NOT NULL,
		is_active {{bool}} NOT NULL,
		last_login_at {{ts}} NULL,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS contacts (
		id {{pk}},
		name VARCHAR(100) NOT NULL,
		email VARCHAR(255) NOT NULL,
		phone VARCHAR(20) NOT NULL,
		company VARCHAR(100) NOT NULL,
		subject VARCHAR(200) NOT NULL,
		message TEXT NOT NULL,
		language VARCHAR(2) NOT NULL,
		status VARCHAR(20) NOT NULL,
		ip_address VARCHAR(45) NOT NULL,
		user_agent TEXT NOT NULL,
		email_sent {{bool}} NOT NULL,
		email_sent_at {{ts}} NULL,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS videos (
		id {{pk}},
		title_fr VARCHAR(200) NOT NULL,
		title_en VARCHAR(200) NOT NULL,
		description_fr TEXT NOT NULL,
		description_en TEXT NOT NULL,
		youtube_url VARCHAR(255) NOT NULL,
		youtube_video_id VARCHAR(50) NOT NULL,
		category VARCHAR(50) NOT NULL,
		tags_json TEXT NOT NULL,
		display_order INTEGER NOT NULL,
		is_active {{bool}} NOT NULL,
		created_by {{bigint}} NULL REFERENCES admins(id) ON DELETE SET NULL,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS partners (
		id {{pk}},
		name VARCHAR(100) NOT NULL,
		logo {{longtext}} NOT NULL,
		logo_mime_type VARCHAR(50) NOT NULL,
		website VARCHAR(255) NOT NULL,
		display_order INTEGER NOT NULL,
		is_active {{bool}} NOT NULL,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS stats (
		id {{id}},
		international_congress_value INTEGER NOT NULL,
		international_congress_label_fr VARCHAR(100) NOT NULL,
		international_congress_label_en VARCHAR(100) NOT NULL,
		symposium_value INTEGER NOT NULL,
		symposium_label_fr VARCHAR(100) NOT NULL,
		symposium_label_en VARCHAR(100) NOT NULL,
		satisfied_companies_value INTEGER NOT NULL,
		satisfied_companies_label_fr VARCHAR(100) NOT NULL,
		satisfied_companies_label_en VARCHAR(100) NOT NULL,
		updated_by {{bigint}} NULL REFERENCES admins(id) ON DELETE SET NULL,
		updated_at {{ts}} NOT NULL
	)`,

	`CREATE INDEX {{ifnotexists}}idx_admins_is_active ON admins(is_active)`,
	`CREATE INDEX {{ifnotexists}}idx_contacts_status ON contacts(status)`,
	`CREATE INDEX {{ifnotexists}}idx_contacts_created_at ON contacts(created_at)`,
	`CREATE INDEX {{ifnotexists}}idx_videos_display_order ON videos(display_order)`,
	`CREATE INDEX {{ifnotexists}}idx_videos_created_by ON videos(created_by)`,
	`CREATE INDEX {{ifnotexists}}idx_partners_display_order ON partners(display_order)`,
}

// migrate applies every migration. Statements are idempotent so the full
// list runs on each start.
func (s *Store) migrate(ctx context.Context) error {
	for _, m := range migrations {
		stmt := s.dialect.ddl(m)
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			// MySQL has no CREATE INDEX IF NOT EXISTS; an existing index
			// surfaces as "Duplicate key name".
			if strings.Contains(strings.ToLower(err.Error()), "duplicate key name") {
				continue
			}
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, stmt)
		}
	}
	return nil
}
