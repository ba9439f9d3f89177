package database

import (
	"context"
	"fmt"
	"strings"

	"smart-planner/core/logger"
)

// Schema statements use {{ts}} and {{uuid}} placeholders so one definition
// serves postgres and sqlite.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id          {{uuid}} PRIMARY KEY,
		user_id     {{uuid}} NOT NULL,
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		start_time  {{ts}} NOT NULL,
		end_time    {{ts}} NOT NULL,
		all_day     BOOLEAN NOT NULL DEFAULT FALSE,
		location    TEXT NOT NULL DEFAULT '',
		type        TEXT NOT NULL DEFAULT 'other',
		created_at  {{ts}} NOT NULL,
		updated_at  {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_user_start ON events (user_id, start_time)`,
	`CREATE TABLE IF NOT EXISTS calendar_connections (
		id               {{uuid}} PRIMARY KEY,
		user_id          {{uuid}} NOT NULL,
		provider         TEXT NOT NULL,
		provider_email   TEXT NOT NULL DEFAULT '',
		access_token     TEXT NOT NULL,
		refresh_token    TEXT NOT NULL DEFAULT '',
		token_expires_at {{ts}},
		is_active        BOOLEAN NOT NULL DEFAULT TRUE,
		created_at       {{ts}} NOT NULL,
		updated_at       {{ts}} NOT NULL,
		UNIQUE (user_id, provider)
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id         {{uuid}} PRIMARY KEY,
		user_id    {{uuid}} NOT NULL,
		type       TEXT NOT NULL,
		title      TEXT NOT NULL,
		message    TEXT NOT NULL DEFAULT '',
		data       TEXT NOT NULL DEFAULT '{}',
		is_read    BOOLEAN NOT NULL DEFAULT FALSE,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications (user_id, created_at)`,
}

// Migrate creates the tables the service needs when they are missing.
func (d *Database) Migrate(ctx context.Context) error {
	ts, id := "TIMESTAMPTZ", "UUID"
	if d.driver == DriverSQLite {
		ts, id = "TIMESTAMP", "TEXT"
	}
	r := strings.NewReplacer("{{ts}}", ts, "{{uuid}}", id)

	for i, stmt := range schema {
		if _, err := d.sqlx.ExecContext(ctx, r.Replace(stmt)); err != nil {
			logger.Error("Database:Migrate:Error", "statement", i, "error", err)
			return fmt.Errorf("migrate statement %d: %w", i, err)
		}
	}
	logger.Info("Database:Migrate:Success", "driver", d.driver, "statements", len(schema))
	return nil
}
