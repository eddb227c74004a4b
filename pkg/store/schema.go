package store

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is kept to types PostgreSQL and SQLite both accept.
// List columns (permissions, data commons, collaborators) hold JSON text.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id           TEXT PRIMARY KEY,
		first_name   TEXT NOT NULL DEFAULT '',
		last_name    TEXT NOT NULL DEFAULT '',
		email        TEXT NOT NULL DEFAULT '',
		role         TEXT NOT NULL DEFAULT '',
		user_status  TEXT NOT NULL DEFAULT 'Active',
		permissions  TEXT NOT NULL DEFAULT '[]',
		data_commons TEXT NOT NULL DEFAULT '[]',
		studies      TEXT NOT NULL DEFAULT '[]',
		created_at   TIMESTAMP NOT NULL,
		updated_at   TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS applications (
		id                 TEXT PRIMARY KEY,
		status             TEXT NOT NULL,
		applicant_id       TEXT NOT NULL DEFAULT '',
		applicant_name     TEXT NOT NULL DEFAULT '',
		applicant_email    TEXT NOT NULL DEFAULT '',
		program_name       TEXT NOT NULL DEFAULT '',
		study_name         TEXT NOT NULL DEFAULT '',
		study_abbreviation TEXT NOT NULL DEFAULT '',
		review_comment     TEXT NOT NULL DEFAULT '',
		submitted_date     TIMESTAMP NULL,
		created_at         TIMESTAMP NOT NULL,
		updated_at         TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_applications_status ON applications (status)`,
	`CREATE TABLE IF NOT EXISTS submissions (
		id                         TEXT PRIMARY KEY,
		name                       TEXT NOT NULL DEFAULT '',
		status                     TEXT NOT NULL,
		submitter_id               TEXT NOT NULL DEFAULT '',
		submitter_name             TEXT NOT NULL DEFAULT '',
		data_commons               TEXT NOT NULL DEFAULT '',
		study_id                   TEXT NOT NULL DEFAULT '',
		study_abbreviation         TEXT NOT NULL DEFAULT '',
		collaborators              TEXT NOT NULL DEFAULT '[]',
		metadata_validation_status TEXT NULL,
		file_validation_status     TEXT NULL,
		cross_submission_status    TEXT NULL,
		created_at                 TIMESTAMP NOT NULL,
		updated_at                 TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_submissions_status ON submissions (status)`,
}

// Migrate creates any missing tables and indexes. It is safe to run on
// every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start migration: %w", err)
	}
	defer tx.Rollback()

	for i, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d failed: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}
	return nil
}
