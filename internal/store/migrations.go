package store

import (
	"context"
	"fmt"
	"time"
)

// migration is a forward-only schema change.
type migration struct {
	ID  string
	SQL string
}

// migrations are applied in order; never edit an applied entry.
var migrations = []migration{
	{
		ID: "0001_create_users",
		SQL: `CREATE TABLE users (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			username         TEXT    NOT NULL UNIQUE,
			email            TEXT    NOT NULL UNIQUE,
			password_hash    TEXT    NOT NULL,
			jira_token       TEXT    NOT NULL DEFAULT '',
			session_token    TEXT    UNIQUE,
			token_expiry     INTEGER,
			last_login       INTEGER,
			active           INTEGER NOT NULL DEFAULT 1,
			created_at       INTEGER NOT NULL
		)`,
	},
	{
		ID:  "0002_add_atlassian_domain",
		SQL: `ALTER TABLE users ADD COLUMN atlassian_domain TEXT NOT NULL DEFAULT ''`,
	},
	{
		ID:  "0003_index_token_expiry",
		SQL: `CREATE INDEX idx_users_token_expiry ON users (token_expiry)`,
	},
	{
		ID: "0004_create_tickets",
		SQL: `CREATE TABLE tickets (
			id                      INTEGER PRIMARY KEY AUTOINCREMENT,
			title                   TEXT    NOT NULL,
			description             TEXT    NOT NULL DEFAULT '',
			ricefw_type             TEXT    NOT NULL,
			status                  TEXT    NOT NULL,
			priority                TEXT    NOT NULL,
			jira_ticket_key         TEXT    UNIQUE,
			jira_ticket_id          TEXT    NOT NULL DEFAULT '',
			assignee                TEXT    NOT NULL DEFAULT '',
			reporter                TEXT    NOT NULL DEFAULT '',
			business_requirement    TEXT    NOT NULL DEFAULT '',
			technical_specification TEXT    NOT NULL DEFAULT '',
			test_cases              TEXT    NOT NULL DEFAULT '',
			deployment_instructions TEXT    NOT NULL DEFAULT '',
			impact_analysis         TEXT    NOT NULL DEFAULT '',
			estimated_hours         REAL,
			actual_hours            REAL,
			due_date                TEXT,
			completion_date         TEXT,
			labels                  TEXT    NOT NULL DEFAULT '[]',
			components              TEXT    NOT NULL DEFAULT '[]',
			created_by              TEXT    NOT NULL DEFAULT '',
			created_at              INTEGER NOT NULL,
			updated_at              INTEGER NOT NULL
		)`,
	},
	{
		ID:  "0005_index_tickets_status",
		SQL: `CREATE INDEX idx_tickets_status ON tickets (status)`,
	},
	{
		ID:  "0006_index_tickets_due_date",
		SQL: `CREATE INDEX idx_tickets_due_date ON tickets (due_date)`,
	},
	{
		ID: "0007_create_configurations",
		SQL: `CREATE TABLE configurations (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			name               TEXT    NOT NULL UNIQUE,
			jira_url           TEXT    NOT NULL,
			project_key        TEXT    NOT NULL,
			project_name       TEXT    NOT NULL DEFAULT '',
			username           TEXT    NOT NULL,
			api_token          TEXT    NOT NULL DEFAULT '',
			default_issue_type TEXT    NOT NULL DEFAULT 'Task',
			active             INTEGER NOT NULL DEFAULT 1,
			description        TEXT    NOT NULL DEFAULT '',
			created_at         INTEGER NOT NULL
		)`,
	},
}

// migrate creates the tracking table and applies every pending migration in its own transaction.
func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id         TEXT PRIMARY KEY,
			applied_at INTEGER NOT NULL
		)`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := s.appliedMigrations(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.ID] {
			continue
		}
		if err := s.apply(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) appliedMigrations(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close() // nolint:errcheck

	applied := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan migration id: %w", err)
		}
		applied[id] = true
	}
	return applied, rows.Err()
}

func (s *Store) apply(ctx context.Context, m migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migration %s: begin: %w", m.ID, err)
	}
	defer tx.Rollback() // nolint:errcheck

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return fmt.Errorf("migration %s: %w", m.ID, err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (id, applied_at) VALUES (?, ?)", m.ID, time.Now().Unix()); err != nil {
		return fmt.Errorf("migration %s: record: %w", m.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migration %s: commit: %w", m.ID, err)
	}
	return nil
}
