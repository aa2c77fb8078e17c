package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns all schema migrations in order. The SQL sticks to
// the subset that both PostgreSQL and SQLite accept, so the same migrations
// run in production and in in-memory tests.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create users table",
			SQL: `
				CREATE TABLE IF NOT EXISTS users (
					id TEXT PRIMARY KEY,
					username VARCHAR(255) NOT NULL UNIQUE,
					email VARCHAR(255) NOT NULL UNIQUE,
					global_role VARCHAR(50),
					created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
				);

				CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
			`,
		},
		{
			Version:     2,
			Description: "Create groups table",
			SQL: `
				CREATE TABLE IF NOT EXISTS groups (
					id TEXT PRIMARY KEY,
					name VARCHAR(255) NOT NULL UNIQUE,
					created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
				);
			`,
		},
		{
			Version:     3,
			Description: "Create group_memberships table",
			SQL: `
				CREATE TABLE IF NOT EXISTS group_memberships (
					group_id TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
					user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					role VARCHAR(50) NOT NULL,
					added_by TEXT REFERENCES users(id) ON DELETE SET NULL,
					created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
					PRIMARY KEY (group_id, user_id)
				);

				CREATE INDEX IF NOT EXISTS idx_group_memberships_user_id ON group_memberships(user_id);
			`,
		},
		{
			Version:     4,
			Description: "Create team_assignments table",
			SQL: `
				CREATE TABLE IF NOT EXISTS team_assignments (
					user_id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
					team VARCHAR(50) NOT NULL,
					bound_group_id TEXT REFERENCES groups(id) ON DELETE CASCADE,
					assigned_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
				);
			`,
		},
		{
			Version:     5,
			Description: "Create api_tokens table",
			SQL: `
				CREATE TABLE IF NOT EXISTS api_tokens (
					token TEXT PRIMARY KEY,
					user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					name VARCHAR(255) NOT NULL,
					created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
					expires_at TIMESTAMP NOT NULL
				);

				CREATE INDEX IF NOT EXISTS idx_api_tokens_user_id ON api_tokens(user_id);
				CREATE INDEX IF NOT EXISTS idx_api_tokens_expires_at ON api_tokens(expires_at);
			`,
		},
		{
			Version:     6,
			Description: "Create group_invitations table",
			SQL: `
				CREATE TABLE IF NOT EXISTS group_invitations (
					id TEXT PRIMARY KEY,
					group_id TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
					email VARCHAR(255) NOT NULL,
					role VARCHAR(50) NOT NULL,
					token TEXT NOT NULL UNIQUE,
					invited_by TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
					expires_at TIMESTAMP NOT NULL,
					accepted_at TIMESTAMP
				);

				CREATE INDEX IF NOT EXISTS idx_group_invitations_group_id ON group_invitations(group_id);
				CREATE INDEX IF NOT EXISTS idx_group_invitations_expires_at ON group_invitations(expires_at);
			`,
		},
	}
}

// RunMigrations executes all pending migrations
func RunMigrations(ctx context.Context, db *sql.DB) error {
	// Create migration tracking table
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	// Get applied migrations
	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}

	appliedVersions := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		appliedVersions[version] = true
	}
	rows.Close()

	// Run pending migrations
	for _, migration := range GetMigrations() {
		if appliedVersions[migration.Version] {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", migration.Version, err)
		}

		if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to run migration %d (%s): %w", migration.Version, migration.Description, err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, description) VALUES ($1, $2)",
			migration.Version, migration.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
