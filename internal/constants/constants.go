// Package constants centralizes the default values shared across the dialect
// drivers and the engine, so the bookkeeping table name and
// dialect connection defaults each have exactly one definition.
package constants

const (
	// DefaultSQLiteMaxConnections reflects SQLite's single-writer model.
	DefaultSQLiteMaxConnections = 1
	// DefaultPostgresMaxConnections bounds the pgx stdlib connection pool.
	DefaultPostgresMaxConnections = 25

	// DefaultVersionTableName is the bookkeeping table both dialect drivers
	// and engine.Manager fall back to when none is configured.
	DefaultVersionTableName = "schema_migrations"
)
