// Package driver defines the narrow contract the engine consumes from a
// database connection: statement execution, scoped provider acquisition and
// transactional scoping. Concrete dialects (internal/driver/sqlite,
// internal/driver/postgres) implement Factory and DialectHooks; the engine
// itself only ever talks to these interfaces.
package driver

import (
	"context"
	"database/sql"
)

// Statement is a single SQL text bound to a Provider, ready to execute.
type Statement interface {
	Execute(ctx context.Context, args ...any) (sql.Result, error)
	Query(ctx context.Context, args ...any) (*sql.Rows, error)
}

// Provider is a live connection (or transaction) the engine can submit
// statements to. It is the only surface the engine touches beyond Factory.
type Provider interface {
	Statement(query string) Statement
}

// Factory creates and scopes Providers. Implementations must guarantee
// disposal of the underlying connection/transaction on every exit path:
// success, error, or cancellation.
type Factory interface {
	// Create opens a short-lived, non-transactional connection. The engine
	// itself does not call it: its version-table check and creation go
	// through UsingProvider.
	Create(ctx context.Context) (Provider, error)

	// UsingProvider scopes acquisition of a Provider around worker, closing
	// it on every exit path.
	UsingProvider(ctx context.Context, worker func(Provider) error) error

	// UsingProviderWithTransaction as UsingProvider, but additionally opens
	// a transaction on entry: commits iff worker returns nil, otherwise
	// rolls back, before disposing of the connection.
	UsingProviderWithTransaction(ctx context.Context, worker func(Provider) error) error
}

// DialectHooks are the dialect-specific operations a concrete Manager
// subtype supplies: version table lifecycle and version log bookkeeping.
// The engine never embeds SQL text of its own for these concerns.
type DialectHooks interface {
	// IsVersionTableExist reports whether the version table already exists.
	IsVersionTableExist(ctx context.Context, p Provider) (bool, error)
	// CreateVersionTable creates the version table, whose rows carry each
	// version's log text, if it does not already exist.
	CreateVersionTable(ctx context.Context, p Provider) error
	// VerifyVersionTableStructure is invoked only when IsVersionTableExist
	// returned true, giving the dialect a chance to validate or migrate its
	// own bookkeeping schema.
	VerifyVersionTableStructure(ctx context.Context, p Provider) error

	// GetCurrentVersion returns MAX(version) across the version table, or
	// ("", false) if the table is absent or empty.
	GetCurrentVersion(ctx context.Context, p Provider) (string, bool, error)

	// IsVersionLogExist reports whether a log row exists for v.
	IsVersionLogExist(ctx context.Context, p Provider, v string) (bool, error)
	// InsertVersionLog records one version's completed install and its
	// capture-log transcript.
	InsertVersionLog(ctx context.Context, p Provider, v, logText string) error
	// RemoveVersionLog deletes the log row for v, used by rollback.
	RemoveVersionLog(ctx context.Context, p Provider, v string) error
}
