// Package sqlite implements the driver.Factory and driver.DialectHooks
// contracts over modernc.org/sqlite, a pure-Go SQLite driver requiring no
// cgo toolchain — the same choice the reference bookkeeping store made.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sync/singleflight"
	_ "modernc.org/sqlite"

	"github.com/kvlabs/schemamgr/internal/constants"
	"github.com/kvlabs/schemamgr/internal/driver"
	"github.com/kvlabs/schemamgr/internal/retry"
)

// DefaultFileName is the default SQLite file name created under a source
// tree's root when no explicit DSN is configured.
const DefaultFileName = "schemamgr.db"

// Driver is a driver.Factory and driver.DialectHooks bound to one SQLite
// database file.
type Driver struct {
	db        *sql.DB
	tableName string
	sf        singleflight.Group
}

// DefaultTableName is the bookkeeping table used when none is configured.
// It holds one row per installed version, per spec §6: version text primary
// key plus a log_text column carrying that version's capture-log transcript.
const DefaultTableName = constants.DefaultVersionTableName

// Open opens (creating if necessary) a SQLite database at path. tableName
// empty means DefaultTableName.
func Open(path, tableName string) (*Driver, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite: empty database path")
	}
	dsn := "file:" + filepath.Clean(path) + "?_busy_timeout=5000&_fk=1"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := retry.Do(context.Background(), nil, nil, db.Ping); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	db.SetMaxOpenConns(constants.DefaultSQLiteMaxConnections)
	if strings.TrimSpace(tableName) == "" {
		tableName = DefaultTableName
	}
	return &Driver{db: db, tableName: tableName}, nil
}

// Close releases the underlying *sql.DB.
func (d *Driver) Close() error { return d.db.Close() }

type provider struct{ exec execer }

// execer abstracts over *sql.DB and *sql.Tx, both of which satisfy it.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (p provider) Statement(query string) driver.Statement {
	return statement{exec: p.exec, query: query}
}

type statement struct {
	exec  execer
	query string
}

func (s statement) Execute(ctx context.Context, args ...any) (sql.Result, error) {
	return s.exec.ExecContext(ctx, s.query, args...)
}

func (s statement) Query(ctx context.Context, args ...any) (*sql.Rows, error) {
	return s.exec.QueryContext(ctx, s.query, args...)
}

// Create opens a short-lived non-transactional provider over the shared pool.
func (d *Driver) Create(_ context.Context) (driver.Provider, error) {
	return provider{exec: d.db}, nil
}

// UsingProvider runs worker against a non-transactional provider.
func (d *Driver) UsingProvider(_ context.Context, worker func(driver.Provider) error) error {
	return worker(provider{exec: d.db})
}

// UsingProviderWithTransaction runs worker inside a SQLite transaction,
// committing on success and rolling back on error or panic.
func (d *Driver) UsingProviderWithTransaction(ctx context.Context, worker func(driver.Provider) error) (err error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	err = worker(provider{exec: tx})
	return err
}

// IsVersionTableExist checks sqlite_master for the configured version table.
// The lookup is deduplicated with singleflight so repeated concurrent calls
// against the same Driver collapse into one query instead of racing to
// CREATE TABLE.
func (d *Driver) IsVersionTableExist(ctx context.Context, _ driver.Provider) (bool, error) {
	v, err, _ := d.sf.Do("is-version-table-exist", func() (any, error) {
		row := d.db.QueryRowContext(ctx, `SELECT 1 FROM sqlite_master WHERE type='table' AND name=?`, d.tableName)
		var one int
		if scanErr := row.Scan(&one); scanErr != nil {
			if scanErr == sql.ErrNoRows {
				return false, nil
			}
			return false, scanErr
		}
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

func (d *Driver) CreateVersionTable(ctx context.Context, p driver.Provider) error {
	_, err := p.Statement(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		version TEXT PRIMARY KEY,
		log_text TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`, d.tableName)).Execute(ctx)
	return err
}

// VerifyVersionTableStructure is a best-effort column check; SQLite's loose
// typing means there is little to verify beyond the table's presence, which
// the caller has already established by the time this hook runs.
func (d *Driver) VerifyVersionTableStructure(ctx context.Context, p driver.Provider) error {
	rows, err := p.Statement(fmt.Sprintf(`SELECT version, log_text, applied_at FROM %s LIMIT 0`, d.tableName)).Query(ctx)
	if err != nil {
		return err
	}
	return rows.Close()
}

func (d *Driver) GetCurrentVersion(ctx context.Context, p driver.Provider) (string, bool, error) {
	exists, err := d.IsVersionTableExist(ctx, p)
	if err != nil {
		return "", false, err
	}
	if !exists {
		return "", false, nil
	}
	rows, err := p.Statement(fmt.Sprintf(`SELECT MAX(version) FROM %s`, d.tableName)).Query(ctx)
	if err != nil {
		return "", false, err
	}
	defer func() { _ = rows.Close() }()
	var version sql.NullString
	if rows.Next() {
		if err := rows.Scan(&version); err != nil {
			return "", false, err
		}
	}
	if !version.Valid || version.String == "" {
		return "", false, nil
	}
	return version.String, true, nil
}

func (d *Driver) IsVersionLogExist(ctx context.Context, p driver.Provider, v string) (bool, error) {
	rows, err := p.Statement(fmt.Sprintf(`SELECT 1 FROM %s WHERE version = ?`, d.tableName)).Query(ctx, v)
	if err != nil {
		return false, err
	}
	defer func() { _ = rows.Close() }()
	return rows.Next(), rows.Err()
}

func (d *Driver) InsertVersionLog(ctx context.Context, p driver.Provider, v, logText string) error {
	_, err := p.Statement(fmt.Sprintf(
		`INSERT OR REPLACE INTO %s(version, log_text, applied_at) VALUES(?, ?, datetime('now'))`, d.tableName,
	)).Execute(ctx, v, logText)
	return err
}

func (d *Driver) RemoveVersionLog(ctx context.Context, p driver.Provider, v string) error {
	_, err := p.Statement(fmt.Sprintf(`DELETE FROM %s WHERE version = ?`, d.tableName)).Execute(ctx, v)
	return err
}
