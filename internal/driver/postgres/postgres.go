// Package postgres implements the driver.Factory and driver.DialectHooks
// contracts over github.com/jackc/pgx/v5's database/sql stdlib adapter,
// mirroring the reference store's own choice of pgx for its Postgres backend.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/singleflight"

	"github.com/kvlabs/schemamgr/internal/constants"
	"github.com/kvlabs/schemamgr/internal/driver"
	"github.com/kvlabs/schemamgr/internal/retry"
)

// DefaultTableName is the bookkeeping table used when none is configured.
const DefaultTableName = constants.DefaultVersionTableName

// Driver is a driver.Factory and driver.DialectHooks bound to one Postgres
// database, reached through a DSN.
type Driver struct {
	db        *sql.DB
	tableName string
	sf        singleflight.Group
}

// Open opens a Postgres database via its pgx stdlib DSN. tableName empty
// means DefaultTableName.
func Open(dsn, tableName string) (*Driver, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres: empty dsn")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := retry.Do(context.Background(), nil, nil, db.Ping); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}
	db.SetMaxOpenConns(constants.DefaultPostgresMaxConnections)
	if strings.TrimSpace(tableName) == "" {
		tableName = DefaultTableName
	}
	return &Driver{db: db, tableName: tableName}, nil
}

// Close releases the underlying *sql.DB.
func (d *Driver) Close() error { return d.db.Close() }

type provider struct{ exec execer }

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (p provider) Statement(query string) driver.Statement {
	return statement{exec: p.exec, query: convertPlaceholders(query)}
}

// convertPlaceholders turns the engine's '?' placeholders into Postgres's
// positional $1, $2, ... form, the same translation the reference store
// applies in its Store.conv helper.
func convertPlaceholders(q string) string {
	if !strings.Contains(q, "?") {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	idx := 1
	for _, r := range q {
		if r == '?' {
			b.WriteString("$")
			b.WriteString(strconv.Itoa(idx))
			idx++
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
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

func (d *Driver) Create(_ context.Context) (driver.Provider, error) {
	return provider{exec: d.db}, nil
}

func (d *Driver) UsingProvider(_ context.Context, worker func(driver.Provider) error) error {
	return worker(provider{exec: d.db})
}

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

func (d *Driver) IsVersionTableExist(ctx context.Context, _ driver.Provider) (bool, error) {
	v, err, _ := d.sf.Do("is-version-table-exist", func() (any, error) {
		row := d.db.QueryRowContext(ctx, `SELECT 1 FROM information_schema.tables WHERE table_name = $1`, d.tableName)
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
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, d.tableName)).Execute(ctx)
	return err
}

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
		`INSERT INTO %s(version, log_text, applied_at) VALUES(?, ?, now())
		 ON CONFLICT (version) DO UPDATE SET log_text = EXCLUDED.log_text, applied_at = EXCLUDED.applied_at`,
		d.tableName,
	)).Execute(ctx, v, logText)
	return err
}

func (d *Driver) RemoveVersionLog(ctx context.Context, p driver.Provider, v string) error {
	_, err := p.Statement(fmt.Sprintf(`DELETE FROM %s WHERE version = ?`, d.tableName)).Execute(ctx, v)
	return err
}
