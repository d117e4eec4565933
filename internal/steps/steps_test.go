package steps

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvlabs/schemamgr/internal/driver"
	"github.com/kvlabs/schemamgr/internal/script"
)

type fakeLog struct {
	lines []string
}

func (f *fakeLog) Trace(msg string, args ...any) { f.lines = append(f.lines, "TRACE:"+msg) }
func (f *fakeLog) Info(msg string, args ...any)  { f.lines = append(f.lines, "INFO:"+msg) }
func (f *fakeLog) Warn(msg string, args ...any)  { f.lines = append(f.lines, "WARN:"+msg) }
func (f *fakeLog) Error(msg string, args ...any) { f.lines = append(f.lines, "ERROR:"+msg) }

type fakeStatement struct {
	executed []string
}

func (s *fakeStatement) Execute(ctx context.Context, args ...any) (sql.Result, error) {
	s.executed = append(s.executed, "exec")
	return fakeResult{}, nil
}

func (s *fakeStatement) Query(ctx context.Context, args ...any) (*sql.Rows, error) {
	return nil, nil
}

type fakeResult struct{}

func (fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (fakeResult) RowsAffected() (int64, error) { return 1, nil }

type fakeProvider struct {
	stmt *fakeStatement
}

func (p *fakeProvider) Statement(query string) driver.Statement {
	return p.stmt
}

func TestRegistry_LooksUpByKind(t *testing.T) {
	r := NewDefaultRegistry()

	_, ok := r.Lookup(script.SQL)
	assert.True(t, ok)

	_, ok = r.Lookup(script.JavaScript)
	assert.True(t, ok)

	_, ok = r.Lookup(script.Unknown)
	assert.False(t, ok)
}

func TestSQLHandler_ExecutesNonEmptyContent(t *testing.T) {
	stmt := &fakeStatement{}
	p := &fakeProvider{stmt: stmt}
	h := NewSQLHandler()
	log := &fakeLog{}

	s := script.New("01-init.sql", "/tmp/01-init.sql", "CREATE TABLE t(id INT);")
	require.NoError(t, h.Run(context.Background(), p, s, log))
	assert.Equal(t, []string{"exec"}, stmt.executed)
}

func TestSQLHandler_SkipsEmptyContent(t *testing.T) {
	stmt := &fakeStatement{}
	p := &fakeProvider{stmt: stmt}
	h := NewSQLHandler()
	log := &fakeLog{}

	s := script.New("01-empty.sql", "/tmp/01-empty.sql", "   \n")
	require.NoError(t, h.Run(context.Background(), p, s, log))
	assert.Empty(t, stmt.executed)
}

func TestJSHandler_RunsSandboxedScript(t *testing.T) {
	stmt := &fakeStatement{}
	p := &fakeProvider{stmt: stmt}
	h := NewJSHandler()
	log := &fakeLog{}

	s := script.New("01-seed.js", "/tmp/01-seed.js", `
		function migration(sql, log) {
			sql.exec("INSERT INTO t VALUES(1)");
			log.info("seeded");
		}
	`)
	require.NoError(t, h.Run(context.Background(), p, s, log))
	assert.Equal(t, []string{"exec"}, stmt.executed)
}

func TestJSHandler_PropagatesThrownError(t *testing.T) {
	stmt := &fakeStatement{}
	p := &fakeProvider{stmt: stmt}
	h := NewJSHandler()
	log := &fakeLog{}

	s := script.New("02-bad.js", "/tmp/02-bad.js", `
		function migration(sql, log) {
			throw new Error("boom");
		}
	`)
	err := h.Run(context.Background(), p, s, log)
	assert.Error(t, err)
}

func TestJSHandler_MissingMigrationFunctionFails(t *testing.T) {
	stmt := &fakeStatement{}
	p := &fakeProvider{stmt: stmt}
	h := NewJSHandler()
	log := &fakeLog{}

	s := script.New("03-noop.js", "/tmp/03-noop.js", `sql.exec("INSERT INTO t VALUES(1)");`)
	err := h.Run(context.Background(), p, s, log)
	assert.Error(t, err)
	assert.Empty(t, stmt.executed)
}
