package steps

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/dop251/goja"

	"github.com/kvlabs/schemamgr/internal/driver"
	"github.com/kvlabs/schemamgr/internal/script"
)

// JSHandler runs a script inside a sandboxed ECMAScript interpreter (goja).
// The only host capabilities exposed to script code are __dirname,
// __filename, a log object and a sql object bound to the current Provider;
// no filesystem, network or process access is ever bound into the runtime.
type JSHandler struct{}

// NewJSHandler constructs a JSHandler.
func NewJSHandler() *JSHandler { return &JSHandler{} }

func (h *JSHandler) Run(ctx context.Context, p driver.Provider, s script.Script, log Logger) error {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	if err := vm.Set("__dirname", filepath.Dir(s.File)); err != nil {
		return err
	}
	if err := vm.Set("__filename", s.File); err != nil {
		return err
	}
	if err := vm.Set("log", newJSLog(log)); err != nil {
		return err
	}
	if err := vm.Set("sql", newJSSQL(ctx, p)); err != nil {
		return err
	}

	log.Trace("executing javascript script", "script", s.Name)
	if _, err := vm.RunString(s.Content); err != nil {
		log.Error("javascript script failed", "script", s.Name, "error", err)
		return err
	}

	migrationVal := vm.Get("migration")
	if migrationVal == nil || goja.IsUndefined(migrationVal) {
		err := fmt.Errorf("javascript script %s: missing top-level migration(sqlProvider, logger) function", s.Name)
		log.Error("javascript script failed", "script", s.Name, "error", err)
		return err
	}
	migrationFn, ok := goja.AssertFunction(migrationVal)
	if !ok {
		err := fmt.Errorf("javascript script %s: migration is not a function", s.Name)
		log.Error("javascript script failed", "script", s.Name, "error", err)
		return err
	}

	ret, err := migrationFn(goja.Undefined(), vm.ToValue(newJSSQL(ctx, p)), vm.ToValue(newJSLog(log)))
	if err != nil {
		log.Error("javascript script failed", "script", s.Name, "error", err)
		return err
	}
	if ret != nil && !goja.IsUndefined(ret) && !goja.IsNull(ret) {
		err := fmt.Errorf("javascript script %s: migration returned %s", s.Name, ret.String())
		log.Error("javascript script failed", "script", s.Name, "error", err)
		return err
	}

	log.Info("javascript script applied", "script", s.Name)
	return nil
}

type jsLog struct {
	delegate Logger
}

func newJSLog(l Logger) *jsLog { return &jsLog{delegate: l} }

func (j *jsLog) Trace(msg string) { j.delegate.Trace(msg) }
func (j *jsLog) Info(msg string)  { j.delegate.Info(msg) }
func (j *jsLog) Warn(msg string)  { j.delegate.Warn(msg) }
func (j *jsLog) Error(msg string) { j.delegate.Error(msg) }

// jsSQL is the "sql" global bound into a script's runtime: exec for
// statements with no result rows, query for statements returning rows,
// both delegating to the same Provider the driver facade handed the step.
type jsSQL struct {
	ctx context.Context
	p   driver.Provider
}

func newJSSQL(ctx context.Context, p driver.Provider) *jsSQL {
	return &jsSQL{ctx: ctx, p: p}
}

func (j *jsSQL) Exec(query string, args ...any) (int64, error) {
	res, err := j.p.Statement(query).Execute(j.ctx, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// Query runs query and returns every row as a map of column name to value,
// suitable for iteration from script code.
func (j *jsSQL) Query(query string, args ...any) ([]map[string]any, error) {
	rows, err := j.p.Statement(query).Query(j.ctx, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	for rows.Next() {
		scanTargets := make([]any, len(cols))
		scanValues := make([]sql.RawBytes, len(cols))
		for i := range scanValues {
			scanTargets[i] = &scanValues[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			row[c] = rawToJSValue(scanValues[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func rawToJSValue(raw sql.RawBytes) any {
	if raw == nil {
		return nil
	}
	return string(raw)
}
