package steps

import (
	"context"
	"strings"

	"github.com/kvlabs/schemamgr/internal/driver"
	"github.com/kvlabs/schemamgr/internal/script"
)

// SQLHandler submits a script's content to the driver facade as a single
// statement. Scripts containing more than one statement must rely on the
// driver's own multi-statement support, if any; this handler does not split
// on semicolons, since naive splitting breaks on string literals, dollar
// quoting and procedural bodies.
type SQLHandler struct{}

// NewSQLHandler constructs a SQLHandler.
func NewSQLHandler() *SQLHandler { return &SQLHandler{} }

func (h *SQLHandler) Run(ctx context.Context, p driver.Provider, s script.Script, log Logger) error {
	body := strings.TrimSpace(s.Content)
	if body == "" {
		log.Trace("skipping empty sql script", "script", s.Name)
		return nil
	}
	log.Trace("executing sql script", "script", s.Name)
	_, err := p.Statement(body).Execute(ctx)
	if err != nil {
		log.Error("sql script failed", "script", s.Name, "error", err)
		return err
	}
	log.Info("sql script applied", "script", s.Name)
	return nil
}
