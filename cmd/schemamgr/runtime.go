package main

import (
	"context"
	"fmt"

	"github.com/kvlabs/schemamgr/internal/config"
	"github.com/kvlabs/schemamgr/internal/driver"
	pgdriver "github.com/kvlabs/schemamgr/internal/driver/postgres"
	sqlitedriver "github.com/kvlabs/schemamgr/internal/driver/sqlite"
	"github.com/kvlabs/schemamgr/internal/engine"
	"github.com/kvlabs/schemamgr/internal/logging"
	"github.com/kvlabs/schemamgr/internal/source"
)

// closer is satisfied by both dialect driver types; the caller defers Close
// after building the engine.Manager.
type closer interface{ Close() error }

type boundDriver struct {
	factory driver.Factory
	dialect driver.DialectHooks
	closer  closer
}

func openDriver(cfg config.Config) (boundDriver, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		d, err := sqlitedriver.Open(cfg.SQLitePath, cfg.TableName)
		if err != nil {
			return boundDriver{}, err
		}
		return boundDriver{factory: d, dialect: d, closer: d}, nil
	case config.DriverPostgres:
		d, err := pgdriver.Open(cfg.DSN, cfg.TableName)
		if err != nil {
			return boundDriver{}, err
		}
		return boundDriver{factory: d, dialect: d, closer: d}, nil
	default:
		return boundDriver{}, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
}

func newLogger(cfg config.Config) *logging.Logger {
	level := logging.LevelInfo
	switch cfg.LogLevel {
	case "error":
		level = logging.LevelError
	case "warn":
		level = logging.LevelWarn
	case "debug":
		level = logging.LevelDebug
	}
	switch cfg.LogFormat {
	case "json":
		return logging.NewJSON(level)
	case "color":
		return logging.NewColor(level)
	default:
		return logging.New(level)
	}
}

// buildManager loads sources from cfg.Dir, opens the configured driver and
// assembles an engine.Manager. The returned cleanup func closes the driver
// connection and must be deferred by every subcommand.
func buildManager(ctx context.Context, cfg config.Config, dryRun bool) (*engine.Manager, func(), error) {
	sources, err := source.LoadFromFilesystem(ctx, cfg.Dir)
	if err != nil {
		return nil, nil, err
	}
	if len(cfg.Vars) > 0 {
		sources, err = sources.Map(source.NewTemplateMapper(cfg.Vars))
		if err != nil {
			return nil, nil, err
		}
	}

	bd, err := openDriver(cfg)
	if err != nil {
		return nil, nil, err
	}

	logger := newLogger(cfg)
	mgr := engine.NewManager(engine.Options{
		Sources:          sources,
		DriverFactory:    bd.factory,
		Dialect:          bd.dialect,
		Logger:           logger,
		VersionTableName: cfg.TableName,
		DryRun:           dryRun,
	})
	cleanup := func() { _ = bd.closer.Close() }
	return mgr, cleanup, nil
}
