// Package config loads schemamgr's layered configuration: a YAML document on
// disk, overridable by SCHEMAMGR_-prefixed environment variables and, in the
// CLI, by explicit flags — the same three-layer precedence the reference
// stack's ConfigDoc/viper wiring uses.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/kvlabs/schemamgr/internal/migerr"
)

// Driver names the dialect a Config targets.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Doc is the on-disk YAML shape. Dir and SQLitePath are resolved relative to
// the config file's own directory when given as relative paths; DSN is used
// as written.
type Doc struct {
	Driver     Driver            `yaml:"driver"`
	Dir        string            `yaml:"dir"`
	DSN        string            `yaml:"dsn"`
	SQLitePath string            `yaml:"sqlite_path"`
	TableName  string            `yaml:"table_name"`
	LogLevel   string            `yaml:"log_level"`
	LogFormat  string            `yaml:"log_format"`
	Vars       map[string]string `yaml:"vars"`
}

// Config is the fully resolved configuration an engine.Manager and CLI
// command are built from, after YAML + environment + flag layering.
type Config struct {
	Driver     Driver
	Dir        string
	DSN        string
	SQLitePath string
	TableName  string
	LogLevel   string
	LogFormat  string
	Vars       map[string]string
}

// Load reads path as YAML into a Doc. Relative Dir/SQLitePath values are
// resolved against the config file's own directory, matching the reference
// CLI's fallback of using the config file's directory when migrate_dir is
// unset.
func Load(path string) (Doc, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Doc{}, migerr.WrongMigrationData("cannot read config %q: %v", path, err)
	}
	var doc Doc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Doc{}, migerr.WrongMigrationData("cannot parse config %q: %v", path, err)
	}

	base := filepath.Dir(path)
	if doc.Dir == "" {
		doc.Dir = base
	} else if !filepath.IsAbs(doc.Dir) {
		doc.Dir = filepath.Join(base, doc.Dir)
	}
	if doc.SQLitePath != "" && !filepath.IsAbs(doc.SQLitePath) {
		doc.SQLitePath = filepath.Join(base, doc.SQLitePath)
	}
	return doc, nil
}

// Resolve layers viper's environment/flag-bound values over doc, returning
// the final Config the CLI acts on. v is expected to already have its flags
// bound (see cmd/schemamgr) and SCHEMAMGR env prefix configured.
func Resolve(doc Doc, v *viper.Viper) Config {
	cfg := Config{
		Driver:     Driver(firstNonEmpty(v.GetString("driver"), string(doc.Driver), string(DriverSQLite))),
		Dir:        firstNonEmpty(v.GetString("dir"), doc.Dir),
		DSN:        firstNonEmpty(v.GetString("dsn"), doc.DSN),
		SQLitePath: firstNonEmpty(v.GetString("sqlite-path"), doc.SQLitePath),
		TableName:  firstNonEmpty(v.GetString("table"), doc.TableName),
		LogLevel:   firstNonEmpty(v.GetString("log-level"), doc.LogLevel, "info"),
		LogFormat:  firstNonEmpty(v.GetString("log-format"), doc.LogFormat, "text"),
		Vars:       doc.Vars,
	}
	if cfg.SQLitePath == "" && cfg.Driver == DriverSQLite {
		cfg.SQLitePath = filepath.Join(cfg.Dir, "schemamgr.db")
	}
	return cfg
}

// Validate reports a migerr.ErrInvalidArgument if cfg is incomplete for its
// selected driver.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Dir) == "" {
		return migerr.InvalidArgument("dir", "migration source directory is required")
	}
	switch c.Driver {
	case DriverSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return migerr.InvalidArgument("sqlite_path", "sqlite path is required for the sqlite driver")
		}
	case DriverPostgres:
		if strings.TrimSpace(c.DSN) == "" {
			return migerr.InvalidArgument("dsn", "dsn is required for the postgres driver")
		}
	default:
		return migerr.InvalidArgument("driver", "unknown driver %q", c.Driver)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// NewViper builds the viper instance the CLI binds its persistent flags to,
// with SCHEMAMGR_ environment variable support.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("SCHEMAMGR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}
