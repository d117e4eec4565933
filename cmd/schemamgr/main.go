// Command schemamgr applies, rolls back, and reports on SQL/JavaScript
// schema migrations against a SQLite or Postgres database.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kvlabs/schemamgr/internal/config"
)

var v = config.NewViper()

var rootCmd = &cobra.Command{
	Use:   "schemamgr",
	Short: "Apply and roll back SQL/JavaScript schema migrations",
}

func init() {
	v.SetDefault("config", "./schemamgr.yaml")
	rootCmd.PersistentFlags().String("config", v.GetString("config"), "path to schemamgr.yaml")
	rootCmd.PersistentFlags().String("dir", "", "migration source directory (overrides config)")
	rootCmd.PersistentFlags().String("driver", "", "sqlite or postgres (overrides config)")
	rootCmd.PersistentFlags().String("dsn", "", "postgres DSN (overrides config)")
	rootCmd.PersistentFlags().String("sqlite-path", "", "sqlite database file path (overrides config)")
	rootCmd.PersistentFlags().String("table", "", "version bookkeeping table name (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "error, warn, info, debug")
	rootCmd.PersistentFlags().String("log-format", "", "text, json, or color")

	bindPersistent := func(name string) {
		_ = v.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
	bindPersistent("config")
	bindPersistent("dir")
	bindPersistent("driver")
	bindPersistent("dsn")
	bindPersistent("sqlite-path")
	bindPersistent("table")
	bindPersistent("log-level")
	bindPersistent("log-format")

	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(downCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(validateCmd)
}

// loadConfig resolves the layered Config for every subcommand: YAML file (if
// present) overridden by environment and flags.
func loadConfig() (config.Config, error) {
	path := v.GetString("config")
	var doc config.Doc
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := config.Load(path)
			if err != nil {
				return config.Config{}, err
			}
			doc = loaded
		}
	}
	cfg := config.Resolve(doc, v)
	return cfg, cfg.Validate()
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "schemamgr:", err)
	os.Exit(1)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fatal(err)
	}
}
