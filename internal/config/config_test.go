package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ResolvesRelativeDirAgainstConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("driver: sqlite\ndir: migrations\n"), 0o640))

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "migrations"), doc.Dir)
}

func TestLoad_DefaultsDirToConfigDirWhenUnset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("driver: sqlite\n"), 0o640))

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, dir, doc.Dir)
}

func TestResolve_LayersViperOverDoc(t *testing.T) {
	v := NewViper()
	v.Set("driver", "postgres")
	doc := Doc{Driver: DriverSQLite, Dir: "/tmp/mig"}

	cfg := Resolve(doc, v)
	assert.Equal(t, DriverPostgres, cfg.Driver)
	assert.Equal(t, "/tmp/mig", cfg.Dir)
}

func TestConfig_ValidateRequiresDSNForPostgres(t *testing.T) {
	cfg := Config{Driver: DriverPostgres, Dir: "/tmp/mig"}
	err := cfg.Validate()
	assert.Error(t, err)
}

func TestConfig_ValidateAcceptsCompleteSQLiteConfig(t *testing.T) {
	cfg := Config{Driver: DriverSQLite, Dir: "/tmp/mig", SQLitePath: "/tmp/mig/schemamgr.db"}
	assert.NoError(t, cfg.Validate())
}
