package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvlabs/schemamgr/internal/migerr"
	"github.com/kvlabs/schemamgr/internal/script"
)

func writeTree(t *testing.T, root string) {
	t.Helper()
	mustWrite := func(path, content string) {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o640))
	}
	mustWrite(filepath.Join(root, "v0001", "install", "01-init.sql"), "CREATE TABLE t(id INT);")
	mustWrite(filepath.Join(root, "v0001", "rollback", "01-init.sql"), "DROP TABLE t;")
	mustWrite(filepath.Join(root, "v0002", "install", "01-seed.sql"), "INSERT INTO t VALUES(1);")
	mustWrite(filepath.Join(root, "vXXXX", "rollback", "2-drop-something.js"), "// 2-drop-something.js rollback \n")
}

func TestLoadFromFilesystem_VersionNames(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root)

	sources, err := LoadFromFilesystem(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{"v0001", "v0002", "vXXXX"}, sources.VersionNames())
}

func TestLoadFromFilesystem_ScriptContent(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root)

	sources, err := LoadFromFilesystem(context.Background(), root)
	require.NoError(t, err)

	bundle, ok := sources.GetVersionBundle("vXXXX")
	require.True(t, ok)
	s, ok := bundle.GetRollbackScript("2-drop-something.js")
	require.True(t, ok)
	assert.Equal(t, "// 2-drop-something.js rollback \n", s.Content)
	assert.Equal(t, script.JavaScript, s.Kind)
}

func TestLoadFromFilesystem_MissingRoot(t *testing.T) {
	_, err := LoadFromFilesystem(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, migerr.ErrWrongMigrationData)
}

func TestMap_PreservesNamesOnlyContentChanges(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root)
	sources, err := LoadFromFilesystem(context.Background(), root)
	require.NoError(t, err)

	mapped, err := sources.Map(func(content string, opts script.MapOpts) (string, error) {
		return opts.VersionName + ":" + opts.ItemName, nil
	})
	require.NoError(t, err)
	assert.Equal(t, sources.VersionNames(), mapped.VersionNames())

	bundle, _ := mapped.GetVersionBundle("v0001")
	s, ok := bundle.GetInstallScript("01-init.sql")
	require.True(t, ok)
	assert.Equal(t, "v0001:01-init.sql", s.Content)
}

func TestLoad_UnsupportedScheme(t *testing.T) {
	_, err := Load(context.Background(), "s3://bucket/path")
	assert.ErrorIs(t, err, migerr.ErrUnsupportedScheme)
}

func TestLoad_NotImplementedSchemes(t *testing.T) {
	_, err := Load(context.Background(), "http+tar+gz://example.com/archive.tar.gz")
	assert.ErrorIs(t, err, migerr.ErrNotImplemented)

	_, err = Load(context.Background(), "https+tar+gz://example.com/archive.tar.gz")
	assert.ErrorIs(t, err, migerr.ErrNotImplemented)
}

func TestSaveToFilesystem_RoundTrip(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root)
	sources, err := LoadFromFilesystem(context.Background(), root)
	require.NoError(t, err)

	dest := t.TempDir()
	require.NoError(t, sources.SaveToFilesystem(context.Background(), dest))

	roundTripped, err := LoadFromFilesystem(context.Background(), dest)
	require.NoError(t, err)
	assert.Equal(t, sources.VersionNames(), roundTripped.VersionNames())

	bundle, _ := roundTripped.GetVersionBundle("vXXXX")
	s, ok := bundle.GetRollbackScript("2-drop-something.js")
	require.True(t, ok)
	assert.Equal(t, "// 2-drop-something.js rollback \n", s.Content)
}

func TestSaveToFilesystem_MissingDestFails(t *testing.T) {
	sources := New(nil)
	err := sources.SaveToFilesystem(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, migerr.ErrInvalidArgument)
}
