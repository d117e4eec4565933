package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateVersion_ScaffoldsInstallAndRollback(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)

	versionDir, err := createVersion(dir, "Create Users Table", now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "20260731120000_create_users_table"), versionDir)

	for _, p := range []string{
		filepath.Join(versionDir, "install", "01-create_users_table.sql"),
		filepath.Join(versionDir, "rollback", "01-create_users_table.sql"),
	} {
		_, err := os.Stat(p)
		assert.NoError(t, err)
	}
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "create_users_table", slugify("Create Users Table"))
	assert.Equal(t, "", slugify(""))
}
