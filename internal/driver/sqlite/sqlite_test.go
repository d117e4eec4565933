package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvlabs/schemamgr/internal/driver"
)

func openTestDriver(t *testing.T) *Driver {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := Open(path, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestVersionTableLifecycle(t *testing.T) {
	d := openTestDriver(t)
	ctx := context.Background()

	err := d.UsingProvider(ctx, func(p driver.Provider) error {
		exists, err := d.IsVersionTableExist(ctx, p)
		require.NoError(t, err)
		assert.False(t, exists)
		return d.CreateVersionTable(ctx, p)
	})
	require.NoError(t, err)

	err = d.UsingProvider(ctx, func(p driver.Provider) error {
		exists, err := d.IsVersionTableExist(ctx, p)
		require.NoError(t, err)
		assert.True(t, exists)
		return d.VerifyVersionTableStructure(ctx, p)
	})
	require.NoError(t, err)
}

func TestInsertAndRemoveVersionLog(t *testing.T) {
	d := openTestDriver(t)
	ctx := context.Background()

	require.NoError(t, d.UsingProvider(ctx, func(p driver.Provider) error {
		return d.CreateVersionTable(ctx, p)
	}))

	err := d.UsingProviderWithTransaction(ctx, func(p driver.Provider) error {
		return d.InsertVersionLog(ctx, p, "v0001", "[INFO] applied")
	})
	require.NoError(t, err)

	err = d.UsingProvider(ctx, func(p driver.Provider) error {
		version, ok, err := d.GetCurrentVersion(ctx, p)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "v0001", version)

		exists, err := d.IsVersionLogExist(ctx, p, "v0001")
		require.NoError(t, err)
		assert.True(t, exists)
		return nil
	})
	require.NoError(t, err)

	err = d.UsingProviderWithTransaction(ctx, func(p driver.Provider) error {
		return d.RemoveVersionLog(ctx, p, "v0001")
	})
	require.NoError(t, err)

	err = d.UsingProvider(ctx, func(p driver.Provider) error {
		exists, err := d.IsVersionLogExist(ctx, p, "v0001")
		require.NoError(t, err)
		assert.False(t, exists)
		return nil
	})
	require.NoError(t, err)
}

func TestTransaction_RollsBackOnError(t *testing.T) {
	d := openTestDriver(t)
	ctx := context.Background()

	require.NoError(t, d.UsingProvider(ctx, func(p driver.Provider) error {
		return d.CreateVersionTable(ctx, p)
	}))

	boom := assert.AnError
	err := d.UsingProviderWithTransaction(ctx, func(p driver.Provider) error {
		if insertErr := d.InsertVersionLog(ctx, p, "v0001", "partial"); insertErr != nil {
			return insertErr
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	err = d.UsingProvider(ctx, func(p driver.Provider) error {
		exists, err := d.IsVersionLogExist(ctx, p, "v0001")
		require.NoError(t, err)
		assert.False(t, exists)
		return nil
	})
	require.NoError(t, err)
}
