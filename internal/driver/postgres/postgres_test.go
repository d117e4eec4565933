//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/kvlabs/schemamgr/internal/driver"
)

// TestVersionTableLifecycle_RealPostgres exercises the dialect hooks against
// a disposable Postgres container, mirroring the reference store's own
// testcontainers-backed Postgres suite. Run with -tags=integration.
func TestVersionTableLifecycle_RealPostgres(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	container, err := tcpostgres.Run(ctx, "postgres:16",
		tcpostgres.WithDatabase("schemamgr_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Skipf("skipping postgres container test: %v", err)
		return
	}
	defer func() { _ = container.Terminate(ctx) }()

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	d, err := Open(dsn, "")
	require.NoError(t, err)
	defer func() { _ = d.Close() }()

	require.NoError(t, d.UsingProvider(ctx, func(p driver.Provider) error {
		exists, err := d.IsVersionTableExist(ctx, p)
		require.NoError(t, err)
		assert.False(t, exists)
		return d.CreateVersionTable(ctx, p)
	}))

	err = d.UsingProviderWithTransaction(ctx, func(p driver.Provider) error {
		return d.InsertVersionLog(ctx, p, "v0001", "[INFO] applied")
	})
	require.NoError(t, err)

	require.NoError(t, d.UsingProvider(ctx, func(p driver.Provider) error {
		version, ok, err := d.GetCurrentVersion(ctx, p)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "v0001", version)
		return nil
	}))
}
