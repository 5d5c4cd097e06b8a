package migrate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/gatekeeper/internal/migrate"
	"github.com/target/gatekeeper/internal/testutil"
)

func TestVersions(t *testing.T) {
	versions, err := migrate.Versions()
	require.NoError(t, err)
	require.NotEmpty(t, versions)
	assert.Equal(t, "0001_identities", versions[0])
	assert.IsNonDecreasing(t, versions)
}

func TestRun_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	require.NoError(t, migrate.Run(ctx, db))
	require.NoError(t, migrate.Run(ctx, db))

	pending, err := migrate.Pending(ctx, db)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
