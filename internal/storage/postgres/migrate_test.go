package postgres

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_Idempotent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	dir := filepath.Join(findProjectRoot(t), "internal", "storage", "migrations", "postgres")

	applied, err := Migrate(ctx, pool, os.DirFS(dir))
	require.NoError(t, err)
	assert.Empty(t, applied, "migrations already applied by setup")

	var n int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&n))
	assert.Greater(t, n, 0)
}

func TestMigrate_FailedFileRollsBack(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	fsys := fstest.MapFS{
		"900_ok.sql":     {Data: []byte(`CREATE TABLE migrate_probe (id INT)`)},
		"901_broken.sql": {Data: []byte(`CREATE TABLE migrate_probe_2 (id INT); SELECT * FROM missing_table`)},
	}

	applied, err := Migrate(ctx, pool, fsys)
	require.Error(t, err)
	assert.Equal(t, []string{"900_ok.sql"}, applied)

	var exists bool
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'migrate_probe_2')`,
	).Scan(&exists))
	assert.False(t, exists)
}
