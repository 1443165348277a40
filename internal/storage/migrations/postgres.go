// Package migrations embeds the SQL schema of the label cache.
package migrations

import (
	"context"
	"embed"
	"io/fs"

	"solana-holder-lab/internal/storage/postgres"
)

//go:embed postgres/*.sql
var postgresFiles embed.FS

// PostgresFS returns the embedded PostgreSQL migrations rooted at their directory.
func PostgresFS() fs.FS {
	sub, err := fs.Sub(postgresFiles, "postgres")
	if err != nil {
		panic(err) // static path
	}
	return sub
}

// RunPostgresMigrations applies pending embedded migrations.
// Returns the names applied by this call.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) ([]string, error) {
	return postgres.Migrate(ctx, pool, PostgresFS())
}
