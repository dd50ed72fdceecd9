package data

import (
	"context"
	"database/sql"

	"github.com/ScoeScoe/POSTANOS/internal/migrate"
)

// RunMigrations brings the job schema up to date via the embedded
// migrations in the migrate package.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrate.Run(ctx, db)
}
