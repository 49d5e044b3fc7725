package notification

import (
	"context"
	"database/sql"
	"embed"

	"github.com/zulramsey7/GengKubur/pkg/migration"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// initSchema はデータベースにマイグレーションを適用する。
func initSchema(ctx context.Context, db *sql.DB) error {
	return migration.Run(ctx, db, migrationsFS, "migrations")
}
