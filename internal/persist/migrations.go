package persist

import (
	"context"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

// versionTable records applied migrations inside the store's schema.
const versionTable = "kitu_schema_version"

// RunMigrations creates the store schema when needed and applies all pending
// table-store migrations inside it.
func RunMigrations(ctx context.Context, db *DB) error {
	if db.Schema != "" {
		if _, err := db.Pool.Exec(ctx, createSchemaSQL(db.Schema)); err != nil {
			return fmt.Errorf("create schema %s: %w", db.Schema, err)
		}
	}

	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(migrations)
	goose.SetTableName(versionTable)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	defer sqlDB.Close()

	if err := goose.UpContext(ctx, sqlDB, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	version, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("read migration version: %w", err)
	}
	db.log.Info("table store schema ready", zap.String("schema", db.Schema), zap.Int64("version", version))
	return nil
}
