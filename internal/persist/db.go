package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kitu-show/kitu/internal/config"
	"go.uber.org/zap"
)

// DB is a pgx pool whose connections resolve unqualified names in Schema.
type DB struct {
	Pool   *pgxpool.Pool
	Schema string
	log    *zap.Logger
}

func NewDB(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.MaxIdleConns)
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	if cfg.Schema != "" {
		poolCfg.ConnConfig.RuntimeParams["search_path"] = searchPath(cfg.Schema)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	log.Info("database connected",
		zap.Int32("max_conns", poolCfg.MaxConns),
		zap.String("schema", cfg.Schema),
	)
	return &DB{Pool: pool, Schema: cfg.Schema, log: log}, nil
}

func (db *DB) Close() {
	db.Pool.Close()
}

// searchPath quotes schema for the search_path startup parameter.
func searchPath(schema string) string {
	return pgx.Identifier{schema}.Sanitize()
}

func createSchemaSQL(schema string) string {
	return "CREATE SCHEMA IF NOT EXISTS " + pgx.Identifier{schema}.Sanitize()
}
