package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kitu-show/kitu/internal/core/errs"
)

// pgUniqueViolation is the SQLSTATE for a duplicate primary key.
const pgUniqueViolation = "23505"

// PGStore keeps tables in PostgreSQL. Rows are stored as JSONB documents.
type PGStore struct {
	db *DB
}

func NewPGStore(db *DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) CreateTable(ctx context.Context, name string) error {
	_, err := s.db.Pool.Exec(ctx, `INSERT INTO kitu_tables (name) VALUES ($1)`, name)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return errs.InvalidInput(errTableExists + ": " + name)
	}
	if err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}
	return nil
}

func (s *PGStore) Insert(ctx context.Context, table string, row Row) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("insert begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := requireTable(ctx, tx, table); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO kitu_rows (table_name, data) VALUES ($1, $2)`,
		table, map[string]string(row),
	); err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return tx.Commit(ctx)
}

func (s *PGStore) QueryAll(ctx context.Context, table string) ([]Row, error) {
	if err := requireTable(ctx, s.db.Pool, table); err != nil {
		return nil, err
	}
	rows, err := s.db.Pool.Query(ctx,
		`SELECT data FROM kitu_rows WHERE table_name = $1 ORDER BY id`, table,
	)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	out := []Row{}
	for rows.Next() {
		var data map[string]string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		out = append(out, Row(data))
	}
	return out, rows.Err()
}

func (s *PGStore) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.Pool.Query(ctx, `SELECT name FROM kitu_tables ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func requireTable(ctx context.Context, q queryRower, table string) error {
	var exists bool
	if err := q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM kitu_tables WHERE name = $1)`, table,
	).Scan(&exists); err != nil {
		return fmt.Errorf("lookup table %s: %w", table, err)
	}
	if !exists {
		return errs.InvalidInput(errMissingTable + ": " + table)
	}
	return nil
}
