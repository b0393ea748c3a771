package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

type schemaQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgxRow
}

type pgxRow interface {
	Scan(dest ...any) error
}

type poolQuerier struct {
	pool *pgxpool.Pool
}

func (p poolQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgxRow {
	return p.pool.QueryRow(ctx, sql, args...)
}

var requiredColumns = []struct {
	table  string
	column string
}{
	{table: "babies", column: "user_id"},
	{table: "pregnancies", column: "estimated_due_date"},
	{table: "sleep_sessions", column: "end_time"},
	{table: "contractions", column: "duration_seconds"},
	{table: "maternal_health", column: "details"},
}

var requiredIndexes = []string{
	"sleep_sessions_one_open_idx",
}

// ValidateSchema checks that the migrated schema is present when the API
// starts without AUTO_MIGRATE.
func ValidateSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("database pool is nil")
	}
	return validateSchema(ctx, poolQuerier{pool: pool})
}

func validateSchema(ctx context.Context, q schemaQuerier) error {
	for _, item := range requiredColumns {
		ok, err := columnExists(ctx, q, item.table, item.column)
		if err != nil {
			return fmt.Errorf("failed checking schema for %s.%s: %w", item.table, item.column, err)
		}
		if !ok {
			return fmt.Errorf("required column %s.%s is missing; run cmd/migrate up", item.table, item.column)
		}
	}
	for _, name := range requiredIndexes {
		var exists bool
		err := q.QueryRow(ctx,
			`SELECT EXISTS (
			   SELECT 1 FROM pg_indexes
			   WHERE schemaname = current_schema() AND indexname = $1
			 )`,
			name,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed checking index %s: %w", name, err)
		}
		if !exists {
			return fmt.Errorf("required index %s is missing; run cmd/migrate up", name)
		}
	}
	return nil
}

func columnExists(ctx context.Context, q schemaQuerier, tableName, columnName string) (bool, error) {
	table := strings.TrimSpace(tableName)
	column := strings.TrimSpace(columnName)
	if table == "" || column == "" {
		return false, fmt.Errorf("table/column must not be empty")
	}
	var exists bool
	err := q.QueryRow(
		ctx,
		`SELECT EXISTS (
		   SELECT 1
		   FROM information_schema.columns
		   WHERE table_schema = current_schema()
		     AND lower(table_name) = lower($1)
		     AND lower(column_name) = lower($2)
		 )`,
		table,
		column,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
