package kv

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const kvTable = "kv_entries"

// Postgres stores entries in the kv_entries table created by the
// migrations in platform/db. The pool is owned by the caller.
type Postgres struct {
	pool *pgxpool.Pool
	psql sq.StatementBuilderType
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{
		pool: pool,
		psql: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	query, args, err := p.psql.Select("value").From(kvTable).Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get query: %w", err)
	}
	var value []byte
	if err := p.pool.QueryRow(ctx, query, args...).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

func (p *Postgres) Put(ctx context.Context, key string, value []byte) error {
	query, args, err := p.psql.Insert(kvTable).
		Columns("key", "value", "updated_at").
		Values(key, value, sq.Expr("NOW()")).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()").
		ToSql()
	if err != nil {
		return fmt.Errorf("build put query: %w", err)
	}
	if _, err := p.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	query, args, err := p.psql.Delete(kvTable).Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete query: %w", err)
	}
	if _, err := p.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) Keys(ctx context.Context, prefix string) ([]string, error) {
	query, args, err := p.psql.Select("key").From(kvTable).
		Where(sq.Like{"key": escapeLike(prefix) + "%"}).
		OrderBy("key").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build keys query: %w", err)
	}
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan keys: %w", err)
	}
	return keys, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close is a no-op; the pool outlives the backend.
func (p *Postgres) Close() error { return nil }

func escapeLike(value string) string {
	out := make([]rune, 0, len(value))
	for _, r := range value {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
