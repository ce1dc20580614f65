// Package database provides the relational-store surface consumed by the
// ingestion pipeline. The core talks to the narrow Store interface so tests
// can substitute a fake; Postgres implements it over a pgx connection pool.
package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the relational-store contract the ingestion pipeline depends on.
type Store interface {
	// Exec runs a single statement in its own implicit transaction and
	// returns the number of rows affected.
	Exec(ctx context.Context, stmt string, args ...any) (int64, error)

	// ExecBatch runs stmt once per parameter row inside a single
	// transaction and returns the total number of rows affected.
	// Statements with ON CONFLICT DO NOTHING report skipped rows as
	// zero affected, which is how insert-or-skip commits count inserts.
	ExecBatch(ctx context.Context, stmt string, rows [][]any) (int64, error)

	// IDSet runs a single-column integer query and returns the result
	// as a set. Used for catalog snapshots.
	IDSet(ctx context.Context, query string) (map[int64]struct{}, error)
}

// Postgres implements Store over a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an existing connection pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Pool exposes the underlying pool for collaborators that need ad-hoc
// queries (reporting, backups).
func (p *Postgres) Pool() *pgxpool.Pool {
	return p.pool
}

// Ping verifies the database connection.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Exec runs a single statement and returns rows affected.
func (p *Postgres) Exec(ctx context.Context, stmt string, args ...any) (int64, error) {
	tag, err := p.pool.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ExecBatch runs stmt once per row inside one transaction, pipelined via
// pgx's batch protocol, and returns the total rows affected.
func (p *Postgres) ExecBatch(ctx context.Context, stmt string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(stmt, row...)
	}

	var affected int64
	results := tx.SendBatch(ctx, batch)
	for range rows {
		tag, err := results.Exec()
		if err != nil {
			results.Close()
			return 0, fmt.Errorf("batch statement: %w", err)
		}
		affected += tag.RowsAffected()
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("closing batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return affected, nil
}

// IDSet runs a single-column integer query and returns the values as a set.
func (p *Postgres) IDSet(ctx context.Context, query string) (map[int64]struct{}, error) {
	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}
