package ingest

import (
	"context"
	"fmt"

	"github.com/hiredata/ingestd/internal/database"
)

// Insert statements for the three tables. Conflicting primary keys are
// skipped silently, which makes re-ingestion of the same file idempotent.
const (
	insertDepartmentSQL = `
		INSERT INTO app.departments (id, name)
		VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING`

	insertJobSQL = `
		INSERT INTO app.jobs (id, name)
		VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING`

	insertEmployeeSQL = `
		INSERT INTO app.employees (id, name, dt, department_id, job_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`
)

// Committer groups accepted rows into contiguous batches of at most size
// rows and commits each batch in its own transaction with insert-or-skip
// semantics. Batches already committed stay committed if a later batch
// fails; the error propagates to the surrounding run.
//
// Rows are flushed incrementally as they are added, so the streaming path
// holds at most one batch in memory.
type Committer struct {
	db   database.Store
	stmt string
	size int

	pending   [][]any
	attempted int64
	inserted  int64
}

// NewCommitter creates a Committer for the given insert statement.
// size must be positive.
func NewCommitter(db database.Store, stmt string, size int) *Committer {
	if size <= 0 {
		size = 1
	}
	return &Committer{db: db, stmt: stmt, size: size}
}

// Add buffers one parameter row, committing the current batch when it
// reaches the configured size.
func (c *Committer) Add(ctx context.Context, row []any) error {
	c.pending = append(c.pending, row)
	if len(c.pending) >= c.size {
		return c.flush(ctx)
	}
	return nil
}

// Flush commits any final partial batch. Call once at end of stream.
func (c *Committer) Flush(ctx context.Context) error {
	return c.flush(ctx)
}

func (c *Committer) flush(ctx context.Context) error {
	if len(c.pending) == 0 {
		return nil
	}

	n, err := c.db.ExecBatch(ctx, c.stmt, c.pending)
	if err != nil {
		return fmt.Errorf("committing batch of %d rows: %w", len(c.pending), err)
	}

	c.attempted += int64(len(c.pending))
	c.inserted += n
	c.pending = c.pending[:0]
	return nil
}

// Attempted returns the number of rows in committed batches, including
// rows skipped on conflict.
func (c *Committer) Attempted() int64 {
	return c.attempted
}

// Inserted returns the number of rows the store actually inserted.
func (c *Committer) Inserted() int64 {
	return c.inserted
}
