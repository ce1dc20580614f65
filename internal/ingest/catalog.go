package ingest

import (
	"context"
	"fmt"

	"github.com/hiredata/ingestd/internal/database"
)

// Catalog is a per-run snapshot of the identifier sets dependent records
// reference. It is loaded once before validation starts and never
// refreshed mid-run: ids committed by a concurrent catalog ingestion
// after the snapshot will reject otherwise-valid dependent rows. That
// staleness is the accepted consistency model, not a bug.
type Catalog struct {
	Departments map[int64]struct{}
	Jobs        map[int64]struct{}
}

// LoadCatalog reads the current department and job id sets.
func LoadCatalog(ctx context.Context, db database.Store) (*Catalog, error) {
	departments, err := db.IDSet(ctx, `SELECT id FROM app.departments`)
	if err != nil {
		return nil, fmt.Errorf("loading department catalog: %w", err)
	}

	jobs, err := db.IDSet(ctx, `SELECT id FROM app.jobs`)
	if err != nil {
		return nil, fmt.Errorf("loading job catalog: %w", err)
	}

	return &Catalog{Departments: departments, Jobs: jobs}, nil
}

// HasDepartment reports whether id was in the department set at snapshot time.
func (c *Catalog) HasDepartment(id int64) bool {
	_, ok := c.Departments[id]
	return ok
}

// HasJob reports whether id was in the job set at snapshot time.
func (c *Catalog) HasJob(id int64) bool {
	_, ok := c.Jobs[id]
	return ok
}
