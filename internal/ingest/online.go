package ingest

// online.go implements the synchronous caller-supplied-rows path. Its
// failure contract differs from the file path on purpose: any invalid row
// aborts the whole request with every rejected row in the response, and
// nothing is committed. The file path instead routes rejects to the sink
// and keeps going.

import (
	"context"
	"errors"
	"fmt"
)

// OnlineMaxRows bounds one online ingest request.
const OnlineMaxRows = 1000

// ErrUnknownTable is returned for table names outside the ingestible set,
// before any store access.
var ErrUnknownTable = errors.New("unknown table")

// ErrRowCount is returned when the request carries no rows or too many.
var ErrRowCount = fmt.Errorf("row count must be between 1 and %d", OnlineMaxRows)

// InvalidRowsError aborts an online request. It carries every rejected
// row so the caller sees all failures at once.
type InvalidRowsError struct {
	Rows []RejectedRecord
}

func (e *InvalidRowsError) Error() string {
	return fmt.Sprintf("%d invalid rows", len(e.Rows))
}

// OnlineIngest validates rows for the named table and, only if every row
// is valid, commits them in a single transaction with insert-or-skip
// semantics.
func (s *Service) OnlineIngest(ctx context.Context, table string, rows []RawRecord) (*OnlineResult, error) {
	if len(rows) < 1 || len(rows) > OnlineMaxRows {
		return nil, ErrRowCount
	}

	var stmt string
	var params [][]any

	switch table {
	case "departments", "jobs":
		accepted, rejected := PartitionCatalogRows(rows)
		if len(rejected) > 0 {
			return nil, &InvalidRowsError{Rows: rejected}
		}
		stmt = insertDepartmentSQL
		if table == "jobs" {
			stmt = insertJobSQL
		}
		params = make([][]any, 0, len(accepted))
		for _, entry := range accepted {
			params = append(params, []any{entry.ID, entry.Name})
		}

	case "employees":
		cat, err := LoadCatalog(ctx, s.db)
		if err != nil {
			return nil, err
		}
		accepted, rejected := PartitionEmployeeRows(rows, cat)
		if len(rejected) > 0 {
			return nil, &InvalidRowsError{Rows: rejected}
		}
		stmt = insertEmployeeSQL
		params = make([][]any, 0, len(accepted))
		for _, emp := range accepted {
			params = append(params, []any{emp.ID, emp.Name, emp.HiredAt, emp.DepartmentID, emp.JobID})
		}

	default:
		return nil, ErrUnknownTable
	}

	inserted, err := s.db.ExecBatch(ctx, stmt, params)
	if err != nil {
		return nil, fmt.Errorf("committing online rows: %w", err)
	}

	return &OnlineResult{Table: table, Received: len(rows), Inserted: inserted}, nil
}
