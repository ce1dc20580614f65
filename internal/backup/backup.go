// Package backup dumps tables to artifacts in the object store and
// restores them with the same insert-or-skip batched commits the
// ingestion pipeline uses. Restoring never overwrites existing rows.
package backup

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hiredata/ingestd/internal/blob"
	"github.com/hiredata/ingestd/internal/database"
	"github.com/hiredata/ingestd/internal/ingest"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrUnknownTable is returned for tables outside the backup set.
var ErrUnknownTable = errors.New("table not allowed")

// timestampLayout is how employee timestamps are serialized in artifacts.
const timestampLayout = "2006-01-02 15:04:05"

// tableSpec describes how one table serializes to and from an artifact.
type tableSpec struct {
	columns []string
	select_ string
	insert  string
}

var tables = map[string]tableSpec{
	"departments": {
		columns: []string{"id", "name"},
		select_: `SELECT id, name FROM app.departments ORDER BY id`,
		insert: `INSERT INTO app.departments (id, name) VALUES ($1, $2)
			ON CONFLICT (id) DO NOTHING`,
	},
	"jobs": {
		columns: []string{"id", "name"},
		select_: `SELECT id, name FROM app.jobs ORDER BY id`,
		insert: `INSERT INTO app.jobs (id, name) VALUES ($1, $2)
			ON CONFLICT (id) DO NOTHING`,
	},
	"employees": {
		columns: []string{"id", "name", "dt", "department_id", "job_id"},
		select_: `SELECT id, name, dt, department_id, job_id FROM app.employees ORDER BY id`,
		insert: `INSERT INTO app.employees (id, name, dt, department_id, job_id)
			VALUES ($1, $2, $3, $4, $5) ON CONFLICT (id) DO NOTHING`,
	},
}

// Service performs table backups and restores.
type Service struct {
	pool   *pgxpool.Pool
	db     database.Store
	store  blob.Store
	prefix string
}

// NewService creates a backup service. Artifacts are written under
// <prefix>/csv/<table>/.
func NewService(pg *database.Postgres, store blob.Store, prefix string) *Service {
	return &Service{
		pool:   pg.Pool(),
		db:     pg,
		store:  store,
		prefix: strings.TrimSuffix(prefix, "/"),
	}
}

// Result describes a completed backup.
type Result struct {
	Table string `json:"table"`
	Rows  int    `json:"rows"`
	S3Key string `json:"s3_key"`
}

// BackupTable dumps every row of the table to a timestamped artifact and
// returns its key.
func (s *Service) BackupTable(ctx context.Context, table string) (*Result, error) {
	spec, ok := tables[table]
	if !ok {
		return nil, ErrUnknownTable
	}

	rows, err := s.pool.Query(ctx, spec.select_)
	if err != nil {
		return nil, fmt.Errorf("dumping %s: %w", table, err)
	}
	defer rows.Close()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(spec.columns); err != nil {
		return nil, err
	}

	count := 0
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("dumping %s: %w", table, err)
		}
		record := make([]string, len(values))
		for i, v := range values {
			record[i] = formatValue(v)
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dumping %s: %w", table, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	stamp := time.Now().UTC().Format("20060102T150405")
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	key := fmt.Sprintf("%s/csv/%s/%s-%s-%s.csv", s.prefix, table, table, stamp, id)

	if err := s.store.Put(ctx, key, buf.Bytes()); err != nil {
		return nil, err
	}
	return &Result{Table: table, Rows: count, S3Key: key}, nil
}

// RestoreResult describes a completed restore.
type RestoreResult struct {
	Table    string `json:"table"`
	Restored int64  `json:"restored"`
	FromS3   string `json:"from_s3"`
}

// RestoreTable reads a backup artifact and re-inserts its rows in batches
// of batchSize, skipping ids that already exist.
func (s *Service) RestoreTable(ctx context.Context, table, key string, batchSize int) (*RestoreResult, error) {
	spec, ok := tables[table]
	if !ok {
		return nil, ErrUnknownTable
	}
	if batchSize <= 0 {
		batchSize = 1000
	}

	rc, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	cr := csv.NewReader(rc)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing backup %s: %w", key, err)
	}
	if len(records) == 0 {
		return &RestoreResult{Table: table, FromS3: key}, nil
	}

	// Map artifact columns by header so column order never matters.
	colIdx := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		colIdx[ingest.NormalizeFieldName(h)] = i
	}
	for _, col := range spec.columns {
		if _, ok := colIdx[col]; !ok {
			return nil, fmt.Errorf("backup %s is missing column %q", key, col)
		}
	}

	var restored int64
	var batch [][]any
	for _, record := range records[1:] {
		params, err := buildParams(spec.columns, colIdx, record)
		if err != nil {
			return nil, fmt.Errorf("backup %s: %w", key, err)
		}
		batch = append(batch, params)
		if len(batch) >= batchSize {
			n, err := s.db.ExecBatch(ctx, spec.insert, batch)
			if err != nil {
				return nil, err
			}
			restored += n
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		n, err := s.db.ExecBatch(ctx, spec.insert, batch)
		if err != nil {
			return nil, err
		}
		restored += n
	}

	return &RestoreResult{Table: table, Restored: restored, FromS3: key}, nil
}

// buildParams converts one artifact record into insert parameters.
func buildParams(columns []string, colIdx map[string]int, record []string) ([]any, error) {
	params := make([]any, 0, len(columns))
	for _, col := range columns {
		idx := colIdx[col]
		var raw string
		if idx < len(record) {
			raw = record[idx]
		}

		switch col {
		case "id", "department_id", "job_id":
			if raw == "" {
				params = append(params, nil)
				continue
			}
			n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", col, err)
			}
			params = append(params, n)
		case "dt":
			if raw == "" {
				params = append(params, nil)
				continue
			}
			t, ok := ingest.ParseTimestamp(raw)
			if !ok {
				return nil, fmt.Errorf("column %q: invalid timestamp %q", col, raw)
			}
			params = append(params, t)
		default:
			params = append(params, raw)
		}
	}
	return params, nil
}

// formatValue renders a database value for the artifact.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case time.Time:
		return val.Format(timestampLayout)
	case int64:
		return strconv.FormatInt(val, 10)
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}
