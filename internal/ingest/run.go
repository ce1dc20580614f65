package ingest

// run.go wires the pipeline per table: fetch the source object, normalize
// and validate rows, commit accepted rows in batches, persist rejects,
// and append the audit entry. Catalog files are small and materialize in
// memory; the employee file streams.

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/hiredata/ingestd/internal/blob"
	"github.com/hiredata/ingestd/internal/config"
	"github.com/hiredata/ingestd/internal/database"
	"github.com/hiredata/ingestd/internal/logging"
)

// Service orchestrates ingestion runs. Store handles are injected so
// tests can substitute doubles; the service keeps no hidden global state.
type Service struct {
	db      database.Store
	store   blob.Store
	rejects *Sink
	audit   *AuditRecorder

	opts      config.IngestConfig
	rawPrefix string
}

// NewService creates a Service using the given store handles and settings.
func NewService(db database.Store, store blob.Store, s3 config.S3Config, opts config.IngestConfig) *Service {
	return &Service{
		db:        db,
		store:     store,
		rejects:   NewSink(store, s3.BackupPrefix),
		audit:     NewAuditRecorder(db),
		opts:      opts,
		rawPrefix: strings.TrimSuffix(s3.RawPrefix, "/"),
	}
}

// IngestDepartments ingests the departments catalog file.
func (s *Service) IngestDepartments(ctx context.Context) (*CatalogSummary, error) {
	return s.ingestCatalog(ctx, s.opts.DepartmentsFile, "app.departments", insertDepartmentSQL, "departments_errors")
}

// IngestJobs ingests the jobs catalog file.
func (s *Service) IngestJobs(ctx context.Context) (*CatalogSummary, error) {
	return s.ingestCatalog(ctx, s.opts.JobsFile, "app.jobs", insertJobSQL, "jobs_errors")
}

// ingestCatalog runs the synchronous small-file path shared by both
// catalog tables.
func (s *Service) ingestCatalog(ctx context.Context, fileName, table, stmt, errTag string) (*CatalogSummary, error) {
	key := s.rawPrefix + "/" + fileName
	logger := logging.WithFields(ctx, "table", table, "file", key)

	rc, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	recs, err := ReadCatalogRows(rc, []string{"id", "name"})
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}

	accepted, rejected := PartitionCatalogRows(recs)

	committer := NewCommitter(s.db, stmt, s.opts.BatchSize)
	for _, entry := range accepted {
		if err := committer.Add(ctx, []any{entry.ID, entry.Name}); err != nil {
			return nil, err
		}
	}
	if err := committer.Flush(ctx); err != nil {
		return nil, err
	}

	errKey, err := s.rejects.Write(ctx, errTag, rejected)
	if err != nil {
		return nil, err
	}

	if err := s.audit.Record(ctx, AuditEntry{
		FileName:    fileName,
		TableTarget: table,
		TotalRead:   len(recs),
		ValidRows:   len(accepted),
		InvalidRows: len(rejected),
		BatchSize:   s.opts.BatchSize,
		ErrorKey:    errKey,
	}); err != nil {
		return nil, err
	}

	logger.Info("catalog ingestion complete",
		"read", len(recs),
		"valid", len(accepted),
		"invalid", len(rejected),
		"attempted", committer.Attempted(),
	)

	return &CatalogSummary{
		File:      key,
		Read:      len(recs),
		Valid:     len(accepted),
		Invalid:   len(rejected),
		BatchSize: s.opts.BatchSize,
		Attempted: committer.Attempted(),
		ErrorsS3:  optionalKey(errKey),
	}, nil
}

// EmployeeOptions tune one employee ingestion run. Zero values fall back
// to the configured defaults; Limit zero means read the whole file.
type EmployeeOptions struct {
	Limit         int
	BatchSize     int
	ProgressEvery int
}

// IngestEmployees streams the hired-employees file, validating each row
// against a catalog snapshot taken at run start and flushing accepted
// rows batch by batch to bound memory.
func (s *Service) IngestEmployees(ctx context.Context, opts EmployeeOptions) (*EmployeeSummary, error) {
	key := s.rawPrefix + "/" + s.opts.EmployeesFile

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = s.opts.BatchSize
	}
	progressEvery := opts.ProgressEvery
	if progressEvery <= 0 {
		progressEvery = s.opts.ProgressEvery
	}
	if progressEvery <= 0 {
		progressEvery = 10000
	}

	logger := logging.WithFields(ctx, "table", "app.employees", "file", key)
	start := time.Now()

	cat, err := LoadCatalog(ctx, s.db)
	if err != nil {
		return nil, err
	}

	rc, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	stream, err := NewRowStream(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}

	committer := NewCommitter(s.db, insertEmployeeSQL, batchSize)
	var rejected []RejectedRecord
	read, valid, invalid := 0, 0, 0

	for {
		rec, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", key, err)
		}
		read++

		emp, rej := ValidateEmployeeRow(TagEmployeeRow(rec), cat)
		if rej != nil {
			rejected = append(rejected, *rej)
			invalid++
		} else {
			valid++
			if err := committer.Add(ctx, []any{emp.ID, emp.Name, emp.HiredAt, emp.DepartmentID, emp.JobID}); err != nil {
				return nil, err
			}
		}

		if read%progressEvery == 0 {
			logger.Info("ingest progress",
				"read", read,
				"valid", valid,
				"invalid", invalid,
				"inserted", committer.Inserted(),
				"elapsed_sec", roundSeconds(time.Since(start)),
			)
		}

		if opts.Limit > 0 && read >= opts.Limit {
			break
		}
	}

	if err := committer.Flush(ctx); err != nil {
		return nil, err
	}

	errKey, err := s.rejects.Write(ctx, "hired_employees_errors", rejected)
	if err != nil {
		return nil, err
	}

	if err := s.audit.Record(ctx, AuditEntry{
		FileName:    s.opts.EmployeesFile,
		TableTarget: "app.employees",
		TotalRead:   read,
		ValidRows:   valid,
		InvalidRows: invalid,
		BatchSize:   batchSize,
		ErrorKey:    errKey,
	}); err != nil {
		return nil, err
	}

	elapsed := roundSeconds(time.Since(start))
	logger.Info("employee ingestion complete",
		"read", read,
		"valid", valid,
		"invalid", invalid,
		"inserted", committer.Inserted(),
		"elapsed_sec", elapsed,
	)

	var limit *int
	if opts.Limit > 0 {
		limit = &opts.Limit
	}

	return &EmployeeSummary{
		File:          key,
		Read:          read,
		Valid:         valid,
		Invalid:       invalid,
		Inserted:      committer.Inserted(),
		BatchSize:     batchSize,
		ProgressEvery: progressEvery,
		Limit:         limit,
		ErrorsS3:      optionalKey(errKey),
		ElapsedSec:    elapsed,
	}, nil
}

// optionalKey converts an artifact key to its JSON form: null when empty.
func optionalKey(key string) *string {
	if key == "" {
		return nil
	}
	return &key
}

// roundSeconds reports a duration as seconds with two decimal places.
func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}
