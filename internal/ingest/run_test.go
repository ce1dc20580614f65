package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/hiredata/ingestd/internal/blob"
	"github.com/hiredata/ingestd/internal/config"
)

func testIngestConfig() config.IngestConfig {
	return config.IngestConfig{
		BatchSize:       2,
		ProgressEvery:   1000,
		DepartmentsFile: "departments.csv",
		JobsFile:        "jobs.csv",
		EmployeesFile:   "hired_employees.csv",
	}
}

func testS3Config() config.S3Config {
	return config.S3Config{
		Bucket:       "test-bucket",
		RawPrefix:    "raw/",
		BackupPrefix: "backup/",
	}
}

func TestIngestDepartments(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemStore()
	store.Put(ctx, "raw/departments.csv", []byte("id,name\n1,Engineering\n,NoID\n2,Sales\n"))

	db := newFakeStore()
	svc := NewService(db, store, testS3Config(), testIngestConfig())

	summary, err := svc.IngestDepartments(ctx)
	if err != nil {
		t.Fatalf("IngestDepartments() error = %v", err)
	}

	if summary.Read != 3 || summary.Valid != 2 || summary.Invalid != 1 {
		t.Errorf("summary = read %d valid %d invalid %d, want 3/2/1",
			summary.Read, summary.Valid, summary.Invalid)
	}
	if summary.Attempted != 2 {
		t.Errorf("Attempted = %d, want 2", summary.Attempted)
	}
	if summary.ErrorsS3 == nil {
		t.Error("ErrorsS3 = nil, want reject artifact key")
	} else if !strings.HasPrefix(*summary.ErrorsS3, "backup/errors/departments_errors-") {
		t.Errorf("ErrorsS3 = %q", *summary.ErrorsS3)
	}

	// Accepted rows committed
	if got := db.totalBatchedRows(); got != 2 {
		t.Errorf("committed rows = %d, want 2", got)
	}

	// One audit entry with matching counts
	if len(db.execCalls) != 1 {
		t.Fatalf("audit inserts = %d, want 1", len(db.execCalls))
	}
	audit := db.execCalls[0]
	if audit[0] != "departments.csv" || audit[1] != "app.departments" {
		t.Errorf("audit file/table = %v/%v", audit[0], audit[1])
	}
	if audit[2] != 3 || audit[3] != 2 || audit[4] != 1 {
		t.Errorf("audit counts = %v/%v/%v, want 3/2/1", audit[2], audit[3], audit[4])
	}
}

func TestIngestDepartments_CleanFile(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemStore()
	store.Put(ctx, "raw/departments.csv", []byte("id,name\n1,Engineering\n"))

	db := newFakeStore()
	svc := NewService(db, store, testS3Config(), testIngestConfig())

	summary, err := svc.IngestDepartments(ctx)
	if err != nil {
		t.Fatalf("IngestDepartments() error = %v", err)
	}
	if summary.Invalid != 0 {
		t.Errorf("Invalid = %d, want 0", summary.Invalid)
	}
	if summary.ErrorsS3 != nil {
		t.Errorf("ErrorsS3 = %q, want nil for clean file", *summary.ErrorsS3)
	}

	// No reject artifact written
	keys, _ := store.List(ctx, "backup/errors/", 0)
	if len(keys) != 0 {
		t.Errorf("clean run wrote reject artifacts: %v", keys)
	}
}

func TestIngestDepartments_MissingSource(t *testing.T) {
	store := blob.NewMemStore()
	db := newFakeStore()
	svc := NewService(db, store, testS3Config(), testIngestConfig())

	if _, err := svc.IngestDepartments(context.Background()); err == nil {
		t.Fatal("IngestDepartments() expected error for missing source object")
	}
	if len(db.execBatches) != 0 || len(db.execCalls) != 0 {
		t.Error("missing source must not touch the database")
	}
}

func TestIngestJobs_UsesJobsFile(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemStore()
	store.Put(ctx, "raw/jobs.csv", []byte("id,name\n10,Analyst\n"))

	db := newFakeStore()
	svc := NewService(db, store, testS3Config(), testIngestConfig())

	summary, err := svc.IngestJobs(ctx)
	if err != nil {
		t.Fatalf("IngestJobs() error = %v", err)
	}
	if summary.File != "raw/jobs.csv" {
		t.Errorf("File = %q", summary.File)
	}
	if len(db.execCalls) != 1 || db.execCalls[0][1] != "app.jobs" {
		t.Errorf("audit target = %v", db.execCalls)
	}
}

func TestIngestEmployees(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemStore()
	store.Put(ctx, "raw/hired_employees.csv", []byte(
		"id,name,datetime,department_id,job_id\n"+
			"1,Alice,2021-07-27T16:02:08Z,1,10\n"+
			"2,Bob,2021-07-28,2,10\n"+
			"3,,2021-07-29,1,10\n"+
			"4,Dave,2021-07-30,99,10\n"))

	db := newFakeStore()
	db.setCatalog([]int64{1, 2}, []int64{10})
	svc := NewService(db, store, testS3Config(), testIngestConfig())

	summary, err := svc.IngestEmployees(ctx, EmployeeOptions{})
	if err != nil {
		t.Fatalf("IngestEmployees() error = %v", err)
	}

	if summary.Read != 4 || summary.Valid != 2 || summary.Invalid != 2 {
		t.Errorf("summary = read %d valid %d invalid %d, want 4/2/2",
			summary.Read, summary.Valid, summary.Invalid)
	}
	if summary.Inserted != 2 {
		t.Errorf("Inserted = %d, want 2", summary.Inserted)
	}
	if summary.Limit != nil {
		t.Errorf("Limit = %v, want nil when unset", *summary.Limit)
	}
	if summary.ErrorsS3 == nil {
		t.Error("ErrorsS3 = nil, want reject artifact key")
	} else if !strings.Contains(*summary.ErrorsS3, "hired_employees_errors") {
		t.Errorf("ErrorsS3 = %q", *summary.ErrorsS3)
	}
	if got := db.totalBatchedRows(); got != 2 {
		t.Errorf("committed rows = %d, want 2", got)
	}
}

func TestIngestEmployees_Limit(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemStore()
	store.Put(ctx, "raw/hired_employees.csv", []byte(
		"id,name,datetime,department_id,job_id\n"+
			"1,Alice,2021-01-01,1,10\n"+
			"2,Bob,2021-01-02,1,10\n"+
			"3,Carol,2021-01-03,1,10\n"))

	db := newFakeStore()
	db.setCatalog([]int64{1}, []int64{10})
	svc := NewService(db, store, testS3Config(), testIngestConfig())

	summary, err := svc.IngestEmployees(ctx, EmployeeOptions{Limit: 2})
	if err != nil {
		t.Fatalf("IngestEmployees() error = %v", err)
	}
	if summary.Read != 2 {
		t.Errorf("Read = %d, want 2 with limit", summary.Read)
	}
	if summary.Limit == nil || *summary.Limit != 2 {
		t.Errorf("Limit = %v, want 2", summary.Limit)
	}
}

func TestIngestEmployees_BatchSizeOverride(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemStore()
	store.Put(ctx, "raw/hired_employees.csv", []byte(
		"id,name,datetime,department_id,job_id\n"+
			"1,Alice,2021-01-01,1,10\n"+
			"2,Bob,2021-01-02,1,10\n"+
			"3,Carol,2021-01-03,1,10\n"))

	db := newFakeStore()
	db.setCatalog([]int64{1}, []int64{10})
	svc := NewService(db, store, testS3Config(), testIngestConfig())

	summary, err := svc.IngestEmployees(ctx, EmployeeOptions{BatchSize: 1})
	if err != nil {
		t.Fatalf("IngestEmployees() error = %v", err)
	}
	if summary.BatchSize != 1 {
		t.Errorf("BatchSize = %d, want override 1", summary.BatchSize)
	}
	if len(db.execBatches) != 3 {
		t.Errorf("got %d batches, want 3 at size 1", len(db.execBatches))
	}
}

func TestIngestEmployees_AliasHeaders(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemStore()
	// Truncated department header and dt alias, as seen in real exports
	store.Put(ctx, "raw/hired_employees.csv", []byte(
		"id,name,dt,departmer,job_id\n"+
			"1,Alice,2021-01-01,1,10\n"))

	db := newFakeStore()
	db.setCatalog([]int64{1}, []int64{10})
	svc := NewService(db, store, testS3Config(), testIngestConfig())

	summary, err := svc.IngestEmployees(ctx, EmployeeOptions{})
	if err != nil {
		t.Fatalf("IngestEmployees() error = %v", err)
	}
	if summary.Valid != 1 || summary.Invalid != 0 {
		t.Errorf("valid %d invalid %d, want 1/0", summary.Valid, summary.Invalid)
	}
}
