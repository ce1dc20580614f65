package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/hiredata/ingestd/internal/blob"
)

func newOnlineService(db *fakeStore) *Service {
	return NewService(db, blob.NewMemStore(), testS3Config(), testIngestConfig())
}

func TestOnlineIngest_Departments(t *testing.T) {
	db := newFakeStore()
	svc := newOnlineService(db)

	rows := []RawRecord{
		{"id": "1", "name": "Engineering"},
		{"id": "2", "name": "Sales"},
	}

	result, err := svc.OnlineIngest(context.Background(), "departments", rows)
	if err != nil {
		t.Fatalf("OnlineIngest() error = %v", err)
	}
	if result.Table != "departments" || result.Received != 2 || result.Inserted != 2 {
		t.Errorf("result = %+v", result)
	}

	// Single transaction for the whole request
	if len(db.execBatches) != 1 || len(db.execBatches[0]) != 2 {
		t.Errorf("batches = %v", db.execBatches)
	}
}

func TestOnlineIngest_Employees(t *testing.T) {
	db := newFakeStore()
	db.setCatalog([]int64{1}, []int64{10})
	svc := newOnlineService(db)

	rows := []RawRecord{
		{"id": "100", "name": "Alice", "job_id": "10", "department_id": "1", "datetime": "2021-07-27T16:02:08Z"},
	}

	result, err := svc.OnlineIngest(context.Background(), "employees", rows)
	if err != nil {
		t.Fatalf("OnlineIngest() error = %v", err)
	}
	if result.Inserted != 1 {
		t.Errorf("Inserted = %d, want 1", result.Inserted)
	}
}

func TestOnlineIngest_InvalidRowsAbortAll(t *testing.T) {
	db := newFakeStore()
	db.setCatalog([]int64{1}, []int64{10})
	svc := newOnlineService(db)

	rows := []RawRecord{
		{"id": "100", "name": "Alice", "job_id": "10", "department_id": "1", "datetime": "2021-01-01"},
		{"id": "101", "name": "Bob", "job_id": "10", "department_id": "99", "datetime": "2021-01-01"},
		{"id": "bad", "name": "Carol", "job_id": "10", "department_id": "1", "datetime": "2021-01-01"},
	}

	_, err := svc.OnlineIngest(context.Background(), "employees", rows)
	if err == nil {
		t.Fatal("OnlineIngest() expected error for invalid rows")
	}

	var invalid *InvalidRowsError
	if !errors.As(err, &invalid) {
		t.Fatalf("error = %T, want *InvalidRowsError", err)
	}
	// Every invalid row is reported, not just the first
	if len(invalid.Rows) != 2 {
		t.Errorf("invalid rows = %d, want 2", len(invalid.Rows))
	}

	// Nothing committed
	if len(db.execBatches) != 0 {
		t.Errorf("invalid request committed %d batches", len(db.execBatches))
	}
}

func TestOnlineIngest_UnknownTable(t *testing.T) {
	svc := newOnlineService(newFakeStore())

	_, err := svc.OnlineIngest(context.Background(), "app.ingest_audit", []RawRecord{{"id": "1"}})
	if !errors.Is(err, ErrUnknownTable) {
		t.Errorf("error = %v, want ErrUnknownTable", err)
	}
}

func TestOnlineIngest_RowCountBounds(t *testing.T) {
	svc := newOnlineService(newFakeStore())
	ctx := context.Background()

	if _, err := svc.OnlineIngest(ctx, "departments", nil); !errors.Is(err, ErrRowCount) {
		t.Errorf("empty rows error = %v, want ErrRowCount", err)
	}

	tooMany := make([]RawRecord, OnlineMaxRows+1)
	for i := range tooMany {
		tooMany[i] = RawRecord{"id": "1", "name": "x"}
	}
	if _, err := svc.OnlineIngest(ctx, "departments", tooMany); !errors.Is(err, ErrRowCount) {
		t.Errorf("oversized rows error = %v, want ErrRowCount", err)
	}
}
