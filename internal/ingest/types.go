// Package ingest implements the CSV ingestion pipeline: normalizing raw
// delimited files into field mappings, validating rows against per-table
// and catalog-dependent rules, committing accepted rows in idempotent
// batches, archiving rejected rows, and recording an audit entry per run.
package ingest

import "time"

// RawRecord maps normalized field names to raw string values.
// The header set is file-dependent; nothing is guaranteed until validated.
type RawRecord map[string]string

// RejectedRecord is a raw row that failed validation, tagged with the
// reason of the first rule it violated. It is persisted and never
// re-validated.
type RejectedRecord struct {
	Fields RawRecord
	Reason string
}

// RawCatalogRow gives validators typed access to the fields a catalog
// table (departments, jobs) cares about. Fields keeps the full original
// row for reject artifacts.
type RawCatalogRow struct {
	ID     string
	Name   string
	Fields RawRecord
}

// RawEmployeeRow gives validators typed access to employee fields.
// Department and Datetime are resolved from their alias groups at
// tagging time; empty means no alias carried a value.
type RawEmployeeRow struct {
	ID         string
	Name       string
	JobID      string
	Department string
	Datetime   string
	Fields     RawRecord
}

// CatalogEntry is a validated row for a catalog table.
type CatalogEntry struct {
	ID   int64
	Name string
}

// Employee is a validated row for the hired-employees fact table.
type Employee struct {
	ID           int64
	Name         string
	HiredAt      time.Time
	DepartmentID int64
	JobID        int64
}

// CatalogSummary is the result of one catalog-file ingestion run.
// Attempted counts rows queued for commit; pre-existing ids are skipped
// by the store but still count as attempted.
type CatalogSummary struct {
	File      string  `json:"file"`
	Read      int     `json:"read"`
	Valid     int     `json:"valid"`
	Invalid   int     `json:"invalid"`
	BatchSize int     `json:"batch_size"`
	Attempted int64   `json:"attempted"`
	ErrorsS3  *string `json:"errors_s3"`
}

// EmployeeSummary is the result of one employee-file ingestion run.
// Inserted counts rows actually inserted; conflicting ids are skipped
// and not counted.
type EmployeeSummary struct {
	File          string  `json:"file"`
	Read          int     `json:"read"`
	Valid         int     `json:"valid"`
	Invalid       int     `json:"invalid"`
	Inserted      int64   `json:"inserted"`
	BatchSize     int     `json:"batch_size"`
	ProgressEvery int     `json:"progress_every"`
	Limit         *int    `json:"limit"`
	ErrorsS3      *string `json:"errors_s3"`
	ElapsedSec    float64 `json:"elapsed_sec"`
}

// OnlineResult is the success response of the online ingestion path.
type OnlineResult struct {
	Table    string `json:"table"`
	Received int    `json:"received"`
	Inserted int64  `json:"inserted"`
}
