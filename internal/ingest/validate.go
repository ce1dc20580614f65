package ingest

// validate.go applies per-table rules to one raw row at a time, producing
// either a typed accepted record or a RejectedRecord whose reason names
// the first rule violated.

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// timestampLayouts are the candidate formats for the hire timestamp,
// tried in order; first match wins. No timezone conversion is applied:
// values parse as naive timestamps.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999Z",
}

// isoFallbackLayouts cover the generic ISO-8601 shapes attempted after
// the candidate list fails, with any trailing 'Z' stripped first.
var isoFallbackLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05-07:00",
}

// ParseTimestamp parses a raw timestamp value against the candidate
// format list. The boolean is false when no format matches.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	stripped := strings.TrimSuffix(s, "Z")
	for _, layout := range isoFallbackLayouts {
		if t, err := time.Parse(layout, stripped); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ValidateCatalogRow checks one departments/jobs row. Rules in order:
// id present, name non-empty after trim, id parses as an integer.
// A nil reject means the row was accepted.
func ValidateCatalogRow(row RawCatalogRow) (CatalogEntry, *RejectedRecord) {
	if row.ID == "" {
		return CatalogEntry{}, &RejectedRecord{Fields: row.Fields, Reason: "missing id"}
	}

	name := strings.TrimSpace(row.Name)
	if name == "" {
		return CatalogEntry{}, &RejectedRecord{Fields: row.Fields, Reason: "missing name"}
	}

	id, err := strconv.ParseInt(strings.TrimSpace(row.ID), 10, 64)
	if err != nil {
		return CatalogEntry{}, &RejectedRecord{Fields: row.Fields, Reason: "id not integer"}
	}

	return CatalogEntry{ID: id, Name: name}, nil
}

// ValidateEmployeeRow checks one employee row against local rules and the
// catalog snapshot. Rules in order: required fields and alias groups
// present (reason lists every missing logical field, comma-joined),
// integer parses, timestamp parse, department membership, job membership.
func ValidateEmployeeRow(row RawEmployeeRow, cat *Catalog) (Employee, *RejectedRecord) {
	var missing []string
	if row.ID == "" {
		missing = append(missing, "id")
	}
	if row.Name == "" {
		missing = append(missing, "name")
	}
	if row.JobID == "" {
		missing = append(missing, "job_id")
	}
	if row.Department == "" {
		missing = append(missing, "department")
	}
	if row.Datetime == "" {
		missing = append(missing, "datetime")
	}
	if len(missing) > 0 {
		return Employee{}, &RejectedRecord{
			Fields: row.Fields,
			Reason: "missing fields: " + strings.Join(missing, ","),
		}
	}

	id, errID := strconv.ParseInt(strings.TrimSpace(row.ID), 10, 64)
	jobID, errJob := strconv.ParseInt(strings.TrimSpace(row.JobID), 10, 64)
	depID, errDep := strconv.ParseInt(strings.TrimSpace(row.Department), 10, 64)
	if errID != nil || errJob != nil || errDep != nil {
		return Employee{}, &RejectedRecord{Fields: row.Fields, Reason: "id/department/job_id not integer"}
	}

	hiredAt, ok := ParseTimestamp(row.Datetime)
	if !ok {
		return Employee{}, &RejectedRecord{Fields: row.Fields, Reason: "invalid datetime"}
	}

	if !cat.HasDepartment(depID) {
		return Employee{}, &RejectedRecord{
			Fields: row.Fields,
			Reason: fmt.Sprintf("department %d not in catalog", depID),
		}
	}
	if !cat.HasJob(jobID) {
		return Employee{}, &RejectedRecord{
			Fields: row.Fields,
			Reason: fmt.Sprintf("job_id %d not in catalog", jobID),
		}
	}

	return Employee{
		ID:           id,
		Name:         strings.TrimSpace(row.Name),
		HiredAt:      hiredAt,
		DepartmentID: depID,
		JobID:        jobID,
	}, nil
}

// PartitionCatalogRows validates every row and splits the input into
// accepted and rejected lists. Callers decide whether a non-empty
// rejected list is fatal (online path) or routed to the reject sink
// (file path).
func PartitionCatalogRows(recs []RawRecord) ([]CatalogEntry, []RejectedRecord) {
	var accepted []CatalogEntry
	var rejected []RejectedRecord
	for _, rec := range recs {
		entry, rej := ValidateCatalogRow(TagCatalogRow(rec))
		if rej != nil {
			rejected = append(rejected, *rej)
			continue
		}
		accepted = append(accepted, entry)
	}
	return accepted, rejected
}

// PartitionEmployeeRows validates every row against the catalog snapshot
// and splits the input into accepted and rejected lists.
func PartitionEmployeeRows(recs []RawRecord, cat *Catalog) ([]Employee, []RejectedRecord) {
	var accepted []Employee
	var rejected []RejectedRecord
	for _, rec := range recs {
		emp, rej := ValidateEmployeeRow(TagEmployeeRow(rec), cat)
		if rej != nil {
			rejected = append(rejected, *rej)
			continue
		}
		accepted = append(accepted, emp)
	}
	return accepted, rejected
}
