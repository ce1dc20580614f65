package ingest

// normalize.go turns raw delimited text into RawRecords. Field names are
// canonicalized (BOM stripped, trimmed, lowercased, spaces replaced with
// underscores) so downstream rules see a stable vocabulary regardless of
// how the export tool wrote its headers.

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// NormalizeFieldName canonicalizes a header or key name. It is idempotent:
// normalizing an already-normalized name returns it unchanged.
func NormalizeFieldName(name string) string {
	name = strings.ReplaceAll(name, "\ufeff", "")
	name = strings.TrimSpace(name)
	name = strings.ToLower(name)
	return strings.ReplaceAll(name, " ", "_")
}

// newCSVReader builds a csv.Reader with the tolerance the pipeline needs:
// ragged rows are handled positionally and sloppy quoting is accepted.
func newCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr
}

// ReadCatalogRows materializes a small catalog file into RawRecords.
//
// Header inference: if expected headers are supplied and the first row
// does not contain "id" plus every non-empty expected name, the whole
// file (row 0 included) is treated as data using the expected headers
// positionally. A first data value that happens to match an expected
// header name is misclassified as a header row; that is a known
// limitation of headerless-export detection.
//
// Row building is positional and tolerant: short rows yield empty strings
// for missing trailing fields, extra trailing values are dropped.
func ReadCatalogRows(r io.Reader, expected []string) ([]RawRecord, error) {
	rows, err := newCSVReader(newSanitizedReader(r)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = NormalizeFieldName(h)
	}

	dataRows := rows[1:]
	if len(expected) > 0 && !containsAll(headers, expected) {
		headers = expected
		dataRows = rows
	}

	out := make([]RawRecord, 0, len(dataRows))
	for _, row := range dataRows {
		rec := make(RawRecord, len(headers))
		for i, h := range headers {
			if i < len(row) {
				rec[h] = row[i]
			} else {
				rec[h] = ""
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

// containsAll reports whether headers holds "id" and every non-empty
// expected name.
func containsAll(headers, expected []string) bool {
	set := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		set[h] = struct{}{}
	}
	if _, ok := set["id"]; !ok {
		return false
	}
	for _, e := range expected {
		if e == "" {
			continue
		}
		if _, ok := set[e]; !ok {
			return false
		}
	}
	return true
}

// RowStream lazily produces RawRecords from a large delimited file, one
// row per call, to bound peak memory. The first row is always treated as
// the header row. Values are trimmed.
type RowStream struct {
	reader  *csv.Reader
	headers []string
	done    bool
}

// NewRowStream wraps r and reads its header row.
func NewRowStream(r io.Reader) (*RowStream, error) {
	cr := newCSVReader(newSanitizedReader(r))

	header, err := cr.Read()
	if err == io.EOF {
		return &RowStream{done: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	headers := make([]string, len(header))
	for i, h := range header {
		headers[i] = NormalizeFieldName(h)
	}
	return &RowStream{reader: cr, headers: headers}, nil
}

// Next returns the next RawRecord, or io.EOF at end of stream.
func (s *RowStream) Next() (RawRecord, error) {
	if s.done {
		return nil, io.EOF
	}

	row, err := s.reader.Read()
	if err == io.EOF {
		s.done = true
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("reading row: %w", err)
	}

	rec := make(RawRecord, len(s.headers))
	for i, h := range s.headers {
		if i < len(row) {
			rec[h] = strings.TrimSpace(row[i])
		} else {
			rec[h] = ""
		}
	}
	return rec, nil
}

// departmentAliases are the header names accepted for the department
// reference, in priority order. The last entry tolerates a truncated
// header observed in real exports.
var departmentAliases = []string{"department_id", "department", "departmer"}

// datetimeAliases are the header names accepted for the hire timestamp.
var datetimeAliases = []string{"datetime", "dt"}

// TagCatalogRow projects a RawRecord onto the catalog-table shape.
func TagCatalogRow(rec RawRecord) RawCatalogRow {
	return RawCatalogRow{
		ID:     rec["id"],
		Name:   rec["name"],
		Fields: rec,
	}
}

// TagEmployeeRow projects a RawRecord onto the employee shape, resolving
// the department and datetime alias groups.
func TagEmployeeRow(rec RawRecord) RawEmployeeRow {
	return RawEmployeeRow{
		ID:         rec["id"],
		Name:       rec["name"],
		JobID:      rec["job_id"],
		Department: firstNonEmpty(rec, departmentAliases),
		Datetime:   firstNonEmpty(rec, datetimeAliases),
		Fields:     rec,
	}
}

// firstNonEmpty returns the first non-empty value among the aliased keys.
func firstNonEmpty(rec RawRecord, keys []string) string {
	for _, k := range keys {
		if v := rec[k]; v != "" {
			return v
		}
	}
	return ""
}

// NormalizeRecord canonicalizes a caller-supplied row (the online path):
// field names are normalized and values coerced to strings the same way
// file-sourced values arrive.
func NormalizeRecord(row map[string]any) RawRecord {
	rec := make(RawRecord, len(row))
	for k, v := range row {
		rec[NormalizeFieldName(k)] = stringifyValue(v)
	}
	return rec
}

// stringifyValue renders a JSON-decoded value the way it would appear in
// a delimited file.
func stringifyValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
