package ingest

import (
	"io"
	"strings"
	"testing"
)

func TestNormalizeFieldName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "already normalized", input: "department_id", want: "department_id"},
		{name: "uppercase", input: "Department_ID", want: "department_id"},
		{name: "surrounding whitespace", input: "  name  ", want: "name"},
		{name: "internal spaces", input: "hire date", want: "hire_date"},
		{name: "byte order mark", input: "\ufeffid", want: "id"},
		{name: "mixed", input: "\ufeff Job ID ", want: "job_id"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeFieldName(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeFieldName(%q) = %q, want %q", tt.input, got, tt.want)
			}

			// Idempotence: normalizing the output must be a no-op
			if again := NormalizeFieldName(got); again != got {
				t.Errorf("NormalizeFieldName not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestReadCatalogRows_WithHeader(t *testing.T) {
	input := "id,name\n1,Engineering\n2,Sales\n"

	recs, err := ReadCatalogRows(strings.NewReader(input), []string{"id", "name"})
	if err != nil {
		t.Fatalf("ReadCatalogRows() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0]["id"] != "1" || recs[0]["name"] != "Engineering" {
		t.Errorf("first record = %v", recs[0])
	}
	if recs[1]["id"] != "2" || recs[1]["name"] != "Sales" {
		t.Errorf("second record = %v", recs[1])
	}
}

func TestReadCatalogRows_HeaderlessExport(t *testing.T) {
	// No header row: the first row must be treated as data using the
	// expected headers positionally.
	input := "1,Engineering\n2,Sales\n"

	recs, err := ReadCatalogRows(strings.NewReader(input), []string{"id", "name"})
	if err != nil {
		t.Fatalf("ReadCatalogRows() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0]["id"] != "1" || recs[0]["name"] != "Engineering" {
		t.Errorf("first record = %v", recs[0])
	}
}

func TestReadCatalogRows_RaggedRows(t *testing.T) {
	// Short rows pad with empty strings, long rows drop the extras.
	input := "id,name\n1\n2,Sales,unexpected\n"

	recs, err := ReadCatalogRows(strings.NewReader(input), []string{"id", "name"})
	if err != nil {
		t.Fatalf("ReadCatalogRows() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0]["id"] != "1" || recs[0]["name"] != "" {
		t.Errorf("short row = %v, want padded empty name", recs[0])
	}
	if recs[1]["name"] != "Sales" {
		t.Errorf("long row = %v, want extras dropped", recs[1])
	}
	if _, ok := recs[1]["unexpected"]; ok {
		t.Errorf("long row grew an extra field: %v", recs[1])
	}
}

func TestReadCatalogRows_BOMHeader(t *testing.T) {
	input := "\ufeffid,name\n1,Engineering\n"

	recs, err := ReadCatalogRows(strings.NewReader(input), []string{"id", "name"})
	if err != nil {
		t.Fatalf("ReadCatalogRows() error = %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	if recs[0]["id"] != "1" {
		t.Errorf("BOM not stripped from header: %v", recs[0])
	}
}

func TestReadCatalogRows_Empty(t *testing.T) {
	recs, err := ReadCatalogRows(strings.NewReader(""), []string{"id", "name"})
	if err != nil {
		t.Fatalf("ReadCatalogRows() error = %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("got %d records from empty input, want 0", len(recs))
	}
}

func TestRowStream(t *testing.T) {
	input := "id,name,datetime\n1, Alice ,2021-01-01\n2,Bob\n"

	stream, err := NewRowStream(strings.NewReader(input))
	if err != nil {
		t.Fatalf("NewRowStream() error = %v", err)
	}

	rec, err := stream.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if rec["name"] != "Alice" {
		t.Errorf("value not trimmed: %q", rec["name"])
	}

	rec, err = stream.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if rec["datetime"] != "" {
		t.Errorf("short row datetime = %q, want empty", rec["datetime"])
	}

	if _, err := stream.Next(); err != io.EOF {
		t.Errorf("Next() at end = %v, want io.EOF", err)
	}
	// EOF is sticky
	if _, err := stream.Next(); err != io.EOF {
		t.Errorf("Next() after end = %v, want io.EOF", err)
	}
}

func TestRowStream_EmptyFile(t *testing.T) {
	stream, err := NewRowStream(strings.NewReader(""))
	if err != nil {
		t.Fatalf("NewRowStream() error = %v", err)
	}
	if _, err := stream.Next(); err != io.EOF {
		t.Errorf("Next() on empty file = %v, want io.EOF", err)
	}
}

func TestTagEmployeeRow_Aliases(t *testing.T) {
	tests := []struct {
		name           string
		rec            RawRecord
		wantDepartment string
		wantDatetime   string
	}{
		{
			name:           "canonical headers",
			rec:            RawRecord{"department_id": "5", "datetime": "2021-01-01"},
			wantDepartment: "5",
			wantDatetime:   "2021-01-01",
		},
		{
			name:           "department alias",
			rec:            RawRecord{"department": "7", "dt": "2021-02-02"},
			wantDepartment: "7",
			wantDatetime:   "2021-02-02",
		},
		{
			name:           "truncated department header",
			rec:            RawRecord{"departmer": "9", "datetime": "2021-03-03"},
			wantDepartment: "9",
			wantDatetime:   "2021-03-03",
		},
		{
			name:           "canonical wins over alias",
			rec:            RawRecord{"department_id": "1", "department": "2", "datetime": "x"},
			wantDepartment: "1",
			wantDatetime:   "x",
		},
		{
			name:           "no alias present",
			rec:            RawRecord{"id": "1"},
			wantDepartment: "",
			wantDatetime:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := TagEmployeeRow(tt.rec)
			if row.Department != tt.wantDepartment {
				t.Errorf("Department = %q, want %q", row.Department, tt.wantDepartment)
			}
			if row.Datetime != tt.wantDatetime {
				t.Errorf("Datetime = %q, want %q", row.Datetime, tt.wantDatetime)
			}
		})
	}
}

func TestNormalizeRecord(t *testing.T) {
	rec := NormalizeRecord(map[string]any{
		"ID":            float64(4535),
		" Name ":        "Marcelo",
		"Department ID": float64(1.5),
		"active":        true,
		"note":          nil,
	})

	tests := []struct {
		key  string
		want string
	}{
		{key: "id", want: "4535"},
		{key: "name", want: "Marcelo"},
		{key: "department_id", want: "1.5"},
		{key: "active", want: "true"},
		{key: "note", want: ""},
	}

	for _, tt := range tests {
		if got := rec[tt.key]; got != tt.want {
			t.Errorf("rec[%q] = %q, want %q", tt.key, got, tt.want)
		}
	}
}
