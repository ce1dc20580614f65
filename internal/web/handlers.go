package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hiredata/ingestd/internal/ingest"
)

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleDBPing verifies database connectivity.
func (s *Server) handleDBPing(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusOK, map[string]string{"db": "error", "detail": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"db": "ok"})
}

// handleS3Ping lists a few keys under the raw and backup prefixes to
// verify object-store permissions.
func (s *Server) handleS3Ping(w http.ResponseWriter, r *http.Request) {
	result := make(map[string]any, 2)
	for _, prefix := range []string{s.cfg.S3.RawPrefix, s.cfg.S3.BackupPrefix} {
		keys, err := s.store.List(r.Context(), prefix, 5)
		if err != nil {
			result[prefix] = fmt.Sprintf("ERROR: %v", err)
			continue
		}
		result[prefix] = keys
	}
	writeJSON(w, http.StatusOK, result)
}

// handleIngestDepartments runs the departments catalog ingestion.
func (s *Server) handleIngestDepartments(w http.ResponseWriter, r *http.Request) {
	summary, err := s.ingest.IngestDepartments(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleIngestJobs runs the jobs catalog ingestion.
func (s *Server) handleIngestJobs(w http.ResponseWriter, r *http.Request) {
	summary, err := s.ingest.IngestJobs(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleIngestEmployees runs the streaming employee ingestion. Optional
// query parameters: limit (stop after N rows read), batch_size,
// progress_every.
func (s *Server) handleIngestEmployees(w http.ResponseWriter, r *http.Request) {
	var opts ingest.EmployeeOptions
	var err error

	if opts.Limit, err = queryInt(r, "limit", 1, 0); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if opts.BatchSize, err = queryInt(r, "batch_size", 1, 50000); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if opts.ProgressEvery, err = queryInt(r, "progress_every", 1, 0); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := s.ingest.IngestEmployees(r.Context(), opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// onlinePayload is the request body of the online ingestion endpoint.
type onlinePayload struct {
	Table string           `json:"table"`
	Rows  []map[string]any `json:"rows"`
}

// handleOnlineIngest validates caller-supplied rows and commits them
// atomically: one invalid row fails the whole request with every reject
// listed, and nothing committed.
func (s *Server) handleOnlineIngest(w http.ResponseWriter, r *http.Request) {
	var payload onlinePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	rows := make([]ingest.RawRecord, 0, len(payload.Rows))
	for _, row := range payload.Rows {
		rows = append(rows, ingest.NormalizeRecord(row))
	}

	result, err := s.ingest.OnlineIngest(r.Context(), payload.Table, rows)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleHiresByQuarter reports hires per quarter for a year.
func (s *Server) handleHiresByQuarter(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := s.reports.HiresByQuarter(r.Context(), year)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"year": year, "rows": rows})
}

// handleTopDepartments reports departments hiring above the yearly average.
func (s *Server) handleTopDepartments(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := s.reports.DepartmentsAboveAverage(r.Context(), year)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"year": year, "rows": rows})
}

// handleBackup dumps one table to the object store.
func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	result, err := s.backups.BackupTable(r.Context(), chi.URLParam(r, "table"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// restorePayload is the request body of the restore endpoint.
type restorePayload struct {
	Key       string `json:"key"`
	BatchSize int    `json:"batch_size"`
}

// handleRestore re-inserts a backup artifact into one table.
func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	var payload restorePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if payload.Key == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}

	result, err := s.backups.RestoreTable(r.Context(), chi.URLParam(r, "table"), payload.Key, payload.BatchSize)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// queryInt parses an optional integer query parameter. Zero is returned
// when the parameter is absent; values below min or above a non-zero max
// are rejected.
func queryInt(r *http.Request, name string, min, max int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	if n < min {
		return 0, fmt.Errorf("%s must be >= %d", name, min)
	}
	if max > 0 && n > max {
		return 0, fmt.Errorf("%s must be <= %d", name, max)
	}
	return n, nil
}

// yearParam parses the required year query parameter.
func yearParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return 0, fmt.Errorf("year is required")
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1900 || year > 2100 {
		return 0, fmt.Errorf("year must be an integer between 1900 and 2100")
	}
	return year, nil
}
