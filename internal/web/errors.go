package web

// errors.go provides unified error response handling for the web layer.
// Fatal run errors surface as a generic server error carrying the
// underlying message; client mistakes (bad parameters, unknown tables,
// invalid online rows) surface as 400s.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hiredata/ingestd/internal/backup"
	"github.com/hiredata/ingestd/internal/ingest"
	"github.com/hiredata/ingestd/internal/logging"
)

// writeJSON encodes v as JSON and writes it to w with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers already sent; nothing to do but log
		slog.Error("json encode error", "error", err)
	}
}

// writeError writes a JSON error response with the given message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// respondError logs err and maps it to an HTTP response.
//
// The online path's InvalidRowsError becomes a 400 carrying every
// rejected row under "invalid_rows"; known client errors become plain
// 400s; everything else is a 500 with the underlying message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.FromContext(r.Context())

	var invalid *ingest.InvalidRowsError
	switch {
	case errors.As(err, &invalid):
		logger.Info("online ingest rejected", "invalid_rows", len(invalid.Rows))
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"invalid_rows": rejectedRows(invalid.Rows),
		})

	case errors.Is(err, ingest.ErrUnknownTable),
		errors.Is(err, ingest.ErrRowCount),
		errors.Is(err, backup.ErrUnknownTable):
		logger.Info("bad request", "path", r.URL.Path, "error", err.Error())
		writeError(w, http.StatusBadRequest, err.Error())

	default:
		logger.Error("request failed",
			"path", r.URL.Path,
			"method", r.Method,
			"error", err.Error(),
		)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// rejectedRows serializes rejects as their original fields plus the
// reason under "_reason".
func rejectedRows(rejects []ingest.RejectedRecord) []map[string]string {
	out := make([]map[string]string, 0, len(rejects))
	for _, rej := range rejects {
		row := make(map[string]string, len(rej.Fields)+1)
		for k, v := range rej.Fields {
			row[k] = v
		}
		row["_reason"] = rej.Reason
		out = append(out, row)
	}
	return out
}
