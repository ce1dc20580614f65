package ingest

import (
	"context"
	"fmt"

	"github.com/hiredata/ingestd/internal/database"
)

// AuditEntry captures one ingestion run for the append-only audit log.
// total_read always equals valid_rows + invalid_rows.
type AuditEntry struct {
	FileName    string
	TableTarget string
	TotalRead   int
	ValidRows   int
	InvalidRows int
	BatchSize   int
	ErrorKey    string
}

const insertAuditSQL = `
	INSERT INTO app.ingest_audit
		(file_name, table_target, total_read, valid_rows, invalid_rows, batch_size, error_s3_key)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

// AuditRecorder appends audit entries to the durable log.
//
// Each entry commits in its own statement after batching completes. If
// the insert fails after ingestion has committed, the ingested rows stay
// committed with no audit row; the failure propagates rather than being
// hidden.
type AuditRecorder struct {
	db database.Store
}

// NewAuditRecorder creates a recorder writing through the given store.
func NewAuditRecorder(db database.Store) *AuditRecorder {
	return &AuditRecorder{db: db}
}

// Record appends one audit entry.
func (r *AuditRecorder) Record(ctx context.Context, e AuditEntry) error {
	_, err := r.db.Exec(ctx, insertAuditSQL,
		e.FileName, e.TableTarget, e.TotalRead, e.ValidRows, e.InvalidRows, e.BatchSize, e.ErrorKey)
	if err != nil {
		return fmt.Errorf("recording audit entry for %s: %w", e.FileName, err)
	}
	return nil
}
