package database

import (
	"context"
	"fmt"
)

// schemaStatements creates the app schema and every table the service owns.
// All statements are idempotent so startup is safe against an already
// provisioned database.
var schemaStatements = []string{
	`CREATE SCHEMA IF NOT EXISTS app`,

	`CREATE TABLE IF NOT EXISTS app.departments (
		id   BIGINT PRIMARY KEY,
		name TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS app.jobs (
		id   BIGINT PRIMARY KEY,
		name TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS app.employees (
		id            BIGINT PRIMARY KEY,
		name          TEXT NOT NULL,
		dt            TIMESTAMP,
		department_id BIGINT,
		job_id        BIGINT
	)`,

	`CREATE TABLE IF NOT EXISTS app.ingest_audit (
		id           BIGSERIAL PRIMARY KEY,
		file_name    TEXT NOT NULL,
		table_target TEXT NOT NULL,
		total_read   BIGINT NOT NULL,
		valid_rows   BIGINT NOT NULL,
		invalid_rows BIGINT NOT NULL,
		batch_size   INT NOT NULL,
		error_s3_key TEXT,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// EnsureSchema creates the application schema and tables if they do not
// already exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensuring schema: %w", err)
		}
	}
	return nil
}
