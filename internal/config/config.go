// Package config provides centralized configuration management for the service.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	S3       S3Config
	Ingest   IngestConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing a response.
	// Ingestion of the large fact file can run for minutes, so the default is generous.
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests, sized for the
	// large-file ingestion path (default: 30m)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30m"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// S3Config holds object store settings for source files and artifacts.
type S3Config struct {
	// Bucket is the S3 bucket holding source files and artifacts (required)
	Bucket string `env:"S3_BUCKET" required:"true"`

	// Region is the AWS region for the bucket (default: us-east-1)
	Region string `env:"AWS_REGION" default:"us-east-1"`

	// Endpoint overrides the S3 endpoint, for MinIO/localstack setups
	Endpoint string `env:"S3_ENDPOINT"`

	// RawPrefix is the key prefix for source CSV files (default: raw/)
	RawPrefix string `env:"S3_PREFIX" default:"raw/"`

	// BackupPrefix is the key prefix for backups and reject artifacts (default: backup/)
	BackupPrefix string `env:"BACKUP_PREFIX" default:"backup/"`
}

// IngestConfig holds ingestion pipeline settings.
type IngestConfig struct {
	// BatchSize is the number of rows committed per transaction (default: 1000)
	BatchSize int `env:"BATCH_SIZE" default:"1000"`

	// ProgressEvery is how many rows to read between progress log lines (default: 10000)
	ProgressEvery int `env:"PROGRESS_EVERY" default:"10000"`

	// DepartmentsFile is the source file name for the departments catalog
	DepartmentsFile string `env:"DEPARTMENTS_FILE" default:"departments.csv"`

	// JobsFile is the source file name for the jobs catalog
	JobsFile string `env:"JOBS_FILE" default:"jobs.csv"`

	// EmployeesFile is the source file name for the hired-employees fact table
	EmployeesFile string `env:"EMPLOYEES_FILE" default:"hired_employees.csv"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + itoa(c.Port)
	}
	return c.Host + ":" + itoa(c.Port)
}

// itoa converts an int to string without importing strconv in this file.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}
