package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/XSAM/otelsql"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"

	"presence.monitor/internal/config"
)

// NewInstrumentedConnection creates a database connection with OpenTelemetry instrumentation.
func NewInstrumentedConnection(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	// otelsql.Open wraps the driver to intercept queries and create spans
	db, err := otelsql.Open("pgx", DSN(cfg),
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithSQLCommenter(true),
	)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	return verify(ctx, db)
}

// Open picks the instrumented pool when tracing is exported.
func Open(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if cfg.TraceExporter != "" && cfg.TraceExporter != "none" {
		return NewInstrumentedConnection(ctx, cfg)
	}
	return NewConnection(ctx, cfg)
}
