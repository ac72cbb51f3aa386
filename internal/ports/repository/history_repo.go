package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"presence.monitor/internal/core/model"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 500
)

var schema = []string{`CREATE TABLE IF NOT EXISTS attendance_history (
    id            UUID PRIMARY KEY,
    employee_id   INTEGER NOT NULL,
    employee_name TEXT NOT NULL,
    checked_in    BOOLEAN NOT NULL,
    hours_today   DOUBLE PRECISION NOT NULL,
    check_in_at   TIMESTAMPTZ,
    source        TEXT NOT NULL,
    recorded_at   TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS attendance_history_employee_recorded
    ON attendance_history (employee_id, recorded_at DESC)`,
}

// HistoryRepository is the concrete implementation for a PostgreSQL database.
type HistoryRepository struct {
	DB *sql.DB
}

// NewHistoryRepository create new instance
func NewHistoryRepository(db *sql.DB) Repository {
	return &HistoryRepository{DB: db}
}

// EnsureSchema creates the history table if it does not exist yet.
func (r *HistoryRepository) EnsureSchema(ctx context.Context) error {
	for _, statement := range schema {
		if _, err := r.DB.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("failed to create attendance_history: %w", err)
		}
	}
	return nil
}

// Record inserts one transition. Re-recording the same id is a no-op.
func (r *HistoryRepository) Record(ctx context.Context, entry model.HistoryEntry) error {
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("app.employeeId", entry.EmployeeID))

	query := `INSERT INTO attendance_history (id, employee_id, employee_name, checked_in, hours_today, check_in_at, source, recorded_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
              ON CONFLICT (id) DO NOTHING`

	var checkInAt sql.NullTime
	if entry.CheckInAt != nil {
		checkInAt = sql.NullTime{Time: *entry.CheckInAt, Valid: true}
	}

	_, err := r.DB.ExecContext(ctx, query,
		entry.ID, entry.EmployeeID, entry.EmployeeName, entry.CheckedIn, entry.HoursToday, checkInAt, entry.Source, entry.RecordedAt)
	if err != nil {
		return fmt.Errorf("failed to insert attendance history: %w", err)
	}
	return nil
}

// Recent returns the newest transitions of an employee, newest first.
func (r *HistoryRepository) Recent(ctx context.Context, employeeID int, limit int) ([]model.HistoryEntry, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("app.employeeId", employeeID))

	query := `SELECT id, employee_id, employee_name, checked_in, hours_today, check_in_at, source, recorded_at
              FROM attendance_history
              WHERE employee_id = $1
              ORDER BY recorded_at DESC
              LIMIT $2`

	rows, err := r.DB.QueryContext(ctx, query, employeeID, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance history: %w", err)
	}
	defer rows.Close()

	entries := []model.HistoryEntry{}
	for rows.Next() {
		var entry model.HistoryEntry
		var checkInAt sql.NullTime
		if err := rows.Scan(&entry.ID, &entry.EmployeeID, &entry.EmployeeName, &entry.CheckedIn,
			&entry.HoursToday, &checkInAt, &entry.Source, &entry.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attendance history: %w", err)
		}
		if checkInAt.Valid {
			at := checkInAt.Time.UTC()
			entry.CheckInAt = &at
		}
		entry.RecordedAt = entry.RecordedAt.UTC()
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// ClampLimit maps a requested page size into [1, 500], defaulting to 20.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultRecentLimit
	case limit > maxRecentLimit:
		return maxRecentLimit
	default:
		return limit
	}
}
