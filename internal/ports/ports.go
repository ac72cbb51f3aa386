package ports

import (
	"context"

	"presence.monitor/internal/config"
	"presence.monitor/internal/core/model"
)

// AttendanceAPI is the outbound port to the kiosk JSON-RPC endpoints.
// Both calls return a normalized update; they never touch local state.
type AttendanceAPI interface {
	FetchStatus(ctx context.Context, endpoint config.Endpoint, employeeID int) (model.AttendanceUpdate, error)
	Toggle(ctx context.Context, endpoint config.Endpoint, employeeID int, pin string) (model.AttendanceUpdate, error)
}

// Notifier receives composed notifications. Delivery is fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, n model.Notification) error
}

// DisplaySink consumes the derived display on every tick and transition.
type DisplaySink interface {
	Render(state model.DisplayState)
}

// Confirmer asks the user to approve a check-out.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

// HistoryStore persists attendance transitions.
type HistoryStore interface {
	Record(ctx context.Context, entry model.HistoryEntry) error
	Recent(ctx context.Context, employeeID int, limit int) ([]model.HistoryEntry, error)
}
