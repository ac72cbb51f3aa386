package repository

import (
	"context"

	"presence.monitor/internal/ports"
)

// Repository contract
type Repository interface {
	ports.HistoryStore
	EnsureSchema(ctx context.Context) error
}
