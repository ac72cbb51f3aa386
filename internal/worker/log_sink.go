package worker

import (
	"context"

	"github.com/rs/zerolog/log"

	"presence.monitor/internal/core/model"
)

// LogNotifier writes notifications to the structured log. It is the
// daemon's stand-in for a desktop notification.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, n model.Notification) error {
	log.Ctx(ctx).Info().
		Str("kind", string(n.Kind)).
		Str("title", n.Title).
		Str("body", n.Body).
		Str("effort", string(n.Effort)).
		Msg("Attendance notification")
	return nil
}
