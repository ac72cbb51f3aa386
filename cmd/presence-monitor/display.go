package main

import (
	"sync"

	"github.com/rs/zerolog/log"

	"presence.monitor/internal/core/model"
)

// logDisplay is the daemon's display sink. Status changes are logged at
// info, live ticks at debug.
type logDisplay struct {
	mu   sync.Mutex
	last model.Status
}

func (d *logDisplay) Render(state model.DisplayState) {
	d.mu.Lock()
	changed := state.Status != d.last
	d.last = state.Status
	d.mu.Unlock()

	event := log.Debug()
	if changed {
		event = log.Info()
	}
	event.Str("status", string(state.Status)).
		Str("employee", state.EmployeeName).
		Str("elapsed", state.Elapsed).
		Msg("Attendance display")
}
