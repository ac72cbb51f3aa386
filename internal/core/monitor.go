package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"presence.monitor/internal/config"
	"presence.monitor/internal/core/model"
	"presence.monitor/internal/ports"
	"presence.monitor/pkg/clock"
)

var (
	ErrNotConfigured   = errors.New("attendance monitor is not configured")
	ErrNotSynced       = errors.New("attendance state not yet confirmed by the server")
	ErrThrottled       = errors.New("toggle requested too soon after the previous one")
	ErrShutdown        = errors.New("attendance monitor is shut down")
	ErrHistoryDisabled = errors.New("attendance history is disabled")
)

// CheckOutPrompt is the question put to the Confirmer before a check-out.
const CheckOutPrompt = "Do you want to check out?"

// Outcome describes what a primary action ended up doing.
type Outcome string

const (
	OutcomeToggled   Outcome = "TOGGLED"
	OutcomeCancelled Outcome = "CANCELLED"
)

const historyTimeout = 5 * time.Second

// Options holds the optional collaborators of a Monitor.
type Options struct {
	Clock             clock.Clock
	Notifier          ports.Notifier
	Display           ports.DisplaySink
	History           ports.HistoryStore
	ToggleMinInterval time.Duration
}

// Monitor is the attendance state machine. It keeps the last record the
// server confirmed, derives the display from it, drives the live timer
// from check-in/check-out transitions and gates check-out behind a
// confirmation.
//
// The record changes only through applyLocked, and only for responses
// that belong to the current configuration and are newer than the last
// applied one.
type Monitor struct {
	api       ports.AttendanceAPI
	clock     clock.Clock
	scheduler *Scheduler
	notifier  ports.Notifier
	display   ports.DisplaySink
	history   ports.HistoryStore
	limiter   *rate.Limiter

	lifetime context.Context
	cancel   context.CancelFunc

	mu         sync.Mutex
	settings   config.Settings
	endpoint   config.Endpoint
	generation uint64
	lastSeq    uint64
	appliedSeq uint64
	record     model.AttendanceRecord
	synced     bool
	status     model.Status
	lastErr    error
	destroyed  bool
}

// ticket identifies one request: the configuration it was issued under
// and its position in issue order.
type ticket struct {
	generation uint64
	seq        uint64
}

// NewMonitor creates a monitor in the Loading state. Nothing runs until
// Configure is called.
func NewMonitor(api ports.AttendanceAPI, opts Options) *Monitor {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	limit := rate.Inf
	if opts.ToggleMinInterval > 0 {
		limit = rate.Every(opts.ToggleMinInterval)
	}

	lifetime, cancel := context.WithCancel(context.Background())
	return &Monitor{
		api:       api,
		clock:     opts.Clock,
		scheduler: NewScheduler(opts.Clock),
		notifier:  opts.Notifier,
		display:   opts.Display,
		history:   opts.History,
		limiter:   rate.NewLimiter(limit, 1),
		lifetime:  lifetime,
		cancel:    cancel,
		status:    model.StatusLoading,
	}
}

// Configure applies new settings. The endpoint is re-derived from the
// kiosk URL and swapped as a whole; responses to requests issued under
// the old settings are dropped. The poll timer is recreated and an
// immediate status query follows. A malformed URL halts networking and
// leaves the monitor in the Error state until the next Configure.
func (m *Monitor) Configure(settings config.Settings) error {
	endpoint, resolveErr := config.ResolveKioskURL(settings.KioskURL)

	m.mu.Lock()
	if m.destroyed {
		m.mu.Unlock()
		return ErrShutdown
	}
	if endpoint != m.endpoint || settings.EmployeeID != m.settings.EmployeeID {
		// The known record belongs to another kiosk or employee.
		m.synced = false
	}
	m.settings = settings
	m.generation++
	m.scheduler.StopPoll()

	if resolveErr != nil {
		m.endpoint = config.Endpoint{}
		m.status = model.StatusError
		m.lastErr = resolveErr
		m.mu.Unlock()
		log.Error().Err(resolveErr).Msg("Kiosk URL rejected; polling halted")
		m.publish()
		return resolveErr
	}

	m.endpoint = endpoint
	if settings.PollInterval > 0 {
		m.scheduler.StartPoll(settings.PollInterval, m.poll)
	}
	m.mu.Unlock()

	log.Info().
		Str("base_url", endpoint.BaseURL).
		Int("employee_id", settings.EmployeeID).
		Dur("poll_interval", settings.PollInterval).
		Msg("Attendance monitor configured")

	if err := m.Refresh(m.lifetime); err != nil {
		log.Warn().Err(err).Msg("Initial status query failed")
	}
	return nil
}

// Refresh queries the server and applies the answer. Failures move the
// display to Error but keep the known record.
func (m *Monitor) Refresh(ctx context.Context) error {
	ctx, release := m.bind(ctx)
	defer release()

	m.mu.Lock()
	if err := m.readyLocked(); err != nil {
		m.mu.Unlock()
		return err
	}
	t := m.ticketLocked()
	endpoint, employeeID := m.endpoint, m.settings.EmployeeID
	m.mu.Unlock()

	update, err := m.api.FetchStatus(ctx, endpoint, employeeID)

	m.mu.Lock()
	if err != nil {
		m.failLocked(t, err)
		m.mu.Unlock()
		m.publish()
		return err
	}
	applied, flipped := m.applyLocked(t, update)
	record := m.record
	m.mu.Unlock()

	if applied {
		m.publish()
		if flipped {
			m.recordHistory(record, "poll")
		}
	}
	return nil
}

// PrimaryAction toggles the attendance. From checked-in the confirmer is
// asked first and a refusal ends the action without any network call;
// from checked-out the toggle is sent immediately. Every toggle is
// followed by exactly one status query. Until a status query has
// succeeded the direction of the toggle is unknown, so the action is
// refused with ErrNotSynced.
func (m *Monitor) PrimaryAction(ctx context.Context, confirmer ports.Confirmer) (Outcome, error) {
	m.mu.Lock()
	if err := m.readyLocked(); err != nil {
		m.mu.Unlock()
		return "", err
	}
	if m.settings.EmployeeID == 0 {
		m.mu.Unlock()
		return "", ErrNotConfigured
	}
	if !m.synced {
		m.mu.Unlock()
		return "", ErrNotSynced
	}
	checkedIn := m.record.IsCheckedIn
	m.mu.Unlock()

	if !m.limiter.AllowN(m.clock.Now(), 1) {
		return "", ErrThrottled
	}

	if checkedIn && (confirmer == nil || !confirmer.Confirm(ctx, CheckOutPrompt)) {
		log.Info().Msg("Check-out cancelled")
		return OutcomeCancelled, nil
	}

	return OutcomeToggled, m.toggle(ctx)
}

func (m *Monitor) toggle(ctx context.Context) error {
	callCtx, release := m.bind(ctx)
	defer release()

	m.mu.Lock()
	if m.destroyed {
		m.mu.Unlock()
		return ErrShutdown
	}
	t := m.ticketLocked()
	endpoint, employeeID, pin := m.endpoint, m.settings.EmployeeID, m.settings.PIN
	m.status = model.StatusLoading
	m.mu.Unlock()
	m.publish()

	update, err := m.api.Toggle(callCtx, endpoint, employeeID, pin)

	m.mu.Lock()
	applied := false
	if err != nil {
		m.failLocked(t, err)
	} else {
		applied, _ = m.applyLocked(t, update)
	}
	record := m.record
	m.mu.Unlock()
	m.publish()

	if err != nil {
		log.Warn().Err(err).Int("employee_id", employeeID).Msg("Toggle failed")
	} else if applied {
		m.announce(callCtx, record)
		m.recordHistory(record, "toggle")
	}

	// The toggle answer is provisional; the status query is authoritative.
	if refreshErr := m.Refresh(m.lifetime); refreshErr != nil && !errors.Is(refreshErr, ErrShutdown) {
		log.Warn().Err(refreshErr).Msg("Reconciling status after toggle failed")
	}
	return err
}

// Display returns the current projection of the record.
func (m *Monitor) Display() model.DisplayState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return model.Project(m.record, m.status, m.clock.Now())
}

// Card returns the info surface. It never changes state.
func (m *Monitor) Card() model.Card {
	m.mu.Lock()
	defer m.mu.Unlock()

	card := model.Card{
		EmployeeName: m.record.EmployeeName,
		Timer:        "--:--:--",
		LastAction:   "Waiting for connection...",
		Status:       m.status,
	}
	if !m.synced {
		if card.EmployeeName == "" {
			card.EmployeeName = "Loading..."
		}
		return card
	}

	card.Timer = model.FormatHours(model.ElapsedHours(m.record, m.clock.Now()))
	if m.record.IsCheckedIn {
		card.LastAction = "Check-in: " + clockTime(m.record.LastCheckInAt)
	} else {
		card.LastAction = "Check-out registered"
	}
	return card
}

// Record returns a copy of the last confirmed record.
func (m *Monitor) Record() model.AttendanceRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record
}

// LastError returns the failure behind the current Error state, if any.
func (m *Monitor) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// History returns the most recent persisted transitions.
func (m *Monitor) History(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	if m.history == nil {
		return nil, ErrHistoryDisabled
	}
	m.mu.Lock()
	employeeID := m.settings.EmployeeID
	m.mu.Unlock()
	return m.history.Recent(ctx, employeeID, limit)
}

// Shutdown stops both timers and cancels in-flight requests. Responses
// that still arrive afterwards are discarded.
func (m *Monitor) Shutdown() {
	m.mu.Lock()
	if m.destroyed {
		m.mu.Unlock()
		return
	}
	m.destroyed = true
	m.generation++
	m.mu.Unlock()

	m.scheduler.Stop()
	m.cancel()
	log.Info().Msg("Attendance monitor stopped")
}

func (m *Monitor) poll() {
	if err := m.Refresh(m.lifetime); err != nil && !errors.Is(err, ErrShutdown) {
		log.Warn().Err(err).Msg("Status poll failed")
	}
}

func (m *Monitor) liveTick() {
	m.publish()
}

func (m *Monitor) readyLocked() error {
	if m.destroyed {
		return ErrShutdown
	}
	if !m.endpoint.Valid() {
		return ErrNotConfigured
	}
	return nil
}

func (m *Monitor) ticketLocked() ticket {
	m.lastSeq++
	return ticket{generation: m.generation, seq: m.lastSeq}
}

func (m *Monitor) currentLocked(t ticket) bool {
	return !m.destroyed && t.generation == m.generation && t.seq > m.appliedSeq
}

// applyLocked folds a response into the record. It reports whether the
// response was applied and whether it changed the checked-in flag of an
// already synced record.
func (m *Monitor) applyLocked(t ticket, update model.AttendanceUpdate) (applied bool, flipped bool) {
	if !m.currentLocked(t) {
		log.Debug().Uint64("seq", t.seq).Msg("Discarding stale attendance response")
		return false, false
	}
	m.appliedSeq = t.seq

	wasSynced, wasCheckedIn := m.synced, m.record.IsCheckedIn
	m.record = m.record.Apply(update)
	m.synced = true
	m.status = model.StatusFor(m.record)
	m.lastErr = nil

	if m.record.IsCheckedIn {
		m.scheduler.StartLive(m.liveTick)
	} else {
		m.scheduler.StopLive()
	}

	if wasCheckedIn != m.record.IsCheckedIn || !wasSynced {
		log.Info().Str("status", string(m.status)).Float64("hours_today", m.record.HoursToday).Msg("Attendance state updated")
	}
	return true, wasSynced && wasCheckedIn != m.record.IsCheckedIn
}

func (m *Monitor) failLocked(t ticket, err error) {
	if !m.currentLocked(t) {
		return
	}
	m.status = model.StatusError
	m.lastErr = err
}

func (m *Monitor) publish() {
	if m.display == nil {
		return
	}
	m.mu.Lock()
	if m.destroyed {
		m.mu.Unlock()
		return
	}
	state := model.Project(m.record, m.status, m.clock.Now())
	m.mu.Unlock()
	m.display.Render(state)
}

func (m *Monitor) announce(ctx context.Context, record model.AttendanceRecord) {
	if m.notifier == nil {
		return
	}
	n := ComposeNotification(record, record.IsCheckedIn, m.clock.Now())
	m.mu.Lock()
	n.EmployeeID = m.settings.EmployeeID
	m.mu.Unlock()
	if err := m.notifier.Notify(ctx, n); err != nil {
		log.Warn().Err(err).Str("kind", string(n.Kind)).Msg("Notification not delivered")
	}
}

func (m *Monitor) recordHistory(record model.AttendanceRecord, source string) {
	if m.history == nil {
		return
	}
	m.mu.Lock()
	employeeID := m.settings.EmployeeID
	m.mu.Unlock()

	entry := model.HistoryEntry{
		ID:           uuid.NewString(),
		EmployeeID:   employeeID,
		EmployeeName: record.EmployeeName,
		CheckedIn:    record.IsCheckedIn,
		HoursToday:   record.HoursToday,
		CheckInAt:    record.LastCheckInAt,
		Source:       source,
		RecordedAt:   m.clock.Now().UTC(),
	}
	ctx, cancel := context.WithTimeout(m.lifetime, historyTimeout)
	defer cancel()
	if err := m.history.Record(ctx, entry); err != nil {
		log.Warn().Err(err).Str("source", source).Msg("Failed to record attendance history")
	}
}

// bind derives a context that is also cancelled by Shutdown.
func (m *Monitor) bind(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(m.lifetime, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func clockTime(at *time.Time) string {
	if at == nil {
		return "--:--"
	}
	return at.Local().Format("15:04")
}
