package worker

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"presence.monitor/internal/core/model"
	"presence.monitor/internal/ports"
	"presence.monitor/pkg/logger"
)

var (
	ErrQueueFull = errors.New("notification queue is full")
	ErrStopped   = errors.New("notification dispatcher is stopped")
)

const maxRetryDelay = 30 * time.Second

type sink struct {
	name     string
	notifier ports.Notifier
}

// Dispatcher fans notifications out to the registered sinks on a pool of
// goroutines. Notify only enqueues, so the attendance state machine never
// waits on a slow sink.
type Dispatcher struct {
	queue chan model.Notification
	sinks []sink

	// Concurrency controls how many notifications are delivered at the same time.
	Concurrency int
	// MaxAttempts bounds deliveries per sink, the first one included.
	MaxAttempts int
	// BaseDelay is the first retry delay; it doubles with each retry.
	BaseDelay time.Duration
	// Timeout bounds a single delivery attempt.
	Timeout time.Duration

	mu      sync.RWMutex
	started bool
	stopped bool
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher whose queue holds up to capacity
// pending notifications.
func NewDispatcher(capacity int) *Dispatcher {
	if capacity < 1 {
		capacity = 1
	}
	return &Dispatcher{
		queue:       make(chan model.Notification, capacity),
		Concurrency: 2,
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Timeout:     10 * time.Second,
	}
}

// Register adds a sink. Sinks must be registered before Start.
func (d *Dispatcher) Register(name string, notifier ports.Notifier) {
	d.sinks = append(d.sinks, sink{name: name, notifier: notifier})
}

// Start kicks off the worker pool. Workers run until Stop drains the queue.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.stopped {
		return
	}
	d.started = true

	log.Info().Int("concurrency", d.Concurrency).Int("sinks", len(d.sinks)).Msg("Notification dispatcher started")
	for i := 0; i < d.Concurrency; i++ {
		d.wg.Add(1)
		go d.processNotifications(ctx)
	}
}

// Notify enqueues n without blocking. A full queue drops it.
func (d *Dispatcher) Notify(ctx context.Context, n model.Notification) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return ErrStopped
	}

	select {
	case d.queue <- n:
		return nil
	default:
		log.Warn().Str("kind", string(n.Kind)).Msg("Notification queue full, dropping notification")
		return ErrQueueFull
	}
}

// Stop closes the queue and waits until the queued notifications have
// been delivered.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	log.Info().Msg("Notification dispatcher stopped")
}

func (d *Dispatcher) processNotifications(ctx context.Context) {
	defer d.wg.Done()
	for n := range d.queue {
		d.deliver(ctx, n)
	}
}

// deliver hands one notification to every sink. A failing sink is retried
// with exponential backoff and never blocks the other sinks' delivery.
func (d *Dispatcher) deliver(ctx context.Context, n model.Notification) {
	ctx, span := otel.Tracer("notification-dispatcher").Start(ctx, "dispatch_notification",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("app.notification.kind", string(n.Kind)),
			attribute.Int("app.employeeId", n.EmployeeID),
		),
	)
	defer span.End()
	ctx = logger.EnrichContextWithLogger(ctx)

	for _, s := range d.sinks {
		if err := d.deliverTo(ctx, s, n); err != nil {
			span.RecordError(err)
			log.Ctx(ctx).Error().Err(err).Str("sink", s.name).Msg("Giving up on notification delivery")
		}
	}
}

func (d *Dispatcher) deliverTo(ctx context.Context, s sink, n model.Notification) error {
	var err error
	for attempt := 1; ; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, d.Timeout)
		err = s.notifier.Notify(attemptCtx, n)
		cancel()
		if err == nil || attempt >= d.MaxAttempts {
			return err
		}

		delay := calculateBackoff(d.BaseDelay, attempt)
		log.Ctx(ctx).Warn().Err(err).Str("sink", s.name).Dur("retry_delay", delay).Msg("Delivery failed, will retry")
		select {
		case <-ctx.Done():
			return err
		case <-time.After(delay):
		}
	}
}

// calculateBackoff doubles the base delay with each retry, capped at 30s.
func calculateBackoff(base time.Duration, retryCount int) time.Duration {
	backoff := time.Duration(math.Pow(2, float64(retryCount-1))) * base
	if backoff > maxRetryDelay || backoff <= 0 {
		return maxRetryDelay
	}
	return backoff
}
