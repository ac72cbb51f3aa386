package kiosk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"presence.monitor/internal/config"
	"presence.monitor/internal/core/model"
)

const (
	statusEndpoint = "employees_infos"
	toggleEndpoint = "manual_selection"

	// Request ids the kiosk web client uses for these calls.
	statusRequestID = 3
	toggleRequestID = 6

	statusPageSize = 24

	// Responses are a handful of employee records; anything bigger is not
	// a kiosk response.
	maxResponseBytes = 1 << 20
)

// HTTPClient talks JSON-RPC to the Odoo attendance kiosk.
type HTTPClient struct {
	client *http.Client
	cb     *gobreaker.CircuitBreaker
}

// NewHTTPClient builds a client with a bounded timeout. All calls go
// through a circuit breaker so a dead server is not hammered by every
// poll tick and click.
func NewHTTPClient(timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return NewHTTPClientWith(&http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	})
}

// NewHTTPClientWith wraps an existing http.Client.
func NewHTTPClientWith(client *http.Client) *HTTPClient {
	settings := gobreaker.Settings{
		Name:        "Kiosk-API",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Trip if failure rate is 50% or more after at least 10 requests
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.5
		},
		IsSuccessful: func(err error) bool {
			// Only server reachability counts against the breaker.
			return err == nil || !model.IsNetworkError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
		},
	}
	return &HTTPClient{
		client: client,
		cb:     gobreaker.NewCircuitBreaker(settings),
	}
}

// FetchStatus queries employees_infos and returns the entry for employeeID.
func (c *HTTPClient) FetchStatus(ctx context.Context, endpoint config.Endpoint, employeeID int) (model.AttendanceUpdate, error) {
	params := statusParams{
		Token:  endpoint.Token,
		Limit:  statusPageSize,
		Offset: 0,
		Domain: []any{},
	}

	var result statusResult
	if err := c.call(ctx, endpoint, statusEndpoint, statusRequestID, employeeID, params, &result); err != nil {
		return model.AttendanceUpdate{}, err
	}
	if result.Records == nil {
		return model.AttendanceUpdate{}, fmt.Errorf("%w: result has no records", model.ErrMalformedResponse)
	}

	for _, raw := range result.Records {
		if raw.ID == employeeID {
			return normalize(raw), nil
		}
	}
	return model.AttendanceUpdate{}, fmt.Errorf("%w: employee %d", model.ErrRecordNotFound, employeeID)
}

// Toggle calls manual_selection, which flips the attendance of employeeID
// and returns the resulting record.
func (c *HTTPClient) Toggle(ctx context.Context, endpoint config.Endpoint, employeeID int, pin string) (model.AttendanceUpdate, error) {
	params := toggleParams{
		Token:      endpoint.Token,
		EmployeeID: employeeID,
		PinCode:    pin,
	}

	var result employeePayload
	if err := c.call(ctx, endpoint, toggleEndpoint, toggleRequestID, employeeID, params, &result); err != nil {
		return model.AttendanceUpdate{}, err
	}
	return normalize(result), nil
}

func (c *HTTPClient) call(ctx context.Context, endpoint config.Endpoint, method string, id int, employeeID int, params any, result any) error {
	tracer := otel.Tracer("kiosk-client")
	ctx, span := tracer.Start(ctx, "kiosk."+method, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.Int("app.employeeId", employeeID))

	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.post(ctx, endpoint.BaseURL+"/hr_attendance/"+method, id, params, result)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%w: %v", model.ErrTransport, err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (c *HTTPClient) post(ctx context.Context, url string, id int, params any, result any) error {
	payload, err := json.Marshal(rpcRequest{ID: id, JSONRPC: "2.0", Method: "call", Params: params})
	if err != nil {
		return fmt.Errorf("failed to marshal kiosk payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("%w: failed to create kiosk request: %v", model.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to call kiosk: %v", model.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return fmt.Errorf("kiosk %s: %w", url, &model.HTTPStatusError{Code: resp.StatusCode})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: failed to read kiosk response: %v", model.ErrTransport, err)
	}

	var envelope rpcResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("%w: %v", model.ErrMalformedResponse, err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("%w: %s", model.ErrRemoteFault, envelope.Error.describe())
	}
	if len(envelope.Result) == 0 || string(envelope.Result) == "null" {
		return fmt.Errorf("%w: missing result", model.ErrMalformedResponse)
	}
	if err := json.Unmarshal(envelope.Result, result); err != nil {
		return fmt.Errorf("%w: %v", model.ErrMalformedResponse, err)
	}
	return nil
}
