package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"presence.monitor/internal/config"
	"presence.monitor/internal/core"
	"presence.monitor/internal/core/model"
	"presence.monitor/pkg/clock"
)

var now = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// kioskStub answers like a kiosk that flips state on every toggle.
type kioskStub struct {
	mu        sync.Mutex
	checkedIn bool
	fail      error
	toggles   int
}

func (k *kioskStub) update() model.AttendanceUpdate {
	hours := 2.0
	update := model.AttendanceUpdate{EmployeeName: "Ada Lovelace", IsCheckedIn: k.checkedIn, HoursToday: &hours}
	if k.checkedIn {
		at := now.Add(-time.Hour)
		update.CheckInAt = &at
	}
	return update
}

func (k *kioskStub) FetchStatus(ctx context.Context, endpoint config.Endpoint, employeeID int) (model.AttendanceUpdate, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.fail != nil {
		return model.AttendanceUpdate{}, k.fail
	}
	return k.update(), nil
}

func (k *kioskStub) Toggle(ctx context.Context, endpoint config.Endpoint, employeeID int, pin string) (model.AttendanceUpdate, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.toggles++
	if k.fail != nil {
		return model.AttendanceUpdate{}, k.fail
	}
	k.checkedIn = !k.checkedIn
	return k.update(), nil
}

func (k *kioskStub) toggleCount() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.toggles
}

type staticHistory struct{}

func (staticHistory) Record(context.Context, model.HistoryEntry) error { return nil }

func (staticHistory) Recent(ctx context.Context, employeeID int, limit int) ([]model.HistoryEntry, error) {
	return []model.HistoryEntry{{ID: "h-1", EmployeeID: employeeID, Source: "toggle", CheckedIn: true}}, nil
}

func newTestServer(t *testing.T, kiosk *kioskStub, opts core.Options) *httptest.Server {
	t.Helper()
	opts.Clock = clock.Fake(now)
	monitor := core.NewMonitor(kiosk, opts)
	t.Cleanup(monitor.Shutdown)
	monitor.Configure(config.Settings{
		KioskURL:   "https://acme.odoo.com/hr_attendance/tok",
		EmployeeID: 7,
		PIN:        "1234",
	})

	server := httptest.NewServer(NewRouter(monitor))
	t.Cleanup(server.Close)
	return server
}

func do(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	var decoded map[string]any
	json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestStatusAndCard(t *testing.T) {
	server := newTestServer(t, &kioskStub{checkedIn: true}, core.Options{})

	resp, status := do(t, http.MethodGet, server.URL+"/api/v1/status", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code = %d", resp.StatusCode)
	}
	if status["status"] != string(model.StatusCheckedIn) || status["elapsed"] != "03:00:00" {
		t.Errorf("status body = %v", status)
	}

	resp, card := do(t, http.MethodGet, server.URL+"/api/v1/card", "")
	if resp.StatusCode != http.StatusOK || card["employeeName"] != "Ada Lovelace" || card["timer"] != "03:00:00" {
		t.Errorf("card = %d %v", resp.StatusCode, card)
	}
}

func TestToggleCheckOutNeedsConfirmation(t *testing.T) {
	kiosk := &kioskStub{checkedIn: true}
	server := newTestServer(t, kiosk, core.Options{})

	resp, _ := do(t, http.MethodPost, server.URL+"/api/v1/toggle", `{"confirm":false}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("unconfirmed check-out: status code = %d, want 409", resp.StatusCode)
	}
	if kiosk.toggleCount() != 0 {
		t.Fatalf("toggle sent without confirmation")
	}

	resp, body := do(t, http.MethodPost, server.URL+"/api/v1/toggle", `{"confirm":true}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("confirmed check-out: status code = %d, want 200", resp.StatusCode)
	}
	if body["status"] != string(model.StatusCheckedOut) {
		t.Errorf("status after check-out = %v", body["status"])
	}
}

func TestToggleCheckInWithoutBody(t *testing.T) {
	server := newTestServer(t, &kioskStub{}, core.Options{})

	resp, body := do(t, http.MethodPost, server.URL+"/api/v1/toggle", "")
	if resp.StatusCode != http.StatusOK || body["status"] != string(model.StatusCheckedIn) {
		t.Errorf("check-in = %d %v", resp.StatusCode, body)
	}
}

func TestToggleThrottled(t *testing.T) {
	server := newTestServer(t, &kioskStub{}, core.Options{ToggleMinInterval: time.Minute})

	do(t, http.MethodPost, server.URL+"/api/v1/toggle", `{"confirm":true}`)
	resp, _ := do(t, http.MethodPost, server.URL+"/api/v1/toggle", `{"confirm":true}`)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status code = %d, want 429", resp.StatusCode)
	}
}

func TestRefreshNetworkFailure(t *testing.T) {
	kiosk := &kioskStub{}
	server := newTestServer(t, kiosk, core.Options{})
	kiosk.mu.Lock()
	kiosk.fail = &model.HTTPStatusError{Code: http.StatusServiceUnavailable}
	kiosk.mu.Unlock()

	resp, _ := do(t, http.MethodPost, server.URL+"/api/v1/refresh", "")
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status code = %d, want 502", resp.StatusCode)
	}
	_, status := do(t, http.MethodGet, server.URL+"/api/v1/status", "")
	if status["status"] != string(model.StatusError) {
		t.Errorf("status = %v, want ERROR", status["status"])
	}
}

func TestToggleNotConfigured(t *testing.T) {
	monitor := core.NewMonitor(&kioskStub{}, core.Options{Clock: clock.Fake(now)})
	t.Cleanup(monitor.Shutdown)
	server := httptest.NewServer(NewRouter(monitor))
	t.Cleanup(server.Close)

	resp, _ := do(t, http.MethodPost, server.URL+"/api/v1/toggle", `{}`)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status code = %d, want 503", resp.StatusCode)
	}
}

func TestToggleBeforeFirstSync(t *testing.T) {
	kiosk := &kioskStub{checkedIn: true, fail: model.ErrTransport}
	server := newTestServer(t, kiosk, core.Options{})

	resp, body := do(t, http.MethodPost, server.URL+"/api/v1/toggle", `{"confirm":true}`)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status code = %d, want 503 (%v)", resp.StatusCode, body)
	}
	if got := kiosk.toggleCount(); got != 0 {
		t.Errorf("got %d toggles before the first sync, want 0", got)
	}
}

func TestHistory(t *testing.T) {
	disabled := newTestServer(t, &kioskStub{}, core.Options{})
	if resp, _ := do(t, http.MethodGet, disabled.URL+"/api/v1/history", ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("disabled history: status code = %d, want 404", resp.StatusCode)
	}

	enabled := newTestServer(t, &kioskStub{}, core.Options{History: staticHistory{}})
	if resp, _ := do(t, http.MethodGet, enabled.URL+"/api/v1/history?limit=abc", ""); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad limit: status code = %d, want 400", resp.StatusCode)
	}

	resp, err := http.Get(enabled.URL + "/api/v1/history?limit=5")
	if err != nil {
		t.Fatalf("GET history: %v", err)
	}
	defer resp.Body.Close()
	var entries []model.HistoryEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decoding history: %v", err)
	}
	if len(entries) != 1 || entries[0].EmployeeID != 7 {
		t.Errorf("entries = %+v", entries)
	}
}

func TestHealth(t *testing.T) {
	server := newTestServer(t, &kioskStub{}, core.Options{})
	resp, err := http.Get(server.URL + "/api/v1/health")
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status code = %d", resp.StatusCode)
	}
}
