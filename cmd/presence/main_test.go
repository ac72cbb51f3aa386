package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"presence.monitor/internal/core"
)

// fakeKiosk serves both kiosk endpoints for employee 7 and flips the
// attendance on every manual selection.
type fakeKiosk struct {
	mu        sync.Mutex
	checkedIn bool
	down      bool
	toggles   int
}

func (k *fakeKiosk) record() string {
	state := "checked_out"
	if k.checkedIn {
		state = "checked_in"
	}
	return fmt.Sprintf(`{"id":7,"employee_name":"Ada Lovelace","attendance_state":%q,"hours_today":5.5,"attendance":{"check_in":"2026-03-02 08:00:00"}}`, state)
}

func (k *fakeKiosk) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var envelope map[string]any
	json.NewDecoder(r.Body).Decode(&envelope)

	k.mu.Lock()
	defer k.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/hr_attendance/employees_infos":
		if k.down {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":3,"result":{"records":[%s]}}`, k.record())
	case "/hr_attendance/manual_selection":
		k.toggles++
		k.checkedIn = !k.checkedIn
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":6,"result":%s}`, k.record())
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (k *fakeKiosk) toggleCount() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.toggles
}

func setupKiosk(t *testing.T, checkedIn bool) *fakeKiosk {
	t.Helper()
	kiosk := &fakeKiosk{checkedIn: checkedIn}
	server := httptest.NewServer(kiosk)
	t.Cleanup(server.Close)

	t.Setenv("CONFIG_FILE", "")
	t.Setenv("KIOSK_URL", server.URL+"/en/hr_attendance/tok-123")
	t.Setenv("EMPLOYEE_ID", "7")
	t.Setenv("EMPLOYEE_PIN", "1234")
	return kiosk
}

func TestStatusCommand(t *testing.T) {
	setupKiosk(t, true)
	var out bytes.Buffer

	if err := run(nil, strings.NewReader(""), &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.HasPrefix(out.String(), "Ada Lovelace\tCHECKED_IN\t") {
		t.Errorf("output = %q", out.String())
	}
}

func TestStatusCommandJSON(t *testing.T) {
	setupKiosk(t, false)
	var out bytes.Buffer

	if err := run([]string{"--json", "status"}, strings.NewReader(""), &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	var state map[string]any
	if err := json.Unmarshal(out.Bytes(), &state); err != nil {
		t.Fatalf("decoding output %q: %v", out.String(), err)
	}
	if state["status"] != "CHECKED_OUT" || state["elapsed"] != "05:30:00" {
		t.Errorf("state = %v", state)
	}
}

func TestCardCommand(t *testing.T) {
	setupKiosk(t, false)
	var out bytes.Buffer

	if err := run([]string{"card"}, strings.NewReader(""), &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if want := "Ada Lovelace\n05:30:00\nCheck-out registered\n"; out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestToggleDeclined(t *testing.T) {
	kiosk := setupKiosk(t, true)
	var out bytes.Buffer

	if err := run([]string{"toggle"}, strings.NewReader("n\n"), &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "Do you want to check out? [y/N]") || !strings.Contains(out.String(), "Check-out cancelled.") {
		t.Errorf("output = %q", out.String())
	}
	if kiosk.toggleCount() != 0 {
		t.Errorf("toggle sent after declining")
	}
}

func TestToggleAssumeYes(t *testing.T) {
	kiosk := setupKiosk(t, true)
	var out bytes.Buffer

	if err := run([]string{"--yes", "toggle"}, strings.NewReader(""), &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if kiosk.toggleCount() != 1 {
		t.Fatalf("got %d toggles, want 1", kiosk.toggleCount())
	}
	if !strings.Contains(out.String(), "See you soon, Ada") || !strings.Contains(out.String(), "CHECKED_OUT") {
		t.Errorf("output = %q", out.String())
	}
}

func TestToggleRefusedWithoutStatus(t *testing.T) {
	kiosk := setupKiosk(t, true)
	kiosk.down = true
	var out bytes.Buffer

	err := run([]string{"--yes", "toggle"}, strings.NewReader(""), &out)
	if !errors.Is(err, core.ErrNotSynced) {
		t.Fatalf("run error = %v, want ErrNotSynced", err)
	}
	if kiosk.toggleCount() != 0 {
		t.Errorf("got %d toggles without a known state, want 0", kiosk.toggleCount())
	}
}

func TestUnknownCommand(t *testing.T) {
	var out bytes.Buffer
	if err := run([]string{"dance"}, strings.NewReader(""), &out); !errors.Is(err, errUsage) {
		t.Errorf("error = %v, want usage error", err)
	}
}
