// kiosk-mock serves the two Odoo attendance kiosk endpoints the monitor
// uses, backed by in-memory employees. Point KIOSK_URL at
// http://localhost:8069/hr_attendance/<token>.
package main

import (
	"encoding/json"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"presence.monitor/pkg/logger"
)

type employee struct {
	ID         int
	Name       string
	PIN        string
	CheckedIn  bool
	CheckInAt  time.Time
	HoursToday float64
}

type rpcRequest struct {
	ID     int `json:"id"`
	Params struct {
		Token      string `json:"token"`
		EmployeeID int    `json:"employee_id"`
		PinCode    string `json:"pin_code"`
	} `json:"params"`
}

type kiosk struct {
	token string

	mu        sync.Mutex
	employees map[int]*employee
}

func (k *kiosk) payload(e *employee) map[string]any {
	state := "checked_out"
	var checkIn any = false
	if e.CheckedIn {
		state = "checked_in"
		checkIn = e.CheckInAt.UTC().Format("2006-01-02 15:04:05")
	}
	return map[string]any{
		"id":               e.ID,
		"employee_name":    e.Name,
		"display_name":     e.Name,
		"attendance_state": state,
		"hours_today":      e.HoursToday,
		"last_check_in":    checkIn,
		"attendance":       map[string]any{"check_in": checkIn},
	}
}

func (k *kiosk) decode(w http.ResponseWriter, r *http.Request) (rpcRequest, bool) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return req, false
	}
	if req.Params.Token != k.token {
		writeRPC(w, req.ID, nil, map[string]any{"code": 200, "message": "Odoo Server Error", "data": map[string]any{"message": "invalid kiosk token"}})
		return req, false
	}
	return req, true
}

func (k *kiosk) employeesInfos(w http.ResponseWriter, r *http.Request) {
	req, ok := k.decode(w, r)
	if !ok {
		return
	}

	k.mu.Lock()
	ids := make([]int, 0, len(k.employees))
	for id := range k.employees {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	records := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		records = append(records, k.payload(k.employees[id]))
	}
	k.mu.Unlock()

	writeRPC(w, req.ID, map[string]any{"records": records, "length": len(records)}, nil)
}

func (k *kiosk) manualSelection(w http.ResponseWriter, r *http.Request) {
	req, ok := k.decode(w, r)
	if !ok {
		return
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	e, found := k.employees[req.Params.EmployeeID]
	if !found || e.PIN != req.Params.PinCode {
		writeRPC(w, req.ID, false, nil)
		return
	}

	now := time.Now()
	if e.CheckedIn {
		e.HoursToday += now.Sub(e.CheckInAt).Hours()
		e.CheckedIn = false
	} else {
		e.CheckedIn = true
		e.CheckInAt = now
	}
	log.Info().Int("employee_id", e.ID).Bool("checked_in", e.CheckedIn).Msg("Attendance toggled")
	writeRPC(w, req.ID, k.payload(e), nil)
}

func writeRPC(w http.ResponseWriter, id int, result any, rpcErr any) {
	response := map[string]any{"jsonrpc": "2.0", "id": id}
	if rpcErr != nil {
		response["error"] = rpcErr
	} else {
		response["result"] = result
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func main() {
	addr := pflag.String("addr", ":8069", "listen address")
	token := pflag.String("token", "mock-token", "kiosk token")
	pin := pflag.String("pin", "1234", "PIN of the mock employees")
	pflag.Parse()

	logger.Setup(true)

	k := &kiosk{
		token: *token,
		employees: map[int]*employee{
			1: {ID: 1, Name: "Ada Lovelace", PIN: *pin, HoursToday: 1.5},
			2: {ID: 2, Name: "Grace Hopper", PIN: *pin, CheckedIn: true, CheckInAt: time.Now().Add(-2 * time.Hour)},
		},
	}

	r := mux.NewRouter()
	r.HandleFunc("/hr_attendance/employees_infos", k.employeesInfos).Methods(http.MethodPost)
	r.HandleFunc("/hr_attendance/manual_selection", k.manualSelection).Methods(http.MethodPost)

	log.Info().Str("addr", *addr).Str("token", *token).Msg("Kiosk mock server starting")
	if err := http.ListenAndServe(*addr, r); err != nil {
		log.Error().Err(err).Msg("Kiosk mock stopped")
		os.Exit(1)
	}
}
