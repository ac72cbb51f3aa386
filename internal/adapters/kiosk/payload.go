package kiosk

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"presence.monitor/internal/core/model"
)

const checkedIn = "checked_in"

type rpcRequest struct {
	ID      int    `json:"id"`
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"data"`
}

func (e *rpcError) describe() string {
	if e.Data.Message != "" {
		return e.Message + ": " + e.Data.Message
	}
	return e.Message
}

type statusParams struct {
	Token  string `json:"token"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
	Domain []any  `json:"domain"`
}

type toggleParams struct {
	Token      string `json:"token"`
	EmployeeID int    `json:"employee_id"`
	PinCode    string `json:"pin_code"`
}

type statusResult struct {
	Records []employeePayload `json:"records"`
}

// employeePayload covers both the employees_infos list entry and the
// manual_selection result. Odoo sends false for empty fields, so the
// optional ones stay raw until normalize looks at them.
type employeePayload struct {
	ID              int             `json:"id"`
	EmployeeName    json.RawMessage `json:"employee_name"`
	DisplayName     json.RawMessage `json:"display_name"`
	AttendanceState json.RawMessage `json:"attendance_state"`
	Status          json.RawMessage `json:"status"`
	HoursToday      json.RawMessage `json:"hours_today"`
	LastCheckIn     json.RawMessage `json:"last_check_in"`
	Attendance      json.RawMessage `json:"attendance"`
}

type attendancePayload struct {
	CheckIn json.RawMessage `json:"check_in"`
}

// normalize maps either response shape onto one update so the state
// machine never needs to know which endpoint answered.
func normalize(p employeePayload) model.AttendanceUpdate {
	update := model.AttendanceUpdate{
		IsCheckedIn: rawString(p.AttendanceState) == checkedIn || rawString(p.Status) == checkedIn,
	}

	update.EmployeeName = rawString(p.EmployeeName)
	if update.EmployeeName == "" {
		update.EmployeeName = rawString(p.DisplayName)
	}

	if h, ok := rawFloat(p.HoursToday); ok {
		update.HoursToday = &h
	}

	stamp := rawString(p.LastCheckIn)
	if present(p.Attendance) {
		var attendance attendancePayload
		if err := json.Unmarshal(p.Attendance, &attendance); err == nil {
			stamp = rawString(attendance.CheckIn)
		}
	}
	if stamp != "" {
		at, err := ParseServerTime(stamp)
		if err != nil {
			log.Warn().Err(err).Str("value", stamp).Msg("Ignoring unparsable check-in timestamp")
		} else {
			update.CheckInAt = &at
		}
	}
	return update
}

// ParseServerTime reads the naive "2006-01-02 15:04:05" timestamps Odoo
// returns. They are UTC even though they carry no zone.
func ParseServerTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	value = strings.Replace(value, " ", "T", 1)
	if !strings.HasSuffix(value, "Z") {
		value += "Z"
	}
	at, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, err
	}
	return at.UTC(), nil
}

func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) && !bytes.Equal(trimmed, []byte("false"))
}

func rawString(raw json.RawMessage) string {
	if !present(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func rawFloat(raw json.RawMessage) (float64, bool) {
	if !present(raw) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	return f, true
}
