package model

import (
	"time"
)

// Status is the sync state shown next to the attendance icon.
type Status string

const (
	StatusLoading    Status = "LOADING"
	StatusCheckedIn  Status = "CHECKED_IN"
	StatusCheckedOut Status = "CHECKED_OUT"
	StatusError      Status = "ERROR"
)

// DefaultEmployeeName is used when the server reports no name at all.
const DefaultEmployeeName = "Employee"

// AttendanceRecord is the last known server view of the employee.
type AttendanceRecord struct {
	EmployeeName  string     `json:"employeeName"`
	IsCheckedIn   bool       `json:"isCheckedIn"`
	HoursToday    float64    `json:"hoursToday"`
	LastCheckInAt *time.Time `json:"lastCheckInAt,omitempty"`
}

// AttendanceUpdate is one normalized server response. Nil pointers mean
// the field was absent from the payload.
type AttendanceUpdate struct {
	EmployeeName string
	IsCheckedIn  bool
	HoursToday   *float64
	CheckInAt    *time.Time
}

// Apply returns the record after folding in u. Absent hours keep the
// previous value. The check-in instant is only kept while checked in.
func (r AttendanceRecord) Apply(u AttendanceUpdate) AttendanceRecord {
	next := r
	next.EmployeeName = u.EmployeeName
	if next.EmployeeName == "" {
		next.EmployeeName = DefaultEmployeeName
	}
	next.IsCheckedIn = u.IsCheckedIn
	if u.HoursToday != nil {
		next.HoursToday = *u.HoursToday
		if next.HoursToday < 0 {
			next.HoursToday = 0
		}
	}

	switch {
	case !u.IsCheckedIn:
		next.LastCheckInAt = nil
	case u.CheckInAt != nil:
		at := u.CheckInAt.UTC()
		next.LastCheckInAt = &at
	}
	return next
}

// StatusFor maps a record to its steady-state status.
func StatusFor(r AttendanceRecord) Status {
	if r.IsCheckedIn {
		return StatusCheckedIn
	}
	return StatusCheckedOut
}

// DisplayState is recomputed on every tick and never stored.
type DisplayState struct {
	Status       Status    `json:"status"`
	EmployeeName string    `json:"employeeName"`
	IsCheckedIn  bool      `json:"isCheckedIn"`
	ElapsedHours float64   `json:"elapsedHours"`
	Elapsed      string    `json:"elapsed"`
	At           time.Time `json:"at"`
}

// Project derives the display from the record, the sync status and now.
func Project(r AttendanceRecord, status Status, now time.Time) DisplayState {
	elapsed := ElapsedHours(r, now)
	return DisplayState{
		Status:       status,
		EmployeeName: r.EmployeeName,
		IsCheckedIn:  r.IsCheckedIn,
		ElapsedHours: elapsed,
		Elapsed:      FormatHours(elapsed),
		At:           now,
	}
}

// ElapsedHours is hoursToday plus the running session while checked in.
func ElapsedHours(r AttendanceRecord, now time.Time) float64 {
	if !r.IsCheckedIn || r.LastCheckInAt == nil {
		return r.HoursToday
	}
	running := now.Sub(*r.LastCheckInAt).Hours()
	if running < 0 {
		running = 0
	}
	return r.HoursToday + running
}

// Card is the read-only info surface opened by the secondary button.
type Card struct {
	EmployeeName string `json:"employeeName"`
	Timer        string `json:"timer"`
	LastAction   string `json:"lastAction"`
	Status       Status `json:"status"`
}

// NotificationKind tells which transition a notification announces.
type NotificationKind string

const (
	NotificationCheckIn  NotificationKind = "CHECK_IN"
	NotificationCheckOut NotificationKind = "CHECK_OUT"
)

// Effort buckets the hours worked for the check-out message.
type Effort string

const (
	EffortNone       Effort = ""
	EffortGreat      Effort = "great effort"
	EffortShortShift Effort = "short shift"
	EffortGoodJob    Effort = "good job"
)

// Notification is what gets handed to the notification sinks.
type Notification struct {
	Kind         NotificationKind `json:"kind"`
	Title        string           `json:"title"`
	Body         string           `json:"body"`
	Effort       Effort           `json:"effort,omitempty"`
	EmployeeID   int              `json:"employeeId"`
	EmployeeName string           `json:"employeeName"`
	HoursToday   float64          `json:"hoursToday"`
	At           time.Time        `json:"at"`
}

// HistoryEntry is a persisted check-in or check-out observed by the monitor.
type HistoryEntry struct {
	ID           string     `json:"id"`
	EmployeeID   int        `json:"employeeId"`
	EmployeeName string     `json:"employeeName"`
	CheckedIn    bool       `json:"checkedIn"`
	HoursToday   float64    `json:"hoursToday"`
	CheckInAt    *time.Time `json:"checkInAt,omitempty"`
	Source       string     `json:"source"`
	RecordedAt   time.Time  `json:"recordedAt"`
}
