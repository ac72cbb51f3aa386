package core

import (
	"fmt"
	"strings"
	"time"

	"presence.monitor/internal/core/model"
)

const (
	greatEffortHours = 8.0
	shortShiftHours  = 4.0
)

// ComposeNotification builds the message announcing a toggle result. It
// is pure: now supplies the time of day and the check-in clock time.
func ComposeNotification(record model.AttendanceRecord, justCheckedIn bool, now time.Time) model.Notification {
	firstName := FirstName(record.EmployeeName)
	n := model.Notification{
		EmployeeName: record.EmployeeName,
		HoursToday:   record.HoursToday,
		At:           now,
	}

	if justCheckedIn {
		n.Kind = model.NotificationCheckIn
		n.Title = Greeting(now) + " " + firstName
		n.Body = fmt.Sprintf("Check-in registered at %s.\nHave a nice day!", now.Format("15:04"))
		return n
	}

	n.Kind = model.NotificationCheckOut
	n.Effort = EffortFor(record.HoursToday)
	n.Title = "See you soon, " + firstName
	n.Body = fmt.Sprintf("You have worked a total of %s today.\n%s", model.FormatHours(record.HoursToday), effortLine(n.Effort))
	return n
}

// Greeting picks the salutation for the local hour of now.
func Greeting(now time.Time) string {
	hour := now.Hour()
	switch {
	case hour >= 5 && hour < 12:
		return "Good morning,"
	case hour >= 12 && hour < 20:
		return "Good afternoon,"
	default:
		return "Good evening,"
	}
}

// EffortFor buckets worked hours: more than 8 is great, under 4 is short.
func EffortFor(hours float64) model.Effort {
	switch {
	case hours > greatEffortHours:
		return model.EffortGreat
	case hours < shortShiftHours:
		return model.EffortShortShift
	default:
		return model.EffortGoodJob
	}
}

func effortLine(e model.Effort) string {
	switch e {
	case model.EffortGreat:
		return "Great effort today!"
	case model.EffortShortShift:
		return "Short shift?"
	default:
		return "Good job."
	}
}

// FirstName returns the first whitespace-separated token of a full name.
func FirstName(fullName string) string {
	fields := strings.Fields(fullName)
	if len(fields) == 0 {
		return "User"
	}
	return fields[0]
}
