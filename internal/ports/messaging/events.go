package messaging

import (
	"time"

	"presence.monitor/internal/core/model"
)

// NotificationEvent is the JSON payload sent via SQS for the notification queue
type NotificationEvent struct {
	EventID      string    `json:"eventId"`
	Kind         string    `json:"kind"`
	EmployeeID   int       `json:"employeeId"`
	EmployeeName string    `json:"employeeName"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	Effort       string    `json:"effort,omitempty"`
	HoursToday   float64   `json:"hoursToday"`
	OccurredAt   time.Time `json:"occurredAt"`
}

// NewNotificationEvent wraps a composed notification for publishing.
func NewNotificationEvent(eventID string, n model.Notification) NotificationEvent {
	return NotificationEvent{
		EventID:      eventID,
		Kind:         string(n.Kind),
		EmployeeID:   n.EmployeeID,
		EmployeeName: n.EmployeeName,
		Title:        n.Title,
		Body:         n.Body,
		Effort:       string(n.Effort),
		HoursToday:   n.HoursToday,
		OccurredAt:   n.At.UTC(),
	}
}
