package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ses"

	"presence.monitor/internal/core/model"
)

type fakeSES struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.inputs = append(f.inputs, params)
	return &ses.SendEmailOutput{}, f.err
}

func TestSESEmailServiceSendsOnCheckOut(t *testing.T) {
	client := &fakeSES{}
	mailer := NewSESEmailService(client, "presence@acme.test", "ada@acme.test")
	record := model.AttendanceRecord{EmployeeName: "Ada Lovelace", HoursToday: 5.5}
	n := ComposeNotification(record, false, time.Date(2026, 3, 2, 17, 45, 0, 0, time.UTC))

	if err := mailer.Notify(context.Background(), n); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(client.inputs) != 1 {
		t.Fatalf("got %d emails, want 1", len(client.inputs))
	}
	input := client.inputs[0]
	if *input.Source != "presence@acme.test" || input.Destination.ToAddresses[0] != "ada@acme.test" {
		t.Errorf("unexpected addressing: %s -> %v", *input.Source, input.Destination.ToAddresses)
	}
	body := *input.Message.Body.Text.Data
	for _, want := range []string{"Hello Ada,", "05:30:00", "Checked out at 17:45."} {
		if !strings.Contains(body, want) {
			t.Errorf("body %q does not contain %q", body, want)
		}
	}
}

func TestSESEmailServiceIgnoresCheckIn(t *testing.T) {
	client := &fakeSES{}
	mailer := NewSESEmailService(client, "from", "to")

	n := model.Notification{Kind: model.NotificationCheckIn}
	if err := mailer.Notify(context.Background(), n); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(client.inputs) != 0 {
		t.Errorf("sent %d emails for a check-in", len(client.inputs))
	}
}

func TestSESEmailServiceWrapsError(t *testing.T) {
	sendErr := errors.New("throttled")
	mailer := NewSESEmailService(&fakeSES{err: sendErr}, "from", "to")

	err := mailer.Notify(context.Background(), model.Notification{Kind: model.NotificationCheckOut})
	if !errors.Is(err, sendErr) {
		t.Errorf("error = %v, want wrapped SES error", err)
	}
}
