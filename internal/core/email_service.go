package core

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"presence.monitor/internal/core/model"
)

// SESClient is the part of the SES API the summary mailer needs.
type SESClient interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESEmailService mails a shift summary on every check-out. Other
// notifications are ignored, so it can be registered as a plain sink.
type SESEmailService struct {
	client    SESClient
	sender    string
	recipient string
}

func NewSESEmailService(client SESClient, sender, recipient string) *SESEmailService {
	return &SESEmailService{client: client, sender: sender, recipient: recipient}
}

func (s *SESEmailService) Notify(ctx context.Context, n model.Notification) error {
	if n.Kind != model.NotificationCheckOut {
		return nil
	}
	return s.SendCheckOutSummary(ctx, n)
}

func (s *SESEmailService) SendCheckOutSummary(ctx context.Context, n model.Notification) error {
	tracer := otel.Tracer("ses-email-service")
	ctx, span := tracer.Start(ctx, "send_email", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.Int("app.employeeId", n.EmployeeID))

	input := &ses.SendEmailInput{
		Source: aws.String(s.sender),
		Destination: &types.Destination{
			ToAddresses: []string{s.recipient},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String("Work Shift Summary"),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(fmt.Sprintf("Hello %s,\n\n%s\n\nChecked out at %s.",
						FirstName(n.EmployeeName), n.Body, n.At.Format("15:04"))),
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to send shift summary: %w", err)
	}
	return nil
}
