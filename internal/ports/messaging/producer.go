package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"presence.monitor/internal/core/model"
)

// Producer publishes attendance notifications to a queue. It satisfies
// ports.Notifier so it can be registered as a notification sink.
type Producer struct {
	sender   MessageSender
	queueURL string
}

func NewProducer(sender MessageSender, queueURL string) *Producer {
	return &Producer{
		sender:   sender,
		queueURL: queueURL,
	}
}

func NewSQSProducer(client SQSClient, queueURL string) *Producer {
	return NewProducer(NewSQSSender(client), queueURL)
}

// Notify publishes n as a NotificationEvent with a fresh event id.
func (p *Producer) Notify(ctx context.Context, n model.Notification) error {
	ctx, span := otel.Tracer("sqs-producer").Start(ctx, "publish_notification",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "aws_sqs"),
			attribute.String("app.notification.kind", string(n.Kind)),
			attribute.Int("app.employeeId", n.EmployeeID),
		),
	)
	defer span.End()

	return p.publish(ctx, p.queueURL, NewNotificationEvent(uuid.NewString(), n))
}

func (p *Producer) publish(ctx context.Context, destination string, body interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal body: %w", err)
	}

	if err := p.sender.SendMessage(ctx, destination, b); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
