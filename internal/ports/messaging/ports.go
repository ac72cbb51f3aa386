package messaging

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// MessageSender delivers an encoded NotificationEvent to a destination.
// Producer publishes attendance notifications through it; SQSSender is
// the queue-backed implementation.
type MessageSender interface {
	SendMessage(ctx context.Context, destination string, body []byte) error
}

// SQSClient is the subset of *sqs.Client that SQSSender calls.
type SQSClient interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

var _ MessageSender = (*SQSSender)(nil)
