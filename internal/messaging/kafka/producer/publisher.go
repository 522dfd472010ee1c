package producer

import (
	"context"

	"go-elms/internal/events"
	"go-elms/internal/messaging/kafka"

	kafkago "github.com/segmentio/kafka-go"
)

// Messages are keyed by leave request id so consumers see status changes
// for one request in order.
func publishEvent(ctx context.Context, writer *kafkago.Writer, event kafka.OutboxEvent) error {
	msg := kafkago.Message{
		Topic: events.LeaveStatusChangedTopic,
		Key:   []byte(event.LeaveRequestID),
		Value: event.Payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}

	return writer.WriteMessages(ctx, msg)
}
