package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"clockwise.service/internal/core"
	"clockwise.service/internal/core/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var _ core.LogPublisher = (*Producer)(nil)

// Producer publishes clocking log events to the log events queue.
type Producer struct {
	sender   MessageSender
	queueURL string
	now      func() time.Time
}

func NewProducer(sender MessageSender, queueURL string) *Producer {
	return &Producer{
		sender:   sender,
		queueURL: queueURL,
		now:      time.Now,
	}
}

func NewSQSProducer(client SQSClient, queueURL string) *Producer {
	return NewProducer(&SQSSender{client: client}, queueURL)
}

// PublishLogCreated broadcasts a persisted log to downstream consumers.
func (p *Producer) PublishLogCreated(ctx context.Context, l *model.ClockingLog) error {
	return p.publish(ctx, EventTypeLogCreated, NewLogCreatedEvent(l, p.now()))
}

func (p *Producer) publish(ctx context.Context, eventType string, event LogCreatedEvent) error {
	b, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal body: %w", err)
	}

	// Enrich the current span with the event identifiers
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("app.employeeId", event.EmployeeID),
			attribute.String("app.logId", event.LogID),
			attribute.Bool("app.anomaly", event.Anomaly != nil),
		)
	}

	if err := p.sender.SendMessage(ctx, p.queueURL, eventType, b); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
