package outbox

import (
	"context"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/anishgarg29/Marketplace-Order-Service/pkg/metrics"
)

type Producer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Dispatcher struct {
	log      *slog.Logger
	producer Producer
	topic    string
	metrics  *metrics.OutboxMetrics
}

func NewDispatcher(log *slog.Logger, producer Producer, topic string, m *metrics.OutboxMetrics) *Dispatcher {
	return &Dispatcher{log: log, producer: producer, topic: topic, metrics: m}
}

func (d *Dispatcher) Dispatch(ctx context.Context, event Event) error {
	headers := []kafka.Header{
		{Key: "event_type", Value: []byte(event.Type)},
	}
	if event.Traceparent != "" {
		headers = append(headers, kafka.Header{Key: "traceparent", Value: []byte(event.Traceparent)})
	}

	msg := kafka.Message{
		Topic:   d.topic,
		Key:     []byte(event.AggregateID),
		Value:   event.Payload,
		Headers: headers,
	}
	if err := d.producer.WriteMessages(ctx, msg); err != nil {
		d.log.Error("outbox dispatch failed", "event_id", event.ID, "err", err)
		if d.metrics != nil {
			d.metrics.Dispatched.WithLabelValues(event.Type, "error").Inc()
		}
		return err
	}
	d.log.Info("outbox dispatched", "event_id", event.ID, "type", event.Type)
	if d.metrics != nil {
		d.metrics.Dispatched.WithLabelValues(event.Type, "ok").Inc()
	}
	return nil
}
