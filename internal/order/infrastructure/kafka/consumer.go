package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/anishgarg29/Marketplace-Order-Service/internal/order/application"
	"github.com/anishgarg29/Marketplace-Order-Service/internal/order/domain"
	"github.com/anishgarg29/Marketplace-Order-Service/pkg/idempotency"
	"github.com/anishgarg29/Marketplace-Order-Service/pkg/tracing"
)

// PaymentConsumer applies payment-confirmation events published by the
// payment collaborator. Payment processing is opaque to this service; all
// that arrives here is the settled outcome per order.
type PaymentConsumer struct {
	log    *slog.Logger
	reader *kafka.Reader
	svc    *application.Service
	idem   *idempotency.Store
	tracer trace.Tracer
}

func NewPaymentConsumer(log *slog.Logger, brokers []string, topic, group string, svc *application.Service, idem *idempotency.Store) *PaymentConsumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
	return &PaymentConsumer{
		log:    log,
		reader: r,
		svc:    svc,
		idem:   idem,
		tracer: otel.Tracer("payment-consumer"),
	}
}

func (c *PaymentConsumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}
		key := c.idem.Key(msg.Topic, msg.Partition, msg.Offset)
		seen, err := c.idem.Seen(ctx, key)
		if err != nil {
			c.log.Error("idempotency check failed", "err", err)
			continue
		}
		if seen {
			c.log.Info("duplicate message skipped", "key", key)
			_ = c.reader.CommitMessages(ctx, msg)
			continue
		}

		msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
		msgCtx, span := c.tracer.Start(msgCtx, "ConsumePaymentConfirmed")

		var event domain.PaymentConfirmed
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			c.log.Error("unmarshal failed", "err", err)
			span.End()
			_ = c.reader.CommitMessages(ctx, msg)
			continue
		}

		err = c.svc.ConfirmPayment(msgCtx, event.OrderID, domain.PaymentStatus(event.Status))
		switch {
		case errors.Is(err, application.ErrNotFound):
			// Confirmation for an order this store never saw. Commit it;
			// redelivery will not make the order appear.
			c.log.Warn("payment for unknown order", "order_id", event.OrderID)
		case err != nil:
			c.log.Error("payment apply failed", "order_id", event.OrderID, "err", err)
		default:
			c.log.Info("payment applied", "order_id", event.OrderID, "status", event.Status)
		}
		span.End()
		_ = c.reader.CommitMessages(ctx, msg)
	}
}
