package application

import (
	"context"

	"github.com/anishgarg29/Marketplace-Order-Service/internal/order/domain"
)

type OrderRepository interface {
	// ListAll returns every order, newest first. Projection and aggregation
	// both run over this full scan; there is no vendor-keyed index.
	ListAll(ctx context.Context) ([]domain.Order, error)
	Get(ctx context.Context, id string) (domain.Order, error)
	// CreateWithOutbox persists the order, its items and the event row in
	// one transaction.
	CreateWithOutbox(ctx context.Context, o domain.Order, eventType string, payload []byte, traceparent string) error
	// SetStatusWithOutbox updates status and updated_at and records the
	// event row in the same transaction.
	SetStatusWithOutbox(ctx context.Context, id string, status domain.OrderStatus, eventType string, payload []byte, traceparent string) error
	SetPaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) error
}

type VendorDirectory interface {
	Get(ctx context.Context, vendorID string) (domain.Vendor, error)
}
