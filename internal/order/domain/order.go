package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusCancelled  OrderStatus = "cancelled"
	StatusRejected   OrderStatus = "rejected"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered,
		StatusConfirmed, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

// Completed reports whether the order counts as realized revenue.
func (s OrderStatus) Completed() bool {
	return s == StatusConfirmed || s == StatusDelivered
}

// Terminated reports whether the order is excluded from revenue.
func (s OrderStatus) Terminated() bool {
	return s == StatusCancelled || s == StatusRejected
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

func (s PaymentStatus) Valid() bool {
	return s == PaymentPending || s == PaymentCompleted || s == PaymentFailed
}

// LineItem is a snapshot taken at checkout. The owning vendor is never stored
// on the item; it is resolved through the product catalog at read time.
type LineItem struct {
	ProductID string          `json:"product_id"`
	Title     string          `json:"title"`
	Image     string          `json:"image"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

type ShippingAddress struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Phone      string `json:"phone"`
	Notes      string `json:"notes,omitempty"`
}

// Discount is the checkout-time discount. The zero value means no discount.
type Discount struct {
	Percent decimal.Decimal `json:"percent"`
	Amount  decimal.Decimal `json:"amount"`
	Code    string          `json:"code,omitempty"`
}

func (d Discount) IsZero() bool {
	return d.Percent.IsZero() && d.Amount.IsZero() && d.Code == ""
}

type Order struct {
	ID            string          `json:"id"`
	BuyerID       string          `json:"buyer_id"`
	Items         []LineItem      `json:"items"`
	Shipping      ShippingAddress `json:"shipping"`
	Status        OrderStatus     `json:"status"`
	PaymentMethod string          `json:"payment_method"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Discount      Discount        `json:"discount"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ItemsTotal sums price x quantity over every line item, before discount.
func (o Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// OrderDraft is what the checkout collaborator hands over. TotalAmount is the
// amount the buyer was actually charged and must reconcile with the items.
type OrderDraft struct {
	BuyerID       string          `json:"buyer_id"`
	Items         []LineItem      `json:"items"`
	Shipping      ShippingAddress `json:"shipping"`
	PaymentMethod string          `json:"payment_method"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Discount      Discount        `json:"discount"`
}

var (
	ErrNoItems       = errors.New("order has no line items")
	ErrBadQuantity   = errors.New("line item quantity must be positive")
	ErrTotalMismatch = errors.New("total amount does not reconcile with line items")
)

// totalTolerance absorbs checkout-side rounding of the charged amount.
var totalTolerance = decimal.NewFromFloat(0.01)

// NewOrder validates a draft and freezes it into an order. Line items are
// immutable from here on; the total is never recomputed after creation.
func NewOrder(id string, draft OrderDraft) (Order, error) {
	if len(draft.Items) == 0 {
		return Order{}, ErrNoItems
	}
	for _, item := range draft.Items {
		if item.Quantity <= 0 {
			return Order{}, ErrBadQuantity
		}
	}

	o := Order{
		ID:            id,
		BuyerID:       draft.BuyerID,
		Items:         draft.Items,
		Shipping:      draft.Shipping,
		Status:        StatusPending,
		PaymentMethod: draft.PaymentMethod,
		PaymentStatus: draft.PaymentStatus,
		TotalAmount:   draft.TotalAmount,
		Discount:      draft.Discount,
	}
	if o.PaymentStatus == "" {
		o.PaymentStatus = PaymentPending
	}

	expected := o.ItemsTotal().Sub(o.Discount.Amount)
	if o.TotalAmount.Sub(expected).Abs().GreaterThan(totalTolerance) {
		return Order{}, ErrTotalMismatch
	}

	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now
	return o, nil
}
