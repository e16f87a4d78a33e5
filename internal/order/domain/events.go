package domain

import "github.com/shopspring/decimal"

type OrderCreated struct {
	OrderID     string          `json:"order_id"`
	BuyerID     string          `json:"buyer_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Items       []LineItem      `json:"items"`
}

type OrderStatusChanged struct {
	OrderID string      `json:"order_id"`
	Status  OrderStatus `json:"status"`
}

// PaymentConfirmed is the event the payment collaborator publishes once a
// charge settles (or fails). Payment processing itself happens elsewhere.
type PaymentConfirmed struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}
