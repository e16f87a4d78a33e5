package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func draft(total string) OrderDraft {
	return OrderDraft{
		BuyerID: "buyer-1",
		Items: []LineItem{
			{ProductID: "p1", Title: "Mug", UnitPrice: dec("10.00"), Quantity: 2},
			{ProductID: "p2", Title: "Poster", UnitPrice: dec("5.00"), Quantity: 1},
		},
		PaymentMethod: "paypal",
		TotalAmount:   dec(total),
	}
}

func TestNewOrderFreezesDraft(t *testing.T) {
	o, err := NewOrder("order-1", draft("25.00"))
	require.NoError(t, err)

	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, PaymentPending, o.PaymentStatus)
	assert.True(t, o.TotalAmount.Equal(dec("25.00")))
	assert.True(t, o.ItemsTotal().Equal(dec("25.00")))
	assert.Equal(t, o.CreatedAt, o.UpdatedAt)
}

func TestNewOrderTotalMustReconcile(t *testing.T) {
	_, err := NewOrder("order-1", draft("24.50"))
	assert.ErrorIs(t, err, ErrTotalMismatch)

	// within rounding tolerance
	_, err = NewOrder("order-1", draft("24.99"))
	assert.NoError(t, err)
}

func TestNewOrderDiscountEntersTheInvariant(t *testing.T) {
	d := draft("20.00")
	d.Discount = Discount{Percent: dec("20"), Amount: dec("5.00"), Code: "TAKE20"}

	o, err := NewOrder("order-1", d)
	require.NoError(t, err)
	assert.True(t, o.TotalAmount.Equal(dec("20.00")))
	// items total stays pre-discount
	assert.True(t, o.ItemsTotal().Equal(dec("25.00")))
}

func TestNewOrderRejectsBadDrafts(t *testing.T) {
	empty := draft("25.00")
	empty.Items = nil
	_, err := NewOrder("order-1", empty)
	assert.ErrorIs(t, err, ErrNoItems)

	zeroQty := draft("25.00")
	zeroQty.Items[0].Quantity = 0
	_, err = NewOrder("order-1", zeroQty)
	assert.ErrorIs(t, err, ErrBadQuantity)
}

func TestOrderStatusBuckets(t *testing.T) {
	assert.True(t, StatusConfirmed.Completed())
	assert.True(t, StatusDelivered.Completed())
	assert.False(t, StatusShipped.Completed())

	assert.True(t, StatusCancelled.Terminated())
	assert.True(t, StatusRejected.Terminated())
	assert.False(t, StatusPending.Terminated())

	assert.False(t, OrderStatus("archived").Valid())
}

func TestDiscountIsZero(t *testing.T) {
	assert.True(t, Discount{}.IsZero())
	assert.False(t, Discount{Amount: dec("1.00")}.IsZero())
}
