package projection

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anishgarg29/Marketplace-Order-Service/internal/order/domain"
)

// fakeIndex maps product -> owning vendor; products absent from the map are
// orphans.
type fakeIndex map[string]string

func (f fakeIndex) OwnedProducts(_ context.Context, vendorID string) (map[string]struct{}, error) {
	owned := make(map[string]struct{})
	for p, v := range f {
		if v == vendorID {
			owned[p] = struct{}{}
		}
	}
	return owned, nil
}

func (f fakeIndex) ResolveOwners(_ context.Context, productIDs []string) (map[string]string, error) {
	owners := make(map[string]string)
	for _, id := range productIDs {
		if v, ok := f[id]; ok {
			owners[id] = v
		}
	}
	return owners, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func multiVendorOrder() domain.Order {
	return domain.Order{
		ID:      "order-a",
		BuyerID: "buyer-1",
		Items: []domain.LineItem{
			{ProductID: "prod-x", Title: "Mug", UnitPrice: dec("10.00"), Quantity: 2},
			{ProductID: "prod-y", Title: "Poster", UnitPrice: dec("5.00"), Quantity: 1},
		},
		Status:        domain.StatusPending,
		PaymentMethod: "paypal",
		PaymentStatus: domain.PaymentPending,
		TotalAmount:   dec("25.00"),
		CreatedAt:     time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestProjectForVendorSplitsByOwnership(t *testing.T) {
	engine := NewEngine(fakeIndex{"prod-x": "vendor-x", "prod-y": "vendor-y"})
	orders := []domain.Order{multiVendorOrder()}

	x, err := engine.ProjectForVendor(context.Background(), "vendor-x", orders)
	require.NoError(t, err)
	require.Len(t, x, 1)
	assert.True(t, x[0].VendorTotal.Equal(dec("20.00")), "got %s", x[0].VendorTotal)
	assert.Equal(t, 2, x[0].TotalItems)
	require.Len(t, x[0].Items, 1)
	assert.Equal(t, "prod-x", x[0].Items[0].ProductID)

	y, err := engine.ProjectForVendor(context.Background(), "vendor-y", orders)
	require.NoError(t, err)
	require.Len(t, y, 1)
	assert.True(t, y[0].VendorTotal.Equal(dec("5.00")))
	assert.Equal(t, 1, y[0].TotalItems)
}

func TestProjectForVendorDropsUntouchedOrders(t *testing.T) {
	engine := NewEngine(fakeIndex{"prod-x": "vendor-x", "prod-y": "vendor-y"})

	// vendor-z owns nothing in the order: the order must be absent, not an
	// empty placeholder
	z, err := engine.ProjectForVendor(context.Background(), "vendor-z", []domain.Order{multiVendorOrder()})
	require.NoError(t, err)
	assert.Empty(t, z)
}

func TestProjectForVendorNeverLeaksOtherItems(t *testing.T) {
	index := fakeIndex{"prod-x": "vendor-x", "prod-y": "vendor-y"}
	engine := NewEngine(index)

	views, err := engine.ProjectForVendor(context.Background(), "vendor-x", []domain.Order{multiVendorOrder()})
	require.NoError(t, err)
	for _, v := range views {
		for _, item := range v.Items {
			assert.Equal(t, "vendor-x", index[item.ProductID])
		}
	}
}

func TestProjectForVendorKeepsOrderMetadata(t *testing.T) {
	engine := NewEngine(fakeIndex{"prod-x": "vendor-x"})
	o := multiVendorOrder()

	views, err := engine.ProjectForVendor(context.Background(), "vendor-x", []domain.Order{o})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, o.ID, views[0].OrderID)
	assert.Equal(t, o.Status, views[0].Status)
	assert.Equal(t, o.PaymentMethod, views[0].PaymentMethod)
	assert.Equal(t, o.CreatedAt, views[0].CreatedAt)
}

func TestProjectForVendorIsIdempotent(t *testing.T) {
	engine := NewEngine(fakeIndex{"prod-x": "vendor-x", "prod-y": "vendor-y"})
	orders := []domain.Order{multiVendorOrder()}

	first, err := engine.ProjectForVendor(context.Background(), "vendor-x", orders)
	require.NoError(t, err)
	second, err := engine.ProjectForVendor(context.Background(), "vendor-x", orders)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// the source order is untouched
	assert.Len(t, orders[0].Items, 2)
}

func TestOrphanedItemsExcludedFromEveryProjection(t *testing.T) {
	// prod-y was deleted from the catalog after the order was placed
	engine := NewEngine(fakeIndex{"prod-x": "vendor-x"})
	orders := []domain.Order{multiVendorOrder()}

	for _, vendorID := range []string{"vendor-x", "vendor-y"} {
		views, err := engine.ProjectForVendor(context.Background(), vendorID, orders)
		require.NoError(t, err)
		for _, v := range views {
			for _, item := range v.Items {
				assert.NotEqual(t, "prod-y", item.ProductID)
			}
		}
	}
}

func TestOrphansAreFlaggedNotDropped(t *testing.T) {
	engine := NewEngine(fakeIndex{"prod-x": "vendor-x"})

	orphans, err := engine.Orphans(context.Background(), []domain.Order{multiVendorOrder()})
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, "order-a", orphans[0].OrderID)
	assert.Equal(t, "prod-y", orphans[0].Item.ProductID)
	assert.True(t, orphans[0].Item.Subtotal().Equal(dec("5.00")))
}

func TestOrphansEmptyStore(t *testing.T) {
	engine := NewEngine(fakeIndex{})
	orphans, err := engine.Orphans(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, orphans)
}
