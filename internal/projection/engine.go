package projection

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/anishgarg29/Marketplace-Order-Service/internal/order/domain"
)

// OwnershipIndex resolves product -> vendor attribution. It is owned by the
// catalog; this package only reads it. Implementations should answer from a
// snapshot taken within the current request, never a cross-request cache,
// so a product transferring vendors is picked up on the next read.
type OwnershipIndex interface {
	// OwnedProducts returns the set of product IDs owned by the vendor.
	OwnedProducts(ctx context.Context, vendorID string) (map[string]struct{}, error)
	// ResolveOwners maps each product ID to its owning vendor ID. Products
	// with no owner (deleted from the catalog) are absent from the result.
	ResolveOwners(ctx context.Context, productIDs []string) (map[string]string, error)
}

// VendorOrderView is one order as a single vendor is allowed to see it:
// shared metadata intact, line items narrowed to the vendor's own, totals
// recomputed over that subsequence only. It is derived on every read and
// never persisted.
type VendorOrderView struct {
	OrderID       string                 `json:"order_id"`
	BuyerID       string                 `json:"buyer_id"`
	Items         []domain.LineItem      `json:"items"`
	VendorTotal   decimal.Decimal        `json:"vendor_total"`
	TotalItems    int                    `json:"total_items"`
	Status        domain.OrderStatus     `json:"status"`
	PaymentMethod string                 `json:"payment_method"`
	PaymentStatus domain.PaymentStatus   `json:"payment_status"`
	Shipping      domain.ShippingAddress `json:"shipping"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// OrphanedItem is a line item whose product no longer resolves to any vendor.
// Its revenue is unattributable: excluded from every vendor projection, and
// flagged (not dropped) in admin aggregation.
type OrphanedItem struct {
	OrderID string          `json:"order_id"`
	Item    domain.LineItem `json:"item"`
}

type Engine struct {
	index OwnershipIndex
}

func NewEngine(index OwnershipIndex) *Engine {
	return &Engine{index: index}
}

// ProjectForVendor filters each order down to the vendor's line items.
// Orders with no matching items are dropped entirely, never returned as
// empty placeholders. VendorTotal is computed from the filtered items, not
// from the order's stored total, so other vendors' contributions never leak
// into the figure.
func (e *Engine) ProjectForVendor(ctx context.Context, vendorID string, orders []domain.Order) ([]VendorOrderView, error) {
	owned, err := e.index.OwnedProducts(ctx, vendorID)
	if err != nil {
		return nil, err
	}

	views := make([]VendorOrderView, 0, len(orders))
	for _, o := range orders {
		view, ok := projectOne(owned, o)
		if !ok {
			continue
		}
		views = append(views, view)
	}
	return views, nil
}

func projectOne(owned map[string]struct{}, o domain.Order) (VendorOrderView, bool) {
	var items []domain.LineItem
	total := decimal.Zero
	count := 0
	for _, item := range o.Items {
		if _, mine := owned[item.ProductID]; !mine {
			continue
		}
		items = append(items, item)
		total = total.Add(item.Subtotal())
		count += item.Quantity
	}
	if len(items) == 0 {
		return VendorOrderView{}, false
	}
	return VendorOrderView{
		OrderID:       o.ID,
		BuyerID:       o.BuyerID,
		Items:         items,
		VendorTotal:   total,
		TotalItems:    count,
		Status:        o.Status,
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus,
		Shipping:      o.Shipping,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}, true
}

// Orphans reports line items across the given orders whose product resolves
// to no vendor. One catalog lookup covers all orders.
func (e *Engine) Orphans(ctx context.Context, orders []domain.Order) ([]OrphanedItem, error) {
	seen := make(map[string]struct{})
	var productIDs []string
	for _, o := range orders {
		for _, item := range o.Items {
			if _, dup := seen[item.ProductID]; dup {
				continue
			}
			seen[item.ProductID] = struct{}{}
			productIDs = append(productIDs, item.ProductID)
		}
	}
	if len(productIDs) == 0 {
		return nil, nil
	}

	owners, err := e.index.ResolveOwners(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	var orphans []OrphanedItem
	for _, o := range orders {
		for _, item := range o.Items {
			if _, ok := owners[item.ProductID]; !ok {
				orphans = append(orphans, OrphanedItem{OrderID: o.ID, Item: item})
			}
		}
	}
	return orphans, nil
}
