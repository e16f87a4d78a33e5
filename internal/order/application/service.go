package application

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/anishgarg29/Marketplace-Order-Service/internal/order/domain"
	"github.com/anishgarg29/Marketplace-Order-Service/internal/projection"
	"github.com/anishgarg29/Marketplace-Order-Service/internal/stats"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrInvalidID         = errors.New("invalid identifier")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrVendorNotApproved = errors.New("vendor not approved")
)

type Service struct {
	repo    OrderRepository
	vendors VendorDirectory
	engine  *projection.Engine
}

func NewService(repo OrderRepository, vendors VendorDirectory, engine *projection.Engine) *Service {
	return &Service{repo: repo, vendors: vendors, engine: engine}
}

func validID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	return nil
}

// CreateOrder freezes a checkout draft into an order and records the
// OrderCreated event transactionally.
func (s *Service) CreateOrder(ctx context.Context, draft domain.OrderDraft, traceparent string) (domain.Order, error) {
	o, err := domain.NewOrder(uuid.NewString(), draft)
	if err != nil {
		return domain.Order{}, err
	}

	event := domain.OrderCreated{
		OrderID:     o.ID,
		BuyerID:     o.BuyerID,
		TotalAmount: o.TotalAmount,
		Items:       o.Items,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return domain.Order{}, err
	}
	if err := s.repo.CreateWithOutbox(ctx, o, "OrderCreated", payload, traceparent); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	if err := validID(orderID); err != nil {
		return domain.Order{}, err
	}
	return s.repo.Get(ctx, orderID)
}

func (s *Service) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return s.repo.ListAll(ctx)
}

// AdminOrderDetail returns the full order plus any line items whose product
// no longer resolves to a vendor. Orphans are flagged here rather than
// silently dropped; their revenue belongs to no one.
func (s *Service) AdminOrderDetail(ctx context.Context, orderID string) (domain.Order, []projection.OrphanedItem, error) {
	o, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, nil, err
	}
	orphans, err := s.engine.Orphans(ctx, []domain.Order{o})
	if err != nil {
		return domain.Order{}, nil, err
	}
	return o, orphans, nil
}

// approvedVendor resolves the vendor and refuses everyone but approved ones.
func (s *Service) approvedVendor(ctx context.Context, vendorID string) error {
	if err := validID(vendorID); err != nil {
		return err
	}
	v, err := s.vendors.Get(ctx, vendorID)
	if err != nil {
		return err
	}
	if !v.Approved() {
		return ErrVendorNotApproved
	}
	return nil
}

// VendorOrders lists every order that touches the vendor, projected down to
// the vendor's own line items. A vendor with no matching orders gets an
// empty list, not an error.
func (s *Service) VendorOrders(ctx context.Context, vendorID string) ([]projection.VendorOrderView, error) {
	if err := s.approvedVendor(ctx, vendorID); err != nil {
		return nil, err
	}
	orders, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.engine.ProjectForVendor(ctx, vendorID, orders)
}

// VendorOrderDetail returns one projected order. A missing order and an
// order with none of the vendor's items produce the same denial, so a
// non-owning vendor cannot probe for order existence.
func (s *Service) VendorOrderDetail(ctx context.Context, vendorID, orderID string) (projection.VendorOrderView, error) {
	if err := s.approvedVendor(ctx, vendorID); err != nil {
		return projection.VendorOrderView{}, err
	}
	if err := validID(orderID); err != nil {
		return projection.VendorOrderView{}, err
	}

	o, err := s.repo.Get(ctx, orderID)
	if errors.Is(err, ErrNotFound) {
		return projection.VendorOrderView{}, ErrPermissionDenied
	}
	if err != nil {
		return projection.VendorOrderView{}, err
	}

	views, err := s.engine.ProjectForVendor(ctx, vendorID, []domain.Order{o})
	if err != nil {
		return projection.VendorOrderView{}, err
	}
	if len(views) == 0 {
		return projection.VendorOrderView{}, ErrPermissionDenied
	}
	return views[0], nil
}

// CanMutate reports whether the vendor owns at least one line item in the
// order. False for orders that do not exist.
func (s *Service) CanMutate(ctx context.Context, vendorID, orderID string) (bool, error) {
	o, err := s.repo.Get(ctx, orderID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	views, err := s.engine.ProjectForVendor(ctx, vendorID, []domain.Order{o})
	if err != nil {
		return false, err
	}
	return len(views) > 0, nil
}

// SetStatusAsVendor mutates the shared order status on behalf of a vendor.
// The status change is global to the order; there is no per-vendor
// fulfillment state in this model.
func (s *Service) SetStatusAsVendor(ctx context.Context, vendorID, orderID string, status domain.OrderStatus, traceparent string) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	if err := s.approvedVendor(ctx, vendorID); err != nil {
		return err
	}
	if err := validID(orderID); err != nil {
		return err
	}

	ok, err := s.CanMutate(ctx, vendorID, orderID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPermissionDenied
	}
	return s.setStatus(ctx, orderID, status, traceparent)
}

// SetStatusAsAdmin skips the ownership gate. Missing orders surface as a
// real not-found here; admins are allowed to know.
func (s *Service) SetStatusAsAdmin(ctx context.Context, orderID string, status domain.OrderStatus, traceparent string) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	if err := validID(orderID); err != nil {
		return err
	}
	return s.setStatus(ctx, orderID, status, traceparent)
}

func (s *Service) setStatus(ctx context.Context, orderID string, status domain.OrderStatus, traceparent string) error {
	payload, err := json.Marshal(domain.OrderStatusChanged{OrderID: orderID, Status: status})
	if err != nil {
		return err
	}
	return s.repo.SetStatusWithOutbox(ctx, orderID, status, "OrderStatusChanged", payload, traceparent)
}

// ConfirmPayment applies a settled payment event from the payment
// collaborator to the order's payment status.
func (s *Service) ConfirmPayment(ctx context.Context, orderID string, status domain.PaymentStatus) error {
	if err := validID(orderID); err != nil {
		return err
	}
	if !status.Valid() {
		return ErrInvalidStatus
	}
	return s.repo.SetPaymentStatus(ctx, orderID, status)
}

// FleetStatistics aggregates the whole store for the admin dashboard,
// including the orphaned-item bucket for revenue no vendor can claim.
func (s *Service) FleetStatistics(ctx context.Context, asOfMonth time.Time) (stats.FleetStatistics, error) {
	orders, err := s.repo.ListAll(ctx)
	if err != nil {
		return stats.FleetStatistics{}, err
	}
	orphans, err := s.engine.Orphans(ctx, orders)
	if err != nil {
		return stats.FleetStatistics{}, err
	}
	return stats.ComputeFleet(orders, orphans, asOfMonth), nil
}

// VendorStatistics aggregates over the vendor's projected views.
func (s *Service) VendorStatistics(ctx context.Context, vendorID string, asOfMonth time.Time) (stats.VendorStatistics, error) {
	views, err := s.VendorOrders(ctx, vendorID)
	if err != nil {
		return stats.VendorStatistics{}, err
	}
	return stats.ComputeVendor(views, asOfMonth), nil
}
