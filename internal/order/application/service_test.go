package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anishgarg29/Marketplace-Order-Service/internal/order/domain"
	"github.com/anishgarg29/Marketplace-Order-Service/internal/projection"
)

type memRepo struct {
	orders map[string]domain.Order
	events []string
}

func newMemRepo() *memRepo {
	return &memRepo{orders: make(map[string]domain.Order)}
}

func (r *memRepo) ListAll(context.Context) ([]domain.Order, error) {
	out := make([]domain.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, o)
	}
	return out, nil
}

func (r *memRepo) Get(_ context.Context, id string) (domain.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return domain.Order{}, ErrNotFound
	}
	return o, nil
}

func (r *memRepo) CreateWithOutbox(_ context.Context, o domain.Order, eventType string, _ []byte, _ string) error {
	r.orders[o.ID] = o
	r.events = append(r.events, eventType)
	return nil
}

func (r *memRepo) SetStatusWithOutbox(_ context.Context, id string, status domain.OrderStatus, eventType string, _ []byte, _ string) error {
	o, ok := r.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	r.orders[id] = o
	r.events = append(r.events, eventType)
	return nil
}

func (r *memRepo) SetPaymentStatus(_ context.Context, id string, status domain.PaymentStatus) error {
	o, ok := r.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.PaymentStatus = status
	r.orders[id] = o
	return nil
}

type memVendors map[string]domain.Vendor

func (m memVendors) Get(_ context.Context, id string) (domain.Vendor, error) {
	v, ok := m[id]
	if !ok {
		return domain.Vendor{}, ErrNotFound
	}
	return v, nil
}

type memIndex map[string]string

func (m memIndex) OwnedProducts(_ context.Context, vendorID string) (map[string]struct{}, error) {
	owned := make(map[string]struct{})
	for p, v := range m {
		if v == vendorID {
			owned[p] = struct{}{}
		}
	}
	return owned, nil
}

func (m memIndex) ResolveOwners(_ context.Context, ids []string) (map[string]string, error) {
	owners := make(map[string]string)
	for _, id := range ids {
		if v, ok := m[id]; ok {
			owners[id] = v
		}
	}
	return owners, nil
}

var (
	vendorX  = uuid.NewString()
	vendorY  = uuid.NewString()
	vendorZ  = uuid.NewString()
	prodX    = uuid.NewString()
	prodY    = uuid.NewString()
	buyerOne = uuid.NewString()
)

func fixture(t *testing.T) (*Service, *memRepo, string) {
	t.Helper()

	repo := newMemRepo()
	vendors := memVendors{
		vendorX: {ID: vendorX, Status: domain.VendorApproved},
		vendorY: {ID: vendorY, Status: domain.VendorApproved},
		vendorZ: {ID: vendorZ, Status: domain.VendorPending},
	}
	engine := projection.NewEngine(memIndex{prodX: vendorX, prodY: vendorY})
	svc := NewService(repo, vendors, engine)

	o, err := svc.CreateOrder(context.Background(), domain.OrderDraft{
		BuyerID: buyerOne,
		Items: []domain.LineItem{
			{ProductID: prodX, Title: "Mug", UnitPrice: decimal.RequireFromString("10.00"), Quantity: 2},
			{ProductID: prodY, Title: "Poster", UnitPrice: decimal.RequireFromString("5.00"), Quantity: 1},
		},
		PaymentMethod: "paypal",
		TotalAmount:   decimal.RequireFromString("25.00"),
	}, "")
	require.NoError(t, err)
	return svc, repo, o.ID
}

func TestCreateOrderRecordsOutboxEvent(t *testing.T) {
	_, repo, orderID := fixture(t)

	assert.Equal(t, []string{"OrderCreated"}, repo.events)
	_, err := uuid.Parse(orderID)
	assert.NoError(t, err)
}

func TestCreateOrderRejectsMismatchedTotal(t *testing.T) {
	svc, _, _ := fixture(t)

	_, err := svc.CreateOrder(context.Background(), domain.OrderDraft{
		BuyerID:     buyerOne,
		Items:       []domain.LineItem{{ProductID: prodX, UnitPrice: decimal.RequireFromString("10.00"), Quantity: 1}},
		TotalAmount: decimal.RequireFromString("99.00"),
	}, "")
	assert.ErrorIs(t, err, domain.ErrTotalMismatch)
}

func TestVendorOrdersProjects(t *testing.T) {
	svc, _, orderID := fixture(t)

	views, err := svc.VendorOrders(context.Background(), vendorX)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, orderID, views[0].OrderID)
	assert.True(t, views[0].VendorTotal.Equal(decimal.RequireFromString("20.00")))

	// vendor-y sees the same order with its own slice
	views, err = svc.VendorOrders(context.Background(), vendorY)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.True(t, views[0].VendorTotal.Equal(decimal.RequireFromString("5.00")))
}

func TestVendorOrdersRequiresApproval(t *testing.T) {
	svc, _, _ := fixture(t)

	_, err := svc.VendorOrders(context.Background(), vendorZ)
	assert.ErrorIs(t, err, ErrVendorNotApproved)
}

func TestVendorOrdersRejectsMalformedID(t *testing.T) {
	svc, _, _ := fixture(t)

	_, err := svc.VendorOrders(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestAuthorizationSymmetry(t *testing.T) {
	svc, _, orderID := fixture(t)

	for _, vendorID := range []string{vendorX, vendorY} {
		ok, err := svc.CanMutate(context.Background(), vendorID, orderID)
		require.NoError(t, err)
		views, err := svc.engine.ProjectForVendor(context.Background(), vendorID, mustAll(t, svc))
		require.NoError(t, err)
		assert.Equal(t, len(views) > 0, ok)
	}
}

func mustAll(t *testing.T, svc *Service) []domain.Order {
	t.Helper()
	orders, err := svc.ListOrders(context.Background())
	require.NoError(t, err)
	return orders
}

func TestSetStatusAsVendorGated(t *testing.T) {
	svc, repo, orderID := fixture(t)

	// owning vendor may move the shared status
	err := svc.SetStatusAsVendor(context.Background(), vendorX, orderID, domain.StatusShipped, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, repo.orders[orderID].Status)
	assert.Contains(t, repo.events, "OrderStatusChanged")
}

func TestSetStatusDenialDoesNotLeakExistence(t *testing.T) {
	svc, repo, orderID := fixture(t)

	// an approved vendor with no items in the order
	approved := uuid.NewString()
	svc.vendors.(memVendors)[approved] = domain.Vendor{ID: approved, Status: domain.VendorApproved}

	errNotMine := svc.SetStatusAsVendor(context.Background(), approved, orderID, domain.StatusCancelled, "")
	assert.ErrorIs(t, errNotMine, ErrPermissionDenied)

	errMissing := svc.SetStatusAsVendor(context.Background(), approved, uuid.NewString(), domain.StatusCancelled, "")
	assert.ErrorIs(t, errMissing, ErrPermissionDenied)

	// both denials are the same error: existence is not probeable
	assert.Equal(t, errNotMine, errMissing)
	assert.Equal(t, domain.StatusPending, repo.orders[orderID].Status)
}

func TestSetStatusAsVendorRejectsBogusStatus(t *testing.T) {
	svc, _, orderID := fixture(t)

	err := svc.SetStatusAsVendor(context.Background(), vendorX, orderID, "archived", "")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestSetStatusAsAdminReportsNotFound(t *testing.T) {
	svc, _, orderID := fixture(t)

	require.NoError(t, svc.SetStatusAsAdmin(context.Background(), orderID, domain.StatusConfirmed, ""))

	err := svc.SetStatusAsAdmin(context.Background(), uuid.NewString(), domain.StatusConfirmed, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVendorOrderDetailDenials(t *testing.T) {
	svc, _, orderID := fixture(t)

	view, err := svc.VendorOrderDetail(context.Background(), vendorX, orderID)
	require.NoError(t, err)
	assert.Equal(t, orderID, view.OrderID)

	approved := uuid.NewString()
	svc.vendors.(memVendors)[approved] = domain.Vendor{ID: approved, Status: domain.VendorApproved}

	_, errNotMine := svc.VendorOrderDetail(context.Background(), approved, orderID)
	_, errMissing := svc.VendorOrderDetail(context.Background(), approved, uuid.NewString())
	assert.ErrorIs(t, errNotMine, ErrPermissionDenied)
	assert.ErrorIs(t, errMissing, ErrPermissionDenied)
}

func TestConfirmPayment(t *testing.T) {
	svc, repo, orderID := fixture(t)

	require.NoError(t, svc.ConfirmPayment(context.Background(), orderID, domain.PaymentCompleted))
	assert.Equal(t, domain.PaymentCompleted, repo.orders[orderID].PaymentStatus)

	err := svc.ConfirmPayment(context.Background(), orderID, "settledish")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestAdminOrderDetailFlagsOrphans(t *testing.T) {
	repo := newMemRepo()
	vendors := memVendors{vendorX: {ID: vendorX, Status: domain.VendorApproved}}
	// prodY has been deleted from the catalog
	engine := projection.NewEngine(memIndex{prodX: vendorX})
	svc := NewService(repo, vendors, engine)

	o, err := svc.CreateOrder(context.Background(), domain.OrderDraft{
		BuyerID: buyerOne,
		Items: []domain.LineItem{
			{ProductID: prodX, UnitPrice: decimal.RequireFromString("10.00"), Quantity: 2},
			{ProductID: prodY, UnitPrice: decimal.RequireFromString("5.00"), Quantity: 1},
		},
		TotalAmount: decimal.RequireFromString("25.00"),
	}, "")
	require.NoError(t, err)

	got, orphans, err := svc.AdminOrderDetail(context.Background(), o.ID)
	require.NoError(t, err)
	// the order keeps its snapshot intact
	assert.Len(t, got.Items, 2)
	// the unattributable item is flagged, not dropped
	require.Len(t, orphans, 1)
	assert.Equal(t, prodY, orphans[0].Item.ProductID)

	// and it is excluded from the remaining vendor's projection
	views, err := svc.VendorOrders(context.Background(), vendorX)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.True(t, views[0].VendorTotal.Equal(decimal.RequireFromString("20.00")))
}

func TestStatisticsEndToEnd(t *testing.T) {
	svc, _, _ := fixture(t)
	month := time.Now().UTC()

	fleet, err := svc.FleetStatistics(context.Background(), month)
	require.NoError(t, err)
	assert.Equal(t, 1, fleet.TotalOrders)
	assert.True(t, fleet.TotalRevenue.Equal(decimal.RequireFromString("25.00")))

	vs, err := svc.VendorStatistics(context.Background(), vendorX, month)
	require.NoError(t, err)
	assert.Equal(t, 1, vs.TotalOrders)
	// vendor revenue is the projected slice, not the order total
	assert.True(t, vs.TotalRevenue.Equal(decimal.RequireFromString("20.00")))
}
