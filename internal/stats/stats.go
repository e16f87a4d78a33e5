package stats

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/anishgarg29/Marketplace-Order-Service/internal/order/domain"
	"github.com/anishgarg29/Marketplace-Order-Service/internal/projection"
)

// StatusCounts is the headline status histogram. Only the three buckets the
// dashboards show are counted; processing and shipped orders fall outside it.
type StatusCounts struct {
	Confirmed int `json:"confirmed"`
	Pending   int `json:"pending"`
	Cancelled int `json:"cancelled"`
}

func (c *StatusCounts) add(s domain.OrderStatus) {
	switch {
	case s.Completed():
		c.Confirmed++
	case s == domain.StatusPending:
		c.Pending++
	case s.Terminated():
		c.Cancelled++
	}
}

// FleetStatistics is the admin rollup over the whole store.
//
// TotalRevenue sums every order's total regardless of status, cancelled ones
// included. CompletedRevenue carries the confirmed/delivered-only figure so
// the gap between the two stays visible instead of being patched over.
type FleetStatistics struct {
	TotalOrders       int             `json:"total_orders"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	CompletedRevenue  decimal.Decimal `json:"completed_revenue"`
	MonthlyOrders     int             `json:"monthly_orders"`
	MonthlyRevenue    decimal.Decimal `json:"monthly_revenue"`
	StatusCounts      StatusCounts    `json:"status_counts"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	OrphanedItems     int             `json:"orphaned_items"`
	OrphanedAmount    decimal.Decimal `json:"orphaned_amount"`
}

// VendorStatistics is the vendor rollup. Revenue figures use the vendor's
// projected totals; status buckets use the shared order status, since one
// order carries many vendors' money but only one status.
type VendorStatistics struct {
	TotalOrders       int             `json:"total_orders"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	MonthlyOrders     int             `json:"monthly_orders"`
	MonthlyRevenue    decimal.Decimal `json:"monthly_revenue"`
	StatusCounts      StatusCounts    `json:"status_counts"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
}

// MonthWindow returns the UTC bounds [start, end) of the month containing t.
func MonthWindow(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

func inWindow(t, start, end time.Time) bool {
	t = t.UTC()
	return !t.Before(start) && t.Before(end)
}

func ComputeFleet(orders []domain.Order, orphans []projection.OrphanedItem, asOfMonth time.Time) FleetStatistics {
	start, end := MonthWindow(asOfMonth)

	s := FleetStatistics{
		TotalOrders:       len(orders),
		TotalRevenue:      decimal.Zero,
		CompletedRevenue:  decimal.Zero,
		MonthlyRevenue:    decimal.Zero,
		AverageOrderValue: decimal.Zero,
		OrphanedAmount:    decimal.Zero,
	}
	for _, o := range orders {
		s.TotalRevenue = s.TotalRevenue.Add(o.TotalAmount)
		if o.Status.Completed() {
			s.CompletedRevenue = s.CompletedRevenue.Add(o.TotalAmount)
		}
		if inWindow(o.CreatedAt, start, end) {
			s.MonthlyOrders++
			s.MonthlyRevenue = s.MonthlyRevenue.Add(o.TotalAmount)
		}
		s.StatusCounts.add(o.Status)
	}
	if len(orders) > 0 {
		s.AverageOrderValue = s.TotalRevenue.Div(decimal.NewFromInt(int64(len(orders)))).Round(2)
	}

	s.OrphanedItems = len(orphans)
	for _, orphan := range orphans {
		s.OrphanedAmount = s.OrphanedAmount.Add(orphan.Item.Subtotal())
	}
	return s
}

func ComputeVendor(views []projection.VendorOrderView, asOfMonth time.Time) VendorStatistics {
	start, end := MonthWindow(asOfMonth)

	s := VendorStatistics{
		TotalOrders:       len(views),
		TotalRevenue:      decimal.Zero,
		MonthlyRevenue:    decimal.Zero,
		AverageOrderValue: decimal.Zero,
	}
	for _, v := range views {
		s.TotalRevenue = s.TotalRevenue.Add(v.VendorTotal)
		if inWindow(v.CreatedAt, start, end) {
			s.MonthlyOrders++
			s.MonthlyRevenue = s.MonthlyRevenue.Add(v.VendorTotal)
		}
		s.StatusCounts.add(v.Status)
	}
	if len(views) > 0 {
		s.AverageOrderValue = s.TotalRevenue.Div(decimal.NewFromInt(int64(len(views)))).Round(2)
	}
	return s
}
