package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/anishgarg29/Marketplace-Order-Service/internal/order/application"
	"github.com/anishgarg29/Marketplace-Order-Service/internal/order/domain"
	"github.com/anishgarg29/Marketplace-Order-Service/pkg/metrics"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
	metrics *metrics.ServerMetrics
}

func NewHandler(log *slog.Logger, service *application.Service, m *metrics.ServerMetrics) *Handler {
	return &Handler{
		log:     log,
		service: service,
		tracer:  otel.Tracer("order-http"),
		metrics: m,
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Post("/orders", h.instrument("create_order", h.createOrder))

	r.Route("/vendors/{vendorID}", func(r chi.Router) {
		r.Get("/orders", h.instrument("vendor_orders", h.vendorOrders))
		r.Get("/orders/{orderID}", h.instrument("vendor_order_detail", h.vendorOrderDetail))
		r.Put("/orders/{orderID}/status", h.instrument("vendor_set_status", h.vendorSetStatus))
		r.Get("/statistics", h.instrument("vendor_statistics", h.vendorStatistics))
	})

	r.Route("/admin", func(r chi.Router) {
		r.Get("/orders", h.instrument("admin_orders", h.adminOrders))
		r.Get("/orders/{orderID}", h.instrument("admin_order_detail", h.adminOrderDetail))
		r.Put("/orders/{orderID}/status", h.instrument("admin_set_status", h.adminSetStatus))
		r.Get("/statistics", h.instrument("admin_statistics", h.fleetStatistics))
	})

	return r
}

func (h *Handler) instrument(name string, fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		fn(ww, r)
		if h.metrics != nil {
			h.metrics.Requests.WithLabelValues(name, strconv.Itoa(ww.Status())).Inc()
			h.metrics.LatencyMS.WithLabelValues(name).Observe(float64(time.Since(start).Milliseconds()))
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service errors onto the wire. The vendor paths funnel
// missing and non-owned orders into the same permission_denied body upstream,
// so nothing here can distinguish them either.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, application.ErrInvalidID),
		errors.Is(err, application.ErrInvalidStatus),
		errors.Is(err, domain.ErrNoItems),
		errors.Is(err, domain.ErrBadQuantity),
		errors.Is(err, domain.ErrTotalMismatch):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, application.ErrPermissionDenied):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "permission denied"})
	case errors.Is(err, application.ErrVendorNotApproved):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "vendor not approved"})
	case errors.Is(err, application.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateOrder")
	defer span.End()

	var draft domain.OrderDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	o, err := h.service.CreateOrder(ctx, draft, r.Header.Get("traceparent"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *Handler) vendorOrders(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "VendorOrders")
	defer span.End()

	views, err := h.service.VendorOrders(ctx, chi.URLParam(r, "vendorID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) vendorOrderDetail(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "VendorOrderDetail")
	defer span.End()

	view, err := h.service.VendorOrderDetail(ctx, chi.URLParam(r, "vendorID"), chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type setStatusReq struct {
	Status domain.OrderStatus `json:"status"`
}

func (h *Handler) vendorSetStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "VendorSetStatus")
	defer span.End()

	var req setStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	err := h.service.SetStatusAsVendor(ctx, chi.URLParam(r, "vendorID"), chi.URLParam(r, "orderID"),
		req.Status, r.Header.Get("traceparent"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(req.Status)})
}

func (h *Handler) vendorStatistics(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "VendorStatistics")
	defer span.End()

	month, err := asOfMonth(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid month"})
		return
	}
	s, err := h.service.VendorStatistics(ctx, chi.URLParam(r, "vendorID"), month)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *Handler) adminOrders(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AdminOrders")
	defer span.End()

	orders, err := h.service.ListOrders(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) adminOrderDetail(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AdminOrderDetail")
	defer span.End()

	o, orphans, err := h.service.AdminOrderDetail(ctx, chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"order":          o,
		"orphaned_items": orphans,
	})
}

func (h *Handler) adminSetStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AdminSetStatus")
	defer span.End()

	var req setStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	err := h.service.SetStatusAsAdmin(ctx, chi.URLParam(r, "orderID"), req.Status, r.Header.Get("traceparent"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(req.Status)})
}

func (h *Handler) fleetStatistics(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "FleetStatistics")
	defer span.End()

	month, err := asOfMonth(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid month"})
		return
	}
	s, err := h.service.FleetStatistics(ctx, month)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// asOfMonth reads the optional month=YYYY-MM query, defaulting to now.
func asOfMonth(r *http.Request) (time.Time, error) {
	q := r.URL.Query().Get("month")
	if q == "" {
		return time.Now().UTC(), nil
	}
	return time.Parse("2006-01", q)
}
