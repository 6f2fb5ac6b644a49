package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/STRBRYKEIYK/workbox/internal/core/domain"
	"github.com/STRBRYKEIYK/workbox/internal/core/service"
	"github.com/STRBRYKEIYK/workbox/internal/port"
)

type HTTPHandler struct {
	orders    *service.OrderService
	store     port.InventoryStore
	publisher port.EventPublisher
	guard     port.IdempotencyGuard // nil disables duplicate suppression
	log       *zap.Logger

	ordersTotal *prometheus.CounterVec // outcome label; may be nil
}

func NewHTTPHandler(
	orders *service.OrderService,
	store port.InventoryStore,
	publisher port.EventPublisher,
	guard port.IdempotencyGuard,
	log *zap.Logger,
	ordersTotal *prometheus.CounterVec,
) *HTTPHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPHandler{
		orders:      orders,
		store:       store,
		publisher:   publisher,
		guard:       guard,
		log:         log.With(zap.String("component", "http")),
		ordersTotal: ordersTotal,
	}
}

func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/", h.Status)
	mux.HandleFunc("/health", h.HealthCheck)
	mux.HandleFunc("/api/orders", h.SubmitOrder)
	mux.HandleFunc("/api/inventory", h.Inventory)
	mux.HandleFunc("/api/inventory/", h.InventoryItem)
}

type OrderLineRequest struct {
	InventoryID int64 `json:"inventory_id"`
	Quantity    int   `json:"quantity"`
}

type SubmitOrderRequest struct {
	RequestID string             `json:"request_id,omitempty"`
	UserID    int64              `json:"user_id"`
	Items     []OrderLineRequest `json:"items"`
}

type SubmitOrderResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Order   *OrderPayload `json:"order,omitempty"`
}

type OrderPayload struct {
	OrderID     int64           `json:"order_id"`
	UserID      int64           `json:"user_id"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (h *HTTPHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SubmitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.countOrder("bad_request")
		writeJSON(w, http.StatusBadRequest, SubmitOrderResponse{
			Success: false,
			Message: "invalid request body",
		})
		return
	}
	if req.UserID <= 0 {
		h.countOrder("bad_request")
		writeJSON(w, http.StatusBadRequest, SubmitOrderResponse{
			Success: false,
			Message: "user_id is required",
		})
		return
	}

	if h.guard != nil && req.RequestID != "" {
		first, err := h.guard.FirstSeen(r.Context(), req.RequestID)
		if err != nil {
			h.log.Error("idempotency_check_failed", zap.Error(err))
			h.countOrder("error")
			writeJSON(w, http.StatusServiceUnavailable, SubmitOrderResponse{
				Success: false,
				Message: "service unavailable",
			})
			return
		}
		if !first {
			h.countOrder("duplicate")
			writeJSON(w, http.StatusConflict, SubmitOrderResponse{
				Success: false,
				Message: "duplicate request",
			})
			return
		}
	}

	lines := make([]service.LineRequest, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, service.LineRequest{
			InventoryID: item.InventoryID,
			Quantity:    item.Quantity,
		})
	}

	order, err := h.orders.SubmitOrder(r.Context(), req.UserID, lines)
	if err != nil {
		status, message, outcome := orderErrorStatus(err)
		h.countOrder(outcome)
		writeJSON(w, status, SubmitOrderResponse{
			Success: false,
			Message: message,
		})
		return
	}

	h.countOrder("success")
	writeJSON(w, http.StatusCreated, SubmitOrderResponse{
		Success: true,
		Message: "order placed successfully",
		Order: &OrderPayload{
			OrderID:     order.ID,
			UserID:      order.UserID,
			Status:      string(order.Status),
			TotalAmount: order.TotalAmount,
			CreatedAt:   order.CreatedAt,
		},
	})
}

func (h *HTTPHandler) countOrder(outcome string) {
	if h.ordersTotal != nil {
		h.ordersTotal.WithLabelValues(outcome).Inc()
	}
}

func orderErrorStatus(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest, err.Error(), "bad_request"
	case errors.Is(err, domain.ErrInsufficientStock):
		var stockErr *domain.StockError
		if errors.As(err, &stockErr) {
			return http.StatusConflict, stockErr.Error(), "insufficient_stock"
		}
		return http.StatusConflict, "insufficient stock", "insufficient_stock"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "store unavailable", "error"
	default:
		return http.StatusInternalServerError, "internal error", "error"
	}
}

type InventoryItemPayload struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type CreateInventoryRequest struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
}

func (h *HTTPHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listInventory(w, r)
	case http.MethodPost:
		h.createInventory(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *HTTPHandler) listInventory(w http.ResponseWriter, r *http.Request) {
	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", 100)

	items, err := h.store.ListItems(r.Context(), skip, limit)
	if err != nil {
		h.log.Error("inventory_list_failed", zap.Error(err))
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}

	payload := make([]InventoryItemPayload, 0, len(items))
	for _, item := range items {
		payload = append(payload, itemPayload(&item))
	}
	writeJSON(w, http.StatusOK, payload)
}

// createInventory is the out-of-core CRUD path; it still announces the new
// item to connected clients.
func (h *HTTPHandler) createInventory(w http.ResponseWriter, r *http.Request) {
	var req CreateInventoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.StockQuantity < 0 || req.Price.IsNegative() {
		http.Error(w, "missing or invalid fields", http.StatusBadRequest)
		return
	}

	item := &domain.InventoryItem{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
	}
	if err := h.store.CreateItem(r.Context(), item); err != nil {
		h.log.Error("inventory_create_failed", zap.Error(err))
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}

	h.publisher.Publish(r.Context(), domain.NewInventoryUpdatedEvent(*item))
	writeJSON(w, http.StatusCreated, itemPayload(item))
}

func (h *HTTPHandler) InventoryItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	idText := strings.TrimPrefix(r.URL.Path, "/api/inventory/")
	id, err := strconv.ParseInt(idText, 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid inventory id", http.StatusBadRequest)
		return
	}

	item, err := h.store.GetItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrItemNotFound) {
			http.Error(w, "inventory item not found", http.StatusNotFound)
			return
		}
		h.log.Error("inventory_get_failed", zap.Error(err))
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, itemPayload(item))
}

func (h *HTTPHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "WorkBox API is running",
		"status":  "online",
	})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	storeStatus := "online"
	status := http.StatusOK
	if err := h.store.Ping(r.Context()); err != nil {
		storeStatus = "offline"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{
		"status":    "healthy",
		"database":  storeStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func itemPayload(item *domain.InventoryItem) InventoryItemPayload {
	return InventoryItemPayload{
		ID:            item.ID,
		Name:          item.Name,
		Description:   item.Description,
		Price:         item.Price,
		StockQuantity: item.StockQuantity,
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
	}
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
