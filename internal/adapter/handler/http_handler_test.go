package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/STRBRYKEIYK/workbox/internal/adapter/storage"
	"github.com/STRBRYKEIYK/workbox/internal/core/domain"
	"github.com/STRBRYKEIYK/workbox/internal/core/service"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.DomainEvent
}

func (p *fakePublisher) Publish(_ context.Context, e domain.DomainEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type fakeGuard struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (g *fakeGuard) FirstSeen(_ context.Context, requestID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.seen == nil {
		g.seen = make(map[string]bool)
	}
	if g.seen[requestID] {
		return false, nil
	}
	g.seen[requestID] = true
	return true, nil
}

type testServer struct {
	mux       *http.ServeMux
	store     *storage.MemoryStore
	publisher *fakePublisher
}

func newTestServer(t *testing.T, guard *fakeGuard, stocks ...int) *testServer {
	t.Helper()

	store := storage.NewMemoryStore()
	for i, stock := range stocks {
		item := &domain.InventoryItem{
			Name:          "item",
			Price:         decimal.New(int64(10*(i+1)), 0),
			StockQuantity: stock,
		}
		if err := store.CreateItem(context.Background(), item); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	publisher := &fakePublisher{}
	orders := service.NewOrderService(service.NewEngine(store, nil), publisher, nil)

	var h *HTTPHandler
	if guard != nil {
		h = NewHTTPHandler(orders, store, publisher, guard, nil, nil)
	} else {
		h = NewHTTPHandler(orders, store, publisher, nil, nil, nil)
	}

	mux := http.NewServeMux()
	h.Register(mux)
	return &testServer{mux: mux, store: store, publisher: publisher}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

func TestSubmitOrder_Created(t *testing.T) {
	srv := newTestServer(t, nil, 10)

	rec := srv.do(t, http.MethodPost, "/api/orders", SubmitOrderRequest{
		UserID: 1,
		Items:  []OrderLineRequest{{InventoryID: 1, Quantity: 3}},
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp SubmitOrderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.Order == nil {
		t.Fatalf("expected success with order, got %+v", resp)
	}
	if resp.Order.UserID != 1 || resp.Order.Status != string(domain.OrderStatusConfirmed) {
		t.Errorf("unexpected order payload: %+v", resp.Order)
	}
	if want := decimal.New(30, 0); !resp.Order.TotalAmount.Equal(want) {
		t.Errorf("expected total %s, got %s", want, resp.Order.TotalAmount)
	}

	// order_placed + inventory_update
	if srv.publisher.count() != 2 {
		t.Errorf("expected 2 events, got %d", srv.publisher.count())
	}
}

func TestSubmitOrder_InvalidBody(t *testing.T) {
	srv := newTestServer(t, nil, 10)

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	srv.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestSubmitOrder_MissingUser(t *testing.T) {
	srv := newTestServer(t, nil, 10)

	rec := srv.do(t, http.MethodPost, "/api/orders", SubmitOrderRequest{
		Items: []OrderLineRequest{{InventoryID: 1, Quantity: 1}},
	})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestSubmitOrder_EmptyItems(t *testing.T) {
	srv := newTestServer(t, nil, 10)

	rec := srv.do(t, http.MethodPost, "/api/orders", SubmitOrderRequest{UserID: 1})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestSubmitOrder_InsufficientStockConflict(t *testing.T) {
	srv := newTestServer(t, nil, 2)

	rec := srv.do(t, http.MethodPost, "/api/orders", SubmitOrderRequest{
		UserID: 1,
		Items:  []OrderLineRequest{{InventoryID: 1, Quantity: 5}},
	})

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	var resp SubmitOrderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Message != "insufficient stock for item 1" {
		t.Errorf("unexpected message: %q", resp.Message)
	}
	if srv.publisher.count() != 0 {
		t.Errorf("rejected order must publish nothing, got %d events", srv.publisher.count())
	}
}

func TestSubmitOrder_DuplicateRequestConflict(t *testing.T) {
	srv := newTestServer(t, &fakeGuard{}, 10)

	body := SubmitOrderRequest{
		RequestID: "req-1",
		UserID:    1,
		Items:     []OrderLineRequest{{InventoryID: 1, Quantity: 1}},
	}

	first := srv.do(t, http.MethodPost, "/api/orders", body)
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201 on first submit, got %d", first.Code)
	}

	second := srv.do(t, http.MethodPost, "/api/orders", body)
	if second.Code != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate, got %d", second.Code)
	}

	// The duplicate is refused before touching the store.
	item, _ := srv.store.GetItem(context.Background(), 1)
	if item.StockQuantity != 9 {
		t.Errorf("expected stock 9 after one order, got %d", item.StockQuantity)
	}
}

func TestSubmitOrder_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, nil, 10)

	rec := srv.do(t, http.MethodGet, "/api/orders", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestInventory_ListAndGet(t *testing.T) {
	srv := newTestServer(t, nil, 5, 3)

	rec := srv.do(t, http.MethodGet, "/api/inventory", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var list []InventoryItemPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 items, got %d", len(list))
	}

	rec = srv.do(t, http.MethodGet, "/api/inventory/2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var item InventoryItemPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &item); err != nil {
		t.Fatalf("decode item: %v", err)
	}
	if item.ID != 2 || item.StockQuantity != 3 {
		t.Errorf("unexpected item: %+v", item)
	}
}

func TestInventory_GetNotFound(t *testing.T) {
	srv := newTestServer(t, nil, 5)

	rec := srv.do(t, http.MethodGet, "/api/inventory/99", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestInventory_GetInvalidID(t *testing.T) {
	srv := newTestServer(t, nil, 5)

	rec := srv.do(t, http.MethodGet, "/api/inventory/abc", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestInventory_CreateBroadcastsUpdate(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodPost, "/api/inventory", CreateInventoryRequest{
		Name:          "Monitor",
		Description:   "27-inch display",
		Price:         decimal.New(29999, -2),
		StockQuantity: 12,
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var item InventoryItemPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &item); err != nil {
		t.Fatalf("decode item: %v", err)
	}
	if item.ID == 0 || item.Name != "Monitor" {
		t.Errorf("unexpected item: %+v", item)
	}
	if srv.publisher.count() != 1 {
		t.Errorf("expected 1 inventory_update event, got %d", srv.publisher.count())
	}
}

func TestInventory_CreateRejectsInvalid(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodPost, "/api/inventory", CreateInventoryRequest{
		Name:          "",
		StockQuantity: 1,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty name, got %d", rec.Code)
	}

	rec = srv.do(t, http.MethodPost, "/api/inventory", CreateInventoryRequest{
		Name:          "Bad",
		StockQuantity: -1,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for negative stock, got %d", rec.Code)
	}
}

func TestStatusAndHealth(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 from status, got %d", rec.Code)
	}

	rec = srv.do(t, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from health, got %d", rec.Code)
	}
	var health map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health["database"] != "online" {
		t.Errorf("expected database online, got %q", health["database"])
	}
}
