package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appordering "github.com/quickcart/backend/internal/application/ordering"
	"github.com/quickcart/backend/internal/domain/catalog"
	"github.com/quickcart/backend/internal/domain/identity"
	"github.com/quickcart/backend/internal/domain/ordering"
	"github.com/quickcart/backend/internal/domain/shared"
	"github.com/quickcart/backend/internal/interfaces/http/dto"
	"github.com/quickcart/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// MockOrderRepository implements ordering.OrderRepository for testing
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*ordering.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ordering.Order), args.Error(1)
}

func (m *MockOrderRepository) FindOwnedByManufacturer(ctx context.Context, id, manufacturerID uuid.UUID) (*ordering.Order, error) {
	args := m.Called(ctx, id, manufacturerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ordering.Order), args.Error(1)
}

func (m *MockOrderRepository) FindForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) (*shared.Paginated[ordering.Order], error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[ordering.Order]), args.Error(1)
}

func (m *MockOrderRepository) Save(ctx context.Context, order *ordering.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) SaveWithLock(ctx context.Context, order *ordering.Order, expectedVersion int) error {
	args := m.Called(ctx, order, expectedVersion)
	return args.Error(0)
}

// MockProductRepository implements catalog.ProductRepository for testing
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) SaveWithLock(ctx context.Context, product *catalog.Product, expectedVersion int) error {
	args := m.Called(ctx, product, expectedVersion)
	return args.Error(0)
}

// MockAddressRepository implements catalog.AddressRepository for testing
type MockAddressRepository struct {
	mock.Mock
}

func (m *MockAddressRepository) FindOwnedByRetailer(ctx context.Context, id, retailerID uuid.UUID) (*catalog.Address, error) {
	args := m.Called(ctx, id, retailerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Address), args.Error(1)
}

func (m *MockAddressRepository) Save(ctx context.Context, address *catalog.Address) error {
	args := m.Called(ctx, address)
	return args.Error(0)
}

func (m *MockAddressRepository) SetDefaultForRetailer(ctx context.Context, retailerID, addressID uuid.UUID) error {
	args := m.Called(ctx, retailerID, addressID)
	return args.Error(0)
}

// MockOrderEventRepository implements ordering.OrderEventRepository for testing
type MockOrderEventRepository struct {
	mock.Mock
}

func (m *MockOrderEventRepository) Append(ctx context.Context, event *ordering.OrderEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockOrderEventRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]ordering.OrderEvent, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ordering.OrderEvent), args.Error(1)
}

// MockRefundTrigger implements appordering.RefundTrigger for testing
type MockRefundTrigger struct {
	mock.Mock
}

func (m *MockRefundTrigger) EnsureAutoRefund(ctx context.Context, order *ordering.Order, reason string) error {
	args := m.Called(ctx, order, reason)
	return args.Error(0)
}

func (m *MockRefundTrigger) EnsureRefundRequested(ctx context.Context, order *ordering.Order, reason string) error {
	args := m.Called(ctx, order, reason)
	return args.Error(0)
}

type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type orderHandlerFixture struct {
	orders  *MockOrderRepository
	events  *MockOrderEventRepository
	handler *OrderHandler
	engine  *gin.Engine
}

// actorInjector substitutes the auth middleware in tests
func actorInjector(actor identity.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ActorKey, actor)
		c.Next()
	}
}

func newOrderHandlerFixture(mw ...gin.HandlerFunc) *orderHandlerFixture {
	f := &orderHandlerFixture{
		orders: new(MockOrderRepository),
		events: new(MockOrderEventRepository),
	}
	service := appordering.NewOrderService(
		f.orders, new(MockProductRepository), new(MockAddressRepository),
		appordering.NewAuditRecorder(f.events), new(MockRefundTrigger),
		passthroughTx{}, zap.NewNop(),
	)
	f.handler = NewOrderHandler(service)

	f.engine = gin.New()
	group := f.engine.Group("/api/v1")
	group.Use(mw...)
	group.POST("/orders", f.handler.PlaceOrder)
	group.GET("/orders", f.handler.ListOrders)
	group.GET("/orders/:id", f.handler.GetOrder)
	group.POST("/orders/:id/accept", f.handler.AcceptOrder)
	group.PUT("/orders/:id/status", f.handler.UpdateStatus)
	group.POST("/orders/:id/cancel", f.handler.CancelOrder)
	return f
}

func performRequest(engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func testOrder(retailerID, manufacturerID uuid.UUID, status ordering.OrderStatus) *ordering.Order {
	order := ordering.NewOrder(retailerID, manufacturerID, ordering.DeliveryAddress{
		Name: "Asha Traders", Phone: "9876543210", AddressLine1: "12 Market Road",
		City: "Pune", State: "MH", Pincode: "411001",
	})
	item, _ := ordering.NewOrderItem(uuid.New(), "Steel Bolt M8", 2, decimal.NewFromFloat(12.50))
	_ = order.AddItem(item)
	order.Status = status
	return order
}

func TestOrderHandler_GetOrder(t *testing.T) {
	retailerID := uuid.New()
	manufacturerID := uuid.New()
	retailer := identity.NewActor(retailerID, identity.RoleRetailer)

	t.Run("returns order to a participant", func(t *testing.T) {
		f := newOrderHandlerFixture(actorInjector(retailer))
		order := testOrder(retailerID, manufacturerID, ordering.OrderStatusCreated)
		f.orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)

		w := performRequest(f.engine, http.MethodGet, "/api/v1/orders/"+order.ID.String(), nil)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		assert.True(t, resp.Success)
		f.orders.AssertExpectations(t)
	})

	t.Run("returns 404 for an unknown order", func(t *testing.T) {
		f := newOrderHandlerFixture(actorInjector(retailer))
		orderID := uuid.New()
		f.orders.On("FindByID", mock.Anything, orderID).Return(nil, shared.ErrNotFound)

		w := performRequest(f.engine, http.MethodGet, "/api/v1/orders/"+orderID.String(), nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "ORDER_NOT_FOUND", resp.Error.Code)
	})

	t.Run("returns 403 to a stranger", func(t *testing.T) {
		stranger := identity.NewActor(uuid.New(), identity.RoleRetailer)
		f := newOrderHandlerFixture(actorInjector(stranger))
		order := testOrder(retailerID, manufacturerID, ordering.OrderStatusCreated)
		f.orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)

		w := performRequest(f.engine, http.MethodGet, "/api/v1/orders/"+order.ID.String(), nil)

		assert.Equal(t, http.StatusForbidden, w.Code)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)
	})

	t.Run("returns 400 for a malformed order id", func(t *testing.T) {
		f := newOrderHandlerFixture(actorInjector(retailer))

		w := performRequest(f.engine, http.MethodGet, "/api/v1/orders/not-a-uuid", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("returns 401 without an authenticated actor", func(t *testing.T) {
		f := newOrderHandlerFixture()

		w := performRequest(f.engine, http.MethodGet, "/api/v1/orders/"+uuid.New().String(), nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestOrderHandler_PlaceOrder(t *testing.T) {
	retailerID := uuid.New()
	retailer := identity.NewActor(retailerID, identity.RoleRetailer)

	t.Run("rejects a body without items", func(t *testing.T) {
		f := newOrderHandlerFixture(actorInjector(retailer))

		w := performRequest(f.engine, http.MethodPost, "/api/v1/orders", gin.H{
			"address_id": uuid.New().String(),
			"items":      []gin.H{},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
	})

	t.Run("rejects a non-uuid product id", func(t *testing.T) {
		f := newOrderHandlerFixture(actorInjector(retailer))

		w := performRequest(f.engine, http.MethodPost, "/api/v1/orders", gin.H{
			"address_id": uuid.New().String(),
			"items":      []gin.H{{"product_id": "nope", "quantity": 1}},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestOrderHandler_AcceptOrder(t *testing.T) {
	retailerID := uuid.New()
	manufacturerID := uuid.New()

	t.Run("accepts a confirmed order", func(t *testing.T) {
		manufacturer := identity.NewActor(manufacturerID, identity.RoleManufacturer)
		f := newOrderHandlerFixture(actorInjector(manufacturer))
		order := testOrder(retailerID, manufacturerID, ordering.OrderStatusConfirmed)

		f.orders.On("FindOwnedByManufacturer", mock.Anything, order.ID, manufacturerID).Return(order, nil)
		f.orders.On("SaveWithLock", mock.Anything, order, order.Version).Return(nil)
		f.events.On("Append", mock.Anything, mock.MatchedBy(func(e *ordering.OrderEvent) bool {
			return e.ToStatus == ordering.OrderStatusAccepted
		})).Return(nil)

		w := performRequest(f.engine, http.MethodPost, "/api/v1/orders/"+order.ID.String()+"/accept", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		f.orders.AssertExpectations(t)
		f.events.AssertExpectations(t)
	})

	t.Run("returns 409 when a concurrent write wins", func(t *testing.T) {
		manufacturer := identity.NewActor(manufacturerID, identity.RoleManufacturer)
		f := newOrderHandlerFixture(actorInjector(manufacturer))
		order := testOrder(retailerID, manufacturerID, ordering.OrderStatusConfirmed)

		f.orders.On("FindOwnedByManufacturer", mock.Anything, order.ID, manufacturerID).Return(order, nil)
		f.orders.On("SaveWithLock", mock.Anything, order, order.Version).Return(shared.ErrConcurrencyConflict)
		f.events.On("Append", mock.Anything, mock.Anything).Return(nil).Maybe()

		w := performRequest(f.engine, http.MethodPost, "/api/v1/orders/"+order.ID.String()+"/accept", nil)

		assert.Equal(t, http.StatusConflict, w.Code)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "CONCURRENCY_CONFLICT", resp.Error.Code)
	})

	t.Run("forbids a retailer from accepting", func(t *testing.T) {
		retailer := identity.NewActor(retailerID, identity.RoleRetailer)
		f := newOrderHandlerFixture(actorInjector(retailer))

		w := performRequest(f.engine, http.MethodPost, "/api/v1/orders/"+uuid.New().String()+"/accept", nil)

		assert.Equal(t, http.StatusForbidden, w.Code)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)
	})
}

func TestOrderHandler_UpdateStatus(t *testing.T) {
	manufacturer := identity.NewActor(uuid.New(), identity.RoleManufacturer)

	t.Run("rejects an unknown status value", func(t *testing.T) {
		f := newOrderHandlerFixture(actorInjector(manufacturer))

		w := performRequest(f.engine, http.MethodPut, "/api/v1/orders/"+uuid.New().String()+"/status", gin.H{
			"status": "TELEPORTED",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestOrderHandler_CancelOrder(t *testing.T) {
	retailer := identity.NewActor(uuid.New(), identity.RoleRetailer)

	t.Run("requires a reason", func(t *testing.T) {
		f := newOrderHandlerFixture(actorInjector(retailer))

		w := performRequest(f.engine, http.MethodPost, "/api/v1/orders/"+uuid.New().String()+"/cancel", gin.H{})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestOrderHandler_ListOrders(t *testing.T) {
	retailerID := uuid.New()
	manufacturerID := uuid.New()
	retailer := identity.NewActor(retailerID, identity.RoleRetailer)

	t.Run("returns a page with meta", func(t *testing.T) {
		f := newOrderHandlerFixture(actorInjector(retailer))
		order := testOrder(retailerID, manufacturerID, ordering.OrderStatusCreated)
		f.orders.On("FindForUser", mock.Anything, retailerID, mock.MatchedBy(func(filter shared.Filter) bool {
			return filter.Page == 1 && filter.PageSize == 20
		})).Return(&shared.Paginated[ordering.Order]{
			Items: []ordering.Order{*order}, TotalCount: 41, Page: 1, PageSize: 20,
		}, nil)

		w := performRequest(f.engine, http.MethodGet, "/api/v1/orders", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(41), resp.Meta.Total)
		assert.Equal(t, 3, resp.Meta.TotalPages)
	})

	t.Run("passes a status filter through", func(t *testing.T) {
		f := newOrderHandlerFixture(actorInjector(retailer))
		f.orders.On("FindForUser", mock.Anything, retailerID, mock.MatchedBy(func(filter shared.Filter) bool {
			return filter.Filters["status"] == ordering.OrderStatusShipped
		})).Return(&shared.Paginated[ordering.Order]{Page: 1, PageSize: 20}, nil)

		w := performRequest(f.engine, http.MethodGet, "/api/v1/orders?status=SHIPPED", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		f.orders.AssertExpectations(t)
	})

	t.Run("rejects a bogus status filter", func(t *testing.T) {
		f := newOrderHandlerFixture(actorInjector(retailer))

		w := performRequest(f.engine, http.MethodGet, fmt.Sprintf("/api/v1/orders?status=%s", "LOST"), nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
