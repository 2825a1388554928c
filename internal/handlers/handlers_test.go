package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prudhivi99/retail-orders/internal/db"
	"github.com/prudhivi99/retail-orders/internal/models"
	"github.com/prudhivi99/retail-orders/internal/orders"
	"github.com/prudhivi99/retail-orders/internal/service"
	"github.com/prudhivi99/retail-orders/internal/store"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter() *gin.Engine {
	gw := store.NewMemory(db.Tables)
	customerRepo := db.NewCustomerRepository(gw)
	productRepo := db.NewProductRepository(gw)
	orderRepo := db.NewOrderRepository(gw)
	engine := orders.NewEngine(customerRepo, productRepo, orderRepo, zerolog.Nop())

	router := gin.New()
	router.Use(RequestLogger(zerolog.Nop()))
	NewOrderHandler(service.NewOrderService(engine, orderRepo, zerolog.Nop())).Register(router)
	NewCustomerHandler(service.NewCustomerService(customerRepo, zerolog.Nop())).Register(router)
	NewProductHandler(productRepo).Register(router.Group("/catalog"))
	return router
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func seed(t *testing.T, router http.Handler) (custID, prodID int) {
	t.Helper()
	w := do(t, router, http.MethodPost, "/customers", gin.H{"name": "Asha", "email": "asha@example.com", "phone": "555"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	custID = decode[models.Customer](t, w).ID

	w = do(t, router, http.MethodPost, "/catalog/products", gin.H{"name": "Lamp", "price": "5.00", "stock": 10})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	prodID = decode[models.Product](t, w).ID
	return custID, prodID
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	router := newRouter()
	custID, prodID := seed(t, router)

	w := do(t, router, http.MethodPost, "/orders", gin.H{
		"cust_id": custID,
		"items":   []gin.H{{"prod_id": prodID, "quantity": 3}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[models.OrderDetail](t, w)
	assert.Equal(t, models.StatusPlaced, created.Status)
	assert.True(t, decimal.RequireFromString("15").Equal(created.TotalAmount))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	w = do(t, router, http.MethodGet, fmt.Sprintf("/orders/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[models.OrderDetail](t, w).Items, 1)

	w = do(t, router, http.MethodGet, fmt.Sprintf("/customers/%d/orders", custID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Order](t, w), 1)

	w = do(t, router, http.MethodGet, fmt.Sprintf("/catalog/products/%d", prodID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 7, decode[models.Product](t, w).Stock)

	w = do(t, router, http.MethodPost, fmt.Sprintf("/orders/%d/cancel", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.StatusCancelled, decode[models.OrderDetail](t, w).Status)

	w = do(t, router, http.MethodPost, fmt.Sprintf("/orders/%d/cancel", created.ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateOrderErrorStatuses(t *testing.T) {
	router := newRouter()
	custID, prodID := seed(t, router)

	tests := []struct {
		name   string
		body   any
		status int
		msg    string
	}{
		{
			name:   "unknown customer",
			body:   gin.H{"cust_id": 99, "items": []gin.H{{"prod_id": prodID, "quantity": 1}}},
			status: http.StatusBadRequest,
			msg:    "customer 99 does not exist",
		},
		{
			name:   "unknown products",
			body:   gin.H{"cust_id": custID, "items": []gin.H{{"prod_id": 42, "quantity": 1}}},
			status: http.StatusBadRequest,
			msg:    "products not found: [42]",
		},
		{
			name:   "not enough stock",
			body:   gin.H{"cust_id": custID, "items": []gin.H{{"prod_id": prodID, "quantity": 11}}},
			status: http.StatusConflict,
			msg:    "not enough stock for product Lamp",
		},
		{
			name:   "empty items",
			body:   gin.H{"cust_id": custID, "items": []gin.H{}},
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, http.MethodPost, "/orders", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.msg != "" {
				assert.Equal(t, tt.msg, decode[map[string]string](t, w)["error"])
			}
		})
	}
}

func TestGetOrderStatuses(t *testing.T) {
	router := newRouter()

	w := do(t, router, http.MethodGet, "/orders/12", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "order not found", decode[map[string]string](t, w)["error"])

	w = do(t, router, http.MethodGet, "/orders/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodPost, "/orders/12/cancel", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCustomerRoutes(t *testing.T) {
	router := newRouter()
	custID, prodID := seed(t, router)

	w := do(t, router, http.MethodPost, "/customers", gin.H{"name": "Other", "email": "asha@example.com", "phone": "1"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, router, http.MethodPost, "/customers", gin.H{"name": "Bad", "email": "not-an-email", "phone": "1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodPatch, fmt.Sprintf("/customers/%d", custID), gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "nothing to update", decode[map[string]string](t, w)["error"])

	w = do(t, router, http.MethodPatch, fmt.Sprintf("/customers/%d", custID), gin.H{"city": "Goa"})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[models.Customer](t, w)
	require.NotNil(t, updated.City)
	assert.Equal(t, "Goa", *updated.City)

	w = do(t, router, http.MethodGet, "/customers?city=Goa&limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Customer](t, w), 1)

	w = do(t, router, http.MethodGet, "/customers?limit=x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodPost, "/orders", gin.H{"cust_id": custID, "items": []gin.H{{"prod_id": prodID, "quantity": 1}}})
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, router, http.MethodDelete, fmt.Sprintf("/customers/%d", custID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, router, http.MethodGet, "/customers/77", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProductRoutes(t *testing.T) {
	router := newRouter()
	_, prodID := seed(t, router)

	w := do(t, router, http.MethodPost, "/catalog/products", gin.H{"name": "Refund", "price": "-1", "stock": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "price must not be negative", decode[map[string]string](t, w)["error"])

	w = do(t, router, http.MethodPost, "/catalog/products", gin.H{"name": "Free", "price": "0", "stock": 1})
	require.Equal(t, http.StatusCreated, w.Code)
	free := decode[models.Product](t, w)
	assert.True(t, free.Price.IsZero())

	w = do(t, router, http.MethodGet, "/catalog/products", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Product](t, w), 2)

	w = do(t, router, http.MethodDelete, fmt.Sprintf("/catalog/products/%d", prodID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodDelete, fmt.Sprintf("/catalog/products/%d", prodID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, router, http.MethodGet, fmt.Sprintf("/catalog/products/%d", prodID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatusForWrappedErrors(t *testing.T) {
	wrapped := &service.OrderError{Msg: "x", Err: fmt.Errorf("product 1: %w", orders.ErrStockConflict)}
	assert.Equal(t, http.StatusConflict, statusFor(wrapped))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("connection reset")))
}

func TestRequestLoggerRecoversPanics(t *testing.T) {
	router := gin.New()
	router.Use(RequestLogger(zerolog.Nop()))
	router.GET("/boom", func(*gin.Context) { panic("boom") })

	w := do(t, router, http.MethodGet, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
