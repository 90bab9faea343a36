package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/api/handlers"
	appErrors "github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/services/mocks"
	"github.com/aaravmahajanofficial/storefront/internal/testutils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sampleOrder() *models.Order {
	return &models.Order{
		ID:          uuid.New(),
		Email:       testutils.TestEmail,
		OrderDate:   time.Now().UTC(),
		AddressID:   uuid.New(),
		TotalAmount: decimal.RequireFromString("25.00"),
		Status:      models.OrderStatusAccepted,
		Items: []models.OrderItem{
			{ID: uuid.New(), ProductID: uuid.New(), ProductName: "A", Quantity: 2, Price: decimal.RequireFromString("10.00")},
			{ID: uuid.New(), ProductID: uuid.New(), ProductName: "B", Quantity: 1, Price: decimal.RequireFromString("5.00")},
		},
	}
}

func TestPlaceOrder(t *testing.T) {
	t.Run("Success - Order Created", func(t *testing.T) {
		// Arrange
		mockOrderService := mocks.NewOrderService(t)
		orderHandler := handlers.NewOrderHandler(mockOrderService)
		order := sampleOrder()
		body, _ := json.Marshal(models.PlaceOrderRequest{AddressID: order.AddressID})

		mockOrderService.On("PlaceOrder", mock.Anything, mock.AnythingOfType("models.Identity"), mock.AnythingOfType("*models.PlaceOrderRequest"), "").
			Return(&models.PlaceOrderResult{Order: order}, nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/orders", bytes.NewReader(body), uuid.New(), nil)
		rr := httptest.NewRecorder()

		// Act
		orderHandler.PlaceOrder().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusCreated, rr.Code)

		var got models.Order
		resp := testutils.DecodeResponse(t, rr, &got)
		assert.True(t, resp.Success)
		assert.Equal(t, order.ID, got.ID)
		assert.True(t, order.TotalAmount.Equal(got.TotalAmount))
		assert.Len(t, got.Items, 2)
	})

	t.Run("Success - Replay Returns 200", func(t *testing.T) {
		mockOrderService := mocks.NewOrderService(t)
		orderHandler := handlers.NewOrderHandler(mockOrderService)
		order := sampleOrder()
		body, _ := json.Marshal(models.PlaceOrderRequest{AddressID: order.AddressID})

		mockOrderService.On("PlaceOrder", mock.Anything, mock.Anything, mock.Anything, "retry-123").
			Return(&models.PlaceOrderResult{Order: order, Replayed: true}, nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/orders", bytes.NewReader(body), uuid.New(), nil)
		req.Header.Set(handlers.IdempotencyKeyHeader, " retry-123 ")
		rr := httptest.NewRecorder()

		orderHandler.PlaceOrder().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Failure - Idempotency Key Too Long", func(t *testing.T) {
		orderHandler := handlers.NewOrderHandler(mocks.NewOrderService(t))
		body, _ := json.Marshal(models.PlaceOrderRequest{AddressID: uuid.New()})

		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/orders", bytes.NewReader(body), uuid.New(), nil)
		req.Header.Set(handlers.IdempotencyKeyHeader, strings.Repeat("k", 256))
		rr := httptest.NewRecorder()

		orderHandler.PlaceOrder().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Failure - Missing Address", func(t *testing.T) {
		orderHandler := handlers.NewOrderHandler(mocks.NewOrderService(t))

		rr := httptest.NewRecorder()
		orderHandler.PlaceOrder().ServeHTTP(rr, testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/orders", bytes.NewReader([]byte(`{}`)), uuid.New(), nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, appErrors.ErrCodeValidation, testutils.DecodeResponse(t, rr, nil).Error.Code)
	})

	t.Run("Failure - Unauthorized", func(t *testing.T) {
		mockOrderService := mocks.NewOrderService(t)
		orderHandler := handlers.NewOrderHandler(mockOrderService)
		body, _ := json.Marshal(models.PlaceOrderRequest{AddressID: uuid.New()})

		rr := httptest.NewRecorder()
		orderHandler.PlaceOrder().ServeHTTP(rr, testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/orders", bytes.NewReader(body), nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		mockOrderService.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	errorCases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"Failure - Empty Cart", appErrors.EmptyCartError("Cart has no items"), http.StatusUnprocessableEntity, appErrors.ErrCodeEmptyCart},
		{"Failure - Insufficient Stock", appErrors.InsufficientStockError("Insufficient stock for product A"), http.StatusConflict, appErrors.ErrCodeInsufficientStock},
		{"Failure - Address Not Found", appErrors.EntityNotFoundError("Address", "addressId", uuid.New()), http.StatusNotFound, appErrors.ErrCodeNotFound},
		{"Failure - Database Error", appErrors.DatabaseError("Failed to place order"), http.StatusInternalServerError, appErrors.ErrCodeDatabaseError},
	}

	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			mockOrderService := mocks.NewOrderService(t)
			orderHandler := handlers.NewOrderHandler(mockOrderService)
			body, _ := json.Marshal(models.PlaceOrderRequest{AddressID: uuid.New()})
			mockOrderService.On("PlaceOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, tc.err).Once()

			rr := httptest.NewRecorder()
			orderHandler.PlaceOrder().ServeHTTP(rr, testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/orders", bytes.NewReader(body), uuid.New(), nil))

			assert.Equal(t, tc.status, rr.Code)
			assert.Equal(t, tc.code, testutils.DecodeResponse(t, rr, nil).Error.Code)
		})
	}
}

func TestGetOrder(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockOrderService := mocks.NewOrderService(t)
		orderHandler := handlers.NewOrderHandler(mockOrderService)
		order := sampleOrder()
		mockOrderService.On("GetOrder", mock.Anything, mock.Anything, order.ID).Return(order, nil).Once()

		rr := httptest.NewRecorder()
		orderHandler.GetOrder().ServeHTTP(rr, testutils.CreateTestRequestWithContext(http.MethodGet, "/", nil, uuid.New(), map[string]string{"id": order.ID.String()}))

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Failure - Invalid ID", func(t *testing.T) {
		orderHandler := handlers.NewOrderHandler(mocks.NewOrderService(t))

		rr := httptest.NewRecorder()
		orderHandler.GetOrder().ServeHTTP(rr, testutils.CreateTestRequestWithContext(http.MethodGet, "/", nil, uuid.New(), map[string]string{"id": "123"}))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestListOrders(t *testing.T) {
	t.Run("Success - Paging Passed Through", func(t *testing.T) {
		// Arrange
		mockOrderService := mocks.NewOrderService(t)
		orderHandler := handlers.NewOrderHandler(mockOrderService)
		requested := models.PageRequest{PageNumber: 1, PageSize: 2, SortBy: "orderDate", SortOrder: "desc"}
		applied := requested
		orders := []*models.Order{sampleOrder()}

		mockOrderService.On("ListOrders", mock.Anything, mock.Anything, requested).Return(orders, 3, applied, nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/orders?pageNumber=1&pageSize=2&sortBy=orderDate&sortOrder=DESC", nil, uuid.New(), nil)
		rr := httptest.NewRecorder()

		// Act
		orderHandler.ListOrders().ServeHTTP(rr, req)

		// Assert
		require.Equal(t, http.StatusOK, rr.Code)

		var page models.PaginatedResponse
		testutils.DecodeResponse(t, rr, &page)
		assert.Equal(t, 3, page.Total)
		assert.Equal(t, 2, page.TotalPages)
		assert.True(t, page.LastPage)
	})

	t.Run("Failure - Negative Page", func(t *testing.T) {
		orderHandler := handlers.NewOrderHandler(mocks.NewOrderService(t))

		rr := httptest.NewRecorder()
		orderHandler.ListOrders().ServeHTTP(rr, testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/orders?pageNumber=-1", nil, uuid.New(), nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestListAllOrders(t *testing.T) {
	mockOrderService := mocks.NewOrderService(t)
	orderHandler := handlers.NewOrderHandler(mockOrderService)
	page := models.PageRequest{PageSize: 10, SortBy: "totalAmount", SortOrder: "asc"}
	mockOrderService.On("ListAllOrders", mock.Anything, "buyer@example.com", models.PageRequest{}).Return([]*models.Order{}, 0, page, nil).Once()

	rr := httptest.NewRecorder()
	orderHandler.ListAllOrders().ServeHTTP(rr, testutils.CreateTestRequestWithoutContext(http.MethodGet, "/api/v1/admin/orders?email=buyer@example.com", nil, nil))

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestUpdateOrderStatus(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockOrderService := mocks.NewOrderService(t)
		orderHandler := handlers.NewOrderHandler(mockOrderService)
		order := sampleOrder()
		order.Status = models.OrderStatusShipped
		mockOrderService.On("UpdateOrderStatus", mock.Anything, order.ID, models.OrderStatusShipped).Return(order, nil).Once()

		rr := httptest.NewRecorder()
		req := testutils.CreateTestRequestWithoutContext(http.MethodPatch, "/", bytes.NewReader([]byte(`{"status":"Shipped"}`)), map[string]string{"id": order.ID.String()})
		orderHandler.UpdateOrderStatus().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Failure - Unknown Status", func(t *testing.T) {
		orderHandler := handlers.NewOrderHandler(mocks.NewOrderService(t))

		rr := httptest.NewRecorder()
		req := testutils.CreateTestRequestWithoutContext(http.MethodPatch, "/", bytes.NewReader([]byte(`{"status":"Lost"}`)), map[string]string{"id": uuid.NewString()})
		orderHandler.UpdateOrderStatus().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Failure - Illegal Transition", func(t *testing.T) {
		mockOrderService := mocks.NewOrderService(t)
		orderHandler := handlers.NewOrderHandler(mockOrderService)
		id := uuid.New()
		mockOrderService.On("UpdateOrderStatus", mock.Anything, id, models.OrderStatusDelivered).
			Return(nil, appErrors.InvalidStateError("Order cannot move from Accepted to Delivered")).Once()

		rr := httptest.NewRecorder()
		req := testutils.CreateTestRequestWithoutContext(http.MethodPatch, "/", bytes.NewReader([]byte(`{"status":"Delivered"}`)), map[string]string{"id": id.String()})
		orderHandler.UpdateOrderStatus().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})
}
