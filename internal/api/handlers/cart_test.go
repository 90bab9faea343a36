package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aaravmahajanofficial/storefront/internal/api/handlers"
	appErrors "github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/services/mocks"
	"github.com/aaravmahajanofficial/storefront/internal/testutils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// setupCartTest -> creates common test dependencies
func setupCartTest(t *testing.T) (*mocks.CartService, *handlers.CartHandler) {
	mockCartService := mocks.NewCartService(t)
	return mockCartService, handlers.NewCartHandler(mockCartService)
}

func sampleCart(userID uuid.UUID) *models.Cart {
	return &models.Cart{
		ID:         uuid.New(),
		UserID:     userID,
		Email:      testutils.TestEmail,
		TotalPrice: decimal.RequireFromString("25.00"),
		Items: []models.CartItem{
			{ID: uuid.New(), ProductID: uuid.New(), ProductName: "A", Quantity: 2, Price: decimal.RequireFromString("10.00")},
			{ID: uuid.New(), ProductID: uuid.New(), ProductName: "B", Quantity: 1, Price: decimal.RequireFromString("5.00")},
		},
	}
}

func TestGetCart(t *testing.T) {
	t.Run("Success - Retrieve Cart", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartTest(t)
		userID := uuid.New()
		cart := sampleCart(userID)
		mockCartService.On("GetCart", mock.Anything, models.Identity{UserID: userID, Email: testutils.TestEmail, Role: models.RoleCustomer}).Return(cart, nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/carts/me", nil, userID, nil)
		rr := httptest.NewRecorder()

		// Act
		cartHandler.GetCart().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusOK, rr.Code)

		var got models.Cart
		resp := testutils.DecodeResponse(t, rr, &got)
		assert.True(t, resp.Success)
		assert.Equal(t, cart.ID, got.ID)
		assert.Len(t, got.Items, 2)
		assert.True(t, cart.TotalPrice.Equal(got.TotalPrice))
	})

	t.Run("Failure - Unauthorized", func(t *testing.T) {
		mockCartService, cartHandler := setupCartTest(t)
		req := testutils.CreateTestRequestWithoutContext(http.MethodGet, "/api/v1/carts/me", nil, nil)
		rr := httptest.NewRecorder()

		cartHandler.GetCart().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		mockCartService.AssertNotCalled(t, "GetCart", mock.Anything, mock.Anything)
	})

	t.Run("Failure - No Cart", func(t *testing.T) {
		mockCartService, cartHandler := setupCartTest(t)
		userID := uuid.New()
		mockCartService.On("GetCart", mock.Anything, mock.Anything).Return(nil, appErrors.EntityNotFoundError("Cart", "userId", userID)).Once()

		rr := httptest.NewRecorder()
		cartHandler.GetCart().ServeHTTP(rr, testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/carts/me", nil, userID, nil))

		assert.Equal(t, http.StatusNotFound, rr.Code)
		resp := testutils.DecodeResponse(t, rr, nil)
		assert.False(t, resp.Success)
		assert.Equal(t, appErrors.ErrCodeNotFound, resp.Error.Code)
	})
}

func TestAddItem(t *testing.T) {
	t.Run("Success - Item Added", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartTest(t)
		userID := uuid.New()
		productID := uuid.New()
		body, _ := json.Marshal(models.AddItemRequest{ProductID: productID, Quantity: 2})

		mockCartService.On("AddItem", mock.Anything, mock.AnythingOfType("models.Identity"), &models.AddItemRequest{ProductID: productID, Quantity: 2}).
			Return(sampleCart(userID), nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/carts/items", bytes.NewReader(body), userID, nil)
		rr := httptest.NewRecorder()

		// Act
		cartHandler.AddItem().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Failure - Validation Error", func(t *testing.T) {
		mockCartService, cartHandler := setupCartTest(t)
		body, _ := json.Marshal(models.AddItemRequest{ProductID: uuid.New(), Quantity: 0})

		rr := httptest.NewRecorder()
		cartHandler.AddItem().ServeHTTP(rr, testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/carts/items", bytes.NewReader(body), uuid.New(), nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockCartService.AssertNotCalled(t, "AddItem", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failure - Duplicate Product", func(t *testing.T) {
		mockCartService, cartHandler := setupCartTest(t)
		body, _ := json.Marshal(models.AddItemRequest{ProductID: uuid.New(), Quantity: 1})
		mockCartService.On("AddItem", mock.Anything, mock.Anything, mock.Anything).Return(nil, appErrors.ConflictError("Product A already exists in the cart")).Once()

		rr := httptest.NewRecorder()
		cartHandler.AddItem().ServeHTTP(rr, testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/carts/items", bytes.NewReader(body), uuid.New(), nil))

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, appErrors.ErrCodeConflict, testutils.DecodeResponse(t, rr, nil).Error.Code)
	})

	t.Run("Failure - Out Of Stock", func(t *testing.T) {
		mockCartService, cartHandler := setupCartTest(t)
		body, _ := json.Marshal(models.AddItemRequest{ProductID: uuid.New(), Quantity: 9})
		mockCartService.On("AddItem", mock.Anything, mock.Anything, mock.Anything).Return(nil, appErrors.OutOfStockError("Product A has 1 in stock, 9 requested")).Once()

		rr := httptest.NewRecorder()
		cartHandler.AddItem().ServeHTTP(rr, testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/carts/items", bytes.NewReader(body), uuid.New(), nil))

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, appErrors.ErrCodeOutOfStock, testutils.DecodeResponse(t, rr, nil).Error.Code)
	})
}

func TestAdjustItem(t *testing.T) {
	t.Run("Success - Operation Shorthand", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartTest(t)
		userID := uuid.New()
		productID := uuid.New()
		body := []byte(`{"operation":"add"}`)

		mockCartService.On("AdjustQuantity", mock.Anything, mock.Anything, productID, &models.AdjustQuantityRequest{Operation: "add"}).
			Return(sampleCart(userID), nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodPatch, "/api/v1/carts/items/"+productID.String(), bytes.NewReader(body), userID, map[string]string{"productId": productID.String()})
		rr := httptest.NewRecorder()

		// Act
		cartHandler.AdjustItem().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Failure - Unknown Operation", func(t *testing.T) {
		_, cartHandler := setupCartTest(t)
		productID := uuid.New()

		rr := httptest.NewRecorder()
		req := testutils.CreateTestRequestWithContext(http.MethodPatch, "/", bytes.NewReader([]byte(`{"operation":"double"}`)), uuid.New(), map[string]string{"productId": productID.String()})
		cartHandler.AdjustItem().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Failure - Invalid Product ID", func(t *testing.T) {
		_, cartHandler := setupCartTest(t)

		rr := httptest.NewRecorder()
		req := testutils.CreateTestRequestWithContext(http.MethodPatch, "/", bytes.NewReader([]byte(`{"delta":1}`)), uuid.New(), map[string]string{"productId": "not-a-uuid"})
		cartHandler.AdjustItem().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Failure - Below Zero", func(t *testing.T) {
		mockCartService, cartHandler := setupCartTest(t)
		productID := uuid.New()
		mockCartService.On("AdjustQuantity", mock.Anything, mock.Anything, productID, mock.Anything).Return(nil, appErrors.InvalidStateError("Quantity cannot go below zero")).Once()

		rr := httptest.NewRecorder()
		req := testutils.CreateTestRequestWithContext(http.MethodPatch, "/", bytes.NewReader([]byte(`{"delta":-5}`)), uuid.New(), map[string]string{"productId": productID.String()})
		cartHandler.AdjustItem().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})
}

func TestRemoveItem(t *testing.T) {
	t.Run("Success - Item Removed", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartTest(t)
		cartID, productID := uuid.New(), uuid.New()
		mockCartService.On("RemoveItem", mock.Anything, mock.Anything, cartID, productID).
			Return(&models.RemoveItemResponse{Message: "Product A removed from the cart"}, nil).Once()

		params := map[string]string{"cartId": cartID.String(), "productId": productID.String()}
		req := testutils.CreateTestRequestWithContext(http.MethodDelete, "/", nil, uuid.New(), params)
		rr := httptest.NewRecorder()

		// Act
		cartHandler.RemoveItem().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusOK, rr.Code)

		var got models.RemoveItemResponse
		testutils.DecodeResponse(t, rr, &got)
		assert.Equal(t, "Product A removed from the cart", got.Message)
	})

	t.Run("Failure - Missing Cart ID", func(t *testing.T) {
		_, cartHandler := setupCartTest(t)

		rr := httptest.NewRecorder()
		cartHandler.RemoveItem().ServeHTTP(rr, testutils.CreateTestRequestWithContext(http.MethodDelete, "/", nil, uuid.New(), map[string]string{"productId": uuid.NewString()}))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestSyncCart(t *testing.T) {
	mockCartService, cartHandler := setupCartTest(t)
	userID := uuid.New()
	productID := uuid.New()
	body, _ := json.Marshal(models.SyncCartRequest{Items: []models.SyncCartItem{{ProductID: productID, Quantity: 3}}})

	mockCartService.On("SyncCart", mock.Anything, mock.Anything, mock.MatchedBy(func(req *models.SyncCartRequest) bool {
		return len(req.Items) == 1 && req.Items[0].ProductID == productID
	})).Return(sampleCart(userID), nil).Once()

	rr := httptest.NewRecorder()
	cartHandler.SyncCart().ServeHTTP(rr, testutils.CreateTestRequestWithContext(http.MethodPut, "/api/v1/carts", bytes.NewReader(body), userID, nil))

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestListCarts(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockCartService, cartHandler := setupCartTest(t)
		mockCartService.On("ListCarts", mock.Anything).Return([]*models.Cart{sampleCart(uuid.New())}, nil).Once()

		rr := httptest.NewRecorder()
		cartHandler.ListCarts().ServeHTTP(rr, testutils.CreateTestRequestWithoutContext(http.MethodGet, "/api/v1/admin/carts", nil, nil))

		assert.Equal(t, http.StatusOK, rr.Code)

		var got []models.Cart
		testutils.DecodeResponse(t, rr, &got)
		assert.Len(t, got, 1)
	})

	t.Run("Failure - No Cart Exists", func(t *testing.T) {
		mockCartService, cartHandler := setupCartTest(t)
		mockCartService.On("ListCarts", mock.Anything).Return(nil, appErrors.NotFoundError("No cart exists")).Once()

		rr := httptest.NewRecorder()
		cartHandler.ListCarts().ServeHTTP(rr, testutils.CreateTestRequestWithoutContext(http.MethodGet, "/api/v1/admin/carts", nil, nil))

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "No cart exists", testutils.DecodeResponse(t, rr, nil).Error.Message)
	})
}
