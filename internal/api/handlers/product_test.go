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

func TestCreateProduct(t *testing.T) {
	t.Run("Success - Product Created", func(t *testing.T) {
		// Arrange
		mockProductService := mocks.NewProductService(t)
		productHandler := handlers.NewProductHandler(mockProductService)
		createReq := models.CreateProductRequest{
			CategoryName:  "Books",
			Name:          "Go in Practice",
			Price:         decimal.RequireFromString("39.95"),
			StockQuantity: 5,
		}
		expected := &models.Product{ID: uuid.New(), CategoryName: "Books", Name: createReq.Name, Price: createReq.Price, StockQuantity: 5}

		mockProductService.On("CreateProduct", mock.Anything, mock.AnythingOfType("*models.CreateProductRequest")).Return(expected, nil).Once()

		body, _ := json.Marshal(createReq)
		rr := httptest.NewRecorder()

		// Act
		productHandler.CreateProduct().ServeHTTP(rr, testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/products", bytes.NewReader(body), nil))

		// Assert
		assert.Equal(t, http.StatusCreated, rr.Code)

		var got models.Product
		testutils.DecodeResponse(t, rr, &got)
		assert.Equal(t, expected.ID, got.ID)
		assert.True(t, expected.Price.Equal(got.Price))
	})

	t.Run("Failure - Name Too Short", func(t *testing.T) {
		productHandler := handlers.NewProductHandler(mocks.NewProductService(t))
		body, _ := json.Marshal(models.CreateProductRequest{CategoryName: "Books", Name: "Go"})

		rr := httptest.NewRecorder()
		productHandler.CreateProduct().ServeHTTP(rr, testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/products", bytes.NewReader(body), nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestGetProduct(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockProductService := mocks.NewProductService(t)
		productHandler := handlers.NewProductHandler(mockProductService)
		product := &models.Product{ID: uuid.New(), Name: "Lamp", Price: decimal.RequireFromString("20")}
		mockProductService.On("GetProductByID", mock.Anything, product.ID).Return(product, nil).Once()

		rr := httptest.NewRecorder()
		productHandler.GetProduct().ServeHTTP(rr, testutils.CreateTestRequestWithoutContext(http.MethodGet, "/", nil, map[string]string{"id": product.ID.String()}))

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Failure - Not Found", func(t *testing.T) {
		mockProductService := mocks.NewProductService(t)
		productHandler := handlers.NewProductHandler(mockProductService)
		id := uuid.New()
		mockProductService.On("GetProductByID", mock.Anything, id).Return(nil, appErrors.EntityNotFoundError("Product", "productId", id)).Once()

		rr := httptest.NewRecorder()
		productHandler.GetProduct().ServeHTTP(rr, testutils.CreateTestRequestWithoutContext(http.MethodGet, "/", nil, map[string]string{"id": id.String()}))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestUpdateProduct(t *testing.T) {
	mockProductService := mocks.NewProductService(t)
	productHandler := handlers.NewProductHandler(mockProductService)
	id := uuid.New()
	mockProductService.On("UpdateProduct", mock.Anything, id, mock.MatchedBy(func(req *models.UpdateProductRequest) bool {
		return req.Price != nil && req.Price.Equal(decimal.RequireFromString("12.5")) && req.Name == nil
	})).Return(&models.Product{ID: id}, nil).Once()

	rr := httptest.NewRecorder()
	req := testutils.CreateTestRequestWithoutContext(http.MethodPut, "/", bytes.NewReader([]byte(`{"price":"12.5"}`)), map[string]string{"id": id.String()})
	productHandler.UpdateProduct().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestDeleteProduct(t *testing.T) {
	t.Run("Success - No Content", func(t *testing.T) {
		mockProductService := mocks.NewProductService(t)
		productHandler := handlers.NewProductHandler(mockProductService)
		id := uuid.New()
		mockProductService.On("DeleteProduct", mock.Anything, id).Return(nil).Once()

		rr := httptest.NewRecorder()
		productHandler.DeleteProduct().ServeHTTP(rr, testutils.CreateTestRequestWithoutContext(http.MethodDelete, "/", nil, map[string]string{"id": id.String()}))

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Empty(t, rr.Body.Bytes())
	})

	t.Run("Failure - Not Found", func(t *testing.T) {
		mockProductService := mocks.NewProductService(t)
		productHandler := handlers.NewProductHandler(mockProductService)
		id := uuid.New()
		mockProductService.On("DeleteProduct", mock.Anything, id).Return(appErrors.EntityNotFoundError("Product", "productId", id)).Once()

		rr := httptest.NewRecorder()
		productHandler.DeleteProduct().ServeHTTP(rr, testutils.CreateTestRequestWithoutContext(http.MethodDelete, "/", nil, map[string]string{"id": id.String()}))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestListProducts(t *testing.T) {
	mockProductService := mocks.NewProductService(t)
	productHandler := handlers.NewProductHandler(mockProductService)
	applied := models.PageRequest{PageSize: 10, SortBy: models.ProductSortName, SortOrder: models.SortAsc}
	products := []*models.Product{{ID: uuid.New(), Name: "Apple"}, {ID: uuid.New(), Name: "Banana"}}
	mockProductService.On("ListProducts", mock.Anything, models.PageRequest{}).Return(products, 2, applied, nil).Once()

	rr := httptest.NewRecorder()
	productHandler.ListProducts().ServeHTTP(rr, testutils.CreateTestRequestWithoutContext(http.MethodGet, "/api/v1/products", nil, nil))

	assert.Equal(t, http.StatusOK, rr.Code)

	var page models.PaginatedResponse
	testutils.DecodeResponse(t, rr, &page)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 10, page.PageSize)
	assert.Len(t, page.Data, 2)
}
