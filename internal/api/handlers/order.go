package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	service "github.com/aaravmahajanofficial/storefront/internal/services"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
	"github.com/aaravmahajanofficial/storefront/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	maxIdempotencyKeyLen = 255
)

type OrderHandler struct {
	orderService service.OrderService
	validator    *validator.Validate
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService, validator: validator.New()}
}

// PlaceOrder godoc
//	@Summary		Place an order from the current cart
//	@Description	Converts the caller's cart into an order, decrements stock and empties the cart in one transaction.
//	@Description	Retrying with the same Idempotency-Key returns the first order with status 200.
//	@Tags			Orders
//	@Accept			json
//	@Produce		json
//	@Param			Idempotency-Key	header		string						false	"Client generated retry key"
//	@Param			order			body		models.PlaceOrderRequest	true	"Shipping address and payment receipt"
//	@Success		201				{object}	models.Order				"Order placed"
//	@Success		200				{object}	models.Order				"Replay of an earlier order"
//	@Failure		400				{object}	response.ErrorResponse		"Validation error"
//	@Failure		401				{object}	response.ErrorResponse		"Authentication required"
//	@Failure		404				{object}	response.ErrorResponse		"Cart or address not found"
//	@Failure		409				{object}	response.ErrorResponse		"Insufficient stock"
//	@Failure		422				{object}	response.ErrorResponse		"Cart is empty"
//	@Security		BearerAuth
//	@Router			/orders [post]
func (h *OrderHandler) PlaceOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		identity, ok := requireIdentity(w, r, logger)
		if !ok {
			return
		}

		logger = logger.With(slog.String("userID", identity.UserID.String()))

		key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
		if len(key) > maxIdempotencyKeyLen {
			response.Error(w, errors.BadRequestError("Idempotency-Key is too long"))
			return
		}

		var req models.PlaceOrderRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid place order input")
			return
		}

		result, err := h.orderService.PlaceOrder(r.Context(), identity, &req, key)
		if err != nil {
			logger.Warn("Failed to place order", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		if result.Replayed {
			response.Success(w, http.StatusOK, result.Order)
			return
		}

		logger.Info("Order placed successfully", slog.String("orderId", result.Order.ID.String()))
		response.Success(w, http.StatusCreated, result.Order)
	}
}

// GetOrder godoc
//	@Summary		Get an order by ID
//	@Description	Customers see only their own orders; admins see any.
//	@Tags			Orders
//	@Produce		json
//	@Param			id	path		string					true	"Order ID (UUID)"	Format(uuid)
//	@Success		200	{object}	models.Order
//	@Failure		400	{object}	response.ErrorResponse	"Invalid order ID format"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		404	{object}	response.ErrorResponse	"Order not found"
//	@Security		BearerAuth
//	@Router			/orders/{id} [get]
func (h *OrderHandler) GetOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		identity, ok := requireIdentity(w, r, logger)
		if !ok {
			return
		}

		id, err := utils.ParseID(r, "id")
		if err != nil {
			logger.Warn("Invalid order id", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		order, err := h.orderService.GetOrder(r.Context(), identity, id)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, order)
	}
}

// ListOrders godoc
//	@Summary	List the caller's orders
//	@Tags		Orders
//	@Produce	json
//	@Param		pageNumber	query		int												false	"Zero-based page (default 0)"	minimum(0)
//	@Param		pageSize	query		int												false	"Items per page (default 10, max 100)"
//	@Param		sortBy		query		string											false	"totalAmount, orderDate, status or email"
//	@Param		sortOrder	query		string											false	"asc or desc"
//	@Success	200			{object}	models.PaginatedResponse{Data=[]models.Order}
//	@Failure	400			{object}	response.ErrorResponse	"Bad paging parameters"
//	@Security	BearerAuth
//	@Router		/orders [get]
func (h *OrderHandler) ListOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		identity, ok := requireIdentity(w, r, logger)
		if !ok {
			return
		}

		page, err := utils.ParsePageRequest(r)
		if err != nil {
			response.Error(w, err)
			return
		}

		orders, total, page, err := h.orderService.ListOrders(r.Context(), identity, page)
		if err != nil {
			response.Error(w, err)
			return
		}

		logger.Info("Orders listed successfully", slog.Int("count", len(orders)), slog.Int("total", total))
		response.Success(w, http.StatusOK, models.NewPaginatedResponse(orders, total, page))
	}
}

// ListAllOrders godoc
//	@Summary	List all orders (admin)
//	@Tags		Admin
//	@Produce	json
//	@Param		email		query		string											false	"Only orders of this customer"
//	@Param		pageNumber	query		int												false	"Zero-based page (default 0)"
//	@Param		pageSize	query		int												false	"Items per page (default 10, max 100)"
//	@Param		sortBy		query		string											false	"totalAmount, orderDate, status or email"
//	@Param		sortOrder	query		string											false	"asc or desc"
//	@Success	200			{object}	models.PaginatedResponse{Data=[]models.Order}
//	@Failure	403			{object}	response.ErrorResponse	"Admin role required"
//	@Security	BearerAuth
//	@Router		/admin/orders [get]
func (h *OrderHandler) ListAllOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		page, err := utils.ParsePageRequest(r)
		if err != nil {
			response.Error(w, err)
			return
		}

		email := strings.TrimSpace(r.URL.Query().Get("email"))

		orders, total, page, err := h.orderService.ListAllOrders(r.Context(), email, page)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, models.NewPaginatedResponse(orders, total, page))
	}
}

// UpdateOrderStatus godoc
//	@Summary		Move an order to a new status (admin)
//	@Description	Accepted may become Shipped or Cancelled; Shipped may become Delivered or Cancelled.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"Order ID (UUID)"	Format(uuid)
//	@Param			status	body		models.UpdateOrderStatusRequest	true	"New status"
//	@Success		200		{object}	models.Order
//	@Failure		400		{object}	response.ErrorResponse	"Invalid ID or unknown status"
//	@Failure		404		{object}	response.ErrorResponse	"Order not found"
//	@Failure		422		{object}	response.ErrorResponse	"Transition not allowed"
//	@Security		BearerAuth
//	@Router			/admin/orders/{id}/status [patch]
func (h *OrderHandler) UpdateOrderStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		id, err := utils.ParseID(r, "id")
		if err != nil {
			response.Error(w, err)
			return
		}

		logger = logger.With(slog.String("orderId", id.String()))

		var req models.UpdateOrderStatusRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid update order status input")
			return
		}

		order, err := h.orderService.UpdateOrderStatus(r.Context(), id, req.Status)
		if err != nil {
			logger.Warn("Failed to update order status", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Order status updated successfully", slog.String("status", string(order.Status)))
		response.Success(w, http.StatusOK, order)
	}
}
