package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	service "github.com/aaravmahajanofficial/storefront/internal/services"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
	"github.com/aaravmahajanofficial/storefront/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type CartHandler struct {
	cartService service.CartService
	validator   *validator.Validate
}

func NewCartHandler(cartService service.CartService) *CartHandler {
	return &CartHandler{cartService: cartService, validator: validator.New()}
}

// GetCart godoc
//	@Summary		Get the current user's cart
//	@Tags			Carts
//	@Produce		json
//	@Success		200	{object}	models.Cart				"Cart with its items"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		404	{object}	response.ErrorResponse	"User has no cart yet"
//	@Security		BearerAuth
//	@Router			/carts/me [get]
func (h *CartHandler) GetCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		identity, ok := requireIdentity(w, r, logger)
		if !ok {
			return
		}

		cart, err := h.cartService.GetCart(r.Context(), identity)
		if err != nil {
			logger.Warn("Failed to get cart", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, cart)
	}
}

// AddItem godoc
//	@Summary		Add a product to the cart
//	@Description	Creates the cart on first use. The unit price is captured at add time.
//	@Tags			Carts
//	@Accept			json
//	@Produce		json
//	@Param			item	body		models.AddItemRequest	true	"Product and quantity"
//	@Success		200		{object}	models.Cart
//	@Failure		400		{object}	response.ErrorResponse	"Validation error"
//	@Failure		404		{object}	response.ErrorResponse	"Product not found"
//	@Failure		409		{object}	response.ErrorResponse	"Product already in cart or out of stock"
//	@Security		BearerAuth
//	@Router			/carts/items [post]
func (h *CartHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		identity, ok := requireIdentity(w, r, logger)
		if !ok {
			return
		}

		var req models.AddItemRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid add item input")
			return
		}

		cart, err := h.cartService.AddItem(r.Context(), identity, &req)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, cart)
	}
}

// AdjustItem godoc
//	@Summary		Change the quantity of a cart item
//	@Description	Applies delta, or +1/-1 for operation add/delete. Reaching zero removes the item.
//	@Tags			Carts
//	@Accept			json
//	@Produce		json
//	@Param			productId	path		string							true	"Product ID (UUID)"	Format(uuid)
//	@Param			change		body		models.AdjustQuantityRequest	true	"Delta or operation"
//	@Success		200			{object}	models.Cart
//	@Failure		400			{object}	response.ErrorResponse	"Missing delta"
//	@Failure		404			{object}	response.ErrorResponse	"Cart, item or product not found"
//	@Failure		409			{object}	response.ErrorResponse	"Out of stock"
//	@Failure		422			{object}	response.ErrorResponse	"Quantity would go below zero"
//	@Security		BearerAuth
//	@Router			/carts/items/{productId} [patch]
func (h *CartHandler) AdjustItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		identity, ok := requireIdentity(w, r, logger)
		if !ok {
			return
		}

		productID, err := utils.ParseID(r, "productId")
		if err != nil {
			response.Error(w, err)
			return
		}

		var req models.AdjustQuantityRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		cart, err := h.cartService.AdjustQuantity(r.Context(), identity, productID, &req)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, cart)
	}
}

// RemoveItem godoc
//	@Summary	Remove a product from the cart
//	@Tags		Carts
//	@Produce	json
//	@Param		cartId		path		string	true	"Cart ID (UUID)"	Format(uuid)
//	@Param		productId	path		string	true	"Product ID (UUID)"	Format(uuid)
//	@Success	200			{object}	models.RemoveItemResponse
//	@Failure	404			{object}	response.ErrorResponse	"Cart not found"
//	@Failure	409			{object}	response.ErrorResponse	"Product not in cart"
//	@Security	BearerAuth
//	@Router		/carts/{cartId}/items/{productId} [delete]
func (h *CartHandler) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		identity, ok := requireIdentity(w, r, logger)
		if !ok {
			return
		}

		cartID, err := utils.ParseID(r, "cartId")
		if err != nil {
			response.Error(w, err)
			return
		}

		productID, err := utils.ParseID(r, "productId")
		if err != nil {
			response.Error(w, err)
			return
		}

		resp, err := h.cartService.RemoveItem(r.Context(), identity, cartID, productID)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, resp)
	}
}

// SyncCart godoc
//	@Summary		Replace the cart contents
//	@Description	Replaces every line at current catalog prices. Repeated products are merged.
//	@Tags			Carts
//	@Accept			json
//	@Produce		json
//	@Param			cart	body		models.SyncCartRequest	true	"Desired lines"
//	@Success		200		{object}	models.Cart
//	@Failure		404		{object}	response.ErrorResponse	"Product not found"
//	@Failure		409		{object}	response.ErrorResponse	"Out of stock"
//	@Security		BearerAuth
//	@Router			/carts [put]
func (h *CartHandler) SyncCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		identity, ok := requireIdentity(w, r, logger)
		if !ok {
			return
		}

		var req models.SyncCartRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		cart, err := h.cartService.SyncCart(r.Context(), identity, &req)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, cart)
	}
}

// ListCarts godoc
//	@Summary	List every cart (admin)
//	@Tags		Admin
//	@Produce	json
//	@Success	200	{array}		models.Cart
//	@Failure	403	{object}	response.ErrorResponse	"Admin role required"
//	@Failure	404	{object}	response.ErrorResponse	"No cart exists"
//	@Security	BearerAuth
//	@Router		/admin/carts [get]
func (h *CartHandler) ListCarts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		carts, err := h.cartService.ListCarts(r.Context())
		if err != nil {
			response.Error(w, err)
			return
		}

		middleware.LoggerFromContext(r.Context()).Info("Carts listed", slog.Int("count", len(carts)))
		response.Success(w, http.StatusOK, carts)
	}
}
