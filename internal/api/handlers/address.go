package handlers

import (
	"net/http"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	service "github.com/aaravmahajanofficial/storefront/internal/services"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
	"github.com/aaravmahajanofficial/storefront/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type AddressHandler struct {
	addressService service.AddressService
	validator      *validator.Validate
}

func NewAddressHandler(addressService service.AddressService) *AddressHandler {
	return &AddressHandler{addressService: addressService, validator: validator.New()}
}

// CreateAddress godoc
//	@Summary	Save a shipping address
//	@Tags		Addresses
//	@Accept		json
//	@Produce	json
//	@Param		address	body		models.CreateAddressRequest	true	"Address"
//	@Success	201		{object}	models.Address
//	@Failure	400		{object}	response.ErrorResponse	"Validation error"
//	@Security	BearerAuth
//	@Router		/addresses [post]
func (h *AddressHandler) CreateAddress() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		identity, ok := requireIdentity(w, r, middleware.LoggerFromContext(r.Context()))
		if !ok {
			return
		}

		var req models.CreateAddressRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		address, err := h.addressService.CreateAddress(r.Context(), identity, &req)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusCreated, address)
	}
}

// GetAddress godoc
//	@Summary	Get one of the caller's addresses
//	@Tags		Addresses
//	@Produce	json
//	@Param		id	path		string	true	"Address ID (UUID)"	Format(uuid)
//	@Success	200	{object}	models.Address
//	@Failure	404	{object}	response.ErrorResponse	"Address not found"
//	@Security	BearerAuth
//	@Router		/addresses/{id} [get]
func (h *AddressHandler) GetAddress() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		identity, ok := requireIdentity(w, r, middleware.LoggerFromContext(r.Context()))
		if !ok {
			return
		}

		id, err := utils.ParseID(r, "id")
		if err != nil {
			response.Error(w, err)
			return
		}

		address, err := h.addressService.GetAddress(r.Context(), identity, id)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, address)
	}
}

// ListAddresses godoc
//	@Summary	List the caller's addresses
//	@Tags		Addresses
//	@Produce	json
//	@Success	200	{array}	models.Address
//	@Security	BearerAuth
//	@Router		/addresses [get]
func (h *AddressHandler) ListAddresses() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		identity, ok := requireIdentity(w, r, middleware.LoggerFromContext(r.Context()))
		if !ok {
			return
		}

		addresses, err := h.addressService.ListAddresses(r.Context(), identity)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, addresses)
	}
}
