package handlers

import (
	"net/http"

	service "github.com/aaravmahajanofficial/storefront/internal/services"
	"github.com/aaravmahajanofficial/storefront/internal/utils/response"
)

type AnalyticsHandler struct {
	analyticsService service.AnalyticsService
}

func NewAnalyticsHandler(analyticsService service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// GetAnalytics godoc
//	@Summary	Store totals (admin)
//	@Tags		Admin
//	@Produce	json
//	@Success	200	{object}	models.Analytics
//	@Failure	403	{object}	response.ErrorResponse	"Admin role required"
//	@Security	BearerAuth
//	@Router		/admin/analytics [get]
func (h *AnalyticsHandler) GetAnalytics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		summary, err := h.analyticsService.Summary(r.Context())
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, summary)
	}
}
