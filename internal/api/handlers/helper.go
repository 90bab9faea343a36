package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/utils/response"
)

// requireIdentity writes 401 and returns false when the request carries no
// authenticated caller.
func requireIdentity(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (models.Identity, bool) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		logger.Warn("Unauthorized request: missing user claims", slog.String("path", r.URL.Path))
		response.Error(w, errors.UnauthorizedError("Authentication required"))

		return models.Identity{}, false
	}

	return identity, true
}
