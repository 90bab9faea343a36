// Package service holds the cart mutation engine, the checkout
// coordinator and the thin catalog, address and analytics services
// around them.
package service

import (
	"fmt"
	"strings"

	appErrors "github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/metrics"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("github.com/aaravmahajanofficial/storefront/internal/services")

var (
	orderSortFields = map[string]bool{
		models.OrderSortTotalAmount: true,
		models.OrderSortOrderDate:   true,
		models.OrderSortStatus:      true,
		models.OrderSortEmail:       true,
	}
	productSortFields = map[string]bool{
		models.ProductSortName:      true,
		models.ProductSortPrice:     true,
		models.ProductSortStock:     true,
		models.ProductSortCreatedAt: true,
	}
)

// normalizePage fills defaults, caps the page size and rejects sort fields
// outside allowed.
func normalizePage(page models.PageRequest, defaultSort string, allowed map[string]bool) (models.PageRequest, error) {
	if page.PageNumber < 0 {
		page.PageNumber = 0
	}

	if page.PageSize <= 0 {
		page.PageSize = models.DefaultPageSize
	}

	page.PageSize = min(page.PageSize, models.MaxPageSize)

	if page.SortBy == "" {
		page.SortBy = defaultSort
	}

	if !allowed[page.SortBy] {
		return page, appErrors.BadRequestError(fmt.Sprintf("Unsupported sortBy field: %s", page.SortBy))
	}

	switch strings.ToLower(page.SortOrder) {
	case "", models.SortAsc:
		page.SortOrder = models.SortAsc
	case models.SortDesc:
		page.SortOrder = models.SortDesc
	default:
		return page, appErrors.BadRequestError(fmt.Sprintf("Unsupported sortOrder: %s", page.SortOrder))
	}

	return page, nil
}

// storeError passes AppErrors through and wraps anything else, such as a
// failed commit, as a database error.
func storeError(err error, message string) error {
	if err == nil {
		return nil
	}

	if _, ok := appErrors.IsAppError(err); ok {
		return err
	}

	return appErrors.DatabaseError(message).WithError(err)
}

func outcomeOf(err error) string {
	if err == nil {
		return metrics.OutcomeSuccess
	}

	if appErr, ok := appErrors.IsAppError(err); ok && appErr.StatusCode < 500 {
		return metrics.OutcomeRejected
	}

	return metrics.OutcomeError
}
