package service

import (
	"context"
	"log/slog"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/cache"
	appErrors "github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
)

type AnalyticsService interface {
	Summary(ctx context.Context) (*models.Analytics, error)
}

type analyticsService struct {
	store repository.Store
	cache cache.Cache
}

func NewAnalyticsService(store repository.Store, c cache.Cache) AnalyticsService {
	return &analyticsService{store: store, cache: c}
}

func (s *analyticsService) Summary(ctx context.Context) (*models.Analytics, error) {
	logger := middleware.LoggerFromContext(ctx)

	var cached models.Analytics
	if found, err := s.cache.Get(ctx, cache.AnalyticsKey, &cached); err != nil {
		logger.Warn("Analytics cache read failed", slog.Any("error", err))
	} else if found {
		return &cached, nil
	}

	repos := s.store.Repositories()

	productCount, err := repos.Products.CountProducts(ctx)
	if err != nil {
		return nil, appErrors.DatabaseError("Failed to count products").WithError(err)
	}

	orderCount, err := repos.Orders.CountOrders(ctx)
	if err != nil {
		return nil, appErrors.DatabaseError("Failed to count orders").WithError(err)
	}

	revenue, err := repos.Orders.TotalRevenue(ctx)
	if err != nil {
		return nil, appErrors.DatabaseError("Failed to compute revenue").WithError(err)
	}

	summary := &models.Analytics{
		ProductCount: productCount,
		TotalOrders:  orderCount,
		TotalRevenue: revenue,
	}

	if err := s.cache.Set(ctx, cache.AnalyticsKey, summary, 0); err != nil {
		logger.Warn("Analytics cache write failed", slog.Any("error", err))
	}

	return summary, nil
}
