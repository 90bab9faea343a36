package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/aaravmahajanofficial/storefront/docs"
	"github.com/aaravmahajanofficial/storefront/internal/api/handlers"
	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/cache"
	"github.com/aaravmahajanofficial/storefront/internal/config"
	"github.com/aaravmahajanofficial/storefront/internal/events"
	"github.com/aaravmahajanofficial/storefront/internal/health"
	"github.com/aaravmahajanofficial/storefront/internal/metrics"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/aaravmahajanofficial/storefront/internal/repositories/memory"
	service "github.com/aaravmahajanofficial/storefront/internal/services"
	"github.com/aaravmahajanofficial/storefront/internal/telemetry"
	"github.com/aaravmahajanofficial/storefront/pkg/sendgrid"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {

	// Logger setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load config
	cfg := config.MustLoad()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.Otel)
	if err != nil {
		slog.Error("Error initializing tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			slog.Error("Error flushing traces", slog.String("error", err.Error()))
		}
	}()

	// Storage setup
	store, closeStore, err := openStore(cfg)
	if err != nil {
		slog.Error("Error accessing the database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeStore()

	// Redis setup
	redisClient, err := repository.NewRedisClient(cfg)
	if err != nil {
		slog.Error("Error accessing the redis instance", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer redisClient.Close()

	productCache := cache.NewRedisCache(redisClient, cfg.Cache)
	rateLimiter := repository.NewRateLimiter(redisClient, cfg.RateConfig)

	healthHandler, err := health.NewHealthHandler(cfg)
	if err != nil {
		slog.Error("Error creating health checks", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cartService := service.NewCartService(store)
	orderService := service.NewOrderService(store)
	productService := service.NewProductService(store, productCache)
	addressService := service.NewAddressService(store.Repositories().Addresses)
	analyticsService := service.NewAnalyticsService(store, productCache)

	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(orderService)
	productHandler := handlers.NewProductHandler(productService)
	addressHandler := handlers.NewAddressHandler(addressService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	authMiddleware := middleware.NewAuthMiddleware([]byte(cfg.Security.JWTKey))

	slog.Info("storage initialized",
		slog.String("env", cfg.Env),
		slog.String("driver", cfg.StorageDriver),
		slog.String("version", "1.0.0"),
	)

	// Setup router
	routerMux := http.NewServeMux()

	route := func(pattern string, h http.Handler) {
		routerMux.Handle(pattern, metrics.Middleware(h))
	}
	user := authMiddleware.Authenticate
	admin := func(h http.Handler) http.Handler {
		return authMiddleware.Authenticate(authMiddleware.RequireRole(models.RoleAdmin, h))
	}
	limited := func(h http.Handler) http.Handler {
		return middleware.RateLimit(rateLimiter, h)
	}

	// Carts
	route("GET /api/v1/carts/me", user(cartHandler.GetCart()))
	route("POST /api/v1/carts/items", user(limited(cartHandler.AddItem())))
	route("PATCH /api/v1/carts/items/{productId}", user(limited(cartHandler.AdjustItem())))
	route("DELETE /api/v1/carts/{cartId}/items/{productId}", user(limited(cartHandler.RemoveItem())))
	route("PUT /api/v1/carts", user(limited(cartHandler.SyncCart())))

	// Orders
	route("POST /api/v1/orders", user(limited(orderHandler.PlaceOrder())))
	route("GET /api/v1/orders", user(orderHandler.ListOrders()))
	route("GET /api/v1/orders/{id}", user(orderHandler.GetOrder()))

	// Catalog
	route("GET /api/v1/products", productHandler.ListProducts())
	route("GET /api/v1/products/{id}", productHandler.GetProduct())
	route("POST /api/v1/products", admin(productHandler.CreateProduct()))
	route("PUT /api/v1/products/{id}", admin(productHandler.UpdateProduct()))
	route("DELETE /api/v1/products/{id}", admin(productHandler.DeleteProduct()))

	// Addresses
	route("POST /api/v1/addresses", user(addressHandler.CreateAddress()))
	route("GET /api/v1/addresses", user(addressHandler.ListAddresses()))
	route("GET /api/v1/addresses/{id}", user(addressHandler.GetAddress()))

	// Admin
	route("GET /api/v1/admin/carts", admin(cartHandler.ListCarts()))
	route("GET /api/v1/admin/orders", admin(orderHandler.ListAllOrders()))
	route("PATCH /api/v1/admin/orders/{id}/status", admin(orderHandler.UpdateOrderStatus()))
	route("GET /api/v1/admin/analytics", admin(analyticsHandler.GetAnalytics()))

	// Ops
	routerMux.Handle("GET /health", healthHandler.Handler())
	routerMux.Handle("GET /metrics", metrics.Handler())
	routerMux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Outbox relay
	sinks := []events.Sink{}
	if cfg.Kafka.Enabled() {
		kafkaSink := events.NewKafkaSink(cfg.Kafka)
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
	}
	if cfg.SendGrid.Enabled() {
		emailService := sendgrid.NewEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)
		sinks = append(sinks, events.NewEmailSink(emailService))
	}

	relayDone := make(chan struct{})
	if len(sinks) > 0 {
		relay := events.NewRelay(store, cfg.Kafka, logger, sinks...)
		go func() {
			defer close(relayDone)
			relay.Run(ctx)
		}()
	} else {
		// Events stay pending until a sink is configured.
		slog.Warn("No outbox sinks configured, relay disabled")
		close(relayDone)
	}

	// Setup server
	server := http.Server{
		Addr:         cfg.Addr,
		Handler:      otelhttp.NewHandler(middleware.Logging(routerMux), cfg.Otel.ServiceName),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	slog.Info("Server starting", slog.String("address", cfg.Addr))

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down the server")
	case err := <-serverErr:
		slog.Error("Failed to start the server", slog.String("error", err.Error()))
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Failed to shutdown the server", slog.String("error", err.Error()))
	}

	select {
	case <-relayDone:
	case <-time.After(cfg.ShutdownTimeout):
		slog.Warn("Outbox relay did not stop in time")
	}

	slog.Info("Server shutdown successfully")
}

// openStore picks the storage backend named by the config. The returned
// close func is never nil.
func openStore(cfg *config.Config) (repository.Store, func(), error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		slog.Warn("Using the in-memory store, data is lost on restart")
		return memory.NewStore(), func() {}, nil
	}

	db, err := repository.New(cfg)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Database.AutoMigrate {
		if err := repository.RunMigrations(db); err != nil {
			db.Close()
			return nil, nil, err
		}
		slog.Info("Database migrations applied")
	}

	closeDB := func() {
		if err := db.Close(); err != nil {
			slog.Error("Error closing database connection", slog.String("error", err.Error()))
		} else {
			slog.Info("Database connection closed")
		}
	}

	return repository.NewPostgresStore(db), closeDB, nil
}
