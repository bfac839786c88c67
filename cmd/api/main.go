package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/dukaflow/dukaflow/internal/catalog"
	"github.com/dukaflow/dukaflow/internal/checkout"
	"github.com/dukaflow/dukaflow/internal/delivery"
	"github.com/dukaflow/dukaflow/internal/messaging"
	"github.com/dukaflow/dukaflow/internal/telemetry"
	"github.com/dukaflow/dukaflow/internal/tenant"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "api", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("api", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	if err := runtime.Start(); err != nil {
		logger.Error("failed to start runtime metrics", "error", err)
		os.Exit(1)
	}

	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	db, err := telemetry.OpenDB("postgres", postgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	var productCache *catalog.ProductCache
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		client := redis.NewClient(opts)
		defer func() { _ = client.Close() }()
		productCache = catalog.NewProductCache(client)
	}

	var producer *messaging.Producer
	if kafkaBrokers := os.Getenv("KAFKA_BROKERS"); kafkaBrokers != "" {
		producer = messaging.NewProducer(strings.Split(kafkaBrokers, ","), messaging.TopicOrderPlaced)
		defer func() { _ = producer.Close() }()
	}

	defaultTenant := os.Getenv("DEFAULT_TENANT_ID")

	carts := checkout.NewCartRepository(db)
	orchestrator := checkout.NewOrchestrator(db)
	checkoutHandler, err := checkout.NewHandler(carts, orchestrator, producer, logger)
	if err != nil {
		logger.Error("failed to create checkout handler", "error", err)
		os.Exit(1)
	}

	catalogHandler := catalog.NewHandler(catalog.NewProductRepository(db), productCache, logger)
	deliveryHandler := delivery.NewHandler(delivery.NewRepository(db), logger)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /checkout/cart/init", telemetry.WithHTTPRoute(checkoutHandler.HandleInitCart))
	mux.HandleFunc("GET /checkout/cart/{cartToken}", telemetry.WithHTTPRoute(checkoutHandler.HandleGetCart))
	mux.HandleFunc("POST /checkout/cart/{cartToken}/items", telemetry.WithHTTPRoute(checkoutHandler.HandleAddItem))
	mux.HandleFunc("PATCH /checkout/cart/{cartToken}/items/{itemId}", telemetry.WithHTTPRoute(checkoutHandler.HandleUpdateItem))
	mux.HandleFunc("DELETE /checkout/cart/{cartToken}/items/{itemId}", telemetry.WithHTTPRoute(checkoutHandler.HandleDeleteItem))
	mux.HandleFunc("POST /checkout/quote", telemetry.WithHTTPRoute(checkoutHandler.HandleQuote))
	mux.HandleFunc("POST /checkout/submit", telemetry.WithHTTPRoute(checkoutHandler.HandleSubmit))

	mux.HandleFunc("GET /catalog/products", telemetry.WithHTTPRoute(catalogHandler.HandleListProducts))
	mux.HandleFunc("POST /catalog/products", telemetry.WithHTTPRoute(catalogHandler.HandleCreateProduct))
	mux.HandleFunc("GET /catalog/products/{id}", telemetry.WithHTTPRoute(catalogHandler.HandleGetProduct))
	mux.HandleFunc("POST /catalog/products/{id}/variants", telemetry.WithHTTPRoute(catalogHandler.HandleAddVariant))

	mux.HandleFunc("GET /delivery/partners", telemetry.WithHTTPRoute(deliveryHandler.HandleListPartners))
	mux.HandleFunc("POST /delivery/partners", telemetry.WithHTTPRoute(deliveryHandler.HandleCreatePartner))
	mux.HandleFunc("GET /delivery/orders", telemetry.WithHTTPRoute(deliveryHandler.HandleListDeliveryOrders))
	mux.HandleFunc("POST /delivery/orders", telemetry.WithHTTPRoute(deliveryHandler.HandleCreateDeliveryOrder))
	mux.HandleFunc("PATCH /delivery/orders/{id}/status", telemetry.WithHTTPRoute(deliveryHandler.HandleUpdateDeliveryStatus))

	// Health and metrics sit outside tenant resolution.
	root := http.NewServeMux()
	root.Handle("GET /healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	root.Handle("GET /metrics", metricsHandler)
	root.Handle("/", tenant.Middleware(defaultTenant, mux))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr: ":" + port,
		Handler: otelhttp.NewHandler(root, "api",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting api service", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
