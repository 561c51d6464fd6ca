package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/checkout"
	"github.com/xenking/storefront/internal/domain/customer"
	"github.com/xenking/storefront/internal/domain/delivery"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/referral"
	"github.com/xenking/storefront/internal/domain/session"
	"github.com/xenking/storefront/internal/domain/settings"
	"github.com/xenking/storefront/internal/handler"
	"github.com/xenking/storefront/internal/storage/memory"
	"github.com/xenking/storefront/internal/storage/postgres"
	redisstore "github.com/xenking/storefront/internal/storage/redis"
	"github.com/xenking/storefront/pkg/health"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

// repositories are the record stores selected by Config.Storage.
type repositories struct {
	products  catalog.Repository
	orders    order.Repository
	settings  settings.Repository
	customers customer.Repository
	sessions  session.Store
}

// openStorage connects the configured backends and registers their
// readiness checks. The returned cleanup closes every connection.
func openStorage(ctx context.Context, lg *zap.Logger, cfg *Config, hc *health.Health) (*repositories, func(), error) {
	var (
		repos   repositories
		closers []func()
	)
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	mem := memory.New()
	switch cfg.Storage {
	case StoragePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, cleanup, errors.Wrap(err, "create db pool")
		}
		closers = append(closers, pool.Close)
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return nil, cleanup, errors.Wrap(err, "run migrations")
		}
		hc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))

		repos.products = postgres.NewProductRepository(pool)
		repos.orders = postgres.NewOrderRepository(pool)
		repos.settings = postgres.NewSettingsRepository(pool)
		repos.customers = postgres.NewCustomerRepository(pool)
	default:
		lg.Warn("Using in-memory storage, records are lost on restart")
		repos.products = memory.NewProductRepository(mem)
		repos.orders = memory.NewOrderRepository(mem)
		repos.settings = memory.NewSettingsRepository(mem)
		repos.customers = memory.NewCustomerRepository(mem)
	}

	if cfg.RedisURL == "" {
		repos.sessions = memory.NewSessionStore(mem)
		return &repos, cleanup, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, cleanup, errors.Wrap(err, "parse redis url")
	}
	client := redis.NewClient(opts)
	closers = append(closers, func() {
		if err := client.Close(); err != nil {
			lg.Warn("Close redis client", zap.Error(err))
		}
	})
	store := redisstore.NewSessionStore(client, cfg.SessionTTL)
	if err := store.Ping(ctx); err != nil {
		return nil, cleanup, errors.Wrap(err, "ping redis")
	}
	hc.AddReadinessCheck("redis", 2*time.Second, health.PingCheck(store))
	repos.sessions = store
	return &repos, cleanup, nil
}

// redemptionIndex returns index when this process is the only writer of the
// order history. A shared database also takes writes from other replicas the
// filters never observe, so their negative answers cannot be trusted there.
func redemptionIndex(cfg *Config, index *referral.Index) *referral.Index {
	if cfg.Storage == StorageMemory {
		return index
	}
	return nil
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage),
		zap.Bool("redis_sessions", cfg.RedisURL != ""),
	)

	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	repos, closeStorage, err := openStorage(ctx, lg, cfg, healthSvc)
	defer closeStorage()
	if err != nil {
		return err
	}

	// Referral codes are checked against every stored order; the index
	// answers "never seen" without a scan.
	index := referral.NewIndex(repos.orders)
	if err := index.Warm(ctx); err != nil {
		return errors.Wrap(err, "warm referral index")
	}

	pepper := []byte(cfg.PINPepper)
	if len(pepper) == 0 {
		lg.Warn("PIN pepper is empty, set STOREFRONT_PIN_PEPPER in production")
	}
	if cfg.AdminKey == "" {
		lg.Warn("Admin key is empty, admin routes reject every request")
	}

	// Domain services.
	orderService := order.NewService(index, referral.NewGenerator(index))
	checkoutService := checkout.NewService(checkout.Deps{
		Sessions:  repos.sessions,
		Products:  repos.products,
		Settings:  repos.settings,
		Orders:    orderService,
		Referrals: referral.NewValidator(index, redemptionIndex(cfg, index)),
		Resolver:  delivery.NewResolver(),
	})
	customerService := customer.NewService(repos.customers, pepper)

	h := handler.New(
		handler.Config{ImageBaseURL: cfg.ImageBaseURL, AdminKey: cfg.AdminKey, Pepper: pepper},
		handler.Deps{
			Checkout:  checkoutService,
			Orders:    orderService,
			Customers: customerService,
			Products:  repos.products,
			Settings:  repos.settings,
		},
	)

	// Router-level middlewares run after chi has matched the route, so the
	// route pattern is known when they log and label.
	router := h.Router(
		httpmiddleware.Instrument("storefront-api", m),
		httpmiddleware.LogRequests(),
	)
	router.Get("/livez", healthSvc.LiveEndpoint)
	router.Get("/readyz", healthSvc.ReadyEndpoint)

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(router,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", httpmiddleware.SessionHeader, handler.AdminKeyHeader},
				ExposeHeaders:    []string{httpmiddleware.SessionHeader, httpmiddleware.RequestIDHeader},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
