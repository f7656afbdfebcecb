package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/clayhaus/clayhaus-backend/api/controllers"
	"github.com/clayhaus/clayhaus-backend/api/routes"
	"github.com/clayhaus/clayhaus-backend/internal/auth"
	"github.com/clayhaus/clayhaus-backend/internal/cart"
	"github.com/clayhaus/clayhaus-backend/internal/customers"
	"github.com/clayhaus/clayhaus-backend/internal/customorders"
	"github.com/clayhaus/clayhaus-backend/internal/media"
	"github.com/clayhaus/clayhaus-backend/internal/orders"
	"github.com/clayhaus/clayhaus-backend/internal/products"
	"github.com/clayhaus/clayhaus-backend/internal/sellers"
	"github.com/clayhaus/clayhaus-backend/internal/videos"
	"github.com/clayhaus/clayhaus-backend/pkg/auth/session"
	"github.com/clayhaus/clayhaus-backend/pkg/config"
	"github.com/clayhaus/clayhaus-backend/pkg/db"
	"github.com/clayhaus/clayhaus-backend/pkg/lock"
	"github.com/clayhaus/clayhaus-backend/pkg/logger"
	"github.com/clayhaus/clayhaus-backend/pkg/metrics"
	"github.com/clayhaus/clayhaus-backend/pkg/migrate"
	"github.com/clayhaus/clayhaus-backend/pkg/outbox"
	"github.com/clayhaus/clayhaus-backend/pkg/pinning"
	"github.com/clayhaus/clayhaus-backend/pkg/redis"
	"github.com/clayhaus/clayhaus-backend/pkg/storage/gcs"
)

const (
	adminSeedLockName = "admin-seed"
	adminSeedLockTTL  = 30 * time.Second
	shutdownTimeout   = 15 * time.Second
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	bootCtx := context.Background()

	dbClient, err := db.New(bootCtx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(bootCtx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(bootCtx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	gcsClient, err := gcs.NewClient(bootCtx, cfg.GCS, cfg.GCP, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, gcsClient.Close()) }()

	pinClient, err := pinning.NewClient(cfg.Pinning)
	if err != nil {
		return err
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	gdb := dbClient.DB()
	sellerRepo := sellers.NewRepository(gdb)
	customerRepo := customers.NewRepository(gdb)
	productRepo := products.NewRepository(gdb)
	orderRepo := orders.NewRepository(gdb)
	customRepo := customorders.NewRepository(gdb)
	videoRepo := videos.NewRepository(gdb)
	emitter := outbox.NewService(outbox.NewRepository(gdb), logg)

	if cfg.FeatureFlags.SeedAdmin {
		seedLock, err := lock.NewRedisLock(redisClient, redisClient.LockKey(adminSeedLockName), adminSeedLockTTL)
		if err != nil {
			return err
		}
		if err := auth.EnsureAdmin(bootCtx, auth.AdminSeedParams{
			Sellers:        sellerRepo,
			Admin:          cfg.Admin,
			PasswordConfig: cfg.Password,
			Lock:           seedLock,
			Logger:         logg,
		}); err != nil {
			return err
		}
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Sellers:        sellerRepo,
		Customers:      customerRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return err
	}
	sellerService, err := sellers.NewService(sellers.ServiceParams{
		DB:     dbClient,
		Repo:   sellerRepo,
		Outbox: emitter,
	})
	if err != nil {
		return err
	}
	customerService, err := customers.NewService(customerRepo)
	if err != nil {
		return err
	}
	productService, err := products.NewService(products.ServiceParams{
		DB:        dbClient,
		Repo:      productRepo,
		Sellers:   sellerRepo,
		Customers: customerRepo,
		Purchases: orderRepo,
	})
	if err != nil {
		return err
	}
	mediaService, err := media.NewService(gcsClient)
	if err != nil {
		return err
	}
	orderService, err := orders.NewService(orders.ServiceParams{
		DB:             dbClient,
		Repo:           orderRepo,
		Customers:      customerRepo,
		CustomRequests: customRepo,
		Outbox:         emitter,
	})
	if err != nil {
		return err
	}
	cartStore, err := cart.NewRedisStore(redisClient, cfg.Cart.TTL)
	if err != nil {
		return err
	}
	cartService, err := cart.NewService(cart.ServiceParams{
		Store:          cartStore,
		Products:       productRepo,
		CustomRequests: customRepo,
		Orders:         orderService,
		Logger:         logg,
	})
	if err != nil {
		return err
	}
	customOrderService, err := customorders.NewService(customorders.ServiceParams{
		DB:      dbClient,
		Repo:    customRepo,
		Sellers: sellerRepo,
		Media:   mediaService,
		Outbox:  emitter,
		Logger:  logg,
	})
	if err != nil {
		return err
	}
	videoService, err := videos.NewService(videos.ServiceParams{
		DB:      dbClient,
		Repo:    videoRepo,
		Sellers: sellerRepo,
		Pinner:  pinClient,
		Outbox:  emitter,
		Logger:  logg,
	})
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	handler := routes.NewRouter(routes.Params{
		Config: cfg,
		Logger: logg,
		Ready: map[string]controllers.Pinger{
			"db":    dbClient,
			"redis": redisClient,
			"gcs":   gcsClient,
		},
		RateLimiter:  redisClient,
		Idempotency:  redisClient,
		Sessions:     sessionManager,
		HTTPMetrics:  metrics.NewHTTPMetrics(prometheus.DefaultRegisterer),
		Gatherer:     prometheus.DefaultGatherer,
		Auth:         authService,
		Sellers:      sellerService,
		Customers:    customerService,
		Products:     productService,
		Media:        mediaService,
		Orders:       orderService,
		Cart:         cartService,
		CustomOrders: customOrderService,
		Videos:       videoService,
		OutboxDLQ:    outbox.NewDLQRepository(gdb),
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "api server shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
