package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/clayhaus/clayhaus-backend/api/controllers"
	cartcontrollers "github.com/clayhaus/clayhaus-backend/api/controllers/cart"
	ordercontrollers "github.com/clayhaus/clayhaus-backend/api/controllers/orders"
	"github.com/clayhaus/clayhaus-backend/api/middleware"
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
	"github.com/clayhaus/clayhaus-backend/pkg/db/models"
	"github.com/clayhaus/clayhaus-backend/pkg/enums"
	"github.com/clayhaus/clayhaus-backend/pkg/logger"
	"github.com/clayhaus/clayhaus-backend/pkg/metrics"
	pkgredis "github.com/clayhaus/clayhaus-backend/pkg/redis"
)

type rateLimiter interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

type dlqLister interface {
	List(ctx context.Context, limit int) ([]models.OutboxDLQ, error)
}

// Params bundles everything the HTTP surface is built from.
type Params struct {
	Config      *config.Config
	Logger      *logger.Logger
	Ready       map[string]controllers.Pinger
	RateLimiter rateLimiter
	Idempotency pkgredis.IdempotencyStore
	Sessions    session.AccessSessionChecker
	HTTPMetrics *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer

	Auth         auth.Service
	Sellers      sellers.Service
	Customers    customers.Service
	Products     products.Service
	Media        media.Service
	Orders       orders.Service
	Cart         cart.Service
	CustomOrders customorders.Service
	Videos       videos.Service
	OutboxDLQ    dlqLister
}

func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.App.AllowedOrigins()),
		middleware.Logging(logg),
	)
	if p.HTTPMetrics != nil {
		r.Use(middleware.Metrics(p.HTTPMetrics))
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)
	loginLimit := middleware.AuthRateLimit(loginPolicy, p.RateLimiter, logg)
	registerLimit := middleware.AuthRateLimit(registerPolicy, p.RateLimiter, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, p.Ready, logg))
	})
	r.Handle("/metrics", metrics.Handler(p.Gatherer))

	// public
	r.With(registerLimit).Post("/SellerRegister", controllers.SellerRegister(p.Auth, logg))
	r.With(loginLimit).Post("/SellerLogin", controllers.SellerLogin(p.Auth, logg))
	r.With(registerLimit).Post("/CustomerRegister", controllers.CustomerRegister(p.Auth, logg))
	r.With(loginLimit).Post("/CustomerLogin", controllers.CustomerLogin(p.Auth, logg))
	r.Post("/auth/refresh", controllers.AuthRefresh(p.Auth, logg))

	r.Get("/getProducts", controllers.ProductList(p.Products, logg))
	r.Get("/getProductDetail/{id}", controllers.ProductDetail(p.Products, logg))
	r.Get("/searchProduct/{key}", controllers.ProductSearch(p.Products, logg))
	r.Get("/getSellerProducts/{id}", controllers.SellerProducts(p.Products, logg))
	r.Get("/EnableCustomized", controllers.CustomizableSellers(p.Sellers, logg))
	r.Get("/video/Display", controllers.VideoDisplay(p.Videos, logg))
	r.Post("/video/User", controllers.VideosBySeller(p.Videos, logg))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
		r.Use(middleware.Idempotency(p.Idempotency, logg))

		r.Post("/auth/logout", controllers.AuthLogout(p.Auth, logg))
		r.Get("/getStatus/{id}", ordercontrollers.Status(p.Orders, logg))
		r.Delete("/removeReview/{productId}/{reviewId}", controllers.RemoveReview(p.Products, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.AccountRoleAdmin))
			r.Get("/Sellers", controllers.PendingSellers(p.Sellers, logg))
			r.Patch("/Approved/{id}", controllers.ApproveSeller(p.Sellers, logg))
			r.Get("/admin/outbox/dlq", controllers.AdminOutboxDLQ(p.OutboxDLQ, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.AccountRoleSeller, enums.AccountRoleAdmin))
			r.Get("/Seller/Stats/{id}", controllers.SellerStats(p.Sellers, logg))
			r.Patch("/CustomizationEnabling/{id}", controllers.SetCustomization(p.Sellers, logg))

			r.Post("/ProductCreate", controllers.ProductCreate(p.Products, logg))
			r.Post("/ProductImage", controllers.ProductImage(p.Media, cfg.Media, logg))
			r.Put("/ProductUpdate/{id}", controllers.ProductUpdate(p.Products, logg))
			r.Delete("/DeleteProduct/{id}", controllers.ProductDelete(p.Products, logg))
			r.Delete("/DeleteProducts", controllers.ProductsDeleteBySeller(p.Products, logg))
			r.Delete("/clearReviews/{id}", controllers.ClearReviews(p.Products, logg))

			r.Get("/getOrderedProductsBySeller/{id}", ordercontrollers.SellerLines(p.Orders, logg))
			r.Patch("/updateOrderStatus/{id}", ordercontrollers.UpdateStatus(p.Orders, logg))

			r.Get("/CustomOrders", controllers.CustomOrdersPending(p.CustomOrders, logg))
			r.Put("/update-status/{id}", controllers.CustomOrderDecide(p.CustomOrders, logg))

			r.Post("/video/upload", controllers.VideoUpload(p.Videos, cfg.Media, logg))
			r.Delete("/video/Remove/{userId}/{videoId}", controllers.VideoRemove(p.Videos, logg))
			r.Put("/video/Update", controllers.VideoUpdate(p.Videos, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.AccountRoleCustomer))
			r.Put("/addReview/{id}", controllers.AddReview(p.Products, logg))
			r.Post("/newOrder", ordercontrollers.PlaceOrder(p.Orders, logg))
			r.Get("/getOrderedProductsByCustomer/{id}", ordercontrollers.CustomerLines(p.Orders, logg))

			r.Get("/customer/me", controllers.CustomerProfile(p.Customers, logg))
			r.Put("/customer/address", controllers.UpdateCustomerAddress(p.Customers, logg))

			r.Post("/CustomizePottery", controllers.CustomizePottery(p.CustomOrders, cfg.Media, logg))
			r.Get("/CustomPricedO", controllers.CustomOrdersPriced(p.CustomOrders, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartcontrollers.Get(p.Cart, logg))
				r.Delete("/", cartcontrollers.Clear(p.Cart, logg))
				r.Post("/items", cartcontrollers.AddProduct(p.Cart, logg))
				r.Post("/custom", cartcontrollers.AddCustom(p.Cart, logg))
				r.Delete("/items/{id}", cartcontrollers.Remove(p.Cart, logg))
				r.Delete("/items/{id}/one", cartcontrollers.RemoveOne(p.Cart, logg))
				r.Post("/checkout", cartcontrollers.Checkout(p.Cart, logg))
			})
		})

		r.With(middleware.RequireRole(logg, enums.AccountRoleCustomer, enums.AccountRoleSeller)).
			Patch("/video/Like/{id}", controllers.VideoLike(p.Videos, logg))
	})

	return r
}
