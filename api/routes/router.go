package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/freshcart/freshcart-backend/api/controllers"
	"github.com/freshcart/freshcart-backend/api/middleware"
	"github.com/freshcart/freshcart-backend/internal/address"
	"github.com/freshcart/freshcart-backend/internal/auth"
	"github.com/freshcart/freshcart-backend/internal/authz"
	cartsvc "github.com/freshcart/freshcart-backend/internal/cart"
	"github.com/freshcart/freshcart-backend/internal/catalog"
	"github.com/freshcart/freshcart-backend/internal/orders"
	"github.com/freshcart/freshcart-backend/internal/users"
	"github.com/freshcart/freshcart-backend/pkg/auth/session"
	"github.com/freshcart/freshcart-backend/pkg/config"
	"github.com/freshcart/freshcart-backend/pkg/db"
	"github.com/freshcart/freshcart-backend/pkg/logger"
	"github.com/freshcart/freshcart-backend/pkg/redis"
	"github.com/freshcart/freshcart-backend/pkg/storage/gcs"
)

// RouterParams carries everything the HTTP surface needs. Redis doubles as
// the idempotency and rate limit store, so it is passed as the concrete
// client rather than a narrowed interface.
type RouterParams struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          db.Pinger
	Redis       *redis.Client
	GCS         gcs.Pinger
	Sessions    session.AccessSessionChecker
	Authorizer  authz.Authorizer
	AuthService auth.Service
	Users       users.Service
	Catalog     catalog.Service
	Cart        cartsvc.Service
	Orders      orders.Service
	Addresses   address.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

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

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis, p.GCS))
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Use(middleware.Idempotency(p.Redis, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, p.Redis, logg)).
			Post("/register", controllers.AuthRegister(p.AuthService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).
			Post("/login", controllers.AuthLogin(p.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.AuthService, logg))
		r.Post("/logout", controllers.AuthLogout(p.AuthService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
			r.Get("/me", controllers.AuthMe(p.AuthService, logg))
		})
	})

	// Browsing the catalog needs no session.
	r.Route("/api/categories", func(r chi.Router) {
		r.Get("/", controllers.CategoryList(p.Catalog, logg))
		r.Get("/{categoryId}", controllers.CategoryDetail(p.Catalog, logg))
	})
	r.Route("/api/items", func(r chi.Router) {
		r.Get("/", controllers.ItemList(p.Catalog, logg))
		r.Get("/{itemId}", controllers.ItemDetail(p.Catalog, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
		r.Use(middleware.Idempotency(p.Redis, logg))

		r.Route("/users/profile", func(r chi.Router) {
			r.Get("/", controllers.UserProfile(p.Users, logg))
			r.Put("/", controllers.UserProfileUpdate(p.Users, logg))
			r.Delete("/", controllers.UserAccountDelete(p.Users, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(p.Cart, logg))
			r.Delete("/", controllers.CartClear(p.Cart, logg))
			r.Post("/items", controllers.CartAddItem(p.Cart, logg))
			r.Put("/items/{lineId}", controllers.CartUpdateLine(p.Cart, logg))
			r.Delete("/items/{lineId}", controllers.CartRemoveLine(p.Cart, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/checkout", controllers.Checkout(p.Orders, logg))
			r.Get("/", controllers.OrderHistory(p.Orders, logg))
			r.Get("/{orderNumber}", controllers.OrderDetail(p.Orders, logg))
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", controllers.AddressList(p.Addresses, logg))
			r.Post("/", controllers.AddressCreate(p.Addresses, logg))
			r.Get("/default", controllers.AddressDefault(p.Addresses, logg))
			r.Get("/{addressId}", controllers.AddressDetail(p.Addresses, logg))
			r.Put("/{addressId}", controllers.AddressUpdate(p.Addresses, logg))
			r.Delete("/{addressId}", controllers.AddressDelete(p.Addresses, logg))
			r.Patch("/{addressId}/default", controllers.AddressSetDefault(p.Addresses, logg))
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
		r.Use(middleware.RequireAdmin(p.Authorizer, logg))
		r.Use(middleware.Idempotency(p.Redis, logg))

		r.Route("/categories", func(r chi.Router) {
			r.Post("/", controllers.CategoryCreate(p.Catalog, logg))
			r.Put("/{categoryId}", controllers.CategoryUpdate(p.Catalog, logg))
			r.Delete("/{categoryId}", controllers.CategoryDelete(p.Catalog, logg))
		})

		r.Route("/items", func(r chi.Router) {
			r.Post("/", controllers.ItemCreate(p.Catalog, logg))
			r.Put("/{itemId}", controllers.ItemUpdate(p.Catalog, logg))
			r.Delete("/{itemId}", controllers.ItemDelete(p.Catalog, logg))
			r.Patch("/{itemId}/stock", controllers.ItemStockUpdate(p.Catalog, logg))
			r.Post("/{itemId}/image", controllers.ItemImageUpload(p.Catalog, cfg.GCS, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrderList(p.Orders, logg))
			r.Patch("/{orderId}/status", controllers.AdminOrderStatusUpdate(p.Orders, logg))
		})
	})

	return r
}
