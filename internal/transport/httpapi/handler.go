// Package httpapi предоставляет REST API магазина поверх chi.
package httpapi

import (
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/sessions"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/auth"
	"github.com/vladislavdragonenkov/storefront/internal/cart"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/service/account"
	"github.com/vladislavdragonenkov/storefront/internal/service/checkout"
)

const defaultRequestTimeout = 10 * time.Second

// TokenParser проверяет токены доступа.
type TokenParser interface {
	Parse(raw string) (*auth.Claims, error)
}

// Dependencies — сервисы и хранилища, которые обслуживает API.
type Dependencies struct {
	Catalog  domain.CatalogRepository
	Orders   domain.OrderRepository
	Carts    *cart.Engine
	Checkout *checkout.Coordinator
	Accounts *account.Service
	Tokens   TokenParser
	Sessions sessions.Store
}

// Options задаёт необязательные параметры API.
type Options struct {
	Logger         *log.Entry
	Metrics        *metrics.HTTPMetrics
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// Option настраивает Handler.
type Option func(*Options)

// WithLogger задаёт logger для запросов.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithMetrics включает метрики запросов.
func WithMetrics(m *metrics.HTTPMetrics) Option {
	return func(opts *Options) {
		opts.Metrics = m
	}
}

// WithAllowedOrigins задаёт origin'ы для CORS. Пустой список разрешает любые,
// но без credentials: браузер не примет cookie при Allow-Origin: *.
func WithAllowedOrigins(origins []string) Option {
	return func(opts *Options) {
		opts.AllowedOrigins = origins
	}
}

// WithRequestTimeout ограничивает время обработки одного запроса.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.RequestTimeout = timeout
	}
}

// Handler обслуживает REST API.
type Handler struct {
	deps Dependencies
	opts Options
}

// NewHandler создаёт Handler.
func NewHandler(deps Dependencies, options ...Option) *Handler {
	opts := Options{}
	for _, option := range options {
		option(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = log.WithField("component", "http-api")
	}
	opts.AllowedOrigins = slices.DeleteFunc(slices.Clone(opts.AllowedOrigins), func(origin string) bool {
		return origin == "*"
	})
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	return &Handler{deps: deps, opts: opts}
}

// Routes собирает роутер со всеми маршрутами под /api.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.observe)
	r.Use(h.corsHandler())
	r.Use(middleware.Timeout(h.opts.RequestTimeout))

	r.Route("/api", func(r chi.Router) {
		r.Get("/categories", h.listCategories)
		r.Get("/products", h.listProducts)
		r.Post("/orders", h.createOrder)

		r.Post("/login", h.adminLogin)
		r.Post("/customers/signup", h.customerSignup)
		r.Post("/customers/login", h.customerLogin)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAdmin)
			r.Post("/categories", h.createCategory)
			r.Delete("/categories/{id}", h.deleteCategory)
			r.Post("/products", h.createProduct)
			r.Put("/products/{id}", h.updateProduct)
			r.Delete("/products/{id}", h.deleteProduct)
			r.Put("/products/{id}/stock", h.setStock)
			r.Get("/orders", h.listOrders)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.getCart)
			r.Delete("/", h.clearCart)
			r.Post("/items", h.addCartItem)
			r.Post("/items/{id}/increase", h.increaseCartItem)
			r.Post("/items/{id}/decrease", h.decreaseCartItem)
			r.Delete("/items/{id}", h.removeCartItem)
			r.Delete("/units/{index}", h.removeCartUnit)
		})
		r.Post("/checkout", h.checkout)
	})
	return r
}

// corsHandler разрешает credentials только для явно перечисленных origin'ов.
func (h *Handler) corsHandler() func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}
	if len(h.opts.AllowedOrigins) > 0 {
		opts.AllowedOrigins = h.opts.AllowedOrigins
		opts.AllowCredentials = true
	}
	return cors.Handler(opts)
}
