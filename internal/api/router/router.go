package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"stockcart/internal/api/cart"
	"stockcart/internal/api/checkout"
	"stockcart/internal/api/product"
	"stockcart/internal/api/shipping"
	"stockcart/internal/api/stock"
	"stockcart/internal/api/user"
	"stockcart/internal/domain"
	"stockcart/internal/pkg/cache"
	"stockcart/internal/pkg/logger"
	"stockcart/internal/pkg/middleware"
)

// ServiceName identifica o serviço nos spans do OpenTelemetry.
const ServiceName = "stockcart-api"

// Handlers reúne os handlers já inicializados por injeção de dependências.
type Handlers struct {
	User     *user.Handler
	Product  *product.Handler
	Shipping *shipping.Handler
	Cart     *cart.Handler
	Checkout *checkout.Handler
	Stock    *stock.Handler
}

// Options controla os middlewares globais.
type Options struct {
	RequestTimeout  time.Duration
	RateLimitMax    int
	RateLimitWindow time.Duration
}

// NewRouter configura e retorna o roteador HTTP principal.
func NewRouter(h Handlers, opts Options, tokenSvc middleware.TokenService, cacheClient cache.Client, log logger.Logger) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}

	r := chi.NewRouter()

	// Middlewares globais
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(opts.RequestTimeout))

	// Health check e documentação ficam fora do rate limit
	r.Get("/ping", PingHandler)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	auth := middleware.NewAuthMiddleware(tokenSvc)

	r.Route("/v1", func(r chi.Router) {
		if cacheClient != nil && opts.RateLimitMax > 0 {
			r.Use(middleware.RateLimiter(cacheClient, opts.RateLimitMax, opts.RateLimitWindow, log))
		}

		// Rotas públicas
		r.Post("/session", h.User.StartSessionHandler)
		r.Post("/admin/login", h.User.AdminLoginHandler)
		r.Get("/products", h.Product.GetProductsHandler)
		r.Get("/products/{id}", h.Product.GetProductByIDHandler)
		r.Get("/shipping", h.Shipping.QuoteHandler)
		r.Get("/shipping/provinces", h.Shipping.ProvincesHandler)
		r.Get("/shipping/provinces/{province}", h.Shipping.CantonsHandler)

		// Rotas da sessão de carrinho
		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Use(middleware.PermissionMiddleware(domain.RoleGuest))

			r.Get("/cart", h.Cart.ReviewHandler)
			r.Delete("/cart", h.Cart.ClearHandler)
			r.Get("/cart/summary", h.Cart.SummaryHandler)
			r.Post("/cart/items", h.Cart.AddItemHandler)
			r.Delete("/cart/items", h.Cart.RemoveItemHandler)

			r.Post("/checkout", h.Checkout.BeginHandler)
			r.Get("/checkout/{id}", h.Checkout.GetHandler)
			r.Post("/checkout/{id}/commit", h.Checkout.CommitHandler)
			r.Post("/checkout/{id}/confirm", h.Checkout.ConfirmHandler)
			r.Post("/checkout/{id}/cancel", h.Checkout.CancelHandler)
		})

		// Rotas administrativas
		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Use(middleware.PermissionMiddleware(domain.RoleAdmin))

			r.Post("/admin/products", h.Product.CreateProductHandler)
			r.Put("/admin/products/{id}", h.Product.UpdateProductHandler)
			r.Post("/stock/adjust", h.Stock.AdjustStockHandler)
			r.Get("/stock/low", h.Stock.LowStockHandler)
			r.Get("/stock/{productId}", h.Stock.GetStockHandler)
		})
	})

	return otelhttp.NewHandler(r, ServiceName)
}

// PingHandler é o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
