package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"legado/internal/api/admin"
	"legado/internal/api/checkout"
	"legado/internal/api/content"
	"legado/internal/api/product"
	"legado/internal/domain"
	"legado/internal/pkg/cache"
	"legado/internal/pkg/middleware"
)

// MaintenanceChecker informa se a loja está fechada para manutenção.
type MaintenanceChecker interface {
	IsMaintenanceMode(ctx context.Context) bool
}

// Config agrupa as dependências transversais do roteador.
type Config struct {
	TokenService  middleware.TokenService
	Cache         cache.Client
	Maintenance   MaintenanceChecker
	RateLimit     int
	RateLimitSpan time.Duration
}

// NewRouter configura e retorna o roteador HTTP principal.
// Recebe os Handlers já inicializados por injeção de dependências.
func NewRouter(
	productHandler *product.Handler,
	checkoutHandler *checkout.Handler,
	contentHandler *content.Handler,
	adminHandler *admin.Handler,
	cfg Config,
) http.Handler {

	// ServeMux padrão do net/http, como no restante do projeto.
	mux := http.NewServeMux()

	auth := middleware.NewAuthMiddleware(cfg.TokenService)
	adminOnly := middleware.PermissionMiddleware(domain.RoleAdmin)
	protected := func(fn http.HandlerFunc) http.HandlerFunc {
		return auth(adminOnly(fn))
	}

	// --- 1. Health check e documentação ---
	mux.HandleFunc("/ping", PingHandler)
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// --- 2. Loja pública (v1) ---
	mux.HandleFunc("/v1/products", productHandler.ListProductsHandler)
	mux.HandleFunc("/v1/products/", productHandler.ProductByIDHandler)
	mux.HandleFunc("/v1/content/", contentHandler.GetSectionHandler)

	// --- 3. Checkout (v1) ---
	// A criação de sessão é a única rota que movimenta dinheiro: ganha o
	// rate limiter e o bloqueio de modo manutenção. O webhook e a
	// verificação ficam fora do bloqueio: pagamentos já iniciados precisam
	// terminar mesmo com a loja fechada.
	rateLimited := middleware.RateLimiter(cfg.Cache, cfg.RateLimit, cfg.RateLimitSpan)
	mux.Handle("/v1/create-checkout-session",
		rateLimited(maintenanceGate(cfg.Maintenance, http.HandlerFunc(checkoutHandler.CreateSessionHandler))))
	mux.HandleFunc("/v1/verify-session/", checkoutHandler.VerifySessionHandler)
	mux.HandleFunc("/v1/webhook", checkoutHandler.WebhookHandler)

	// --- 4. Back-office (v1/admin) ---
	mux.HandleFunc("/v1/admin/login", adminHandler.LoginHandler)
	mux.HandleFunc("/v1/admin/users", protected(adminHandler.RegisterUserHandler))
	mux.HandleFunc("/v1/admin/products", protected(adminHandler.ProductsHandler))
	mux.HandleFunc("/v1/admin/products/", protected(adminHandler.ProductByIDHandler))
	mux.HandleFunc("/v1/admin/orders", protected(adminHandler.OrdersHandler))
	mux.HandleFunc("/v1/admin/orders/", protected(adminHandler.OrdersHandler))
	mux.HandleFunc("/v1/admin/content", protected(adminHandler.ContentHandler))
	mux.HandleFunc("/v1/admin/maintenance", protected(adminHandler.MaintenanceHandler))

	return mux
}

// maintenanceGate responde 503 quando a loja está em manutenção.
func maintenanceGate(checker MaintenanceChecker, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if checker.IsMaintenanceMode(r.Context()) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"code":     http.StatusServiceUnavailable,
				"category": "STORE_UNAVAILABLE",
				"message":  "La tienda está en mantenimiento. Intenta más tarde.",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
