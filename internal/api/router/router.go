package router

import (
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"dermacare/internal/api/admin"
	"dermacare/internal/api/recommendation"
	"dermacare/internal/api/user"
	"dermacare/internal/domain"
	"dermacare/internal/pkg/cache"
	"dermacare/internal/pkg/middleware"
	"dermacare/internal/pkg/token"
)

// NewRouter configura e retorna o roteador HTTP principal.
// Recebe os Handlers já inicializados por injeção de dependências.
func NewRouter(
	userHandler *user.Handler,
	recHandler *recommendation.Handler,
	adminHandler *admin.Handler,
	tokenSvc middleware.TokenService,
	revocation token.RevocationStore,
	cacheClient cache.Client,
	rateLimitMax int,
	rateLimitPeriod time.Duration,
) http.Handler {

	// Usamos o ServeMux padrão do net/http para roteamento
	// Em projetos maiores, pode-se usar um mux de terceiros (e.g., gorilla/mux, chi)
	mux := http.NewServeMux()

	// Cadeias de middleware: autenticação (token válido + não revogado) e
	// autorização (papel ADMIN).
	needAuth := middleware.NewAuthMiddleware(tokenSvc, revocation)
	adminOnly := func(next http.HandlerFunc) http.HandlerFunc {
		return needAuth(middleware.PermissionMiddleware(domain.RoleAdmin)(next))
	}

	// --- 1. Rotas de Health Check e documentação ---
	mux.HandleFunc("/ping", PingHandler)
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// --- 2. Rotas públicas (v1) ---
	mux.HandleFunc("/v1/register", userHandler.RegisterUserHandler)
	mux.HandleFunc("/v1/login", userHandler.LoginUserHandler)

	// --- 3. Rotas autenticadas ---
	mux.HandleFunc("/v1/logout", needAuth(userHandler.LogoutUserHandler))
	mux.HandleFunc("/v1/profile", needAuth(userHandler.ProfileHandler))

	// POST cria, GET lista (as do próprio usuário)
	mux.HandleFunc("/v1/recommendations", needAuth(recHandler.RecommendationsHandler))

	// GET /v1/recommendation/{id} — somente o dono
	mux.HandleFunc("/v1/recommendation/", needAuth(recHandler.GetRecommendationByIDHandler))

	// --- 4. Rotas administrativas (papel ADMIN obrigatório) ---
	mux.HandleFunc("/v1/admin/all-users", adminOnly(adminHandler.GetAllUsersHandler))
	mux.HandleFunc("/v1/admin/all-recommendations", adminOnly(adminHandler.GetAllRecommendationsHandler))
	mux.HandleFunc("/v1/admin/delete-user/", adminOnly(adminHandler.DeleteUserHandler))
	mux.HandleFunc("/v1/admin/delete-recommendation/", adminOnly(adminHandler.DeleteRecommendationHandler))

	// --- 5. Middlewares globais ---
	// Rate limiting por IP sobre o cache compartilhado.
	return middleware.RateLimiter(cacheClient, rateLimitMax, rateLimitPeriod)(mux)
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
