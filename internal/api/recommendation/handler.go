package recommendation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"dermacare/internal/domain"
	apperror "dermacare/internal/errors"
	"dermacare/internal/pkg/logger"
	"dermacare/internal/pkg/middleware"
)

// RecommendationService define o contrato que o Handler espera da camada de Serviço.
type RecommendationService interface {
	Generate(ctx context.Context, userID string, profile domain.SkinProfile) (domain.Recommendation, error)
	GetByUser(ctx context.Context, userID string) ([]domain.Recommendation, error)
	GetOne(ctx context.Context, id string, userID string) (domain.Recommendation, error)
}

// Handler agrupa os métodos de Handler de recomendações do usuário autenticado.
type Handler struct {
	Service RecommendationService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc RecommendationService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// handleServiceResponse processa erros de serviço e envia respostas padronizadas ao cliente.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)
		if data != nil {
			if jsonErr := json.NewEncoder(w).Encode(data); jsonErr != nil {
				h.Logger.Error("Falha ao codificar JSON de resposta", jsonErr)
			}
		}
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		h.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
	}

	errorResponse := map[string]interface{}{
		"code":     status,
		"category": category,
		"message":  message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse)
}

// CreateRecommendationHandler lida com a requisição POST /v1/recommendations.
// @Summary Gera e persiste uma recomendação
// @Description Envia o perfil de pele ao processo de scoring e persiste o resultado cifrado, vinculado ao usuário autenticado.
// @Tags recommendations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body domain.SkinProfile true "Perfil de pele do usuário"
// @Success 201 {object} map[string]interface{} "Recomendação gerada"
// @Failure 400 {object} domain.ErrorResponse "Campos obrigatórios ausentes"
// @Failure 401 {object} domain.ErrorResponse "Não autenticado"
// @Failure 500 {object} domain.ErrorResponse "Falha no processo de scoring"
// @Router /recommendations [post]
func (h *Handler) CreateRecommendationHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, ok := middleware.GetUserClaimsFromContext(ctx)
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Autorização necessária."), http.StatusCreated)
		return
	}

	var profile domain.SkinProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusCreated)
		return
	}

	rec, err := h.Service.Generate(ctx, claims.UserID, profile)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}

	response := map[string]interface{}{
		"message":        "Recomendação gerada",
		"recommendation": rec,
	}
	h.handleServiceResponse(w, r, response, nil, http.StatusCreated)
}

// ListRecommendationsHandler lida com a requisição GET /v1/recommendations.
// @Summary Lista as recomendações do usuário autenticado
// @Description Retorna as recomendações do usuário, mais recentes primeiro, com o produto já descriptografado.
// @Tags recommendations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Lista de recomendações"
// @Failure 401 {object} domain.ErrorResponse "Não autenticado"
// @Router /recommendations [get]
func (h *Handler) ListRecommendationsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, ok := middleware.GetUserClaimsFromContext(ctx)
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Autorização necessária."), http.StatusOK)
		return
	}

	recs, err := h.Service.GetByUser(ctx, claims.UserID)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	response := map[string]interface{}{
		"message": "Recomendações do usuário",
		"user": map[string]string{
			"name":  claims.Name,
			"email": claims.Email,
		},
		"recommendations": recs,
	}
	h.handleServiceResponse(w, r, response, nil, http.StatusOK)
}

// RecommendationsHandler despacha POST (criar) e GET (listar) em /v1/recommendations.
func (h *Handler) RecommendationsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.CreateRecommendationHandler(w, r)
	case http.MethodGet:
		h.ListRecommendationsHandler(w, r)
	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

// GetRecommendationByIDHandler lida com a requisição GET /v1/recommendation/{id}.
// Só retorna a recomendação se ela pertencer ao usuário autenticado; registro
// alheio ou inexistente resulta em 404 (sem distinção).
// @Summary Busca uma recomendação do usuário pelo ID
// @Tags recommendations
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID da recomendação"
// @Success 200 {object} map[string]interface{} "Recomendação"
// @Failure 404 {object} domain.ErrorResponse "Não encontrada (ou pertence a outro usuário)"
// @Router /recommendation/{id} [get]
func (h *Handler) GetRecommendationByIDHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	claims, ok := middleware.GetUserClaimsFromContext(ctx)
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Autorização necessária."), http.StatusOK)
		return
	}

	// Extrai o ID do final do path: /v1/recommendation/{id}
	id := strings.TrimPrefix(r.URL.Path, "/v1/recommendation/")
	if id == "" || strings.Contains(id, "/") {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("ID da recomendação ausente ou inválido."), http.StatusOK)
		return
	}

	rec, err := h.Service.GetOne(ctx, id, claims.UserID)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	response := map[string]interface{}{
		"message":        "Recomendação encontrada",
		"recommendation": rec,
	}
	h.handleServiceResponse(w, r, response, nil, http.StatusOK)
}
