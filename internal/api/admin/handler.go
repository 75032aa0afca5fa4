package admin

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

// UserService é o recorte administrativo do serviço de usuários.
type UserService interface {
	GetUsers(ctx context.Context) ([]domain.User, error)
	DeleteUser(ctx context.Context, id string, requesterID string) error
}

// RecommendationService é o recorte administrativo do serviço de recomendações.
type RecommendationService interface {
	GetAll(ctx context.Context) ([]domain.RecommendationWithOwner, error)
	Delete(ctx context.Context, id string) error
}

// Handler agrupa os métodos de Handler das rotas administrativas.
// Todas as rotas deste handler exigem papel ADMIN (aplicado no roteador).
type Handler struct {
	Users           UserService
	Recommendations RecommendationService
	Logger          logger.Logger
}

// NewHandler cria uma nova instância do Handler administrativo.
func NewHandler(users UserService, recs RecommendationService, log logger.Logger) *Handler {
	return &Handler{
		Users:           users,
		Recommendations: recs,
		Logger:          log,
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

// GetAllUsersHandler lida com GET /v1/admin/all-users.
// @Summary Lista todos os usuários cadastrados (ADMIN)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Lista de usuários"
// @Failure 403 {object} domain.ErrorResponse "Sem permissão"
// @Router /admin/all-users [get]
func (h *Handler) GetAllUsersHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	users, err := h.Users.GetUsers(r.Context())
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	response := map[string]interface{}{
		"message": "Usuários cadastrados",
		"users":   users,
	}
	h.handleServiceResponse(w, r, response, nil, http.StatusOK)
}

// GetAllRecommendationsHandler lida com GET /v1/admin/all-recommendations.
// @Summary Lista todas as recomendações com a identidade do dono (ADMIN)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Lista de recomendações"
// @Failure 403 {object} domain.ErrorResponse "Sem permissão"
// @Router /admin/all-recommendations [get]
func (h *Handler) GetAllRecommendationsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	recs, err := h.Recommendations.GetAll(r.Context())
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	response := map[string]interface{}{
		"message":         "Todas as recomendações",
		"recommendations": recs,
	}
	h.handleServiceResponse(w, r, response, nil, http.StatusOK)
}

// DeleteUserHandler lida com DELETE /v1/admin/delete-user/{id}.
// Um administrador não pode excluir a própria conta (409).
// @Summary Exclui uma conta de usuário (ADMIN)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do usuário"
// @Success 200 {object} map[string]string "Usuário excluído"
// @Failure 404 {object} domain.ErrorResponse "Usuário não encontrado"
// @Failure 409 {object} domain.ErrorResponse "Tentativa de auto-exclusão"
// @Router /admin/delete-user/{id} [delete]
func (h *Handler) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	claims, ok := middleware.GetUserClaimsFromContext(ctx)
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Autorização necessária."), http.StatusOK)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/admin/delete-user/")
	if id == "" || strings.Contains(id, "/") {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("ID do usuário ausente ou inválido."), http.StatusOK)
		return
	}

	if err := h.Users.DeleteUser(ctx, id, claims.UserID); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.Logger.Info("Usuário excluído por administrador.", map[string]interface{}{
		"deleted_user_id": id,
		"admin_id":        claims.UserID,
	})
	h.handleServiceResponse(w, r, map[string]string{"message": "Usuário excluído com sucesso"}, nil, http.StatusOK)
}

// DeleteRecommendationHandler lida com DELETE /v1/admin/delete-recommendation/{id}.
// @Summary Exclui uma recomendação (ADMIN)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID da recomendação"
// @Success 200 {object} map[string]string "Recomendação excluída"
// @Failure 404 {object} domain.ErrorResponse "Recomendação não encontrada"
// @Router /admin/delete-recommendation/{id} [delete]
func (h *Handler) DeleteRecommendationHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/admin/delete-recommendation/")
	if id == "" || strings.Contains(id, "/") {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("ID da recomendação ausente ou inválido."), http.StatusOK)
		return
	}

	if err := h.Recommendations.Delete(r.Context(), id); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, map[string]string{"message": "Recomendação excluída com sucesso"}, nil, http.StatusOK)
}
