package user

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"dermacare/internal/domain"
	apperror "dermacare/internal/errors"
	"dermacare/internal/pkg/logger"
	"dermacare/internal/pkg/middleware"
)

// UserService define o contrato para as operações de registro, login e logout.
type UserService interface {
	Register(ctx context.Context, registration domain.UserRegistration) (domain.User, string, error)
	Login(ctx context.Context, email string, password string) (string, domain.User, error)
	Logout(ctx context.Context, tokenString string) error
}

// LoginRequest representa o payload de entrada para o login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Handler agrupa todos os métodos de Handler do usuário.
type Handler struct {
	Service UserService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc UserService, log logger.Logger) *Handler {
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

// RegisterUserHandler lida com a requisição POST /v1/register.
// @Summary Registra um novo usuário
// @Description Cria um novo usuário, hasheia a senha e emite o token de sessão. No máximo UM administrador pode existir no sistema.
// @Tags users
// @Accept json
// @Produce json
// @Param registration body domain.UserRegistration true "Dados de registro (nome, email, senha e papel opcional)"
// @Success 201 {object} map[string]interface{} "Usuário criado + token"
// @Failure 400 {object} domain.ErrorResponse "Campos obrigatórios ausentes"
// @Failure 409 {object} domain.ErrorResponse "Email já cadastrado ou administrador já existente"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /register [post]
func (h *Handler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	var reg domain.UserRegistration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusCreated)
		return
	}

	newUser, token, err := h.Service.Register(ctx, reg)
	if err != nil {
		// ConflictError (e-mail duplicado / segundo admin) -> 409
		// ValidationError -> 400
		h.handleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}

	// O objeto newUser já tem o PasswordHash oculto via tag `json:"-"`.
	response := map[string]interface{}{
		"message": "Usuário registrado com sucesso",
		"user":    newUser,
		"token":   token,
	}
	h.handleServiceResponse(w, r, response, nil, http.StatusCreated)
}

// LoginUserHandler lida com a requisição POST /v1/login.
// @Summary Autentica um usuário e retorna um JWT
// @Description Recebe email/senha, verifica a validade e emite um JSON Web Token com validade de 24 horas.
// @Tags users
// @Accept json
// @Produce json
// @Param login body LoginRequest true "Credenciais do usuário (email e senha)"
// @Success 200 {object} map[string]interface{} "Token JWT emitido"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 401 {object} domain.ErrorResponse "Credenciais inválidas"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /login [post]
func (h *Handler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	var loginReq LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&loginReq); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusOK)
		return
	}

	token, user, err := h.Service.Login(ctx, loginReq.Email, loginReq.Password)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	response := map[string]interface{}{
		"message": "Login realizado com sucesso",
		"token":   token,
		"user":    user,
	}
	h.handleServiceResponse(w, r, response, nil, http.StatusOK)
}

// LogoutUserHandler lida com a requisição POST /v1/logout.
// @Summary Encerra a sessão atual
// @Description Adiciona o token da requisição ao conjunto de revogação; ele passa a ser rejeitado mesmo antes de expirar.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string "Logout realizado"
// @Failure 401 {object} domain.ErrorResponse "Token ausente ou inválido"
// @Router /logout [post]
func (h *Handler) LogoutUserHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	// O middleware já validou o token; aqui só precisamos do valor bruto
	// para registrá-lo no conjunto de revogação.
	tokenString := middleware.ExtractBearerToken(r)
	if tokenString == "" {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Token de autorização ausente."), http.StatusOK)
		return
	}

	if err := h.Service.Logout(r.Context(), tokenString); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, map[string]string{"message": "Logout realizado com sucesso"}, nil, http.StatusOK)
}

// ProfileHandler lida com a requisição GET /v1/profile.
// Ecoa a identidade extraída do token (rota protegida de verificação).
func (h *Handler) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := middleware.GetUserClaimsFromContext(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Autorização necessária."), http.StatusOK)
		return
	}

	response := map[string]interface{}{
		"message": "Acesso concedido à rota protegida",
		"user": map[string]interface{}{
			"id":    claims.UserID,
			"name":  claims.Name,
			"email": claims.Email,
			"role":  claims.Role,
		},
	}
	h.handleServiceResponse(w, r, response, nil, http.StatusOK)
}
