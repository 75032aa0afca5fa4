package userservice

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"dermacare/internal/domain"
	apperror "dermacare/internal/errors"
	"dermacare/internal/pkg/logger"
	"dermacare/internal/pkg/token"
)

// UserRepository define o contrato que o serviço espera da camada de persistência.
type UserRepository interface {
	Save(ctx context.Context, user domain.User) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindFirstByRole(ctx context.Context, role domain.UserRole) (domain.User, error)
	FindAll(ctx context.Context) ([]domain.User, error)
	Delete(ctx context.Context, id string) error
}

// TokenService é o contrato da camada de token (internal/pkg/token).
type TokenService interface {
	GenerateToken(user domain.User) (string, error)
	ValidateToken(tokenString string) (*token.CustomClaims, error)
}

// UserService implementa a lógica de negócio de usuários e sessões.
type UserService struct {
	UserRepo   UserRepository
	TokenSvc   TokenService
	Revocation token.RevocationStore
	logger     logger.Logger
}

// NewService cria uma nova instância do UserService, injetando as dependências.
func NewService(repo UserRepository, tokenSvc TokenService, revocation token.RevocationStore, log logger.Logger) *UserService {
	return &UserService{
		UserRepo:   repo,
		TokenSvc:   tokenSvc,
		Revocation: revocation,
		logger:     log,
	}
}

// Register registra um novo usuário no sistema e emite o token de sessão.
// Regra de negócio: só pode existir UM usuário ADMIN no sistema inteiro.
func (s *UserService) Register(ctx context.Context, registration domain.UserRegistration) (domain.User, string, error) {
	// 1. Validação Básica
	if registration.Name == "" || registration.Email == "" || registration.Password == "" {
		return domain.User{}, "", apperror.NewValidationError("Nome, email e senha são obrigatórios.")
	}

	// Papel padrão é USER; qualquer valor fora do enum fechado é rejeitado.
	role := registration.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !role.Valid() {
		return domain.User{}, "", apperror.NewValidationError("Papel de usuário inválido.")
	}

	// 2. Invariante de administrador único.
	// Verificação de existência antes da gravação — há uma janela de corrida
	// entre dois registros de ADMIN concorrentes, sem lock (gap conhecido).
	if role == domain.RoleAdmin {
		_, err := s.UserRepo.FindFirstByRole(ctx, domain.RoleAdmin)
		if err == nil {
			s.logger.Warn("Tentativa de registrar segundo administrador.", map[string]interface{}{"email": registration.Email})
			return domain.User{}, "", apperror.NewConflictError("Já existe um administrador no sistema.")
		}
		var notFoundErr *apperror.NotFoundError
		if !errors.As(err, &notFoundErr) {
			return domain.User{}, "", err
		}
	}

	// 3. Hashing da Senha
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(registration.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, "", apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}

	// 4. Criação e Persistência
	newUser := domain.User{
		Name:         registration.Name,
		Email:        registration.Email,
		PasswordHash: string(hashedPassword),
		Role:         role,
	}

	user, err := s.UserRepo.Save(ctx, newUser)
	if err != nil {
		// O repositório já traduz e-mail duplicado para ConflictError.
		return domain.User{}, "", err
	}

	// 5. Emite o token de sessão para o usuário recém-criado.
	tokenString, err := s.TokenSvc.GenerateToken(user)
	if err != nil {
		return domain.User{}, "", apperror.NewInternalError("Falha ao gerar token de autenticação.", err)
	}

	return user, tokenString, nil
}

// Login autentica um usuário, verifica a senha e gera um JWT.
func (s *UserService) Login(ctx context.Context, email string, password string) (string, domain.User, error) {
	// 1. Validação Básica
	if email == "" || password == "" {
		return "", domain.User{}, apperror.NewValidationError("Email e senha são obrigatórios.")
	}

	// 2. Buscar Usuário pelo Email
	user, err := s.UserRepo.FindByEmail(ctx, email)
	if err != nil {
		// NotFound (404) vira Unauthorized (401) para não revelar quais
		// e-mails existem no sistema.
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			return "", domain.User{}, apperror.NewUnauthorizedError("Credenciais inválidas.")
		}
		return "", domain.User{}, err
	}

	// 3. Comparar Senhas (Hashing)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", domain.User{}, apperror.NewUnauthorizedError("Credenciais inválidas.")
	}

	// 4. Gerar JWT
	tokenString, err := s.TokenSvc.GenerateToken(user)
	if err != nil {
		return "", domain.User{}, apperror.NewInternalError("Falha ao gerar token de autenticação.", err)
	}

	return tokenString, user, nil
}

// Logout adiciona o token da sessão atual ao conjunto de revogação.
// A entrada vive apenas até a expiração natural do token (TTL = vida restante).
func (s *UserService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.TokenSvc.ValidateToken(tokenString)
	if err != nil {
		// Token já expirado ou inválido não precisa entrar no conjunto —
		// ele não passa mais no gate de autenticação de qualquer forma.
		s.logger.Debug("Logout com token já inválido; nada a revogar.", nil)
		return nil
	}

	ttl := claims.RemainingLifetime()
	if ttl <= 0 {
		return nil
	}

	if err := s.Revocation.Revoke(ctx, tokenString, ttl); err != nil {
		s.logger.Error("Falha ao revogar token no cache.", err)
		return apperror.NewInternalError("Falha ao revogar o token.", err)
	}

	s.logger.Info("Token revogado com sucesso.", map[string]interface{}{
		"user_id": claims.UserID,
		"ttl":     ttl.String(),
	})
	return nil
}

// GetUsers retorna todos os usuários cadastrados (operação administrativa).
func (s *UserService) GetUsers(ctx context.Context) ([]domain.User, error) {
	return s.UserRepo.FindAll(ctx)
}

// DeleteUser exclui uma conta de usuário (operação administrativa).
// Um administrador não pode excluir a própria conta.
func (s *UserService) DeleteUser(ctx context.Context, id string, requesterID string) error {
	if id == requesterID {
		return apperror.NewConflictError("Administradores não podem excluir a própria conta.")
	}
	return s.UserRepo.Delete(ctx, id)
}
