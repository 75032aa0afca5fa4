package userservice_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"dermacare/internal/domain"
	apperror "dermacare/internal/errors"
	"dermacare/internal/pkg/logger"
	"dermacare/internal/pkg/token"
	"dermacare/internal/service/userservice"
)

// MockUserRepository é uma implementação mock da interface UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Save(ctx context.Context, user domain.User) (domain.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserRepository) FindFirstByRole(ctx context.Context, role domain.UserRole) (domain.User, error) {
	args := m.Called(ctx, role)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserRepository) FindAll(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockTokenService é uma implementação mock da interface TokenService
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) GenerateToken(user domain.User) (string, error) {
	args := m.Called(user)
	return args.String(0), args.Error(1)
}

func (m *MockTokenService) ValidateToken(tokenString string) (*token.CustomClaims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*token.CustomClaims), args.Error(1)
}

// MockRevocationStore é uma implementação mock da interface token.RevocationStore
type MockRevocationStore struct {
	mock.Mock
}

func (m *MockRevocationStore) Revoke(ctx context.Context, tokenString string, ttl time.Duration) error {
	args := m.Called(ctx, tokenString, ttl)
	return args.Error(0)
}

func (m *MockRevocationStore) IsRevoked(ctx context.Context, tokenString string) (bool, error) {
	args := m.Called(ctx, tokenString)
	return args.Bool(0), args.Error(1)
}

func newTestService(repo *MockUserRepository, tokenSvc *MockTokenService, revocation *MockRevocationStore) *userservice.UserService {
	return userservice.NewService(repo, tokenSvc, revocation, logger.NewLogger("error"))
}

// TestRegister_Success_DefaultRole testa o registro com papel padrão USER.
func TestRegister_Success_DefaultRole(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockToken := new(MockTokenService)
	mockRevocation := new(MockRevocationStore)

	svc := newTestService(mockRepo, mockToken, mockRevocation)

	savedUser := domain.User{
		ID:    uuid.New().String(),
		Name:  "Maria Silva",
		Email: "maria@example.com",
		Role:  domain.RoleUser,
	}

	mockRepo.On("Save", mock.Anything, mock.MatchedBy(func(u domain.User) bool {
		// O serviço deve aplicar o papel padrão e gravar o hash, não a senha em claro.
		return u.Role == domain.RoleUser &&
			u.Email == "maria@example.com" &&
			u.PasswordHash != "senha123" &&
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("senha123")) == nil
	})).Return(savedUser, nil)
	mockToken.On("GenerateToken", savedUser).Return("jwt-token", nil)

	user, tokenString, err := svc.Register(context.Background(), domain.UserRegistration{
		Name:     "Maria Silva",
		Email:    "maria@example.com",
		Password: "senha123",
	})

	assert.NoError(t, err)
	assert.Equal(t, savedUser, user)
	assert.Equal(t, "jwt-token", tokenString)
	mockRepo.AssertExpectations(t)
	mockToken.AssertExpectations(t)
	// Sem ADMIN envolvido, a verificação de administrador único não deve acontecer.
	mockRepo.AssertNotCalled(t, "FindFirstByRole", mock.Anything, mock.Anything)
}

// TestRegister_Success_FirstAdmin testa o registro do primeiro administrador.
func TestRegister_Success_FirstAdmin(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockToken := new(MockTokenService)
	mockRevocation := new(MockRevocationStore)

	svc := newTestService(mockRepo, mockToken, mockRevocation)

	savedUser := domain.User{
		ID:    uuid.New().String(),
		Name:  "Admin",
		Email: "admin@example.com",
		Role:  domain.RoleAdmin,
	}

	mockRepo.On("FindFirstByRole", mock.Anything, domain.RoleAdmin).
		Return(domain.User{}, apperror.NewNotFoundError("Usuário não encontrado."))
	mockRepo.On("Save", mock.Anything, mock.MatchedBy(func(u domain.User) bool {
		return u.Role == domain.RoleAdmin
	})).Return(savedUser, nil)
	mockToken.On("GenerateToken", savedUser).Return("jwt-token", nil)

	user, _, err := svc.Register(context.Background(), domain.UserRegistration{
		Name:     "Admin",
		Email:    "admin@example.com",
		Password: "senha123",
		Role:     domain.RoleAdmin,
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)
	mockRepo.AssertExpectations(t)
}

// TestRegister_Fail_SecondAdmin testa a invariante de administrador único.
func TestRegister_Fail_SecondAdmin(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockToken := new(MockTokenService)
	mockRevocation := new(MockRevocationStore)

	svc := newTestService(mockRepo, mockToken, mockRevocation)

	existingAdmin := domain.User{ID: uuid.New().String(), Role: domain.RoleAdmin}
	mockRepo.On("FindFirstByRole", mock.Anything, domain.RoleAdmin).Return(existingAdmin, nil)

	_, _, err := svc.Register(context.Background(), domain.UserRegistration{
		Name:     "Outro Admin",
		Email:    "outro@example.com",
		Password: "senha123",
		Role:     domain.RoleAdmin,
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ConflictError{}, err)
	assert.Contains(t, err.Error(), "Já existe um administrador no sistema.")
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// TestRegister_Fail_MissingFields testa a validação dos campos obrigatórios.
func TestRegister_Fail_MissingFields(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockToken := new(MockTokenService)
	mockRevocation := new(MockRevocationStore)

	svc := newTestService(mockRepo, mockToken, mockRevocation)

	_, _, err := svc.Register(context.Background(), domain.UserRegistration{
		Name:  "Sem Senha",
		Email: "sem@example.com",
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// TestRegister_Fail_InvalidRole testa o enum fechado de papéis.
func TestRegister_Fail_InvalidRole(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockToken := new(MockTokenService)
	mockRevocation := new(MockRevocationStore)

	svc := newTestService(mockRepo, mockToken, mockRevocation)

	_, _, err := svc.Register(context.Background(), domain.UserRegistration{
		Name:     "Maria",
		Email:    "maria@example.com",
		Password: "senha123",
		Role:     domain.UserRole("SUPERUSER"),
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// TestRegister_Fail_DuplicateEmail testa a propagação do conflito de e-mail do repo.
func TestRegister_Fail_DuplicateEmail(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockToken := new(MockTokenService)
	mockRevocation := new(MockRevocationStore)

	svc := newTestService(mockRepo, mockToken, mockRevocation)

	conflict := apperror.NewConflictError("Este email já está em uso.")
	mockRepo.On("Save", mock.Anything, mock.Anything).Return(domain.User{}, conflict)

	_, _, err := svc.Register(context.Background(), domain.UserRegistration{
		Name:     "Maria",
		Email:    "maria@example.com",
		Password: "senha123",
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ConflictError{}, err)
	mockToken.AssertNotCalled(t, "GenerateToken", mock.Anything)
}

// TestLogin_Success testa o login com credenciais corretas.
func TestLogin_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockToken := new(MockTokenService)
	mockRevocation := new(MockRevocationStore)

	svc := newTestService(mockRepo, mockToken, mockRevocation)

	hash, err := bcrypt.GenerateFromPassword([]byte("senha123"), bcrypt.MinCost)
	assert.NoError(t, err)

	user := domain.User{
		ID:           uuid.New().String(),
		Name:         "Maria Silva",
		Email:        "maria@example.com",
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
	}

	mockRepo.On("FindByEmail", mock.Anything, "maria@example.com").Return(user, nil)
	mockToken.On("GenerateToken", user).Return("jwt-token", nil)

	tokenString, loggedUser, err := svc.Login(context.Background(), "maria@example.com", "senha123")

	assert.NoError(t, err)
	assert.Equal(t, "jwt-token", tokenString)
	assert.Equal(t, user.ID, loggedUser.ID)
	mockRepo.AssertExpectations(t)
	mockToken.AssertExpectations(t)
}

// TestLogin_Fail_UnknownEmail testa que e-mail inexistente vira 401, não 404.
func TestLogin_Fail_UnknownEmail(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockToken := new(MockTokenService)
	mockRevocation := new(MockRevocationStore)

	svc := newTestService(mockRepo, mockToken, mockRevocation)

	mockRepo.On("FindByEmail", mock.Anything, "ninguem@example.com").
		Return(domain.User{}, apperror.NewNotFoundError("Usuário não encontrado."))

	_, _, err := svc.Login(context.Background(), "ninguem@example.com", "senha123")

	assert.Error(t, err)
	assert.IsType(t, &apperror.UnauthorizedError{}, err)
	assert.Contains(t, err.Error(), "Credenciais inválidas.")
	mockToken.AssertNotCalled(t, "GenerateToken", mock.Anything)
}

// TestLogin_Fail_WrongPassword testa o login com senha incorreta.
func TestLogin_Fail_WrongPassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockToken := new(MockTokenService)
	mockRevocation := new(MockRevocationStore)

	svc := newTestService(mockRepo, mockToken, mockRevocation)

	hash, err := bcrypt.GenerateFromPassword([]byte("senha123"), bcrypt.MinCost)
	assert.NoError(t, err)

	user := domain.User{
		ID:           uuid.New().String(),
		Email:        "maria@example.com",
		PasswordHash: string(hash),
	}

	mockRepo.On("FindByEmail", mock.Anything, "maria@example.com").Return(user, nil)

	_, _, err = svc.Login(context.Background(), "maria@example.com", "senha-errada")

	assert.Error(t, err)
	assert.IsType(t, &apperror.UnauthorizedError{}, err)
	mockToken.AssertNotCalled(t, "GenerateToken", mock.Anything)
}

// TestLogout_Success testa que o token válido entra no conjunto de revogação
// com TTL igual à vida restante.
func TestLogout_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockToken := new(MockTokenService)
	mockRevocation := new(MockRevocationStore)

	svc := newTestService(mockRepo, mockToken, mockRevocation)

	claims := &token.CustomClaims{
		UserID: uuid.New().String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(2 * time.Hour)),
		},
	}

	mockToken.On("ValidateToken", "jwt-token").Return(claims, nil)
	mockRevocation.On("Revoke", mock.Anything, "jwt-token", mock.MatchedBy(func(ttl time.Duration) bool {
		return ttl > time.Hour && ttl <= 2*time.Hour
	})).Return(nil)

	err := svc.Logout(context.Background(), "jwt-token")

	assert.NoError(t, err)
	mockRevocation.AssertExpectations(t)
}

// TestLogout_InvalidToken testa que logout de token inválido é um no-op.
func TestLogout_InvalidToken(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockToken := new(MockTokenService)
	mockRevocation := new(MockRevocationStore)

	svc := newTestService(mockRepo, mockToken, mockRevocation)

	mockToken.On("ValidateToken", "token-expirado").Return(nil, errors.New("token is expired"))

	err := svc.Logout(context.Background(), "token-expirado")

	assert.NoError(t, err)
	mockRevocation.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything, mock.Anything)
}

// TestLogout_Fail_RevocationError testa a falha do cache de revogação.
func TestLogout_Fail_RevocationError(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockToken := new(MockTokenService)
	mockRevocation := new(MockRevocationStore)

	svc := newTestService(mockRepo, mockToken, mockRevocation)

	claims := &token.CustomClaims{
		UserID: uuid.New().String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	mockToken.On("ValidateToken", "jwt-token").Return(claims, nil)
	mockRevocation.On("Revoke", mock.Anything, "jwt-token", mock.Anything).
		Return(errors.New("redis: connection refused"))

	err := svc.Logout(context.Background(), "jwt-token")

	assert.Error(t, err)
	assert.IsType(t, &apperror.InternalError{}, err)
}

// TestDeleteUser_Success testa a exclusão de outro usuário por um administrador.
func TestDeleteUser_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockToken := new(MockTokenService)
	mockRevocation := new(MockRevocationStore)

	svc := newTestService(mockRepo, mockToken, mockRevocation)

	targetID := uuid.New().String()
	requesterID := uuid.New().String()

	mockRepo.On("Delete", mock.Anything, targetID).Return(nil)

	err := svc.DeleteUser(context.Background(), targetID, requesterID)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

// TestDeleteUser_Fail_SelfDelete testa que o administrador não exclui a própria conta.
func TestDeleteUser_Fail_SelfDelete(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockToken := new(MockTokenService)
	mockRevocation := new(MockRevocationStore)

	svc := newTestService(mockRepo, mockToken, mockRevocation)

	id := uuid.New().String()

	err := svc.DeleteUser(context.Background(), id, id)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ConflictError{}, err)
	assert.Contains(t, err.Error(), "própria conta")
	mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
