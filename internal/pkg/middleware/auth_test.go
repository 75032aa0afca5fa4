package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"dermacare/internal/domain"
	"dermacare/internal/pkg/middleware"
	"dermacare/internal/pkg/token"
)

// MockTokenService é uma implementação mock da interface TokenService
type MockTokenService struct {
	mock.Mock
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

func okHandler(claimsOut *middleware.UserClaims) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := middleware.GetUserClaimsFromContext(r.Context()); ok && claimsOut != nil {
			*claimsOut = claims
		}
		w.WriteHeader(http.StatusOK)
	}
}

// TestAuthMiddleware_Success testa o caminho feliz: claims anexadas ao contexto.
func TestAuthMiddleware_Success(t *testing.T) {
	mockToken := new(MockTokenService)
	mockRevocation := new(MockRevocationStore)

	claims := &token.CustomClaims{
		UserID: "user-1",
		Name:   "Maria Silva",
		Email:  "maria@example.com",
		Role:   domain.RoleUser,
	}

	mockRevocation.On("IsRevoked", mock.Anything, "valid-token").Return(false, nil)
	mockToken.On("ValidateToken", "valid-token").Return(claims, nil)

	var gotClaims middleware.UserClaims
	handler := middleware.NewAuthMiddleware(mockToken, mockRevocation)(okHandler(&gotClaims))

	req := httptest.NewRequest(http.MethodGet, "/v1/recommendations", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "user-1", gotClaims.UserID)
	assert.Equal(t, domain.RoleUser, gotClaims.Role)
}

// TestAuthMiddleware_Fail_MissingToken testa requisição sem header Authorization.
func TestAuthMiddleware_Fail_MissingToken(t *testing.T) {
	mockToken := new(MockTokenService)
	mockRevocation := new(MockRevocationStore)

	handler := middleware.NewAuthMiddleware(mockToken, mockRevocation)(okHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/v1/recommendations", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "UNAUTHORIZED")
	mockRevocation.AssertNotCalled(t, "IsRevoked", mock.Anything, mock.Anything)
}

// TestAuthMiddleware_Fail_MalformedHeader testa header sem o prefixo Bearer.
func TestAuthMiddleware_Fail_MalformedHeader(t *testing.T) {
	mockToken := new(MockTokenService)
	mockRevocation := new(MockRevocationStore)

	handler := middleware.NewAuthMiddleware(mockToken, mockRevocation)(okHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/v1/recommendations", nil)
	req.Header.Set("Authorization", "Basic abc123")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

// TestAuthMiddleware_Fail_RevokedToken testa que token revogado é barrado
// antes mesmo da validação de assinatura.
func TestAuthMiddleware_Fail_RevokedToken(t *testing.T) {
	mockToken := new(MockTokenService)
	mockRevocation := new(MockRevocationStore)

	mockRevocation.On("IsRevoked", mock.Anything, "revoked-token").Return(true, nil)

	handler := middleware.NewAuthMiddleware(mockToken, mockRevocation)(okHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/v1/recommendations", nil)
	req.Header.Set("Authorization", "Bearer revoked-token")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "revogado")
	mockToken.AssertNotCalled(t, "ValidateToken", mock.Anything)
}

// TestAuthMiddleware_Fail_InvalidToken testa token com assinatura inválida ou expirado.
func TestAuthMiddleware_Fail_InvalidToken(t *testing.T) {
	mockToken := new(MockTokenService)
	mockRevocation := new(MockRevocationStore)

	mockRevocation.On("IsRevoked", mock.Anything, "bad-token").Return(false, nil)
	mockToken.On("ValidateToken", "bad-token").Return(nil, token.ErrTokenInvalid)

	handler := middleware.NewAuthMiddleware(mockToken, mockRevocation)(okHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/v1/recommendations", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

// TestAuthMiddleware_Fail_RevocationStoreError testa falha na consulta ao cache.
func TestAuthMiddleware_Fail_RevocationStoreError(t *testing.T) {
	mockToken := new(MockTokenService)
	mockRevocation := new(MockRevocationStore)

	mockRevocation.On("IsRevoked", mock.Anything, "any-token").
		Return(false, errors.New("redis: connection refused"))

	handler := middleware.NewAuthMiddleware(mockToken, mockRevocation)(okHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/v1/recommendations", nil)
	req.Header.Set("Authorization", "Bearer any-token")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

// --- PermissionMiddleware ---

func requestWithClaims(role domain.UserRole) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/v1/admin/all-users", nil)
	claims := middleware.UserClaims{UserID: "user-1", Role: role}
	ctx := context.WithValue(req.Context(), middleware.UserClaimsKey, claims)
	return req.WithContext(ctx)
}

// TestPermissionMiddleware_Success_AdminRole testa o acesso com papel suficiente.
func TestPermissionMiddleware_Success_AdminRole(t *testing.T) {
	handler := middleware.PermissionMiddleware(domain.RoleAdmin)(okHandler(nil))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, requestWithClaims(domain.RoleAdmin))

	assert.Equal(t, http.StatusOK, rr.Code)
}

// TestPermissionMiddleware_Fail_InsufficientRole testa USER tentando rota de ADMIN.
func TestPermissionMiddleware_Fail_InsufficientRole(t *testing.T) {
	handler := middleware.PermissionMiddleware(domain.RoleAdmin)(okHandler(nil))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, requestWithClaims(domain.RoleUser))

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "FORBIDDEN")
}

// TestPermissionMiddleware_Fail_UnknownRole testa que papel fora do enum nunca autoriza.
func TestPermissionMiddleware_Fail_UnknownRole(t *testing.T) {
	handler := middleware.PermissionMiddleware(domain.RoleAdmin, domain.RoleUser)(okHandler(nil))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, requestWithClaims(domain.UserRole("SUPERUSER")))

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

// TestPermissionMiddleware_Fail_NoClaims testa aplicação sem o AuthMiddleware antes.
func TestPermissionMiddleware_Fail_NoClaims(t *testing.T) {
	handler := middleware.PermissionMiddleware(domain.RoleAdmin)(okHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/all-users", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
