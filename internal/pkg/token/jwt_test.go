package token_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"dermacare/internal/domain"
	"dermacare/internal/pkg/token"
)

const testSecret = "segredo-de-teste-bem-longo"

func testUser() domain.User {
	return domain.User{
		ID:        "user-123",
		Name:      "Maria",
		Email:     "maria@example.com",
		Role:      domain.RoleUser,
		CreatedAt: time.Now().Add(-48 * time.Hour),
	}
}

// TestGenerateAndValidateToken testa o ciclo completo de emissão e validação.
func TestGenerateAndValidateToken(t *testing.T) {
	svc := token.NewService(testSecret, 24*time.Hour)
	user := testUser()

	tokenString, err := svc.GenerateToken(user)
	assert.NoError(t, err)
	assert.NotEmpty(t, tokenString)

	claims, err := svc.ValidateToken(tokenString)
	assert.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Name, claims.Name)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, domain.RoleUser, claims.Role)
	assert.Equal(t, "DermaCare-API", claims.Issuer)

	// A vida restante deve estar próxima de 24h
	remaining := claims.RemainingLifetime()
	assert.Greater(t, remaining, 23*time.Hour)
	assert.LessOrEqual(t, remaining, 24*time.Hour)
}

// TestValidateToken_Expired testa a rejeição de token expirado com o erro tipado.
func TestValidateToken_Expired(t *testing.T) {
	// Expiração negativa: o token já nasce expirado
	svc := token.NewService(testSecret, -1*time.Hour)

	tokenString, err := svc.GenerateToken(testUser())
	assert.NoError(t, err)

	_, err = svc.ValidateToken(tokenString)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, token.ErrTokenExpired))
	assert.False(t, errors.Is(err, token.ErrTokenInvalid))
}

// TestValidateToken_WrongSecret testa a rejeição de assinatura inválida.
func TestValidateToken_WrongSecret(t *testing.T) {
	svc := token.NewService(testSecret, 24*time.Hour)
	other := token.NewService("outro-segredo", 24*time.Hour)

	tokenString, err := svc.GenerateToken(testUser())
	assert.NoError(t, err)

	_, err = other.ValidateToken(tokenString)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, token.ErrTokenInvalid))
}

// TestValidateToken_Garbage testa a rejeição de strings que não são JWT.
func TestValidateToken_Garbage(t *testing.T) {
	svc := token.NewService(testSecret, 24*time.Hour)

	_, err := svc.ValidateToken("isto-não-é-um-jwt")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, token.ErrTokenInvalid))
}
