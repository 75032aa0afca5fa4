package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"dermacare/internal/domain"
	apperror "dermacare/internal/errors"
	"dermacare/internal/pkg/token"
)

// ContextKey é o tipo das chaves usadas para armazenar dados no contexto.
// Usamos um tipo próprio para garantir que não haja conflito com outras
// chaves (Context Keys devem ser não-exportadas ou de um tipo único).
type ContextKey int

const (
	UserClaimsKey ContextKey = iota
)

// UserClaims representa os dados do usuário extraídos do token JWT,
// que serão anexados ao contexto.
type UserClaims struct {
	UserID string
	Name   string
	Email  string
	Role   domain.UserRole
}

// TokenService define o contrato de validação necessário para o middleware.
type TokenService interface {
	ValidateToken(tokenString string) (*token.CustomClaims, error)
}

// writeAuthError envia uma resposta de erro padronizada (mesmo formato dos
// handlers) para rejeições do gate de autenticação/autorização.
func writeAuthError(w http.ResponseWriter, appErr apperror.AppError) {
	status, category, message := apperror.MapToHTTPStatus(appErr)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"code":     status,
		"category": category,
		"message":  message,
	})
}

// ExtractBearerToken extrai o token do header Authorization: Bearer <token>.
// Retorna string vazia quando o header está ausente ou malformado.
func ExtractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(authHeader, "Bearer ")
}

// NewAuthMiddleware cria uma função de middleware que valida um JWT, consulta
// o conjunto de revogação e anexa as claims ao contexto da requisição.
//
// Máquina de estados por requisição:
//
//	sem credencial      -> 401 (MissingToken)
//	token revogado      -> 401 (Revoked)
//	assinatura/expirado -> 401 (InvalidToken)
//	ok                  -> Authenticated, claims no contexto
func NewAuthMiddleware(tokenSvc TokenService, revocation token.RevocationStore) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {

			// 1. Extrair o Token do Header Authorization: Bearer <token>
			tokenString := ExtractBearerToken(r)
			if tokenString == "" {
				writeAuthError(w, apperror.NewUnauthorizedError("Token de autorização ausente ou malformado."))
				return
			}

			// 2. Verificar o conjunto de revogação (logout) antes da assinatura.
			// Token revogado é rejeitado mesmo que ainda não tenha expirado.
			revoked, err := revocation.IsRevoked(r.Context(), tokenString)
			if err != nil {
				writeAuthError(w, apperror.NewInternalError("Falha ao consultar o conjunto de revogação.", err))
				return
			}
			if revoked {
				writeAuthError(w, apperror.NewUnauthorizedError("Token revogado. Faça login novamente."))
				return
			}

			// 3. Validar o Token (assinatura + expiração)
			claims, err := tokenSvc.ValidateToken(tokenString)
			if err != nil {
				writeAuthError(w, apperror.NewUnauthorizedError("Token inválido ou expirado."))
				return
			}

			// 4. Anexar Claims ao Contexto
			userClaims := UserClaims{
				UserID: claims.UserID,
				Name:   claims.Name,
				Email:  claims.Email,
				Role:   claims.Role,
			}

			ctx := context.WithValue(r.Context(), UserClaimsKey, userClaims)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	}
}

// GetUserClaimsFromContext é uma função utilitária para extrair as claims no handler.
func GetUserClaimsFromContext(ctx context.Context) (UserClaims, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(UserClaims)
	return claims, ok
}

// PermissionMiddleware verifica se o papel do usuário autenticado está na
// lista de papéis permitidos (AuthZ). Deve ser aplicado após o AuthMiddleware.
func PermissionMiddleware(requiredRoles ...domain.UserRole) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {

			// 1. Tentar extrair as Claims do contexto
			claims, ok := GetUserClaimsFromContext(r.Context())
			if !ok {
				writeAuthError(w, apperror.NewUnauthorizedError("Autorização necessária. Token não processado."))
				return
			}

			// 2. Verificar Permissão (enum fechado; papel desconhecido nunca autoriza)
			isAuthorized := false
			for _, requiredRole := range requiredRoles {
				if claims.Role == requiredRole {
					isAuthorized = true
					break
				}
			}

			if !isAuthorized {
				writeAuthError(w, apperror.NewForbiddenError("Você não tem a permissão necessária."))
				return
			}

			// 3. Permissão concedida: Chama o próximo handler
			next.ServeHTTP(w, r)
		}
	}
}
