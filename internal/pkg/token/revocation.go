package token

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"dermacare/internal/pkg/cache"
)

// RevocationStore define o contrato do conjunto de revogação de tokens.
// Um token revogado (logout) é tratado como inválido mesmo antes de expirar.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenString string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenString string) (bool, error)
}

// CacheRevocationStore implementa RevocationStore sobre o cache compartilhado
// (Redis). Cada entrada recebe TTL igual à vida restante do token, então o
// conjunto nunca cresce além dos tokens ainda vivos e sobrevive a reinícios
// do processo da API.
type CacheRevocationStore struct {
	cache cache.Client
}

// NewCacheRevocationStore cria o conjunto de revogação sobre o cache injetado.
func NewCacheRevocationStore(cacheClient cache.Client) *CacheRevocationStore {
	return &CacheRevocationStore{cache: cacheClient}
}

// revocationKey deriva a chave do Redis a partir do token.
// Guardamos um hash em vez do JWT inteiro: chaves curtas e nenhuma credencial
// íntegra armazenada no cache.
func revocationKey(tokenString string) string {
	sum := sha256.Sum256([]byte(tokenString))
	return "revoked-token:" + hex.EncodeToString(sum[:])
}

// Revoke adiciona o token ao conjunto de revogação com o TTL informado.
// TTL não positivo significa token já expirado; nada a registrar.
func (s *CacheRevocationStore) Revoke(ctx context.Context, tokenString string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.cache.Set(ctx, revocationKey(tokenString), "1", ttl)
}

// IsRevoked informa se o token está no conjunto de revogação.
func (s *CacheRevocationStore) IsRevoked(ctx context.Context, tokenString string) (bool, error) {
	return s.cache.Exists(ctx, revocationKey(tokenString))
}
