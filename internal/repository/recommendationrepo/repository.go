package recommendationrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dermacare/internal/domain"
	apperror "dermacare/internal/errors"
	"dermacare/internal/pkg/crypto"
	"dermacare/internal/pkg/logger"
)

// RecommendationRepository implementa a persistência das recomendações.
// A criptografia é transparente para as camadas superiores: o Save recebe o
// produto em claro e grava ciphertext + IV; todas as leituras passam pelo
// codec antes de retornar. O IV é gerado novo a cada gravação (nunca reusado).
type RecommendationRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	Codec     crypto.Codec
	logger    logger.Logger
}

// NewRecommendationRepository cria uma nova instância do repositório,
// injetando o DB e o codec de criptografia.
func NewRecommendationRepository(db *sql.DB, dbTimeout time.Duration, codec crypto.Codec, log logger.Logger) *RecommendationRepository {
	return &RecommendationRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		Codec:     codec,
		logger:    log,
	}
}

// Save cifra o produto recomendado e persiste a recomendação.
func (r *RecommendationRepository) Save(ctx context.Context, rec domain.Recommendation) (domain.Recommendation, error) {
	r.logger.Debug("Iniciando Save de recomendação no repositório.", map[string]interface{}{"user_id": rec.UserID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now()

	// Cifra o texto do produto. O IV gerado aqui fica amarrado a este registro;
	// sem ele o ciphertext não é recuperável.
	cipherHex, ivHex, err := r.Codec.Encrypt(rec.RecommendedProduct)
	if err != nil {
		r.logger.Error("Falha ao cifrar produto recomendado.", err)
		return domain.Recommendation{}, apperror.NewInternalError("Falha ao cifrar a recomendação.", err)
	}

	const insertSQL = `INSERT INTO recommendations
        (id, user_id, gender, age_range, skin_type, skin_concern, skin_sensitivity, allergy_issue, recommended_product, iv, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = r.DB.ExecContext(
		ctxTimeout,
		insertSQL,
		rec.ID,
		rec.UserID,
		rec.Gender,
		rec.AgeRange,
		rec.SkinType,
		rec.SkinConcern,
		rec.SkinSensitivity,
		rec.AllergyIssue,
		cipherHex,
		ivHex,
		rec.CreatedAt,
	)

	if err != nil {
		r.logger.Error("Falha ao inserir recomendação no DB.", err)
		return domain.Recommendation{}, apperror.NewDBError("failed to insert recommendation", err)
	}

	r.logger.Info("Recomendação salva com sucesso.", map[string]interface{}{
		"recommendation_id": rec.ID,
		"user_id":           rec.UserID,
	})

	// Retorna a recomendação com o produto ainda em claro para o chamador.
	return rec, nil
}

// FindByUser retorna as recomendações de um usuário, da mais recente para a
// mais antiga, já descriptografadas.
func (r *RecommendationRepository) FindByUser(ctx context.Context, userID string) ([]domain.Recommendation, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `SELECT id, user_id, gender, age_range, skin_type, skin_concern, skin_sensitivity, allergy_issue, recommended_product, iv, created_at
                   FROM recommendations WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctxTimeout, query, userID)
	if err != nil {
		r.logger.Error("Falha ao listar recomendações do usuário no DB.", err)
		return nil, apperror.NewDBError("failed to list user recommendations", err)
	}
	defer rows.Close()

	recs := []domain.Recommendation{}
	for rows.Next() {
		rec, err := r.scanAndDecrypt(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("failed to iterate recommendation rows", err)
	}

	return recs, nil
}

// FindAll retorna todas as recomendações com a identidade do dono (join com
// a tabela de usuários), já descriptografadas. Uso exclusivo administrativo.
func (r *RecommendationRepository) FindAll(ctx context.Context) ([]domain.RecommendationWithOwner, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `SELECT r.id, r.user_id, r.gender, r.age_range, r.skin_type, r.skin_concern, r.skin_sensitivity, r.allergy_issue,
                          r.recommended_product, r.iv, r.created_at, u.name, u.email
                   FROM recommendations r
                   JOIN users u ON u.id = r.user_id
                   ORDER BY r.created_at DESC`

	rows, err := r.DB.QueryContext(ctxTimeout, query)
	if err != nil {
		r.logger.Error("Falha ao listar todas as recomendações no DB.", err)
		return nil, apperror.NewDBError("failed to list all recommendations", err)
	}
	defer rows.Close()

	recs := []domain.RecommendationWithOwner{}
	for rows.Next() {
		var rec domain.RecommendationWithOwner
		var cipherHex, ivHex string

		err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.Gender,
			&rec.AgeRange,
			&rec.SkinType,
			&rec.SkinConcern,
			&rec.SkinSensitivity,
			&rec.AllergyIssue,
			&cipherHex,
			&ivHex,
			&rec.CreatedAt,
			&rec.OwnerName,
			&rec.OwnerEmail,
		)
		if err != nil {
			r.logger.Error("Falha ao mapear linha de recomendação.", err)
			return nil, apperror.NewDBError("failed to scan recommendation row", err)
		}

		plaintext, err := r.Codec.Decrypt(cipherHex, ivHex)
		if err != nil {
			r.logger.Error("Falha ao descriptografar recomendação.", err)
			return nil, apperror.NewInternalError("Falha ao descriptografar a recomendação.", err)
		}
		rec.RecommendedProduct = plaintext

		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("failed to iterate recommendation rows", err)
	}

	return recs, nil
}

// FindByIDAndUser busca uma recomendação pelo ID garantindo que ela pertença
// ao usuário informado. Registro inexistente e registro de outro usuário
// retornam o mesmo NotFoundError — a existência nunca é revelada.
func (r *RecommendationRepository) FindByIDAndUser(ctx context.Context, id string, userID string) (domain.Recommendation, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `SELECT id, user_id, gender, age_range, skin_type, skin_concern, skin_sensitivity, allergy_issue, recommended_product, iv, created_at
                   FROM recommendations WHERE id = $1 AND user_id = $2`

	row := r.DB.QueryRowContext(ctxTimeout, query, id, userID)

	var rec domain.Recommendation
	var cipherHex, ivHex string

	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.Gender,
		&rec.AgeRange,
		&rec.SkinType,
		&rec.SkinConcern,
		&rec.SkinSensitivity,
		&rec.AllergyIssue,
		&cipherHex,
		&ivHex,
		&rec.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Recommendation{}, apperror.NewNotFoundError("Recomendação não encontrada")
		}
		r.logger.Error("Falha ao buscar recomendação no DB.", err)
		return domain.Recommendation{}, apperror.NewDBError("failed to find recommendation", err)
	}

	plaintext, err := r.Codec.Decrypt(cipherHex, ivHex)
	if err != nil {
		r.logger.Error("Falha ao descriptografar recomendação.", err)
		return domain.Recommendation{}, apperror.NewInternalError("Falha ao descriptografar a recomendação.", err)
	}
	rec.RecommendedProduct = plaintext

	return rec, nil
}

// Delete remove uma recomendação pelo ID (operação administrativa).
// Retorna NotFoundError se o ID não existir.
func (r *RecommendationRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const deleteSQL = `DELETE FROM recommendations WHERE id = $1`

	result, err := r.DB.ExecContext(ctxTimeout, deleteSQL, id)
	if err != nil {
		r.logger.Error("Falha ao excluir recomendação no DB.", err)
		return apperror.NewDBError("failed to delete recommendation", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperror.NewDBError("failed to read rows affected", err)
	}
	if affected == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Recomendação com id '%s' não encontrada", id))
	}

	r.logger.Info("Recomendação excluída com sucesso.", map[string]interface{}{"recommendation_id": id})
	return nil
}

// scanAndDecrypt mapeia uma linha de recomendação e descriptografa o produto.
func (r *RecommendationRepository) scanAndDecrypt(rows *sql.Rows) (domain.Recommendation, error) {
	var rec domain.Recommendation
	var cipherHex, ivHex string

	err := rows.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.Gender,
		&rec.AgeRange,
		&rec.SkinType,
		&rec.SkinConcern,
		&rec.SkinSensitivity,
		&rec.AllergyIssue,
		&cipherHex,
		&ivHex,
		&rec.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Falha ao mapear linha de recomendação.", err)
		return domain.Recommendation{}, apperror.NewDBError("failed to scan recommendation row", err)
	}

	plaintext, err := r.Codec.Decrypt(cipherHex, ivHex)
	if err != nil {
		r.logger.Error("Falha ao descriptografar recomendação.", err)
		return domain.Recommendation{}, apperror.NewInternalError("Falha ao descriptografar a recomendação.", err)
	}
	rec.RecommendedProduct = plaintext

	return rec, nil
}
