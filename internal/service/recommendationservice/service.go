package recommendationservice

import (
	"context"

	"github.com/go-playground/validator/v10"

	"dermacare/internal/domain"
	apperror "dermacare/internal/errors"
	"dermacare/internal/pkg/logger"
	"dermacare/internal/pkg/scoring"
)

// RecommendationRepository define o contrato que o serviço espera da camada
// de persistência (com criptografia transparente).
type RecommendationRepository interface {
	Save(ctx context.Context, rec domain.Recommendation) (domain.Recommendation, error)
	FindByUser(ctx context.Context, userID string) ([]domain.Recommendation, error)
	FindAll(ctx context.Context) ([]domain.RecommendationWithOwner, error)
	FindByIDAndUser(ctx context.Context, id string, userID string) (domain.Recommendation, error)
	Delete(ctx context.Context, id string) error
}

// Service implementa a lógica de negócio das recomendações: validação do
// perfil, invocação do scoring e persistência.
type Service struct {
	repo     RecommendationRepository
	invoker  scoring.Invoker
	validate *validator.Validate
	logger   logger.Logger
}

// NewService cria e retorna uma nova instância do serviço de recomendações.
func NewService(repo RecommendationRepository, invoker scoring.Invoker, log logger.Logger) *Service {
	return &Service{
		repo:     repo,
		invoker:  invoker,
		validate: validator.New(),
		logger:   log,
	}
}

// Generate valida o perfil, invoca o processo de scoring e persiste o
// resultado cifrado. Se o scoring falhar, NADA é persistido e o erro sobe
// como erro de servidor (sem retry — o cliente reenvia se quiser).
func (s *Service) Generate(ctx context.Context, userID string, profile domain.SkinProfile) (domain.Recommendation, error) {
	// 1. Validação dos campos obrigatórios do perfil.
	if err := s.validate.Struct(profile); err != nil {
		return domain.Recommendation{}, apperror.NewValidationError("Todos os campos do perfil são obrigatórios.")
	}

	// Alergia é opcional; o modelo espera "None" quando não informada.
	if profile.AllergyIssue == "" {
		profile.AllergyIssue = "None"
	}

	// 2. Invocação do processo de scoring.
	// As chaves do payload são exatamente as esperadas pelo modelo.
	scoringInput := map[string]string{
		"Gender":           profile.Gender,
		"Age Range":        profile.AgeRange,
		"Skin Type":        profile.SkinType,
		"Skin Concern":     profile.SkinConcern,
		"Skin Sensitivity": profile.SkinSensitivity,
		"Allergic Issue":   profile.AllergyIssue,
	}

	result, err := s.invoker.GetRecommendation(ctx, scoringInput)
	if err != nil {
		s.logger.Error("Falha ao obter recomendação do processo de scoring.", err)
		return domain.Recommendation{}, apperror.NewInternalError("Falha ao gerar a recomendação.", err)
	}

	// 3. Persistência (o repositório cifra o produto de forma transparente).
	rec := domain.Recommendation{
		UserID:             userID,
		Gender:             profile.Gender,
		AgeRange:           profile.AgeRange,
		SkinType:           profile.SkinType,
		SkinConcern:        profile.SkinConcern,
		SkinSensitivity:    profile.SkinSensitivity,
		AllergyIssue:       profile.AllergyIssue,
		RecommendedProduct: result.RecommendedProduct,
	}

	saved, err := s.repo.Save(ctx, rec)
	if err != nil {
		return domain.Recommendation{}, err
	}

	s.logger.Info("Recomendação gerada e persistida.", map[string]interface{}{
		"recommendation_id": saved.ID,
		"user_id":           userID,
	})
	return saved, nil
}

// GetByUser retorna as recomendações do usuário autenticado, mais recentes primeiro.
func (s *Service) GetByUser(ctx context.Context, userID string) ([]domain.Recommendation, error) {
	return s.repo.FindByUser(ctx, userID)
}

// GetAll retorna todas as recomendações com a identidade do dono (admin).
func (s *Service) GetAll(ctx context.Context) ([]domain.RecommendationWithOwner, error) {
	return s.repo.FindAll(ctx)
}

// GetOne retorna uma recomendação específica, somente se pertencer ao usuário.
// Registro alheio ou inexistente resulta no mesmo NotFoundError.
func (s *Service) GetOne(ctx context.Context, id string, userID string) (domain.Recommendation, error) {
	return s.repo.FindByIDAndUser(ctx, id, userID)
}

// Delete exclui uma recomendação pelo ID (admin).
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
