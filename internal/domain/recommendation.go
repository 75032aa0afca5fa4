package domain

import "time"

// SkinProfile é a tupla de atributos de pele enviada pelo usuário para o
// processo de scoring. As tags `validate` cobrem os campos obrigatórios;
// AllergyIssue é opcional e assume "None" quando vazio.
type SkinProfile struct {
	Gender          string `json:"gender" validate:"required"`
	AgeRange        string `json:"ageRange" validate:"required"`
	SkinType        string `json:"skinType" validate:"required"`
	SkinConcern     string `json:"skinConcern" validate:"required"`
	SkinSensitivity string `json:"skinSensitivity" validate:"required"`
	AllergyIssue    string `json:"allergyIssue"`
}

// Recommendation representa uma recomendação persistida. O campo
// RecommendedProduct circula em claro nas camadas de serviço/handler;
// o repositório é o único ponto que conhece o ciphertext e o IV.
type Recommendation struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	Gender             string    `json:"gender"`
	AgeRange           string    `json:"age_range"`
	SkinType           string    `json:"skin_type"`
	SkinConcern        string    `json:"skin_concern"`
	SkinSensitivity    string    `json:"skin_sensitivity"`
	AllergyIssue       string    `json:"allergy_issue"`
	RecommendedProduct string    `json:"recommended_product"`
	CreatedAt          time.Time `json:"created_at"`
}

// RecommendationWithOwner agrega a identidade do dono — usado apenas na
// listagem administrativa (join com a tabela de usuários).
type RecommendationWithOwner struct {
	Recommendation
	OwnerName  string `json:"owner_name"`
	OwnerEmail string `json:"owner_email"`
}
