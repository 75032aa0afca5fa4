package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"dermacare/config"
	"dermacare/internal/domain"
	apperror "dermacare/internal/errors"
	"dermacare/internal/pkg/database"
	"dermacare/internal/pkg/logger"
	"dermacare/internal/repository/userrepo"
)

// Cria a conta ADMIN padrão caso nenhuma exista. O sistema permite no máximo
// um administrador, então este utilitário é idempotente: se um ADMIN já
// estiver cadastrado, nada é feito.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Aviso: Arquivo .env não encontrado. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig()
	logg := logger.NewLogger(cfg.LogLevel)

	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		logg.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()

	repo := userrepo.NewUserRepository(db, cfg.DBTimeout, logg)
	ctx := context.Background()

	// Verifica se já existe um administrador
	if existing, err := repo.FindFirstByRole(ctx, domain.RoleAdmin); err == nil {
		logg.Info("Administrador já existe.", map[string]interface{}{"email": existing.Email})
		return
	} else if !apperrorIsNotFound(err) {
		logg.Fatal("Falha ao verificar administrador existente.", err)
	}

	adminEmail := getEnvOr("ADMIN_EMAIL", "admin@dermacare.local")
	adminPassword := getEnvOr("ADMIN_PASSWORD", "admin")

	hashed, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		logg.Fatal("Falha ao gerar hash da senha do administrador.", err)
	}

	admin, err := repo.Save(ctx, domain.User{
		Name:         "Admin",
		Email:        adminEmail,
		PasswordHash: string(hashed),
		Role:         domain.RoleAdmin,
	})
	if err != nil {
		logg.Fatal("Falha ao criar administrador padrão.", err)
	}

	logg.Info("Administrador padrão criado.", map[string]interface{}{
		"email":   admin.Email,
		"user_id": admin.ID,
	})
}

func apperrorIsNotFound(err error) bool {
	_, ok := err.(*apperror.NotFoundError)
	return ok
}

func getEnvOr(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
