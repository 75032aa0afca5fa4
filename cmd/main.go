package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	// Pacotes de infraestrutura e utilitários
	"dermacare/config"
	"dermacare/internal/pkg/cache"
	"dermacare/internal/pkg/crypto"
	"dermacare/internal/pkg/database"
	"dermacare/internal/pkg/logger"
	"dermacare/internal/pkg/scoring"
	"dermacare/internal/pkg/token"

	// Camadas da aplicação para Injeção de Dependências
	"dermacare/internal/api/admin"
	"dermacare/internal/api/recommendation"
	"dermacare/internal/api/router"
	"dermacare/internal/api/user"
	"dermacare/internal/repository/recommendationrepo"
	"dermacare/internal/repository/userrepo"
	"dermacare/internal/service/recommendationservice"
	"dermacare/internal/service/userservice"
)

func main() {
	// 1. Configuração e Inicialização
	log.Println("⚡ Inicializando serviço DermaCare...")

	// O godotenv.Load() procura por um arquivo chamado .env na raiz.
	if err := godotenv.Load(); err != nil {
		// Se o arquivo .env não for encontrado, avisamos, mas continuamos,
		// pois as variáveis essenciais podem estar no ambiente do sistema (ex: Docker).
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig()
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("Configurações carregadas.", nil)

	// 2. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados (PostgreSQL)
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	log.Info("Conexão PostgreSQL estabelecida.", nil)

	// B. Cache (Redis) — revogação de tokens e rate limiting
	cacheClient := cache.NewRedisClient(cfg.RedisAddr)
	log.Info("Conexão Redis estabelecida.", nil)

	// C. Codec de criptografia (AES-256-CTR)
	codec, err := crypto.NewAESCodec(cfg.EncryptionKey)
	if err != nil {
		log.Fatal("Falha ao inicializar o codec de criptografia.", err)
	}
	log.Debug("Codec de criptografia inicializado.", nil)

	// D. Serviço de Tokens (JWT) e conjunto de revogação
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)
	revocation := token.NewCacheRevocationStore(cacheClient)
	log.Debug("Serviço de Tokens JWT inicializado.", nil)

	// E. Invocador do processo de scoring
	invoker := scoring.NewProcessInvoker(cfg.ScoringCommand, cfg.ScoringScriptPath, cfg.ScoringTimeout, log)
	log.Debug("Invocador de scoring inicializado.", map[string]interface{}{
		"command": cfg.ScoringCommand,
		"script":  cfg.ScoringScriptPath,
	})

	// 3. INJEÇÃO DE DEPENDÊNCIAS (Montagem da Clean Architecture)
	// Ordem: Repository -> Service -> Handler

	userRepo := userrepo.NewUserRepository(db, cfg.DBTimeout, log)
	recRepo := recommendationrepo.NewRecommendationRepository(db, cfg.DBTimeout, codec, log)
	log.Debug("Repositórios inicializados.", nil)

	userSvc := userservice.NewService(userRepo, tokenSvc, revocation, log)
	recSvc := recommendationservice.NewService(recRepo, invoker, log)
	log.Debug("Serviços inicializados.", nil)

	userHandler := user.NewHandler(userSvc, log)
	recHandler := recommendation.NewHandler(recSvc, log)
	adminHandler := admin.NewHandler(userSvc, recSvc, log)
	log.Debug("Handlers inicializados.", nil)

	// 4. Configuração e Início do Roteador/Servidor

	r := router.NewRouter(
		userHandler,
		recHandler,
		adminHandler,
		tokenSvc,
		revocation,
		cacheClient,
		cfg.RateLimitMaxRequests,
		cfg.RateLimitPeriod,
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second, // O scoring pode levar até SCORING_TIMEOUT_SEC
		IdleTimeout:  60 * time.Second,
	}

	// 5. Execução e Graceful Shutdown
	go func() {
		log.Info("Servidor DermaCare ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Servidor falhou.", err)
		}
	}()

	// Lógica do Graceful Shutdown (captura de sinal)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Desligamento do servidor forçado.", err)
	}

	log.Info("Servidor encerrado com sucesso.", nil)
}
