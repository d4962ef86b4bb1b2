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
	"legado/config"
	"legado/internal/pkg/cache"
	"legado/internal/pkg/database"
	"legado/internal/pkg/logger"
	"legado/internal/pkg/mailer"
	"legado/internal/pkg/payment"
	"legado/internal/pkg/token"

	// Camadas para Injeção de Dependências
	"legado/internal/api/admin"
	"legado/internal/api/checkout"
	"legado/internal/api/content"
	"legado/internal/api/product"
	"legado/internal/api/router"
	"legado/internal/repository/contentrepo"
	"legado/internal/repository/inventoryrepo"
	"legado/internal/repository/orderrepo"
	"legado/internal/repository/productrepo"
	"legado/internal/repository/userrepo"
	"legado/internal/service/checkoutservice"
	"legado/internal/service/contentservice"
	"legado/internal/service/inventoryservice"
	"legado/internal/service/orderservice"
	"legado/internal/service/productservice"
	"legado/internal/service/userservice"
)

func main() {
	// 1. Configuração e Inicialização
	log.Println("⚡ Inicializando a loja Legado...")
	if err := godotenv.Load(); err != nil {
		// O .env é conveniência de desenvolvimento; em produção as
		// variáveis vêm do ambiente (ex: Docker).
		log.Println("⚠️ Aviso: Arquivo .env não encontrado. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig()
	appLog := logger.NewLogger(cfg.LogLevel)
	appLog.Info("Configurações carregadas.", nil)

	// 2. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados (PostgreSQL)
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		appLog.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	appLog.Info("Conexão PostgreSQL estabelecida.", nil)

	// B. Cache (Redis)
	cacheClient := cache.NewRedisClient(cfg.RedisAddr)
	appLog.Info("Conexão Redis estabelecida.", nil)

	// C. Gateway de Pagamento (Stripe)
	gateway := payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.BaseURL)
	appLog.Info("Gateway de pagamento configurado.", nil)

	// D. Mailer (SMTP). Sem host configurado, os e-mails são descartados.
	var mail mailer.Mailer = mailer.NopMailer{}
	if cfg.SMTPHost != "" {
		mail = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.SMTPFrom,
			FromName: "Legado",
		})
	}

	// E. Serviço de Tokens (JWT)
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)
	appLog.Debug("Serviço de Tokens JWT inicializado.", nil)

	// 3. INJEÇÃO DE DEPENDÊNCIAS (Repository -> Service -> Handler)

	// A. Repositórios
	productRepo := productrepo.NewProductRepository(db, cfg.DBTimeout, appLog)
	inventoryRepo := inventoryrepo.NewInventoryRepository(db, cfg.DBTimeout, appLog)
	orderRepo := orderrepo.NewOrderRepository(db, cfg.DBTimeout, appLog)
	userRepo := userrepo.NewUserRepository(db, cfg.DBTimeout, appLog)
	contentRepo := contentrepo.NewContentRepository(db, cfg.DBTimeout, appLog)
	appLog.Debug("Repositórios inicializados.", nil)

	// B. Serviços
	productSvc := productservice.NewService(productRepo, appLog)
	inventorySvc := inventoryservice.NewService(productRepo, inventoryRepo, appLog)
	orderSvc := orderservice.NewService(orderRepo, mail, appLog)
	checkoutSvc := checkoutservice.NewService(inventorySvc, inventorySvc, orderSvc, gateway, appLog)
	userSvc := userservice.NewService(userRepo, tokenSvc)
	contentSvc := contentservice.NewService(contentRepo, cacheClient, cfg.SettingsCacheTTL, appLog)
	appLog.Debug("Serviços inicializados.", nil)

	// C. Handlers
	productHandler := product.NewHandler(productSvc, inventorySvc, appLog)
	checkoutHandler := checkout.NewHandler(checkoutSvc, gateway, appLog)
	contentHandler := content.NewHandler(contentSvc, appLog)
	adminHandler := admin.NewHandler(productSvc, orderSvc, userSvc, contentSvc, appLog)
	appLog.Debug("Handlers inicializados.", nil)

	// 4. Configuração e Início do Roteador/Servidor
	r := router.NewRouter(productHandler, checkoutHandler, contentHandler, adminHandler, router.Config{
		TokenService:  tokenSvc,
		Cache:         cacheClient,
		Maintenance:   contentSvc,
		RateLimit:     cfg.RateLimitMaxRequests,
		RateLimitSpan: cfg.RateLimitPeriod,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Execução e Graceful Shutdown
	go func() {
		appLog.Info("Servidor Legado ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	appLog.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLog.Error("Desligamento do servidor forçado.", err)
	}

	appLog.Info("Servidor encerrado com sucesso.", nil)
}
