package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config armazena todas as configurações do aplicativo Legado.
type Config struct {
	// Geral
	Port        string
	Environment string
	LogLevel    string
	BaseURL     string // URL pública da loja (success/cancel do checkout)

	// Banco de Dados (PostgreSQL)
	DatabaseURL string
	DBTimeout   time.Duration

	// Cache (Redis)
	RedisAddr        string
	SettingsCacheTTL time.Duration // TTL do cache de ajustes (modo manutenção)

	// Segurança (JWT)
	JWTSecretKey string
	TokenExpiry  time.Duration

	// Rate Limiting (checkout)
	RateLimitMaxRequests int
	RateLimitPeriod      time.Duration

	// Pagamentos (Stripe)
	StripeSecretKey     string
	StripeWebhookSecret string

	// E-mail de confirmação (SMTP)
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string
}

// LoadConfig carrega as configurações a partir das variáveis de ambiente.
func LoadConfig() *Config {
	cfg := &Config{
		// 1. Geral
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),

		// 2. Banco de Dados (PostgreSQL)
		// mustGetEnv garante que a aplicação não inicie sem credenciais de DB
		DatabaseURL: mustGetEnv("DATABASE_URL"),
		DBTimeout:   getDurationEnv("DB_TIMEOUT_SEC", 5) * time.Second,

		// 3. Cache (Redis)
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		SettingsCacheTTL: getDurationEnv("SETTINGS_CACHE_TTL_SEC", 60) * time.Second,

		// 4. Segurança (JWT)
		JWTSecretKey: mustGetEnv("JWT_SECRET_KEY"),
		TokenExpiry:  getDurationEnv("JWT_EXPIRY_MIN", 60) * time.Minute,

		// 5. Rate Limiting do checkout
		RateLimitMaxRequests: getIntEnv("RATE_LIMIT_MAX_REQUESTS", 30),
		RateLimitPeriod:      getDurationEnv("RATE_LIMIT_PERIOD_MIN", 1) * time.Minute,

		// 6. Pagamentos
		StripeSecretKey:     mustGetEnv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: mustGetEnv("STRIPE_WEBHOOK_SECRET"),

		// 7. SMTP (opcional: sem host, o e-mail de confirmação é desativado)
		SMTPHost: getEnv("SMTP_HOST", ""),
		SMTPPort: getEnv("SMTP_PORT", "587"),
		SMTPUser: getEnv("SMTP_USER", ""),
		SMTPPass: getEnv("SMTP_PASS", ""),
		SMTPFrom: getEnv("SMTP_FROM", ""),
	}

	return cfg
}

// getEnv lê a variável de ambiente ou retorna um valor padrão.
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// mustGetEnv lê a variável de ambiente, fatal se não estiver presente.
func mustGetEnv(key string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Fatalf("Variável de ambiente obrigatória ausente: %s", key)
	return ""
}

// getIntEnv lê um inteiro do ambiente ou retorna o padrão.
func getIntEnv(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		log.Printf("Valor inválido para %s; usando padrão %d", key, defaultValue)
	}
	return defaultValue
}

// getDurationEnv lê um número do ambiente para compor durações.
func getDurationEnv(key string, defaultValue int) time.Duration {
	return time.Duration(getIntEnv(key, defaultValue))
}
