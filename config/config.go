package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Backends de armazenamento aceitos em STORE_BACKEND.
const (
	BackendMemory    = "memory"
	BackendPostgres  = "postgres"
	BackendFirestore = "firestore"
)

// Config armazena todas as configurações do stockcart.
type Config struct {
	// Geral
	Port           string
	Environment    string
	LogLevel       string
	StoreBackend   string
	RequestTimeout time.Duration

	// SeedFile é um JSON com o catálogo inicial, gravado na subida.
	SeedFile string

	// Banco de Dados (PostgreSQL)
	DatabaseURL string
	DBTimeout   time.Duration

	// Firestore
	FirestoreProjectID       string
	FirestoreCredentialsFile string

	// Cache (Redis): carrinho, catálogo e rate limit
	RedisAddr       string
	CacheTimeout    time.Duration
	CartTTL         time.Duration
	CatalogCacheTTL time.Duration

	// Segurança (JWT)
	JWTSecretKey      string
	TokenExpiry       time.Duration
	AdminPasswordHash string

	// Rate Limiting
	RateLimitMaxRequests int
	RateLimitPeriod      time.Duration

	// Robustez do armazenamento de estoque
	StoreTimeout       time.Duration
	BreakerMaxFailures int
	BreakerOpenTimeout time.Duration

	// Entrega do pedido
	WhatsAppNumber string
	SendGridAPIKey string
	SendGridFrom   string
	SendGridTo     string

	LowStockLimit int
}

// LoadConfig carrega as configurações a partir das variáveis de ambiente.
func LoadConfig() *Config {
	cfg := &Config{
		// 1. Geral
		Port:           getEnv("PORT", "8080"),
		Environment:    getEnv("ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		StoreBackend:   strings.ToLower(getEnv("STORE_BACKEND", BackendMemory)),
		SeedFile:       getEnv("SEED_FILE", ""),
		RequestTimeout: getDurationEnv("REQUEST_TIMEOUT_SEC", 15) * time.Second,

		// 2. Banco de Dados
		DBTimeout: getDurationEnv("DB_TIMEOUT_SEC", 5) * time.Second,

		// 3. Firestore
		FirestoreProjectID:       getEnv("FIRESTORE_PROJECT_ID", ""),
		FirestoreCredentialsFile: getEnv("FIRESTORE_CREDENTIALS_FILE", ""),

		// 4. Cache (Redis)
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		CacheTimeout:    getDurationEnv("CACHE_TIMEOUT_SEC", 10) * time.Second,
		CartTTL:         getDurationEnv("CART_TTL_HOURS", 72) * time.Hour,
		CatalogCacheTTL: getDurationEnv("CATALOG_CACHE_TTL_SEC", 300) * time.Second,

		// 5. Segurança (JWT)
		// mustGetEnv garante que a aplicação não inicie sem segredo de assinatura
		JWTSecretKey:      mustGetEnv("JWT_SECRET_KEY"),
		TokenExpiry:       getDurationEnv("JWT_EXPIRY_MIN", 60) * time.Minute,
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),

		// 6. Rate Limiting
		RateLimitMaxRequests: getIntEnv("RATE_LIMIT_MAX_REQUESTS", 100),
		RateLimitPeriod:      getDurationEnv("RATE_LIMIT_PERIOD_MIN", 1) * time.Minute,

		// 7. Estoque
		StoreTimeout:       getDurationEnv("STORE_TIMEOUT_SEC", 5) * time.Second,
		BreakerMaxFailures: getIntEnv("BREAKER_MAX_FAILURES", 5),
		BreakerOpenTimeout: getDurationEnv("BREAKER_OPEN_SEC", 30) * time.Second,

		// 8. Entrega
		WhatsAppNumber: getEnv("WHATSAPP_NUMBER", "593969251642"),
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		SendGridFrom:   getEnv("SENDGRID_FROM", ""),
		SendGridTo:     getEnv("SENDGRID_TO", ""),

		LowStockLimit: getIntEnv("LOW_STOCK_LIMIT", 5),
	}

	switch cfg.StoreBackend {
	case BackendPostgres:
		cfg.DatabaseURL = mustGetEnv("DATABASE_URL")
	case BackendFirestore:
		cfg.FirestoreProjectID = mustGetEnv("FIRESTORE_PROJECT_ID")
	case BackendMemory:
		cfg.DatabaseURL = getEnv("DATABASE_URL", "")
	default:
		log.Fatalf("❌ Erro de Configuração: STORE_BACKEND inválido (%s). Use memory, postgres ou firestore.", cfg.StoreBackend)
	}

	return cfg
}

// EmailEnabled indica se a notificação por e-mail está configurada.
func (c *Config) EmailEnabled() bool {
	return c.SendGridAPIKey != "" && c.SendGridFrom != "" && c.SendGridTo != ""
}

// Funções Helpers (Auxiliares)

// getEnv lê a variável de ambiente ou retorna um valor padrão.
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// mustGetEnv lê a variável de ambiente, fatal se não estiver presente.
func mustGetEnv(key string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	log.Fatalf("❌ Erro de Configuração: A variável de ambiente %s deve ser definida.", key)
	return ""
}

// getDurationEnv lê uma variável de ambiente numérica e retorna-a como time.Duration.
func getDurationEnv(key string, defaultValue int) time.Duration {
	return time.Duration(getIntEnv(key, defaultValue))
}

// getIntEnv lê uma variável de ambiente numérica e retorna-a como int.
func getIntEnv(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("⚠️ Aviso: Valor de %s ('%s') não é um número inteiro válido. Usando padrão (%d).", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}
