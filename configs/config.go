package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	HMAC      HMACConfig
	Cache     CacheConfig
	Redis     RedisConfig
	PageProof PageProofConfig
	PowerApps PowerAppsConfig
	Alerts    AlertConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host           string
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	TLSCertFile    string
	TLSKeyFile     string
	AllowedOrigins []string
	Environment    string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	DSN      string
	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// HMACConfig governs the request authentication layer: how far a request
// timestamp may drift, how long the shared secret and verification results
// may be reused, and the secret-fetch retry policy.
type HMACConfig struct {
	SecretName     string
	FallbackSecret string
	StoreURL       string // vault-style secret store; empty means env-backed store
	StoreToken     string
	Timeout        time.Duration // max allowed |now - request timestamp|
	CacheTTL       time.Duration // secret and verification-result reuse window
	MaxRetries     int
	RetryDelay     time.Duration
	RetryFactor    float64
}

type CacheConfig struct {
	Backend       string // memory or redis
	MaxEntries    int
	SweepInterval time.Duration
	DefaultTTL    time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	// Pool and timeout settings
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolTimeout  time.Duration
	IdleTimeout  time.Duration
}

type PageProofConfig struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
	WebhookSecret  string
}

type PowerAppsConfig struct {
	EndpointURL    string
	RequestTimeout time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
	RetryFactor    float64
}

type AlertConfig struct {
	SendGridAPIKey string
	FromEmail      string
	FromName       string
	OperatorEmail  string
	Enabled        bool
}

type LogConfig struct {
	Level  string
	Format string // json or text
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnv("SERVER_PORT", "8080"),
			ReadTimeout:    getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:   getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:    getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
			TLSCertFile:    getEnv("TLS_CERT_FILE", ""),
			TLSKeyFile:     getEnv("TLS_KEY_FILE", ""),
			AllowedOrigins: getSliceEnv("ALLOWED_ORIGINS", []string{"*"}),
			Environment:    getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "proofbridge_db"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getDurationEnv("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		},
		HMAC: HMACConfig{
			SecretName:     getEnv("HMAC_SECRET_NAME", "proofbridge-hmac-secret"),
			FallbackSecret: getEnv("HMAC_FALLBACK_SECRET", ""),
			StoreURL:       getEnv("SECRET_STORE_URL", ""),
			StoreToken:     getEnv("SECRET_STORE_TOKEN", ""),
			Timeout:        getDurationEnv("HMAC_TIMEOUT", 5*time.Minute),
			CacheTTL:       getDurationEnv("HMAC_CACHE_TTL", time.Minute),
			MaxRetries:     getIntEnv("HMAC_MAX_RETRIES", 3),
			RetryDelay:     getDurationEnv("HMAC_RETRY_DELAY", 500*time.Millisecond),
			RetryFactor:    getFloatEnv("HMAC_RETRY_FACTOR", 2.0),
		},
		Cache: CacheConfig{
			Backend:       getEnv("CACHE_BACKEND", "memory"),
			MaxEntries:    getIntEnv("CACHE_MAX_ENTRIES", 10000),
			SweepInterval: getDurationEnv("CACHE_SWEEP_INTERVAL", time.Minute),
			DefaultTTL:    getDurationEnv("CACHE_DEFAULT_TTL", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getIntEnv("REDIS_DB", 0),
			PoolSize:     getIntEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns: getIntEnv("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolTimeout:  getDurationEnv("REDIS_POOL_TIMEOUT", 4*time.Second),
			IdleTimeout:  getDurationEnv("REDIS_IDLE_TIMEOUT", 5*time.Minute),
		},
		PageProof: PageProofConfig{
			BaseURL:        getEnv("PAGEPROOF_BASE_URL", "https://api.pageproof.com/api"),
			APIKey:         getEnvRequired("PAGEPROOF_API_KEY"),
			RequestTimeout: getDurationEnv("PAGEPROOF_REQUEST_TIMEOUT", 30*time.Second),
			WebhookSecret:  getEnvRequired("PAGEPROOF_WEBHOOK_SECRET"),
		},
		PowerApps: PowerAppsConfig{
			EndpointURL:    getEnvRequired("POWERAPPS_ENDPOINT_URL"),
			RequestTimeout: getDurationEnv("POWERAPPS_REQUEST_TIMEOUT", 30*time.Second),
			MaxRetries:     getIntEnv("POWERAPPS_MAX_RETRIES", 3),
			RetryDelay:     getDurationEnv("POWERAPPS_RETRY_DELAY", time.Second),
			RetryFactor:    getFloatEnv("POWERAPPS_RETRY_FACTOR", 2.0),
		},
		Alerts: AlertConfig{
			SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
			FromEmail:      getEnv("ALERT_FROM_EMAIL", "noreply@example.com"),
			FromName:       getEnv("ALERT_FROM_NAME", "ProofBridge"),
			OperatorEmail:  getEnv("ALERT_OPERATOR_EMAIL", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	cfg.Alerts.Enabled = cfg.Alerts.SendGridAPIKey != "" && cfg.Alerts.OperatorEmail != ""

	// Build database DSN
	cfg.Database.DSN = fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.DBName,
		cfg.Database.SSLMode,
	)

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvRequired(key string) string {
	value := os.Getenv(key)
	if value == "" {
		panic(fmt.Sprintf("Required environment variable %s is not set", key))
	}
	return value
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
