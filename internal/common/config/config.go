package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/fayad123/bcards-server/internal/common/constants"
	commonerrors "github.com/fayad123/bcards-server/internal/common/errors"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"

	CacheDriverRedis  = "redis"
	CacheDriverMemory = "memory"
	CacheDriverNone   = "none"
)

type AppConfig struct {
	Env            string
	HTTPPort       string
	StorageDriver  string
	DatabaseURL    string
	JWTSecret      string
	TokenTTL       time.Duration
	BcryptCost     int
	RequestTimeout time.Duration
	DBQueryTimeout time.Duration

	MaxLoginStamps            int
	LoginStampRetention       time.Duration
	LoginStampCleanupSchedule string

	CardDeleteRequiresOwner bool

	CORSAllowedOrigins []string

	CardCacheDriver string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CardCacheTTL  time.Duration

	CircuitBreakerThreshold int32
	CircuitBreakerTimeout   time.Duration
	CircuitBreakerReset     time.Duration
}

// LoadEnvFile preloads .env (or .env.production when APP_ENV=production).
// A missing file is not an error; the process environment always wins.
func LoadEnvFile() string {
	name := ".env"
	if os.Getenv("APP_ENV") == "production" {
		name = ".env.production"
	}
	if err := godotenv.Load(name); err != nil {
		return ""
	}
	return name
}

func LoadAppConfig() (AppConfig, error) {
	jwtSecret, err := mustEnv("JWT_SECRET")
	if err != nil {
		return AppConfig{}, err
	}

	if err := validateJWTSecret(jwtSecret); err != nil {
		return AppConfig{}, err
	}

	driver := strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverPostgres))
	if driver != StorageDriverPostgres && driver != StorageDriverMemory {
		return AppConfig{}, fmt.Errorf("unsupported STORAGE_DRIVER %q", driver)
	}

	databaseURL := getEnv("DATABASE_URL", os.Getenv("DB"))
	if driver == StorageDriverPostgres && databaseURL == "" {
		return AppConfig{}, commonerrors.ErrMissingRequiredEnv.WithCause(fmt.Errorf("DATABASE_URL"))
	}

	cacheDriver, err := cardCacheDriver()
	if err != nil {
		return AppConfig{}, err
	}

	return AppConfig{
		Env:            getEnv("APP_ENV", "development"),
		HTTPPort:       getEnv("PORT", constants.DefaultHTTPPort),
		StorageDriver:  driver,
		DatabaseURL:    databaseURL,
		JWTSecret:      jwtSecret,
		TokenTTL:       getDurationEnv("TOKEN_TTL", 0),
		BcryptCost:     getIntEnv("BCRYPT_COST", constants.DefaultBcryptCost),
		RequestTimeout: getDurationEnv("REQUEST_TIMEOUT", constants.DefaultRequestTimeout),
		DBQueryTimeout: getDurationEnv("DB_QUERY_TIMEOUT", constants.DefaultDBQueryTimeout),

		MaxLoginStamps:            getIntEnv("MAX_LOGIN_STAMPS", constants.DefaultMaxLoginStamps),
		LoginStampRetention:       getDurationEnv("LOGIN_STAMP_RETENTION", constants.DefaultLoginStampRetention),
		LoginStampCleanupSchedule: getEnv("LOGIN_STAMP_CLEANUP_SCHEDULE", constants.DefaultLoginStampCleanupSchedule),

		CardDeleteRequiresOwner: getBoolEnv("CARD_DELETE_REQUIRES_OWNER", true),

		CORSAllowedOrigins: getListEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),

		CardCacheDriver: cacheDriver,

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),
		CardCacheTTL:  getDurationEnv("CARD_CACHE_TTL", constants.DefaultCardCacheTTL),

		CircuitBreakerThreshold: int32(getIntEnv("DB_CIRCUIT_BREAKER_THRESHOLD", constants.DefaultCircuitBreakerThreshold)),
		CircuitBreakerTimeout:   getDurationEnv("DB_CIRCUIT_BREAKER_TIMEOUT", constants.DefaultCircuitBreakerTimeout),
		CircuitBreakerReset:     getDurationEnv("DB_CIRCUIT_BREAKER_RESET", constants.DefaultCircuitBreakerReset),
	}, nil
}

// cardCacheDriver defaults to redis when REDIS_ADDR is set, otherwise none.
func cardCacheDriver() (string, error) {
	fallback := CacheDriverNone
	if getEnv("REDIS_ADDR", "") != "" {
		fallback = CacheDriverRedis
	}
	driver := strings.ToLower(getEnv("CARD_CACHE_DRIVER", fallback))
	switch driver {
	case CacheDriverRedis, CacheDriverMemory, CacheDriverNone:
		return driver, nil
	}
	return "", fmt.Errorf("unsupported CARD_CACHE_DRIVER %q", driver)
}

func validateJWTSecret(secret string) error {
	if len(secret) < constants.JWTSecretMinLength {
		return commonerrors.ErrInvalidJWTSecret.WithCause(fmt.Errorf("got %d bytes", len(secret)))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func mustEnv(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", commonerrors.ErrMissingRequiredEnv.WithCause(fmt.Errorf("%s", key))
	}
	return v, nil
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getIntEnv(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

// getListEnv splits a comma-separated value, dropping empty entries.
func getListEnv(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func getBoolEnv(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
