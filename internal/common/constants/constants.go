package constants

import "time"

const (
	JWTSecretMinLength = 32
	PasswordMinLength  = 8
	PasswordMaxLength  = 20

	DefaultBcryptCost     = 10
	DefaultMaxRequestSize = 1 << 20

	DefaultMaxLoginStamps            = 100
	DefaultLoginStampRetention       = 90 * 24 * time.Hour
	DefaultLoginStampCleanupSchedule = "@hourly"

	DefaultCardState = "not defined"
	DefaultCardZip   = "00000"

	DefaultUserImageURL = "https://images.unsplash.com/photo-1515378791036-0648a3ef77b2?w=500&auto=format&fit=crop&q=60"
	DefaultUserImageAlt = "profile picture"

	DBPoolMaxConns        = 25
	DBPoolMinConns        = 5
	DBPoolConnMaxLifetime = time.Hour
	DBPoolConnMaxIdleTime = 30 * time.Minute
	DBPoolHealthCheck     = 1 * time.Minute
	DBPoolConnectTimeout  = 5 * time.Second
	DBPoolMaxAttempts     = 10
	DBPoolRetryDelay      = 1 * time.Second
	DBPoolMetricsInterval = 30 * time.Second
	DefaultDBQueryTimeout = 3 * time.Second
	MigrationTimeout      = 1 * time.Minute

	ServerReadHeaderTimeout = 10 * time.Second
	ServerReadTimeout       = 30 * time.Second
	ServerWriteTimeout      = 30 * time.Second
	ServerIdleTimeout       = 120 * time.Second

	ShutdownTimeout = 30 * time.Second
	DrainTimeout    = 10 * time.Second

	DefaultHTTPPort       = "5000"
	DefaultRequestTimeout = 5 * time.Second

	DefaultCircuitBreakerThreshold = 50
	DefaultCircuitBreakerTimeout   = 10 * time.Second
	DefaultCircuitBreakerReset     = 10 * time.Second

	DefaultCardCacheTTL = 30 * time.Second

	LoggerMaxSize    = 100
	LoggerMaxBackups = 3
	LoggerMaxAge     = 28
)

type TraceIDKeyType string

const TraceIDKey TraceIDKeyType = "trace_id"
