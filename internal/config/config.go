package config

import (
	"os"
	"strconv"
	"time"
)

const (
	EnvironmentDevelopment = "development"
	EnvironmentProduction  = "production"
	EnvironmentTest        = "test"
)

type Config struct {
	Server    ServerConfig
	Session   SessionConfig
	Auth      AuthConfig
	Security  SecurityConfig
	Redis     RedisConfig
	Backend   BackendConfig
	Daemon    DaemonConfig
	Telemetry TelemetryConfig
}

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Environment  string
}

type SessionConfig struct {
	// Storage is either "memory" or "postgres".
	Storage      string
	Expiration   time.Duration
	CookieSecure bool

	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDatabase string
	PostgresTable    string
}

type AuthConfig struct {
	AdminUsername string
	// AdminPasswordHash takes precedence over AdminPassword when set.
	AdminPassword     string
	AdminPasswordHash string
}

type SecurityConfig struct {
	CSRFEnabled      bool
	RateLimitEnabled bool
	MaxLoginAttempts int
	BlockDuration    time.Duration
	// APIRateLimit is the number of /api requests a client IP may make per APIRateWindow.
	APIRateLimit  int
	APIRateWindow time.Duration
}

type RedisConfig struct {
	// URL is optional; an empty value selects the in-memory login limiter.
	URL string
}

type BackendConfig struct {
	Latency time.Duration
	// FailureRate in [0, 1] makes the simulated backend reject that share of fetches.
	FailureRate float64
}

type DaemonConfig struct {
	WarmUp                   bool
	AnalyticsRefreshInterval time.Duration
	SessionCleanupInterval   time.Duration
	// SessionMaxIdle is how long a signed-in client's auth state is kept without requests.
	SessionMaxIdle time.Duration
}

type TelemetryConfig struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Environment    string
	ExporterURL    string
	SamplingRatio  float64
}

func NewConfig() Config {
	environment := getEnv("SERVER_ENVIRONMENT", EnvironmentDevelopment)
	sessionExpiration := getEnvPositiveDuration("SESSION_EXPIRATION", 24*time.Hour)

	return Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "localhost"),
			Port:         getEnv("SERVER_PORT", "3001"),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			Environment:  environment,
		},
		Session: SessionConfig{
			Storage:          getEnv("SESSION_STORAGE", "memory"),
			Expiration:       sessionExpiration,
			CookieSecure:     environment == EnvironmentProduction,
			PostgresHost:     getEnv("SESSION_DB_HOST", "localhost"),
			PostgresPort:     getEnvInt("SESSION_DB_PORT", 5432),
			PostgresUser:     getEnv("SESSION_DB_USER", "postgres"),
			PostgresPassword: getEnv("SESSION_DB_PASSWORD", "postgres"),
			PostgresDatabase: getEnv("SESSION_DB_NAME", "postgres"),
			PostgresTable:    getEnv("SESSION_DB_TABLE", "admindash_sessions"),
		},
		Auth: AuthConfig{
			AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
			AdminPassword:     getEnv("ADMIN_PASSWORD", "admin"),
			AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		},
		Security: SecurityConfig{
			CSRFEnabled:      getEnvBool("CSRF_ENABLED", true),
			RateLimitEnabled: getEnvBool("RATE_LIMIT_ENABLED", true),
			MaxLoginAttempts: getEnvInt("MAX_LOGIN_ATTEMPTS", 5),
			BlockDuration:    getEnvPositiveDuration("LOGIN_BLOCK_DURATION", 15*time.Minute),
			APIRateLimit:     getEnvInt("API_RATE_LIMIT", 120),
			APIRateWindow:    getEnvPositiveDuration("API_RATE_WINDOW", time.Minute),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		Backend: BackendConfig{
			Latency:     getEnvDuration("BACKEND_LATENCY", time.Second),
			FailureRate: getEnvFloat("BACKEND_FAILURE_RATE", 0),
		},
		Daemon: DaemonConfig{
			WarmUp:                   getEnvBool("DAEMON_WARM_UP", true),
			AnalyticsRefreshInterval: getEnvPositiveDuration("ANALYTICS_REFRESH_INTERVAL", 5*time.Minute),
			SessionCleanupInterval:   getEnvPositiveDuration("SESSION_CLEANUP_INTERVAL", time.Minute),
			SessionMaxIdle:           getEnvPositiveDuration("SESSION_MAX_IDLE", sessionExpiration),
		},
		Telemetry: TelemetryConfig{
			Enabled:        getEnvBool("OTEL_ENABLED", false),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "admindash"),
			ServiceVersion: getEnv("VERSION", "dev"),
			Environment:    environment,
			ExporterURL:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			SamplingRatio:  getEnvFloat("OTEL_SAMPLING_RATIO", 1.0),
		},
	}
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}

// getEnvPositiveDuration is getEnvDuration for intervals and windows, where
// zero or a negative value falls back to the default.
func getEnvPositiveDuration(key string, defaultValue time.Duration) time.Duration {
	if d := getEnvDuration(key, defaultValue); d > 0 {
		return d
	}
	return defaultValue
}
