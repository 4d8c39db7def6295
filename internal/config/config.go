package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/bowmeow/session-token/internal/auth"
)

// SecretEnvVar names the variable holding the raw signing secret.
const SecretEnvVar = "JWT_SECRET_KEY"

// Config aggregates runtime configuration for the service.
type Config struct {
	App    AppConfig
	Logger LoggerConfig
	Auth   AuthConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines token parameters.
type AuthConfig struct {
	JWTSecret            string
	TokenTTL             time.Duration
	IssueEndpointEnabled bool
}

// Load reads configuration from environment variables, applying defaults where possible.
// A missing JWT_SECRET_KEY is fatal: there is no fallback secret.
func Load() (*Config, error) {
	_ = godotenv.Load()

	authCfg, err := loadAuth()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "session-token"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: authCfg,
	}

	return cfg, nil
}

// LoadAuth reads only the token settings; used by tools that do not run the HTTP server.
func LoadAuth() (AuthConfig, error) {
	_ = godotenv.Load()
	return loadAuth()
}

func loadAuth() (AuthConfig, error) {
	secret := os.Getenv(SecretEnvVar)
	if secret == "" {
		return AuthConfig{}, &auth.ConfigurationError{Field: SecretEnvVar, Err: auth.ErrMissingSecret}
	}
	return AuthConfig{
		JWTSecret:            secret,
		TokenTTL:             auth.DefaultExpiration,
		IssueEndpointEnabled: getEnvAsBool("AUTH_ISSUE_ENDPOINT_ENABLED", false),
	}, nil
}

// TokenConfig converts the env-sourced settings into a TokenService configuration.
func (a AuthConfig) TokenConfig() auth.TokenConfig {
	return auth.TokenConfig{
		Secret:     []byte(a.JWTSecret),
		Expiration: a.TokenTTL,
		Source:     auth.SecretSourceEnv,
	}
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
