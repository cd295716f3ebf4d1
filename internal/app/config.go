package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/checkpointhq/checkpoint/internal/session"
	"github.com/checkpointhq/checkpoint/internal/vault"
)

// Config is assembled from the environment once at startup; nothing else
// reads env vars at runtime except the rate limit overrides.
type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration

	DatabaseDSN string
	PepperPath  string

	JWTSecret []byte
	JWTIssuer string

	// AuthModes selects which credential kinds the session resolver accepts.
	AuthModes []session.Mode

	SecureCookies bool
	CORSOrigins   []string

	ProviderURL     string
	ProviderName    string
	ProviderAuthURL string

	Vault vault.Config

	LogLevel  string
	LogFormat string
	Env       string
}

// ConfigFromEnv reads the full configuration. The only hard requirement is
// JWT_SECRET; everything else has a workable default for local development.
func ConfigFromEnv() (*Config, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if len(secret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 bytes, got %d", len(secret))
	}

	modes, err := parseAuthModes(getEnvOrDefault("AUTH_MODES", "cookie,bearer"))
	if err != nil {
		return nil, err
	}

	return &Config{
		HTTPAddr:        getEnvOrDefault("HTTP_ADDR", ":8080"),
		ShutdownTimeout: getEnvDurationOrDefault("SHUTDOWN_TIMEOUT", 10*time.Second),

		DatabaseDSN: getEnvOrDefault("DATABASE_DSN", "checkpoint.db"),
		PepperPath:  getEnvOrDefault("PEPPER_PATH", "data/pepper.key"),

		JWTSecret: []byte(secret),
		JWTIssuer: getEnvOrDefault("JWT_ISSUER", "checkpoint"),

		AuthModes: modes,

		SecureCookies: getEnvBoolOrDefault("SECURE_COOKIES", true),
		CORSOrigins:   splitAndTrim(getEnvOrDefault("CORS_ORIGINS", "*")),

		ProviderURL:     os.Getenv("OAUTH_PROVIDER_URL"),
		ProviderName:    getEnvOrDefault("OAUTH_PROVIDER_NAME", "checkpoint-id"),
		ProviderAuthURL: os.Getenv("OAUTH_AUTH_URL"),

		Vault: vault.Config{
			Endpoint:     os.Getenv("S3_ENDPOINT"),
			Region:       getEnvOrDefault("S3_REGION", "us-east-1"),
			AccessKey:    os.Getenv("S3_ACCESS_KEY"),
			SecretKey:    os.Getenv("S3_SECRET_KEY"),
			BucketPrefix: getEnvOrDefault("S3_BUCKET_PREFIX", "checkpoint"),
		},

		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),
		Env:       getEnvOrDefault("ENV", "production"),
	}, nil
}

func parseAuthModes(raw string) ([]session.Mode, error) {
	var modes []session.Mode
	for _, part := range splitAndTrim(raw) {
		switch m := session.Mode(part); m {
		case session.ModeCookie, session.ModeBearer:
			modes = append(modes, m)
		default:
			return nil, fmt.Errorf("AUTH_MODES: unknown mode %q", part)
		}
	}
	if len(modes) == 0 {
		return nil, fmt.Errorf("AUTH_MODES: at least one mode is required")
	}
	return modes, nil
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBoolOrDefault(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDurationOrDefault(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
