package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	Admin    AdminConfig
	Auditor  AuditorConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port        int
	Env         string
	LogLevel    string
	StoreDriver string // "postgres" or "memory"
	CORSOrigin  string
}

// AdminConfig seeds the credential the auth service checks at login.
// PasswordHash is a bcrypt hash, never the plaintext.
type AdminConfig struct {
	ActorID      string
	Email        string
	Name         string
	PasswordHash string
}

// AuditorConfig seeds the optional auditor credential, which may verify
// payslips and trigger disbursements but never manage employees or open
// cycles. Auditor login stays disabled until AUDITOR_PASSWORD_HASH is set.
type AuditorConfig struct {
	ActorID      string
	Email        string
	Name         string
	PasswordHash string
}

func Load() (*Config, error) {
	// .env is optional; environment variables win either way.
	_ = godotenv.Load()

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "vatsinhr_settlement"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:        appPort,
		Env:         getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		StoreDriver: getEnv("STORE_DRIVER", "postgres"),
		CORSOrigin:  getEnv("CORS_ORIGIN", "http://localhost:3000"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "8h"),
	}

	// Admin credential
	config.Admin = AdminConfig{
		ActorID:      getEnv("ADMIN_ACTOR_ID", "admin"),
		Email:        getEnv("ADMIN_EMAIL", "admin@hrms.com"),
		Name:         getEnv("ADMIN_NAME", "Administrator"),
		PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
	}

	// Auditor credential (optional)
	config.Auditor = AuditorConfig{
		ActorID:      getEnv("AUDITOR_ACTOR_ID", "auditor"),
		Email:        getEnv("AUDITOR_EMAIL", "auditor@hrms.com"),
		Name:         getEnv("AUDITOR_NAME", "Auditor"),
		PasswordHash: getEnv("AUDITOR_PASSWORD_HASH", ""),
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Admin.PasswordHash == "" {
		return fmt.Errorf("ADMIN_PASSWORD_HASH is required")
	}
	switch c.App.StoreDriver {
	case "postgres":
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required for the postgres store")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported STORE_DRIVER: %s", c.App.StoreDriver)
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
