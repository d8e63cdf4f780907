package config

import (
	"chatpat/internal/logger"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Supported model gateway providers
const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderGenkit     = "genkit"
	ProviderLangchain  = "langchain"
)

// AppConfig holds all application configuration
type AppConfig struct {
	Server   ServerConfig
	Database DatabaseConfig
	LLM      LLMConfig
	Auth     AuthConfig
	LogLevel string
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxBodyBytes   int64
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Driver     string
	URL        string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
}

// LLMConfig holds model gateway configuration
type LLMConfig struct {
	Provider     string
	SystemPrompt string
	Timeout      time.Duration

	GeminiAPIKey     string
	GeminiTextModel  string
	GeminiImageModel string

	OpenRouterAPIKey     string
	OpenRouterBaseURL    string
	OpenRouterTextModel  string
	OpenRouterImageModel string

	OpenAIBaseURL string
	OpenAIAPIKey  string
	OpenAIModel   string
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret       []byte
	TokenExpiration time.Duration
	CookieName      string
	CookieSecure    bool
	SeedDemoUser    bool
}

// LoadDotEnv loads .local/.env or .env when present. Missing files are not an error.
func LoadDotEnv() {
	for _, path := range []string{filepath.Join(".local", ".env"), ".env"} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			logger.Log.WithError(err).WithField("path", path).Warn("Failed to load env file")
			continue
		}
		logger.Log.WithField("path", path).Info("Loaded env file")
		return
	}
}

// LoadConfig loads and validates application configuration from environment
func LoadConfig() (*AppConfig, error) {
	config := &AppConfig{
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
	}

	// Load Server config
	config.Server = ServerConfig{
		Port:           getEnvOrDefault("SERVER_PORT", getEnvOrDefault("PORT", "8080")),
		AllowedOrigins: splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
		ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 120*time.Second),
		MaxBodyBytes:   int64(getEnvAsInt("SERVER_MAX_BODY_BYTES", 1<<20)),
	}

	// Load Database config
	config.Database = DatabaseConfig{
		Driver:     strings.ToLower(getEnvOrDefault("DB_DRIVER", DriverPostgres)),
		URL:        os.Getenv("DATABASE_URL"),
		Host:       getEnvOrDefault("DB_HOST", "localhost"),
		Port:       getEnvOrDefault("DB_PORT", "5432"),
		User:       getEnvOrDefault("DB_USER", "postgres"),
		Password:   getEnvOrDefault("DB_PASSWORD", "postgres"),
		Name:       getEnvOrDefault("DB_NAME", "chatpat"),
		SSLMode:    getEnvOrDefault("DB_SSLMODE", "disable"),
		SQLitePath: getEnvOrDefault("SQLITE_PATH", "chatpat.db"),
	}
	switch config.Database.Driver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return nil, fmt.Errorf("DB_DRIVER must be one of postgres, sqlite, memory (got %q)", config.Database.Driver)
	}

	// Load LLM config
	config.LLM = LLMConfig{
		Provider:     strings.ToLower(getEnvOrDefault("LLM_PROVIDER", ProviderGemini)),
		SystemPrompt: getEnvOrDefault("LLM_SYSTEM_PROMPT", "You are a helpful assistant."),
		Timeout:      getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),

		GeminiAPIKey:     getEnvOrDefault("GEMINI_API_KEY", os.Getenv("GOOGLE_AI_API_KEY")),
		GeminiTextModel:  getEnvOrDefault("GEMINI_TEXT_MODEL", "gemini-2.5-flash"),
		GeminiImageModel: getEnvOrDefault("GEMINI_IMAGE_MODEL", "gemini-2.0-flash-preview-image-generation"),

		OpenRouterAPIKey:     os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterBaseURL:    getEnvOrDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenRouterTextModel:  getEnvOrDefault("OPENROUTER_TEXT_MODEL", "meta-llama/llama-3.3-8b-instruct:free"),
		OpenRouterImageModel: getEnvOrDefault("OPENROUTER_IMAGE_MODEL", "google/gemini-2.5-flash-image-preview"),

		OpenAIBaseURL: getEnvOrDefault("OPENAI_BASE_URL", "http://localhost:11434/v1"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   getEnvOrDefault("OPENAI_MODEL", "llama3.1:8b"),
	}
	switch config.LLM.Provider {
	case ProviderGemini, ProviderOpenRouter, ProviderGenkit, ProviderLangchain:
	default:
		return nil, fmt.Errorf("LLM_PROVIDER must be one of gemini, openrouter, genkit, langchain (got %q)", config.LLM.Provider)
	}
	if config.LLM.Provider == ProviderGemini && config.LLM.GeminiAPIKey == "" {
		logger.Log.Warn("GEMINI_API_KEY environment variable not set")
	}

	// Load Auth config
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable must be set")
	}
	if len(jwtSecret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters (current length: %d)", len(jwtSecret))
	}

	config.Auth = AuthConfig{
		JWTSecret:       []byte(jwtSecret),
		TokenExpiration: getEnvAsDuration("JWT_TOKEN_EXPIRATION", 24*time.Hour),
		CookieName:      getEnvOrDefault("SESSION_COOKIE_NAME", "chatpat_session"),
		CookieSecure:    getEnvAsBool("SESSION_COOKIE_SECURE", false),
		SeedDemoUser:    getEnvAsBool("SEED_DEMO_USER", false),
	}

	return config, nil
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{"key": key, "default": defaultValue}).Warn("Invalid integer value, using default")
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{"key": key, "default": defaultValue}).Warn("Invalid boolean value, using default")
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{"key": key, "default": defaultValue}).Warn("Invalid duration value, using default")
		return defaultValue
	}
	return value
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
