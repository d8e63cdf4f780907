package app

import (
	"chatpat/internal/config"
	"chatpat/internal/repository/db"
	"chatpat/internal/service/llm"
)

// Config holds all application dependencies and configuration
type Config struct {
	// Database interface for data persistence
	DB db.Database
	// Gateway is the model provider, built once at startup
	Gateway llm.Gateway
	// Centralized application configuration
	AppConfig *config.AppConfig
}

// NewConfig creates a new application configuration
func NewConfig(database db.Database, gateway llm.Gateway, appConfig *config.AppConfig) *Config {
	return &Config{
		DB:        database,
		Gateway:   gateway,
		AppConfig: appConfig,
	}
}
