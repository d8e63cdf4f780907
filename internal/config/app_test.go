package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v, want nil", err)
	}

	if config.Server.Port != "8080" {
		t.Errorf("Server.Port = %s, want 8080", config.Server.Port)
	}
	if config.Database.Driver != DriverPostgres {
		t.Errorf("Database.Driver = %s, want %s", config.Database.Driver, DriverPostgres)
	}
	if config.LLM.Provider != ProviderGemini {
		t.Errorf("LLM.Provider = %s, want %s", config.LLM.Provider, ProviderGemini)
	}
	if config.LLM.GeminiTextModel != "gemini-2.5-flash" {
		t.Errorf("LLM.GeminiTextModel = %s, want gemini-2.5-flash", config.LLM.GeminiTextModel)
	}
	if config.Auth.TokenExpiration != 24*time.Hour {
		t.Errorf("Auth.TokenExpiration = %v, want 24h", config.Auth.TokenExpiration)
	}
	if len(config.Server.AllowedOrigins) != 1 || config.Server.AllowedOrigins[0] != "*" {
		t.Errorf("Server.AllowedOrigins = %v, want [*]", config.Server.AllowedOrigins)
	}
}

func TestLoadConfig_JWTSecret(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		wantErr bool
	}{
		{name: "missing secret", secret: "", wantErr: true},
		{name: "short secret", secret: "too-short", wantErr: true},
		{name: "valid secret", secret: testSecret, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", tt.secret)
			_, err := LoadConfig()
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig_InvalidChoices(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown driver", key: "DB_DRIVER", value: "mysql"},
		{name: "unknown provider", key: "LLM_PROVIDER", value: "anthropic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", testSecret)
			t.Setenv(tt.key, tt.value)
			if _, err := LoadConfig(); err == nil {
				t.Errorf("LoadConfig() error = nil, want error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/chat.db")
	t.Setenv("LLM_PROVIDER", "openrouter")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("JWT_TOKEN_EXPIRATION", "not-a-duration")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("SEED_DEMO_USER", "true")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if config.Database.Driver != DriverSQLite {
		t.Errorf("Database.Driver = %s, want sqlite", config.Database.Driver)
	}
	if config.Database.SQLitePath != "/tmp/chat.db" {
		t.Errorf("Database.SQLitePath = %s, want /tmp/chat.db", config.Database.SQLitePath)
	}
	if config.LLM.Provider != ProviderOpenRouter {
		t.Errorf("LLM.Provider = %s, want openrouter", config.LLM.Provider)
	}
	if config.LLM.Timeout != 5*time.Second {
		t.Errorf("LLM.Timeout = %v, want 5s", config.LLM.Timeout)
	}
	// Invalid durations fall back to the default
	if config.Auth.TokenExpiration != 24*time.Hour {
		t.Errorf("Auth.TokenExpiration = %v, want 24h fallback", config.Auth.TokenExpiration)
	}
	if len(config.Server.AllowedOrigins) != 2 || config.Server.AllowedOrigins[1] != "http://b.test" {
		t.Errorf("Server.AllowedOrigins = %v, want two trimmed origins", config.Server.AllowedOrigins)
	}
	if !config.Auth.SeedDemoUser {
		t.Error("Auth.SeedDemoUser = false, want true")
	}
}

func TestDatabaseConfig_GetDSN(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: "5433", User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	want := "host=db port=5433 user=u password=p dbname=n sslmode=disable"
	if got := cfg.GetDSN(); got != want {
		t.Errorf("GetDSN() = %s, want %s", got, want)
	}

	cfg.URL = "postgres://u:p@db:5433/n"
	if got := cfg.GetDSN(); got != cfg.URL {
		t.Errorf("GetDSN() = %s, want DATABASE_URL %s", got, cfg.URL)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() error = %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir() error = %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("CHATPAT_DOTENV_PROBE=loaded\n"), 0644); err != nil {
		t.Fatalf("Failed to write .env: %v", err)
	}
	t.Setenv("CHATPAT_DOTENV_PROBE", "")
	os.Unsetenv("CHATPAT_DOTENV_PROBE")

	LoadDotEnv()

	if got := os.Getenv("CHATPAT_DOTENV_PROBE"); got != "loaded" {
		t.Errorf("CHATPAT_DOTENV_PROBE = %q, want loaded", got)
	}
}
