package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingAPIKey is returned when no Gemini credential is configured.
// The server refuses to start in that state rather than failing on the
// first AI request.
var ErrMissingAPIKey = errors.New("GEMINI_API_KEY is not set")

type Config struct {
	Server struct {
		Port int
	}
	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		DBName   string
		SSLMode  string
		MaxConns int
	}
	Gemini struct {
		APIKey        string
		Model         string
		FallbackModel string
		MaxRetries    int
		InitialDelay  time.Duration
		Timeout       time.Duration
	}
	Auth struct {
		JWTSecret string
	}
	ShutdownTimeout time.Duration
}

// Load reads configuration from an optional config file and the environment.
// Environment variables always win (e.g. GEMINI_API_KEY, DB_HOST, SERVER_PORT).
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("Server.Port", 8080)
	v.SetDefault("DB.Host", "localhost")
	v.SetDefault("DB.Port", "5432")
	v.SetDefault("DB.User", "postgres")
	v.SetDefault("DB.Password", "postgres")
	v.SetDefault("DB.DBName", "fitpulse")
	v.SetDefault("DB.SSLMode", "disable")
	v.SetDefault("DB.MaxConns", 10)
	v.SetDefault("Gemini.Model", "gemini-2.5-flash")
	v.SetDefault("Gemini.FallbackModel", "gemini-2.5-pro")
	v.SetDefault("Gemini.MaxRetries", 3)
	v.SetDefault("Gemini.InitialDelay", 2*time.Second)
	v.SetDefault("Gemini.Timeout", 30*time.Second)
	v.SetDefault("ShutdownTimeout", 10*time.Second)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicit bindings for the flat env names used in deployments.
	_ = v.BindEnv("Gemini.APIKey", "GEMINI_API_KEY")
	_ = v.BindEnv("Gemini.Model", "GEMINI_MODEL")
	_ = v.BindEnv("Gemini.FallbackModel", "GEMINI_FALLBACK_MODEL")
	_ = v.BindEnv("Auth.JWTSecret", "SESSION_SECRET")
	_ = v.BindEnv("Server.Port", "PORT")

	// The config file is optional; env-only deployments are the common case.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Fail fast before any network call is attempted.
	if cfg.Gemini.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	return &cfg, nil
}
