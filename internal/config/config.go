package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	BackendSQLite   = "sqlite"
	BackendSupabase = "supabase"
)

type Config struct {
	TelegramToken string

	StoreBackend string
	SQLitePath   string
	SupabaseURL  string
	SupabaseKey  string
	SeedFile     string

	HealthAddr       string
	ReportWindowDays int
	LogLevel         string
}

// LoadConfig читает .env (если он есть) и переменные окружения
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	windowDays, err := getEnvInt("REPORT_WINDOW_DAYS", 30)
	if err != nil {
		return nil, err
	}

	return &Config{
		TelegramToken:    firstNonEmpty(os.Getenv("TELEGRAM_TOKEN"), os.Getenv("TG_MANI_BOT")),
		StoreBackend:     getEnv("STORE_BACKEND", BackendSQLite),
		SQLitePath:       getEnv("SQLITE_PATH", "./data/mani.db"),
		SupabaseURL:      os.Getenv("SUPABASE_URL"),
		SupabaseKey:      os.Getenv("SUPABASE_KEY"),
		SeedFile:         os.Getenv("SEED_FILE"),
		HealthAddr:       getEnv("HEALTH_ADDR", ":4000"),
		ReportWindowDays: windowDays,
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}, nil
}

// Validate проверяет конфигурацию и возвращает все найденные ошибки разом
func (c *Config) Validate() error {
	var problems []string

	if c.TelegramToken == "" {
		problems = append(problems, "TELEGRAM_TOKEN is not set")
	}

	switch c.StoreBackend {
	case BackendSQLite:
		if c.SQLitePath == "" {
			problems = append(problems, "SQLITE_PATH cannot be empty when using sqlite backend")
		}
	case BackendSupabase:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			problems = append(problems, "SUPABASE_URL and SUPABASE_KEY are required when using supabase backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid store backend '%s': must be one of [%s %s]",
			c.StoreBackend, BackendSQLite, BackendSupabase))
	}

	if c.ReportWindowDays < 1 {
		problems = append(problems, fmt.Sprintf("invalid report window %d: must be at least 1 day", c.ReportWindowDays))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s '%s': must be a number", key, v)
	}
	return n, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
