// Package config содержит логику чтения конфигурации сервиса CUENTY.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config содержит параметры конфигурации сервиса CUENTY.
type Config struct {
	RunAddress  string `env:"RUN_ADDRESS"`
	DatabaseURL string `env:"DATABASE_URL"`
	AdminSecret string `env:"ADMIN_SECRET"`
	BackendURL  string `env:"BACKEND_URL"`

	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"60s"`

	StrictOrderTransitions bool          `env:"STRICT_ORDER_TRANSITIONS" envDefault:"false"`
	SweepInterval          time.Duration `env:"SWEEP_INTERVAL" envDefault:"1h"`

	BootstrapAdminEmail    string `env:"BOOTSTRAP_ADMIN_EMAIL"`
	BootstrapAdminPassword string `env:"BOOTSTRAP_ADMIN_PASSWORD"`
	BootstrapAdminUsername string `env:"BOOTSTRAP_ADMIN_USERNAME" envDefault:"admin"`
}

// DotEnvFile задаёт файл с переменными окружения для локального запуска.
var DotEnvFile = ".env"

// Parse считывает конфигурацию из .env, флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", DotEnvFile, err)
	}

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURL := cfg.DatabaseURL
	envAdminSecret := cfg.AdminSecret
	envBackendURL := cfg.BackendURL

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURL, "d", "", "database URL")
	flag.StringVar(&cfg.AdminSecret, "s", "", "admin token signing secret")
	flag.StringVar(&cfg.BackendURL, "b", "", "secondary backend base URL")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURL != "" {
		cfg.DatabaseURL = envDatabaseURL
	}
	if envAdminSecret != "" {
		cfg.AdminSecret = envAdminSecret
	}
	if envBackendURL != "" {
		cfg.BackendURL = envBackendURL
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	// Секрет подписи токенов не имеет значения по умолчанию.
	if c.AdminSecret == "" {
		return errors.New("ADMIN_SECRET is required")
	}
	if c.CacheTTL < 0 {
		return errors.New("CACHE_TTL must not be negative")
	}
	if c.RedisAddr != "" && c.CacheTTL == 0 {
		return errors.New("CACHE_TTL must be positive when REDIS_ADDR is set")
	}
	if c.SweepInterval < 0 {
		return errors.New("SWEEP_INTERVAL must not be negative")
	}
	return nil
}
