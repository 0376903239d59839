package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
)

type Config struct {
	Primary  Primary        `koanf:"primary"`
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Bank     BankConfig     `koanf:"bank"`
	Retry    RetryConfig    `koanf:"retry"`
	Breaker  BreakerConfig  `koanf:"breaker"`
	Logger   LoggerConfig   `koanf:"logger"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	Port         string        `koanf:"port" validate:"required"`
	ReadTimeout  time.Duration `koanf:"read_timeout" validate:"required"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"required"`
	IdleTimeout  time.Duration `koanf:"idle_timeout" validate:"required"`
}

type DatabaseConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"required"`
	User            string        `koanf:"user" validate:"required"`
	Password        string        `koanf:"password" validate:"required"`
	Name            string        `koanf:"name" validate:"required"`
	SSLMode         string        `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time" validate:"required"`
}

type BankConfig struct {
	SimulatorURL   string        `koanf:"simulator_url" validate:"required"`
	ConnectTimeout time.Duration `koanf:"connect_timeout" validate:"required"`
	ReadTimeout    time.Duration `koanf:"read_timeout" validate:"required"`
}

type RetryConfig struct {
	BaseDelay   time.Duration `koanf:"base_delay"`
	MaxAttempts int           `koanf:"max_attempts"`
}

// BreakerConfig tunes the bank circuit breaker. The breaker trips when,
// over a rolling window, at least MinRequests calls were made and the
// failure ratio reaches FailureRatio.
type BreakerConfig struct {
	MinRequests  uint32        `koanf:"min_requests"`
	FailureRatio float64       `koanf:"failure_ratio"`
	Window       time.Duration `koanf:"window"`
	OpenTimeout  time.Duration `koanf:"open_timeout"`
}

type LoggerConfig struct {
	Level string `koanf:"level"`
}

func (l LoggerConfig) NewLogger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(l.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"primary.env":           "development",
		"server.port":           "8090",
		"server.read_timeout":   15 * time.Second,
		"server.write_timeout":  15 * time.Second,
		"server.idle_timeout":   60 * time.Second,
		"bank.connect_timeout":  2 * time.Second,
		"bank.read_timeout":     5 * time.Second,
		"retry.base_delay":      200 * time.Millisecond,
		"retry.max_attempts":    3,
		"breaker.min_requests":  uint32(5),
		"breaker.failure_ratio": 0.5,
		"breaker.window":        30 * time.Second,
		"breaker.open_timeout":  15 * time.Second,
		"logger.level":          "info",
	}
}

func LoadConfig() (*Config, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		logger.Error("failed to load defaults", "error", err)
		return nil, err
	}

	err := k.Load(env.Provider("GATEWAY_", ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, "GATEWAY_")),
			"__",
			".",
		)
	}), nil)
	if err != nil {
		logger.Error("failed to load environment variables", "error", err)
		return nil, err
	}

	mainConfig := &Config{}

	if err := k.Unmarshal("", mainConfig); err != nil {
		logger.Error("could not unmarshal main config", "error", err)
		return nil, err
	}

	validate := validator.New()

	if err := validate.Struct(mainConfig); err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	return mainConfig, nil
}
