package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const DefaultAllowedOrigin = "http://localhost:5173"

type Config struct {
	DB             DBConfig
	AllowedOrigins []string
	HTTPAddr       string
	GRPCPort       string
	RabbitMQURL    string
	HealthInterval time.Duration
	LogLevel       string
	LogFormat      string
	LogFile        string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// URL - строка подключения в формате postgresql://, её понимают и pgx, и migrate
func (c DBConfig) URL() string {
	u := url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// Load читает .env (если он есть) и переменные окружения.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Config{
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "db"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			Name:     os.Getenv("POSTGRES_DB"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		AllowedOrigins: ParseOrigins(os.Getenv("ALLOWED_ORIGIN")),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		GRPCPort:       getEnv("GRPC_PORT", "9090"),
		RabbitMQURL:    os.Getenv("RABBITMQ_URL"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
		LogFile:        os.Getenv("LOG_FILE"),
	}

	interval, err := time.ParseDuration(getEnv("HEALTH_INTERVAL", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid HEALTH_INTERVAL: %w", err)
	}
	if interval <= 0 {
		return Config{}, errors.New("HEALTH_INTERVAL must be positive")
	}
	cfg.HealthInterval = interval

	return cfg, nil
}

// ParseOrigins разбивает список по запятым без обрезки пробелов:
// origin сравнивается с элементами списка как есть.
func ParseOrigins(raw string) []string {
	if raw == "" {
		raw = DefaultAllowedOrigin
	}
	return strings.Split(raw, ",")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
