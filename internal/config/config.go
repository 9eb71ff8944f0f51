package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Store driver names accepted in STORE_DRIVER.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Config holds all configuration settings
type Config struct {
	Server struct {
		Port int
	}
	Store struct {
		Driver string
		DSN    string
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
	}
	Gateway struct {
		URL      string
		Username string
		Password string
	}
	Logging struct {
		Level string
		Path  string
	}
}

// Load reads configuration from the environment. A .env file in the
// working directory is honored when present, matching the original
// deployment setup.
func Load() (*Config, error) {
	// Missing .env is fine, the environment may be set directly.
	_ = godotenv.Load()

	cfg := &Config{}

	port, err := getEnvInt("PORT", 3000)
	if err != nil {
		return nil, err
	}
	cfg.Server.Port = port

	cfg.Store.Driver = getEnv("STORE_DRIVER", DriverSQLite)
	cfg.Store.DSN = getEnv("DATABASE_DSN", "file:sms-platform.db?cache=shared&mode=rwc")

	cfg.Redis.Addr = os.Getenv("REDIS_ADDR")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	cfg.Redis.DB = redisDB

	cfg.Gateway.URL, err = mustEnv("GATEWAY_URL")
	if err != nil {
		return nil, err
	}
	cfg.Gateway.Username, err = mustEnv("GATEWAY_USERNAME")
	if err != nil {
		return nil, err
	}
	cfg.Gateway.Password, err = mustEnv("GATEWAY_PASSWORD")
	if err != nil {
		return nil, err
	}

	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")
	cfg.Logging.Path = getEnv("LOG_PATH", "server.log")

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid PORT: %d", cfg.Server.Port)
	}

	switch cfg.Store.Driver {
	case DriverSQLite:
		if cfg.Store.DSN == "" {
			return fmt.Errorf("DATABASE_DSN is required for the sqlite store")
		}
	case DriverRedis:
		if cfg.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER: %q", cfg.Store.Driver)
	}

	return nil
}

func mustEnv(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("missing required env var: %s", key)
	}
	return val, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid int for env %s: %s", key, v)
	}
	return i, nil
}
