package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr      string
	RPCSocket string

	DBDriver   string
	DBDSN      string
	DBMaxConns int

	AuthSecret string
	AuthIssuer string
	TokenTTL   time.Duration

	AdminName     string
	AdminEmail    string
	AdminPassword string

	LoginRate  float64
	LoginBurst int

	LogLevel string
	LogDev   bool
	LogFile  string
}

// Load reads a .env file when one is present, then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() (Config, error) {
	cfg := Config{
		Addr:          envString("WEBBUDGET_ADDR", ":8080"),
		RPCSocket:     envString("WEBBUDGET_RPC_SOCKET", "/tmp/webbudget.sock"),
		DBDriver:      strings.ToLower(envString("WEBBUDGET_DB_DRIVER", "sqlite")),
		DBDSN:         envString("WEBBUDGET_DB_DSN", "webbudget.db"),
		AuthSecret:    os.Getenv("WEBBUDGET_AUTH_SECRET"),
		AuthIssuer:    envString("WEBBUDGET_AUTH_ISSUER", "webbudget"),
		AdminName:     envString("WEBBUDGET_ADMIN_NAME", "Administrador"),
		AdminEmail:    envString("WEBBUDGET_ADMIN_EMAIL", "admin@webbudget.com.br"),
		AdminPassword: envString("WEBBUDGET_ADMIN_PASSWORD", "admin"),
		LogDev:        os.Getenv("LOG_DEV") == "1",
		LogFile:       os.Getenv("LOG_FILE"),
	}

	cfg.LogLevel = os.Getenv("LOG_LEVEL")
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
		if cfg.LogDev {
			cfg.LogLevel = "debug"
		}
	}

	var err error
	if cfg.DBMaxConns, err = envInt("WEBBUDGET_DB_MAX_CONNS", 5); err != nil {
		return Config{}, err
	}
	if cfg.TokenTTL, err = envDuration("WEBBUDGET_TOKEN_TTL", 12*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.LoginBurst, err = envInt("WEBBUDGET_LOGIN_BURST", 5); err != nil {
		return Config{}, err
	}
	if cfg.LoginRate, err = envFloat("WEBBUDGET_LOGIN_RATE", 1); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("WEBBUDGET_DB_DRIVER: unsupported driver %q", c.DBDriver)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("WEBBUDGET_TOKEN_TTL must be positive")
	}
	if c.LoginRate <= 0 || c.LoginBurst <= 0 {
		return fmt.Errorf("WEBBUDGET_LOGIN_RATE and WEBBUDGET_LOGIN_BURST must be positive")
	}
	return nil
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}
