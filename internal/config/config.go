package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env           string
	DBDSN         string
	ServerPort    string
	SessionSecret string

	// бездействие дольше SessionTTL завершает сессию
	SessionTTL     time.Duration
	SessionWarning time.Duration
	SecureCookies  bool
	CSRFEnabled    bool

	CORSOrigins []string

	// пусто: ограничение неудачных входов выключено
	RedisURL         string
	LoginMaxFailures int
	LoginLockout     time.Duration

	AdminUsername string
	AdminPassword string
	SeedDemoUsers bool
}

// Load reads configuration from the environment. .env.local wins over .env,
// and real environment variables win over both.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := &Config{
		Env:              getenv("APP_ENV", "production"),
		DBDSN:            os.Getenv("DB_DSN"),
		ServerPort:       getenv("SERVER_PORT", "8080"),
		SessionSecret:    os.Getenv("SESSION_SECRET"),
		SessionTTL:       time.Duration(getenvInt("SESSION_TTL_SECONDS", 1800)) * time.Second,
		SessionWarning:   time.Duration(getenvInt("SESSION_WARNING_SECONDS", 300)) * time.Second,
		SecureCookies:    getenvBool("SESSION_SECURE_COOKIES", false),
		CSRFEnabled:      getenvBool("CSRF_ENABLED", true),
		CORSOrigins:      splitAndTrim(getenv("CORS_ORIGINS", "http://localhost:3000")),
		RedisURL:         os.Getenv("REDIS_URL"),
		LoginMaxFailures: getenvInt("LOGIN_MAX_FAILURES", 5),
		LoginLockout:     time.Duration(getenvInt("LOGIN_LOCKOUT_SECONDS", 900)) * time.Second,
		AdminUsername:    getenv("ADMIN_USERNAME", "admin"),
		AdminPassword:    os.Getenv("ADMIN_PASSWORD"),
		SeedDemoUsers:    getenvBool("SEED_DEMO_USERS", false),
	}

	if cfg.DBDSN == "" {
		return nil, errors.New("DB_DSN is not set")
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("SESSION_SECRET is not set")
	}
	if len(cfg.SessionSecret) < 32 {
		return nil, fmt.Errorf("SESSION_SECRET must be at least 32 bytes, got %d", len(cfg.SessionSecret))
	}
	if cfg.SessionTTL <= 0 {
		return nil, errors.New("SESSION_TTL_SECONDS must be positive")
	}
	if cfg.SessionWarning >= cfg.SessionTTL {
		return nil, errors.New("SESSION_WARNING_SECONDS must be smaller than SESSION_TTL_SECONDS")
	}

	return cfg, nil
}

// IsDevelopment включает человекочитаемые логи
func (c *Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "dev"
}

func loadDotEnv() {
	var files []string
	for _, f := range []string{".env.local", ".env"} {
		if _, err := os.Stat(f); err == nil {
			files = append(files, f)
		}
	}
	if len(files) > 0 {
		_ = godotenv.Load(files...)
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
