package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// MinAdminSecretBytes is the shortest HS256 key the admin guard accepts.
const MinAdminSecretBytes = 32

// Store backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	StoreBackend     string
	DataDir          string
	RedisURL         string
	DatabaseURL      string
	UploadDir        string
	StorageBaseURL   string
	MaxUploadBytes   int64
	CORSOrigins      []string
	CORSCredentials  bool
	AdminJWTSecret   string
	GeoIPDBPath      string
	DefaultLocale    string
	LogFile          string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	SweepInterval    time.Duration
	SweepGrace       time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "5000")
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", getEnv("VERCEL_ENV", "development")),
		Port:             port,
		StoreBackend:     strings.ToLower(getEnv("STORE_BACKEND", BackendMemory)),
		DataDir:          os.Getenv("DATA_DIR"),
		RedisURL:         getEnv("REDIS_URL", getEnv("UPSTASH_REDIS_URL", os.Getenv("KV_URL"))),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		UploadDir:        getEnv("UPLOAD_DIR", "./public/uploads"),
		StorageBaseURL:   strings.TrimRight(getEnv("STORAGE_BASE_URL", "http://localhost:"+port+"/uploads"), "/"),
		MaxUploadBytes:   int64(getEnvInt("MAX_UPLOAD_BYTES", 5*1024*1024)),
		CORSOrigins:      splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		CORSCredentials:  getEnvBool("CORS_ALLOW_CREDENTIALS", true),
		AdminJWTSecret:   os.Getenv("ADMIN_JWT_SECRET"),
		GeoIPDBPath:      os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:    getEnv("DEFAULT_LOCALE", "id"),
		LogFile:          os.Getenv("LOG_FILE"),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		SweepInterval:    time.Minute * time.Duration(getEnvInt("SWEEP_INTERVAL_MINUTES", 60)),
		SweepGrace:       time.Minute * time.Duration(getEnvInt("SWEEP_GRACE_MINUTES", 60)),
	}

	switch cfg.StoreBackend {
	case BackendMemory:
	case BackendRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is required for the redis backend")
		}
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	default:
		return nil, fmt.Errorf("unsupported STORE_BACKEND %q", cfg.StoreBackend)
	}

	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if cfg.AdminJWTSecret != "" && len(cfg.AdminJWTSecret) < MinAdminSecretBytes {
		return nil, fmt.Errorf("ADMIN_JWT_SECRET must be at least %d bytes", MinAdminSecretBytes)
	}

	return cfg, nil
}

// CORSWildcardWithCredentials reports the permissive combination the server
// warns about at startup.
func (c *Config) CORSWildcardWithCredentials() bool {
	if !c.CORSCredentials {
		return false
	}
	for _, origin := range c.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
