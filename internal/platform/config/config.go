package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	QueueDriverRedis  = "redis"
	QueueDriverMemory = "memory"
)

type Config struct {
	APIPort string
	LogMode string

	JWTKey        []byte
	JWTRefreshKey []byte
	JWTAccessTTL  time.Duration
	JWTRefreshTTL time.Duration
	CookieSecure  bool

	StoreDriver string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSslMode   string
	DBConnStr   string
	DBMigrate   bool

	QueueDriver   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RecomputeQueueName      string
	RecomputeLockTTLSeconds int

	CORSAllowedOrigins []string
	AuthRateLimitRPS   float64
	AuthRateLimitBurst int

	MetricsUser     string
	MetricsPassword string

	// Sources records where values came from, for the startup log line.
	Sources []string
}

var AppConfig *Config

// Load reads .env, the optional YAML file named by CONFIG_FILE, then the
// process environment, and stores the result in AppConfig.
func Load() error {
	cfg, err := load()
	if err != nil {
		return err
	}
	AppConfig = cfg
	return nil
}

func load() (*Config, error) {
	src := &source{}
	if err := godotenv.Load(); err == nil {
		src.loaded = append(src.loaded, ".env")
	}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := src.readYAML(path); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		APIPort: src.getEnv("API_PORT", "8080"),
		LogMode: src.getEnv("LOG_MODE", "production"),

		JWTKey:        []byte(src.getEnv("JWT_SECRET", "")),
		JWTRefreshKey: []byte(src.getEnv("JWT_REFRESH_SECRET", "")),
		JWTAccessTTL:  src.getEnvAsDuration("JWT_ACCESS_TTL", 15*time.Minute),
		JWTRefreshTTL: src.getEnvAsDuration("JWT_REFRESH_TTL", 7*24*time.Hour),
		CookieSecure:  src.getEnvAsBool("COOKIE_SECURE", false),

		StoreDriver: strings.ToLower(src.getEnv("STORE_DRIVER", StoreDriverPostgres)),
		DBHost:      src.getEnv("DB_HOST", "localhost"),
		DBPort:      src.getEnv("DB_PORT", "5432"),
		DBUser:      src.getEnv("DB_USER", "postgres"),
		DBPassword:  src.getEnv("DB_PASSWORD", "password"),
		DBName:      src.getEnv("DB_NAME", "skillwise"),
		DBSslMode:   src.getEnv("DB_SSLMODE", "disable"),
		DBMigrate:   src.getEnvAsBool("DB_MIGRATE", true),

		QueueDriver:   strings.ToLower(src.getEnv("QUEUE_DRIVER", QueueDriverRedis)),
		RedisAddr:     src.getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: src.getEnv("REDIS_PASSWORD", ""),
		RedisDB:       src.getEnvAsInt("REDIS_DB", 0),

		RecomputeQueueName:      src.getEnv("RECOMPUTE_QUEUE_NAME", "goal_recompute_queue"),
		RecomputeLockTTLSeconds: src.getEnvAsInt("RECOMPUTE_LOCK_TTL_SECONDS", 30),

		CORSAllowedOrigins: src.getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		AuthRateLimitRPS:   src.getEnvAsFloat("AUTH_RATE_LIMIT_RPS", 5),
		AuthRateLimitBurst: src.getEnvAsInt("AUTH_RATE_LIMIT_BURST", 30),

		MetricsUser:     src.getEnv("METRICS_USER", ""),
		MetricsPassword: src.getEnv("METRICS_PASSWORD", ""),

		Sources: append(src.loaded, "env"),
	}

	cfg.DBConnStr = src.getEnv("DATABASE_URL", "")
	if cfg.DBConnStr == "" {
		cfg.DBConnStr = "host=" + cfg.DBHost +
			" port=" + cfg.DBPort +
			" user=" + cfg.DBUser +
			" password=" + cfg.DBPassword +
			" dbname=" + cfg.DBName +
			" sslmode=" + cfg.DBSslMode
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if len(c.JWTKey) == 0 {
		return errors.New("config: JWT_SECRET is required")
	}
	if len(c.JWTRefreshKey) == 0 {
		return errors.New("config: JWT_REFRESH_SECRET is required")
	}
	if string(c.JWTKey) == string(c.JWTRefreshKey) {
		return errors.New("config: JWT_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if c.JWTAccessTTL <= 0 || c.JWTRefreshTTL <= 0 {
		return errors.New("config: token lifetimes must be positive")
	}
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	switch c.QueueDriver {
	case QueueDriverRedis, QueueDriverMemory:
	default:
		return fmt.Errorf("config: unknown QUEUE_DRIVER %q", c.QueueDriver)
	}
	if c.RecomputeLockTTLSeconds <= 0 {
		return errors.New("config: RECOMPUTE_LOCK_TTL_SECONDS must be positive")
	}
	return nil
}

// source resolves keys from the environment first, then the YAML overlay.
type source struct {
	file   map[string]string
	loaded []string
}

func (s *source) readYAML(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	values := map[string]string{}
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	s.file = values
	s.loaded = append(s.loaded, path)
	return nil
}

func (s *source) getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	if value, exists := s.file[key]; exists {
		return value
	}
	return fallback
}

func (s *source) getEnvAsInt(key string, fallback int) int {
	valueStr := s.getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func (s *source) getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := s.getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return fallback
}

func (s *source) getEnvAsBool(key string, fallback bool) bool {
	valueStr := s.getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}

func (s *source) getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := s.getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return fallback
}

func (s *source) getEnvAsList(key string, fallback []string) []string {
	valueStr := s.getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
