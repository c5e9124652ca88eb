package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	AuthProviderJWT     = "jwt"
	AuthProviderCasdoor = "casdoor"

	StorageLocal = "local"
	StorageMinio = "minio"
)

type Config struct {
	Environment string          `mapstructure:"environment"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Auth        AuthConfig      `mapstructure:"auth"`
	Events      EventsConfig    `mapstructure:"events"`
	Storage     StorageConfig   `mapstructure:"storage"`
	Catalog     CatalogConfig   `mapstructure:"catalog"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	CORS        CORSConfig      `mapstructure:"cors"`
	Tracing     TracingConfig   `mapstructure:"tracing"`
	Log         LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	// DSN wins over the individual fields when set
	DSN             string        `mapstructure:"dsn"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

func (d DatabaseConfig) ConnectionString() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	// Empty URL disables caching
	URL string `mapstructure:"url"`
}

type AuthConfig struct {
	Provider  string        `mapstructure:"provider"`
	JWTSecret string        `mapstructure:"jwt_secret"`
	Casdoor   CasdoorConfig `mapstructure:"casdoor"`
	// Profiles first seen with one of these emails start as admin
	AdminEmails []string `mapstructure:"admin_emails"`
}

type CasdoorConfig struct {
	Endpoint     string `mapstructure:"endpoint"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	Cert         string `mapstructure:"cert"`
	Organization string `mapstructure:"organization"`
	Application  string `mapstructure:"application"`
}

type EventsConfig struct {
	// Empty list selects the in-process publisher
	Brokers []string `mapstructure:"brokers"`
}

type StorageConfig struct {
	Type      string      `mapstructure:"type"`
	LocalPath string      `mapstructure:"local_path"`
	Minio     MinioConfig `mapstructure:"minio"`
}

type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	PublicURL string `mapstructure:"public_url"`
}

type CatalogConfig struct {
	PageSize int `mapstructure:"page_size"`
}

type RateLimitConfig struct {
	// Zero disables the limiter
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	// File, when set, receives a rotated copy of every log line
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// envBindings maps config keys onto their environment variables
var envBindings = map[string][]string{
	"environment":             {"ENVIRONMENT", "APP_ENV"},
	"server.port":             {"SERVER_PORT", "PORT"},
	"server.read_timeout":     {"SERVER_READ_TIMEOUT"},
	"server.write_timeout":    {"SERVER_WRITE_TIMEOUT"},
	"server.shutdown_timeout": {"SERVER_SHUTDOWN_TIMEOUT"},

	"database.dsn":               {"DATABASE_DSN", "DATABASE_URL"},
	"database.host":              {"DATABASE_HOST", "DB_HOST"},
	"database.port":              {"DATABASE_PORT", "DB_PORT"},
	"database.user":              {"DATABASE_USER", "DB_USER"},
	"database.password":          {"DATABASE_PASSWORD", "DB_PASSWORD"},
	"database.name":              {"DATABASE_NAME", "DB_NAME"},
	"database.sslmode":           {"DATABASE_SSLMODE", "DB_SSLMODE"},
	"database.max_open_conns":    {"DATABASE_MAX_OPEN_CONNS"},
	"database.max_idle_conns":    {"DATABASE_MAX_IDLE_CONNS"},
	"database.conn_max_lifetime": {"DATABASE_CONN_MAX_LIFETIME"},
	"database.auto_migrate":      {"DATABASE_AUTO_MIGRATE"},

	"redis.url": {"REDIS_URL"},

	"auth.provider":              {"AUTH_PROVIDER"},
	"auth.jwt_secret":            {"JWT_SECRET"},
	"auth.admin_emails":          {"ADMIN_EMAILS"},
	"auth.casdoor.endpoint":      {"CASDOOR_ENDPOINT"},
	"auth.casdoor.client_id":     {"CASDOOR_CLIENT_ID"},
	"auth.casdoor.client_secret": {"CASDOOR_CLIENT_SECRET"},
	"auth.casdoor.cert":          {"CASDOOR_CERT"},
	"auth.casdoor.organization":  {"CASDOOR_ORGANIZATION"},
	"auth.casdoor.application":   {"CASDOOR_APPLICATION"},

	"events.brokers": {"KAFKA_BROKERS"},

	"storage.type":             {"STORAGE_TYPE"},
	"storage.local_path":       {"STORAGE_LOCAL_PATH"},
	"storage.minio.endpoint":   {"MINIO_ENDPOINT"},
	"storage.minio.access_key": {"MINIO_ACCESS_KEY"},
	"storage.minio.secret_key": {"MINIO_SECRET_KEY"},
	"storage.minio.bucket":     {"MINIO_BUCKET"},
	"storage.minio.use_ssl":    {"MINIO_USE_SSL"},
	"storage.minio.public_url": {"MINIO_PUBLIC_URL"},

	"catalog.page_size": {"CATALOG_PAGE_SIZE"},

	"rate_limit.max_requests": {"RATE_LIMIT_MAX_REQUESTS"},
	"rate_limit.window":       {"RATE_LIMIT_WINDOW"},

	"cors.allowed_origins": {"CORS_ALLOWED_ORIGINS"},

	"tracing.enabled":      {"TRACING_ENABLED"},
	"tracing.service_name": {"TRACING_SERVICE_NAME"},
	"tracing.sample_ratio": {"TRACING_SAMPLE_RATIO"},

	"log.level":        {"LOG_LEVEL"},
	"log.file":         {"LOG_FILE"},
	"log.max_size_mb":  {"LOG_MAX_SIZE_MB"},
	"log.max_backups":  {"LOG_MAX_BACKUPS"},
	"log.max_age_days": {"LOG_MAX_AGE_DAYS"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "course_service")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("auth.provider", AuthProviderJWT)

	v.SetDefault("storage.type", StorageLocal)
	v.SetDefault("storage.local_path", "./uploads")
	v.SetDefault("storage.minio.bucket", "submissions")

	v.SetDefault("catalog.page_size", 6)

	v.SetDefault("rate_limit.max_requests", 100)
	v.SetDefault("rate_limit.window", time.Minute)

	v.SetDefault("cors.allowed_origins", []string{"*"})

	v.SetDefault("tracing.service_name", "course-service")
	v.SetDefault("tracing.sample_ratio", 1.0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
}

// LoadConfig reads .env when present, then the environment, over defaults
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// Comma separated lists arrive from the environment as a single string
	cfg.Events.Brokers = splitList(cfg.Events.Brokers)
	cfg.CORS.AllowedOrigins = splitList(cfg.CORS.AllowedOrigins)
	cfg.Auth.AdminEmails = splitList(cfg.Auth.AdminEmails)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the service cannot start with
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port == "" {
		problems = append(problems, "server port is required")
	}
	if c.Catalog.PageSize <= 0 {
		problems = append(problems, "catalog page size must be positive")
	}
	if c.RateLimit.MaxRequests < 0 {
		problems = append(problems, "rate limit cannot be negative")
	}
	if c.RateLimit.MaxRequests > 0 && c.RateLimit.Window <= 0 {
		problems = append(problems, "rate limit window must be positive")
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		problems = append(problems, "tracing sample ratio must be within [0, 1]")
	}

	switch c.Auth.Provider {
	case AuthProviderJWT:
		if len(c.Auth.JWTSecret) < 16 {
			problems = append(problems, "JWT_SECRET must be at least 16 characters")
		}
	case AuthProviderCasdoor:
		if c.Auth.Casdoor.Endpoint == "" || c.Auth.Casdoor.ClientID == "" || c.Auth.Casdoor.Cert == "" {
			problems = append(problems, "casdoor endpoint, client id and cert are required")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown auth provider %q", c.Auth.Provider))
	}

	switch c.Storage.Type {
	case StorageLocal:
		if c.Storage.LocalPath == "" {
			problems = append(problems, "storage local path is required")
		}
	case StorageMinio:
		if c.Storage.Minio.Endpoint == "" || c.Storage.Minio.Bucket == "" {
			problems = append(problems, "minio endpoint and bucket are required")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown storage type %q", c.Storage.Type))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// LogLevel parses Log.Level, falling back to info
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
