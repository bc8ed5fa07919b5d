package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	CORS          CORSConfig
	Log           LogConfig
	Cache         CacheConfig
	Prerequisites PrerequisiteConfig
	Waitlist      WaitlistConfig
	Exports       ExportConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig toggles Redis caching of prerequisite graph reads.
type CacheConfig struct {
	Enabled         bool
	PrerequisiteTTL time.Duration
}

// PrerequisiteConfig bounds prerequisite tree rendering.
type PrerequisiteConfig struct {
	TreeDefaultDepth int
	TreeMaxDepth     int
}

// WaitlistConfig sizes the seat promotion worker pool.
type WaitlistConfig struct {
	Workers    int
	Retries    int
	RetryDelay time.Duration
}

// ExportConfig controls timetable export rendering.
type ExportConfig struct {
	TitlePrefix string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled:         v.GetBool("ENABLE_CACHE"),
		PrerequisiteTTL: parseDuration(v.GetString("PREREQUISITE_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Prerequisites = PrerequisiteConfig{
		TreeDefaultDepth: v.GetInt("PREREQUISITE_TREE_DEFAULT_DEPTH"),
		TreeMaxDepth:     v.GetInt("PREREQUISITE_TREE_MAX_DEPTH"),
	}
	if cfg.Prerequisites.TreeMaxDepth <= 0 {
		cfg.Prerequisites.TreeMaxDepth = 10
	}
	if cfg.Prerequisites.TreeDefaultDepth <= 0 || cfg.Prerequisites.TreeDefaultDepth > cfg.Prerequisites.TreeMaxDepth {
		cfg.Prerequisites.TreeDefaultDepth = min(3, cfg.Prerequisites.TreeMaxDepth)
	}

	cfg.Waitlist = WaitlistConfig{
		Workers:    v.GetInt("WAITLIST_WORKERS"),
		Retries:    v.GetInt("WAITLIST_RETRIES"),
		RetryDelay: parseDuration(v.GetString("WAITLIST_RETRY_DELAY"), 2*time.Second),
	}

	cfg.Exports = ExportConfig{TitlePrefix: v.GetString("EXPORT_TITLE_PREFIX")}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "sma_timetable")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_CACHE", true)
	v.SetDefault("PREREQUISITE_CACHE_TTL", "10m")
	v.SetDefault("PREREQUISITE_TREE_DEFAULT_DEPTH", 3)
	v.SetDefault("PREREQUISITE_TREE_MAX_DEPTH", 10)

	v.SetDefault("WAITLIST_WORKERS", 2)
	v.SetDefault("WAITLIST_RETRIES", 3)
	v.SetDefault("WAITLIST_RETRY_DELAY", "2s")

	v.SetDefault("EXPORT_TITLE_PREFIX", "Timetable")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
