package config

import (
	"errors"
	"os"
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

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Ranking  RankingConfig
	Cache    CacheConfig
	Store    StoreConfig
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

// JWTConfig guards the API with HS256 bearer tokens when Enabled.
type JWTConfig struct {
	Enabled bool
	Secret  string
	Issuer  string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// RankingConfig tunes enumeration and the result store.
type RankingConfig struct {
	Workers         int
	QueueWorkers    int
	QueueBuffer     int
	JobTimeout      time.Duration
	ResultTTL       time.Duration
	PurgeInterval   time.Duration
	MaxCombinations uint64
	EarlyBefore     string
	LateFrom        string
}

// CacheConfig governs the read-through activity cache.
type CacheConfig struct {
	Enabled     bool
	ActivityTTL time.Duration
}

// Activity store drivers.
const (
	StorePostgres = "postgres"
	StoreFile     = "file"
)

// StoreConfig selects where enrolment activities live.
type StoreConfig struct {
	Driver string
	File   string
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
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

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

	cfg.JWT = JWTConfig{
		Enabled: v.GetBool("AUTH_ENABLED"),
		Secret:  v.GetString("JWT_SECRET"),
		Issuer:  v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Ranking = RankingConfig{
		Workers:         v.GetInt("RANKING_WORKERS"),
		QueueWorkers:    v.GetInt("RANKING_QUEUE_WORKERS"),
		QueueBuffer:     v.GetInt("RANKING_QUEUE_BUFFER"),
		JobTimeout:      parseDuration(v.GetString("RANKING_JOB_TIMEOUT"), 2*time.Minute),
		ResultTTL:       parseDuration(v.GetString("RANKING_RESULT_TTL"), time.Hour),
		PurgeInterval:   parseDuration(v.GetString("RANKING_PURGE_INTERVAL"), 5*time.Minute),
		MaxCombinations: v.GetUint64("RANKING_MAX_COMBINATIONS"),
		EarlyBefore:     v.GetString("RANKING_EARLY_BEFORE"),
		LateFrom:        v.GetString("RANKING_LATE_FROM"),
	}

	cfg.Cache = CacheConfig{
		Enabled:     v.GetBool("ENABLE_ACTIVITY_CACHE"),
		ActivityTTL: parseDuration(v.GetString("ACTIVITY_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Store = StoreConfig{
		Driver: strings.ToLower(v.GetString("ACTIVITY_STORE")),
		File:   v.GetString("ACTIVITY_FILE"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "timetabler")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("AUTH_ENABLED", false)
	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("RANKING_WORKERS", 0)
	v.SetDefault("RANKING_QUEUE_WORKERS", 2)
	v.SetDefault("RANKING_QUEUE_BUFFER", 32)
	v.SetDefault("RANKING_JOB_TIMEOUT", "2m")
	v.SetDefault("RANKING_RESULT_TTL", "1h")
	v.SetDefault("RANKING_PURGE_INTERVAL", "5m")
	v.SetDefault("RANKING_MAX_COMBINATIONS", 5_000_000)
	v.SetDefault("RANKING_EARLY_BEFORE", "9:30am")
	v.SetDefault("RANKING_LATE_FROM", "6pm")

	v.SetDefault("ENABLE_ACTIVITY_CACHE", false)
	v.SetDefault("ACTIVITY_CACHE_TTL", "10m")

	v.SetDefault("ACTIVITY_STORE", StorePostgres)
	v.SetDefault("ACTIVITY_FILE", "all_acts.json")
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
