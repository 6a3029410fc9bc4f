package config

import (
	"encoding/json"
	"errors"
	"fmt"
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

	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Cache    CacheConfig
	LRS      LRSConfig
	Fallback FallbackConfig
	Health   HealthConfig
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig tunes metric result caching.
type CacheConfig struct {
	Enabled  bool
	TTL      time.Duration
	StaleTTL time.Duration
}

// LRSInstance describes one configured Learning Record Store source.
type LRSInstance struct {
	ID       string            `json:"id"`
	Endpoint string            `json:"endpoint"`
	Username string            `json:"username,omitempty"`
	Password string            `json:"password,omitempty"`
	Token    string            `json:"token,omitempty"`
	Headers  map[string]string `json:"headers,omitempty"`
	Version  string            `json:"version,omitempty"`
}

// LRSConfig holds all configured LRS instances plus client tuning.
type LRSConfig struct {
	Instances      []LRSInstance
	DefaultID      string
	RequestTimeout time.Duration
	MaxRetries     int
	MaxStatements  int
}

// FallbackConfig tunes the circuit breaker guarding LRS calls.
type FallbackConfig struct {
	Enabled          bool
	FailureThreshold int
	Cooldown         time.Duration
}

// HealthConfig controls background LRS health probing.
type HealthConfig struct {
	Enabled  bool
	Interval time.Duration
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
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:   v.GetString("JWT_SECRET"),
		Issuer:   v.GetString("JWT_ISSUER"),
		Audience: v.GetString("JWT_AUDIENCE"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled:  v.GetBool("CACHE_ENABLED"),
		TTL:      parseDuration(v.GetString("CACHE_TTL"), 15*time.Minute),
		StaleTTL: parseDuration(v.GetString("CACHE_STALE_TTL"), 24*time.Hour),
	}

	lrs, err := loadLRS(v)
	if err != nil {
		return nil, err
	}
	cfg.LRS = lrs

	cfg.Fallback = FallbackConfig{
		Enabled:          v.GetBool("FALLBACK_ENABLED"),
		FailureThreshold: v.GetInt("FALLBACK_FAILURE_THRESHOLD"),
		Cooldown:         parseDuration(v.GetString("FALLBACK_COOLDOWN"), 30*time.Second),
	}

	cfg.Health = HealthConfig{
		Enabled:  v.GetBool("HEALTH_CHECKS_ENABLED"),
		Interval: parseDuration(v.GetString("HEALTH_CHECK_INTERVAL"), time.Minute),
	}

	return cfg, nil
}

// loadLRS merges the flat default-instance variables with the optional
// LRS_INSTANCES JSON array for multi-tenant deployments.
func loadLRS(v *viper.Viper) (LRSConfig, error) {
	cfg := LRSConfig{
		RequestTimeout: parseDuration(v.GetString("LRS_REQUEST_TIMEOUT"), 10*time.Second),
		MaxRetries:     v.GetInt("LRS_MAX_RETRIES"),
		MaxStatements:  v.GetInt("LRS_MAX_STATEMENTS"),
	}

	if endpoint := v.GetString("LRS_ENDPOINT"); endpoint != "" {
		cfg.Instances = append(cfg.Instances, LRSInstance{
			ID:       v.GetString("LRS_ID"),
			Endpoint: endpoint,
			Username: v.GetString("LRS_USERNAME"),
			Password: v.GetString("LRS_PASSWORD"),
			Token:    v.GetString("LRS_TOKEN"),
			Version:  v.GetString("LRS_XAPI_VERSION"),
		})
	}

	if raw := v.GetString("LRS_INSTANCES"); raw != "" {
		var extra []LRSInstance
		if err := json.Unmarshal([]byte(raw), &extra); err != nil {
			return cfg, fmt.Errorf("parse LRS_INSTANCES: %w", err)
		}
		cfg.Instances = append(cfg.Instances, extra...)
	}

	for i := range cfg.Instances {
		if cfg.Instances[i].ID == "" {
			cfg.Instances[i].ID = fmt.Sprintf("lrs-%d", i+1)
		}
		if cfg.Instances[i].Version == "" {
			cfg.Instances[i].Version = "1.0.3"
		}
		cfg.Instances[i].Endpoint = strings.TrimRight(cfg.Instances[i].Endpoint, "/")
	}

	cfg.DefaultID = v.GetString("LRS_DEFAULT_ID")
	if cfg.DefaultID == "" && len(cfg.Instances) > 0 {
		cfg.DefaultID = cfg.Instances[0].ID
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")
	v.SetDefault("JWT_AUDIENCE", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CACHE_ENABLED", true)
	v.SetDefault("CACHE_TTL", "15m")
	v.SetDefault("CACHE_STALE_TTL", "24h")

	v.SetDefault("LRS_ID", "default")
	v.SetDefault("LRS_ENDPOINT", "")
	v.SetDefault("LRS_USERNAME", "")
	v.SetDefault("LRS_PASSWORD", "")
	v.SetDefault("LRS_TOKEN", "")
	v.SetDefault("LRS_XAPI_VERSION", "1.0.3")
	v.SetDefault("LRS_DEFAULT_ID", "")
	v.SetDefault("LRS_INSTANCES", "")
	v.SetDefault("LRS_REQUEST_TIMEOUT", "10s")
	v.SetDefault("LRS_MAX_RETRIES", 3)
	v.SetDefault("LRS_MAX_STATEMENTS", 10000)

	v.SetDefault("FALLBACK_ENABLED", true)
	v.SetDefault("FALLBACK_FAILURE_THRESHOLD", 5)
	v.SetDefault("FALLBACK_COOLDOWN", "30s")

	v.SetDefault("HEALTH_CHECKS_ENABLED", true)
	v.SetDefault("HEALTH_CHECK_INTERVAL", "1m")
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
