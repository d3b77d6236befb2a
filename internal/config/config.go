package config

import (
	"time"

	"github.com/jobradar/search-service/internal/provider"
	"github.com/jobradar/search-service/internal/usage"
	pkgconfig "github.com/jobradar/search-service/pkg/config"
	"github.com/jobradar/search-service/pkg/storage"
)

type Config struct {
	Server    ServerConfig
	Provider  provider.Config
	Cache     CacheConfig
	Redis     usage.RedisConfig
	Usage     UsageConfig
	History   HistoryConfig
	Storage   StorageConfig
	Scheduler SchedulerConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type CacheConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	SearchTimeout time.Duration `mapstructure:"search_timeout"`
}

type UsageConfig struct {
	Enabled bool         `mapstructure:"enabled"`
	Limits  usage.Limits `mapstructure:",squash"`
}

type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type StorageConfig struct {
	Driver string              `mapstructure:"driver"` // "local" or "s3"
	Local  storage.LocalConfig `mapstructure:"local"`
	S3     storage.S3Config    `mapstructure:"s3"`
}

type SchedulerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	IntervalHours int  `mapstructure:"interval_hours"`
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8095)
	v.SetDefault("provider.api_host", "api.openwebninja.com")
	v.SetDefault("provider.timeout", "30s")
	v.SetDefault("provider.max_retries", 3)
	v.SetDefault("provider.retry_delay", "2s")
	v.SetDefault("provider.rate_limit_delay", "1s")
	v.SetDefault("cache.ttl", "600s")
	v.SetDefault("cache.search_timeout", "2m")
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("usage.enabled", false)
	v.SetDefault("usage.monthly_limit", 200)
	v.SetDefault("usage.warn_threshold", 160)
	v.SetDefault("usage.hard_threshold", 180)
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "./data/history.db")
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local.base_path", "./data/exports")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.interval_hours", 6)
	v.SetDefault("log.level", "info")

	// Bind environment variables
	v.BindEnv("server.port", "PORT")
	v.BindEnv("provider.api_key", "JSEARCH_API_KEY")
	v.BindEnv("provider.api_host", "JSEARCH_API_HOST")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("usage.enabled", "USAGE_ENABLED")
	v.BindEnv("history.path", "HISTORY_PATH")
	v.BindEnv("storage.driver", "STORAGE_DRIVER")
	v.BindEnv("storage.s3.endpoint", "S3_ENDPOINT")
	v.BindEnv("storage.s3.bucket", "S3_BUCKET")
	v.BindEnv("storage.s3.access_key_id", "S3_ACCESS_KEY_ID")
	v.BindEnv("storage.s3.secret_access_key", "S3_SECRET_ACCESS_KEY")
	v.BindEnv("scheduler.enabled", "SCHEDULER_ENABLED")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
