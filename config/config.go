package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime settings. Values come from config.yaml when present,
// with YATUBE_* environment variables taking precedence.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Session  SessionConfig
	App      AppConfig
	Sentry   SentryConfig
	Tracing  TracingConfig
	Log      LogConfig
}

type ServerConfig struct {
	Addr string
	Mode string // gin mode: debug, release, test
}

type DatabaseConfig struct {
	Driver string // sqlite or postgres
	DSN    string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// CacheConfig controls the home page cache. HomeTTL is the staleness window.
type CacheConfig struct {
	HomeTTL time.Duration
}

type SessionConfig struct {
	Secret string
	TTL    time.Duration
}

type AppConfig struct {
	PostsPerPage  int
	MediaRoot     string
	TemplatesGlob string
}

type SentryConfig struct {
	DSN string
}

type TracingConfig struct {
	Enabled  bool
	Endpoint string
	Service  string
}

type LogConfig struct {
	Level string
}

// Load reads configuration from ./config.yaml (optional) and the environment.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvPrefix("YATUBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "yatube.db")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("cache.homettl", 20*time.Second)
	v.SetDefault("session.secret", "change-me-in-production")
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("app.postsperpage", 10)
	v.SetDefault("app.mediaroot", "media")
	v.SetDefault("app.templatesglob", "web/templates/*.html")
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("tracing.service", "yatube")
	v.SetDefault("log.level", "info")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
