package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Load reads .env, the YAML file and the environment, in that order of
// increasing precedence.
func Load() (*Config, error) {
	if err := gotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	v.AddConfigPath("/app/configs")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return LoadFrom(v)
}

// LoadFrom applies defaults and environment bindings to v and decodes it.
func LoadFrom(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Allow common env vars without APP_ prefix for Docker/VM deploys
	_ = v.BindEnv("http.port", "HTTP_PORT", "APP_HTTP_PORT")
	_ = v.BindEnv("database.url", "DATABASE_URL", "APP_DATABASE_URL")
	_ = v.BindEnv("redis.url", "REDIS_URL", "APP_REDIS_URL")
	_ = v.BindEnv("broker.url", "BROKER_URL", "NATS_URL", "APP_BROKER_URL")
	_ = v.BindEnv("jwt.secret", "JWT_SECRET", "APP_JWT_SECRET")
	_ = v.BindEnv("vault.token", "VAULT_TOKEN", "APP_VAULT_TOKEN")
	_ = v.BindEnv("vault.address", "VAULT_ADDR", "APP_VAULT_ADDRESS")
	_ = v.BindEnv("app.environment", "APP_ENVIRONMENT")
	_ = v.BindEnv("logging.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "autospace")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.environment", "development")

	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 10*time.Second)
	v.SetDefault("http.write_timeout", 10*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)
	v.SetDefault("http.shutdown_timeout", 15*time.Second)

	v.SetDefault("grpc.enabled", true)
	v.SetDefault("grpc.port", 9090)

	v.SetDefault("storage.driver", "postgres")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.key_prefix", "autospace:")

	v.SetDefault("broker.driver", "memory")

	v.SetDefault("jwt.access_token_duration", 12*time.Hour)
	v.SetDefault("jwt.issuer", "autospace")

	v.SetDefault("opentelemetry.service_name", "autospace")
	v.SetDefault("opentelemetry.sample_ratio", 1.0)

	v.SetDefault("prometheus.enabled", true)
	v.SetDefault("prometheus.path", "/metrics")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("rate_limiting.max_requests", 120)
	v.SetDefault("rate_limiting.window", time.Minute)

	v.SetDefault("circuit_breaker.enabled", true)
	v.SetDefault("circuit_breaker.max_requests", 3)
	v.SetDefault("circuit_breaker.interval", time.Minute)
	v.SetDefault("circuit_breaker.timeout", 30*time.Second)
	v.SetDefault("circuit_breaker.failure_threshold", 0.6)

	v.SetDefault("retry.max_retries", 2)
	v.SetDefault("retry.initial_interval", 50*time.Millisecond)
	v.SetDefault("retry.max_interval", 500*time.Millisecond)

	v.SetDefault("cache.tariff_ttl", time.Duration(0))

	v.SetDefault("lock.driver", "local")
	v.SetDefault("lock.ttl", 10*time.Second)
	v.SetDefault("lock.retry_interval", 25*time.Millisecond)

	v.SetDefault("sessions.operation_timeout", 5*time.Second)
	v.SetDefault("sessions.number_prefix", "AS")
	v.SetDefault("sessions.node_id", 1)

	v.SetDefault("billing.currency", "BRL")

	v.SetDefault("vault.path", "secret/data/autospace")
}

// SecretSource yields secret values keyed by config key.
type SecretSource interface {
	Secrets(ctx context.Context) (map[string]string, error)
}

// secretKeys lists the settings a secret store may override.
var secretKeys = []string{"database.url", "redis.url", "broker.url", "jwt.secret"}

// ApplySecrets overwrites sensitive settings with non-empty values from src.
func ApplySecrets(ctx context.Context, cfg *Config, src SecretSource) error {
	secrets, err := src.Secrets(ctx)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}
	for _, key := range secretKeys {
		value := secrets[key]
		if value == "" {
			continue
		}
		switch key {
		case "database.url":
			cfg.Database.URL = value
		case "redis.url":
			cfg.Redis.URL = value
		case "broker.url":
			cfg.Broker.URL = value
		case "jwt.secret":
			cfg.JWT.Secret = value
		}
	}
	return nil
}
