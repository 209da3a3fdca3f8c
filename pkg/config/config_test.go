package config

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func validConfig() *Config {
	return &Config{
		HTTP:           HTTPConfig{Port: 8080},
		GRPC:           GRPCConfig{Enabled: true, Port: 9090},
		Storage:        StorageConfig{Driver: "memory"},
		Broker:         BrokerConfig{Driver: "memory"},
		Lock:           LockConfig{Driver: "local"},
		JWT:            JWTConfig{Secret: "0123456789abcdef", AccessTokenDuration: time.Hour},
		CircuitBreaker: CircuitBreakerConfig{FailureThreshold: 0.6},
		OpenTelemetry:  OpenTelemetryConfig{SampleRatio: 1},
	}
}

func TestLoadFrom_Defaults(t *testing.T) {
	// Arrange
	v := viper.New()

	// Act
	cfg, err := LoadFrom(v)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.HTTP.Port)
	}
	if cfg.Cache.TariffTTL != 0 {
		t.Errorf("expected tariff caching off by default, got %v", cfg.Cache.TariffTTL)
	}
	if cfg.Sessions.NumberPrefix != "AS" {
		t.Errorf("expected prefix AS, got %s", cfg.Sessions.NumberPrefix)
	}
	if cfg.Billing.Currency != "BRL" {
		t.Errorf("expected BRL, got %s", cfg.Billing.Currency)
	}
}

func TestLoadFrom_YAMLAndEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-environment-secret")
	t.Setenv("APP_LOCK_DRIVER", "redis")

	v := viper.New()
	v.SetConfigType("yaml")
	yaml := `
storage:
  driver: memory
cache:
  tariff_ttl: 30s
sessions:
  number_prefix: GRG
`
	if err := v.ReadConfig(strings.NewReader(yaml)); err != nil {
		t.Fatalf("read yaml: %v", err)
	}

	cfg, err := LoadFrom(v)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != "memory" {
		t.Errorf("expected memory storage, got %s", cfg.Storage.Driver)
	}
	if cfg.Cache.TariffTTL != 30*time.Second {
		t.Errorf("expected 30s, got %v", cfg.Cache.TariffTTL)
	}
	if cfg.Sessions.NumberPrefix != "GRG" {
		t.Errorf("expected GRG, got %s", cfg.Sessions.NumberPrefix)
	}
	if cfg.JWT.Secret != "from-environment-secret" {
		t.Errorf("expected secret from env, got %q", cfg.JWT.Secret)
	}
	if cfg.Lock.Driver != "redis" {
		t.Errorf("expected redis lock from env, got %s", cfg.Lock.Driver)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.HTTP.Port = 0 }, wantErr: "http.port"},
		{name: "postgres without url", mutate: func(c *Config) { c.Storage.Driver = "postgres" }, wantErr: "database.url"},
		{name: "unknown storage", mutate: func(c *Config) { c.Storage.Driver = "mongo" }, wantErr: "storage.driver"},
		{name: "nats without url", mutate: func(c *Config) { c.Broker.Driver = "nats" }, wantErr: "broker.url"},
		{name: "redis lock without redis", mutate: func(c *Config) { c.Lock.Driver = "redis"; c.Lock.TTL = time.Second }, wantErr: "redis.enabled"},
		{name: "short secret", mutate: func(c *Config) { c.JWT.Secret = "short" }, wantErr: "jwt.secret"},
		{name: "node id", mutate: func(c *Config) { c.Sessions.NodeID = 2048 }, wantErr: "node_id"},
		{name: "negative ttl", mutate: func(c *Config) { c.Cache.TariffTTL = -time.Second }, wantErr: "tariff_ttl"},
		{name: "vault without path", mutate: func(c *Config) { c.Vault.Enabled = true; c.Vault.Address = "http://vault" }, wantErr: "vault"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

type staticSecrets struct {
	values map[string]string
	err    error
}

func (s staticSecrets) Secrets(context.Context) (map[string]string, error) {
	return s.values, s.err
}

func TestApplySecrets(t *testing.T) {
	cfg := validConfig()
	cfg.Database.URL = "postgres://from-file"

	err := ApplySecrets(context.Background(), cfg, staticSecrets{values: map[string]string{
		"jwt.secret":   "vault-secret-value-123",
		"database.url": "",
	}})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.JWT.Secret != "vault-secret-value-123" {
		t.Errorf("expected secret overlay, got %s", cfg.JWT.Secret)
	}
	if cfg.Database.URL != "postgres://from-file" {
		t.Errorf("expected empty secret to keep file value, got %s", cfg.Database.URL)
	}

	boom := errors.New("sealed")
	if err := ApplySecrets(context.Background(), cfg, staticSecrets{err: boom}); !errors.Is(err, boom) {
		t.Errorf("expected wrapped error, got %v", err)
	}
}
