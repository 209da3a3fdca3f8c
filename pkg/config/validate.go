package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port %d out of range", c.HTTP.Port))
	}
	if c.GRPC.Enabled && (c.GRPC.Port <= 0 || c.GRPC.Port > 65535) {
		errs = append(errs, fmt.Errorf("grpc.port %d out of range", c.GRPC.Port))
	}

	switch strings.ToLower(c.Storage.Driver) {
	case "postgres":
		if c.Database.URL == "" {
			errs = append(errs, errors.New("database.url is required for the postgres storage driver"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q must be postgres or memory", c.Storage.Driver))
	}

	switch strings.ToLower(c.Broker.Driver) {
	case "nats", "rabbitmq":
		if c.Broker.URL == "" {
			errs = append(errs, fmt.Errorf("broker.url is required for the %s driver", c.Broker.Driver))
		}
	case "memory", "":
	default:
		errs = append(errs, fmt.Errorf("broker.driver %q must be nats, rabbitmq or memory", c.Broker.Driver))
	}

	switch strings.ToLower(c.Lock.Driver) {
	case "redis":
		if !c.Redis.Enabled {
			errs = append(errs, errors.New("lock.driver redis requires redis.enabled"))
		}
		if c.Lock.TTL <= 0 {
			errs = append(errs, errors.New("lock.ttl must be positive"))
		}
	case "local", "":
	default:
		errs = append(errs, fmt.Errorf("lock.driver %q must be local or redis", c.Lock.Driver))
	}

	if c.Redis.Enabled && c.Redis.URL == "" {
		errs = append(errs, errors.New("redis.url is required when redis is enabled"))
	}
	if len(c.JWT.Secret) < 16 {
		errs = append(errs, errors.New("jwt.secret must be at least 16 characters"))
	}
	if c.JWT.AccessTokenDuration <= 0 {
		errs = append(errs, errors.New("jwt.access_token_duration must be positive"))
	}
	if c.Cache.TariffTTL < 0 {
		errs = append(errs, errors.New("cache.tariff_ttl must not be negative"))
	}
	if c.Sessions.NodeID < 0 || c.Sessions.NodeID > 1023 {
		errs = append(errs, fmt.Errorf("sessions.node_id %d must be within 0..1023", c.Sessions.NodeID))
	}
	if c.CircuitBreaker.FailureThreshold < 0 || c.CircuitBreaker.FailureThreshold > 1 {
		errs = append(errs, errors.New("circuit_breaker.failure_threshold must be within 0..1"))
	}
	if c.OpenTelemetry.SampleRatio < 0 || c.OpenTelemetry.SampleRatio > 1 {
		errs = append(errs, errors.New("opentelemetry.sample_ratio must be within 0..1"))
	}
	if c.Vault.Enabled && (c.Vault.Address == "" || c.Vault.Path == "") {
		errs = append(errs, errors.New("vault.address and vault.path are required when vault is enabled"))
	}

	return errors.Join(errs...)
}
