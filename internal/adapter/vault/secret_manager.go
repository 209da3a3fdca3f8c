package vault

import (
	"context"
	"fmt"

	"github.com/hashicorp/vault/api"
	"go.uber.org/zap"
)

// fieldKeys maps secret fields to the config keys they override.
var fieldKeys = map[string]string{
	"database_url": "database.url",
	"redis_url":    "redis.url",
	"broker_url":   "broker.url",
	"jwt_secret":   "jwt.secret",
}

type SecretManager struct {
	client *api.Client
	path   string
	log    *zap.Logger
}

func NewSecretManager(address, token, path string, log *zap.Logger) (*SecretManager, error) {
	config := api.DefaultConfig()
	config.Address = address

	client, err := api.NewClient(config)
	if err != nil {
		return nil, err
	}

	client.SetToken(token)

	return &SecretManager{client: client, path: path, log: log}, nil
}

// Secrets reads the service secret and returns its known fields keyed by
// config key. Both KV v1 and KV v2 layouts are accepted.
func (sm *SecretManager) Secrets(ctx context.Context) (map[string]string, error) {
	secret, err := sm.client.Logical().ReadWithContext(ctx, sm.path)
	if err != nil {
		return nil, err
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("vault: no secret at %s", sm.path)
	}

	return extract(secret.Data), nil
}

func extract(data map[string]interface{}) map[string]string {
	if nested, ok := data["data"].(map[string]interface{}); ok {
		data = nested
	}

	out := make(map[string]string, len(fieldKeys))
	for field, key := range fieldKeys {
		if v, ok := data[field].(string); ok && v != "" {
			out[key] = v
		}
	}
	return out
}
