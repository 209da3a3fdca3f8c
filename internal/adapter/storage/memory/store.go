// Package memory keeps every repository in process memory. It enforces the
// same uniqueness rules as the Postgres schema and is used for local runs
// and tests.
package memory

import (
	"sync"

	"github.com/seu-repo/autospace/internal/domain"
)

type Store struct {
	mu            sync.RWMutex
	vehicles      map[string]domain.Vehicle
	tariffs       map[string]domain.Tariff
	subscriptions map[string]domain.Subscription
	sessions      map[string]*domain.Session
	operators     map[string]domain.Operator
}

func NewStore() *Store {
	return &Store{
		vehicles:      make(map[string]domain.Vehicle),
		tariffs:       make(map[string]domain.Tariff),
		subscriptions: make(map[string]domain.Subscription),
		sessions:      make(map[string]*domain.Session),
		operators:     make(map[string]domain.Operator),
	}
}
