package ports

import (
	"context"
	"time"

	"github.com/seu-repo/autospace/internal/domain"
)

// Lookups return (nil, nil) when the record does not exist. Any returned
// error is an infrastructure failure.

type VehicleRepository interface {
	Save(ctx context.Context, v *domain.Vehicle) error
	FindByID(ctx context.Context, id string) (*domain.Vehicle, error)
	FindByPlate(ctx context.Context, plate string) (*domain.Vehicle, error)
}

type TariffRepository interface {
	Save(ctx context.Context, t *domain.Tariff) error
	FindByID(ctx context.Context, id string) (*domain.Tariff, error)
	// FindActiveByVehicleType returns every active tariff for the type,
	// most recently created first.
	FindActiveByVehicleType(ctx context.Context, vehicleType domain.VehicleType) ([]domain.Tariff, error)
}

type SubscriptionRepository interface {
	Save(ctx context.Context, s *domain.Subscription) error
	FindByID(ctx context.Context, id string) (*domain.Subscription, error)
	// FindActiveByVehicle returns Active subscriptions whose window contains at,
	// latest end date first.
	FindActiveByVehicle(ctx context.Context, vehicleID string, at time.Time) ([]domain.Subscription, error)
}

type SessionRepository interface {
	// Create fails with domain.ErrConflict when the vehicle already has an
	// open session or the session number is taken.
	Create(ctx context.Context, s *domain.Session) error
	FindByID(ctx context.Context, id string) (*domain.Session, error)
	FindByNumber(ctx context.Context, number string) (*domain.Session, error)
	FindOpenByVehicle(ctx context.Context, vehicleID string) (*domain.Session, error)
	// Close persists exit fields only if the session is still open, otherwise
	// it fails with domain.ErrConflict.
	Close(ctx context.Context, s *domain.Session) error
	ListOpen(ctx context.Context) ([]domain.Session, error)
	List(ctx context.Context, filter domain.SessionFilter) ([]domain.Session, error)
}

type OperatorRepository interface {
	Save(ctx context.Context, op *domain.Operator) error
	FindByID(ctx context.Context, id string) (*domain.Operator, error)
	FindByEmail(ctx context.Context, email string) (*domain.Operator, error)
}
