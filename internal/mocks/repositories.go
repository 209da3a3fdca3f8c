package mocks

import (
	"context"
	"time"

	"github.com/seu-repo/autospace/internal/domain"
)

// MockVehicleRepository is a mock implementation of VehicleRepository
type MockVehicleRepository struct {
	SaveFunc        func(ctx context.Context, v *domain.Vehicle) error
	FindByIDFunc    func(ctx context.Context, id string) (*domain.Vehicle, error)
	FindByPlateFunc func(ctx context.Context, plate string) (*domain.Vehicle, error)
}

func (m *MockVehicleRepository) Save(ctx context.Context, v *domain.Vehicle) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, v)
	}
	return nil
}

func (m *MockVehicleRepository) FindByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockVehicleRepository) FindByPlate(ctx context.Context, plate string) (*domain.Vehicle, error) {
	if m.FindByPlateFunc != nil {
		return m.FindByPlateFunc(ctx, plate)
	}
	return nil, nil
}

// MockTariffRepository is a mock implementation of TariffRepository
type MockTariffRepository struct {
	SaveFunc                    func(ctx context.Context, t *domain.Tariff) error
	FindByIDFunc                func(ctx context.Context, id string) (*domain.Tariff, error)
	FindActiveByVehicleTypeFunc func(ctx context.Context, vehicleType domain.VehicleType) ([]domain.Tariff, error)
}

func (m *MockTariffRepository) Save(ctx context.Context, t *domain.Tariff) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, t)
	}
	return nil
}

func (m *MockTariffRepository) FindByID(ctx context.Context, id string) (*domain.Tariff, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockTariffRepository) FindActiveByVehicleType(ctx context.Context, vehicleType domain.VehicleType) ([]domain.Tariff, error) {
	if m.FindActiveByVehicleTypeFunc != nil {
		return m.FindActiveByVehicleTypeFunc(ctx, vehicleType)
	}
	return []domain.Tariff{}, nil
}

// MockSubscriptionRepository is a mock implementation of SubscriptionRepository
type MockSubscriptionRepository struct {
	SaveFunc                func(ctx context.Context, s *domain.Subscription) error
	FindByIDFunc            func(ctx context.Context, id string) (*domain.Subscription, error)
	FindActiveByVehicleFunc func(ctx context.Context, vehicleID string, at time.Time) ([]domain.Subscription, error)
}

func (m *MockSubscriptionRepository) Save(ctx context.Context, s *domain.Subscription) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, s)
	}
	return nil
}

func (m *MockSubscriptionRepository) FindByID(ctx context.Context, id string) (*domain.Subscription, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockSubscriptionRepository) FindActiveByVehicle(ctx context.Context, vehicleID string, at time.Time) ([]domain.Subscription, error) {
	if m.FindActiveByVehicleFunc != nil {
		return m.FindActiveByVehicleFunc(ctx, vehicleID, at)
	}
	return []domain.Subscription{}, nil
}

// MockSessionRepository is a mock implementation of SessionRepository
type MockSessionRepository struct {
	CreateFunc            func(ctx context.Context, s *domain.Session) error
	FindByIDFunc          func(ctx context.Context, id string) (*domain.Session, error)
	FindByNumberFunc      func(ctx context.Context, number string) (*domain.Session, error)
	FindOpenByVehicleFunc func(ctx context.Context, vehicleID string) (*domain.Session, error)
	CloseFunc             func(ctx context.Context, s *domain.Session) error
	ListOpenFunc          func(ctx context.Context) ([]domain.Session, error)
	ListFunc              func(ctx context.Context, filter domain.SessionFilter) ([]domain.Session, error)
}

func (m *MockSessionRepository) Create(ctx context.Context, s *domain.Session) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, s)
	}
	return nil
}

func (m *MockSessionRepository) FindByID(ctx context.Context, id string) (*domain.Session, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockSessionRepository) FindByNumber(ctx context.Context, number string) (*domain.Session, error) {
	if m.FindByNumberFunc != nil {
		return m.FindByNumberFunc(ctx, number)
	}
	return nil, nil
}

func (m *MockSessionRepository) FindOpenByVehicle(ctx context.Context, vehicleID string) (*domain.Session, error) {
	if m.FindOpenByVehicleFunc != nil {
		return m.FindOpenByVehicleFunc(ctx, vehicleID)
	}
	return nil, nil
}

func (m *MockSessionRepository) Close(ctx context.Context, s *domain.Session) error {
	if m.CloseFunc != nil {
		return m.CloseFunc(ctx, s)
	}
	return nil
}

func (m *MockSessionRepository) ListOpen(ctx context.Context) ([]domain.Session, error) {
	if m.ListOpenFunc != nil {
		return m.ListOpenFunc(ctx)
	}
	return []domain.Session{}, nil
}

func (m *MockSessionRepository) List(ctx context.Context, filter domain.SessionFilter) ([]domain.Session, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return []domain.Session{}, nil
}

// MockOperatorRepository is a mock implementation of OperatorRepository
type MockOperatorRepository struct {
	SaveFunc        func(ctx context.Context, op *domain.Operator) error
	FindByIDFunc    func(ctx context.Context, id string) (*domain.Operator, error)
	FindByEmailFunc func(ctx context.Context, email string) (*domain.Operator, error)
}

func (m *MockOperatorRepository) Save(ctx context.Context, op *domain.Operator) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, op)
	}
	return nil
}

func (m *MockOperatorRepository) FindByID(ctx context.Context, id string) (*domain.Operator, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockOperatorRepository) FindByEmail(ctx context.Context, email string) (*domain.Operator, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	return nil, nil
}
