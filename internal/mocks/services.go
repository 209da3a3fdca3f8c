package mocks

import (
	"context"
	"time"

	"github.com/seu-repo/autospace/internal/domain"
	"github.com/seu-repo/autospace/internal/ports"
)

// MockSessionService is a mock implementation of SessionService interface
type MockSessionService struct {
	OpenSessionFunc        func(ctx context.Context, req ports.OpenSessionRequest) (*domain.Session, error)
	OpenSessionByPlateFunc func(ctx context.Context, plate string, req ports.OpenSessionRequest) (*domain.Session, error)
	CloseSessionFunc       func(ctx context.Context, req ports.CloseSessionRequest) (*domain.Session, error)
	GetSessionFunc         func(ctx context.Context, id string) (*domain.Session, error)
	GetSessionByNumberFunc func(ctx context.Context, number string) (*domain.Session, error)
	ListActiveSessionsFunc func(ctx context.Context) ([]domain.Session, error)
	ListSessionsFunc       func(ctx context.Context, from, to *time.Time) ([]domain.Session, error)
	QuoteSessionFunc       func(ctx context.Context, id string, at time.Time) (*domain.Invoice, error)
}

func (m *MockSessionService) OpenSession(ctx context.Context, req ports.OpenSessionRequest) (*domain.Session, error) {
	if m.OpenSessionFunc != nil {
		return m.OpenSessionFunc(ctx, req)
	}
	return nil, nil
}

func (m *MockSessionService) OpenSessionByPlate(ctx context.Context, plate string, req ports.OpenSessionRequest) (*domain.Session, error) {
	if m.OpenSessionByPlateFunc != nil {
		return m.OpenSessionByPlateFunc(ctx, plate, req)
	}
	return nil, nil
}

func (m *MockSessionService) CloseSession(ctx context.Context, req ports.CloseSessionRequest) (*domain.Session, error) {
	if m.CloseSessionFunc != nil {
		return m.CloseSessionFunc(ctx, req)
	}
	return nil, nil
}

func (m *MockSessionService) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockSessionService) GetSessionByNumber(ctx context.Context, number string) (*domain.Session, error) {
	if m.GetSessionByNumberFunc != nil {
		return m.GetSessionByNumberFunc(ctx, number)
	}
	return nil, nil
}

func (m *MockSessionService) ListActiveSessions(ctx context.Context) ([]domain.Session, error) {
	if m.ListActiveSessionsFunc != nil {
		return m.ListActiveSessionsFunc(ctx)
	}
	return []domain.Session{}, nil
}

func (m *MockSessionService) ListSessions(ctx context.Context, from, to *time.Time) ([]domain.Session, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx, from, to)
	}
	return []domain.Session{}, nil
}

func (m *MockSessionService) QuoteSession(ctx context.Context, id string, at time.Time) (*domain.Invoice, error) {
	if m.QuoteSessionFunc != nil {
		return m.QuoteSessionFunc(ctx, id, at)
	}
	return nil, nil
}

// MockAuthService is a mock implementation of AuthService interface
type MockAuthService struct {
	LoginFunc         func(ctx context.Context, email, pin string) (string, error)
	ValidateTokenFunc func(ctx context.Context, token string) (*domain.Operator, error)
	LogoutFunc        func(ctx context.Context, token string) error
}

func (m *MockAuthService) Login(ctx context.Context, email, pin string) (string, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, pin)
	}
	return "", nil
}

func (m *MockAuthService) ValidateToken(ctx context.Context, token string) (*domain.Operator, error) {
	if m.ValidateTokenFunc != nil {
		return m.ValidateTokenFunc(ctx, token)
	}
	return nil, nil
}

func (m *MockAuthService) Logout(ctx context.Context, token string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, token)
	}
	return nil
}

// MockLocker grants every lock immediately unless AcquireFunc says otherwise
type MockLocker struct {
	AcquireFunc func(ctx context.Context, key string) (func(), error)
	Acquired    []string
}

func (m *MockLocker) Acquire(ctx context.Context, key string) (func(), error) {
	if m.AcquireFunc != nil {
		return m.AcquireFunc(ctx, key)
	}
	m.Acquired = append(m.Acquired, key)
	return func() {}, nil
}
