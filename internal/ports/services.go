package ports

import (
	"context"
	"time"

	"github.com/seu-repo/autospace/internal/domain"
)

type AuthService interface {
	Login(ctx context.Context, email, pin string) (string, error)
	ValidateToken(ctx context.Context, token string) (*domain.Operator, error)
	Logout(ctx context.Context, token string) error
}

type OpenSessionRequest struct {
	VehicleID     string
	OperatorID    *string
	SessionNumber string
	Now           time.Time
}

type CloseSessionRequest struct {
	SessionID     string
	SessionNumber string
	OperatorID    string
	Now           time.Time
}

type SessionService interface {
	OpenSession(ctx context.Context, req OpenSessionRequest) (*domain.Session, error)
	OpenSessionByPlate(ctx context.Context, plate string, req OpenSessionRequest) (*domain.Session, error)
	CloseSession(ctx context.Context, req CloseSessionRequest) (*domain.Session, error)
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	GetSessionByNumber(ctx context.Context, number string) (*domain.Session, error)
	ListActiveSessions(ctx context.Context) ([]domain.Session, error)
	ListSessions(ctx context.Context, from, to *time.Time) ([]domain.Session, error)
	QuoteSession(ctx context.Context, id string, at time.Time) (*domain.Invoice, error)
}
