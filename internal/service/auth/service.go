package auth

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/seu-repo/autospace/internal/domain"
	"github.com/seu-repo/autospace/internal/ports"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrOperatorDisabled   = errors.New("operator disabled")
)

type Service struct {
	operators ports.OperatorRepository
	tokens    *TokenIssuer
	log       *zap.Logger
}

func NewService(operators ports.OperatorRepository, tokens *TokenIssuer, log *zap.Logger) ports.AuthService {
	return &Service{
		operators: operators,
		tokens:    tokens,
		log:       log,
	}
}

// Login checks the operator PIN and returns an access token.
func (s *Service) Login(ctx context.Context, email, pin string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || pin == "" {
		return "", ErrInvalidCredentials
	}

	op, err := s.operators.FindByEmail(ctx, email)
	if err != nil {
		s.log.Error("Operator lookup failed", zap.Error(err))
		return "", domain.Unavailable("find operator", err)
	}
	if op == nil {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(op.PinHash), []byte(pin)); err != nil {
		s.log.Warn("Login rejected", zap.String("operator_id", op.ID))
		return "", ErrInvalidCredentials
	}
	if !op.CanOperate() {
		return "", ErrOperatorDisabled
	}

	token, err := s.tokens.Issue(op)
	if err != nil {
		return "", err
	}
	s.log.Info("Operator logged in", zap.String("operator_id", op.ID))
	return token, nil
}

// ValidateToken resolves the operator behind a token. Operators disabled
// after the token was issued are rejected.
func (s *Service) ValidateToken(ctx context.Context, token string) (*domain.Operator, error) {
	claims, err := s.tokens.Parse(ctx, token)
	if err != nil {
		return nil, err
	}

	op, err := s.operators.FindByID(ctx, claims.Subject)
	if err != nil {
		return nil, domain.Unavailable("find operator", err)
	}
	if op == nil {
		return nil, ErrInvalidToken
	}
	if !op.CanOperate() {
		return nil, ErrOperatorDisabled
	}
	return op, nil
}

// Logout revokes token.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.Parse(ctx, token)
	if err != nil {
		return err
	}
	return s.tokens.Revoke(ctx, claims)
}

// HashPIN returns the bcrypt hash stored as Operator.PinHash.
func HashPIN(pin string) (string, error) {
	if len(pin) < 4 {
		return "", errors.New("pin must have at least 4 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
