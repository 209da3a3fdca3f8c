package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seu-repo/autospace/internal/domain"
	"github.com/seu-repo/autospace/internal/ports"
)

const tokenTypeAccess = "access"

// Claims represents the operator JWT claims.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Type  string `json:"type"`
}

// TokenIssuer signs, parses and revokes operator access tokens.
type TokenIssuer struct {
	secret   []byte
	issuer   string
	duration time.Duration
	cache    ports.Cache
	now      func() time.Time
	log      *zap.Logger
}

// NewTokenIssuer creates a TokenIssuer. cache may be nil, in which case
// tokens cannot be revoked before they expire.
func NewTokenIssuer(secret, issuer string, duration time.Duration, cache ports.Cache, log *zap.Logger) *TokenIssuer {
	log.Info("JWT issuer initialized", zap.Duration("access_duration", duration))

	return &TokenIssuer{
		secret:   []byte(secret),
		issuer:   issuer,
		duration: duration,
		cache:    cache,
		now:      time.Now,
		log:      log,
	}
}

// Issue creates a signed access token for op.
func (t *TokenIssuer) Issue(op *domain.Operator) (string, error) {
	now := t.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   op.ID,
			Issuer:    t.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(t.duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
		Email: op.Email,
		Type:  tokenTypeAccess,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		t.log.Error("failed to sign access token", zap.String("operator_id", op.ID), zap.Error(err))
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// Parse validates signature, issuer, expiry, type and revocation.
func (t *TokenIssuer) Parse(ctx context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(tk *jwt.Token) (interface{}, error) {
		if _, ok := tk.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tk.Header["alg"])
		}
		return t.secret, nil
	},
		jwt.WithIssuer(t.issuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Type != tokenTypeAccess || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	revoked, err := t.isRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, fmt.Errorf("%w: token revoked", ErrInvalidToken)
	}
	return claims, nil
}

// Revoke blacklists the token id until the token would have expired.
func (t *TokenIssuer) Revoke(ctx context.Context, claims *Claims) error {
	if t.cache == nil {
		return errors.New("token revocation requires a cache")
	}

	ttl := t.duration
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(t.now())
	}
	if ttl <= 0 {
		return nil
	}

	if err := t.cache.Set(ctx, revokedKey(claims.ID), "revoked", ttl); err != nil {
		t.log.Error("failed to revoke token", zap.String("token_id", claims.ID), zap.Error(err))
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	t.log.Info("token revoked", zap.String("token_id", claims.ID), zap.String("operator_id", claims.Subject))
	return nil
}

func (t *TokenIssuer) isRevoked(ctx context.Context, jti string) (bool, error) {
	if t.cache == nil || jti == "" {
		return false, nil
	}
	val, err := t.cache.Get(ctx, revokedKey(jti))
	if err != nil {
		// an unreachable cache must not lock every operator out
		t.log.Warn("revocation check failed", zap.String("token_id", jti), zap.Error(err))
		return false, nil
	}
	return val == "revoked", nil
}

func revokedKey(jti string) string {
	return "revoked_token:" + jti
}
