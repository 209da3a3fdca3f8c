package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/seu-repo/autospace/internal/domain"
	"github.com/seu-repo/autospace/internal/infrastructure/circuitbreaker"
	"github.com/seu-repo/autospace/internal/observability/telemetry"
	"github.com/seu-repo/autospace/internal/ports"
)

// CloseSession registers the exit of a vehicle and computes the amount owed.
// A session closes exactly once; later attempts fail with ErrConflict.
func (s *Service) CloseSession(ctx context.Context, req ports.CloseSessionRequest) (sess *domain.Session, err error) {
	ctx, cancel, span := s.begin(ctx, "CloseSession")
	defer cancel()
	defer func() { s.finish(span, "close", err) }()

	if err := validateClose(req); err != nil {
		return nil, err
	}

	target, err := s.lookup(ctx, req.SessionID, req.SessionNumber)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("session_id", target.ID))

	release, err := s.locker.Acquire(ctx, "session:"+target.ID)
	if err != nil {
		return nil, domain.Unavailable("lock session", err)
	}
	defer release()

	// Re-read under the lock; the first read may predate a concurrent close.
	current, err := s.lookup(ctx, target.ID, "")
	if err != nil {
		return nil, err
	}
	if !current.IsOpen() {
		return nil, fmt.Errorf("%w: session %s is already closed", domain.ErrConflict, current.SessionNumber)
	}
	if req.Now.Before(current.EntryTime) {
		return nil, fmt.Errorf("%w: exit %s is before entry %s",
			domain.ErrInvalidArgument, req.Now.Format(time.RFC3339), current.EntryTime.Format(time.RFC3339))
	}

	inv, err := s.price(ctx, current, req.Now)
	if err != nil {
		return nil, err
	}

	closed := current.Clone()
	exit := req.Now
	elapsed := inv.ElapsedMinutes
	amount := inv.TotalAmount
	closer := req.OperatorID
	closed.ExitTime = &exit
	closed.ElapsedMinutes = &elapsed
	closed.Amount = &amount
	closed.ClosedByOperatorID = &closer
	closed.UpdatedAt = req.Now

	if err := s.guard.Run(ctx, "close session", func(ctx context.Context) error {
		return s.sessions.Close(ctx, closed)
	}); err != nil {
		return nil, err
	}

	billingLabel := "tariff"
	if inv.SubscriptionApplied {
		billingLabel = "subscription"
	}
	telemetry.OpenSessions.Dec()
	telemetry.SessionsClosedTotal.WithLabelValues(billingLabel).Inc()
	telemetry.SessionAmount.Observe(amount)
	s.publish(domain.EventSessionClosed, closed, req.Now)

	s.log.Info("Session closed",
		zap.String("session_id", closed.ID),
		zap.String("session_number", closed.SessionNumber),
		zap.String("operator_id", closer),
		zap.Int("elapsed_minutes", elapsed),
		zap.Float64("amount", amount),
		zap.String("billing", billingLabel),
	)

	return closed, nil
}

func validateClose(req ports.CloseSessionRequest) error {
	hasID := strings.TrimSpace(req.SessionID) != ""
	hasNumber := strings.TrimSpace(req.SessionNumber) != ""
	if hasID == hasNumber {
		return fmt.Errorf("%w: exactly one of session id or session number is required", domain.ErrInvalidArgument)
	}
	if strings.TrimSpace(req.OperatorID) == "" {
		return fmt.Errorf("%w: operator id is required", domain.ErrInvalidArgument)
	}
	if req.Now.IsZero() {
		return fmt.Errorf("%w: exit time is required", domain.ErrInvalidArgument)
	}
	return nil
}

// price computes the invoice for sess ending at exit. The subscription is
// re-read and must still cover exit; otherwise the tariff captured at entry
// applies.
func (s *Service) price(ctx context.Context, sess *domain.Session, exit time.Time) (*domain.Invoice, error) {
	if sess.SubscriptionID != nil {
		valid, err := s.rates.SubscriptionStillValid(ctx, *sess.SubscriptionID, exit)
		if err != nil {
			return nil, err
		}
		if valid {
			return s.billing.Invoice(sess, nil, true, exit)
		}
		s.log.Info("Subscription no longer covers session, billing by tariff",
			zap.String("session_id", sess.ID),
			zap.String("subscription_id", *sess.SubscriptionID),
		)
	}

	if sess.TariffID == nil {
		return nil, fmt.Errorf("%w: session %s has no tariff", domain.ErrInvalidState, sess.ID)
	}
	tariff, err := s.rates.TariffByID(ctx, *sess.TariffID)
	if err != nil {
		return nil, err
	}
	if tariff == nil {
		return nil, fmt.Errorf("%w: tariff %s of session %s no longer exists", domain.ErrInvalidState, *sess.TariffID, sess.ID)
	}
	return s.billing.Invoice(sess, tariff, false, exit)
}

func (s *Service) lookup(ctx context.Context, id, number string) (*domain.Session, error) {
	var (
		sess *domain.Session
		err  error
	)
	if id != "" {
		sess, err = circuitbreaker.Do(ctx, s.guard, "find session", func(ctx context.Context) (*domain.Session, error) {
			return s.sessions.FindByID(ctx, id)
		})
	} else {
		sess, err = circuitbreaker.Do(ctx, s.guard, "find session by number", func(ctx context.Context) (*domain.Session, error) {
			return s.sessions.FindByNumber(ctx, number)
		})
	}
	if err != nil {
		return nil, err
	}
	if sess == nil {
		if id != "" {
			return nil, fmt.Errorf("%w: session %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: session number %s", domain.ErrNotFound, number)
	}
	return sess, nil
}
