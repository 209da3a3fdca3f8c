package billing

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/autospace/internal/domain"
)

const DefaultCurrency = "BRL"

// Service turns sessions into invoices and logs every priced exit.
type Service struct {
	currency string
	log      *zap.Logger
}

func NewService(currency string, log *zap.Logger) *Service {
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Service{
		currency: currency,
		log:      log,
	}
}

// Invoice prices sess as if it ended at exit. When waived is true a valid
// subscription covers the stay and the amount is zero regardless of tariff.
func (s *Service) Invoice(sess *domain.Session, tariff *domain.Tariff, waived bool, exit time.Time) (*domain.Invoice, error) {
	if sess == nil {
		return nil, fmt.Errorf("%w: session is required", domain.ErrInvalidArgument)
	}
	if exit.Before(sess.EntryTime) {
		return nil, fmt.Errorf("%w: exit %s is before entry %s",
			domain.ErrInvalidArgument, exit.Format(time.RFC3339), sess.EntryTime.Format(time.RFC3339))
	}

	inv := &domain.Invoice{
		SessionID:      sess.ID,
		SessionNumber:  sess.SessionNumber,
		VehicleID:      sess.VehicleID,
		EntryTime:      sess.EntryTime,
		ExitTime:       exit,
		Duration:       exit.Sub(sess.EntryTime),
		ElapsedMinutes: ElapsedMinutes(sess.EntryTime, exit),
		Currency:       s.currency,
		GeneratedAt:    exit,
	}
	if sess.SubscriptionID != nil {
		inv.SubscriptionID = *sess.SubscriptionID
	}

	if waived {
		inv.SubscriptionApplied = true
		if tariff != nil {
			inv.TariffID = tariff.ID
		}
		s.log.Info("Session covered by subscription",
			zap.String("session_id", sess.ID),
			zap.String("subscription_id", inv.SubscriptionID),
			zap.Int("elapsed_minutes", inv.ElapsedMinutes),
		)
		return inv, nil
	}

	if tariff == nil {
		return nil, fmt.Errorf("%w: session %s has no tariff", domain.ErrInvalidState, sess.ID)
	}

	b, err := Compute(sess.EntryTime, exit, tariff)
	if err != nil {
		return nil, err
	}

	inv.TariffID = tariff.ID
	inv.GraceMinutes = tariff.GracePeriod.Minutes()
	inv.ChargeableMinutes = int64(b.Chargeable / time.Minute)
	inv.ChargeableHours = b.ChargeableHours
	inv.HourPrice = tariff.HourPrice
	inv.AddPrice = tariff.AdditionalHourPrice()
	inv.MaxPrice = tariff.MaxPrice
	inv.RawAmount = RoundCurrency(b.RawAmount)
	inv.CapApplied = b.CapApplied
	inv.TotalAmount = b.Amount

	s.log.Info("Calculated session fee",
		zap.String("session_id", sess.ID),
		zap.String("tariff_id", tariff.ID),
		zap.Int("elapsed_minutes", inv.ElapsedMinutes),
		zap.Int64("chargeable_hours", b.ChargeableHours),
		zap.Float64("raw_amount", b.RawAmount),
		zap.Bool("cap_applied", b.CapApplied),
		zap.Float64("amount", b.Amount),
	)

	return inv, nil
}
