package billing

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/autospace/internal/domain"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func testSession() *domain.Session {
	tariffID := "tariff-car"
	return &domain.Session{
		ID:            "session-1",
		SessionNumber: "AS-1",
		VehicleID:     "vehicle-1",
		TariffID:      &tariffID,
		EntryTime:     entry,
	}
}

func TestInvoice_Billed(t *testing.T) {
	// Arrange
	svc := NewService("", newTestLogger())

	// Act
	inv, err := svc.Invoice(testSession(), referenceTariff(), false, entry.Add(105*time.Minute))

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if inv.TotalAmount != 7.50 {
		t.Errorf("expected 7.50, got %.2f", inv.TotalAmount)
	}
	if inv.ChargeableHours != 2 {
		t.Errorf("expected 2 chargeable hours, got %d", inv.ChargeableHours)
	}
	if inv.ChargeableMinutes != 75 {
		t.Errorf("expected 75 chargeable minutes, got %d", inv.ChargeableMinutes)
	}
	if inv.GraceMinutes != 30 {
		t.Errorf("expected 30 grace minutes, got %d", inv.GraceMinutes)
	}
	if inv.ElapsedMinutes != 105 {
		t.Errorf("expected 105 elapsed minutes, got %d", inv.ElapsedMinutes)
	}
	if inv.Currency != DefaultCurrency {
		t.Errorf("expected currency %s, got %s", DefaultCurrency, inv.Currency)
	}
	if inv.SubscriptionApplied {
		t.Error("expected no subscription override")
	}
}

func TestInvoice_Waived(t *testing.T) {
	svc := NewService("USD", newTestLogger())
	sess := testSession()
	subID := "sub-1"
	sess.SubscriptionID = &subID

	inv, err := svc.Invoice(sess, nil, true, entry.Add(72*time.Hour))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if inv.TotalAmount != 0 {
		t.Errorf("expected 0, got %.2f", inv.TotalAmount)
	}
	if !inv.SubscriptionApplied {
		t.Error("expected subscription override")
	}
	if inv.SubscriptionID != subID {
		t.Errorf("expected subscription %s, got %s", subID, inv.SubscriptionID)
	}
	if inv.Currency != "USD" {
		t.Errorf("expected USD, got %s", inv.Currency)
	}
}

func TestInvoice_MissingTariff(t *testing.T) {
	svc := NewService("", newTestLogger())

	_, err := svc.Invoice(testSession(), nil, false, entry.Add(time.Hour))
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestInvoice_ExitBeforeEntry(t *testing.T) {
	svc := NewService("", newTestLogger())

	_, err := svc.Invoice(testSession(), referenceTariff(), false, entry.Add(-time.Second))
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}
