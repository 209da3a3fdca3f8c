package billing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seu-repo/autospace/internal/domain"
)

// Breakdown holds the intermediate values of a fee computation.
type Breakdown struct {
	Duration        time.Duration
	Grace           time.Duration
	Chargeable      time.Duration
	ChargeableHours int64
	RawAmount       float64
	CapApplied      bool
	Amount          float64
}

// Compute prices a stay from entry to exit under tariff. The grace period is
// subtracted first, every started hour is billed in full, hours after the
// first use the additional-hour price, and the result is capped at MaxPrice.
// Rounding to cents happens once, on the final amount.
func Compute(entry, exit time.Time, tariff *domain.Tariff) (Breakdown, error) {
	if exit.Before(entry) {
		return Breakdown{}, fmt.Errorf("%w: exit %s is before entry %s",
			domain.ErrInvalidArgument, exit.Format(time.RFC3339), entry.Format(time.RFC3339))
	}
	if err := tariff.Validate(); err != nil {
		return Breakdown{}, err
	}

	b := Breakdown{
		Duration: exit.Sub(entry),
		Grace:    tariff.GracePeriod.Duration(),
	}
	b.Chargeable = b.Duration - b.Grace
	if b.Chargeable <= 0 {
		b.Chargeable = 0
		return b, nil
	}

	b.ChargeableHours = int64((b.Chargeable + time.Hour - 1) / time.Hour)
	raw := decimal.NewFromFloat(tariff.HourPrice).Add(
		decimal.NewFromInt(b.ChargeableHours - 1).Mul(decimal.NewFromFloat(tariff.AdditionalHourPrice())))
	b.RawAmount = raw.InexactFloat64()

	amount := raw
	if tariff.MaxPrice != nil {
		if maxPrice := decimal.NewFromFloat(*tariff.MaxPrice); amount.GreaterThan(maxPrice) {
			amount = maxPrice
			b.CapApplied = true
		}
	}
	b.Amount = amount.Round(2).InexactFloat64()
	return b, nil
}

// ComputeAmount returns the amount owed for a stay from entry to exit.
func ComputeAmount(entry, exit time.Time, tariff *domain.Tariff) (float64, error) {
	b, err := Compute(entry, exit, tariff)
	if err != nil {
		return 0, err
	}
	return b.Amount, nil
}

// ElapsedMinutes is the number of whole minutes between entry and exit.
func ElapsedMinutes(entry, exit time.Time) int {
	if exit.Before(entry) {
		return 0
	}
	return int(exit.Sub(entry) / time.Minute)
}

// RoundCurrency rounds half away from zero to two decimal places. v is
// read as its shortest decimal form, so 1.005 rounds to 1.01.
func RoundCurrency(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
