package rates

import (
	"time"

	"github.com/seu-repo/autospace/internal/domain"
)

// PickTariff selects among candidates the active tariff for vehicleType that
// was created most recently. Ties on creation time go to the greater ID.
func PickTariff(candidates []domain.Tariff, vehicleType domain.VehicleType) *domain.Tariff {
	var best *domain.Tariff
	for i := range candidates {
		c := &candidates[i]
		if !c.IsActive || c.VehicleType != vehicleType {
			continue
		}
		if best == nil ||
			c.CreatedAt.After(best.CreatedAt) ||
			(c.CreatedAt.Equal(best.CreatedAt) && c.ID > best.ID) {
			best = c
		}
	}
	if best == nil {
		return nil
	}
	t := *best
	return &t
}

// PickSubscription selects the subscription covering vehicleID at the given
// instant with the latest end date, then the latest creation, then the
// greater ID.
func PickSubscription(candidates []domain.Subscription, vehicleID string, at time.Time) *domain.Subscription {
	var best *domain.Subscription
	for i := range candidates {
		c := &candidates[i]
		if c.VehicleID != vehicleID || !c.Covers(at) {
			continue
		}
		if best == nil || subscriptionBefore(best, c) {
			best = c
		}
	}
	if best == nil {
		return nil
	}
	s := *best
	return &s
}

func subscriptionBefore(a, b *domain.Subscription) bool {
	if !a.EndDate.Equal(b.EndDate) {
		return a.EndDate.Before(b.EndDate)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}
