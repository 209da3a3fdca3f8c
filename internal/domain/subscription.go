package domain

import "time"

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "Active"
	SubscriptionStatusExpired   SubscriptionStatus = "Expired"
	SubscriptionStatusCancelled SubscriptionStatus = "Cancelled"
	SubscriptionStatusInactive  SubscriptionStatus = "Inactive"
)

// Subscription is a monthly pass that waives per-visit billing for one vehicle.
type Subscription struct {
	ID           string             `json:"id" gorm:"primaryKey"`
	UserID       string             `json:"user_id" gorm:"index"`
	VehicleID    string             `json:"vehicle_id" gorm:"index"`
	StartDate    time.Time          `json:"start_date"`
	EndDate      time.Time          `json:"end_date"` // inclusive
	MonthlyPrice float64            `json:"monthly_price"`
	Status       SubscriptionStatus `json:"status"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// Covers reports whether the pass waives billing at the given instant.
func (s *Subscription) Covers(at time.Time) bool {
	if s == nil || s.Status != SubscriptionStatusActive {
		return false
	}
	return !at.Before(s.StartDate) && !at.After(s.EndDate)
}
