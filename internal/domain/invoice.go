package domain

import "time"

// Invoice is the itemized fee for a session at a given exit instant.
type Invoice struct {
	SessionID           string        `json:"session_id"`
	SessionNumber       string        `json:"session_number"`
	VehicleID           string        `json:"vehicle_id"`
	TariffID            string        `json:"tariff_id,omitempty"`
	SubscriptionID      string        `json:"subscription_id,omitempty"`
	EntryTime           time.Time     `json:"entry_time"`
	ExitTime            time.Time     `json:"exit_time"`
	Duration            time.Duration `json:"duration"`
	ElapsedMinutes      int           `json:"elapsed_minutes"`
	GraceMinutes        int64         `json:"grace_minutes"`
	ChargeableMinutes   int64         `json:"chargeable_minutes"`
	ChargeableHours     int64         `json:"chargeable_hours"`
	HourPrice           float64       `json:"hour_price"`
	AddPrice            float64       `json:"add_price"`
	MaxPrice            *float64      `json:"max_price,omitempty"`
	RawAmount           float64       `json:"raw_amount"`
	CapApplied          bool          `json:"cap_applied"`
	SubscriptionApplied bool          `json:"subscription_applied"`
	TotalAmount         float64       `json:"total_amount"`
	Currency            string        `json:"currency"`
	GeneratedAt         time.Time     `json:"generated_at"`
}
