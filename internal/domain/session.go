package domain

import (
	"time"
)

type SessionState string

const (
	SessionStateOpen   SessionState = "Open"
	SessionStateClosed SessionState = "Closed"
)

// Session is one vehicle's stay in the garage. It is created open at entry
// and mutated exactly once, at exit.
type Session struct {
	ID                 string     `json:"id" gorm:"primaryKey"`
	SessionNumber      string     `json:"session_number" gorm:"uniqueIndex"`
	VehicleID          string     `json:"vehicle_id" gorm:"index"`
	OperatorID         *string    `json:"operator_id,omitempty"`
	ClosedByOperatorID *string    `json:"closed_by_operator_id,omitempty"`
	SubscriptionID     *string    `json:"subscription_id,omitempty"`
	TariffID           *string    `json:"tariff_id,omitempty"`
	EntryTime          time.Time  `json:"entry_time"`
	ExitTime           *time.Time `json:"exit_time,omitempty"`
	Amount             *float64   `json:"amount,omitempty"`
	ElapsedMinutes     *int       `json:"elapsed_minutes,omitempty"`
	ScanCode           string     `json:"scan_code"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (s *Session) IsOpen() bool {
	return s.ExitTime == nil
}

func (s *Session) State() SessionState {
	if s.IsOpen() {
		return SessionStateOpen
	}
	return SessionStateClosed
}

// Clone returns a deep copy so stored sessions are never aliased by callers.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.OperatorID = cloneString(s.OperatorID)
	c.ClosedByOperatorID = cloneString(s.ClosedByOperatorID)
	c.SubscriptionID = cloneString(s.SubscriptionID)
	c.TariffID = cloneString(s.TariffID)
	if s.ExitTime != nil {
		t := *s.ExitTime
		c.ExitTime = &t
	}
	if s.Amount != nil {
		a := *s.Amount
		c.Amount = &a
	}
	if s.ElapsedMinutes != nil {
		m := *s.ElapsedMinutes
		c.ElapsedMinutes = &m
	}
	return &c
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// SessionFilter narrows session listings by entry time. Nil bounds are open.
type SessionFilter struct {
	From *time.Time
	To   *time.Time
}

func (f SessionFilter) Matches(s *Session) bool {
	if f.From != nil && s.EntryTime.Before(*f.From) {
		return false
	}
	if f.To != nil && s.EntryTime.After(*f.To) {
		return false
	}
	return true
}
