package domain

import "time"

const (
	EventSessionOpened = "parking.session.opened"
	EventSessionClosed = "parking.session.closed"
)

// SessionEvent is published after a session transition has been committed.
type SessionEvent struct {
	EventType      string     `json:"event_type"`
	SessionID      string     `json:"session_id"`
	SessionNumber  string     `json:"session_number"`
	VehicleID      string     `json:"vehicle_id"`
	OperatorID     string     `json:"operator_id,omitempty"`
	SubscriptionID string     `json:"subscription_id,omitempty"`
	EntryTime      time.Time  `json:"entry_time"`
	ExitTime       *time.Time `json:"exit_time,omitempty"`
	Amount         *float64   `json:"amount,omitempty"`
	ElapsedMinutes *int       `json:"elapsed_minutes,omitempty"`
	OccurredAt     time.Time  `json:"occurred_at"`
}

func NewSessionEvent(eventType string, s *Session, occurredAt time.Time) SessionEvent {
	ev := SessionEvent{
		EventType:      eventType,
		SessionID:      s.ID,
		SessionNumber:  s.SessionNumber,
		VehicleID:      s.VehicleID,
		EntryTime:      s.EntryTime,
		ExitTime:       s.ExitTime,
		Amount:         s.Amount,
		ElapsedMinutes: s.ElapsedMinutes,
		OccurredAt:     occurredAt,
	}
	switch {
	case eventType == EventSessionClosed && s.ClosedByOperatorID != nil:
		ev.OperatorID = *s.ClosedByOperatorID
	case s.OperatorID != nil:
		ev.OperatorID = *s.OperatorID
	}
	if s.SubscriptionID != nil {
		ev.SubscriptionID = *s.SubscriptionID
	}
	return ev
}
