package domain

import "time"

type OperatorStatus string

const (
	OperatorStatusActive    OperatorStatus = "Active"
	OperatorStatusSuspended OperatorStatus = "Suspended"
)

// Operator is the garage employee who opens and closes sessions.
type Operator struct {
	ID        string         `json:"id" gorm:"primaryKey"`
	FullName  string         `json:"full_name"`
	Document  string         `json:"document,omitempty"`
	Email     string         `json:"email" gorm:"uniqueIndex"`
	PinHash   string         `json:"-"` // bcrypt hash of the operator PIN
	Status    OperatorStatus `json:"status"`
	IsActive  bool           `json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (o *Operator) CanOperate() bool {
	return o != nil && o.IsActive && o.Status == OperatorStatusActive
}
