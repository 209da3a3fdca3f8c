package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Tariff is the pricing configuration for one vehicle type.
type Tariff struct {
	ID          string      `json:"id" gorm:"primaryKey"`
	VehicleType VehicleType `json:"vehicle_type" gorm:"index"`
	HourPrice   float64     `json:"hour_price"`
	AddPrice    *float64    `json:"add_price,omitempty"` // nil bills extra hours at HourPrice
	MaxPrice    *float64    `json:"max_price,omitempty"` // nil means uncapped
	GracePeriod GracePeriod `json:"grace_period" gorm:"column:grace_minutes"`
	IsActive    bool        `json:"is_active"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// AdditionalHourPrice is the price of every chargeable hour after the first.
func (t *Tariff) AdditionalHourPrice() float64 {
	if t.AddPrice == nil {
		return t.HourPrice
	}
	return *t.AddPrice
}

// Validate checks that the tariff can price a session.
func (t *Tariff) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: tariff is missing", ErrInvalidState)
	}
	// A zero hour price is indistinguishable from an unset one.
	if !validPrice(t.HourPrice) || t.HourPrice == 0 {
		return fmt.Errorf("%w: tariff %s: hour price %v is unset or invalid", ErrInvalidState, t.ID, t.HourPrice)
	}
	if t.AddPrice != nil && !validPrice(*t.AddPrice) {
		return fmt.Errorf("%w: tariff %s: additional hour price %v", ErrInvalidState, t.ID, *t.AddPrice)
	}
	if t.MaxPrice != nil && !validPrice(*t.MaxPrice) {
		return fmt.Errorf("%w: tariff %s: max price %v", ErrInvalidState, t.ID, *t.MaxPrice)
	}
	if t.GracePeriod < 0 {
		return fmt.Errorf("%w: tariff %s: negative grace period", ErrInvalidState, t.ID)
	}
	return nil
}

func validPrice(v float64) bool {
	return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// GracePeriod is a typed duration stored as whole minutes.
type GracePeriod time.Duration

func (g GracePeriod) Duration() time.Duration { return time.Duration(g) }

func (g GracePeriod) Minutes() int64 { return int64(time.Duration(g) / time.Minute) }

func (g GracePeriod) String() string { return time.Duration(g).String() }

// ParseGracePeriod parses configuration input. A bare integer is minutes,
// anything else must be a Go duration ("45m", "1h30m"). Empty input is zero.
func ParseGracePeriod(s string) (GracePeriod, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	var d time.Duration
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		d = time.Duration(n) * time.Minute
	} else {
		d, err = time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("%w: grace period %q", ErrInvalidArgument, s)
		}
	}

	if d < 0 {
		return 0, fmt.Errorf("%w: grace period %q is negative", ErrInvalidArgument, s)
	}
	if d%time.Minute != 0 {
		return 0, fmt.Errorf("%w: grace period %q is not a whole number of minutes", ErrInvalidArgument, s)
	}
	return GracePeriod(d), nil
}

func (g GracePeriod) Value() (driver.Value, error) {
	return g.Minutes(), nil
}

func (g *GracePeriod) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*g = 0
		return nil
	case int64:
		*g = GracePeriod(time.Duration(v) * time.Minute)
		return nil
	case int32:
		*g = GracePeriod(time.Duration(v) * time.Minute)
		return nil
	case []byte:
		parsed, err := ParseGracePeriod(string(v))
		if err != nil {
			return err
		}
		*g = parsed
		return nil
	case string:
		parsed, err := ParseGracePeriod(v)
		if err != nil {
			return err
		}
		*g = parsed
		return nil
	default:
		return fmt.Errorf("grace period: unsupported column type %T", src)
	}
}

// MarshalJSON encodes whole minutes.
func (g GracePeriod) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Minutes())
}

// UnmarshalJSON accepts minutes as a number or any ParseGracePeriod string.
func (g *GracePeriod) UnmarshalJSON(data []byte) error {
	var minutes int64
	if err := json.Unmarshal(data, &minutes); err == nil {
		parsed, err := ParseGracePeriod(strconv.FormatInt(minutes, 10))
		if err != nil {
			return err
		}
		*g = parsed
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: grace period must be minutes or a duration string", ErrInvalidArgument)
	}
	parsed, err := ParseGracePeriod(s)
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}
