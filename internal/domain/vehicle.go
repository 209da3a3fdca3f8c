package domain

import "time"

type VehicleType string

const (
	VehicleTypeCar        VehicleType = "Car"
	VehicleTypeMotorcycle VehicleType = "Motorcycle"
	VehicleTypeTruck      VehicleType = "Truck"
)

type Vehicle struct {
	ID        string      `json:"id" gorm:"primaryKey"`
	Plate     string      `json:"plate" gorm:"uniqueIndex"`
	Type      VehicleType `json:"type" gorm:"index"`
	UserID    string      `json:"user_id" gorm:"index"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
