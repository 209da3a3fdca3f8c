package postgres

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/autospace/internal/domain"
	"github.com/seu-repo/autospace/internal/ports"
)

type VehicleRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewVehicleRepository(db *gorm.DB, log *zap.Logger) ports.VehicleRepository {
	return &VehicleRepository{
		db:  db,
		log: log,
	}
}

func (r *VehicleRepository) Save(ctx context.Context, v *domain.Vehicle) error {
	defer observe("vehicle.save", time.Now())
	result := r.db.WithContext(ctx).Save(v)
	if result.Error != nil {
		r.log.Error("Failed to save vehicle", zap.String("vehicle_id", v.ID), zap.Error(result.Error))
		return translate(result.Error, "vehicle "+v.Plate)
	}
	return nil
}

func (r *VehicleRepository) FindByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	defer observe("vehicle.find_by_id", time.Now())
	var v domain.Vehicle
	err := r.db.WithContext(ctx).First(&v, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

func (r *VehicleRepository) FindByPlate(ctx context.Context, plate string) (*domain.Vehicle, error) {
	defer observe("vehicle.find_by_plate", time.Now())
	var v domain.Vehicle
	err := r.db.WithContext(ctx).First(&v, "UPPER(plate) = UPPER(?)", plate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}
