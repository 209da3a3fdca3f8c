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

type TariffRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewTariffRepository(db *gorm.DB, log *zap.Logger) ports.TariffRepository {
	return &TariffRepository{
		db:  db,
		log: log,
	}
}

// Save validates before writing so an unusable tariff never reaches storage.
func (r *TariffRepository) Save(ctx context.Context, t *domain.Tariff) error {
	defer observe("tariff.save", time.Now())
	if err := t.Validate(); err != nil {
		return err
	}
	return translate(r.db.WithContext(ctx).Save(t).Error, "tariff "+t.ID)
}

func (r *TariffRepository) FindByID(ctx context.Context, id string) (*domain.Tariff, error) {
	defer observe("tariff.find_by_id", time.Now())
	var t domain.Tariff
	err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *TariffRepository) FindActiveByVehicleType(ctx context.Context, vehicleType domain.VehicleType) ([]domain.Tariff, error) {
	defer observe("tariff.find_active", time.Now())
	var tariffs []domain.Tariff
	err := r.db.WithContext(ctx).
		Where("vehicle_type = ? AND is_active", vehicleType).
		Order("created_at desc, id desc").
		Find(&tariffs).Error
	return tariffs, err
}
