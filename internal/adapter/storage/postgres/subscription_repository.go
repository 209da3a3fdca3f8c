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

type SubscriptionRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewSubscriptionRepository(db *gorm.DB, log *zap.Logger) ports.SubscriptionRepository {
	return &SubscriptionRepository{
		db:  db,
		log: log,
	}
}

func (r *SubscriptionRepository) Save(ctx context.Context, s *domain.Subscription) error {
	defer observe("subscription.save", time.Now())
	return translate(r.db.WithContext(ctx).Save(s).Error, "subscription "+s.ID)
}

func (r *SubscriptionRepository) FindByID(ctx context.Context, id string) (*domain.Subscription, error) {
	defer observe("subscription.find_by_id", time.Now())
	var s domain.Subscription
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SubscriptionRepository) FindActiveByVehicle(ctx context.Context, vehicleID string, at time.Time) ([]domain.Subscription, error) {
	defer observe("subscription.find_active", time.Now())
	var subs []domain.Subscription
	err := r.db.WithContext(ctx).
		Where("vehicle_id = ? AND status = ? AND start_date <= ? AND end_date >= ?",
			vehicleID, domain.SubscriptionStatusActive, at, at).
		Order("end_date desc, created_at desc, id desc").
		Find(&subs).Error
	return subs, err
}
