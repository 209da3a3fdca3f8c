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

type OperatorRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewOperatorRepository(db *gorm.DB, log *zap.Logger) ports.OperatorRepository {
	return &OperatorRepository{
		db:  db,
		log: log,
	}
}

func (r *OperatorRepository) Save(ctx context.Context, op *domain.Operator) error {
	defer observe("operator.save", time.Now())
	return translate(r.db.WithContext(ctx).Save(op).Error, "operator "+op.Email)
}

func (r *OperatorRepository) FindByID(ctx context.Context, id string) (*domain.Operator, error) {
	defer observe("operator.find_by_id", time.Now())
	var op domain.Operator
	err := r.db.WithContext(ctx).First(&op, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &op, nil
}

func (r *OperatorRepository) FindByEmail(ctx context.Context, email string) (*domain.Operator, error) {
	defer observe("operator.find_by_email", time.Now())
	var op domain.Operator
	err := r.db.WithContext(ctx).First(&op, "LOWER(email) = LOWER(?)", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &op, nil
}
