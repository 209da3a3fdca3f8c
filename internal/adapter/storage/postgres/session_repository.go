package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/autospace/internal/domain"
	"github.com/seu-repo/autospace/internal/ports"
)

type SessionRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewSessionRepository(db *gorm.DB, log *zap.Logger) ports.SessionRepository {
	return &SessionRepository{
		db:  db,
		log: log,
	}
}

// Create relies on the partial unique index on open sessions per vehicle
// and the unique session number.
func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) error {
	defer observe("session.create", time.Now())
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return translate(err, "session "+s.SessionNumber)
	}
	return nil
}

func (r *SessionRepository) FindByID(ctx context.Context, id string) (*domain.Session, error) {
	defer observe("session.find_by_id", time.Now())
	return r.first(ctx, "id = ?", id)
}

func (r *SessionRepository) FindByNumber(ctx context.Context, number string) (*domain.Session, error) {
	defer observe("session.find_by_number", time.Now())
	return r.first(ctx, "session_number = ?", number)
}

func (r *SessionRepository) FindOpenByVehicle(ctx context.Context, vehicleID string) (*domain.Session, error) {
	defer observe("session.find_open_by_vehicle", time.Now())
	return r.first(ctx, "vehicle_id = ? AND exit_time IS NULL", vehicleID)
}

func (r *SessionRepository) first(ctx context.Context, query string, args ...interface{}) (*domain.Session, error) {
	var s domain.Session
	err := r.db.WithContext(ctx).Where(query, args...).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// Close writes the exit fields only while the row is still open.
func (r *SessionRepository) Close(ctx context.Context, s *domain.Session) error {
	defer observe("session.close", time.Now())
	if s.ExitTime == nil {
		return fmt.Errorf("%w: session %s has no exit time", domain.ErrInvalidArgument, s.ID)
	}

	res := r.db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ? AND exit_time IS NULL", s.ID).
		Updates(map[string]interface{}{
			"exit_time":             s.ExitTime,
			"elapsed_minutes":       s.ElapsedMinutes,
			"amount":                s.Amount,
			"closed_by_operator_id": s.ClosedByOperatorID,
			"updated_at":            s.UpdatedAt,
		})
	if res.Error != nil {
		return translate(res.Error, "session "+s.ID)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	existing, err := r.FindByID(ctx, s.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("%w: session %s", domain.ErrNotFound, s.ID)
	}
	r.log.Warn("Lost race closing session", zap.String("session_id", s.ID))
	return fmt.Errorf("%w: session %s is already closed", domain.ErrConflict, s.ID)
}

func (r *SessionRepository) ListOpen(ctx context.Context) ([]domain.Session, error) {
	defer observe("session.list_open", time.Now())
	var sessions []domain.Session
	err := r.db.WithContext(ctx).
		Where("exit_time IS NULL").
		Order("entry_time desc, id desc").
		Find(&sessions).Error
	return sessions, err
}

func (r *SessionRepository) List(ctx context.Context, filter domain.SessionFilter) ([]domain.Session, error) {
	defer observe("session.list", time.Now())
	var sessions []domain.Session
	query := r.db.WithContext(ctx)
	if filter.From != nil {
		query = query.Where("entry_time >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("entry_time <= ?", *filter.To)
	}
	err := query.Order("entry_time desc, id desc").Find(&sessions).Error
	return sessions, err
}
