package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/seu-repo/autospace/internal/domain"
	"github.com/seu-repo/autospace/internal/ports"
)

type VehicleRepository struct{ s *Store }

func NewVehicleRepository(s *Store) ports.VehicleRepository { return &VehicleRepository{s: s} }

func (r *VehicleRepository) Save(ctx context.Context, v *domain.Vehicle) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, other := range r.s.vehicles {
		if id != v.ID && strings.EqualFold(other.Plate, v.Plate) {
			return fmt.Errorf("%w: plate %s is already registered", domain.ErrConflict, v.Plate)
		}
	}
	r.s.vehicles[v.ID] = *v
	return nil
}

func (r *VehicleRepository) FindByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	v, ok := r.s.vehicles[id]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (r *VehicleRepository) FindByPlate(ctx context.Context, plate string) (*domain.Vehicle, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, v := range r.s.vehicles {
		if strings.EqualFold(v.Plate, plate) {
			found := v
			return &found, nil
		}
	}
	return nil, nil
}

type TariffRepository struct{ s *Store }

func NewTariffRepository(s *Store) ports.TariffRepository { return &TariffRepository{s: s} }

func (r *TariffRepository) Save(ctx context.Context, t *domain.Tariff) error {
	if err := t.Validate(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.tariffs[t.ID] = *t
	return nil
}

func (r *TariffRepository) FindByID(ctx context.Context, id string) (*domain.Tariff, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tariffs[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *TariffRepository) FindActiveByVehicleType(ctx context.Context, vehicleType domain.VehicleType) ([]domain.Tariff, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.Tariff
	for _, t := range r.s.tariffs {
		if t.IsActive && t.VehicleType == vehicleType {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

type SubscriptionRepository struct{ s *Store }

func NewSubscriptionRepository(s *Store) ports.SubscriptionRepository {
	return &SubscriptionRepository{s: s}
}

func (r *SubscriptionRepository) Save(ctx context.Context, sub *domain.Subscription) error {
	if sub.EndDate.Before(sub.StartDate) {
		return fmt.Errorf("%w: subscription ends before it starts", domain.ErrInvalidArgument)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.subscriptions[sub.ID] = *sub
	return nil
}

func (r *SubscriptionRepository) FindByID(ctx context.Context, id string) (*domain.Subscription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sub, ok := r.s.subscriptions[id]
	if !ok {
		return nil, nil
	}
	return &sub, nil
}

func (r *SubscriptionRepository) FindActiveByVehicle(ctx context.Context, vehicleID string, at time.Time) ([]domain.Subscription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.Subscription
	for _, sub := range r.s.subscriptions {
		if sub.VehicleID == vehicleID && sub.Covers(at) {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].EndDate.After(out[j].EndDate)
	})
	return out, nil
}

type SessionRepository struct{ s *Store }

func NewSessionRepository(s *Store) ports.SessionRepository { return &SessionRepository{s: s} }

func (r *SessionRepository) Create(ctx context.Context, sess *domain.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.sessions[sess.ID]; ok {
		return fmt.Errorf("%w: session %s already exists", domain.ErrConflict, sess.ID)
	}
	for _, other := range r.s.sessions {
		if other.SessionNumber == sess.SessionNumber {
			return fmt.Errorf("%w: session number %s is taken", domain.ErrConflict, sess.SessionNumber)
		}
		if other.VehicleID == sess.VehicleID && other.IsOpen() {
			return fmt.Errorf("%w: vehicle %s already has an open session", domain.ErrConflict, sess.VehicleID)
		}
	}
	r.s.sessions[sess.ID] = sess.Clone()
	return nil
}

func (r *SessionRepository) FindByID(ctx context.Context, id string) (*domain.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.sessions[id].Clone(), nil
}

func (r *SessionRepository) FindByNumber(ctx context.Context, number string) (*domain.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, sess := range r.s.sessions {
		if sess.SessionNumber == number {
			return sess.Clone(), nil
		}
	}
	return nil, nil
}

func (r *SessionRepository) FindOpenByVehicle(ctx context.Context, vehicleID string) (*domain.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, sess := range r.s.sessions {
		if sess.VehicleID == vehicleID && sess.IsOpen() {
			return sess.Clone(), nil
		}
	}
	return nil, nil
}

func (r *SessionRepository) Close(ctx context.Context, sess *domain.Session) error {
	if sess.ExitTime == nil {
		return fmt.Errorf("%w: session %s has no exit time", domain.ErrInvalidArgument, sess.ID)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.sessions[sess.ID]
	if !ok {
		return fmt.Errorf("%w: session %s", domain.ErrNotFound, sess.ID)
	}
	if !stored.IsOpen() {
		return fmt.Errorf("%w: session %s is already closed", domain.ErrConflict, sess.ID)
	}
	updated := stored.Clone()
	c := sess.Clone()
	updated.ExitTime = c.ExitTime
	updated.ElapsedMinutes = c.ElapsedMinutes
	updated.Amount = c.Amount
	updated.ClosedByOperatorID = c.ClosedByOperatorID
	updated.UpdatedAt = c.UpdatedAt
	r.s.sessions[sess.ID] = updated
	return nil
}

func (r *SessionRepository) ListOpen(ctx context.Context) ([]domain.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.Session{}
	for _, sess := range r.s.sessions {
		if sess.IsOpen() {
			out = append(out, *sess.Clone())
		}
	}
	return out, nil
}

func (r *SessionRepository) List(ctx context.Context, filter domain.SessionFilter) ([]domain.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.Session{}
	for _, sess := range r.s.sessions {
		if filter.Matches(sess) {
			out = append(out, *sess.Clone())
		}
	}
	return out, nil
}

type OperatorRepository struct{ s *Store }

func NewOperatorRepository(s *Store) ports.OperatorRepository { return &OperatorRepository{s: s} }

func (r *OperatorRepository) Save(ctx context.Context, op *domain.Operator) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, other := range r.s.operators {
		if id != op.ID && strings.EqualFold(other.Email, op.Email) {
			return fmt.Errorf("%w: email %s is already registered", domain.ErrConflict, op.Email)
		}
	}
	r.s.operators[op.ID] = *op
	return nil
}

func (r *OperatorRepository) FindByID(ctx context.Context, id string) (*domain.Operator, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	op, ok := r.s.operators[id]
	if !ok {
		return nil, nil
	}
	return &op, nil
}

func (r *OperatorRepository) FindByEmail(ctx context.Context, email string) (*domain.Operator, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, op := range r.s.operators {
		if strings.EqualFold(op.Email, email) {
			found := op
			return &found, nil
		}
	}
	return nil, nil
}
