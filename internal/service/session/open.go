package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/seu-repo/autospace/internal/domain"
	"github.com/seu-repo/autospace/internal/infrastructure/circuitbreaker"
	"github.com/seu-repo/autospace/internal/observability/telemetry"
	"github.com/seu-repo/autospace/internal/ports"
)

const maxSessionNumberLen = 64

// OpenSession registers the entry of a vehicle. At most one session per
// vehicle can be open; a concurrent or repeated entry fails with ErrConflict.
func (s *Service) OpenSession(ctx context.Context, req ports.OpenSessionRequest) (sess *domain.Session, err error) {
	ctx, cancel, span := s.begin(ctx, "OpenSession")
	defer cancel()
	defer func() { s.finish(span, "open", err) }()
	span.SetAttributes(attribute.String("vehicle_id", req.VehicleID))

	if strings.TrimSpace(req.VehicleID) == "" {
		return nil, fmt.Errorf("%w: vehicle id is required", domain.ErrInvalidArgument)
	}
	if err := validateOpen(req); err != nil {
		return nil, err
	}

	vehicle, err := circuitbreaker.Do(ctx, s.guard, "find vehicle", func(ctx context.Context) (*domain.Vehicle, error) {
		return s.vehicles.FindByID(ctx, req.VehicleID)
	})
	if err != nil {
		return nil, err
	}
	if vehicle == nil {
		return nil, fmt.Errorf("%w: vehicle %s", domain.ErrNotFound, req.VehicleID)
	}

	return s.open(ctx, vehicle, req)
}

// OpenSessionByPlate resolves the vehicle from its plate and opens a session.
func (s *Service) OpenSessionByPlate(ctx context.Context, plate string, req ports.OpenSessionRequest) (sess *domain.Session, err error) {
	ctx, cancel, span := s.begin(ctx, "OpenSessionByPlate")
	defer cancel()
	defer func() { s.finish(span, "open_by_plate", err) }()

	plate = NormalizePlate(plate)
	if plate == "" {
		return nil, fmt.Errorf("%w: plate is required", domain.ErrInvalidArgument)
	}
	if err := validateOpen(req); err != nil {
		return nil, err
	}

	vehicle, err := circuitbreaker.Do(ctx, s.guard, "find vehicle by plate", func(ctx context.Context) (*domain.Vehicle, error) {
		return s.vehicles.FindByPlate(ctx, plate)
	})
	if err != nil {
		return nil, err
	}
	if vehicle == nil {
		return nil, fmt.Errorf("%w: vehicle with plate %s", domain.ErrNotFound, plate)
	}
	span.SetAttributes(attribute.String("vehicle_id", vehicle.ID))

	req.VehicleID = vehicle.ID
	return s.open(ctx, vehicle, req)
}

// NormalizePlate uppercases a plate and strips separators.
func NormalizePlate(plate string) string {
	plate = strings.ToUpper(strings.TrimSpace(plate))
	return strings.NewReplacer("-", "", " ", "").Replace(plate)
}

func validateOpen(req ports.OpenSessionRequest) error {
	if req.Now.IsZero() {
		return fmt.Errorf("%w: entry time is required", domain.ErrInvalidArgument)
	}
	if len(req.SessionNumber) > maxSessionNumberLen {
		return fmt.Errorf("%w: session number longer than %d characters", domain.ErrInvalidArgument, maxSessionNumberLen)
	}
	if req.OperatorID != nil && strings.TrimSpace(*req.OperatorID) == "" {
		return fmt.Errorf("%w: operator id is empty", domain.ErrInvalidArgument)
	}
	return nil
}

func (s *Service) open(ctx context.Context, vehicle *domain.Vehicle, req ports.OpenSessionRequest) (*domain.Session, error) {
	release, err := s.locker.Acquire(ctx, "vehicle:"+vehicle.ID)
	if err != nil {
		return nil, domain.Unavailable("lock vehicle", err)
	}
	defer release()

	existing, err := circuitbreaker.Do(ctx, s.guard, "find open session", func(ctx context.Context) (*domain.Session, error) {
		return s.sessions.FindOpenByVehicle(ctx, vehicle.ID)
	})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: vehicle %s already has open session %s",
			domain.ErrConflict, vehicle.ID, existing.SessionNumber)
	}

	sub, err := s.rates.ResolveActiveSubscription(ctx, vehicle.ID, req.Now)
	if err != nil {
		return nil, err
	}

	tariff, err := s.rates.ResolveTariff(ctx, vehicle.Type)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: no active tariff for vehicle type %s", domain.ErrInvalidState, vehicle.Type)
	}
	if err != nil {
		return nil, err
	}
	if err := tariff.Validate(); err != nil {
		return nil, err
	}

	number := strings.TrimSpace(req.SessionNumber)
	if number == "" {
		number = s.numbers.Next()
	}

	tariffID := tariff.ID
	sess := &domain.Session{
		ID:            uuid.New().String(),
		SessionNumber: number,
		VehicleID:     vehicle.ID,
		TariffID:      &tariffID,
		EntryTime:     req.Now,
		ScanCode:      ScanCode(number, vehicle.Plate, req.Now),
		CreatedAt:     req.Now,
		UpdatedAt:     req.Now,
	}
	if req.OperatorID != nil {
		op := *req.OperatorID
		sess.OperatorID = &op
	}
	if sub != nil {
		subID := sub.ID
		sess.SubscriptionID = &subID
	}

	if err := s.guard.Run(ctx, "create session", func(ctx context.Context) error {
		return s.sessions.Create(ctx, sess)
	}); err != nil {
		return nil, err
	}

	telemetry.OpenSessions.Inc()
	telemetry.SessionsOpenedTotal.WithLabelValues(string(vehicle.Type)).Inc()
	s.publish(domain.EventSessionOpened, sess, req.Now)

	s.log.Info("Session opened",
		zap.String("session_id", sess.ID),
		zap.String("session_number", sess.SessionNumber),
		zap.String("vehicle_id", vehicle.ID),
		zap.String("tariff_id", tariffID),
		zap.Bool("subscription", sub != nil),
	)

	return sess, nil
}
