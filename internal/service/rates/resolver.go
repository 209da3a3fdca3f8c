package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/autospace/internal/domain"
	"github.com/seu-repo/autospace/internal/infrastructure/circuitbreaker"
	"github.com/seu-repo/autospace/internal/observability/telemetry"
	"github.com/seu-repo/autospace/internal/ports"
)

const tariffCachePrefix = "tariff:active:"

// Resolver decides which tariff and which subscription apply to a vehicle.
// Tariff resolutions may be cached; a cached tariff is re-read by ID before
// use, so deactivations apply at once. Subscriptions are always read fresh.
type Resolver struct {
	tariffs   ports.TariffRepository
	subs      ports.SubscriptionRepository
	cache     ports.Cache
	tariffTTL time.Duration
	guard     *circuitbreaker.Guard
	log       *zap.Logger
}

// NewResolver builds a Resolver. cache may be nil, and a zero tariffTTL
// disables caching.
func NewResolver(
	tariffs ports.TariffRepository,
	subs ports.SubscriptionRepository,
	cache ports.Cache,
	tariffTTL time.Duration,
	guard *circuitbreaker.Guard,
	log *zap.Logger,
) *Resolver {
	return &Resolver{
		tariffs:   tariffs,
		subs:      subs,
		cache:     cache,
		tariffTTL: tariffTTL,
		guard:     guard,
		log:       log,
	}
}

// ResolveTariff returns the active tariff for vehicleType, or ErrNotFound.
func (r *Resolver) ResolveTariff(ctx context.Context, vehicleType domain.VehicleType) (*domain.Tariff, error) {
	if vehicleType == "" {
		return nil, fmt.Errorf("%w: vehicle type is required", domain.ErrInvalidArgument)
	}

	if cached := r.cachedTariff(ctx, vehicleType); cached != nil {
		current, err := r.TariffByID(ctx, cached.ID)
		if err != nil {
			return nil, err
		}
		if current != nil && current.IsActive && current.VehicleType == vehicleType {
			return current, nil
		}
		telemetry.TariffCacheLookups.WithLabelValues("stale").Inc()
		r.InvalidateTariff(ctx, vehicleType)
	}

	candidates, err := circuitbreaker.Do(ctx, r.guard, "find active tariffs", func(ctx context.Context) ([]domain.Tariff, error) {
		return r.tariffs.FindActiveByVehicleType(ctx, vehicleType)
	})
	if err != nil {
		return nil, err
	}

	tariff := PickTariff(candidates, vehicleType)
	if tariff == nil {
		return nil, fmt.Errorf("%w: no active tariff for vehicle type %s", domain.ErrNotFound, vehicleType)
	}
	if len(candidates) > 1 {
		r.log.Warn("Several active tariffs for vehicle type, using most recent",
			zap.String("vehicle_type", string(vehicleType)),
			zap.Int("candidates", len(candidates)),
			zap.String("tariff_id", tariff.ID),
		)
	}

	r.storeTariff(ctx, tariff)
	return tariff, nil
}

// TariffByID loads a tariff captured on a session. It returns (nil, nil)
// when the tariff no longer exists.
func (r *Resolver) TariffByID(ctx context.Context, id string) (*domain.Tariff, error) {
	return circuitbreaker.Do(ctx, r.guard, "find tariff", func(ctx context.Context) (*domain.Tariff, error) {
		return r.tariffs.FindByID(ctx, id)
	})
}

// SaveTariff writes t to the catalog and drops the cached resolutions it
// can affect, so the next entry sees the change.
func (r *Resolver) SaveTariff(ctx context.Context, t *domain.Tariff) error {
	if t == nil {
		return fmt.Errorf("%w: tariff is required", domain.ErrInvalidArgument)
	}
	previous, err := r.TariffByID(ctx, t.ID)
	if err != nil {
		return err
	}
	if err := r.guard.Retry(ctx, "save tariff", func(ctx context.Context) error {
		return r.tariffs.Save(ctx, t)
	}); err != nil {
		return err
	}

	r.InvalidateTariff(ctx, t.VehicleType)
	if previous != nil && previous.VehicleType != t.VehicleType {
		r.InvalidateTariff(ctx, previous.VehicleType)
	}
	r.log.Info("Tariff saved",
		zap.String("tariff_id", t.ID),
		zap.String("vehicle_type", string(t.VehicleType)),
		zap.Bool("is_active", t.IsActive),
	)
	return nil
}

// InvalidateTariff drops the cached resolution for vehicleType.
func (r *Resolver) InvalidateTariff(ctx context.Context, vehicleType domain.VehicleType) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, tariffCachePrefix+string(vehicleType)); err != nil {
		r.log.Warn("Failed to invalidate tariff cache", zap.String("vehicle_type", string(vehicleType)), zap.Error(err))
	}
}

// ResolveActiveSubscription returns the subscription covering vehicleID at
// the given instant, or (nil, nil) when there is none.
func (r *Resolver) ResolveActiveSubscription(ctx context.Context, vehicleID string, at time.Time) (*domain.Subscription, error) {
	candidates, err := circuitbreaker.Do(ctx, r.guard, "find active subscriptions", func(ctx context.Context) ([]domain.Subscription, error) {
		return r.subs.FindActiveByVehicle(ctx, vehicleID, at)
	})
	if err != nil {
		return nil, err
	}
	return PickSubscription(candidates, vehicleID, at), nil
}

// SubscriptionStillValid re-reads the subscription and checks it covers at.
func (r *Resolver) SubscriptionStillValid(ctx context.Context, subscriptionID string, at time.Time) (bool, error) {
	sub, err := circuitbreaker.Do(ctx, r.guard, "find subscription", func(ctx context.Context) (*domain.Subscription, error) {
		return r.subs.FindByID(ctx, subscriptionID)
	})
	if err != nil {
		return false, err
	}
	return sub.Covers(at), nil
}

func (r *Resolver) cachedTariff(ctx context.Context, vehicleType domain.VehicleType) *domain.Tariff {
	if r.cache == nil || r.tariffTTL <= 0 {
		return nil
	}
	raw, err := r.cache.Get(ctx, tariffCachePrefix+string(vehicleType))
	if err != nil {
		telemetry.TariffCacheLookups.WithLabelValues("error").Inc()
		r.log.Warn("Tariff cache read failed", zap.String("vehicle_type", string(vehicleType)), zap.Error(err))
		return nil
	}
	if raw == "" {
		telemetry.TariffCacheLookups.WithLabelValues("miss").Inc()
		return nil
	}
	var t domain.Tariff
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		telemetry.TariffCacheLookups.WithLabelValues("error").Inc()
		r.log.Warn("Discarding corrupt tariff cache entry", zap.String("vehicle_type", string(vehicleType)), zap.Error(err))
		return nil
	}
	telemetry.TariffCacheLookups.WithLabelValues("hit").Inc()
	return &t
}

func (r *Resolver) storeTariff(ctx context.Context, t *domain.Tariff) {
	if r.cache == nil || r.tariffTTL <= 0 {
		return
	}
	data, err := json.Marshal(t)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, tariffCachePrefix+string(t.VehicleType), string(data), r.tariffTTL); err != nil {
		r.log.Warn("Tariff cache write failed", zap.String("tariff_id", t.ID), zap.Error(err))
	}
}
