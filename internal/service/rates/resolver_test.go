package rates

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/autospace/internal/domain"
	"github.com/seu-repo/autospace/internal/infrastructure/circuitbreaker"
	"github.com/seu-repo/autospace/internal/mocks"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func newTestGuard() *circuitbreaker.Guard {
	settings := circuitbreaker.DefaultSettings()
	settings.InitialInterval = time.Millisecond
	settings.MaxInterval = time.Millisecond
	return circuitbreaker.NewGuard("test", settings, zap.NewNop())
}

var base = time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

func TestPickTariff_MostRecentlyCreated(t *testing.T) {
	candidates := []domain.Tariff{
		{ID: "old", VehicleType: domain.VehicleTypeCar, IsActive: true, CreatedAt: base},
		{ID: "newest", VehicleType: domain.VehicleTypeCar, IsActive: true, CreatedAt: base.Add(48 * time.Hour)},
		{ID: "inactive", VehicleType: domain.VehicleTypeCar, IsActive: false, CreatedAt: base.Add(72 * time.Hour)},
		{ID: "moto", VehicleType: domain.VehicleTypeMotorcycle, IsActive: true, CreatedAt: base.Add(96 * time.Hour)},
		{ID: "middle", VehicleType: domain.VehicleTypeCar, IsActive: true, CreatedAt: base.Add(24 * time.Hour)},
	}

	got := PickTariff(candidates, domain.VehicleTypeCar)
	if got == nil || got.ID != "newest" {
		t.Fatalf("expected newest, got %+v", got)
	}

	// Input order must not matter.
	reversed := make([]domain.Tariff, len(candidates))
	for i := range candidates {
		reversed[len(candidates)-1-i] = candidates[i]
	}
	if again := PickTariff(reversed, domain.VehicleTypeCar); again.ID != "newest" {
		t.Errorf("expected newest regardless of order, got %s", again.ID)
	}
}

func TestPickTariff_TieBreaksOnID(t *testing.T) {
	candidates := []domain.Tariff{
		{ID: "b", VehicleType: domain.VehicleTypeCar, IsActive: true, CreatedAt: base},
		{ID: "c", VehicleType: domain.VehicleTypeCar, IsActive: true, CreatedAt: base},
		{ID: "a", VehicleType: domain.VehicleTypeCar, IsActive: true, CreatedAt: base},
	}
	if got := PickTariff(candidates, domain.VehicleTypeCar); got.ID != "c" {
		t.Errorf("expected c, got %s", got.ID)
	}
	if got := PickTariff(nil, domain.VehicleTypeCar); got != nil {
		t.Errorf("expected nil for no candidates, got %+v", got)
	}
}

func TestPickSubscription_LatestEndDate(t *testing.T) {
	at := base.Add(10 * 24 * time.Hour)
	candidates := []domain.Subscription{
		{ID: "short", VehicleID: "v1", Status: domain.SubscriptionStatusActive, StartDate: base, EndDate: base.Add(15 * 24 * time.Hour)},
		{ID: "long", VehicleID: "v1", Status: domain.SubscriptionStatusActive, StartDate: base, EndDate: base.Add(30 * 24 * time.Hour)},
		{ID: "cancelled", VehicleID: "v1", Status: domain.SubscriptionStatusCancelled, StartDate: base, EndDate: base.Add(60 * 24 * time.Hour)},
		{ID: "future", VehicleID: "v1", Status: domain.SubscriptionStatusActive, StartDate: at.Add(time.Hour), EndDate: base.Add(90 * 24 * time.Hour)},
		{ID: "other", VehicleID: "v2", Status: domain.SubscriptionStatusActive, StartDate: base, EndDate: base.Add(120 * 24 * time.Hour)},
	}

	got := PickSubscription(candidates, "v1", at)
	if got == nil || got.ID != "long" {
		t.Fatalf("expected long, got %+v", got)
	}
}

func TestPickSubscription_TieBreaks(t *testing.T) {
	end := base.Add(30 * 24 * time.Hour)
	candidates := []domain.Subscription{
		{ID: "z-old", VehicleID: "v1", Status: domain.SubscriptionStatusActive, StartDate: base, EndDate: end, CreatedAt: base},
		{ID: "a-new", VehicleID: "v1", Status: domain.SubscriptionStatusActive, StartDate: base, EndDate: end, CreatedAt: base.Add(time.Hour)},
		{ID: "b-new", VehicleID: "v1", Status: domain.SubscriptionStatusActive, StartDate: base, EndDate: end, CreatedAt: base.Add(time.Hour)},
	}
	if got := PickSubscription(candidates, "v1", base); got.ID != "b-new" {
		t.Errorf("expected b-new, got %s", got.ID)
	}
}

func TestResolveTariff_CachesResolution(t *testing.T) {
	// Arrange
	ctx := context.Background()
	calls := 0
	add := 2.5
	stored := domain.Tariff{
		ID: "t1", VehicleType: domain.VehicleTypeCar, HourPrice: 5, AddPrice: &add,
		GracePeriod: domain.GracePeriod(30 * time.Minute), IsActive: true, CreatedAt: base,
	}
	repo := &mocks.MockTariffRepository{
		FindActiveByVehicleTypeFunc: func(ctx context.Context, vt domain.VehicleType) ([]domain.Tariff, error) {
			calls++
			return []domain.Tariff{stored}, nil
		},
		FindByIDFunc: func(ctx context.Context, id string) (*domain.Tariff, error) {
			t := stored
			return &t, nil
		},
	}
	cache := mocks.NewMockCache()
	r := NewResolver(repo, &mocks.MockSubscriptionRepository{}, cache, time.Minute, newTestGuard(), newTestLogger())

	// Act
	first, err := r.ResolveTariff(ctx, domain.VehicleTypeCar)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	second, err := r.ResolveTariff(ctx, domain.VehicleTypeCar)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Assert
	if calls != 1 {
		t.Errorf("expected 1 repository call, got %d", calls)
	}
	if second.ID != first.ID || second.GracePeriod != first.GracePeriod || *second.AddPrice != 2.5 {
		t.Errorf("cached tariff differs: %+v vs %+v", second, first)
	}

	r.InvalidateTariff(ctx, domain.VehicleTypeCar)
	if _, err := r.ResolveTariff(ctx, domain.VehicleTypeCar); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected repository hit after invalidation, got %d calls", calls)
	}
}

func TestResolveTariff_DeactivatedCachedTariffIsDropped(t *testing.T) {
	// Arrange
	ctx := context.Background()
	tariffs := map[string]domain.Tariff{
		"old": {ID: "old", VehicleType: domain.VehicleTypeCar, HourPrice: 4, IsActive: true, CreatedAt: base},
		"new": {ID: "new", VehicleType: domain.VehicleTypeCar, HourPrice: 5, IsActive: true, CreatedAt: base.Add(time.Hour)},
	}
	repo := &mocks.MockTariffRepository{
		FindActiveByVehicleTypeFunc: func(ctx context.Context, vt domain.VehicleType) ([]domain.Tariff, error) {
			var out []domain.Tariff
			for _, t := range tariffs {
				if t.IsActive {
					out = append(out, t)
				}
			}
			return out, nil
		},
		FindByIDFunc: func(ctx context.Context, id string) (*domain.Tariff, error) {
			t, ok := tariffs[id]
			if !ok {
				return nil, nil
			}
			return &t, nil
		},
	}
	r := NewResolver(repo, &mocks.MockSubscriptionRepository{}, mocks.NewMockCache(), time.Minute, newTestGuard(), newTestLogger())
	if first, err := r.ResolveTariff(ctx, domain.VehicleTypeCar); err != nil || first.ID != "new" {
		t.Fatalf("expected tariff new, got %+v (%v)", first, err)
	}

	// Act
	deactivated := tariffs["new"]
	deactivated.IsActive = false
	tariffs["new"] = deactivated
	got, err := r.ResolveTariff(ctx, domain.VehicleTypeCar)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.ID != "old" {
		t.Errorf("expected tariff old, got %s", got.ID)
	}
}

func TestSaveTariff_InvalidatesCache(t *testing.T) {
	// Arrange
	ctx := context.Background()
	tariffs := map[string]domain.Tariff{
		"old": {ID: "old", VehicleType: domain.VehicleTypeCar, HourPrice: 4, IsActive: true, CreatedAt: base},
	}
	repo := &mocks.MockTariffRepository{
		SaveFunc: func(ctx context.Context, t *domain.Tariff) error {
			tariffs[t.ID] = *t
			return nil
		},
		FindActiveByVehicleTypeFunc: func(ctx context.Context, vt domain.VehicleType) ([]domain.Tariff, error) {
			var out []domain.Tariff
			for _, t := range tariffs {
				if t.IsActive && t.VehicleType == vt {
					out = append(out, t)
				}
			}
			return out, nil
		},
		FindByIDFunc: func(ctx context.Context, id string) (*domain.Tariff, error) {
			t, ok := tariffs[id]
			if !ok {
				return nil, nil
			}
			return &t, nil
		},
	}
	r := NewResolver(repo, &mocks.MockSubscriptionRepository{}, mocks.NewMockCache(), time.Minute, newTestGuard(), newTestLogger())
	if _, err := r.ResolveTariff(ctx, domain.VehicleTypeCar); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Act
	err := r.SaveTariff(ctx, &domain.Tariff{
		ID: "newer", VehicleType: domain.VehicleTypeCar, HourPrice: 6, IsActive: true, CreatedAt: base.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	got, err := r.ResolveTariff(ctx, domain.VehicleTypeCar)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.ID != "newer" {
		t.Errorf("expected tariff newer, got %s", got.ID)
	}
}

func TestSaveTariff_RejectsInvalidTariff(t *testing.T) {
	repo := &mocks.MockTariffRepository{
		SaveFunc: func(ctx context.Context, t *domain.Tariff) error { return t.Validate() },
	}
	r := NewResolver(repo, &mocks.MockSubscriptionRepository{}, mocks.NewMockCache(), time.Minute, newTestGuard(), newTestLogger())

	err := r.SaveTariff(context.Background(), &domain.Tariff{ID: "free", VehicleType: domain.VehicleTypeCar, IsActive: true})
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
}

func TestResolveTariff_CacheFailureFallsBackToRepository(t *testing.T) {
	repo := &mocks.MockTariffRepository{
		FindActiveByVehicleTypeFunc: func(ctx context.Context, vt domain.VehicleType) ([]domain.Tariff, error) {
			return []domain.Tariff{{ID: "t1", VehicleType: vt, HourPrice: 5, IsActive: true}}, nil
		},
	}
	cache := mocks.NewMockCache()
	cache.GetFunc = func(ctx context.Context, key string) (string, error) {
		return "", errors.New("redis down")
	}
	r := NewResolver(repo, &mocks.MockSubscriptionRepository{}, cache, time.Minute, newTestGuard(), newTestLogger())

	got, err := r.ResolveTariff(context.Background(), domain.VehicleTypeCar)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.ID != "t1" {
		t.Errorf("expected t1, got %s", got.ID)
	}
}

func TestResolveTariff_NotFound(t *testing.T) {
	r := NewResolver(&mocks.MockTariffRepository{}, &mocks.MockSubscriptionRepository{}, nil, 0, newTestGuard(), newTestLogger())

	_, err := r.ResolveTariff(context.Background(), domain.VehicleTypeTruck)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveTariff_RepositoryFailureIsUnavailable(t *testing.T) {
	repo := &mocks.MockTariffRepository{
		FindActiveByVehicleTypeFunc: func(ctx context.Context, vt domain.VehicleType) ([]domain.Tariff, error) {
			return nil, errors.New("connection reset")
		},
	}
	r := NewResolver(repo, &mocks.MockSubscriptionRepository{}, nil, 0, newTestGuard(), newTestLogger())

	_, err := r.ResolveTariff(context.Background(), domain.VehicleTypeCar)
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if !domain.IsRetryable(err) {
		t.Error("expected error to be retryable")
	}
}

func TestSubscriptionStillValid(t *testing.T) {
	sub := &domain.Subscription{
		ID: "s1", VehicleID: "v1", Status: domain.SubscriptionStatusActive,
		StartDate: base, EndDate: base.Add(24 * time.Hour),
	}
	subs := &mocks.MockSubscriptionRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*domain.Subscription, error) {
			if id == sub.ID {
				return sub, nil
			}
			return nil, nil
		},
	}
	r := NewResolver(&mocks.MockTariffRepository{}, subs, nil, 0, newTestGuard(), newTestLogger())
	ctx := context.Background()

	tests := []struct {
		name string
		id   string
		at   time.Time
		want bool
	}{
		{"inside window", "s1", base.Add(time.Hour), true},
		{"after end", "s1", base.Add(25 * time.Hour), false},
		{"missing subscription", "gone", base.Add(time.Hour), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.SubscriptionStillValid(ctx, tt.id, tt.at)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}

	sub.Status = domain.SubscriptionStatusCancelled
	if ok, _ := r.SubscriptionStillValid(ctx, "s1", base.Add(time.Hour)); ok {
		t.Error("cancelled subscription must not be valid")
	}
}

func TestResolveActiveSubscription(t *testing.T) {
	at := base.Add(time.Hour)
	subs := &mocks.MockSubscriptionRepository{
		FindActiveByVehicleFunc: func(ctx context.Context, vehicleID string, when time.Time) ([]domain.Subscription, error) {
			return []domain.Subscription{
				{ID: "s1", VehicleID: vehicleID, Status: domain.SubscriptionStatusActive, StartDate: base, EndDate: base.Add(24 * time.Hour)},
				{ID: "s2", VehicleID: vehicleID, Status: domain.SubscriptionStatusActive, StartDate: base, EndDate: base.Add(48 * time.Hour)},
			}, nil
		},
	}
	r := NewResolver(&mocks.MockTariffRepository{}, subs, nil, 0, newTestGuard(), newTestLogger())

	got, err := r.ResolveActiveSubscription(context.Background(), "v1", at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.ID != "s2" {
		t.Fatalf("expected s2, got %+v", got)
	}

	none, err := NewResolver(&mocks.MockTariffRepository{}, &mocks.MockSubscriptionRepository{}, nil, 0, newTestGuard(), newTestLogger()).
		ResolveActiveSubscription(context.Background(), "v1", at)
	if err != nil || none != nil {
		t.Errorf("expected (nil, nil), got (%+v, %v)", none, err)
	}
}
