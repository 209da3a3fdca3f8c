package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/seu-repo/autospace/internal/domain"
)

var entry = time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)

func openSession(id, number, vehicleID string, at time.Time) *domain.Session {
	return &domain.Session{ID: id, SessionNumber: number, VehicleID: vehicleID, EntryTime: at}
}

func TestSessionRepository_CreateEnforcesOneOpenPerVehicle(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(NewStore())

	if err := repo.Create(ctx, openSession("s1", "N-1", "v1", entry)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := repo.Create(ctx, openSession("s2", "N-2", "v1", entry)); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict for second open session, got %v", err)
	}
	if err := repo.Create(ctx, openSession("s3", "N-1", "v2", entry)); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate number, got %v", err)
	}
	if err := repo.Create(ctx, openSession("s4", "N-4", "v2", entry)); err != nil {
		t.Fatalf("other vehicle must be independent, got %v", err)
	}
}

func TestSessionRepository_CloseIsConditional(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(NewStore())
	if err := repo.Create(ctx, openSession("s1", "N-1", "v1", entry)); err != nil {
		t.Fatalf("create: %v", err)
	}

	exit := entry.Add(time.Hour)
	amount := 5.0
	minutes := 60
	op := "op-1"
	closed := &domain.Session{ID: "s1", ExitTime: &exit, Amount: &amount, ElapsedMinutes: &minutes, ClosedByOperatorID: &op}

	if err := repo.Close(ctx, closed); err != nil {
		t.Fatalf("expected first close to succeed, got %v", err)
	}
	if err := repo.Close(ctx, closed); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict on second close, got %v", err)
	}

	got, _ := repo.FindByID(ctx, "s1")
	if got.IsOpen() || *got.Amount != 5.0 || *got.ClosedByOperatorID != "op-1" {
		t.Errorf("unexpected stored session: %+v", got)
	}
	if got.SessionNumber != "N-1" {
		t.Errorf("close must not touch entry fields, got number %q", got.SessionNumber)
	}

	// Closing frees the vehicle for a new session.
	if err := repo.Create(ctx, openSession("s2", "N-2", "v1", exit)); err != nil {
		t.Errorf("expected new session after close, got %v", err)
	}

	missing := &domain.Session{ID: "nope", ExitTime: &exit}
	if err := repo.Close(ctx, missing); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(NewStore())
	sess := openSession("s1", "N-1", "v1", entry)
	if err := repo.Create(ctx, sess); err != nil {
		t.Fatalf("create: %v", err)
	}
	sess.SessionNumber = "mutated"

	got, _ := repo.FindByID(ctx, "s1")
	if got.SessionNumber != "N-1" {
		t.Errorf("store must not alias caller values, got %q", got.SessionNumber)
	}
}

func TestSessionRepository_ListFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(NewStore())
	for i, vid := range []string{"v1", "v2", "v3"} {
		at := entry.Add(time.Duration(i) * 24 * time.Hour)
		if err := repo.Create(ctx, openSession("s"+vid, "N-"+vid, vid, at)); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	from := entry.Add(24 * time.Hour)
	to := entry.Add(48 * time.Hour)
	list, err := repo.List(ctx, domain.SessionFilter{From: &from, To: &to})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("expected 2 sessions in inclusive window, got %d", len(list))
	}

	open, _ := repo.ListOpen(ctx)
	if len(open) != 3 {
		t.Errorf("expected 3 open sessions, got %d", len(open))
	}
}

func TestSubscriptionRepository_FindActiveByVehicle(t *testing.T) {
	ctx := context.Background()
	repo := NewSubscriptionRepository(NewStore())
	subs := []domain.Subscription{
		{ID: "a", VehicleID: "v1", Status: domain.SubscriptionStatusActive, StartDate: entry, EndDate: entry.Add(24 * time.Hour)},
		{ID: "b", VehicleID: "v1", Status: domain.SubscriptionStatusActive, StartDate: entry, EndDate: entry.Add(72 * time.Hour)},
		{ID: "c", VehicleID: "v1", Status: domain.SubscriptionStatusExpired, StartDate: entry, EndDate: entry.Add(96 * time.Hour)},
	}
	for i := range subs {
		if err := repo.Save(ctx, &subs[i]); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	got, err := repo.FindActiveByVehicle(ctx, "v1", entry.Add(time.Hour))
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 2 || got[0].ID != "b" {
		t.Errorf("expected [b a], got %+v", got)
	}
}

func TestVehicleRepository_FindByPlateIgnoresCase(t *testing.T) {
	ctx := context.Background()
	repo := NewVehicleRepository(NewStore())
	if err := repo.Save(ctx, &domain.Vehicle{ID: "v1", Plate: "ABC1D23", Type: domain.VehicleTypeCar}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Save(ctx, &domain.Vehicle{ID: "v2", Plate: "abc1d23"}); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected plate conflict, got %v", err)
	}
	v, _ := repo.FindByPlate(ctx, "abc1d23")
	if v == nil || v.ID != "v1" {
		t.Errorf("expected v1, got %+v", v)
	}
}
