package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seu-repo/autospace/internal/domain"
	"github.com/seu-repo/autospace/internal/service/auth"
	"github.com/seu-repo/autospace/internal/service/rates"
)

const (
	demoOperatorEmail = "operator@autospace.local"
	demoOperatorPIN   = "1234"
)

func price(v float64) *float64 { return &v }

// seedDemoData fills an in-memory store with one operator, a tariff per
// vehicle type and a couple of vehicles so the gate simulator has
// something to drive. Tariffs go through the catalog like any other write.
func seedDemoData(ctx context.Context, repos *repositories, catalog *rates.Resolver, logger *zap.Logger) error {
	now := time.Now().UTC()

	pinHash, err := auth.HashPIN(demoOperatorPIN)
	if err != nil {
		return err
	}
	operator := &domain.Operator{
		ID:        uuid.NewString(),
		FullName:  "Demo Operator",
		Email:     demoOperatorEmail,
		PinHash:   pinHash,
		Status:    domain.OperatorStatusActive,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repos.operators.Save(ctx, operator); err != nil {
		return err
	}

	tariffs := []domain.Tariff{
		{VehicleType: domain.VehicleTypeCar, HourPrice: 10, AddPrice: price(5), MaxPrice: price(50), GracePeriod: domain.GracePeriod(15 * time.Minute)},
		{VehicleType: domain.VehicleTypeMotorcycle, HourPrice: 5, MaxPrice: price(25), GracePeriod: domain.GracePeriod(15 * time.Minute)},
		{VehicleType: domain.VehicleTypeTruck, HourPrice: 20, AddPrice: price(15)},
	}
	for i := range tariffs {
		t := tariffs[i]
		t.ID = uuid.NewString()
		t.IsActive = true
		t.CreatedAt = now
		t.UpdatedAt = now
		if err := catalog.SaveTariff(ctx, &t); err != nil {
			return err
		}
	}

	for _, v := range []domain.Vehicle{
		{Plate: "ABC1D23", Type: domain.VehicleTypeCar},
		{Plate: "MOT0A12", Type: domain.VehicleTypeMotorcycle},
		{Plate: "TRK9Z88", Type: domain.VehicleTypeTruck},
	} {
		v.ID = uuid.NewString()
		v.CreatedAt = now
		v.UpdatedAt = now
		if err := repos.vehicles.Save(ctx, &v); err != nil {
			return err
		}
	}

	logger.Info("Seeded demo data",
		zap.String("operator_email", demoOperatorEmail),
		zap.Int("tariffs", len(tariffs)),
	)
	return nil
}
