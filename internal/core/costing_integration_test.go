package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"fleet-costing/internal/core"

	"github.com/shopspring/decimal"
)

func TestCostingService_EndToEnd(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	stations := core.NewTollStationService(pool)
	resolver := core.NewRateResolver(pool, nil)
	routes := core.NewRouteService(pool, resolver)
	profiles := core.NewCostProfileService(pool)
	costing := core.NewRouteCostingService(routes, profiles, resolver)

	route, err := routes.CreateRoute(ctx, "Cairo", "Alexandria", decimal.RequireFromString("100"), nil)
	if err != nil {
		t.Fatalf("failed to create route: %v", err)
	}
	station, err := stations.CreateStation(ctx, "Cairo Gate", "Cairo", nil)
	if err != nil {
		t.Fatalf("failed to create station: %v", err)
	}
	if _, err := stations.CreateRate(ctx, core.RateInput{
		StationID:   station.ID,
		VehicleType: core.VehicleFlatbed,
		Amount:      decimal.RequireFromString("20"),
		Currency:    "EGP",
	}); err != nil {
		t.Fatalf("failed to create rate: %v", err)
	}
	if _, err := routes.AddStation(ctx, route.ID, station.ID, 1); err != nil {
		t.Fatalf("failed to add station: %v", err)
	}

	perKm := decimal.RequireFromString("0.5")
	overhead := decimal.RequireFromString("10")
	profile, err := profiles.CreateProfile(ctx, core.ProfileInput{
		Name:        "Flatbed Standard",
		VehicleType: core.VehicleFlatbed,
		Currency:    "EGP",
		Config: core.CostProfileConfig{
			Fuel:            &core.FuelConfig{CostPerKm: &perKm},
			OverheadPerTrip: &overhead,
		},
	})
	if err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}

	asOf := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	result, err := costing.CalculateCosting(ctx, core.CostingRequest{
		RouteID:       route.ID,
		VehicleType:   core.VehicleFlatbed,
		CostProfileID: profile.ID,
		TonsPerTrip:   decimal.RequireFromString("10"),
	}, asOf)
	if err != nil {
		t.Fatalf("CalculateCosting failed: %v", err)
	}

	if !result.Components.FuelCost.Equal(decimal.RequireFromString("50")) {
		t.Errorf("fuel cost = %s, want 50", result.Components.FuelCost)
	}
	if !result.TollPerTrip.Equal(decimal.RequireFromString("20")) {
		t.Errorf("toll per trip = %s, want 20", result.TollPerTrip)
	}
	if !result.TotalCostPerTrip.Equal(decimal.RequireFromString("80")) {
		t.Errorf("total cost per trip = %s, want 80", result.TotalCostPerTrip)
	}
	if !result.CostPerTonPerKm.Equal(decimal.RequireFromString("0.08")) {
		t.Errorf("cost per ton per km = %s, want 0.08", result.CostPerTonPerKm)
	}
	if result.Currency != "EGP" {
		t.Errorf("currency = %s, want EGP", result.Currency)
	}
	if len(result.Tolls) != 1 || result.Tolls[0].StationID != station.ID {
		t.Errorf("tolls = %+v, want the single station toll", result.Tolls)
	}

	// Profile vehicle type must match the requested one.
	tipperProfile, err := profiles.CreateProfile(ctx, core.ProfileInput{
		Name:        "Tipper Standard",
		VehicleType: core.VehicleTipper,
		Currency:    "EGP",
		Config: core.CostProfileConfig{
			Fuel: &core.FuelConfig{CostPerKm: &perKm},
		},
	})
	if err != nil {
		t.Fatalf("failed to create tipper profile: %v", err)
	}
	_, err = costing.CalculateCosting(ctx, core.CostingRequest{
		RouteID:       route.ID,
		VehicleType:   core.VehicleFlatbed,
		CostProfileID: tipperProfile.ID,
		TonsPerTrip:   decimal.RequireFromString("10"),
	}, asOf)
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("vehicle type mismatch: err = %v, want ErrInvalidInput", err)
	}
}

func TestCostingService_RateChangeOverTime(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	stations := core.NewTollStationService(pool)
	resolver := core.NewRateResolver(pool, nil)
	routes := core.NewRouteService(pool, resolver)
	profiles := core.NewCostProfileService(pool)
	costing := core.NewRouteCostingService(routes, profiles, resolver)

	route, err := routes.CreateRoute(ctx, "Cairo", "Suez", decimal.RequireFromString("130"), nil)
	if err != nil {
		t.Fatalf("failed to create route: %v", err)
	}
	station, err := stations.CreateStation(ctx, "Suez Gate", "Suez", nil)
	if err != nil {
		t.Fatalf("failed to create station: %v", err)
	}
	if _, err := routes.AddStation(ctx, route.ID, station.ID, 1); err != nil {
		t.Fatalf("failed to add station: %v", err)
	}

	// Two adjacent windows: 40 through June, 55 from July.
	if _, err := stations.CreateRate(ctx, core.RateInput{
		StationID:   station.ID,
		VehicleType: core.VehicleTipper,
		Amount:      decimal.RequireFromString("40"),
		Currency:    "EGP",
		EffectiveTo: mustParseDay(t, "2025-06-30"),
	}); err != nil {
		t.Fatalf("failed to create first rate: %v", err)
	}
	if _, err := stations.CreateRate(ctx, core.RateInput{
		StationID:     station.ID,
		VehicleType:   core.VehicleTipper,
		Amount:        decimal.RequireFromString("55"),
		Currency:      "EGP",
		EffectiveFrom: mustParseDay(t, "2025-07-01"),
	}); err != nil {
		t.Fatalf("failed to create second rate: %v", err)
	}

	perKm := decimal.RequireFromString("1")
	profile, err := profiles.CreateProfile(ctx, core.ProfileInput{
		Name:        "Tipper Standard",
		VehicleType: core.VehicleTipper,
		Currency:    "EGP",
		Config: core.CostProfileConfig{
			Fuel: &core.FuelConfig{CostPerKm: &perKm},
		},
	})
	if err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}

	req := core.CostingRequest{
		RouteID:       route.ID,
		VehicleType:   core.VehicleTipper,
		CostProfileID: profile.ID,
		TonsPerTrip:   decimal.RequireFromString("20"),
	}

	june, err := costing.CalculateCosting(ctx, req, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("june costing failed: %v", err)
	}
	if !june.TollPerTrip.Equal(decimal.RequireFromString("40")) {
		t.Errorf("june toll = %s, want 40", june.TollPerTrip)
	}

	july, err := costing.CalculateCosting(ctx, req, time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("july costing failed: %v", err)
	}
	if !july.TollPerTrip.Equal(decimal.RequireFromString("55")) {
		t.Errorf("july toll = %s, want 55", july.TollPerTrip)
	}
}
