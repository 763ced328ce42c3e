package core_test

import (
	"context"
	"testing"

	"fleet-costing/internal/core"

	"github.com/shopspring/decimal"
)

func TestReconciliationService_StationVariance(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	stations := core.NewTollStationService(pool)
	resolver := core.NewRateResolver(pool, nil)
	routes := core.NewRouteService(pool, resolver)
	payments := core.NewTollPaymentService(pool)
	recon := core.NewReconciliationService(pool, resolver)

	route, err := routes.CreateRoute(ctx, "Cairo", "Alexandria", decimal.RequireFromString("220"), nil)
	if err != nil {
		t.Fatalf("failed to create route: %v", err)
	}
	station, err := stations.CreateStation(ctx, "Wadi Natrun Gate", "", nil)
	if err != nil {
		t.Fatalf("failed to create station: %v", err)
	}
	if _, err := stations.CreateRate(ctx, core.RateInput{
		StationID:   station.ID,
		VehicleType: core.VehicleFlatbed,
		Amount:      decimal.RequireFromString("45"),
		Currency:    "EGP",
	}); err != nil {
		t.Fatalf("failed to create rate: %v", err)
	}
	if _, err := routes.AddStation(ctx, route.ID, station.ID, 1); err != nil {
		t.Fatalf("failed to add station: %v", err)
	}

	// One posted payment of 50 against an expected rate of 45.
	p, err := payments.CreatePayment(ctx, core.PaymentInput{
		PaidOn:      "2025-03-10",
		VehicleType: core.VehicleFlatbed,
		RouteID:     &route.ID,
		StationID:   &station.ID,
		Amount:      decimal.RequireFromString("50"),
		Currency:    "EGP",
	})
	if err != nil {
		t.Fatalf("failed to create payment: %v", err)
	}
	if _, err := payments.PostPayment(ctx, p.ID); err != nil {
		t.Fatalf("failed to post payment: %v", err)
	}

	// A draft in the same window must not count as actual.
	if _, err := payments.CreatePayment(ctx, core.PaymentInput{
		PaidOn:      "2025-03-11",
		VehicleType: core.VehicleFlatbed,
		RouteID:     &route.ID,
		StationID:   &station.ID,
		Amount:      decimal.RequireFromString("999"),
		Currency:    "EGP",
	}); err != nil {
		t.Fatalf("failed to create draft payment: %v", err)
	}

	vt := core.VehicleFlatbed
	report, err := recon.Reconcile(ctx, "2025-03-01", "2025-03-31", &route.ID, &vt)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	if !report.ExpectedTotal.Equal(decimal.RequireFromString("45")) {
		t.Errorf("expected total = %s, want 45", report.ExpectedTotal)
	}
	if !report.ActualTotal.Equal(decimal.RequireFromString("50")) {
		t.Errorf("actual total = %s, want 50", report.ActualTotal)
	}
	if !report.Variance.Equal(decimal.RequireFromString("5")) {
		t.Errorf("variance = %s, want 5", report.Variance)
	}

	if len(report.Stations) != 1 {
		t.Fatalf("report has %d station lines, want 1", len(report.Stations))
	}
	line := report.Stations[0]
	if line.StationID != station.ID {
		t.Errorf("station line id = %d, want %d", line.StationID, station.ID)
	}
	if !line.Expected.Equal(decimal.RequireFromString("45")) ||
		!line.Actual.Equal(decimal.RequireFromString("50")) ||
		!line.Variance.Equal(decimal.RequireFromString("5")) {
		t.Errorf("station line = expected %s / actual %s / variance %s, want 45 / 50 / 5",
			line.Expected, line.Actual, line.Variance)
	}
}

func TestReconciliationService_StationlessAndUnexpected(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	stations := core.NewTollStationService(pool)
	resolver := core.NewRateResolver(pool, nil)
	payments := core.NewTollPaymentService(pool)
	recon := core.NewReconciliationService(pool, resolver)

	// A station that is on no route: payments against it are unexpected.
	offRoute, err := stations.CreateStation(ctx, "Detour Gate", "", nil)
	if err != nil {
		t.Fatalf("failed to create station: %v", err)
	}

	post := func(in core.PaymentInput) {
		t.Helper()
		p, err := payments.CreatePayment(ctx, in)
		if err != nil {
			t.Fatalf("failed to create payment: %v", err)
		}
		if _, err := payments.PostPayment(ctx, p.ID); err != nil {
			t.Fatalf("failed to post payment: %v", err)
		}
	}

	post(core.PaymentInput{
		PaidOn:      "2025-05-02",
		VehicleType: core.VehicleFlatbed,
		StationID:   &offRoute.ID,
		Amount:      decimal.RequireFromString("25"),
		Currency:    "EGP",
	})
	post(core.PaymentInput{
		PaidOn:      "2025-05-03",
		VehicleType: core.VehicleFlatbed,
		Amount:      decimal.RequireFromString("15"),
		Currency:    "EGP",
	})

	report, err := recon.Reconcile(ctx, "2025-05-01", "2025-05-31", nil, nil)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	if !report.ExpectedTotal.IsZero() {
		t.Errorf("expected total = %s, want 0", report.ExpectedTotal)
	}
	if !report.ActualTotal.Equal(decimal.RequireFromString("40")) {
		t.Errorf("actual total = %s, want 40", report.ActualTotal)
	}
	if !report.StationlessTotal.Equal(decimal.RequireFromString("15")) {
		t.Errorf("stationless total = %s, want 15", report.StationlessTotal)
	}

	// The off-route station still gets a line: zero expected, 25 actual.
	if len(report.Stations) != 1 {
		t.Fatalf("report has %d station lines, want 1", len(report.Stations))
	}
	line := report.Stations[0]
	if line.StationID != offRoute.ID || !line.Expected.IsZero() || !line.Actual.Equal(decimal.RequireFromString("25")) {
		t.Errorf("station line = %+v, want expected 0 / actual 25 for station %d", line, offRoute.ID)
	}
}
