package core

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// StationVariance is one line of a reconciliation report: expected tolls
// versus actually posted payments for a single station over the window.
type StationVariance struct {
	StationID   int             `json:"station_id"`
	StationName string          `json:"station_name"`
	Expected    decimal.Decimal `json:"expected"`
	Actual      decimal.Decimal `json:"actual"`
	Variance    decimal.Decimal `json:"variance"` // actual - expected
}

// ReconciliationReport compares the toll expense the rate book predicts
// against what was actually posted. ActualTotal includes payments with no
// station reference; those cannot appear in the per-station lines, so the
// station variances need not sum to the report totals.
type ReconciliationReport struct {
	StartDate        string            `json:"start_date"`
	EndDate          string            `json:"end_date"`
	RouteID          *int              `json:"route_id,omitempty"`
	VehicleType      *VehicleType      `json:"vehicle_type,omitempty"`
	ExpectedTotal    decimal.Decimal   `json:"expected_total"`
	ActualTotal      decimal.Decimal   `json:"actual_total"`
	Variance         decimal.Decimal   `json:"variance"` // actual - expected
	StationlessTotal decimal.Decimal   `json:"stationless_total"`
	Stations         []StationVariance `json:"stations"`
}

// ReconciliationService builds expected-versus-actual toll reports over a
// date window. Only POSTED payments count as actual; drafts and pending
// approvals are not yet facts.
type ReconciliationService interface {
	Reconcile(ctx context.Context, startDate, endDate string, routeID *int, vehicleType *VehicleType) (*ReconciliationReport, error)
}

type reconciliationService struct {
	pool     *pgxpool.Pool
	resolver RateResolver
}

// NewReconciliationService constructs a ReconciliationService over the pool
// and rate resolver.
func NewReconciliationService(pool *pgxpool.Pool, resolver RateResolver) ReconciliationService {
	return &reconciliationService{pool: pool, resolver: resolver}
}

func (s *reconciliationService) Reconcile(ctx context.Context, startDate, endDate string, routeID *int, vehicleType *VehicleType) (*ReconciliationReport, error) {
	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", startDate, ErrInvalidInput)
	}
	end, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", endDate, ErrInvalidInput)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("end date %s precedes start date %s: %w", endDate, startDate, ErrInvalidInput)
	}
	if vehicleType != nil && !vehicleType.Valid() {
		return nil, fmt.Errorf("unknown vehicle type %q: %w", *vehicleType, ErrInvalidInput)
	}

	report := &ReconciliationReport{
		StartDate:   startDate,
		EndDate:     endDate,
		RouteID:     routeID,
		VehicleType: vehicleType,
	}

	expected := map[int]decimal.Decimal{}
	names := map[int]string{}
	if err := s.collectExpected(ctx, start, end, routeID, vehicleType, expected, names); err != nil {
		return nil, err
	}

	actual := map[int]decimal.Decimal{}
	stationless, err := s.collectActual(ctx, startDate, endDate, routeID, vehicleType, actual, names)
	if err != nil {
		return nil, err
	}
	report.StationlessTotal = stationless

	ids := make([]int, 0, len(expected)+len(actual))
	seen := map[int]bool{}
	for id := range expected {
		ids = append(ids, id)
		seen[id] = true
	}
	for id := range actual {
		if !seen[id] {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)

	for _, id := range ids {
		exp := expected[id] // zero when the rate book predicts nothing
		act := actual[id]   // zero when nothing was posted
		report.Stations = append(report.Stations, StationVariance{
			StationID:   id,
			StationName: names[id],
			Expected:    exp,
			Actual:      act,
			Variance:    act.Sub(exp),
		})
		report.ExpectedTotal = report.ExpectedTotal.Add(exp)
		report.ActualTotal = report.ActualTotal.Add(act)
	}
	report.ActualTotal = report.ActualTotal.Add(stationless)
	report.Variance = report.ActualTotal.Sub(report.ExpectedTotal)
	return report, nil
}

// collectExpected walks every active station association on the routes in
// scope and accumulates the rate effective somewhere in the window. A
// station shared by two routes contributes once per route, matching one
// pass per route. Stations with no effective rate predict zero.
func (s *reconciliationService) collectExpected(ctx context.Context, start, end time.Time, routeID *int, vehicleType *VehicleType, expected map[int]decimal.Decimal, names map[int]string) error {
	q := `
		SELECT rts.station_id, ts.name
		FROM route_toll_stations rts
		JOIN routes r ON r.id = rts.route_id
		JOIN toll_stations ts ON ts.id = rts.station_id
		WHERE rts.is_active = true AND r.is_active = true AND ts.is_active = true
	`
	var args []any
	if routeID != nil {
		args = append(args, *routeID)
		q += fmt.Sprintf(" AND r.id = $%d", len(args))
	}
	q += " ORDER BY rts.route_id, rts.sort_order"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("failed to query route stations for reconciliation: %w", err)
	}
	defer rows.Close()

	type occurrence struct {
		stationID int
		name      string
	}
	var occurrences []occurrence
	for rows.Next() {
		var o occurrence
		if err := rows.Scan(&o.stationID, &o.name); err != nil {
			return fmt.Errorf("failed to scan route station: %w", err)
		}
		occurrences = append(occurrences, o)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	vehicleTypes := AllVehicleTypes
	if vehicleType != nil {
		vehicleTypes = []VehicleType{*vehicleType}
	}

	for _, o := range occurrences {
		names[o.stationID] = o.name
		for _, vt := range vehicleTypes {
			rate, err := s.resolver.EffectiveRateInWindow(ctx, o.stationID, vt, start, end)
			if err != nil {
				return err
			}
			if rate == nil {
				continue
			}
			expected[o.stationID] = expected[o.stationID].Add(rate.Amount)
		}
	}
	return nil
}

// collectActual sums POSTED payments in the window per station. Payments
// without a station reference are returned as a single stationless total.
func (s *reconciliationService) collectActual(ctx context.Context, startDate, endDate string, routeID *int, vehicleType *VehicleType, actual map[int]decimal.Decimal, names map[int]string) (decimal.Decimal, error) {
	q := `
		SELECT tp.station_id, COALESCE(ts.name, ''), SUM(tp.amount)
		FROM toll_payments tp
		LEFT JOIN toll_stations ts ON ts.id = tp.station_id
		WHERE tp.status = 'POSTED'
		  AND tp.paid_on >= $1::date
		  AND tp.paid_on <= $2::date
	`
	args := []any{startDate, endDate}
	if routeID != nil {
		args = append(args, *routeID)
		q += fmt.Sprintf(" AND tp.route_id = $%d", len(args))
	}
	if vehicleType != nil {
		args = append(args, string(*vehicleType))
		q += fmt.Sprintf(" AND tp.vehicle_type = $%d", len(args))
	}
	q += " GROUP BY tp.station_id, ts.name"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query posted payments for reconciliation: %w", err)
	}
	defer rows.Close()

	stationless := decimal.Zero
	for rows.Next() {
		var stationID *int
		var name string
		var sum decimal.Decimal
		if err := rows.Scan(&stationID, &name, &sum); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan payment sum: %w", err)
		}
		if stationID == nil {
			stationless = stationless.Add(sum)
			continue
		}
		actual[*stationID] = actual[*stationID].Add(sum)
		if name != "" {
			names[*stationID] = name
		}
	}
	return stationless, rows.Err()
}
