package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// RouteService manages route master data and the ordered toll-station
// associations each route carries.
type RouteService interface {
	CreateRoute(ctx context.Context, originCity, destinationCity string, distanceKm decimal.Decimal, timeHours *decimal.Decimal) (*Route, error)
	GetRoute(ctx context.Context, id int) (*Route, error)
	ListRoutes(ctx context.Context, activeOnly bool) ([]Route, error)
	DeactivateRoute(ctx context.Context, id int) error
	// DeleteRoute removes a route no payment references; otherwise it
	// fails and the route should be deactivated.
	DeleteRoute(ctx context.Context, id int) error

	AddStation(ctx context.Context, routeID, stationID, sortOrder int) (*RouteStation, error)
	// RemoveStation soft-removes an association (is_active = false).
	RemoveStation(ctx context.Context, routeID, stationID int) error
	// ReplaceStations swaps the route's entire active station list for the
	// given ordered ids in one transaction, so a concurrent reader never
	// observes the route with zero active stations.
	ReplaceStations(ctx context.Context, routeID int, stationIDs []int) (*Route, error)

	// ExpectedTollTotal sums the effective rates of the route's active
	// stations for one vehicle type at the given instant. Stations without
	// an effective rate are skipped, not treated as zero-with-error.
	ExpectedTollTotal(ctx context.Context, routeID int, vehicleType VehicleType, asOf time.Time) (decimal.Decimal, []StationToll, error)
}

type routeService struct {
	pool     *pgxpool.Pool
	resolver RateResolver
}

// NewRouteService constructs a RouteService backed by the pool and the
// given rate resolver.
func NewRouteService(pool *pgxpool.Pool, resolver RateResolver) RouteService {
	return &routeService{pool: pool, resolver: resolver}
}

func (s *routeService) CreateRoute(ctx context.Context, originCity, destinationCity string, distanceKm decimal.Decimal, timeHours *decimal.Decimal) (*Route, error) {
	if originCity == "" || destinationCity == "" {
		return nil, fmt.Errorf("origin and destination cities are required: %w", ErrInvalidInput)
	}
	if !distanceKm.IsPositive() {
		return nil, fmt.Errorf("route distance must be > 0 km, got %s: %w", distanceKm, ErrInvalidInput)
	}

	var id int
	err := s.pool.QueryRow(ctx, `
		INSERT INTO routes (origin_city, destination_city, distance_km, time_hours)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, originCity, destinationCity, distanceKm, timeHours).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create route: %w", err)
	}
	return s.GetRoute(ctx, id)
}

func (s *routeService) GetRoute(ctx context.Context, id int) (*Route, error) {
	var r Route
	err := s.pool.QueryRow(ctx, `
		SELECT id, origin_city, destination_city, distance_km, time_hours, is_active, created_at
		FROM routes
		WHERE id = $1
	`, id).Scan(&r.ID, &r.OriginCity, &r.DestinationCity, &r.DistanceKm, &r.TimeHours, &r.IsActive, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("route %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch route %d: %w", id, err)
	}

	stations, err := s.fetchActiveStations(ctx, id)
	if err != nil {
		return nil, err
	}
	r.Stations = stations
	return &r, nil
}

func (s *routeService) fetchActiveStations(ctx context.Context, routeID int) ([]RouteStation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT rts.id, rts.route_id, rts.station_id, ts.name, rts.sort_order, rts.is_active
		FROM route_toll_stations rts
		JOIN toll_stations ts ON ts.id = rts.station_id
		WHERE rts.route_id = $1 AND rts.is_active = true AND ts.is_active = true
		ORDER BY rts.sort_order, rts.id
	`, routeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query route stations: %w", err)
	}
	defer rows.Close()

	var stations []RouteStation
	for rows.Next() {
		var rs RouteStation
		if err := rows.Scan(&rs.ID, &rs.RouteID, &rs.StationID, &rs.StationName, &rs.SortOrder, &rs.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan route station: %w", err)
		}
		stations = append(stations, rs)
	}
	return stations, rows.Err()
}

func (s *routeService) ListRoutes(ctx context.Context, activeOnly bool) ([]Route, error) {
	q := `
		SELECT id, origin_city, destination_city, distance_km, time_hours, is_active, created_at
		FROM routes
	`
	if activeOnly {
		q += " WHERE is_active = true"
	}
	q += " ORDER BY origin_city, destination_city, id"

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query routes: %w", err)
	}
	defer rows.Close()

	var routes []Route
	for rows.Next() {
		var r Route
		if err := rows.Scan(&r.ID, &r.OriginCity, &r.DestinationCity, &r.DistanceKm, &r.TimeHours, &r.IsActive, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan route: %w", err)
		}
		routes = append(routes, r)
	}
	return routes, rows.Err()
}

func (s *routeService) DeactivateRoute(ctx context.Context, id int) error {
	tag, err := s.pool.Exec(ctx, "UPDATE routes SET is_active = false WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to deactivate route %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("route %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *routeService) DeleteRoute(ctx context.Context, id int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM routes WHERE id = $1)", id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check route %d: %w", id, err)
	}
	if !exists {
		return fmt.Errorf("route %d: %w", id, ErrNotFound)
	}

	var payments int
	if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM toll_payments WHERE route_id = $1", id).Scan(&payments); err != nil {
		return fmt.Errorf("failed to check route payments: %w", err)
	}
	if payments > 0 {
		return fmt.Errorf("route %d has toll payments; deactivate it instead: %w", id, ErrInvalidInput)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM route_toll_stations WHERE route_id = $1", id); err != nil {
		return fmt.Errorf("failed to delete route stations: %w", err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM routes WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to delete route %d: %w", id, err)
	}
	return tx.Commit(ctx)
}

// --- Station associations ---

func (s *routeService) AddStation(ctx context.Context, routeID, stationID, sortOrder int) (*RouteStation, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockRoute(ctx, tx, routeID); err != nil {
		return nil, err
	}

	var stationName string
	err = tx.QueryRow(ctx, "SELECT name FROM toll_stations WHERE id = $1 AND is_active = true", stationID).Scan(&stationName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("active toll station %d: %w", stationID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch toll station %d: %w", stationID, err)
	}

	var already bool
	err = tx.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM route_toll_stations WHERE route_id = $1 AND station_id = $2 AND is_active = true)",
		routeID, stationID,
	).Scan(&already)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing association: %w", err)
	}
	if already {
		return nil, fmt.Errorf("station %d is already on route %d: %w", stationID, routeID, ErrInvalidInput)
	}

	var rs RouteStation
	err = tx.QueryRow(ctx, `
		INSERT INTO route_toll_stations (route_id, station_id, sort_order)
		VALUES ($1, $2, $3)
		RETURNING id, route_id, station_id, sort_order, is_active
	`, routeID, stationID, sortOrder).Scan(&rs.ID, &rs.RouteID, &rs.StationID, &rs.SortOrder, &rs.IsActive)
	if err != nil {
		return nil, fmt.Errorf("failed to add station to route: %w", err)
	}
	rs.StationName = stationName

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit station add: %w", err)
	}
	return &rs, nil
}

func (s *routeService) RemoveStation(ctx context.Context, routeID, stationID int) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE route_toll_stations SET is_active = false WHERE route_id = $1 AND station_id = $2 AND is_active = true",
		routeID, stationID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove station %d from route %d: %w", stationID, routeID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("station %d on route %d: %w", stationID, routeID, ErrNotFound)
	}
	return nil
}

func (s *routeService) ReplaceStations(ctx context.Context, routeID int, stationIDs []int) (*Route, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockRoute(ctx, tx, routeID); err != nil {
		return nil, err
	}

	// Verify every station before touching the association set.
	for _, stationID := range stationIDs {
		var ok bool
		if err := tx.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM toll_stations WHERE id = $1 AND is_active = true)", stationID,
		).Scan(&ok); err != nil {
			return nil, fmt.Errorf("failed to check toll station %d: %w", stationID, err)
		}
		if !ok {
			return nil, fmt.Errorf("active toll station %d: %w", stationID, ErrNotFound)
		}
	}

	if _, err := tx.Exec(ctx,
		"UPDATE route_toll_stations SET is_active = false WHERE route_id = $1 AND is_active = true", routeID,
	); err != nil {
		return nil, fmt.Errorf("failed to deactivate route stations: %w", err)
	}

	for i, stationID := range stationIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO route_toll_stations (route_id, station_id, sort_order)
			VALUES ($1, $2, $3)
		`, routeID, stationID, i+1); err != nil {
			return nil, fmt.Errorf("failed to insert route station %d: %w", stationID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit station replacement: %w", err)
	}
	return s.GetRoute(ctx, routeID)
}

func lockRoute(ctx context.Context, tx pgx.Tx, routeID int) error {
	var id int
	err := tx.QueryRow(ctx, "SELECT id FROM routes WHERE id = $1 FOR UPDATE", routeID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("route %d: %w", routeID, ErrNotFound)
		}
		return fmt.Errorf("failed to lock route %d: %w", routeID, err)
	}
	return nil
}

// --- Expected tolls ---

func (s *routeService) ExpectedTollTotal(ctx context.Context, routeID int, vehicleType VehicleType, asOf time.Time) (decimal.Decimal, []StationToll, error) {
	if !vehicleType.Valid() {
		return decimal.Zero, nil, fmt.Errorf("unknown vehicle type %q: %w", vehicleType, ErrInvalidInput)
	}

	route, err := s.GetRoute(ctx, routeID)
	if err != nil {
		return decimal.Zero, nil, err
	}

	total := decimal.Zero
	tolls := []StationToll{}
	for _, rs := range route.Stations {
		rate, err := s.resolver.EffectiveRate(ctx, rs.StationID, vehicleType, asOf)
		if err != nil {
			return decimal.Zero, nil, err
		}
		if rate == nil {
			continue
		}
		total = total.Add(rate.Amount)
		tolls = append(tolls, StationToll{StationID: rs.StationID, Name: rs.StationName, Amount: rate.Amount})
	}
	return total, tolls, nil
}
