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

// RateInput is the input for creating or updating a toll rate.
// Nil effective bounds are open-ended.
type RateInput struct {
	StationID     int
	VehicleType   VehicleType
	Amount        decimal.Decimal
	Currency      string
	EffectiveFrom *time.Time
	EffectiveTo   *time.Time
}

// TollStationService manages toll station master data and the time-boxed
// rates each station owns.
type TollStationService interface {
	CreateStation(ctx context.Context, name, city string, code *string) (*TollStation, error)
	GetStation(ctx context.Context, id int) (*TollStation, error)
	ListStations(ctx context.Context, activeOnly bool) ([]TollStation, error)
	DeactivateStation(ctx context.Context, id int) error
	// DeleteStation removes a station with no route associations or
	// payments; otherwise it fails and the station should be deactivated.
	DeleteStation(ctx context.Context, id int) error

	// CreateRate inserts a rate after verifying its effective window does
	// not overlap any existing active rate for the same station and
	// vehicle type. The check and insert run in one transaction.
	CreateRate(ctx context.Context, in RateInput) (*TollRate, error)
	// UpdateRate rewrites a rate under the same overlap check, ignoring
	// the rate's own previous window.
	UpdateRate(ctx context.Context, rateID int, in RateInput) (*TollRate, error)
	DeactivateRate(ctx context.Context, rateID int) error
	ListRates(ctx context.Context, stationID int) ([]TollRate, error)
}

type stationService struct {
	pool *pgxpool.Pool
}

// NewTollStationService constructs a TollStationService backed by the pool.
func NewTollStationService(pool *pgxpool.Pool) TollStationService {
	return &stationService{pool: pool}
}

func (s *stationService) CreateStation(ctx context.Context, name, city string, code *string) (*TollStation, error) {
	if name == "" {
		return nil, fmt.Errorf("station name is required: %w", ErrInvalidInput)
	}

	var st TollStation
	err := s.pool.QueryRow(ctx, `
		INSERT INTO toll_stations (name, city, code)
		VALUES ($1, $2, $3)
		RETURNING id, name, COALESCE(city, ''), code, is_active, created_at
	`, name, city, code).Scan(&st.ID, &st.Name, &st.City, &st.Code, &st.IsActive, &st.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create toll station: %w", err)
	}
	return &st, nil
}

func (s *stationService) GetStation(ctx context.Context, id int) (*TollStation, error) {
	var st TollStation
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, COALESCE(city, ''), code, is_active, created_at
		FROM toll_stations
		WHERE id = $1
	`, id).Scan(&st.ID, &st.Name, &st.City, &st.Code, &st.IsActive, &st.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("toll station %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch toll station %d: %w", id, err)
	}
	return &st, nil
}

func (s *stationService) ListStations(ctx context.Context, activeOnly bool) ([]TollStation, error) {
	q := `
		SELECT id, name, COALESCE(city, ''), code, is_active, created_at
		FROM toll_stations
	`
	if activeOnly {
		q += " WHERE is_active = true"
	}
	q += " ORDER BY name, id"

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query toll stations: %w", err)
	}
	defer rows.Close()

	var stations []TollStation
	for rows.Next() {
		var st TollStation
		if err := rows.Scan(&st.ID, &st.Name, &st.City, &st.Code, &st.IsActive, &st.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan toll station: %w", err)
		}
		stations = append(stations, st)
	}
	return stations, rows.Err()
}

func (s *stationService) DeactivateStation(ctx context.Context, id int) error {
	tag, err := s.pool.Exec(ctx, "UPDATE toll_stations SET is_active = false WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to deactivate toll station %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("toll station %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *stationService) DeleteStation(ctx context.Context, id int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM toll_stations WHERE id = $1)", id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check toll station %d: %w", id, err)
	}
	if !exists {
		return fmt.Errorf("toll station %d: %w", id, ErrNotFound)
	}

	var dependents int
	err = tx.QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM route_toll_stations WHERE station_id = $1)
		     + (SELECT COUNT(*) FROM toll_payments WHERE station_id = $1)
	`, id).Scan(&dependents)
	if err != nil {
		return fmt.Errorf("failed to check station dependents: %w", err)
	}
	if dependents > 0 {
		return fmt.Errorf("toll station %d has route associations or payments; deactivate it instead: %w", id, ErrInvalidInput)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM toll_rates WHERE station_id = $1", id); err != nil {
		return fmt.Errorf("failed to delete station rates: %w", err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM toll_stations WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to delete toll station %d: %w", id, err)
	}
	return tx.Commit(ctx)
}

// --- Rates ---

func (in RateInput) validate() error {
	if !in.VehicleType.Valid() {
		return fmt.Errorf("unknown vehicle type %q: %w", in.VehicleType, ErrInvalidInput)
	}
	if !in.Amount.IsPositive() {
		return fmt.Errorf("rate amount must be > 0, got %s: %w", in.Amount, ErrInvalidInput)
	}
	if in.Currency == "" {
		return fmt.Errorf("rate currency is required: %w", ErrInvalidInput)
	}
	if in.EffectiveFrom != nil && in.EffectiveTo != nil && in.EffectiveFrom.After(*in.EffectiveTo) {
		return fmt.Errorf("rate window ends before it starts: %w", ErrInvalidInput)
	}
	return nil
}

func (s *stationService) CreateRate(ctx context.Context, in RateInput) (*TollRate, error) {
	return s.writeRate(ctx, 0, in)
}

func (s *stationService) UpdateRate(ctx context.Context, rateID int, in RateInput) (*TollRate, error) {
	if rateID <= 0 {
		return nil, fmt.Errorf("rate id is required: %w", ErrInvalidInput)
	}
	return s.writeRate(ctx, rateID, in)
}

// writeRate inserts (rateID == 0) or rewrites a rate. The station row lock
// serializes concurrent writers for the same station so two transactions
// cannot both pass the overlap check and commit conflicting windows.
func (s *stationService) writeRate(ctx context.Context, rateID int, in RateInput) (*TollRate, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var stationID int
	err = tx.QueryRow(ctx, "SELECT id FROM toll_stations WHERE id = $1 FOR UPDATE", in.StationID).Scan(&stationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("toll station %d: %w", in.StationID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock toll station %d: %w", in.StationID, err)
	}

	rows, err := tx.Query(ctx, `
		SELECT id, effective_from, effective_to
		FROM toll_rates
		WHERE station_id = $1 AND vehicle_type = $2 AND is_active = true AND id <> $3
	`, in.StationID, string(in.VehicleType), rateID)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing rates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var existingID int
		var from, to *time.Time
		if err := rows.Scan(&existingID, &from, &to); err != nil {
			return nil, fmt.Errorf("failed to scan existing rate: %w", err)
		}
		if windowsOverlap(in.EffectiveFrom, in.EffectiveTo, from, to) {
			return nil, fmt.Errorf("rate window overlaps active rate %d for station %d / %s: %w",
				existingID, in.StationID, in.VehicleType, ErrInvalidInput)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating existing rates: %w", err)
	}
	rows.Close()

	var rate TollRate
	if rateID == 0 {
		err = tx.QueryRow(ctx, `
			INSERT INTO toll_rates (station_id, vehicle_type, amount, currency, effective_from, effective_to)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, station_id, vehicle_type, amount, currency, effective_from, effective_to, is_active, created_at
		`, in.StationID, string(in.VehicleType), in.Amount, in.Currency, in.EffectiveFrom, in.EffectiveTo).Scan(
			&rate.ID, &rate.StationID, &rate.VehicleType, &rate.Amount, &rate.Currency,
			&rate.EffectiveFrom, &rate.EffectiveTo, &rate.IsActive, &rate.CreatedAt,
		)
	} else {
		err = tx.QueryRow(ctx, `
			UPDATE toll_rates
			SET vehicle_type = $2, amount = $3, currency = $4, effective_from = $5, effective_to = $6
			WHERE id = $1 AND station_id = $7
			RETURNING id, station_id, vehicle_type, amount, currency, effective_from, effective_to, is_active, created_at
		`, rateID, string(in.VehicleType), in.Amount, in.Currency, in.EffectiveFrom, in.EffectiveTo, in.StationID).Scan(
			&rate.ID, &rate.StationID, &rate.VehicleType, &rate.Amount, &rate.Currency,
			&rate.EffectiveFrom, &rate.EffectiveTo, &rate.IsActive, &rate.CreatedAt,
		)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("toll rate %d: %w", rateID, ErrNotFound)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write toll rate: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit rate write: %w", err)
	}
	return &rate, nil
}

func (s *stationService) DeactivateRate(ctx context.Context, rateID int) error {
	tag, err := s.pool.Exec(ctx, "UPDATE toll_rates SET is_active = false WHERE id = $1", rateID)
	if err != nil {
		return fmt.Errorf("failed to deactivate rate %d: %w", rateID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("toll rate %d: %w", rateID, ErrNotFound)
	}
	return nil
}

func (s *stationService) ListRates(ctx context.Context, stationID int) ([]TollRate, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, station_id, vehicle_type, amount, currency, effective_from, effective_to, is_active, created_at
		FROM toll_rates
		WHERE station_id = $1
		ORDER BY vehicle_type, effective_from NULLS FIRST, id
	`, stationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rates for station %d: %w", stationID, err)
	}
	defer rows.Close()

	var rates []TollRate
	for rows.Next() {
		var r TollRate
		if err := rows.Scan(&r.ID, &r.StationID, &r.VehicleType, &r.Amount, &r.Currency,
			&r.EffectiveFrom, &r.EffectiveTo, &r.IsActive, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rate: %w", err)
		}
		rates = append(rates, r)
	}
	return rates, rows.Err()
}
