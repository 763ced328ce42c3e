package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fleet-costing/internal/cache"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// RateResolver selects the effective toll rate for a station and vehicle
// type. The reference time is always an explicit parameter, never a wall
// clock read inside the resolver, so point-in-time lookups, reconciliation
// over past windows, and tests all share one implementation.
type RateResolver interface {
	// EffectiveRate returns the active rate whose window contains asOf,
	// or nil when the station has none for that vehicle type.
	EffectiveRate(ctx context.Context, stationID int, vehicleType VehicleType, asOf time.Time) (*TollRate, error)

	// EffectiveRateInWindow generalizes the point-in-time check to a
	// window-overlap check over [from, to], as reconciliation needs.
	EffectiveRateInWindow(ctx context.Context, stationID int, vehicleType VehicleType, from, to time.Time) (*TollRate, error)
}

type rateResolver struct {
	pool  *pgxpool.Pool
	rates *cache.RateCache
}

// NewRateResolver constructs a RateResolver over the given pool. rates may
// be nil to run without the Redis read-through cache.
func NewRateResolver(pool *pgxpool.Pool, rates *cache.RateCache) RateResolver {
	return &rateResolver{pool: pool, rates: rates}
}

const dateLayout = "2006-01-02"

// Active windows per (station, vehicle type) are non-overlapping, so at
// most one row should match. If bad data slips in, the ORDER BY makes the
// newest rate win instead of erroring.
const effectiveRateQuery = `
	SELECT id, station_id, vehicle_type, amount, currency, effective_from, effective_to, is_active, created_at
	FROM toll_rates
	WHERE station_id = $1
	  AND vehicle_type = $2
	  AND is_active = true
	  AND (effective_from IS NULL OR effective_from <= $3::date)
	  AND (effective_to IS NULL OR effective_to >= $4::date)
	ORDER BY created_at DESC, id DESC
	LIMIT 1
`

func (r *rateResolver) EffectiveRate(ctx context.Context, stationID int, vehicleType VehicleType, asOf time.Time) (*TollRate, error) {
	day := asOf.Format(dateLayout)

	if r.rates != nil {
		cached, err := r.rates.Get(ctx, stationID, string(vehicleType), day)
		if err == nil && cached != nil {
			return rateFromCache(stationID, vehicleType, cached)
		}
		// Cache errors are not lookup errors; fall through to the database.
	}

	rate, err := r.queryEffective(ctx, stationID, vehicleType, day, day)
	if err != nil {
		return nil, err
	}

	if r.rates != nil {
		_ = r.rates.Set(ctx, stationID, string(vehicleType), day, toCachedRate(rate))
	}
	return rate, nil
}

func (r *rateResolver) EffectiveRateInWindow(ctx context.Context, stationID int, vehicleType VehicleType, from, to time.Time) (*TollRate, error) {
	// Window overlap: the rate starts before the window ends and ends
	// after the window starts. Window lookups are reconciliation-only and
	// rare, so they skip the cache.
	return r.queryEffective(ctx, stationID, vehicleType, to.Format(dateLayout), from.Format(dateLayout))
}

func (r *rateResolver) queryEffective(ctx context.Context, stationID int, vehicleType VehicleType, fromCeiling, toFloor string) (*TollRate, error) {
	var rate TollRate
	err := r.pool.QueryRow(ctx, effectiveRateQuery, stationID, string(vehicleType), fromCeiling, toFloor).Scan(
		&rate.ID, &rate.StationID, &rate.VehicleType, &rate.Amount, &rate.Currency,
		&rate.EffectiveFrom, &rate.EffectiveTo, &rate.IsActive, &rate.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // no effective rate; callers skip the station
		}
		return nil, fmt.Errorf("failed to resolve rate for station %d: %w", stationID, err)
	}
	return &rate, nil
}

func rateFromCache(stationID int, vehicleType VehicleType, cached *cache.CachedRate) (*TollRate, error) {
	if !cached.Found {
		return nil, nil
	}
	amount, err := decimal.NewFromString(cached.Amount)
	if err != nil {
		return nil, fmt.Errorf("corrupt cached rate for station %d: %v", stationID, err)
	}
	return &TollRate{
		ID:          cached.RateID,
		StationID:   stationID,
		VehicleType: vehicleType,
		Amount:      amount,
		Currency:    cached.Currency,
		IsActive:    true,
	}, nil
}

func toCachedRate(rate *TollRate) *cache.CachedRate {
	if rate == nil {
		return &cache.CachedRate{Found: false}
	}
	return &cache.CachedRate{
		Found:    true,
		RateID:   rate.ID,
		Amount:   rate.Amount.String(),
		Currency: rate.Currency,
	}
}
