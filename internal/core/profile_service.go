package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ProfileInput is the input for creating or updating a cost profile.
type ProfileInput struct {
	Name                string
	VehicleType         VehicleType
	Currency            string
	ProfitMarginPercent *decimal.Decimal
	Config              CostProfileConfig
}

// CostProfileService manages vehicle-type-scoped costing configurations.
// The config invariant (at least one cost source) is enforced here at
// write time; the evaluator trusts stored configs.
type CostProfileService interface {
	CreateProfile(ctx context.Context, in ProfileInput) (*CostProfile, error)
	UpdateProfile(ctx context.Context, id int, in ProfileInput) (*CostProfile, error)
	GetProfile(ctx context.Context, id int) (*CostProfile, error)
	ListProfiles(ctx context.Context, activeOnly bool) ([]CostProfile, error)
	DeactivateProfile(ctx context.Context, id int) error
}

type profileService struct {
	pool *pgxpool.Pool
}

// NewCostProfileService constructs a CostProfileService backed by the pool.
func NewCostProfileService(pool *pgxpool.Pool) CostProfileService {
	return &profileService{pool: pool}
}

func (in ProfileInput) validate() error {
	if in.Name == "" {
		return fmt.Errorf("profile name is required: %w", ErrInvalidInput)
	}
	if !in.VehicleType.Valid() {
		return fmt.Errorf("unknown vehicle type %q: %w", in.VehicleType, ErrInvalidInput)
	}
	if in.Currency == "" {
		return fmt.Errorf("profile currency is required: %w", ErrInvalidInput)
	}
	if in.ProfitMarginPercent != nil && in.ProfitMarginPercent.IsNegative() {
		return fmt.Errorf("profit margin must not be negative: %w", ErrInvalidInput)
	}
	return in.Config.Validate()
}

const profileColumns = `
	id, name, vehicle_type, currency, is_active, profit_margin_percent,
	fuel_cost_per_km, fuel_cost_per_unit, fuel_consumption_per_km,
	communications_monthly, labor_monthly, docs_gps_monthly, depreciation_monthly,
	overhead_per_trip, include_empty_leg, empty_leg_factor, created_at
`

func scanProfile(row pgx.Row) (*CostProfile, error) {
	var p CostProfile
	var fuelPerKm, fuelPerUnit, fuelConsumption *decimal.Decimal
	err := row.Scan(
		&p.ID, &p.Name, &p.VehicleType, &p.Currency, &p.IsActive, &p.ProfitMarginPercent,
		&fuelPerKm, &fuelPerUnit, &fuelConsumption,
		&p.Config.CommunicationsMonthly, &p.Config.LaborMonthly, &p.Config.DocsGpsMonthly, &p.Config.DepreciationMonthly,
		&p.Config.OverheadPerTrip, &p.Config.IncludeEmptyLeg, &p.Config.EmptyLegFactor, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if fuelPerKm != nil || fuelPerUnit != nil || fuelConsumption != nil {
		p.Config.Fuel = &FuelConfig{
			CostPerKm:        fuelPerKm,
			CostPerUnit:      fuelPerUnit,
			ConsumptionPerKm: fuelConsumption,
		}
	}
	return &p, nil
}

func fuelColumns(cfg CostProfileConfig) (perKm, perUnit, consumption *decimal.Decimal) {
	if cfg.Fuel == nil {
		return nil, nil, nil
	}
	return cfg.Fuel.CostPerKm, cfg.Fuel.CostPerUnit, cfg.Fuel.ConsumptionPerKm
}

func (s *profileService) CreateProfile(ctx context.Context, in ProfileInput) (*CostProfile, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	perKm, perUnit, consumption := fuelColumns(in.Config)
	row := s.pool.QueryRow(ctx, `
		INSERT INTO cost_profiles (
			name, vehicle_type, currency, profit_margin_percent,
			fuel_cost_per_km, fuel_cost_per_unit, fuel_consumption_per_km,
			communications_monthly, labor_monthly, docs_gps_monthly, depreciation_monthly,
			overhead_per_trip, include_empty_leg, empty_leg_factor
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+profileColumns,
		in.Name, string(in.VehicleType), in.Currency, in.ProfitMarginPercent,
		perKm, perUnit, consumption,
		in.Config.CommunicationsMonthly, in.Config.LaborMonthly, in.Config.DocsGpsMonthly, in.Config.DepreciationMonthly,
		in.Config.OverheadPerTrip, in.Config.IncludeEmptyLeg, in.Config.EmptyLegFactor,
	)

	p, err := scanProfile(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create cost profile: %w", err)
	}
	return p, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, id int, in ProfileInput) (*CostProfile, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	perKm, perUnit, consumption := fuelColumns(in.Config)
	row := s.pool.QueryRow(ctx, `
		UPDATE cost_profiles SET
			name = $2, vehicle_type = $3, currency = $4, profit_margin_percent = $5,
			fuel_cost_per_km = $6, fuel_cost_per_unit = $7, fuel_consumption_per_km = $8,
			communications_monthly = $9, labor_monthly = $10, docs_gps_monthly = $11, depreciation_monthly = $12,
			overhead_per_trip = $13, include_empty_leg = $14, empty_leg_factor = $15
		WHERE id = $1
		RETURNING `+profileColumns,
		id, in.Name, string(in.VehicleType), in.Currency, in.ProfitMarginPercent,
		perKm, perUnit, consumption,
		in.Config.CommunicationsMonthly, in.Config.LaborMonthly, in.Config.DocsGpsMonthly, in.Config.DepreciationMonthly,
		in.Config.OverheadPerTrip, in.Config.IncludeEmptyLeg, in.Config.EmptyLegFactor,
	)

	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("cost profile %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update cost profile %d: %w", id, err)
	}
	return p, nil
}

func (s *profileService) GetProfile(ctx context.Context, id int) (*CostProfile, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+profileColumns+" FROM cost_profiles WHERE id = $1", id)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("cost profile %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch cost profile %d: %w", id, err)
	}
	return p, nil
}

func (s *profileService) ListProfiles(ctx context.Context, activeOnly bool) ([]CostProfile, error) {
	q := "SELECT " + profileColumns + " FROM cost_profiles"
	if activeOnly {
		q += " WHERE is_active = true"
	}
	q += " ORDER BY name, id"

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query cost profiles: %w", err)
	}
	defer rows.Close()

	var profiles []CostProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cost profile: %w", err)
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

func (s *profileService) DeactivateProfile(ctx context.Context, id int) error {
	tag, err := s.pool.Exec(ctx, "UPDATE cost_profiles SET is_active = false WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to deactivate cost profile %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cost profile %d: %w", id, ErrNotFound)
	}
	return nil
}
