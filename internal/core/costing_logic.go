package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

func orZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

// EvaluateComponents turns a profile config plus trip parameters into
// itemized cost components. It never rejects input: absent config fields
// degrade to zero contributions, and fixed costs stay unamortized (zero
// per trip) when no trip count is given.
func EvaluateComponents(cfg CostProfileConfig, distanceKm decimal.Decimal, tripsPerMonth *decimal.Decimal) CostComponents {
	var fuel decimal.Decimal
	if cfg.Fuel != nil {
		switch {
		case cfg.Fuel.CostPerKm != nil:
			fuel = cfg.Fuel.CostPerKm.Mul(distanceKm)
		case cfg.Fuel.CostPerUnit != nil && cfg.Fuel.ConsumptionPerKm != nil:
			fuel = cfg.Fuel.CostPerUnit.Mul(cfg.Fuel.ConsumptionPerKm.Mul(distanceKm))
		}
	}

	c := CostComponents{
		FuelCost:              fuel,
		CommunicationsMonthly: orZero(cfg.CommunicationsMonthly),
		LaborMonthly:          orZero(cfg.LaborMonthly),
		DocsGpsMonthly:        orZero(cfg.DocsGpsMonthly),
		DepreciationMonthly:   orZero(cfg.DepreciationMonthly),
		OverheadPerTrip:       orZero(cfg.OverheadPerTrip),
	}

	monthlyFixed := c.CommunicationsMonthly.
		Add(c.LaborMonthly).
		Add(c.DocsGpsMonthly).
		Add(c.DepreciationMonthly)

	if tripsPerMonth != nil && tripsPerMonth.IsPositive() {
		c.FixedCostPerTrip = monthlyFixed.Div(*tripsPerMonth)
	}
	return c
}

// MonthlyFixedTotal sums the four monthly fixed components.
func (c CostComponents) MonthlyFixedTotal() decimal.Decimal {
	return c.CommunicationsMonthly.
		Add(c.LaborMonthly).
		Add(c.DocsGpsMonthly).
		Add(c.DepreciationMonthly)
}

// Validate enforces the profile-config invariant: a profile must define at
// least one cost source, a usable fuel model or a nonzero monthly fixed
// cost. Called at profile create/update time only.
func (cfg CostProfileConfig) Validate() error {
	if cfg.EmptyLegFactor != nil && cfg.EmptyLegFactor.IsNegative() {
		return fmt.Errorf("empty leg factor must not be negative: %w", ErrInvalidInput)
	}
	if cfg.Fuel.Usable() {
		return nil
	}
	for _, m := range []*decimal.Decimal{
		cfg.CommunicationsMonthly, cfg.LaborMonthly, cfg.DocsGpsMonthly, cfg.DepreciationMonthly,
	} {
		if m != nil && !m.IsZero() {
			return nil
		}
	}
	return fmt.Errorf("profile config has no cost source (fuel model or monthly fixed cost): %w", ErrInvalidInput)
}

// ComputeCosting assembles toll, fuel, fixed, and overhead costs into trip
// and month totals, applies the empty-leg policy, and derives the unit
// economics. Pure: for fixed input it produces bit-identical decimal
// output on every call.
func ComputeCosting(in CostingInput) (*CostingResult, error) {
	if !in.TonsPerTrip.IsPositive() || !in.DistanceKm.IsPositive() {
		return nil, fmt.Errorf("cannot calculate cost per ton per km with tons %s and distance %s km: %w",
			in.TonsPerTrip, in.DistanceKm, ErrInvalidInput)
	}

	tollPerTrip := decimal.Zero
	for _, t := range in.Tolls {
		tollPerTrip = tollPerTrip.Add(t.Amount)
	}

	components := EvaluateComponents(in.Profile.Config, in.DistanceKm, in.TripsPerMonth)

	baseTripCost := components.FuelCost.
		Add(tollPerTrip).
		Add(components.OverheadPerTrip).
		Add(components.FixedCostPerTrip)

	includeEmptyLeg := in.Profile.Config.IncludeEmptyLeg
	if in.IncludeEmptyLeg != nil {
		includeEmptyLeg = *in.IncludeEmptyLeg
	}
	emptyLegFactor := decimal.NewFromInt(1)
	if in.Profile.Config.EmptyLegFactor != nil {
		emptyLegFactor = *in.Profile.Config.EmptyLegFactor
	}

	tonKm := in.TonsPerTrip.Mul(in.DistanceKm)
	tonKmWithReturn := tonKm.Mul(decimal.NewFromInt(1).Add(emptyLegFactor))

	// The reference metric is always computed as if the return leg ran:
	// base cost plus return-leg fuel over the widened tonnage denominator.
	costWithEmptyLeg := baseTripCost.Add(components.FuelCost.Mul(emptyLegFactor))
	costPerTonPerKmIncl := costWithEmptyLeg.Div(tonKmWithReturn)

	totalCostPerTrip := baseTripCost
	costPerTonPerKm := baseTripCost.Div(tonKm)
	if includeEmptyLeg {
		totalCostPerTrip = costWithEmptyLeg
		costPerTonPerKm = costPerTonPerKmIncl
	}

	var tollPerMonth, totalCostPerMonth *decimal.Decimal
	if in.TripsPerMonth != nil {
		tm := tollPerTrip.Mul(*in.TripsPerMonth)
		tollPerMonth = &tm
		cm := totalCostPerTrip.Mul(*in.TripsPerMonth)
		totalCostPerMonth = &cm
	}

	profitMargin := decimal.Zero
	switch {
	case in.ProfitMarginPercent != nil:
		profitMargin = *in.ProfitMarginPercent
	case in.Profile.ProfitMarginPercent != nil:
		profitMargin = *in.Profile.ProfitMarginPercent
	}
	hundred := decimal.NewFromInt(100)
	salesPrice := totalCostPerTrip.Mul(decimal.NewFromInt(1).Add(profitMargin.Div(hundred)))
	salesPricePerTon := salesPrice.Div(in.TonsPerTrip)

	tolls := in.Tolls
	if tolls == nil {
		tolls = []StationToll{}
	}

	return &CostingResult{
		RouteID:         in.RouteID,
		OriginCity:      in.OriginCity,
		DestinationCity: in.DestinationCity,
		VehicleType:     in.Profile.VehicleType,
		Currency:        in.Profile.Currency,
		DistanceKm:      in.DistanceKm,
		TimeHours:       in.TimeHours,

		Tolls:        tolls,
		TollPerTrip:  tollPerTrip,
		TollPerMonth: tollPerMonth,

		Components: components,

		IncludeEmptyLeg: includeEmptyLeg,
		EmptyLegFactor:  emptyLegFactor,

		TotalCostPerTrip:                 totalCostPerTrip,
		TotalCostPerMonth:                totalCostPerMonth,
		CostPerTonPerKm:                  costPerTonPerKm,
		CostPerTonPerKmIncludingEmptyLeg: costPerTonPerKmIncl,
		ProfitMarginPercent:              profitMargin,
		SalesPriceWithProfitMargin:       salesPrice,
		SalesPricePerTon:                 salesPricePerTon,
	}, nil
}
