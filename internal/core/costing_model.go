package core

import "github.com/shopspring/decimal"

// CostingRequest is the input to RouteCostingService.CalculateCosting.
// Optional fields are nil when the caller wants the profile defaults.
type CostingRequest struct {
	RouteID             int              `json:"route_id"`
	VehicleType         VehicleType      `json:"vehicle_type"`
	CostProfileID       int              `json:"cost_profile_id"`
	TonsPerTrip         decimal.Decimal  `json:"tons_per_trip"`
	TripsPerMonth       *decimal.Decimal `json:"trips_per_month,omitempty"`
	IncludeEmptyLeg     *bool            `json:"include_empty_leg,omitempty"`
	ProfitMarginPercent *decimal.Decimal `json:"profit_margin_percent,omitempty"`
}

// StationToll is one station's resolved toll amount on a costed route,
// kept in route sort order for traceability.
type StationToll struct {
	StationID int             `json:"station_id"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
}

// CostComponents is the itemized output of the cost profile evaluator.
// All values are exact decimals; absent config fields contribute zero.
type CostComponents struct {
	FuelCost              decimal.Decimal `json:"fuel_cost"`
	CommunicationsMonthly decimal.Decimal `json:"communications_monthly"`
	LaborMonthly          decimal.Decimal `json:"labor_monthly"`
	DocsGpsMonthly        decimal.Decimal `json:"docs_gps_monthly"`
	DepreciationMonthly   decimal.Decimal `json:"depreciation_monthly"`
	OverheadPerTrip       decimal.Decimal `json:"overhead_per_trip"`
	FixedCostPerTrip      decimal.Decimal `json:"fixed_cost_per_trip"`
}

// CostingInput carries everything ComputeCosting needs, pre-resolved by the
// costing service: route facts, the per-station tolls effective at the
// reference instant, the profile, and the request overrides. Keeping the
// computation free of I/O makes it deterministic and unit-testable.
type CostingInput struct {
	RouteID             int
	OriginCity          string
	DestinationCity     string
	DistanceKm          decimal.Decimal
	TimeHours           *decimal.Decimal
	Tolls               []StationToll
	Profile             CostProfile
	TonsPerTrip         decimal.Decimal
	TripsPerMonth       *decimal.Decimal
	IncludeEmptyLeg     *bool
	ProfitMarginPercent *decimal.Decimal
}

// CostingResult is the full breakdown returned by the costing engine.
// Decimal fields marshal as exact strings, never binary floats.
type CostingResult struct {
	RouteID         int              `json:"route_id"`
	OriginCity      string           `json:"origin_city"`
	DestinationCity string           `json:"destination_city"`
	VehicleType     VehicleType      `json:"vehicle_type"`
	Currency        string           `json:"currency"`
	DistanceKm      decimal.Decimal  `json:"distance_km"`
	TimeHours       *decimal.Decimal `json:"time_hours,omitempty"`

	Tolls        []StationToll    `json:"tolls"`
	TollPerTrip  decimal.Decimal  `json:"toll_per_trip"`
	TollPerMonth *decimal.Decimal `json:"toll_per_month,omitempty"`

	Components CostComponents `json:"components"`

	IncludeEmptyLeg bool            `json:"include_empty_leg"`
	EmptyLegFactor  decimal.Decimal `json:"empty_leg_factor"`

	TotalCostPerTrip                 decimal.Decimal  `json:"total_cost_per_trip"`
	TotalCostPerMonth                *decimal.Decimal `json:"total_cost_per_month,omitempty"`
	CostPerTonPerKm                  decimal.Decimal  `json:"cost_per_ton_per_km"`
	CostPerTonPerKmIncludingEmptyLeg decimal.Decimal  `json:"cost_per_ton_per_km_including_empty_leg"`
	ProfitMarginPercent              decimal.Decimal  `json:"profit_margin_percent"`
	SalesPriceWithProfitMargin       decimal.Decimal  `json:"sales_price_with_profit_margin"`
	SalesPricePerTon                 decimal.Decimal  `json:"sales_price_per_ton"`
}
