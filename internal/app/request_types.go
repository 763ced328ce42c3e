package app

import "github.com/shopspring/decimal"

// CreateStationRequest is the input for registering a toll station.
type CreateStationRequest struct {
	Name string
	City string
	Code string // optional short code, e.g. "CAI-01"
}

// RateRequest is the input for creating or updating a toll rate.
// Dates are YYYY-MM-DD; empty means open-ended.
type RateRequest struct {
	StationID     int
	VehicleType   string
	Amount        decimal.Decimal
	Currency      string
	EffectiveFrom string
	EffectiveTo   string
}

// CreateRouteRequest is the input for registering a route.
type CreateRouteRequest struct {
	OriginCity      string
	DestinationCity string
	DistanceKm      decimal.Decimal
	TimeHours       *decimal.Decimal
}

// ProfileRequest is the input for creating or updating a cost profile.
// Nil members are absent from the config and contribute zero.
type ProfileRequest struct {
	Name                  string
	VehicleType           string
	Currency              string
	ProfitMarginPercent   *decimal.Decimal
	FuelCostPerKm         *decimal.Decimal
	FuelCostPerUnit       *decimal.Decimal
	FuelConsumptionPerKm  *decimal.Decimal
	CommunicationsMonthly *decimal.Decimal
	LaborMonthly          *decimal.Decimal
	DocsGpsMonthly        *decimal.Decimal
	DepreciationMonthly   *decimal.Decimal
	OverheadPerTrip       *decimal.Decimal
	IncludeEmptyLeg       bool
	EmptyLegFactor        *decimal.Decimal
}

// CostingRequest is the input for running the costing engine.
type CostingRequest struct {
	RouteID             int
	VehicleType         string
	CostProfileID       int
	TonsPerTrip         decimal.Decimal
	TripsPerMonth       *decimal.Decimal
	IncludeEmptyLeg     *bool
	ProfitMarginPercent *decimal.Decimal
}

// PaymentRequest is the input for recording or correcting a toll payment.
type PaymentRequest struct {
	PaidOn      string // YYYY-MM-DD
	VehicleType string
	RouteID     *int
	StationID   *int
	Amount      decimal.Decimal
	Currency    string
	ReceiptRef  string
}

// PaymentListRequest narrows ListPayments. Empty fields mean "no filter".
type PaymentListRequest struct {
	FromDate    string // YYYY-MM-DD
	ToDate      string // YYYY-MM-DD
	RouteID     *int
	StationID   *int
	VehicleType string
	Status      string
}

// ReconcileRequest is the input for an expected-versus-actual toll report.
type ReconcileRequest struct {
	StartDate   string // YYYY-MM-DD
	EndDate     string // YYYY-MM-DD
	RouteID     *int
	VehicleType string // empty means all vehicle types
}
