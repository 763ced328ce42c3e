package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// VehicleType is a closed enumeration of the fleet's vehicle classes.
// Toll rates and cost profiles are scoped by vehicle type, so adding a
// class is a data change, not a code change.
type VehicleType string

const (
	VehicleFlatbed VehicleType = "FLATBED"
	VehicleTipper  VehicleType = "TIPPER"
)

// AllVehicleTypes lists every known vehicle type in declaration order.
var AllVehicleTypes = []VehicleType{VehicleFlatbed, VehicleTipper}

// Valid reports whether vt is one of the known vehicle types.
func (vt VehicleType) Valid() bool {
	for _, known := range AllVehicleTypes {
		if vt == known {
			return true
		}
	}
	return false
}

// TollStation is a master-data record for a toll gate on the road network.
type TollStation struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	City      string    `json:"city,omitempty"`
	Code      *string   `json:"code,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// TollRate is a time-boxed price for passing one station with one vehicle
// type. A nil EffectiveFrom/EffectiveTo bound is open-ended; a rate with
// both bounds nil covers all time. Active windows for the same
// (station, vehicle type) never overlap; this is enforced at write time.
type TollRate struct {
	ID            int             `json:"id"`
	StationID     int             `json:"station_id"`
	VehicleType   VehicleType     `json:"vehicle_type"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	EffectiveFrom *time.Time      `json:"effective_from,omitempty"`
	EffectiveTo   *time.Time      `json:"effective_to,omitempty"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Route is an immutable physical path between two cities. Toll stations are
// associated with a per-route ordering; removal is soft (is_active = false)
// so historic costings stay traceable.
type Route struct {
	ID              int              `json:"id"`
	OriginCity      string           `json:"origin_city"`
	DestinationCity string           `json:"destination_city"`
	DistanceKm      decimal.Decimal  `json:"distance_km"`
	TimeHours       *decimal.Decimal `json:"time_hours,omitempty"`
	IsActive        bool             `json:"is_active"`
	Stations        []RouteStation   `json:"stations"`
	CreatedAt       time.Time        `json:"created_at"`
}

// RouteStation is one toll-station association on a route.
// StationName is joined from toll_stations for display and traceability.
type RouteStation struct {
	ID          int    `json:"id"`
	RouteID     int    `json:"route_id"`
	StationID   int    `json:"station_id"`
	StationName string `json:"station_name"`
	SortOrder   int    `json:"sort_order"`
	IsActive    bool   `json:"is_active"`
}

// FuelConfig is the optional fuel sub-model of a cost profile.
// CostPerKm takes precedence; the unit-based path (CostPerUnit x
// ConsumptionPerKm x distance) is used only when CostPerKm is absent.
type FuelConfig struct {
	CostPerKm        *decimal.Decimal `json:"cost_per_km,omitempty"`
	CostPerUnit      *decimal.Decimal `json:"cost_per_unit,omitempty"`
	ConsumptionPerKm *decimal.Decimal `json:"consumption_per_km,omitempty"`
}

// Usable reports whether the fuel sub-model can produce a nonzero cost:
// either a per-km rate, or both unit price and consumption.
func (f *FuelConfig) Usable() bool {
	if f == nil {
		return false
	}
	if f.CostPerKm != nil {
		return true
	}
	return f.CostPerUnit != nil && f.ConsumptionPerKm != nil
}

// CostProfileConfig is the structured cost configuration of a profile.
// Every member is explicitly optional; absent fields contribute zero.
// It is validated once at profile create/update time; the evaluator
// itself never rejects a config.
type CostProfileConfig struct {
	Fuel                  *FuelConfig      `json:"fuel,omitempty"`
	CommunicationsMonthly *decimal.Decimal `json:"communications_monthly,omitempty"`
	LaborMonthly          *decimal.Decimal `json:"labor_monthly,omitempty"`
	DocsGpsMonthly        *decimal.Decimal `json:"docs_gps_monthly,omitempty"`
	DepreciationMonthly   *decimal.Decimal `json:"depreciation_monthly,omitempty"`
	OverheadPerTrip       *decimal.Decimal `json:"overhead_per_trip,omitempty"`
	IncludeEmptyLeg       bool             `json:"include_empty_leg"`
	EmptyLegFactor        *decimal.Decimal `json:"empty_leg_factor,omitempty"`
}

// CostProfile is a vehicle-type-scoped costing configuration.
type CostProfile struct {
	ID                  int               `json:"id"`
	Name                string            `json:"name"`
	VehicleType         VehicleType       `json:"vehicle_type"`
	Currency            string            `json:"currency"`
	IsActive            bool              `json:"is_active"`
	ProfitMarginPercent *decimal.Decimal  `json:"profit_margin_percent,omitempty"`
	Config              CostProfileConfig `json:"config"`
	CreatedAt           time.Time         `json:"created_at"`
}

// PaymentStatus is the workflow state of a toll payment.
//
//	DRAFT -> SUBMITTED -> APPROVED -> POSTED
//	DRAFT -> POSTED (fast path, no approval workflow)
type PaymentStatus string

const (
	StatusDraft     PaymentStatus = "DRAFT"
	StatusSubmitted PaymentStatus = "SUBMITTED"
	StatusApproved  PaymentStatus = "APPROVED"
	StatusPosted    PaymentStatus = "POSTED"
)

// TollPayment is a ledger entry for an actual toll paid. ReceiptNumber is
// assigned from a gapless sequence when the payment reaches POSTED.
type TollPayment struct {
	ID            int             `json:"id"`
	PaidOn        string          `json:"paid_on"` // YYYY-MM-DD
	VehicleType   VehicleType     `json:"vehicle_type"`
	RouteID       *int            `json:"route_id,omitempty"`
	StationID     *int            `json:"station_id,omitempty"`
	StationName   string          `json:"station_name,omitempty"` // joined from toll_stations
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	ReceiptRef    *string         `json:"receipt_ref,omitempty"`
	ReceiptNumber *string         `json:"receipt_number,omitempty"`
	Status        PaymentStatus   `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	SubmittedAt   *time.Time      `json:"submitted_at,omitempty"`
	ApprovedAt    *time.Time      `json:"approved_at,omitempty"`
	PostedAt      *time.Time      `json:"posted_at,omitempty"`
}
