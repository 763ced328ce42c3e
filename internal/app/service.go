package app

import (
	"context"

	"fleet-costing/internal/core"
)

// ApplicationService is the single interface all UI adapters (REPL, CLI) call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println, no ANSI codes, and no display logic of any kind.
type ApplicationService interface {
	// CreateStation registers a new toll station.
	CreateStation(ctx context.Context, req CreateStationRequest) (*core.TollStation, error)

	// ListStations returns toll stations, optionally active ones only.
	ListStations(ctx context.Context, activeOnly bool) ([]core.TollStation, error)

	// DeactivateStation soft-retires a station; history stays intact.
	DeactivateStation(ctx context.Context, id int) error

	// DeleteStation hard-deletes a station with no routes or payments.
	DeleteStation(ctx context.Context, id int) error

	// CreateRate adds a time-boxed toll rate; the effective window must not
	// overlap an existing active rate for the same station and vehicle type.
	CreateRate(ctx context.Context, req RateRequest) (*core.TollRate, error)

	// UpdateRate rewrites a rate under the same overlap check.
	UpdateRate(ctx context.Context, rateID int, req RateRequest) (*core.TollRate, error)

	// DeactivateRate retires a rate without deleting it.
	DeactivateRate(ctx context.Context, rateID int) error

	// ListRates returns all rates of one station, active or not.
	ListRates(ctx context.Context, stationID int) ([]core.TollRate, error)

	// CreateRoute registers a new route between two cities.
	CreateRoute(ctx context.Context, req CreateRouteRequest) (*core.Route, error)

	// GetRoute returns a route with its ordered active stations.
	GetRoute(ctx context.Context, id int) (*core.Route, error)

	// ListRoutes returns routes, optionally active ones only.
	ListRoutes(ctx context.Context, activeOnly bool) ([]core.Route, error)

	// DeactivateRoute soft-retires a route.
	DeactivateRoute(ctx context.Context, id int) error

	// DeleteRoute hard-deletes a route no payment references.
	DeleteRoute(ctx context.Context, id int) error

	// AddRouteStation appends a station to a route at the given sort order.
	AddRouteStation(ctx context.Context, routeID, stationID, sortOrder int) (*core.RouteStation, error)

	// RemoveRouteStation soft-removes a station association.
	RemoveRouteStation(ctx context.Context, routeID, stationID int) error

	// ReplaceRouteStations atomically swaps a route's station list for the
	// given ordered ids.
	ReplaceRouteStations(ctx context.Context, routeID int, stationIDs []int) (*core.Route, error)

	// ExpectedTolls sums the currently effective rates along a route for one
	// vehicle type.
	ExpectedTolls(ctx context.Context, routeID int, vehicleType string) (*ExpectedTollsResult, error)

	// CreateProfile registers a cost profile for a vehicle type.
	CreateProfile(ctx context.Context, req ProfileRequest) (*core.CostProfile, error)

	// UpdateProfile rewrites a cost profile.
	UpdateProfile(ctx context.Context, id int, req ProfileRequest) (*core.CostProfile, error)

	// GetProfile returns one cost profile.
	GetProfile(ctx context.Context, id int) (*core.CostProfile, error)

	// ListProfiles returns cost profiles, optionally active ones only.
	ListProfiles(ctx context.Context, activeOnly bool) ([]core.CostProfile, error)

	// DeactivateProfile soft-retires a profile; costings that used it stay valid.
	DeactivateProfile(ctx context.Context, id int) error

	// CalculateCosting runs the costing engine for a route, vehicle type, and
	// profile, using the toll rates effective right now.
	CalculateCosting(ctx context.Context, req CostingRequest) (*core.CostingResult, error)

	// CreatePayment records a DRAFT toll payment.
	CreatePayment(ctx context.Context, req PaymentRequest) (*core.TollPayment, error)

	// GetPayment returns one toll payment.
	GetPayment(ctx context.Context, id int) (*core.TollPayment, error)

	// ListPayments returns toll payments matching the filter.
	ListPayments(ctx context.Context, req PaymentListRequest) ([]core.TollPayment, error)

	// UpdatePayment rewrites a payment. Posted payments require posting
	// authority.
	UpdatePayment(ctx context.Context, id int, req PaymentRequest, hasPostingAuthority bool) (*core.TollPayment, error)

	// DeletePayment removes a payment. Posted payments require posting
	// authority.
	DeletePayment(ctx context.Context, id int, hasPostingAuthority bool) error

	// SubmitPayment moves a DRAFT payment into the approval workflow.
	SubmitPayment(ctx context.Context, id int) (*core.TollPayment, error)

	// ApprovePayment approves a SUBMITTED payment.
	ApprovePayment(ctx context.Context, id int) (*core.TollPayment, error)

	// PostPayment posts an APPROVED (or DRAFT, fast path) payment and assigns
	// its gapless receipt number.
	PostPayment(ctx context.Context, id int) (*core.TollPayment, error)

	// Reconcile compares expected tolls against posted payments over a date
	// window, optionally narrowed to one route and/or vehicle type.
	Reconcile(ctx context.Context, req ReconcileRequest) (*core.ReconciliationReport, error)

	// InterpretExpense sends a natural language toll expense description to
	// the AI agent and returns either a payment draft or a clarification
	// request. Nothing is written to the ledger here.
	InterpretExpense(ctx context.Context, text string) (*AIResult, error)

	// CommitDraft validates an agent-produced draft and records it as a DRAFT
	// toll payment. Must only be called after explicit user approval.
	CommitDraft(ctx context.Context, draft core.PaymentDraft) (*core.TollPayment, error)
}
