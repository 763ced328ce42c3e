package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fleet-costing/internal/ai"
	"fleet-costing/internal/core"

	"github.com/shopspring/decimal"
)

type appService struct {
	stations core.TollStationService
	routes   core.RouteService
	profiles core.CostProfileService
	costing  core.RouteCostingService
	payments core.TollPaymentService
	recon    core.ReconciliationService
	agent    *ai.Agent
}

// NewAppService constructs an appService that satisfies ApplicationService.
// agent may be nil; the AI operations then return a descriptive error.
func NewAppService(
	stations core.TollStationService,
	routes core.RouteService,
	profiles core.CostProfileService,
	costing core.RouteCostingService,
	payments core.TollPaymentService,
	recon core.ReconciliationService,
	agent *ai.Agent,
) ApplicationService {
	return &appService{
		stations: stations,
		routes:   routes,
		profiles: profiles,
		costing:  costing,
		payments: payments,
		recon:    recon,
		agent:    agent,
	}
}

func vehicleType(s string) core.VehicleType {
	return core.VehicleType(strings.ToUpper(strings.TrimSpace(s)))
}

// parseDay converts a YYYY-MM-DD string to a date pointer; empty means nil.
func parseDay(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, core.ErrInvalidInput)
	}
	return &d, nil
}

// --- Stations and rates ---

func (s *appService) CreateStation(ctx context.Context, req CreateStationRequest) (*core.TollStation, error) {
	var code *string
	if req.Code != "" {
		code = &req.Code
	}
	return s.stations.CreateStation(ctx, req.Name, req.City, code)
}

func (s *appService) ListStations(ctx context.Context, activeOnly bool) ([]core.TollStation, error) {
	return s.stations.ListStations(ctx, activeOnly)
}

func (s *appService) DeactivateStation(ctx context.Context, id int) error {
	return s.stations.DeactivateStation(ctx, id)
}

func (s *appService) DeleteStation(ctx context.Context, id int) error {
	return s.stations.DeleteStation(ctx, id)
}

func (s *appService) rateInput(req RateRequest) (core.RateInput, error) {
	from, err := parseDay(req.EffectiveFrom)
	if err != nil {
		return core.RateInput{}, err
	}
	to, err := parseDay(req.EffectiveTo)
	if err != nil {
		return core.RateInput{}, err
	}
	return core.RateInput{
		StationID:     req.StationID,
		VehicleType:   vehicleType(req.VehicleType),
		Amount:        req.Amount,
		Currency:      strings.ToUpper(req.Currency),
		EffectiveFrom: from,
		EffectiveTo:   to,
	}, nil
}

func (s *appService) CreateRate(ctx context.Context, req RateRequest) (*core.TollRate, error) {
	in, err := s.rateInput(req)
	if err != nil {
		return nil, err
	}
	return s.stations.CreateRate(ctx, in)
}

func (s *appService) UpdateRate(ctx context.Context, rateID int, req RateRequest) (*core.TollRate, error) {
	in, err := s.rateInput(req)
	if err != nil {
		return nil, err
	}
	return s.stations.UpdateRate(ctx, rateID, in)
}

func (s *appService) DeactivateRate(ctx context.Context, rateID int) error {
	return s.stations.DeactivateRate(ctx, rateID)
}

func (s *appService) ListRates(ctx context.Context, stationID int) ([]core.TollRate, error) {
	return s.stations.ListRates(ctx, stationID)
}

// --- Routes ---

func (s *appService) CreateRoute(ctx context.Context, req CreateRouteRequest) (*core.Route, error) {
	return s.routes.CreateRoute(ctx, req.OriginCity, req.DestinationCity, req.DistanceKm, req.TimeHours)
}

func (s *appService) GetRoute(ctx context.Context, id int) (*core.Route, error) {
	return s.routes.GetRoute(ctx, id)
}

func (s *appService) ListRoutes(ctx context.Context, activeOnly bool) ([]core.Route, error) {
	return s.routes.ListRoutes(ctx, activeOnly)
}

func (s *appService) DeactivateRoute(ctx context.Context, id int) error {
	return s.routes.DeactivateRoute(ctx, id)
}

func (s *appService) DeleteRoute(ctx context.Context, id int) error {
	return s.routes.DeleteRoute(ctx, id)
}

func (s *appService) AddRouteStation(ctx context.Context, routeID, stationID, sortOrder int) (*core.RouteStation, error) {
	return s.routes.AddStation(ctx, routeID, stationID, sortOrder)
}

func (s *appService) RemoveRouteStation(ctx context.Context, routeID, stationID int) error {
	return s.routes.RemoveStation(ctx, routeID, stationID)
}

func (s *appService) ReplaceRouteStations(ctx context.Context, routeID int, stationIDs []int) (*core.Route, error) {
	return s.routes.ReplaceStations(ctx, routeID, stationIDs)
}

func (s *appService) ExpectedTolls(ctx context.Context, routeID int, vt string) (*ExpectedTollsResult, error) {
	v := vehicleType(vt)
	total, tolls, err := s.routes.ExpectedTollTotal(ctx, routeID, v, time.Now())
	if err != nil {
		return nil, err
	}
	return &ExpectedTollsResult{RouteID: routeID, VehicleType: v, Total: total, Tolls: tolls}, nil
}

// --- Cost profiles ---

func profileInput(req ProfileRequest) core.ProfileInput {
	cfg := core.CostProfileConfig{
		CommunicationsMonthly: req.CommunicationsMonthly,
		LaborMonthly:          req.LaborMonthly,
		DocsGpsMonthly:        req.DocsGpsMonthly,
		DepreciationMonthly:   req.DepreciationMonthly,
		OverheadPerTrip:       req.OverheadPerTrip,
		IncludeEmptyLeg:       req.IncludeEmptyLeg,
		EmptyLegFactor:        req.EmptyLegFactor,
	}
	if req.FuelCostPerKm != nil || req.FuelCostPerUnit != nil || req.FuelConsumptionPerKm != nil {
		cfg.Fuel = &core.FuelConfig{
			CostPerKm:        req.FuelCostPerKm,
			CostPerUnit:      req.FuelCostPerUnit,
			ConsumptionPerKm: req.FuelConsumptionPerKm,
		}
	}
	return core.ProfileInput{
		Name:                req.Name,
		VehicleType:         vehicleType(req.VehicleType),
		Currency:            strings.ToUpper(req.Currency),
		ProfitMarginPercent: req.ProfitMarginPercent,
		Config:              cfg,
	}
}

func (s *appService) CreateProfile(ctx context.Context, req ProfileRequest) (*core.CostProfile, error) {
	return s.profiles.CreateProfile(ctx, profileInput(req))
}

func (s *appService) UpdateProfile(ctx context.Context, id int, req ProfileRequest) (*core.CostProfile, error) {
	return s.profiles.UpdateProfile(ctx, id, profileInput(req))
}

func (s *appService) GetProfile(ctx context.Context, id int) (*core.CostProfile, error) {
	return s.profiles.GetProfile(ctx, id)
}

func (s *appService) ListProfiles(ctx context.Context, activeOnly bool) ([]core.CostProfile, error) {
	return s.profiles.ListProfiles(ctx, activeOnly)
}

func (s *appService) DeactivateProfile(ctx context.Context, id int) error {
	return s.profiles.DeactivateProfile(ctx, id)
}

// --- Costing ---

func (s *appService) CalculateCosting(ctx context.Context, req CostingRequest) (*core.CostingResult, error) {
	return s.costing.CalculateCosting(ctx, core.CostingRequest{
		RouteID:             req.RouteID,
		VehicleType:         vehicleType(req.VehicleType),
		CostProfileID:       req.CostProfileID,
		TonsPerTrip:         req.TonsPerTrip,
		TripsPerMonth:       req.TripsPerMonth,
		IncludeEmptyLeg:     req.IncludeEmptyLeg,
		ProfitMarginPercent: req.ProfitMarginPercent,
	}, time.Now())
}

// --- Payments ---

func paymentInput(req PaymentRequest) core.PaymentInput {
	var ref *string
	if req.ReceiptRef != "" {
		ref = &req.ReceiptRef
	}
	return core.PaymentInput{
		PaidOn:      req.PaidOn,
		VehicleType: vehicleType(req.VehicleType),
		RouteID:     req.RouteID,
		StationID:   req.StationID,
		Amount:      req.Amount,
		Currency:    strings.ToUpper(req.Currency),
		ReceiptRef:  ref,
	}
}

func (s *appService) CreatePayment(ctx context.Context, req PaymentRequest) (*core.TollPayment, error) {
	return s.payments.CreatePayment(ctx, paymentInput(req))
}

func (s *appService) GetPayment(ctx context.Context, id int) (*core.TollPayment, error) {
	return s.payments.GetPayment(ctx, id)
}

func (s *appService) ListPayments(ctx context.Context, req PaymentListRequest) ([]core.TollPayment, error) {
	filter := core.PaymentFilter{
		FromDate:  req.FromDate,
		ToDate:    req.ToDate,
		RouteID:   req.RouteID,
		StationID: req.StationID,
	}
	if req.VehicleType != "" {
		vt := vehicleType(req.VehicleType)
		filter.VehicleType = &vt
	}
	if req.Status != "" {
		st := core.PaymentStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
		filter.Status = &st
	}
	return s.payments.ListPayments(ctx, filter)
}

func (s *appService) UpdatePayment(ctx context.Context, id int, req PaymentRequest, hasPostingAuthority bool) (*core.TollPayment, error) {
	return s.payments.UpdatePayment(ctx, id, paymentInput(req), hasPostingAuthority)
}

func (s *appService) DeletePayment(ctx context.Context, id int, hasPostingAuthority bool) error {
	return s.payments.DeletePayment(ctx, id, hasPostingAuthority)
}

func (s *appService) SubmitPayment(ctx context.Context, id int) (*core.TollPayment, error) {
	return s.payments.SubmitPayment(ctx, id)
}

func (s *appService) ApprovePayment(ctx context.Context, id int) (*core.TollPayment, error) {
	return s.payments.ApprovePayment(ctx, id)
}

func (s *appService) PostPayment(ctx context.Context, id int) (*core.TollPayment, error) {
	return s.payments.PostPayment(ctx, id)
}

// --- Reconciliation ---

func (s *appService) Reconcile(ctx context.Context, req ReconcileRequest) (*core.ReconciliationReport, error) {
	var vt *core.VehicleType
	if req.VehicleType != "" {
		v := vehicleType(req.VehicleType)
		vt = &v
	}
	return s.recon.Reconcile(ctx, req.StartDate, req.EndDate, req.RouteID, vt)
}

// --- AI expense interpretation ---

func (s *appService) InterpretExpense(ctx context.Context, text string) (*AIResult, error) {
	if s.agent == nil {
		return nil, fmt.Errorf("AI agent is not configured (set OPENAI_API_KEY)")
	}

	stations, err := s.stations.ListStations(ctx, true)
	if err != nil {
		return nil, err
	}
	var list strings.Builder
	for _, st := range stations {
		fmt.Fprintf(&list, "- %s", st.Name)
		if st.City != "" {
			fmt.Fprintf(&list, " (%s)", st.City)
		}
		list.WriteString("\n")
	}

	resp, err := s.agent.InterpretExpense(ctx, text, list.String())
	if err != nil {
		return nil, err
	}
	if resp.IsClarificationRequest {
		return &AIResult{IsClarification: true, ClarificationMessage: resp.Clarification.Message}, nil
	}
	return &AIResult{Draft: resp.Draft}, nil
}

func (s *appService) CommitDraft(ctx context.Context, draft core.PaymentDraft) (*core.TollPayment, error) {
	draft.Normalize()
	if err := draft.Validate(); err != nil {
		return nil, fmt.Errorf("draft validation failed: %w", err)
	}

	amount, err := decimal.NewFromString(draft.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid draft amount %q: %w", draft.Amount, core.ErrInvalidInput)
	}

	in := core.PaymentInput{
		PaidOn:      draft.PaidOn,
		VehicleType: core.VehicleType(draft.VehicleType),
		Amount:      amount,
		Currency:    draft.Currency,
	}
	if draft.ReceiptRef != "" {
		in.ReceiptRef = &draft.ReceiptRef
	}
	if draft.StationName != "" {
		id, err := s.findStationByName(ctx, draft.StationName)
		if err != nil {
			return nil, err
		}
		in.StationID = id
	}

	return s.payments.CreatePayment(ctx, in)
}

// findStationByName maps an agent-proposed station name back to an id.
// The agent is instructed to echo names from the provided list verbatim, so
// the match is case-insensitive but otherwise exact.
func (s *appService) findStationByName(ctx context.Context, name string) (*int, error) {
	stations, err := s.stations.ListStations(ctx, true)
	if err != nil {
		return nil, err
	}
	for _, st := range stations {
		if strings.EqualFold(st.Name, name) {
			id := st.ID
			return &id, nil
		}
	}
	return nil, fmt.Errorf("toll station %q: %w", name, core.ErrNotFound)
}
