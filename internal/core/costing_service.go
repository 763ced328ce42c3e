package core

import (
	"context"
	"fmt"
	"time"
)

// RouteCostingService is the costing engine entry point: it assembles the
// route facts, the profile, and the tolls effective at the reference
// instant, then runs the pure computation. Each call is a stateless
// read-only request; concurrent calls are independent.
type RouteCostingService interface {
	// CalculateCosting computes the full trip/month cost breakdown for a
	// route under a cost profile. asOf is the reference instant for toll
	// rate resolution; pass time.Now() for current rates.
	CalculateCosting(ctx context.Context, req CostingRequest, asOf time.Time) (*CostingResult, error)
}

type costingService struct {
	routes   RouteService
	profiles CostProfileService
	resolver RateResolver
}

// NewRouteCostingService composes the costing engine from the route and
// profile services and the rate resolver.
func NewRouteCostingService(routes RouteService, profiles CostProfileService, resolver RateResolver) RouteCostingService {
	return &costingService{routes: routes, profiles: profiles, resolver: resolver}
}

func (s *costingService) CalculateCosting(ctx context.Context, req CostingRequest, asOf time.Time) (*CostingResult, error) {
	if !req.VehicleType.Valid() {
		return nil, fmt.Errorf("unknown vehicle type %q: %w", req.VehicleType, ErrInvalidInput)
	}

	route, err := s.routes.GetRoute(ctx, req.RouteID)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetProfile(ctx, req.CostProfileID)
	if err != nil {
		return nil, err
	}
	if profile.VehicleType != req.VehicleType {
		return nil, fmt.Errorf("cost profile %d is for %s, not %s: %w",
			profile.ID, profile.VehicleType, req.VehicleType, ErrInvalidInput)
	}

	tolls := []StationToll{}
	for _, rs := range route.Stations {
		rate, err := s.resolver.EffectiveRate(ctx, rs.StationID, req.VehicleType, asOf)
		if err != nil {
			return nil, err
		}
		if rate == nil {
			// No effective rate for this station right now; skipped, not an error.
			continue
		}
		tolls = append(tolls, StationToll{StationID: rs.StationID, Name: rs.StationName, Amount: rate.Amount})
	}

	return ComputeCosting(CostingInput{
		RouteID:             route.ID,
		OriginCity:          route.OriginCity,
		DestinationCity:     route.DestinationCity,
		DistanceKm:          route.DistanceKm,
		TimeHours:           route.TimeHours,
		Tolls:               tolls,
		Profile:             *profile,
		TonsPerTrip:         req.TonsPerTrip,
		TripsPerMonth:       req.TripsPerMonth,
		IncludeEmptyLeg:     req.IncludeEmptyLeg,
		ProfitMarginPercent: req.ProfitMarginPercent,
	})
}
