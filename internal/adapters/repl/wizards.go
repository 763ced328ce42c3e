package repl

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"fleet-costing/internal/app"

	"github.com/shopspring/decimal"
)

// handleNewRoute runs an interactive route creation session.
func handleNewRoute(ctx context.Context, reader *bufio.Reader, svc app.ApplicationService) {
	readLine := func(prompt string) string {
		fmt.Print(prompt)
		raw, _ := reader.ReadString('\n')
		return strings.TrimSpace(raw)
	}

	origin := readLine("Origin city: ")
	destination := readLine("Destination city: ")
	if origin == "" || destination == "" {
		fmt.Println("Origin and destination are required. Route not created.")
		return
	}

	distance, err := decimal.NewFromString(readLine("Distance (km): "))
	if err != nil || !distance.IsPositive() {
		fmt.Println("Invalid distance. Route not created.")
		return
	}

	var timeHours *decimal.Decimal
	if raw := readLine("Travel time in hours (optional): "); raw != "" {
		th, err := decimal.NewFromString(raw)
		if err != nil || th.IsNegative() {
			fmt.Println("Invalid travel time. Route not created.")
			return
		}
		timeHours = &th
	}

	route, err := svc.CreateRoute(ctx, app.CreateRouteRequest{
		OriginCity:      origin,
		DestinationCity: destination,
		DistanceKm:      distance,
		TimeHours:       timeHours,
	})
	if err != nil {
		fmt.Printf("Error creating route: %v\n", err)
		return
	}

	// Optional station list, in pass order.
	raw := readLine("Toll station ids in pass order (space separated, blank for none): ")
	if raw != "" {
		var stationIDs []int
		valid := true
		for _, tok := range strings.Fields(raw) {
			id, err := strconv.Atoi(tok)
			if err != nil {
				fmt.Printf("Invalid station id %q; stations not set.\n", tok)
				valid = false
				break
			}
			stationIDs = append(stationIDs, id)
		}
		if valid {
			if route, err = svc.ReplaceRouteStations(ctx, route.ID, stationIDs); err != nil {
				fmt.Printf("Error setting stations: %v\n", err)
			}
		}
	}

	fmt.Printf("\nRoute created (ID: %d)\n", route.ID)
	printRouteDetail(route)
}

// handleNewProfile runs an interactive cost profile creation session.
func handleNewProfile(ctx context.Context, reader *bufio.Reader, svc app.ApplicationService) {
	readLine := func(prompt string) string {
		fmt.Print(prompt)
		raw, _ := reader.ReadString('\n')
		return strings.TrimSpace(raw)
	}
	readOptionalDecimal := func(prompt string) (*decimal.Decimal, bool) {
		raw := readLine(prompt)
		if raw == "" {
			return nil, true
		}
		d, err := decimal.NewFromString(raw)
		if err != nil || d.IsNegative() {
			fmt.Println("Invalid number.")
			return nil, false
		}
		return &d, true
	}

	name := readLine("Profile name: ")
	vt := readLine("Vehicle type (FLATBED/TIPPER): ")
	currency := readLine("Currency: ")
	if name == "" || vt == "" || currency == "" {
		fmt.Println("Name, vehicle type, and currency are required. Profile not created.")
		return
	}

	req := app.ProfileRequest{Name: name, VehicleType: vt, Currency: currency}

	fmt.Println("Leave any field blank to omit it.")
	fields := []struct {
		prompt string
		target **decimal.Decimal
	}{
		{"Fuel cost per km: ", &req.FuelCostPerKm},
		{"Fuel cost per unit (liter): ", &req.FuelCostPerUnit},
		{"Fuel consumption per km: ", &req.FuelConsumptionPerKm},
		{"Communications per month: ", &req.CommunicationsMonthly},
		{"Labor per month: ", &req.LaborMonthly},
		{"Docs/GPS per month: ", &req.DocsGpsMonthly},
		{"Depreciation per month: ", &req.DepreciationMonthly},
		{"Overhead per trip: ", &req.OverheadPerTrip},
		{"Profit margin percent: ", &req.ProfitMarginPercent},
	}
	for _, f := range fields {
		val, ok := readOptionalDecimal(f.prompt)
		if !ok {
			fmt.Println("Profile not created.")
			return
		}
		*f.target = val
	}

	if choice := strings.ToLower(readLine("Include empty return leg? (y/n): ")); choice == "y" || choice == "yes" {
		req.IncludeEmptyLeg = true
		factor, ok := readOptionalDecimal("Empty leg factor (blank for 1.0): ")
		if !ok {
			fmt.Println("Profile not created.")
			return
		}
		req.EmptyLegFactor = factor
	}

	profile, err := svc.CreateProfile(ctx, req)
	if err != nil {
		fmt.Printf("Error creating profile: %v\n", err)
		return
	}
	fmt.Printf("\nProfile created (ID: %d): %s for %s\n", profile.ID, profile.Name, profile.VehicleType)
}
