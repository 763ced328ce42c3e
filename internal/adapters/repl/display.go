package repl

import (
	"fmt"
	"strings"

	"fleet-costing/internal/app"
	"fleet-costing/internal/core"
)

func printStations(stations []core.TollStation) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 62))
	fmt.Println("  TOLL STATIONS")
	fmt.Println(strings.Repeat("=", 62))
	if len(stations) == 0 {
		fmt.Println("  No stations found.")
		fmt.Println(strings.Repeat("=", 62))
		return
	}
	fmt.Printf("  %-5s %-28s %-15s %-8s %s\n", "ID", "NAME", "CITY", "CODE", "ACTIVE")
	fmt.Println(strings.Repeat("-", 62))
	for _, st := range stations {
		code := ""
		if st.Code != nil {
			code = *st.Code
		}
		fmt.Printf("  %-5d %-28s %-15s %-8s %v\n", st.ID, st.Name, st.City, code, st.IsActive)
	}
	fmt.Println(strings.Repeat("=", 62))
}

func printRates(stationID int, rates []core.TollRate) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 72))
	fmt.Printf("  TOLL RATES / Station %d\n", stationID)
	fmt.Println(strings.Repeat("=", 72))
	if len(rates) == 0 {
		fmt.Println("  No rates found.")
		fmt.Println(strings.Repeat("=", 72))
		return
	}
	fmt.Printf("  %-5s %-10s %10s %-5s %-12s %-12s %s\n", "ID", "VEHICLE", "AMOUNT", "CCY", "FROM", "TO", "ACTIVE")
	fmt.Println(strings.Repeat("-", 72))
	for _, r := range rates {
		from, to := "(open)", "(open)"
		if r.EffectiveFrom != nil {
			from = r.EffectiveFrom.Format("2006-01-02")
		}
		if r.EffectiveTo != nil {
			to = r.EffectiveTo.Format("2006-01-02")
		}
		fmt.Printf("  %-5d %-10s %10s %-5s %-12s %-12s %v\n",
			r.ID, r.VehicleType, r.Amount.StringFixed(2), r.Currency, from, to, r.IsActive)
	}
	fmt.Println(strings.Repeat("=", 72))
}

func printRoutes(routes []core.Route) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 72))
	fmt.Println("  ROUTES")
	fmt.Println(strings.Repeat("=", 72))
	if len(routes) == 0 {
		fmt.Println("  No routes found.")
		fmt.Println(strings.Repeat("=", 72))
		return
	}
	fmt.Printf("  %-5s %-18s %-18s %10s %8s %s\n", "ID", "ORIGIN", "DESTINATION", "KM", "HOURS", "ACTIVE")
	fmt.Println(strings.Repeat("-", 72))
	for _, r := range routes {
		hours := ""
		if r.TimeHours != nil {
			hours = r.TimeHours.StringFixed(1)
		}
		fmt.Printf("  %-5d %-18s %-18s %10s %8s %v\n",
			r.ID, r.OriginCity, r.DestinationCity, r.DistanceKm.StringFixed(1), hours, r.IsActive)
	}
	fmt.Println(strings.Repeat("=", 72))
}

func printRouteDetail(r *core.Route) {
	fmt.Println()
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("  Route:     %s -> %s (ID: %d)\n", r.OriginCity, r.DestinationCity, r.ID)
	fmt.Printf("  Distance:  %s km\n", r.DistanceKm.StringFixed(1))
	if r.TimeHours != nil {
		fmt.Printf("  Time:      %s h\n", r.TimeHours.StringFixed(1))
	}
	fmt.Println(strings.Repeat("-", 60))
	if len(r.Stations) == 0 {
		fmt.Println("  No toll stations on this route.")
	} else {
		fmt.Printf("  %-6s %-6s %s\n", "ORDER", "ID", "STATION")
		for _, rs := range r.Stations {
			fmt.Printf("  %-6d %-6d %s\n", rs.SortOrder, rs.StationID, rs.StationName)
		}
	}
	fmt.Println(strings.Repeat("-", 60))
}

func printExpectedTolls(result *app.ExpectedTollsResult) {
	fmt.Println()
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("  EXPECTED TOLLS / Route %d, %s\n", result.RouteID, result.VehicleType)
	fmt.Println(strings.Repeat("-", 60))
	for _, toll := range result.Tolls {
		fmt.Printf("  %-40s %15s\n", toll.Name, toll.Amount.StringFixed(2))
	}
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("  %-40s %15s\n", "TOTAL PER TRIP", result.Total.StringFixed(2))
	fmt.Println(strings.Repeat("-", 60))
}

func printProfiles(profiles []core.CostProfile) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 78))
	fmt.Println("  COST PROFILES")
	fmt.Println(strings.Repeat("=", 78))
	if len(profiles) == 0 {
		fmt.Println("  No profiles found.")
		fmt.Println(strings.Repeat("=", 78))
		return
	}
	fmt.Printf("  %-5s %-24s %-10s %-5s %8s %-10s %s\n", "ID", "NAME", "VEHICLE", "CCY", "MARGIN%", "EMPTY LEG", "ACTIVE")
	fmt.Println(strings.Repeat("-", 78))
	for _, p := range profiles {
		margin := ""
		if p.ProfitMarginPercent != nil {
			margin = p.ProfitMarginPercent.StringFixed(1)
		}
		emptyLeg := "no"
		if p.Config.IncludeEmptyLeg {
			emptyLeg = "yes"
			if p.Config.EmptyLegFactor != nil {
				emptyLeg = "x" + p.Config.EmptyLegFactor.String()
			}
		}
		fmt.Printf("  %-5d %-24s %-10s %-5s %8s %-10s %v\n",
			p.ID, p.Name, p.VehicleType, p.Currency, margin, emptyLeg, p.IsActive)
	}
	fmt.Println(strings.Repeat("=", 78))
}

func printCosting(r *core.CostingResult) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 66))
	fmt.Printf("  ROUTE COSTING / %s to %s (%s)\n", r.OriginCity, r.DestinationCity, r.VehicleType)
	fmt.Printf("  Distance: %s km   Currency: %s\n", r.DistanceKm.StringFixed(1), r.Currency)
	fmt.Println(strings.Repeat("=", 66))

	fmt.Println("  TOLLS")
	for _, toll := range r.Tolls {
		fmt.Printf("    %-42s %15s\n", toll.Name, toll.Amount.StringFixed(2))
	}
	fmt.Printf("  %-44s %15s\n", "TOLL PER TRIP", r.TollPerTrip.StringFixed(2))
	fmt.Println(strings.Repeat("-", 66))

	fmt.Println("  COMPONENTS (per trip)")
	fmt.Printf("    %-42s %15s\n", "Fuel", r.Components.FuelCost.StringFixed(2))
	fmt.Printf("    %-42s %15s\n", "Overhead", r.Components.OverheadPerTrip.StringFixed(2))
	fmt.Printf("    %-42s %15s\n", "Fixed (amortized)", r.Components.FixedCostPerTrip.StringFixed(2))
	if r.IncludeEmptyLeg {
		fmt.Printf("    %-42s %15s\n",
			fmt.Sprintf("Empty leg fuel (factor %s)", r.EmptyLegFactor.String()),
			r.Components.FuelCost.Mul(r.EmptyLegFactor).StringFixed(2))
	}
	fmt.Println(strings.Repeat("-", 66))

	fmt.Printf("  %-44s %15s\n", "TOTAL COST PER TRIP", r.TotalCostPerTrip.StringFixed(2))
	if r.TotalCostPerMonth != nil {
		fmt.Printf("  %-44s %15s\n", "TOTAL COST PER MONTH", r.TotalCostPerMonth.StringFixed(2))
	}
	fmt.Printf("  %-44s %15s\n", "COST PER TON-KM", r.CostPerTonPerKm.StringFixed(4))
	fmt.Printf("  %-44s %15s\n", "COST PER TON-KM (WITH EMPTY LEG)", r.CostPerTonPerKmIncludingEmptyLeg.StringFixed(4))
	fmt.Println(strings.Repeat("-", 66))
	fmt.Printf("  %-44s %15s\n",
		fmt.Sprintf("SALES PRICE (margin %s%%)", r.ProfitMarginPercent.StringFixed(1)),
		r.SalesPriceWithProfitMargin.StringFixed(2))
	fmt.Printf("  %-44s %15s\n", "SALES PRICE PER TON", r.SalesPricePerTon.StringFixed(2))
	fmt.Println(strings.Repeat("=", 66))
}

func printPayments(payments []core.TollPayment) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("  TOLL PAYMENTS")
	fmt.Println(strings.Repeat("=", 80))
	if len(payments) == 0 {
		fmt.Println("  No payments found.")
		fmt.Println(strings.Repeat("=", 80))
		return
	}
	fmt.Printf("  %-5s %-12s %-10s %-22s %10s %-5s %-10s %s\n",
		"ID", "DATE", "VEHICLE", "STATION", "AMOUNT", "CCY", "STATUS", "RECEIPT")
	fmt.Println(strings.Repeat("-", 80))
	for _, p := range payments {
		receipt := ""
		if p.ReceiptNumber != nil {
			receipt = *p.ReceiptNumber
		}
		station := p.StationName
		if station == "" {
			station = "(none)"
		}
		fmt.Printf("  %-5d %-12s %-10s %-22s %10s %-5s %-10s %s\n",
			p.ID, p.PaidOn, p.VehicleType, station, p.Amount.StringFixed(2), p.Currency, p.Status, receipt)
	}
	fmt.Println(strings.Repeat("=", 80))
}

func printReconciliation(r *core.ReconciliationReport) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 76))
	fmt.Printf("  TOLL RECONCILIATION / %s to %s\n", r.StartDate, r.EndDate)
	if r.RouteID != nil {
		fmt.Printf("  Route: %d\n", *r.RouteID)
	}
	if r.VehicleType != nil {
		fmt.Printf("  Vehicle type: %s\n", *r.VehicleType)
	}
	fmt.Println(strings.Repeat("=", 76))
	fmt.Printf("  %-28s %13s %13s %13s\n", "STATION", "EXPECTED", "ACTUAL", "VARIANCE")
	fmt.Println(strings.Repeat("-", 76))
	for _, line := range r.Stations {
		fmt.Printf("  %-28s %13s %13s %13s\n",
			line.StationName, line.Expected.StringFixed(2), line.Actual.StringFixed(2), line.Variance.StringFixed(2))
	}
	if !r.StationlessTotal.IsZero() {
		fmt.Printf("  %-28s %13s %13s %13s\n", "(no station reference)", "", r.StationlessTotal.StringFixed(2), "")
	}
	fmt.Println(strings.Repeat("-", 76))
	fmt.Printf("  %-28s %13s %13s %13s\n", "TOTAL",
		r.ExpectedTotal.StringFixed(2), r.ActualTotal.StringFixed(2), r.Variance.StringFixed(2))
	fmt.Println(strings.Repeat("=", 76))
}

func printDraft(d *core.PaymentDraft) {
	fmt.Printf("\nDATE:       %s\n", d.PaidOn)
	fmt.Printf("VEHICLE:    %s\n", d.VehicleType)
	station := d.StationName
	if station == "" {
		station = "(none)"
	}
	fmt.Printf("STATION:    %s\n", station)
	fmt.Printf("AMOUNT:     %s %s\n", d.Amount, d.Currency)
	if d.ReceiptRef != "" {
		fmt.Printf("RECEIPT:    %s\n", d.ReceiptRef)
	}
	fmt.Printf("REASONING:  %s\n", d.Reasoning)
	fmt.Printf("CONFIDENCE: %.2f\n", d.Confidence)
}

func printHelp() {
	fmt.Println()
	fmt.Println("FLEET COSTING COMMANDS")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Println()
	fmt.Println("  MASTER DATA")
	fmt.Println("  /stations [all]                              List toll stations")
	fmt.Println("  /new-station <name> [city] [code]            Register a toll station")
	fmt.Println("  /rates <station-id>                          List a station's rates")
	fmt.Println("  /new-rate <stn> <vt> <amt> <ccy> [from] [to] Add a time-boxed rate")
	fmt.Println("  /retire-rate <rate-id>                       Deactivate a rate")
	fmt.Println()
	fmt.Println("  ROUTES")
	fmt.Println("  /routes [all]                                List routes")
	fmt.Println("  /route <id>                                  Route with its station list")
	fmt.Println("  /new-route                                   Create route (interactive)")
	fmt.Println("  /add-station <route> <station> [order]       Append a station")
	fmt.Println("  /remove-station <route> <station>            Soft-remove a station")
	fmt.Println("  /set-stations <route> <station...>           Replace the station list atomically")
	fmt.Println("  /tolls <route> <vehicle-type>                Expected tolls right now")
	fmt.Println()
	fmt.Println("  COSTING")
	fmt.Println("  /profiles [all]                              List cost profiles")
	fmt.Println("  /new-profile                                 Create profile (interactive)")
	fmt.Println("  /cost <route> <vt> <profile> <tons> [trips]  Full trip/month cost breakdown")
	fmt.Println()
	fmt.Println("  PAYMENTS")
	fmt.Println("  /payments [from] [to]                        List toll payments")
	fmt.Println("  /new-payment <date> <vt> <amt> <ccy> [stn]   Record a DRAFT payment")
	fmt.Println("  /submit <id>                                 DRAFT -> SUBMITTED")
	fmt.Println("  /approve <id>                                SUBMITTED -> APPROVED")
	fmt.Println("  /post <id>                                   Post + assign receipt number")
	fmt.Println("  /reconcile <from> <to> [route] [vt]          Expected vs posted tolls")
	fmt.Println()
	fmt.Println("  SESSION")
	fmt.Println("  /help                                        Show this help")
	fmt.Println("  /exit                                        Exit")
	fmt.Println()
	fmt.Println("  AGENT MODE  (no / prefix)")
	fmt.Println("  Type any toll expense in natural language.")
	fmt.Println("  Example: \"paid 250 EGP at Cairo Gate with the flatbed yesterday\"")
	fmt.Println(strings.Repeat("=", 70))
}
