package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"

	"fleet-costing/internal/app"
	"fleet-costing/internal/core"

	"github.com/shopspring/decimal"
)

// Run executes a one-shot CLI command and exits.
// args is os.Args[1:]; the first element is the subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, args []string) {
	switch args[0] {
	case "draft", "d":
		if len(args) < 2 {
			log.Fatal("Usage: app draft \"<toll expense description>\"")
		}
		result, err := svc.InterpretExpense(ctx, args[1])
		if err != nil {
			log.Fatalf("Agent error: %v", err)
		}
		if result.IsClarification {
			fmt.Fprintln(os.Stderr, "AI needs clarification:", result.ClarificationMessage)
			os.Exit(1)
		}
		writeJSON(result.Draft)

	case "commit", "com", "c":
		var draft core.PaymentDraft
		if err := json.NewDecoder(os.Stdin).Decode(&draft); err != nil {
			log.Fatalf("Invalid JSON: %v", err)
		}
		payment, err := svc.CommitDraft(ctx, draft)
		if err != nil {
			log.Fatalf("Commit failed: %v", err)
		}
		fmt.Printf("Payment recorded (ID: %d, Status: %s).\n", payment.ID, payment.Status)

	case "cost":
		// Usage: app cost <route-id> <vehicle-type> <profile-id> <tons> [trips/month]
		if len(args) < 5 {
			log.Fatal("Usage: app cost <route-id> <vehicle-type> <profile-id> <tons-per-trip> [trips-per-month]")
		}
		routeID, err1 := strconv.Atoi(args[1])
		profileID, err2 := strconv.Atoi(args[3])
		if err1 != nil || err2 != nil {
			log.Fatal("Route and profile ids must be numeric.")
		}
		tons, err := decimal.NewFromString(args[4])
		if err != nil {
			log.Fatalf("Invalid tons per trip: %s", args[4])
		}
		req := app.CostingRequest{
			RouteID:       routeID,
			VehicleType:   args[2],
			CostProfileID: profileID,
			TonsPerTrip:   tons,
		}
		if len(args) >= 6 {
			trips, err := decimal.NewFromString(args[5])
			if err != nil {
				log.Fatalf("Invalid trips per month: %s", args[5])
			}
			req.TripsPerMonth = &trips
		}
		result, err := svc.CalculateCosting(ctx, req)
		if err != nil {
			log.Fatalf("Costing failed: %v", err)
		}
		writeJSON(result)

	case "reconcile", "rec":
		if len(args) < 3 {
			log.Fatal("Usage: app reconcile <from-date> <to-date> [route-id]")
		}
		req := app.ReconcileRequest{StartDate: args[1], EndDate: args[2]}
		if len(args) >= 4 {
			routeID, err := strconv.Atoi(args[3])
			if err != nil {
				log.Fatalf("Invalid route id: %s", args[3])
			}
			req.RouteID = &routeID
		}
		report, err := svc.Reconcile(ctx, req)
		if err != nil {
			log.Fatalf("Reconciliation failed: %v", err)
		}
		writeJSON(report)

	default:
		log.Fatalf("Unknown command: %s\nAvailable: draft, commit, cost, reconcile", args[0])
	}
}

func writeJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalf("Failed to encode output: %v", err)
	}
}
