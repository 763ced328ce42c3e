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

// Run starts the interactive REPL loop.
// It reads commands from reader, dispatches slash commands deterministically,
// and routes natural language input through the AI expense agent.
func Run(ctx context.Context, svc app.ApplicationService, reader *bufio.Reader) {
	fmt.Println("Fleet Costing")
	fmt.Println("Describe a toll expense to record a payment draft, or use /help for commands.")
	fmt.Println(strings.Repeat("-", 70))

	errExit := fmt.Errorf("exit")

	dispatchSlash := func(input string) error {
		tokens := strings.Fields(strings.TrimPrefix(input, "/"))
		if len(tokens) == 0 {
			return nil
		}
		cmd := strings.ToLower(tokens[0])
		args := tokens[1:]

		switch cmd {
		case "stations":
			result, err := svc.ListStations(ctx, !hasFlag(args, "all"))
			if err != nil {
				return err
			}
			printStations(result)

		case "new-station":
			if len(args) < 1 {
				fmt.Println("Usage: /new-station <name> [city] [code]")
				return nil
			}
			req := app.CreateStationRequest{Name: args[0]}
			if len(args) >= 2 {
				req.City = args[1]
			}
			if len(args) >= 3 {
				req.Code = strings.ToUpper(args[2])
			}
			st, err := svc.CreateStation(ctx, req)
			if err != nil {
				return err
			}
			fmt.Printf("Station created (ID: %d)\n", st.ID)

		case "rates":
			id, ok := parseID(args, 0, "Usage: /rates <station-id>")
			if !ok {
				return nil
			}
			rates, err := svc.ListRates(ctx, id)
			if err != nil {
				return err
			}
			printRates(id, rates)

		case "new-rate":
			// Usage: /new-rate <station-id> <vehicle-type> <amount> <currency> [from] [to]
			if len(args) < 4 {
				fmt.Println("Usage: /new-rate <station-id> <vehicle-type> <amount> <currency> [from] [to]")
				fmt.Println("  Dates are YYYY-MM-DD; omit for an open-ended window.")
				return nil
			}
			stationID, err := strconv.Atoi(args[0])
			if err != nil {
				fmt.Printf("Invalid station id: %s\n", args[0])
				return nil
			}
			amount, err := decimal.NewFromString(args[2])
			if err != nil {
				fmt.Printf("Invalid amount: %s\n", args[2])
				return nil
			}
			req := app.RateRequest{
				StationID:   stationID,
				VehicleType: args[1],
				Amount:      amount,
				Currency:    args[3],
			}
			if len(args) >= 5 {
				req.EffectiveFrom = args[4]
			}
			if len(args) >= 6 {
				req.EffectiveTo = args[5]
			}
			rate, err := svc.CreateRate(ctx, req)
			if err != nil {
				return err
			}
			fmt.Printf("Rate created (ID: %d): %s %s per %s pass\n", rate.ID, rate.Amount, rate.Currency, rate.VehicleType)

		case "retire-rate":
			id, ok := parseID(args, 0, "Usage: /retire-rate <rate-id>")
			if !ok {
				return nil
			}
			if err := svc.DeactivateRate(ctx, id); err != nil {
				return err
			}
			fmt.Printf("Rate %d deactivated.\n", id)

		case "routes":
			result, err := svc.ListRoutes(ctx, !hasFlag(args, "all"))
			if err != nil {
				return err
			}
			printRoutes(result)

		case "route":
			id, ok := parseID(args, 0, "Usage: /route <route-id>")
			if !ok {
				return nil
			}
			route, err := svc.GetRoute(ctx, id)
			if err != nil {
				return err
			}
			printRouteDetail(route)

		case "new-route":
			handleNewRoute(ctx, reader, svc)

		case "add-station":
			// Usage: /add-station <route-id> <station-id> [sort-order]
			if len(args) < 2 {
				fmt.Println("Usage: /add-station <route-id> <station-id> [sort-order]")
				return nil
			}
			routeID, err1 := strconv.Atoi(args[0])
			stationID, err2 := strconv.Atoi(args[1])
			if err1 != nil || err2 != nil {
				fmt.Println("Route and station ids must be numeric.")
				return nil
			}
			sortOrder := 0
			if len(args) >= 3 {
				sortOrder, _ = strconv.Atoi(args[2])
			}
			if _, err := svc.AddRouteStation(ctx, routeID, stationID, sortOrder); err != nil {
				return err
			}
			fmt.Printf("Station %d added to route %d.\n", stationID, routeID)

		case "remove-station":
			if len(args) < 2 {
				fmt.Println("Usage: /remove-station <route-id> <station-id>")
				return nil
			}
			routeID, err1 := strconv.Atoi(args[0])
			stationID, err2 := strconv.Atoi(args[1])
			if err1 != nil || err2 != nil {
				fmt.Println("Route and station ids must be numeric.")
				return nil
			}
			if err := svc.RemoveRouteStation(ctx, routeID, stationID); err != nil {
				return err
			}
			fmt.Printf("Station %d removed from route %d.\n", stationID, routeID)

		case "set-stations":
			// Usage: /set-stations <route-id> <station-id> [station-id ...]
			if len(args) < 2 {
				fmt.Println("Usage: /set-stations <route-id> <station-id> [station-id ...]")
				return nil
			}
			routeID, err := strconv.Atoi(args[0])
			if err != nil {
				fmt.Printf("Invalid route id: %s\n", args[0])
				return nil
			}
			var stationIDs []int
			for _, a := range args[1:] {
				id, err := strconv.Atoi(a)
				if err != nil {
					fmt.Printf("Invalid station id: %s\n", a)
					return nil
				}
				stationIDs = append(stationIDs, id)
			}
			route, err := svc.ReplaceRouteStations(ctx, routeID, stationIDs)
			if err != nil {
				return err
			}
			printRouteDetail(route)

		case "tolls":
			if len(args) < 2 {
				fmt.Println("Usage: /tolls <route-id> <vehicle-type>")
				return nil
			}
			routeID, err := strconv.Atoi(args[0])
			if err != nil {
				fmt.Printf("Invalid route id: %s\n", args[0])
				return nil
			}
			result, err := svc.ExpectedTolls(ctx, routeID, args[1])
			if err != nil {
				return err
			}
			printExpectedTolls(result)

		case "profiles":
			result, err := svc.ListProfiles(ctx, !hasFlag(args, "all"))
			if err != nil {
				return err
			}
			printProfiles(result)

		case "new-profile":
			handleNewProfile(ctx, reader, svc)

		case "cost":
			// Usage: /cost <route-id> <vehicle-type> <profile-id> <tons> [trips/month]
			if len(args) < 4 {
				fmt.Println("Usage: /cost <route-id> <vehicle-type> <profile-id> <tons-per-trip> [trips-per-month]")
				return nil
			}
			routeID, err1 := strconv.Atoi(args[0])
			profileID, err2 := strconv.Atoi(args[2])
			if err1 != nil || err2 != nil {
				fmt.Println("Route and profile ids must be numeric.")
				return nil
			}
			tons, err := decimal.NewFromString(args[3])
			if err != nil {
				fmt.Printf("Invalid tons per trip: %s\n", args[3])
				return nil
			}
			req := app.CostingRequest{
				RouteID:       routeID,
				VehicleType:   args[1],
				CostProfileID: profileID,
				TonsPerTrip:   tons,
			}
			if len(args) >= 5 {
				trips, err := decimal.NewFromString(args[4])
				if err != nil {
					fmt.Printf("Invalid trips per month: %s\n", args[4])
					return nil
				}
				req.TripsPerMonth = &trips
			}
			result, err := svc.CalculateCosting(ctx, req)
			if err != nil {
				return err
			}
			printCosting(result)

		case "payments":
			req := app.PaymentListRequest{}
			if len(args) >= 1 {
				req.FromDate = args[0]
			}
			if len(args) >= 2 {
				req.ToDate = args[1]
			}
			payments, err := svc.ListPayments(ctx, req)
			if err != nil {
				return err
			}
			printPayments(payments)

		case "new-payment":
			// Usage: /new-payment <date> <vehicle-type> <amount> <currency> [station-id]
			if len(args) < 4 {
				fmt.Println("Usage: /new-payment <date> <vehicle-type> <amount> <currency> [station-id]")
				return nil
			}
			amount, err := decimal.NewFromString(args[2])
			if err != nil {
				fmt.Printf("Invalid amount: %s\n", args[2])
				return nil
			}
			req := app.PaymentRequest{
				PaidOn:      args[0],
				VehicleType: args[1],
				Amount:      amount,
				Currency:    args[3],
			}
			if len(args) >= 5 {
				stationID, err := strconv.Atoi(args[4])
				if err != nil {
					fmt.Printf("Invalid station id: %s\n", args[4])
					return nil
				}
				req.StationID = &stationID
			}
			p, err := svc.CreatePayment(ctx, req)
			if err != nil {
				return err
			}
			fmt.Printf("Payment recorded (ID: %d, Status: DRAFT). Use /post %d to post it.\n", p.ID, p.ID)

		case "submit":
			id, ok := parseID(args, 0, "Usage: /submit <payment-id>")
			if !ok {
				return nil
			}
			p, err := svc.SubmitPayment(ctx, id)
			if err != nil {
				return err
			}
			fmt.Printf("Payment %d SUBMITTED for approval.\n", p.ID)

		case "approve":
			id, ok := parseID(args, 0, "Usage: /approve <payment-id>")
			if !ok {
				return nil
			}
			p, err := svc.ApprovePayment(ctx, id)
			if err != nil {
				return err
			}
			fmt.Printf("Payment %d APPROVED.\n", p.ID)

		case "post":
			id, ok := parseID(args, 0, "Usage: /post <payment-id>")
			if !ok {
				return nil
			}
			p, err := svc.PostPayment(ctx, id)
			if err != nil {
				return err
			}
			fmt.Printf("Payment %d POSTED. Receipt number: %s\n", p.ID, *p.ReceiptNumber)

		case "reconcile":
			// Usage: /reconcile <from> <to> [route-id] [vehicle-type]
			if len(args) < 2 {
				fmt.Println("Usage: /reconcile <from-date> <to-date> [route-id] [vehicle-type]")
				return nil
			}
			req := app.ReconcileRequest{StartDate: args[0], EndDate: args[1]}
			if len(args) >= 3 {
				routeID, err := strconv.Atoi(args[2])
				if err != nil {
					fmt.Printf("Invalid route id: %s\n", args[2])
					return nil
				}
				req.RouteID = &routeID
			}
			if len(args) >= 4 {
				req.VehicleType = args[3]
			}
			report, err := svc.Reconcile(ctx, req)
			if err != nil {
				return err
			}
			printReconciliation(report)

		case "help", "h":
			printHelp()

		case "exit", "quit", "e", "q":
			return errExit

		default:
			fmt.Printf("Unknown command: /%s  (type /help for all commands)\n", cmd)
		}
		return nil
	}

	for {
		fmt.Print("\n> ")
		input, _ := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		// Slash prefix -> deterministic command dispatcher, no AI invoked.
		if strings.HasPrefix(input, "/") {
			if err := dispatchSlash(input); err != nil {
				if err == errExit {
					fmt.Println("Goodbye!")
					break
				}
				fmt.Printf("Error: %v\n", err)
			}
			continue
		}

		// No slash prefix -> route to AI agent.
		fmt.Println("[AI] Processing...")
		accumulatedInput := input

		rounds := 0
		for {
			rounds++
			if rounds > 3 {
				fmt.Println("Could not produce a draft. Try /new-payment instead (see /help).")
				break
			}

			result, err := svc.InterpretExpense(ctx, accumulatedInput)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				break
			}

			if result.IsClarification {
				fmt.Printf("\n[AI]: %s\n", result.ClarificationMessage)
				fmt.Print("> ")
				userFollowUp, _ := reader.ReadString('\n')
				userFollowUp = strings.TrimSpace(userFollowUp)

				// Slash command during clarification cancels the AI flow and runs it.
				if strings.HasPrefix(userFollowUp, "/") {
					fmt.Println("(AI session cancelled)")
					if dispErr := dispatchSlash(userFollowUp); dispErr != nil {
						if dispErr == errExit {
							fmt.Println("Goodbye!")
							return
						}
						fmt.Printf("Error: %v\n", dispErr)
					}
					break
				}

				if userFollowUp == "" || strings.ToLower(userFollowUp) == "cancel" {
					fmt.Println("Cancelled.")
					break
				}
				accumulatedInput = fmt.Sprintf("Original expense: %s\nClarification requested: %s\nUser response: %s",
					accumulatedInput, result.ClarificationMessage, userFollowUp)
				fmt.Println("[AI] Thinking...")
				continue
			}

			draft := result.Draft
			printDraft(draft)

			if draft.Confidence < 0.6 {
				fmt.Println("\nWARNING: Low confidence draft.")
			}

			fmt.Print("\nRecord this payment draft? (y/n): ")
			choice, _ := reader.ReadString('\n')
			choice = strings.TrimSpace(strings.ToLower(choice))

			if choice == "y" || choice == "yes" {
				p, err := svc.CommitDraft(ctx, *draft)
				if err != nil {
					fmt.Printf("Recording FAILED: %v\n", err)
				} else {
					fmt.Printf("Payment recorded (ID: %d, Status: DRAFT). Use /post %d to post it.\n", p.ID, p.ID)
				}
			} else {
				fmt.Println("Draft discarded.")
			}
			break
		}
	}
}

func hasFlag(args []string, flag string) bool {
	for _, a := range args {
		if strings.EqualFold(a, flag) {
			return true
		}
	}
	return false
}

func parseID(args []string, idx int, usage string) (int, bool) {
	if len(args) <= idx {
		fmt.Println(usage)
		return 0, false
	}
	id, err := strconv.Atoi(args[idx])
	if err != nil {
		fmt.Printf("Invalid id: %s\n", args[idx])
		return 0, false
	}
	return id, true
}
