package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"fleet-costing/internal/ai"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load() // Load .env if present

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal("OPENAI_API_KEY not set")
	}

	agent := ai.NewAgent(apiKey)
	ctx := context.Background()

	stationList := `
- Cairo Gate (Cairo)
- Alexandria Desert Road Plaza (Alexandria)
- Ain Sokhna Gate (Suez)
`

	expense := "Paid 250 EGP at Cairo Gate with the flatbed this morning, receipt A-4471."

	fmt.Printf("INTERPRETING EXPENSE: %s\n", expense)
	response, err := agent.InterpretExpense(ctx, expense, stationList)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	if response.IsClarificationRequest {
		fmt.Printf("\n--- CLARIFICATION ---\n%s\n", response.Clarification.Message)
		return
	}

	draft := response.Draft
	fmt.Printf("\n--- DRAFT ---\n")
	fmt.Printf("Date:        %s\n", draft.PaidOn)
	fmt.Printf("Vehicle:     %s\n", draft.VehicleType)
	fmt.Printf("Station:     %s\n", draft.StationName)
	fmt.Printf("Amount:      %s %s\n", draft.Amount, draft.Currency)
	fmt.Printf("Receipt ref: %s\n", draft.ReceiptRef)
	fmt.Printf("Confidence:  %.2f\n", draft.Confidence)
	fmt.Printf("Reasoning:   %s\n", draft.Reasoning)
}
