package main

import (
	"bufio"
	"context"
	"log"
	"os"

	"fleet-costing/internal/adapters/cli"
	"fleet-costing/internal/adapters/repl"
	"fleet-costing/internal/ai"
	"fleet-costing/internal/app"
	"fleet-costing/internal/cache"
	"fleet-costing/internal/core"
	"fleet-costing/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	var rates *cache.RateCache
	redisClient, err := cache.NewClient(ctx)
	if err != nil {
		log.Printf("Warning: redis unavailable, rate lookups go straight to the database: %v", err)
	} else if redisClient != nil {
		defer redisClient.Close()
		rates = cache.NewRateCache(redisClient)
	}

	resolver := core.NewRateResolver(pool, rates)
	stations := core.NewTollStationService(pool)
	routes := core.NewRouteService(pool, resolver)
	profiles := core.NewCostProfileService(pool)
	costing := core.NewRouteCostingService(routes, profiles, resolver)
	payments := core.NewTollPaymentService(pool)
	recon := core.NewReconciliationService(pool, resolver)

	var agent *ai.Agent
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		agent = ai.NewAgent(apiKey)
	} else {
		log.Println("Warning: OPENAI_API_KEY is not set, natural language input is disabled")
	}

	svc := app.NewAppService(stations, routes, profiles, costing, payments, recon, agent)

	if len(os.Args) > 1 {
		cli.Run(ctx, svc, os.Args[1:])
		return
	}
	repl.Run(ctx, svc, bufio.NewReader(os.Stdin))
}
