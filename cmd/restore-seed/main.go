// restore-seed is a one-shot tool to restore the demo master data: toll
// stations on the Cairo corridors, the routes that pass them, current toll
// rates, and one cost profile per vehicle type.
//
// Usage: go run ./cmd/restore-seed
package main

import (
	"context"
	"log"
	"os"

	"fleet-costing/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	log.Println("Clearing demo toll payments...")
	_, err = tx.Exec(ctx, `
		DELETE FROM toll_payments WHERE station_id IN (
			SELECT id FROM toll_stations WHERE code IN ('CAI-GATE', 'ALX-DRP', 'SOK-GATE')
		);
	`)
	if err != nil {
		log.Fatalf("Failed to clear demo payments: %v", err)
	}

	log.Println("Restoring toll stations...")
	_, err = tx.Exec(ctx, `
		INSERT INTO toll_stations (name, city, code)
		VALUES
		  ('Cairo Gate',                   'Cairo',      'CAI-GATE'),
		  ('Alexandria Desert Road Plaza', 'Alexandria', 'ALX-DRP'),
		  ('Ain Sokhna Gate',              'Suez',       'SOK-GATE')
		ON CONFLICT (code) DO UPDATE
		  SET name = EXCLUDED.name,
		      city = EXCLUDED.city,
		      is_active = true;
	`)
	if err != nil {
		log.Fatalf("Failed to restore stations: %v", err)
	}

	log.Println("Restoring routes...")
	_, err = tx.Exec(ctx, `
		INSERT INTO routes (origin_city, destination_city, distance_km, time_hours)
		SELECT r.origin, r.destination, r.distance, r.hours
		FROM (VALUES
		    ('Cairo', 'Alexandria', 220.00, 3.00),
		    ('Cairo', 'Ain Sokhna', 140.00, 2.00)
		) AS r(origin, destination, distance, hours)
		WHERE NOT EXISTS (
			SELECT 1 FROM routes
			WHERE origin_city = r.origin AND destination_city = r.destination
		);
	`)
	if err != nil {
		log.Fatalf("Failed to restore routes: %v", err)
	}

	log.Println("Linking stations to routes...")
	_, err = tx.Exec(ctx, `
		INSERT INTO route_toll_stations (route_id, station_id, sort_order)
		SELECT r.id, s.id, l.sort_order
		FROM (VALUES
		    ('Cairo', 'Alexandria', 'CAI-GATE', 1),
		    ('Cairo', 'Alexandria', 'ALX-DRP',  2),
		    ('Cairo', 'Ain Sokhna', 'CAI-GATE', 1),
		    ('Cairo', 'Ain Sokhna', 'SOK-GATE', 2)
		) AS l(origin, destination, station_code, sort_order)
		JOIN routes r ON r.origin_city = l.origin AND r.destination_city = l.destination
		JOIN toll_stations s ON s.code = l.station_code
		WHERE NOT EXISTS (
			SELECT 1 FROM route_toll_stations x
			WHERE x.route_id = r.id AND x.station_id = s.id AND x.is_active
		);
	`)
	if err != nil {
		log.Fatalf("Failed to link stations: %v", err)
	}

	log.Println("Restoring toll rates...")
	_, err = tx.Exec(ctx, `
		INSERT INTO toll_rates (station_id, vehicle_type, amount, currency, effective_from)
		SELECT s.id, v.vehicle_type, v.amount, 'EGP', DATE '2025-01-01'
		FROM toll_stations s
		JOIN (VALUES
		    ('CAI-GATE', 'FLATBED', 25.00),
		    ('CAI-GATE', 'TIPPER',  35.00),
		    ('ALX-DRP',  'FLATBED', 20.00),
		    ('ALX-DRP',  'TIPPER',  30.00),
		    ('SOK-GATE', 'FLATBED', 15.00),
		    ('SOK-GATE', 'TIPPER',  22.50)
		) AS v(station_code, vehicle_type, amount) ON v.station_code = s.code
		WHERE NOT EXISTS (
			SELECT 1 FROM toll_rates x
			WHERE x.station_id = s.id AND x.vehicle_type = v.vehicle_type AND x.is_active
		);
	`)
	if err != nil {
		log.Fatalf("Failed to restore rates: %v", err)
	}

	log.Println("Restoring cost profiles...")
	_, err = tx.Exec(ctx, `
		INSERT INTO cost_profiles (
			name, vehicle_type, currency, profit_margin_percent, fuel_cost_per_km,
			labor_monthly, depreciation_monthly, overhead_per_trip,
			include_empty_leg, empty_leg_factor
		)
		SELECT p.name, p.vehicle_type, 'EGP', p.margin, p.fuel_per_km,
		       p.labor, p.depreciation, p.overhead, p.empty_leg, p.factor
		FROM (VALUES
		    ('Flatbed standard', 'FLATBED', 15.00, 0.50, 18000.00, 9000.00, 10.00, false, NULL::numeric),
		    ('Tipper standard',  'TIPPER',  12.00, 0.65, 18000.00, 12000.00, 12.00, true, 1.0)
		) AS p(name, vehicle_type, margin, fuel_per_km, labor, depreciation, overhead, empty_leg, factor)
		WHERE NOT EXISTS (
			SELECT 1 FROM cost_profiles x WHERE x.name = p.name AND x.is_active
		);
	`)
	if err != nil {
		log.Fatalf("Failed to restore profiles: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit: %v", err)
	}

	log.Println("Seed data restored successfully.")
	os.Exit(0)
}
