package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/agropesa/backend-balanza/internal/entity"
	"github.com/agropesa/backend-balanza/internal/ledger"
	"github.com/agropesa/backend-balanza/internal/settlement"
	"github.com/agropesa/backend-balanza/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = "balanza.db"
	}

	st, err := store.OpenSQLite(dataPath, zerolog.Nop())
	if err != nil {
		log.Fatalf("Failed to open store at %s: %v", dataPath, err)
	}
	defer st.Close()

	ctx := context.Background()

	ledgerSvc, err := ledger.NewService(ctx, ledger.ServiceConfig{Store: st, Logger: zerolog.Nop()})
	if err != nil {
		log.Fatalf("Failed to initialise ledger: %v", err)
	}
	entitySvc, err := entity.NewService(ctx, entity.ServiceConfig{Store: st, Logger: zerolog.Nop()})
	if err != nil {
		log.Fatalf("Failed to initialise entities: %v", err)
	}
	settlementSvc, err := settlement.NewService(settlement.ServiceConfig{Store: st, Source: ledgerSvc, Logger: zerolog.Nop()})
	if err != nil {
		log.Fatalf("Failed to initialise settlement: %v", err)
	}

	categories := seedCategories(ctx, ledgerSvc)
	providers := seedEntities(ctx, entitySvc)
	seedReadings(ctx, ledgerSvc, providers, categories)
	seedPrices(ctx, settlementSvc, providers, categories)

	log.Println("Seeding completed successfully!")
}

func seedCategories(ctx context.Context, svc *ledger.Service) map[string]string {
	fmt.Println("Seeding Categories...")
	ids := map[string]string{}
	for _, c := range svc.Categories() {
		ids[c.Name] = c.ID
	}
	for _, name := range []string{"Cacao", "Café", "Maíz"} {
		if id, ok := ids[name]; ok {
			ids[name] = id
			continue
		}
		created, err := svc.AddCategory(ctx, name)
		if err != nil {
			log.Printf("Failed to seed category %s: %v", name, err)
			continue
		}
		ids[name] = created.ID
	}
	return ids
}

func seedEntities(ctx context.Context, svc *entity.Service) []string {
	providers := []string{
		"Cooperativa San Martín",
		"Finca Alta Vista",
		"Asociación Valle Verde",
	}

	fmt.Println("Seeding Entities...")
	var ids []string
	existing := map[string]string{}
	for _, e := range svc.List(entity.TypeProvider) {
		existing[e.Name] = e.ID
	}
	for _, name := range providers {
		if id, ok := existing[name]; ok {
			ids = append(ids, id)
			continue
		}
		created, err := svc.Add(ctx, name, entity.TypeProvider)
		if err != nil {
			log.Printf("Failed to seed entity %s: %v", name, err)
			continue
		}
		ids = append(ids, created.ID)
	}
	return ids
}

func seedReadings(ctx context.Context, svc *ledger.Service, entities []string, categories map[string]string) {
	readings := map[string][]float64{
		"Cacao": {48.5, 51.2, 49.8, 50.0, 52.3, 47.9, 50.5},
		"Café":  {60.1, 58.7, 61.4, 59.9, 60.0},
		"Maíz":  {100.2, 98.6, 101.5},
	}

	fmt.Println("Seeding Readings...")
	for _, entityID := range entities {
		for name, values := range readings {
			categoryID, ok := categories[name]
			if !ok {
				continue
			}
			for _, v := range values {
				if _, err := svc.Append(ctx, entityID, categoryID, v); err != nil {
					log.Printf("Failed to seed reading %.1f for %s: %v", v, name, err)
				}
			}
		}
	}
}

func seedPrices(ctx context.Context, svc *settlement.Service, entities []string, categories map[string]string) {
	prices := map[string]float64{
		"Cacao": 9.50,
		"Café":  12.00,
		"Maíz":  1.80,
	}

	fmt.Println("Seeding Settlement Data...")
	for _, entityID := range entities {
		for name, price := range prices {
			categoryID, ok := categories[name]
			if !ok {
				continue
			}
			svc.SetPrice(ctx, entityID, categoryID, price)
		}
		svc.SetFreightRate(ctx, entityID, 0.35)
		svc.SetSackValue(ctx, entityID, 25)
	}
}
