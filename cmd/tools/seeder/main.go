package main

import (
	"context"
	"log"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-pedidos/internal/catalog"
	"github.com/noah-isme/backend-pedidos/internal/config"
	"github.com/noah-isme/backend-pedidos/internal/store"
)

// Seeds the catalog with a starter product list so a fresh install has
// something to sell. Existing products are kept; seeding only fills an empty
// catalog.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("parse redis url: %v", err)
	}
	client := redis.NewClient(redisOpts)
	defer client.Close()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	kv := &store.Store{R: client, Prefix: cfg.RedisKeyPrefix + ":"}
	svc, err := catalog.NewService(ctx, catalog.ServiceConfig{Store: kv})
	if err != nil {
		log.Fatalf("initialise catalog: %v", err)
	}
	if svc.Count() > 0 {
		log.Printf("catalog already has %d products, nothing to do", svc.Count())
		return
	}

	products := []catalog.Product{
		{Name: "Empanada de carne", Provider: "Doña Carmen", Cost: 4000, FeeGaston: 500, FeeMaria: 500},
		{Name: "Empanada de pollo", Provider: "Doña Carmen", Cost: 3800, FeeGaston: 500, FeeMaria: 500},
		{Name: "Chipa almidón", Provider: "Chipería San Jorge", Cost: 2500, FeeGaston: 300, FeeMaria: 200},
		{Name: "Chipa so'o", Provider: "Chipería San Jorge", Cost: 5000, FeeGaston: 500, FeeMaria: 500},
		{Name: "Sopa paraguaya", Provider: "Lo de Ña Elsa", Cost: 8000, FeeGaston: 1000, FeeMaria: 1000},
		{Name: "Mbejú", Provider: "Lo de Ña Elsa", Cost: 6000, FeeGaston: 800, FeeMaria: 700},
		{Name: "Tereré ready (1L)", Provider: "Yerbatera Campesino", Cost: 12000, FeeGaston: 1500, FeeMaria: 1500},
		{Name: "Gaseosa 500ml", Provider: "Distribuidora Sur", Cost: 5000, FeeGaston: 500, FeeMaria: 500},
	}

	for _, p := range products {
		saved, err := svc.Upsert(ctx, p)
		if err != nil {
			log.Fatalf("seed %q: %v", p.Name, err)
		}
		log.Printf("seeded %s (%s) sale price %d", saved.Name, saved.ID, saved.SalePrice())
	}
	log.Printf("seeded %d products", len(products))
}
