// Command seed fills a namespace with demo tenants for local
// development: one account, a configurable number of shops, products
// per shop and records per product.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"

	"cfp/internal/kvport"
	"cfp/internal/model"
	"cfp/internal/storage"
)

type Config struct {
	Backend  string
	DataDir  string
	Account  string
	Password string
	Shops    int
	Products int
	Records  int
	Seed     int64
}

func main() {
	cfg := readFlags()
	if err := run(cfg); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

func readFlags() Config {
	var cfg Config
	flag.StringVar(&cfg.Backend, "backend", "pebble", "storage backend: memory|pebble|badger")
	flag.StringVar(&cfg.DataDir, "data-dir", "./data/cfp", "data directory")
	flag.StringVar(&cfg.Account, "account", "demo_farmer", "account name")
	flag.StringVar(&cfg.Password, "password", "demo", "account password")
	flag.IntVar(&cfg.Shops, "shops", 1, "number of shops")
	flag.IntVar(&cfg.Products, "products", 5, "products per shop")
	flag.IntVar(&cfg.Records, "records", 10, "records per product")
	flag.Int64Var(&cfg.Seed, "seed", 42, "random seed")
	flag.Parse()
	return cfg
}

var materials = []string{"water", "fertilizer", "diesel", "electricity", "packaging film", "compost"}
var units = []string{"kg", "L", "kWh"}

func run(cfg Config) error {
	var port kvport.Port
	switch cfg.Backend {
	case "memory":
		port = kvport.NewMemoryPort()
	case "badger":
		bp, err := kvport.NewBadgerPort(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("init badger: %w", err)
		}
		defer bp.Close()
		port = bp
	default:
		pp, err := kvport.NewPebblePort(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("init pebble: %w", err)
		}
		defer pp.Close()
		port = pp
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	store := storage.New(port)

	if !store.AccountExists(cfg.Account) {
		if err := store.CreateAccount(cfg.Account, cfg.Password, model.RoleFarmer); err != nil {
			return err
		}
	}
	if _, err := store.Session().Login(cfg.Account, cfg.Password); err != nil {
		return err
	}

	for i := 0; i < cfg.Shops; i++ {
		shop, err := store.CreateShop(fmt.Sprintf("Demo shop %d", i+1), cfg.Account)
		if err != nil {
			return fmt.Errorf("create shop %d: %w", i+1, err)
		}
		for j := 0; j < cfg.Products; j++ {
			prod, err := store.AddProduct(shop.ID, fmt.Sprintf("Tea batch %d-%d", i+1, j+1), "")
			if err != nil {
				return fmt.Errorf("add product: %w", err)
			}
			cfgStages, err := store.StageConfig(shop.ID, prod.ID)
			if err != nil {
				return fmt.Errorf("stage config: %w", err)
			}
			for k := 0; k < cfg.Records; k++ {
				stage := cfgStages[rng.Intn(len(cfgStages))]
				tag := stage.AllowedTags[rng.Intn(len(stage.AllowedTags))]
				_, err := store.UpsertRecord(shop.ID, model.Record{
					ProductID: prod.ID,
					StageID:   stage.ID,
					Tag:       tag,
					Material:  materials[rng.Intn(len(materials))],
					Amount:    float64(1+rng.Intn(100)) / 10,
					Unit:      units[rng.Intn(len(units))],
					Emission:  float64(rng.Intn(5000)) / 1000,
				})
				if err != nil {
					return fmt.Errorf("upsert record: %w", err)
				}
			}
		}
		log.Printf("seeded shop %s (%s): %d products x %d records", shop.Name, shop.ID, cfg.Products, cfg.Records)
	}
	return nil
}
