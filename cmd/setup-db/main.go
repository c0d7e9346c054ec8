package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/soufiangit/supplementer.ai/internal/config"
	"github.com/soufiangit/supplementer.ai/internal/database"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Database.URL == "" {
		log.Fatal("SUPP_DB_URL is required")
	}

	_, name, err := database.AdminURL(cfg.Database.URL)
	if err != nil {
		log.Fatalf("db url: %v", err)
	}

	created, err := database.CreateDatabase(context.Background(), cfg.Database.URL)
	if err != nil {
		log.Fatalf("setup: %v", err)
	}
	if !created {
		log.Printf("database %q already exists", name)
		return
	}
	log.Printf("database %q created", name)
}
